// Package model 定义医院排班引擎的核心数据模型
package model

import (
	"github.com/google/uuid"
)

// Staff 医护人员
type Staff struct {
	BaseModel
	Name     string       `json:"name" db:"name"`
	Role     StaffRole    `json:"role" db:"role"`
	Contract ContractType `json:"contract" db:"contract"`
	Phone    string       `json:"phone,omitempty" db:"phone"`
	Email    string       `json:"email,omitempty" db:"email"`

	// 所属班组（可属于多个班组，任一班组允许即视为允许）
	TeamIDs []uuid.UUID `json:"team_ids" db:"-"`

	// 个人禁用班次代码
	UnavailableShiftCodes []string `json:"unavailable_shift_codes,omitempty" db:"unavailable_shift_codes"`

	// 长班资格与月度上限
	LongShiftOK           bool `json:"long_shift_ok" db:"long_shift_ok"`
	MaxLongShiftsPerMonth int  `json:"max_long_shifts_per_month,omitempty" db:"max_long_shifts_per_month"`

	// 104法案照护假资格
	HasLaw104 bool `json:"has_law_104" db:"has_law_104"`
}

// IsSentinel 判断是否为未覆盖班次哨兵
func (s *Staff) IsSentinel() bool {
	return s.ID == UnassignedStaffID
}

// InTeam 判断人员是否属于某班组
func (s *Staff) InTeam(teamID uuid.UUID) bool {
	for _, id := range s.TeamIDs {
		if id == teamID {
			return true
		}
	}
	return false
}

// ShiftExcluded 判断班次代码是否在个人禁用集合中
func (s *Staff) ShiftExcluded(code string) bool {
	for _, c := range s.UnavailableShiftCodes {
		if c == code {
			return true
		}
	}
	return false
}

// Team 班组：决定成员可工作的地点与可分配的班次代码
type Team struct {
	BaseModel
	Name              string     `json:"name" db:"name"`
	Locations         []Location `json:"locations" db:"locations"`
	AllowedShiftCodes []string   `json:"allowed_shift_codes" db:"allowed_shift_codes"`
}

// PermitsCode 判断班组是否允许某个班次代码
func (t *Team) PermitsCode(code string) bool {
	for _, c := range t.AllowedShiftCodes {
		if c == code {
			return true
		}
	}
	return false
}

// PermitsLocation 判断班组是否覆盖某个工作地点
func (t *Team) PermitsLocation(loc Location) bool {
	for _, l := range t.Locations {
		if l == loc {
			return true
		}
	}
	return false
}
