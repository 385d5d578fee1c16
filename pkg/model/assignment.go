// Package model 定义医院排班引擎的核心数据模型
package model

import (
	"strconv"

	"github.com/google/uuid"
)

// ScheduledAssignment 排班记录
// 常规人员在同一日期至多一条记录（代码可为组合班次）；
// 哨兵人员（UnassignedStaffID）可在同一日期持有多条未覆盖占位记录。
type ScheduledAssignment struct {
	ID      string    `json:"id" db:"id"`
	StaffID uuid.UUID `json:"staff_id" db:"staff_id"`
	Date    string    `json:"date" db:"date"` // YYYY-MM-DD
	Code    ShiftCode `json:"shift_code" db:"shift_code"`

	// OriginalStaffID 记录因缺勤产生的未覆盖班次原持有人
	OriginalStaffID *uuid.UUID `json:"original_staff_id,omitempty" db:"original_staff_id"`
}

// AssignmentID 生成常规排班记录的确定性ID
func AssignmentID(staffID uuid.UUID, date string) string {
	return staffID.String() + "-" + date
}

// UncoveredID 生成未覆盖占位记录的确定性ID
// index 区分同一日期同一班次代码的多个缺口。
func UncoveredID(date, code string, index int) string {
	return "uncovered-" + date + "-" + code + "-" + strconv.Itoa(index)
}

// IsUncovered 判断是否为未覆盖占位记录
func (a *ScheduledAssignment) IsUncovered() bool {
	return a.StaffID == UnassignedStaffID
}

// AbsenceRecord 缺勤记录（闭区间日期范围）
// Reason 为缺勤类别的班次代码。
type AbsenceRecord struct {
	ID        uuid.UUID `json:"id" db:"id"`
	StaffID   uuid.UUID `json:"staff_id" db:"staff_id"`
	StartDate string    `json:"start_date" db:"start_date"`
	EndDate   string    `json:"end_date" db:"end_date"`
	Reason    string    `json:"reason" db:"reason"`
}

// Dates 展开缺勤覆盖的全部日期
func (r *AbsenceRecord) Dates() []string {
	start, err1 := ParseDate(r.StartDate)
	end, err2 := ParseDate(r.EndDate)
	if err1 != nil || err2 != nil || end.Before(start) {
		return nil
	}
	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateLayout))
	}
	return dates
}
