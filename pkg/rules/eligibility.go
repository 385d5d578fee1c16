// Package rules 提供班次分配资格判定
// 按固定顺序应用规则链，第一条不满足的规则即拒绝。
package rules

import (
	"sort"

	"github.com/google/uuid"
	"github.com/yuanban/yuanban/pkg/model"
)

// RoleSubstitutions 角色替代表：键角色可以顶替值集合中角色的班次
// 目前唯一的替代规则是护士长可顶替护士班次；
// 新增替代规则只需扩充此表，不应在判定逻辑中写内联条件。
var RoleSubstitutions = map[model.StaffRole][]model.StaffRole{
	model.RoleHeadNurse: {model.RoleNurse},
}

// canSubstitute 判断 role 是否可顶替班次角色集合中的某个角色
func canSubstitute(role model.StaffRole, def *model.ShiftDefinition) bool {
	for _, covered := range RoleSubstitutions[role] {
		if def.AllowsRole(covered) {
			return true
		}
	}
	return false
}

// IsShiftAllowed 判断人员是否可被分配到指定班次代码
// 规则顺序（第一条失败即拒绝）：
//  1. 个人禁用班次
//  2. 休息/缺勤类班次仅校验角色（任何合同都可以休息或缺勤）
//  3. 班组许可：所有所属班组的地点与班次代码并集
//  4. 角色匹配（含角色替代表）
//  5. 长班资格与合同门槛
//  6. 合同与时段规则
func IsShiftAllowed(shiftCode string, staff *model.Staff, catalog model.Catalog, teams map[uuid.UUID]*model.Team) bool {
	if staff.ShiftExcluded(shiftCode) {
		return false
	}

	def := catalog.Get(shiftCode)
	if def == nil {
		return true
	}

	if def.Time == model.TimeAbsence || def.Time == model.TimeRest {
		return def.AllowsRole(staff.Role)
	}

	if !teamPermits(staff, def, teams) {
		return false
	}

	if !def.AllowsRole(staff.Role) && !canSubstitute(staff.Role, def) {
		return false
	}

	if def.IsLong() {
		if !staff.LongShiftOK {
			return false
		}
		return staff.Contract == model.ContractH12 || staff.Contract == model.ContractH24
	}

	switch staff.Contract {
	case model.ContractH6:
		return def.Time == model.TimeMorning
	case model.ContractH12:
		return def.Time != model.TimeNight && def.Code != model.PostNightRestCode
	case model.ContractH24:
		return true
	default:
		return false
	}
}

// teamPermits 计算所属班组允许的地点与班次代码并集并校验
// 不属于任何班组、或没有任何班组允许该代码与地点的人员被拒绝。
func teamPermits(staff *model.Staff, def *model.ShiftDefinition, teams map[uuid.UUID]*model.Team) bool {
	codeOK, locationOK := false, false
	for _, teamID := range staff.TeamIDs {
		team := teams[teamID]
		if team == nil {
			continue
		}
		if team.PermitsCode(def.Code) {
			codeOK = true
		}
		if team.PermitsLocation(def.Location) {
			locationOK = true
		}
		if codeOK && locationOK {
			return true
		}
	}
	return codeOK && locationOK
}

// AllowedShifts 返回人员可被分配的全部班次定义
// 排除未覆盖占位代码；供手工编辑界面使用，生成器不调用。
func AllowedShifts(staff *model.Staff, catalog model.Catalog, teams map[uuid.UUID]*model.Team) []*model.ShiftDefinition {
	if staff.IsSentinel() {
		return nil
	}
	var allowed []*model.ShiftDefinition
	for _, def := range catalog {
		if def.Code == model.UncoveredCode {
			continue
		}
		if IsShiftAllowed(def.Code, staff, catalog, teams) {
			allowed = append(allowed, def)
		}
	}
	sort.Slice(allowed, func(i, j int) bool {
		return allowed[i].Code < allowed[j].Code
	})
	return allowed
}
