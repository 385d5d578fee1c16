// Package validator 提供排班完整性校验
package validator

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/yuanban/yuanban/pkg/model"
	"github.com/yuanban/yuanban/pkg/rules"
)

// IssueType 校验问题类型
type IssueType string

const (
	IssueDuplicate        IssueType = "duplicate"          // 同人同日多条记录
	IssueUnknownStaff     IssueType = "unknown_staff"      // 人员引用无效
	IssueUnknownCode      IssueType = "unknown_code"       // 班次代码无效
	IssueMissingPostNight IssueType = "missing_post_night" // 夜班次日未歇班
	IssueContractBreach   IssueType = "contract_breach"    // 违反合同时段限制
	IssueBadCombination   IssueType = "bad_combination"    // 合并班次不合法
	IssueNotEligible      IssueType = "not_eligible"       // 人员不可排该班
)

// Issue 校验问题
type Issue struct {
	Type     IssueType `json:"type"`
	Severity string    `json:"severity"` // error/warning
	StaffID  uuid.UUID `json:"staff_id"`
	Date     string    `json:"date"`
	Message  string    `json:"message"`
}

// ScheduleValidator 排班校验器
type ScheduleValidator struct {
	catalog model.Catalog
	teams   map[uuid.UUID]*model.Team
}

// NewScheduleValidator 创建排班校验器
func NewScheduleValidator(catalog model.Catalog, teams map[uuid.UUID]*model.Team) *ScheduleValidator {
	return &ScheduleValidator{catalog: catalog, teams: teams}
}

// Validate 对整月排班做完整性校验
// 只读检查，返回按日期排序的问题清单，不修改任何数据。
func (v *ScheduleValidator) Validate(assignments []*model.ScheduledAssignment, staff []*model.Staff) []Issue {
	var issues []Issue

	staffByID := make(map[uuid.UUID]*model.Staff, len(staff))
	for _, st := range staff {
		staffByID[st.ID] = st
	}

	byStaffDate := make(map[uuid.UUID]map[string]model.ShiftCode)
	for _, asg := range assignments {
		if asg.IsUncovered() {
			continue
		}
		st, ok := staffByID[asg.StaffID]
		if !ok {
			issues = append(issues, Issue{
				Type: IssueUnknownStaff, Severity: "error",
				StaffID: asg.StaffID, Date: asg.Date,
				Message: fmt.Sprintf("人员 %s 不在花名册中", asg.StaffID),
			})
			continue
		}

		days, ok := byStaffDate[asg.StaffID]
		if !ok {
			days = make(map[string]model.ShiftCode)
			byStaffDate[asg.StaffID] = days
		}
		if _, dup := days[asg.Date]; dup {
			issues = append(issues, Issue{
				Type: IssueDuplicate, Severity: "error",
				StaffID: asg.StaffID, Date: asg.Date,
				Message: fmt.Sprintf("%s 在 %s 存在多条排班记录", st.Name, asg.Date),
			})
			continue
		}
		days[asg.Date] = asg.Code

		issues = append(issues, v.checkCode(st, asg)...)
	}

	issues = append(issues, v.checkPostNightRest(staffByID, byStaffDate)...)

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Date != issues[j].Date {
			return issues[i].Date < issues[j].Date
		}
		return issues[i].StaffID.String() < issues[j].StaffID.String()
	})
	return issues
}

// checkCode 校验单条排班的代码与资格
func (v *ScheduleValidator) checkCode(st *model.Staff, asg *model.ScheduledAssignment) []Issue {
	var issues []Issue

	if err := asg.Code.Validate(v.catalog); err != nil {
		issues = append(issues, Issue{
			Type: IssueUnknownCode, Severity: "error",
			StaffID: st.ID, Date: asg.Date,
			Message: fmt.Sprintf("%s 的班次代码 %s 无效", st.Name, asg.Code),
		})
		return issues
	}

	if asg.Code.IsCombined() {
		issues = append(issues, v.checkCombination(st, asg)...)
	}

	for _, part := range asg.Code.Parts() {
		def := v.catalog[part]
		if !def.Time.IsWorking() {
			continue
		}
		switch {
		case st.Contract == model.ContractH6 && def.Time != model.TimeMorning:
			issues = append(issues, Issue{
				Type: IssueContractBreach, Severity: "error",
				StaffID: st.ID, Date: asg.Date,
				Message: fmt.Sprintf("%s 为 H6 合同，不可排 %s", st.Name, part),
			})
		case st.Contract == model.ContractH12 && def.Time == model.TimeNight:
			issues = append(issues, Issue{
				Type: IssueContractBreach, Severity: "error",
				StaffID: st.ID, Date: asg.Date,
				Message: fmt.Sprintf("%s 为 H12 合同，不可排夜班 %s", st.Name, part),
			})
		}
		if !rules.IsShiftAllowed(part, st, v.catalog, v.teams) {
			issues = append(issues, Issue{
				Type: IssueNotEligible, Severity: "warning",
				StaffID: st.ID, Date: asg.Date,
				Message: fmt.Sprintf("%s 不满足班次 %s 的排班条件", st.Name, part),
			})
		}
	}
	return issues
}

// checkCombination 校验合并班次的构成
// 合并班仅限早班加午班，且要求 H12 以上合同。
func (v *ScheduleValidator) checkCombination(st *model.Staff, asg *model.ScheduledAssignment) []Issue {
	var issues []Issue
	first := v.catalog[asg.Code.First()]
	second := v.catalog[asg.Code.Second()]

	ok := (first.Time == model.TimeMorning && second.Time == model.TimeAfternoon) ||
		(first.Time == model.TimeAfternoon && second.Time == model.TimeMorning)
	if !ok {
		issues = append(issues, Issue{
			Type: IssueBadCombination, Severity: "error",
			StaffID: st.ID, Date: asg.Date,
			Message: fmt.Sprintf("合并班次 %s 不是早午班组合", asg.Code),
		})
	}
	if st.Contract == model.ContractH6 {
		issues = append(issues, Issue{
			Type: IssueBadCombination, Severity: "error",
			StaffID: st.ID, Date: asg.Date,
			Message: fmt.Sprintf("%s 为 H6 合同，不可排合并班次 %s", st.Name, asg.Code),
		})
	}
	return issues
}

// checkPostNightRest 校验夜班次日歇班
// 月末夜班的次日在下月，不在本次校验范围内。
func (v *ScheduleValidator) checkPostNightRest(staffByID map[uuid.UUID]*model.Staff,
	byStaffDate map[uuid.UUID]map[string]model.ShiftCode) []Issue {
	var issues []Issue
	for staffID, days := range byStaffDate {
		st := staffByID[staffID]
		for date, code := range days {
			if !v.containsNight(code) {
				continue
			}
			next := model.NextDate(date)
			nextCode, ok := days[next]
			if !ok {
				continue
			}
			if !nextCode.Contains(model.PostNightRestCode) {
				issues = append(issues, Issue{
					Type: IssueMissingPostNight, Severity: "error",
					StaffID: staffID, Date: next,
					Message: fmt.Sprintf("%s 夜班次日应为 %s，实际为 %s", st.Name, model.PostNightRestCode, nextCode),
				})
			}
		}
	}
	return issues
}

func (v *ScheduleValidator) containsNight(code model.ShiftCode) bool {
	for _, part := range code.Parts() {
		if def, ok := v.catalog[part]; ok && def.IsNight() {
			return true
		}
	}
	return false
}
