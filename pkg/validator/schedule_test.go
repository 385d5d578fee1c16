package validator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/yuanban/yuanban/pkg/model"
)

var valTeamID = uuid.MustParse("abababab-0000-0000-0000-000000000001")

func valCatalog() model.Catalog {
	roles := []model.StaffRole{model.RoleNurse}
	return model.NewCatalog([]*model.ShiftDefinition{
		{Code: "M", Time: model.TimeMorning, Location: "reparto_a", Roles: roles},
		{Code: "P", Time: model.TimeAfternoon, Location: "reparto_a", Roles: roles},
		{Code: "N", Time: model.TimeNight, Location: "reparto_a", Roles: roles},
		{Code: "S", Time: model.TimeRest, Roles: roles},
		{Code: "R", Time: model.TimeRest, Roles: roles},
	})
}

func valTeams() map[uuid.UUID]*model.Team {
	team := &model.Team{
		Name:              "内科组",
		Locations:         []model.Location{"reparto_a"},
		AllowedShiftCodes: []string{"M", "P", "N", "S", "R"},
	}
	team.ID = valTeamID
	return map[uuid.UUID]*model.Team{valTeamID: team}
}

func valStaff(name string, contract model.ContractType) *model.Staff {
	s := &model.Staff{Name: name, Role: model.RoleNurse, Contract: contract}
	s.ID = uuid.New()
	s.TeamIDs = []uuid.UUID{valTeamID}
	return s
}

func entry(staffID uuid.UUID, date, code string) *model.ScheduledAssignment {
	sc, _ := model.ParseShiftCode(code)
	return &model.ScheduledAssignment{
		ID:      model.AssignmentID(staffID, date),
		StaffID: staffID,
		Date:    date,
		Code:    sc,
	}
}

func countByType(issues []Issue, typ IssueType) int {
	n := 0
	for _, issue := range issues {
		if issue.Type == typ {
			n++
		}
	}
	return n
}

func TestScheduleValidator_CleanSchedule(t *testing.T) {
	anna := valStaff("Anna", model.ContractH24)
	v := NewScheduleValidator(valCatalog(), valTeams())

	assignments := []*model.ScheduledAssignment{
		entry(anna.ID, "2025-03-10", "N"),
		entry(anna.ID, "2025-03-11", "S"),
		entry(anna.ID, "2025-03-12", "R"),
	}

	if issues := v.Validate(assignments, []*model.Staff{anna}); len(issues) != 0 {
		t.Errorf("合规排班不应有问题, got %+v", issues)
	}
}

func TestScheduleValidator_Duplicate(t *testing.T) {
	anna := valStaff("Anna", model.ContractH24)
	v := NewScheduleValidator(valCatalog(), valTeams())

	assignments := []*model.ScheduledAssignment{
		entry(anna.ID, "2025-03-10", "M"),
		{ID: "dup", StaffID: anna.ID, Date: "2025-03-10", Code: model.NewShiftCode("P")},
	}

	issues := v.Validate(assignments, []*model.Staff{anna})
	if countByType(issues, IssueDuplicate) != 1 {
		t.Errorf("应报告重复记录, got %+v", issues)
	}
}

func TestScheduleValidator_UnknownReferences(t *testing.T) {
	anna := valStaff("Anna", model.ContractH24)
	v := NewScheduleValidator(valCatalog(), valTeams())

	assignments := []*model.ScheduledAssignment{
		entry(uuid.New(), "2025-03-10", "M"),
		entry(anna.ID, "2025-03-11", "ZZZ"),
	}

	issues := v.Validate(assignments, []*model.Staff{anna})
	if countByType(issues, IssueUnknownStaff) != 1 {
		t.Errorf("应报告未知人员, got %+v", issues)
	}
	if countByType(issues, IssueUnknownCode) != 1 {
		t.Errorf("应报告未知代码, got %+v", issues)
	}
}

func TestScheduleValidator_MissingPostNightRest(t *testing.T) {
	anna := valStaff("Anna", model.ContractH24)
	v := NewScheduleValidator(valCatalog(), valTeams())

	assignments := []*model.ScheduledAssignment{
		entry(anna.ID, "2025-03-10", "N"),
		entry(anna.ID, "2025-03-11", "M"),
	}

	issues := v.Validate(assignments, []*model.Staff{anna})
	if countByType(issues, IssueMissingPostNight) != 1 {
		t.Errorf("夜班次日非歇班应报错, got %+v", issues)
	}

	// 月末夜班: 次日无记录则不报告
	tail := []*model.ScheduledAssignment{entry(anna.ID, "2025-03-31", "N")}
	if issues := v.Validate(tail, []*model.Staff{anna}); countByType(issues, IssueMissingPostNight) != 0 {
		t.Errorf("次日无记录不应报告, got %+v", issues)
	}
}

func TestScheduleValidator_ContractBreach(t *testing.T) {
	h6 := valStaff("Bruno", model.ContractH6)
	h12 := valStaff("Carla", model.ContractH12)
	v := NewScheduleValidator(valCatalog(), valTeams())

	tests := []struct {
		name  string
		asg   *model.ScheduledAssignment
		staff *model.Staff
	}{
		{"h6排午后班", entry(h6.ID, "2025-03-10", "P"), h6},
		{"h6排夜班", entry(h6.ID, "2025-03-10", "N"), h6},
		{"h12排夜班", entry(h12.ID, "2025-03-10", "N"), h12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := v.Validate([]*model.ScheduledAssignment{tt.asg}, []*model.Staff{tt.staff})
			if countByType(issues, IssueContractBreach) != 1 {
				t.Errorf("应报告合同违规, got %+v", issues)
			}
		})
	}
}

func TestScheduleValidator_BadCombination(t *testing.T) {
	h6 := valStaff("Bruno", model.ContractH6)
	h24 := valStaff("Anna", model.ContractH24)
	v := NewScheduleValidator(valCatalog(), valTeams())

	// h6不可持合并班次
	issues := v.Validate([]*model.ScheduledAssignment{entry(h6.ID, "2025-03-10", "M/P")}, []*model.Staff{h6})
	if countByType(issues, IssueBadCombination) != 1 {
		t.Errorf("h6合并班次应报错, got %+v", issues)
	}

	// 非早午组合
	issues = v.Validate([]*model.ScheduledAssignment{entry(h24.ID, "2025-03-10", "P/N")}, []*model.Staff{h24})
	if countByType(issues, IssueBadCombination) != 1 {
		t.Errorf("非早午组合应报错, got %+v", issues)
	}

	// 合法组合
	issues = v.Validate([]*model.ScheduledAssignment{entry(h24.ID, "2025-03-10", "M/P")}, []*model.Staff{h24})
	if countByType(issues, IssueBadCombination) != 0 {
		t.Errorf("合法组合不应报错, got %+v", issues)
	}
}

func TestScheduleValidator_EligibilityWarning(t *testing.T) {
	anna := valStaff("Anna", model.ContractH24)
	anna.UnavailableShiftCodes = []string{"N"}
	v := NewScheduleValidator(valCatalog(), valTeams())

	issues := v.Validate([]*model.ScheduledAssignment{entry(anna.ID, "2025-03-10", "N")}, []*model.Staff{anna})
	found := false
	for _, issue := range issues {
		if issue.Type == IssueNotEligible && issue.Severity == "warning" {
			found = true
		}
	}
	if !found {
		t.Errorf("个人禁用班次应产生警告, got %+v", issues)
	}
}

func TestScheduleValidator_SortedOutput(t *testing.T) {
	anna := valStaff("Anna", model.ContractH12)
	v := NewScheduleValidator(valCatalog(), valTeams())

	assignments := []*model.ScheduledAssignment{
		entry(anna.ID, "2025-03-20", "N"),
		entry(anna.ID, "2025-03-05", "N"),
	}

	issues := v.Validate(assignments, []*model.Staff{anna})
	for i := 1; i < len(issues); i++ {
		if issues[i-1].Date > issues[i].Date {
			t.Fatalf("问题清单应按日期排序, got %+v", issues)
		}
	}
}
