package schedule

import (
	"testing"

	"github.com/google/uuid"
	"github.com/yuanban/yuanban/pkg/model"
)

var boardTeamID = uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000001")

func boardCatalog() model.Catalog {
	return model.NewCatalog([]*model.ShiftDefinition{
		{Code: "M", Time: model.TimeMorning, Location: "reparto_a", Roles: []model.StaffRole{model.RoleNurse}},
		{Code: "P", Time: model.TimeAfternoon, Location: "reparto_a", Roles: []model.StaffRole{model.RoleNurse}},
		{Code: "Po", Time: model.TimeAfternoon, Location: "reparto_b", Roles: []model.StaffRole{model.RoleNurse}},
		{Code: "N", Time: model.TimeNight, Location: "reparto_a", Roles: []model.StaffRole{model.RoleNurse}},
		{Code: "S", Time: model.TimeRest, Roles: []model.StaffRole{model.RoleNurse}},
		{Code: "R", Time: model.TimeRest, Roles: []model.StaffRole{model.RoleNurse}},
		{Code: "FE", Time: model.TimeAbsence, Roles: []model.StaffRole{model.RoleNurse}},
	})
}

func boardStaff(name string) *model.Staff {
	s := &model.Staff{Name: name, Role: model.RoleNurse, Contract: model.ContractH24}
	s.ID = uuid.New()
	s.TeamIDs = []uuid.UUID{boardTeamID}
	return s
}

func boardTeams() []*model.Team {
	t := &model.Team{
		Name:              "内科组",
		Locations:         []model.Location{"reparto_a", "reparto_b"},
		AllowedShiftCodes: []string{"M", "P", "Po", "N", "S", "R", "FE"},
	}
	t.ID = boardTeamID
	return []*model.Team{t}
}

func newTestBoard(staff ...*model.Staff) *Board {
	return NewBoard(staff, boardTeams(), boardCatalog())
}

func TestBoard_AddAndIndex(t *testing.T) {
	s := boardStaff("Anna")
	b := newTestBoard(s)

	a := &model.ScheduledAssignment{
		ID:      model.AssignmentID(s.ID, "2025-03-10"),
		StaffID: s.ID,
		Date:    "2025-03-10",
		Code:    model.NewShiftCode("M"),
	}
	if err := b.Add(a); err != nil {
		t.Fatalf("Add失败: %v", err)
	}

	if got := b.Get(s.ID, "2025-03-10"); got == nil || got.Code.String() != "M" {
		t.Errorf("Get() = %+v", got)
	}
	if got := b.GetByID(a.ID); got != a {
		t.Error("GetByID应返回同一记录")
	}
	if got := b.Get(s.ID, "2025-03-11"); got != nil {
		t.Errorf("无记录日期应返回nil, got %+v", got)
	}
}

func TestBoard_AddRejectsBadReferences(t *testing.T) {
	s := boardStaff("Anna")
	b := newTestBoard(s)

	// 未知人员
	unknown := &model.ScheduledAssignment{
		ID:      "x-2025-03-10",
		StaffID: uuid.New(),
		Date:    "2025-03-10",
		Code:    model.NewShiftCode("M"),
	}
	if err := b.Add(unknown); err == nil {
		t.Error("未知人员引用应被拒绝")
	}

	// 未知班次代码
	badCode := &model.ScheduledAssignment{
		ID:      model.AssignmentID(s.ID, "2025-03-10"),
		StaffID: s.ID,
		Date:    "2025-03-10",
		Code:    model.NewShiftCode("ZZZ"),
	}
	if err := b.Add(badCode); err == nil {
		t.Error("未知班次代码应被拒绝")
	}
}

func TestBoard_UncoveredIndex(t *testing.T) {
	b := newTestBoard()

	slots := []*model.ScheduledAssignment{
		{ID: model.UncoveredID("2025-03-10", "N", 0), StaffID: model.UnassignedStaffID, Date: "2025-03-10", Code: model.NewShiftCode("N")},
		{ID: model.UncoveredID("2025-03-10", "N", 1), StaffID: model.UnassignedStaffID, Date: "2025-03-10", Code: model.NewShiftCode("N")},
		{ID: model.UncoveredID("2025-03-11", "M", 0), StaffID: model.UnassignedStaffID, Date: "2025-03-11", Code: model.NewShiftCode("M")},
	}
	for _, slot := range slots {
		if err := b.Add(slot); err != nil {
			t.Fatalf("添加占位失败: %v", err)
		}
	}

	// 哨兵人员同一日期可持有多条占位
	if got := b.UncoveredOn("2025-03-10"); len(got) != 2 {
		t.Errorf("2025-03-10应有2条占位, got %d", len(got))
	}
	if got := b.Uncovered(); len(got) != 3 {
		t.Errorf("总占位数 = %d, expected 3", len(got))
	}

	b.Remove(slots[0].ID)
	if got := b.UncoveredOn("2025-03-10"); len(got) != 1 {
		t.Errorf("移除后应剩1条占位, got %d", len(got))
	}
}

func TestBoard_HasWorkedAt(t *testing.T) {
	s := boardStaff("Anna")
	b := newTestBoard(s)

	assignments := []*model.ScheduledAssignment{
		{ID: model.AssignmentID(s.ID, "2025-03-10"), StaffID: s.ID, Date: "2025-03-10", Code: model.NewShiftCode("M")},
		{ID: model.AssignmentID(s.ID, "2025-03-11"), StaffID: s.ID, Date: "2025-03-11", Code: model.NewShiftCode("R")},
	}
	if err := b.SetAssignments(assignments); err != nil {
		t.Fatalf("SetAssignments失败: %v", err)
	}

	if !b.HasWorkedAt(s.ID, "reparto_a") {
		t.Error("应有reparto_a工作经历")
	}
	if b.HasWorkedAt(s.ID, "reparto_b") {
		t.Error("不应有reparto_b工作经历")
	}
}
