package scheduler

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yuanban/yuanban/pkg/model"
)

var genTeamID = uuid.MustParse("cccccccc-0000-0000-0000-000000000001")

func genCatalog() model.Catalog {
	roles := []model.StaffRole{model.RoleNurse}
	return model.NewCatalog([]*model.ShiftDefinition{
		{Code: "M", Time: model.TimeMorning, Location: "reparto_a", Roles: roles},
		{Code: "P", Time: model.TimeAfternoon, Location: "reparto_a", Roles: roles},
		{Code: "N", Time: model.TimeNight, Location: "reparto_a", Roles: roles},
		{Code: "Ps", Time: model.TimeAfternoon, Location: "reparto_a", Roles: roles},
		{Code: "S", Time: model.TimeRest, Roles: roles},
		{Code: "R", Time: model.TimeRest, Roles: roles},
		{Code: "RS", Time: model.TimeRest, Roles: roles},
	})
}

func genTeams() map[uuid.UUID]*model.Team {
	team := &model.Team{
		Name:              "内科组",
		Locations:         []model.Location{"reparto_a"},
		AllowedShiftCodes: []string{"M", "P", "N", "Ps", "S", "R", "RS"},
	}
	team.ID = genTeamID
	return map[uuid.UUID]*model.Team{genTeamID: team}
}

func genStaff(name string, contract model.ContractType) *model.Staff {
	s := &model.Staff{Name: name, Role: model.RoleNurse, Contract: contract}
	s.ID = uuid.New()
	s.TeamIDs = []uuid.UUID{genTeamID}
	return s
}

func genInput(staff []*model.Staff, table *model.RequirementTable, existing []*model.ScheduledAssignment) *Input {
	if table == nil {
		table = model.NewRequirementTable()
	}
	return &Input{
		Month:    model.Month{Year: 2025, Month: time.March},
		Staff:    staff,
		Teams:    genTeams(),
		Catalog:  genCatalog(),
		Table:    table,
		Existing: existing,
	}
}

func codeOn(result *Result, staffID uuid.UUID, date string) string {
	for _, a := range result.Assignments {
		if a.StaffID == staffID && a.Date == date {
			return a.Code.String()
		}
	}
	return ""
}

func TestGenerator_FullReplacementSet(t *testing.T) {
	staff := []*model.Staff{
		genStaff("Anna", model.ContractH24),
		genStaff("Bruno", model.ContractH12),
	}
	table := model.NewRequirementTable()
	var pattern model.WeeklyPattern
	for i := range pattern {
		pattern[i] = model.Requirement{Min: 1, Max: 1}
	}
	table.SetWeekly("M", pattern)

	g := NewGenerator(rand.New(rand.NewSource(1)))
	result, err := g.Generate(context.Background(), genInput(staff, table, nil))
	if err != nil {
		t.Fatalf("Generate失败: %v", err)
	}
	if !result.Success {
		t.Error("生成应标记成功")
	}

	// 每个人员每一天恰好一条记录
	days := 31
	regular := 0
	for _, a := range result.Assignments {
		if !a.IsUncovered() {
			regular++
			if a.Code.IsZero() {
				t.Errorf("记录%s无班次代码", a.ID)
			}
		}
	}
	if regular != len(staff)*days {
		t.Errorf("常规记录数 = %d, expected %d", regular, len(staff)*days)
	}
	if result.Statistics.TotalAssignments != regular {
		t.Errorf("统计记录数 = %d", result.Statistics.TotalAssignments)
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	build := func() *Result {
		staff := []*model.Staff{
			genStaff("Anna", model.ContractH24),
			genStaff("Bruno", model.ContractH24),
			genStaff("Carla", model.ContractH24),
			genStaff("Dario", model.ContractH12),
			genStaff("Elena", model.ContractH12),
		}
		// 人员选择依相同ID序稳定
		for i, s := range staff {
			s.ID = uuid.MustParse("dddddddd-0000-0000-0000-00000000000" + string(rune('1'+i)))
		}
		table := model.NewRequirementTable()
		var pattern model.WeeklyPattern
		for i := range pattern {
			pattern[i] = model.Requirement{Min: 1, Max: 3}
		}
		table.SetWeekly("M", pattern)
		table.SetWeekly("N", pattern)

		g := NewGenerator(rand.New(rand.NewSource(42)))
		result, err := g.Generate(context.Background(), genInput(staff, table, nil))
		if err != nil {
			t.Fatalf("Generate失败: %v", err)
		}
		return result
	}

	first := build()
	second := build()
	if len(first.Assignments) != len(second.Assignments) {
		t.Fatalf("两次生成记录数不同: %d vs %d", len(first.Assignments), len(second.Assignments))
	}
	for i := range first.Assignments {
		a, b := first.Assignments[i], second.Assignments[i]
		if a.ID != b.ID || a.Code.String() != b.Code.String() {
			t.Fatalf("相同种子第%d条记录不一致: %s=%s vs %s=%s", i, a.ID, a.Code, b.ID, b.Code)
		}
	}
}

func TestGenerator_NightFollowedByRest(t *testing.T) {
	anna := genStaff("Anna", model.ContractH24)
	// 基线: 3月10日夜班
	existing := []*model.ScheduledAssignment{{
		ID:      model.AssignmentID(anna.ID, "2025-03-10"),
		StaffID: anna.ID,
		Date:    "2025-03-10",
		Code:    model.NewShiftCode("N"),
	}}

	g := NewGenerator(rand.New(rand.NewSource(1)))
	result, err := g.Generate(context.Background(), genInput([]*model.Staff{anna}, nil, existing))
	if err != nil {
		t.Fatalf("Generate失败: %v", err)
	}

	if got := codeOn(result, anna.ID, "2025-03-10"); got != "N" {
		t.Errorf("基线夜班应原样保留, got %q", got)
	}
	if got := codeOn(result, anna.ID, "2025-03-11"); got != "S" {
		t.Errorf("夜班次日应为歇班S, got %q", got)
	}
	// h24: 歇班次日默认休息
	if got := codeOn(result, anna.ID, "2025-03-12"); got != "R" {
		t.Errorf("h24歇班次日应为R, got %q", got)
	}
	if result.Statistics.FrozenAssignments != 1 {
		t.Errorf("冻结记录数 = %d", result.Statistics.FrozenAssignments)
	}
}

func TestGenerator_PrevMonthNightTail(t *testing.T) {
	anna := genStaff("Anna", model.ContractH24)
	// 上月最后一天(2月28日)夜班 ⇒ 3月1日强制歇班
	existing := []*model.ScheduledAssignment{{
		ID:      model.AssignmentID(anna.ID, "2025-02-28"),
		StaffID: anna.ID,
		Date:    "2025-02-28",
		Code:    model.NewShiftCode("N"),
	}}

	g := NewGenerator(rand.New(rand.NewSource(1)))
	result, err := g.Generate(context.Background(), genInput([]*model.Staff{anna}, nil, existing))
	if err != nil {
		t.Fatalf("Generate失败: %v", err)
	}

	if got := codeOn(result, anna.ID, "2025-03-01"); got != "S" {
		t.Errorf("跨月夜班后首日应为S, got %q", got)
	}
	// 上月记录不进入本月结果集
	for _, a := range result.Assignments {
		if a.Date < "2025-03-01" {
			t.Errorf("结果集含月外记录: %+v", a)
		}
	}
}

func TestGenerator_SundayRest(t *testing.T) {
	bruno := genStaff("Bruno", model.ContractH6)
	carla := genStaff("Carla", model.ContractH12)
	dario := genStaff("Dario", model.ContractH24)
	staff := []*model.Staff{bruno, carla, dario}

	g := NewGenerator(rand.New(rand.NewSource(1)))
	result, err := g.Generate(context.Background(), genInput(staff, nil, nil))
	if err != nil {
		t.Fatalf("Generate失败: %v", err)
	}

	// 2025-03-02 是周日
	if got := codeOn(result, bruno.ID, "2025-03-02"); got != "RS" {
		t.Errorf("h6周日应为RS, got %q", got)
	}
	if got := codeOn(result, carla.ID, "2025-03-02"); got != "RS" {
		t.Errorf("h12周日应为RS, got %q", got)
	}
	if got := codeOn(result, dario.ID, "2025-03-02"); got == "RS" {
		t.Error("h24不应自动获得周日休")
	}
}

func TestGenerator_UncoveredEmission(t *testing.T) {
	// 仅h6人员无法承担夜班，夜班需求整月落空
	staff := []*model.Staff{genStaff("Anna", model.ContractH6)}
	table := model.NewRequirementTable()
	var pattern model.WeeklyPattern
	for i := range pattern {
		pattern[i] = model.Fixed(1)
	}
	table.SetWeekly("N", pattern)

	g := NewGenerator(rand.New(rand.NewSource(1)))
	result, err := g.Generate(context.Background(), genInput(staff, table, nil))
	if err != nil {
		t.Fatalf("Generate失败: %v", err)
	}

	if result.Statistics.UncoveredSlots != 31 {
		t.Errorf("未覆盖班次数 = %d, expected 31", result.Statistics.UncoveredSlots)
	}
	if result.Message == "" {
		t.Error("存在未覆盖班次时应有提示信息")
	}

	var sample *model.ScheduledAssignment
	for _, a := range result.Assignments {
		if a.IsUncovered() && a.Date == "2025-03-10" {
			sample = a
			break
		}
	}
	if sample == nil {
		t.Fatal("应存在2025-03-10的未覆盖占位")
	}
	if sample.ID != model.UncoveredID("2025-03-10", "N", 0) {
		t.Errorf("占位ID = %q", sample.ID)
	}
	if sample.Code.String() != "N" {
		t.Errorf("占位代码 = %q", sample.Code)
	}

	// 日志中应有严重级条目
	critical := 0
	for _, entry := range result.Log {
		if entry.Severity == SeverityCritical {
			critical++
		}
	}
	if critical != 31 {
		t.Errorf("严重日志条目 = %d, expected 31", critical)
	}
}

func TestGenerator_LongShiftMonthlyCap(t *testing.T) {
	anna := genStaff("Anna", model.ContractH24)
	anna.LongShiftOK = true
	anna.MaxLongShiftsPerMonth = 2

	table := model.NewRequirementTable()
	var pattern model.WeeklyPattern
	for i := range pattern {
		pattern[i] = model.Fixed(1)
	}
	table.SetWeekly("Ps", pattern)

	g := NewGenerator(rand.New(rand.NewSource(1)))
	result, err := g.Generate(context.Background(), genInput([]*model.Staff{anna}, table, nil))
	if err != nil {
		t.Fatalf("Generate失败: %v", err)
	}

	long := 0
	for _, a := range result.Assignments {
		if !a.IsUncovered() && a.Code.Contains("Ps") {
			long++
		}
	}
	if long != 2 {
		t.Errorf("长班数 = %d, expected 2 (月度上限)", long)
	}
	if result.Statistics.UncoveredSlots != 29 {
		t.Errorf("上限耗尽后其余需求应落空, uncovered = %d", result.Statistics.UncoveredSlots)
	}
}

func TestGenerator_StaleUncoveredDropped(t *testing.T) {
	anna := genStaff("Anna", model.ContractH24)
	existing := []*model.ScheduledAssignment{{
		ID:      model.UncoveredID("2025-03-10", "N", 0),
		StaffID: model.UnassignedStaffID,
		Date:    "2025-03-10",
		Code:    model.NewShiftCode("N"),
	}}

	g := NewGenerator(rand.New(rand.NewSource(1)))
	result, err := g.Generate(context.Background(), genInput([]*model.Staff{anna}, nil, existing))
	if err != nil {
		t.Fatalf("历史占位应被忽略: %v", err)
	}
	if result.Statistics.UncoveredSlots != 0 {
		t.Errorf("无需求时不应重现历史占位, got %d", result.Statistics.UncoveredSlots)
	}
}

func TestGenerator_RejectsUnknownReferences(t *testing.T) {
	anna := genStaff("Anna", model.ContractH24)
	g := NewGenerator(rand.New(rand.NewSource(1)))

	// 未知人员
	badStaff := []*model.ScheduledAssignment{{
		ID:      "x-2025-03-10",
		StaffID: uuid.New(),
		Date:    "2025-03-10",
		Code:    model.NewShiftCode("M"),
	}}
	if _, err := g.Generate(context.Background(), genInput([]*model.Staff{anna}, nil, badStaff)); err == nil {
		t.Error("未知人员引用应使生成失败")
	}

	// 未知班次代码
	badCode := []*model.ScheduledAssignment{{
		ID:      model.AssignmentID(anna.ID, "2025-03-10"),
		StaffID: anna.ID,
		Date:    "2025-03-10",
		Code:    model.NewShiftCode("ZZZ"),
	}}
	if _, err := g.Generate(context.Background(), genInput([]*model.Staff{anna}, nil, badCode)); err == nil {
		t.Error("未知班次代码应使生成失败")
	}
}

func TestGenerator_UndefinedRequirementCode(t *testing.T) {
	anna := genStaff("Anna", model.ContractH24)
	table := model.NewRequirementTable()
	var pattern model.WeeklyPattern
	for i := range pattern {
		pattern[i] = model.Fixed(1)
	}
	table.SetWeekly("ZZZ", pattern)

	g := NewGenerator(rand.New(rand.NewSource(1)))
	result, err := g.Generate(context.Background(), genInput([]*model.Staff{anna}, table, nil))
	if err == nil {
		t.Fatal("需求表引用目录外班种应使生成失败")
	}
	if result != nil {
		t.Error("失败的生成不应返回部分结果")
	}
}

func TestGenerator_MondayMorningPairFilled(t *testing.T) {
	anna := genStaff("Anna", model.ContractH24)
	bruno := genStaff("Bruno", model.ContractH24)

	table := model.NewRequirementTable()
	var pattern model.WeeklyPattern
	pattern[time.Monday] = model.Requirement{Min: 2, Max: 2}
	table.SetWeekly("M", pattern)

	g := NewGenerator(rand.New(rand.NewSource(1)))
	result, err := g.Generate(context.Background(), genInput([]*model.Staff{anna, bruno}, table, nil))
	if err != nil {
		t.Fatalf("Generate失败: %v", err)
	}

	// 2025年3月的周一
	mondays := []string{"2025-03-03", "2025-03-10", "2025-03-17", "2025-03-24", "2025-03-31"}
	for _, date := range mondays {
		if got := codeOn(result, anna.ID, date); got != "M" {
			t.Errorf("%s Anna应为M, got %q", date, got)
		}
		if got := codeOn(result, bruno.ID, date); got != "M" {
			t.Errorf("%s Bruno应为M, got %q", date, got)
		}
	}
	if result.Statistics.UncoveredSlots != 0 {
		t.Errorf("两个名额两名合格人员，不应有未覆盖班次, got %d",
			result.Statistics.UncoveredSlots)
	}
}

func TestGenerator_ShortContractOnlyMorning(t *testing.T) {
	anna := genStaff("Anna", model.ContractH6)
	bruno := genStaff("Bruno", model.ContractH24)
	carla := genStaff("Carla", model.ContractH24)

	table := model.NewRequirementTable()
	var pattern model.WeeklyPattern
	for i := range pattern {
		pattern[i] = model.Requirement{Min: 1, Max: 2}
	}
	table.SetWeekly("M", pattern)
	table.SetWeekly("P", pattern)
	table.SetWeekly("N", pattern)

	g := NewGenerator(rand.New(rand.NewSource(7)))
	result, err := g.Generate(context.Background(), genInput([]*model.Staff{anna, bruno, carla}, table, nil))
	if err != nil {
		t.Fatalf("Generate失败: %v", err)
	}

	// h6整月只能排早班或休息类班次
	catalog := genCatalog()
	for _, a := range result.Assignments {
		if a.StaffID != anna.ID {
			continue
		}
		for _, part := range a.Code.Parts() {
			def := catalog[part]
			switch def.Time {
			case model.TimeAfternoon, model.TimeNight, model.TimeFullDay:
				t.Errorf("%s h6被排了%s班 %q", a.Date, def.Time, part)
			}
		}
	}
}

func TestGenerator_MinimumFillRosterOrder(t *testing.T) {
	anna := genStaff("Anna", model.ContractH24)
	bruno := genStaff("Bruno", model.ContractH24)

	table := model.NewRequirementTable()
	var pattern model.WeeklyPattern
	pattern[time.Monday] = model.Fixed(1)
	table.SetWeekly("M", pattern)

	g := NewGenerator(rand.New(rand.NewSource(1)))
	result, err := g.Generate(context.Background(), genInput([]*model.Staff{anna, bruno}, table, nil))
	if err != nil {
		t.Fatalf("Generate失败: %v", err)
	}

	// 最低填充依花名册顺序选人: 周一早班总是Anna
	if got := codeOn(result, anna.ID, "2025-03-10"); got != "M" {
		t.Errorf("花名册首位应承担最低需求, got %q", got)
	}
	if got := codeOn(result, bruno.ID, "2025-03-10"); got != "R" {
		t.Errorf("需求满足后其余人员应休息, got %q", got)
	}
}

func TestGenerator_ContextCancellation(t *testing.T) {
	anna := genStaff("Anna", model.ContractH24)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGenerator(rand.New(rand.NewSource(1)))
	if _, err := g.Generate(ctx, genInput([]*model.Staff{anna}, nil, nil)); err == nil {
		t.Error("已取消的上下文应中止生成")
	}
}

func TestGenerator_FrozenBaselineConflictWarning(t *testing.T) {
	anna := genStaff("Anna", model.ContractH24)
	// 上月末夜班但本月首日基线是早班: 保留基线并告警
	existing := []*model.ScheduledAssignment{
		{
			ID:      model.AssignmentID(anna.ID, "2025-02-28"),
			StaffID: anna.ID,
			Date:    "2025-02-28",
			Code:    model.NewShiftCode("N"),
		},
		{
			ID:      model.AssignmentID(anna.ID, "2025-03-01"),
			StaffID: anna.ID,
			Date:    "2025-03-01",
			Code:    model.NewShiftCode("M"),
		},
	}

	g := NewGenerator(rand.New(rand.NewSource(1)))
	result, err := g.Generate(context.Background(), genInput([]*model.Staff{anna}, nil, existing))
	if err != nil {
		t.Fatalf("Generate失败: %v", err)
	}

	if got := codeOn(result, anna.ID, "2025-03-01"); got != "M" {
		t.Errorf("冻结基线应原样保留, got %q", got)
	}
	warned := false
	for _, entry := range result.Log {
		if entry.Severity == SeverityWarning {
			warned = true
		}
	}
	if !warned {
		t.Error("基线与强制歇班冲突时应有警告日志")
	}
}
