package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/yuanban/yuanban/pkg/errors"
	"github.com/yuanban/yuanban/pkg/logger"
	"github.com/yuanban/yuanban/pkg/model"
	"github.com/yuanban/yuanban/pkg/requirement"
	"github.com/yuanban/yuanban/pkg/rules"
)

// Input 生成器输入
// Existing 同时承载上月末尾的历史班次和目标月内已冻结的基线班次。
type Input struct {
	Month    model.Month
	Staff    []*model.Staff
	Teams    map[uuid.UUID]*model.Team
	Catalog  model.Catalog
	Table    *model.RequirementTable
	Existing []*model.ScheduledAssignment
}

// Result 生成结果
// Assignments 为目标月的完整替换集，含未覆盖占位。
type Result struct {
	Assignments []*model.ScheduledAssignment `json:"assignments"`
	Log         []LogEntry                   `json:"log"`
	Statistics  *Statistics                  `json:"statistics"`
	Duration    time.Duration                `json:"duration"`
	Success     bool                         `json:"success"`
	Message     string                       `json:"message,omitempty"`
}

// Statistics 排班统计
type Statistics struct {
	TotalAssignments  int     `json:"total_assignments"`
	UncoveredSlots    int     `json:"uncovered_slots"`
	FillRate          float64 `json:"fill_rate"`
	FrozenAssignments int     `json:"frozen_assignments"`
}

// Generator 整月排班生成器
// 按天推进，依次执行强制班次、最低需求填充和最高需求填充，
// 剩余缺口落为未覆盖占位。
type Generator struct {
	logger *logger.SchedulerLogger
	rng    *rand.Rand
}

// NewGenerator 创建生成器
// rng 控制最高需求填充阶段的洗牌顺序，相同种子产出相同结果。
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{
		logger: logger.NewSchedulerLogger(),
		rng:    rng,
	}
}

// dayState 单日排班状态
type dayState struct {
	code   model.ShiftCode
	frozen bool
}

// genState 整月生成状态
type genState struct {
	month    model.Month
	byStaff  map[uuid.UUID]map[string]*dayState
	prevTail map[uuid.UUID]model.ShiftCode // 上月最后一天的班次
	longUsed map[uuid.UUID]int             // 本月已排长班数
}

func (s *genState) get(staffID uuid.UUID, date string) *dayState {
	return s.byStaff[staffID][date]
}

func (s *genState) set(staffID uuid.UUID, date string, code model.ShiftCode, frozen bool) {
	days, ok := s.byStaff[staffID]
	if !ok {
		days = make(map[string]*dayState)
		s.byStaff[staffID] = days
	}
	days[date] = &dayState{code: code, frozen: frozen}
}

// prevCode 返回指定日期前一天的班次
// 首日向上月末尾的历史班次回溯。
func (s *genState) prevCode(staffID uuid.UUID, date string) model.ShiftCode {
	prev := model.PreviousDate(date)
	if st := s.get(staffID, prev); st != nil {
		return st.code
	}
	if code, ok := s.prevTail[staffID]; ok && prev == s.month.LastDayOfPrevMonth() {
		return code
	}
	return model.ShiftCode{}
}

// Generate 生成目标月的完整排班
func (g *Generator) Generate(ctx context.Context, in *Input) (*Result, error) {
	startTime := time.Now()
	g.logger.StartGeneration(in.Month.String(), len(in.Staff), in.Month.Days())

	result := &Result{
		Assignments: make([]*model.ScheduledAssignment, 0),
		Statistics:  &Statistics{},
	}
	glog := &generationLog{}

	staffByID := make(map[uuid.UUID]*model.Staff, len(in.Staff))
	for _, st := range in.Staff {
		if st.IsSentinel() {
			continue
		}
		staffByID[st.ID] = st
	}

	state, err := g.seedState(in, staffByID, glog)
	if err != nil {
		return nil, err
	}

	for day := 1; day <= in.Month.Days(); day++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		date := in.Month.DateOf(day)
		sunday := in.Month.WeekdayOf(day) == time.Sunday

		g.mandatoryPass(in, state, date, sunday)

		resolved, err := requirement.Resolve(in.Table, date)
		if err != nil {
			return nil, err
		}
		ordered := requirement.OrderCodes(resolved, in.Catalog)

		// 需求表引用了目录中不存在的班种时终止生成
		for _, code := range ordered {
			if _, ok := in.Catalog[code]; !ok {
				return nil, errors.InvalidReference(date, "", code)
			}
		}

		g.countExisting(state, resolved, date)
		g.minimumFill(in, state, resolved, ordered, date)
		g.maximumFill(in, state, resolved, ordered, date)
		g.emitUncovered(result, glog, resolved, ordered, date)
	}

	g.finalize(in, state, result)

	sort.Slice(result.Assignments, func(i, j int) bool {
		a, b := result.Assignments[i], result.Assignments[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.ID < b.ID
	})

	g.fillStatistics(result)
	result.Log = glog.entries
	result.Duration = time.Since(startTime)
	result.Success = true
	if result.Statistics.UncoveredSlots > 0 {
		result.Message = fmt.Sprintf("存在 %d 个未覆盖班次", result.Statistics.UncoveredSlots)
	}

	g.logger.GenerationComplete(in.Month.String(), result.Duration,
		result.Statistics.TotalAssignments, result.Statistics.UncoveredSlots)
	return result, nil
}

// seedState 初始化生成状态
// 校验历史班次引用，复制目标月内的冻结基线，
// 并处理跨月夜班的次日强制歇班。
func (g *Generator) seedState(in *Input, staffByID map[uuid.UUID]*model.Staff, glog *generationLog) (*genState, error) {
	state := &genState{
		month:    in.Month,
		byStaff:  make(map[uuid.UUID]map[string]*dayState),
		prevTail: make(map[uuid.UUID]model.ShiftCode),
		longUsed: make(map[uuid.UUID]int),
	}

	lastPrev := in.Month.LastDayOfPrevMonth()

	for _, asg := range in.Existing {
		if asg.IsUncovered() {
			continue // 上次生成留下的占位，重新生成时丢弃
		}
		staff, ok := staffByID[asg.StaffID]
		if !ok {
			return nil, errors.InvalidReference(asg.Date, asg.StaffID.String(), asg.Code.String())
		}
		if err := asg.Code.Validate(in.Catalog); err != nil {
			return nil, errors.InvalidReference(asg.Date, asg.StaffID.String(), asg.Code.String())
		}

		switch {
		case in.Month.Contains(asg.Date):
			// 目标月内的基线班次原样保留
			state.set(staff.ID, asg.Date, asg.Code, true)
			g.trackLong(in, state, staff.ID, asg.Code)
		case asg.Date == lastPrev:
			state.prevTail[staff.ID] = asg.Code
		}
	}

	// 上月末夜班 ⇒ 本月首日歇班
	firstDate := in.Month.DateOf(1)
	for staffID, code := range state.prevTail {
		if !g.containsNight(in.Catalog, code) {
			continue
		}
		if st := state.get(staffID, firstDate); st != nil {
			if st.frozen && !st.code.Contains(model.PostNightRestCode) {
				glog.Warning(fmt.Sprintf("%s 上月末夜班后首日基线为 %s，未强制歇班", staffByID[staffID].Name, st.code))
			}
			continue
		}
		state.set(staffID, firstDate, model.NewShiftCode(model.PostNightRestCode), false)
	}

	return state, nil
}

// mandatoryPass 强制班次推导
// 夜班次日歇班，H24 歇班次日休息，周日 H6/H12 周日休。
func (g *Generator) mandatoryPass(in *Input, state *genState, date string, sunday bool) {
	for _, staff := range in.Staff {
		if staff.IsSentinel() {
			continue
		}
		if state.get(staff.ID, date) != nil {
			continue
		}
		prev := state.prevCode(staff.ID, date)

		switch {
		case g.containsNight(in.Catalog, prev):
			state.set(staff.ID, date, model.NewShiftCode(model.PostNightRestCode), false)
		case staff.Contract == model.ContractH24 && prev.Contains(model.PostNightRestCode):
			state.set(staff.ID, date, model.NewShiftCode(model.DefaultRestCode), false)
		case sunday && (staff.Contract == model.ContractH6 || staff.Contract == model.ContractH12):
			state.set(staff.ID, date, model.NewShiftCode(model.SundayRestCode), false)
		}
	}
}

// countExisting 将当日已有班次计入需求完成数
// 合并班次的每一半各自计入对应班种。
func (g *Generator) countExisting(state *genState, resolved map[string]*requirement.Resolved, date string) {
	for _, days := range state.byStaff {
		st, ok := days[date]
		if !ok {
			continue
		}
		for _, part := range st.code.Parts() {
			if r, ok := resolved[part]; ok {
				r.Assigned++
			}
		}
	}
}

// minimumFill 最低需求填充
// 按班种优先级顺序，为每个未达最低人数的班种
// 依花名册顺序挑选首个可排的空闲人员。
func (g *Generator) minimumFill(in *Input, state *genState,
	resolved map[string]*requirement.Resolved, ordered []string, date string) {
	for _, code := range ordered {
		r := resolved[code]
		for r.Assigned < r.Min {
			assigned := false
			for _, staff := range in.Staff {
				if g.canTake(in, state, staff, date, code) {
					g.assign(in, state, staff, date, code)
					r.Assigned++
					assigned = true
					break
				}
			}
			if !assigned {
				break
			}
		}
	}
}

// maximumFill 最高需求填充
// 洗牌后的空闲人员依次领取首个未达上限的可排班种。
func (g *Generator) maximumFill(in *Input, state *genState,
	resolved map[string]*requirement.Resolved, ordered []string, date string) {
	idle := make([]*model.Staff, 0, len(in.Staff))
	for _, staff := range in.Staff {
		if staff.IsSentinel() || state.get(staff.ID, date) != nil {
			continue
		}
		idle = append(idle, staff)
	}
	g.rng.Shuffle(len(idle), func(i, j int) {
		idle[i], idle[j] = idle[j], idle[i]
	})

	for _, staff := range idle {
		for _, code := range ordered {
			r := resolved[code]
			if !r.BelowMax() {
				continue
			}
			if !g.canTake(in, state, staff, date, code) {
				continue
			}
			g.assign(in, state, staff, date, code)
			r.Assigned++
			break
		}
	}
}

// emitUncovered 为仍有缺口的班种生成未覆盖占位
func (g *Generator) emitUncovered(result *Result, glog *generationLog,
	resolved map[string]*requirement.Resolved, ordered []string, date string) {
	for _, code := range ordered {
		r := resolved[code]
		deficit := r.Deficit()
		if deficit <= 0 {
			continue
		}
		g.logger.UncoveredSlot(date, code, deficit)
		glog.Critical(fmt.Sprintf("%s 班次 %s 缺 %d 人", date, code, deficit))
		for i := 0; i < deficit; i++ {
			result.Assignments = append(result.Assignments, &model.ScheduledAssignment{
				ID:      model.UncoveredID(date, code, i),
				StaffID: model.UnassignedStaffID,
				Date:    date,
				Code:    model.NewShiftCode(code),
			})
		}
		result.Statistics.UncoveredSlots += deficit
	}
}

// finalize 收尾
// 未排到任何班次的人员当日补默认休息，并导出全部班次。
func (g *Generator) finalize(in *Input, state *genState, result *Result) {
	restCode := model.NewShiftCode(model.DefaultRestCode)
	for day := 1; day <= in.Month.Days(); day++ {
		date := in.Month.DateOf(day)
		for _, staff := range in.Staff {
			if staff.IsSentinel() {
				continue
			}
			st := state.get(staff.ID, date)
			if st == nil {
				st = &dayState{code: restCode}
				state.set(staff.ID, date, restCode, false)
			}
			if st.frozen {
				result.Statistics.FrozenAssignments++
			}
			result.Assignments = append(result.Assignments, &model.ScheduledAssignment{
				ID:      model.AssignmentID(staff.ID, date),
				StaffID: staff.ID,
				Date:    date,
				Code:    st.code,
			})
		}
	}
}

// canTake 判断人员当日能否承担指定班种
func (g *Generator) canTake(in *Input, state *genState, staff *model.Staff, date, code string) bool {
	if staff.IsSentinel() {
		return false
	}
	if state.get(staff.ID, date) != nil {
		return false
	}
	if def, ok := in.Catalog[code]; ok && def.IsLong() {
		limit := staff.MaxLongShiftsPerMonth
		if limit > 0 && state.longUsed[staff.ID] >= limit {
			return false
		}
	}
	return rules.IsShiftAllowed(code, staff, in.Catalog, in.Teams)
}

// assign 落班并处理夜班次日歇班
func (g *Generator) assign(in *Input, state *genState, staff *model.Staff, date, code string) {
	sc := model.NewShiftCode(code)
	state.set(staff.ID, date, sc, false)
	g.trackLong(in, state, staff.ID, sc)

	if !g.containsNight(in.Catalog, sc) {
		return
	}
	next := model.NextDate(date)
	if !in.Month.Contains(next) {
		return // 次日已出月
	}
	if state.get(staff.ID, next) == nil {
		state.set(staff.ID, next, model.NewShiftCode(model.PostNightRestCode), false)
	}
}

// trackLong 累计本月长班数
func (g *Generator) trackLong(in *Input, state *genState, staffID uuid.UUID, code model.ShiftCode) {
	for _, part := range code.Parts() {
		if def, ok := in.Catalog[part]; ok && def.IsLong() {
			state.longUsed[staffID]++
		}
	}
}

// containsNight 判断班次代码是否含夜班
func (g *Generator) containsNight(catalog model.Catalog, code model.ShiftCode) bool {
	for _, part := range code.Parts() {
		if def, ok := catalog[part]; ok && def.IsNight() {
			return true
		}
	}
	return false
}

// fillStatistics 汇总统计
func (g *Generator) fillStatistics(result *Result) {
	for _, asg := range result.Assignments {
		if !asg.IsUncovered() {
			result.Statistics.TotalAssignments++
		}
	}
	if total := result.Statistics.TotalAssignments + result.Statistics.UncoveredSlots; total > 0 {
		result.Statistics.FillRate = float64(result.Statistics.TotalAssignments) / float64(total)
	}
}
