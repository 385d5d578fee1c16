package stats

import (
	"math"
	"sort"
	"time"

	"github.com/yuanban/yuanban/pkg/model"
	"github.com/yuanban/yuanban/pkg/schedule"
)

// WorkloadMetrics 工作量公平性指标
type WorkloadMetrics struct {
	WorkloadGini  float64 `json:"workload_gini"`  // 班次数基尼系数 (0=完全公平)
	NightGini     float64 `json:"night_gini"`     // 夜班分配基尼系数
	AvgShifts     float64 `json:"avg_shifts"`     // 人均班次数
	MaxShifts     int     `json:"max_shifts"`     // 最大班次数
	MinShifts     int     `json:"min_shifts"`     // 最小班次数
	StaffStats    []StaffStat `json:"staff_stats"`
	FairnessScore float64 `json:"fairness_score"` // 综合公平性评分 (0-100)
}

// StaffStat 单人工作量统计
type StaffStat struct {
	StaffID       string  `json:"staff_id"`
	StaffName     string  `json:"staff_name"`
	ShiftCount    int     `json:"shift_count"`
	NightShifts   int     `json:"night_shifts"`
	SundayShifts  int     `json:"sunday_shifts"`
	HolidayShifts int     `json:"holiday_shifts"`
	LongShifts    int     `json:"long_shifts"`
	RestDays      int     `json:"rest_days"`
	Deviation     float64 `json:"deviation"` // 与人均班次数的偏差百分比
}

// WorkloadAnalyzer 工作量分析器
type WorkloadAnalyzer struct{}

// NewWorkloadAnalyzer 创建工作量分析器
func NewWorkloadAnalyzer() *WorkloadAnalyzer {
	return &WorkloadAnalyzer{}
}

// Analyze 统计各人员的整月工作量
// 合并班次按两个班次计数，夜班、周日班、节假日班和长班单独累计。
func (w *WorkloadAnalyzer) Analyze(board *schedule.Board) *WorkloadMetrics {
	m := &WorkloadMetrics{FairnessScore: 100}

	byStaff := make(map[string]*StaffStat)
	order := make([]string, 0, len(board.Staff))
	for _, staff := range board.Staff {
		if staff.IsSentinel() {
			continue
		}
		byStaff[staff.ID.String()] = &StaffStat{
			StaffID:   staff.ID.String(),
			StaffName: staff.Name,
		}
		order = append(order, staff.ID.String())
	}

	for _, asg := range board.All() {
		if asg.IsUncovered() {
			continue
		}
		stat, ok := byStaff[asg.StaffID.String()]
		if !ok {
			continue
		}
		w.accumulate(stat, asg, board.Catalog)
	}

	counts := make([]float64, 0, len(order))
	nights := make([]float64, 0, len(order))
	total := 0
	m.MinShifts = math.MaxInt32
	for _, id := range order {
		stat := byStaff[id]
		m.StaffStats = append(m.StaffStats, *stat)
		counts = append(counts, float64(stat.ShiftCount))
		nights = append(nights, float64(stat.NightShifts))
		total += stat.ShiftCount
		if stat.ShiftCount > m.MaxShifts {
			m.MaxShifts = stat.ShiftCount
		}
		if stat.ShiftCount < m.MinShifts {
			m.MinShifts = stat.ShiftCount
		}
	}
	if len(order) == 0 {
		m.MinShifts = 0
		return m
	}

	m.AvgShifts = float64(total) / float64(len(order))
	m.WorkloadGini = gini(counts)
	m.NightGini = gini(nights)
	for i := range m.StaffStats {
		if m.AvgShifts > 0 {
			m.StaffStats[i].Deviation = (float64(m.StaffStats[i].ShiftCount) - m.AvgShifts) / m.AvgShifts * 100
		}
	}
	m.FairnessScore = (1 - (m.WorkloadGini*0.7 + m.NightGini*0.3)) * 100

	sort.Slice(m.StaffStats, func(i, j int) bool {
		return m.StaffStats[i].ShiftCount > m.StaffStats[j].ShiftCount
	})
	return m
}

func (w *WorkloadAnalyzer) accumulate(stat *StaffStat, asg *model.ScheduledAssignment, catalog model.Catalog) {
	working := false
	for _, part := range asg.Code.Parts() {
		def, ok := catalog[part]
		if !ok {
			continue
		}
		if !def.Time.IsWorking() {
			continue
		}
		working = true
		stat.ShiftCount++
		if def.IsNight() {
			stat.NightShifts++
		}
		if def.IsLong() {
			stat.LongShifts++
		}
	}
	if !working {
		stat.RestDays++
		return
	}
	if t, err := model.ParseDate(asg.Date); err == nil && t.Weekday() == time.Sunday {
		stat.SundayShifts++
	}
	if model.IsPublicHoliday(asg.Date) {
		stat.HolidayShifts++
	}
}

// gini 计算基尼系数，输入为各人员的计数值
func gini(values []float64) float64 {
	n := len(values)
	if n <= 1 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum, weighted float64
	for i, v := range sorted {
		sum += v
		weighted += v * float64(i+1)
	}
	if sum == 0 {
		return 0
	}
	return (2*weighted)/(float64(n)*sum) - float64(n+1)/float64(n)
}
