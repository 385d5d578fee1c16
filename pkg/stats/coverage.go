// Package stats 提供排班统计分析功能
package stats

import (
	"sort"

	"github.com/yuanban/yuanban/pkg/model"
	"github.com/yuanban/yuanban/pkg/requirement"
	"github.com/yuanban/yuanban/pkg/schedule"
)

// CoverageMetrics 覆盖率指标
type CoverageMetrics struct {
	TotalRequired   int     `json:"total_required"`   // 最低需求总人次
	TotalAssigned   int     `json:"total_assigned"`   // 已满足人次
	OverallCoverage float64 `json:"overall_coverage"` // 整体覆盖率 (%)

	DailyCoverage map[string]DayCoverage `json:"daily_coverage"` // 每日覆盖情况
	CodeCoverage  map[string]float64     `json:"code_coverage"`  // 按班种覆盖率 (%)

	UncoveredSlots []UncoveredSlot `json:"uncovered_slots"` // 未覆盖班次清单
}

// DayCoverage 每日覆盖情况
type DayCoverage struct {
	Date         string  `json:"date"`
	Required     int     `json:"required"`
	Assigned     int     `json:"assigned"`
	CoverageRate float64 `json:"coverage_rate"`
}

// UncoveredSlot 未覆盖班次
type UncoveredSlot struct {
	Date     string `json:"date"`
	Code     string `json:"code"`
	Shortage int    `json:"shortage"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct {
	table *model.RequirementTable
}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer(table *model.RequirementTable) *CoverageAnalyzer {
	return &CoverageAnalyzer{table: table}
}

// Analyze 对照需求表统计整月覆盖情况
func (c *CoverageAnalyzer) Analyze(board *schedule.Board, month model.Month) (*CoverageMetrics, error) {
	m := &CoverageMetrics{
		DailyCoverage: make(map[string]DayCoverage),
		CodeCoverage:  make(map[string]float64),
	}

	codeRequired := make(map[string]int)
	codeAssigned := make(map[string]int)

	for day := 1; day <= month.Days(); day++ {
		date := month.DateOf(day)
		resolved, err := requirement.Resolve(c.table, date)
		if err != nil {
			return nil, err
		}

		// 合并班次的每一半各自计入对应班种
		counted := make(map[string]int)
		for _, asg := range board.All() {
			if asg.Date != date || asg.IsUncovered() {
				continue
			}
			for _, part := range asg.Code.Parts() {
				counted[part]++
			}
		}

		dc := DayCoverage{Date: date}
		for code, r := range resolved {
			if r.Min <= 0 {
				continue
			}
			got := counted[code]
			if got > r.Min {
				got = r.Min
			}
			dc.Required += r.Min
			dc.Assigned += got
			codeRequired[code] += r.Min
			codeAssigned[code] += got
			if got < r.Min {
				m.UncoveredSlots = append(m.UncoveredSlots, UncoveredSlot{
					Date:     date,
					Code:     code,
					Shortage: r.Min - got,
				})
			}
		}
		if dc.Required > 0 {
			dc.CoverageRate = float64(dc.Assigned) / float64(dc.Required) * 100
		} else {
			dc.CoverageRate = 100
		}
		m.DailyCoverage[date] = dc
		m.TotalRequired += dc.Required
		m.TotalAssigned += dc.Assigned
	}

	for code, req := range codeRequired {
		if req > 0 {
			m.CodeCoverage[code] = float64(codeAssigned[code]) / float64(req) * 100
		}
	}
	if m.TotalRequired > 0 {
		m.OverallCoverage = float64(m.TotalAssigned) / float64(m.TotalRequired) * 100
	} else {
		m.OverallCoverage = 100
	}

	sort.Slice(m.UncoveredSlots, func(i, j int) bool {
		if m.UncoveredSlots[i].Date != m.UncoveredSlots[j].Date {
			return m.UncoveredSlots[i].Date < m.UncoveredSlots[j].Date
		}
		return m.UncoveredSlots[i].Code < m.UncoveredSlots[j].Code
	})
	return m, nil
}
