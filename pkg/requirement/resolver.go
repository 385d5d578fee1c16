// Package requirement 提供人员需求解析
// 将周循环需求与按日期的覆盖项合并为单日的 (min, max) 需求。
package requirement

import (
	"sort"

	"github.com/yuanban/yuanban/pkg/model"
)

// Resolved 解析后的单日单班次需求及其填充进度
type Resolved struct {
	Code     string `json:"code"`
	Min      int    `json:"min"`
	Max      int    `json:"max"`
	Assigned int    `json:"assigned"`
}

// Deficit 返回距最低需求还缺的人数
func (r *Resolved) Deficit() int {
	if r.Assigned >= r.Min {
		return 0
	}
	return r.Min - r.Assigned
}

// BelowMax 判断是否仍可继续分配
func (r *Resolved) BelowMax() bool {
	return r.Assigned < r.Max
}

// Resolve 解析某个日期的全部班次需求
// 覆盖项优先于周循环条目；max 为 0 的条目被丢弃（当天无需求）。
func Resolve(table *model.RequirementTable, date string) (map[string]*Resolved, error) {
	day, err := model.ParseDate(date)
	if err != nil {
		return nil, err
	}
	weekday := day.Weekday()

	result := make(map[string]*Resolved)

	for code, pattern := range table.Weekly {
		req := pattern[weekday]
		if override, ok := lookupOverride(table, code, date); ok {
			req = override
		}
		if req.Max == 0 {
			continue
		}
		result[code] = &Resolved{Code: code, Min: req.Min, Max: req.Max}
	}

	// 仅存在覆盖项而无周循环条目的班次代码
	for code, byDate := range table.Overrides {
		if _, seen := result[code]; seen {
			continue
		}
		if _, weekly := table.Weekly[code]; weekly {
			continue
		}
		req, ok := byDate[date]
		if !ok || req.Max == 0 {
			continue
		}
		result[code] = &Resolved{Code: code, Min: req.Min, Max: req.Max}
	}

	return result, nil
}

// OrderCodes 按统一优先级排列班次代码
// 夜班 < 午后班 < 早班 < 全天班，同级按字典序决胜。
// 最小填充与最大填充阶段共用此顺序。
func OrderCodes(resolved map[string]*Resolved, catalog model.Catalog) []string {
	codes := make([]string, 0, len(resolved))
	for code := range resolved {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		pi, pj := priorityOf(codes[i], catalog), priorityOf(codes[j], catalog)
		if pi != pj {
			return pi < pj
		}
		return codes[i] < codes[j]
	})
	return codes
}

func priorityOf(code string, catalog model.Catalog) int {
	def := catalog.Get(code)
	if def == nil {
		return 99
	}
	if p, ok := model.ShiftTimePriority[def.Time]; ok {
		return p
	}
	return 99
}

func lookupOverride(table *model.RequirementTable, code, date string) (model.Requirement, bool) {
	byDate, ok := table.Overrides[code]
	if !ok {
		return model.Requirement{}, false
	}
	req, ok := byDate[date]
	return req, ok
}
