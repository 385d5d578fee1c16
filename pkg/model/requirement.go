// Package model 定义医院排班引擎的核心数据模型
package model

// Requirement 单个班次代码在某天的人数需求区间
type Requirement struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Fixed 创建固定人数需求（min = max = n）
func Fixed(n int) Requirement {
	return Requirement{Min: n, Max: n}
}

// WeeklyPattern 按星期的周循环需求（下标为 time.Weekday，周日=0）
type WeeklyPattern [7]Requirement

// RequirementTable 人员需求表
// 每个班次代码对应一条周循环需求，可叠加按精确日期的覆盖项；
// 覆盖项对该单一日期优先于周循环条目。
type RequirementTable struct {
	Weekly map[string]WeeklyPattern `json:"weekly"`

	// Overrides: 班次代码 -> 日期(YYYY-MM-DD) -> 需求
	Overrides map[string]map[string]Requirement `json:"overrides,omitempty"`
}

// NewRequirementTable 创建空需求表
func NewRequirementTable() *RequirementTable {
	return &RequirementTable{
		Weekly:    make(map[string]WeeklyPattern),
		Overrides: make(map[string]map[string]Requirement),
	}
}

// SetWeekly 设置某班次代码的周循环需求
func (t *RequirementTable) SetWeekly(code string, pattern WeeklyPattern) {
	t.Weekly[code] = pattern
}

// SetOverride 设置某班次代码在精确日期上的覆盖需求
func (t *RequirementTable) SetOverride(code, date string, req Requirement) {
	if t.Overrides == nil {
		t.Overrides = make(map[string]map[string]Requirement)
	}
	if t.Overrides[code] == nil {
		t.Overrides[code] = make(map[string]Requirement)
	}
	t.Overrides[code][date] = req
}
