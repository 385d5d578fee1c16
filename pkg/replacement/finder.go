// Package replacement 提供缺口班次的顶班人选推荐
package replacement

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/yuanban/yuanban/pkg/errors"
	"github.com/yuanban/yuanban/pkg/model"
	"github.com/yuanban/yuanban/pkg/rules"
	"github.com/yuanban/yuanban/pkg/schedule"
)

// Weights 打分权重
// 各项均为加分项，基础分按合同档位区分。
type Weights struct {
	ContractH24   float64 `json:"contract_h24" yaml:"contract_h24"`
	ContractH12   float64 `json:"contract_h12" yaml:"contract_h12"`
	ContractH6    float64 `json:"contract_h6" yaml:"contract_h6"`
	Extendable    float64 `json:"extendable" yaml:"extendable"`
	RoleMatch     float64 `json:"role_match" yaml:"role_match"`
	KnownLocation float64 `json:"known_location" yaml:"known_location"`
}

// DefaultWeights 返回默认权重
func DefaultWeights() Weights {
	return Weights{
		ContractH24:   50,
		ContractH12:   30,
		ContractH6:    10,
		Extendable:    25,
		RoleMatch:     15,
		KnownLocation: 10,
	}
}

// Candidate 顶班人选
type Candidate struct {
	Staff      *model.Staff `json:"staff"`
	Score      float64      `json:"score"`
	Reason     string       `json:"reason"`
	Extendable bool         `json:"extendable"`
	Rank       int          `json:"rank"`
}

// Finder 顶班人选推荐器
type Finder struct {
	weights Weights
}

// NewFinder 创建推荐器
func NewFinder(weights Weights) *Finder {
	return &Finder{weights: weights}
}

// Options 推荐选项
type Options struct {
	MaxCandidates int         // 最大人选数量，0 表示不限
	Exclude       []uuid.UUID // 额外排除的人员
}

// Find 为缺口班次推荐顶班人选
// 缺勤者本人、夜班后歇班者和不可排人员排除；当日在岗者仅当
// 其班次与缺口班次互补（早配午）时保留并标记可延长。
// 结果按得分降序，可能为空。
func (f *Finder) Find(board *schedule.Board, date, shiftCode string, absentStaffID uuid.UUID, opts *Options) ([]*Candidate, error) {
	if _, err := model.ParseDate(date); err != nil {
		return nil, errors.New(errors.CodeInvalidDateRange, "无效的日期: "+date)
	}
	def, ok := board.Catalog[shiftCode]
	if !ok {
		return nil, errors.InvalidReference(date, absentStaffID.String(), shiftCode)
	}

	excludeSet := map[uuid.UUID]bool{absentStaffID: true}
	if opts != nil {
		for _, id := range opts.Exclude {
			excludeSet[id] = true
		}
	}

	var candidates []*Candidate
	for _, staff := range board.Staff {
		if staff.IsSentinel() || excludeSet[staff.ID] {
			continue
		}
		current := board.Get(staff.ID, date)
		ok, extendable := f.availability(board.Catalog, current, def)
		if !ok {
			continue
		}
		if !rules.IsShiftAllowed(shiftCode, staff, board.Catalog, board.Teams) {
			continue
		}

		c := f.score(board, staff, def, extendable)
		candidates = append(candidates, c)
	}

	// 得分降序，同分按合同档位再按花名册顺序
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Staff.Contract.Rank() > candidates[j].Staff.Contract.Rank()
	})

	if opts != nil && opts.MaxCandidates > 0 && len(candidates) > opts.MaxCandidates {
		candidates = candidates[:opts.MaxCandidates]
	}
	for i, c := range candidates {
		c.Rank = i + 1
	}
	return candidates, nil
}

// availability 判断人员当日能否被征调
// 空闲和休息类班次者可顶班；夜班后歇班者不可；在岗者仅当持有
// 与缺口班次互补的单一班次（早对午）时可顶班并延长为组合班。
func (f *Finder) availability(catalog model.Catalog, current *model.ScheduledAssignment, def *model.ShiftDefinition) (ok, extendable bool) {
	if current == nil {
		return true, false
	}
	if current.Code.Contains(model.PostNightRestCode) {
		return false, false
	}
	parts := current.Code.Parts()
	if len(parts) == 1 {
		if cur, found := catalog[parts[0]]; found && complementary(cur.Time, def.Time) {
			return true, true
		}
	}
	for _, part := range parts {
		d, found := catalog[part]
		if !found || d.Time != model.TimeRest {
			return false, false
		}
	}
	return true, false
}

// complementary 早班与午班互为可延长的半日班
func complementary(a, b model.ShiftTime) bool {
	return (a == model.TimeMorning && b == model.TimeAfternoon) ||
		(a == model.TimeAfternoon && b == model.TimeMorning)
}

// score 计算人选得分
func (f *Finder) score(board *schedule.Board, staff *model.Staff, def *model.ShiftDefinition, extendable bool) *Candidate {
	c := &Candidate{Staff: staff}

	switch staff.Contract {
	case model.ContractH24:
		c.Score += f.weights.ContractH24
	case model.ContractH12:
		c.Score += f.weights.ContractH12
	case model.ContractH6:
		c.Score += f.weights.ContractH6
	}

	// 持互补半日班的人员可直接延长为组合班，优先推荐
	if extendable {
		c.Extendable = true
		c.Score += f.weights.Extendable
	}

	if def.AllowsRole(staff.Role) {
		c.Score += f.weights.RoleMatch
	}
	if board.HasWorkedAt(staff.ID, def.Location) {
		c.Score += f.weights.KnownLocation
	}

	c.Reason = f.reason(staff, c)
	return c
}

func (f *Finder) reason(staff *model.Staff, c *Candidate) string {
	base := fmt.Sprintf("%s 合同，当日可顶班", staff.Contract)
	if c.Extendable {
		return base + "，且当日班次可延长为组合班"
	}
	return base
}
