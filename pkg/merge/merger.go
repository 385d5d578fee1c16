// Package merge 提供半日班次的组合判定
// 同一人员同一日期的两个互补半日班可融合为单条组合班次记录。
package merge

import (
	"fmt"

	"github.com/yuanban/yuanban/pkg/errors"
	"github.com/yuanban/yuanban/pkg/model"
)

// Policy 跨院区危险组合的处理策略
type Policy string

const (
	// PolicyReject 直接拒绝跨院区组合
	PolicyReject Policy = "reject"
	// PolicyWarnAndAllow 允许但必须上报警告
	PolicyWarnAndAllow Policy = "warn_and_allow"
)

// Merger 组合班次判定器
type Merger struct {
	policy Policy

	// siteGroups 将工作地点映射到院区分组；
	// 不同院区的连续班次存在通勤风险，必须显式上报。
	// 未登记的地点各自视为独立院区。
	siteGroups map[model.Location]string
}

// NewMerger 创建组合班次判定器
func NewMerger(policy Policy, siteGroups map[model.Location]string) *Merger {
	if policy == "" {
		policy = PolicyWarnAndAllow
	}
	if siteGroups == nil {
		siteGroups = make(map[model.Location]string)
	}
	return &Merger{policy: policy, siteGroups: siteGroups}
}

// Result 组合判定结果
type Result struct {
	Code      model.ShiftCode `json:"code"`
	Dangerous bool            `json:"dangerous"`
	Warning   string          `json:"warning,omitempty"`
}

// Merge 尝试将人员已持有的班次与候选班次组合
// 仅 h12/h24 合同允许组合，且两个班次必须互为早班+午后班（提交顺序不限）；
// 结果按时间顺序存储（早班在前）。不兼容时返回错误，原记录不受影响。
func (m *Merger) Merge(existing, candidate string, staff *model.Staff, catalog model.Catalog) (*Result, error) {
	if staff.Contract != model.ContractH12 && staff.Contract != model.ContractH24 {
		return nil, errors.IncompatibleCombination(staff.ID.String(), "",
			fmt.Sprintf("合同 %s 不允许组合班次", staff.Contract))
	}

	defA := catalog.Get(existing)
	defB := catalog.Get(candidate)
	if defA == nil || defB == nil {
		return nil, errors.New(errors.CodeInvalidReference,
			fmt.Sprintf("组合班次引用了未定义的代码: %q + %q", existing, candidate))
	}

	morning, afternoon := orderHalves(defA, defB)
	if morning == nil {
		return nil, errors.IncompatibleCombination(staff.ID.String(), "",
			fmt.Sprintf("班次 %q(%s) 与 %q(%s) 不是互补的早班+午后班",
				defA.Code, defA.Time, defB.Code, defB.Time))
	}

	code, err := model.NewCombinedCode(morning.Code, afternoon.Code)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "构建组合班次代码失败")
	}

	result := &Result{Code: code}

	if m.siteOf(morning.Location) != m.siteOf(afternoon.Location) {
		result.Dangerous = true
		result.Warning = fmt.Sprintf("组合班次 %s 跨越不同院区 (%s → %s)，连续通勤存在风险",
			code, morning.Location, afternoon.Location)
		if m.policy == PolicyReject {
			return nil, errors.IncompatibleCombination(staff.ID.String(), "", result.Warning)
		}
	}

	return result, nil
}

// Split 拆解组合班次，返回两个成员定义
func (m *Merger) Split(code model.ShiftCode, catalog model.Catalog) (*model.ShiftDefinition, *model.ShiftDefinition, error) {
	if !code.IsCombined() {
		return nil, nil, errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("%q 不是组合班次代码", code))
	}
	first := catalog.Get(code.First())
	second := catalog.Get(code.Second())
	if first == nil || second == nil {
		return nil, nil, errors.New(errors.CodeInvalidReference,
			fmt.Sprintf("组合班次 %q 含未定义的成员代码", code))
	}
	return first, second, nil
}

// orderHalves 判断两个定义是否互补并按时间顺序返回 (早班, 午后班)
// 不互补时返回 (nil, nil)。
func orderHalves(a, b *model.ShiftDefinition) (*model.ShiftDefinition, *model.ShiftDefinition) {
	switch {
	case a.Time == model.TimeMorning && b.Time == model.TimeAfternoon:
		return a, b
	case a.Time == model.TimeAfternoon && b.Time == model.TimeMorning:
		return b, a
	default:
		return nil, nil
	}
}

func (m *Merger) siteOf(loc model.Location) string {
	if group, ok := m.siteGroups[loc]; ok {
		return group
	}
	return string(loc)
}
