package merge

import (
	"testing"

	"github.com/google/uuid"
	"github.com/yuanban/yuanban/pkg/model"
)

func mergeCatalog() model.Catalog {
	return model.NewCatalog([]*model.ShiftDefinition{
		{Code: "M", Time: model.TimeMorning, Location: "reparto_a"},
		{Code: "P", Time: model.TimeAfternoon, Location: "reparto_a"},
		{Code: "Po", Time: model.TimeAfternoon, Location: "reparto_b"},
		{Code: "N", Time: model.TimeNight, Location: "reparto_a"},
		{Code: "R", Time: model.TimeRest},
	})
}

func mergeStaff(contract model.ContractType) *model.Staff {
	s := &model.Staff{Contract: contract}
	s.ID = uuid.New()
	return s
}

func TestMerger_Merge_Chronological(t *testing.T) {
	m := NewMerger(PolicyWarnAndAllow, nil)
	catalog := mergeCatalog()
	staff := mergeStaff(model.ContractH12)

	// 提交顺序不影响结果，早班始终在前
	tests := []struct {
		name      string
		existing  string
		candidate string
	}{
		{"早班在先", "M", "P"},
		{"午后班在先", "P", "M"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := m.Merge(tt.existing, tt.candidate, staff, catalog)
			if err != nil {
				t.Fatalf("Merge失败: %v", err)
			}
			if result.Code.String() != "M/P" {
				t.Errorf("组合代码 = %q, expected %q", result.Code, "M/P")
			}
			if result.Dangerous {
				t.Error("同院区组合不应标记危险")
			}
		})
	}
}

func TestMerger_Merge_ContractGate(t *testing.T) {
	m := NewMerger(PolicyWarnAndAllow, nil)
	catalog := mergeCatalog()

	if _, err := m.Merge("M", "P", mergeStaff(model.ContractH6), catalog); err == nil {
		t.Error("h6合同不应允许组合班次")
	}
	if _, err := m.Merge("M", "P", mergeStaff(model.ContractH24), catalog); err != nil {
		t.Errorf("h24合同组合失败: %v", err)
	}
}

func TestMerger_Merge_Incompatible(t *testing.T) {
	m := NewMerger(PolicyWarnAndAllow, nil)
	catalog := mergeCatalog()
	staff := mergeStaff(model.ContractH12)

	tests := []struct {
		name      string
		existing  string
		candidate string
	}{
		{"早班加夜班", "M", "N"},
		{"两个早班", "M", "M"},
		{"午后班加休息", "P", "R"},
		{"未定义代码", "M", "XX"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Merge(tt.existing, tt.candidate, staff, catalog); err == nil {
				t.Errorf("%q + %q 应被拒绝", tt.existing, tt.candidate)
			}
		})
	}
}

func TestMerger_Merge_CrossSite(t *testing.T) {
	catalog := mergeCatalog()
	staff := mergeStaff(model.ContractH24)

	// warn_and_allow: 组合成功但必须携带警告
	warn := NewMerger(PolicyWarnAndAllow, nil)
	result, err := warn.Merge("M", "Po", staff, catalog)
	if err != nil {
		t.Fatalf("warn_and_allow策略下组合失败: %v", err)
	}
	if !result.Dangerous || result.Warning == "" {
		t.Errorf("跨院区组合应标记危险并携带警告, got %+v", result)
	}
	if result.Code.String() != "M/Po" {
		t.Errorf("组合代码 = %q", result.Code)
	}

	// reject: 直接拒绝
	reject := NewMerger(PolicyReject, nil)
	if _, err := reject.Merge("M", "Po", staff, catalog); err == nil {
		t.Error("reject策略下跨院区组合应被拒绝")
	}
}

func TestMerger_Merge_SiteGroups(t *testing.T) {
	// 两个地点登记在同一院区分组时不再视为危险
	groups := map[model.Location]string{
		"reparto_a": "sede_centrale",
		"reparto_b": "sede_centrale",
	}
	m := NewMerger(PolicyReject, groups)
	catalog := mergeCatalog()

	result, err := m.Merge("M", "Po", mergeStaff(model.ContractH24), catalog)
	if err != nil {
		t.Fatalf("同院区分组组合失败: %v", err)
	}
	if result.Dangerous {
		t.Error("同院区分组不应标记危险")
	}
}

func TestMerger_Split(t *testing.T) {
	m := NewMerger(PolicyWarnAndAllow, nil)
	catalog := mergeCatalog()

	combined, _ := model.NewCombinedCode("M", "P")
	first, second, err := m.Split(combined, catalog)
	if err != nil {
		t.Fatalf("Split失败: %v", err)
	}
	if first.Code != "M" || second.Code != "P" {
		t.Errorf("Split结果 = (%q, %q)", first.Code, second.Code)
	}

	if _, _, err := m.Split(model.NewShiftCode("M"), catalog); err == nil {
		t.Error("单一班次不应可拆解")
	}

	bad, _ := model.NewCombinedCode("M", "XX")
	if _, _, err := m.Split(bad, catalog); err == nil {
		t.Error("含未定义成员的组合应报错")
	}
}
