package model

import (
	"encoding/json"
	"testing"
)

func TestParseShiftCode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  bool
		combined bool
		first    string
		second   string
	}{
		{"单一班次", "M", false, false, "M", ""},
		{"组合班次", "M/P", false, true, "M", "P"},
		{"空字符串", "", true, false, "", ""},
		{"多重分隔符", "M/P/N", true, false, "", ""},
		{"成员为空", "M/", true, false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseShiftCode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseShiftCode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if c.IsCombined() != tt.combined {
				t.Errorf("IsCombined() = %v, expected %v", c.IsCombined(), tt.combined)
			}
			if c.First() != tt.first || c.Second() != tt.second {
				t.Errorf("解析结果 = (%q, %q), expected (%q, %q)", c.First(), c.Second(), tt.first, tt.second)
			}
		})
	}
}

func TestShiftCode_String(t *testing.T) {
	single := NewShiftCode("N")
	if single.String() != "N" {
		t.Errorf("String() = %q, expected %q", single.String(), "N")
	}

	combined, err := NewCombinedCode("M", "P")
	if err != nil {
		t.Fatalf("NewCombinedCode失败: %v", err)
	}
	if combined.String() != "M/P" {
		t.Errorf("String() = %q, expected %q", combined.String(), "M/P")
	}
}

func TestShiftCode_Contains(t *testing.T) {
	combined, _ := NewCombinedCode("M", "P")

	tests := []struct {
		code     string
		expected bool
	}{
		{"M", true},
		{"P", true},
		{"N", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if result := combined.Contains(tt.code); result != tt.expected {
				t.Errorf("Contains(%q) = %v, expected %v", tt.code, result, tt.expected)
			}
		})
	}
}

func TestShiftCode_Parts(t *testing.T) {
	var zero ShiftCode
	if parts := zero.Parts(); parts != nil {
		t.Errorf("零值Parts() = %v, expected nil", parts)
	}

	single := NewShiftCode("M")
	if parts := single.Parts(); len(parts) != 1 || parts[0] != "M" {
		t.Errorf("单一班次Parts() = %v", parts)
	}

	combined, _ := NewCombinedCode("M", "P")
	parts := combined.Parts()
	if len(parts) != 2 || parts[0] != "M" || parts[1] != "P" {
		t.Errorf("组合班次Parts() = %v", parts)
	}
}

func TestShiftCode_Validate(t *testing.T) {
	catalog := NewCatalog([]*ShiftDefinition{
		{Code: "M", Time: TimeMorning},
		{Code: "P", Time: TimeAfternoon},
	})

	combined, _ := NewCombinedCode("M", "P")
	if err := combined.Validate(catalog); err != nil {
		t.Errorf("合法组合不应报错: %v", err)
	}

	unknown, _ := NewCombinedCode("M", "X")
	if err := unknown.Validate(catalog); err == nil {
		t.Error("未知成员代码应报错")
	}
}

func TestShiftCode_JSON(t *testing.T) {
	type payload struct {
		Code ShiftCode `json:"code"`
	}

	combined, _ := NewCombinedCode("M", "P")
	data, err := json.Marshal(payload{Code: combined})
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}
	if string(data) != `{"code":"M/P"}` {
		t.Errorf("序列化结果 = %s", data)
	}

	var decoded payload
	if err := json.Unmarshal([]byte(`{"code":"N"}`), &decoded); err != nil {
		t.Fatalf("反序列化失败: %v", err)
	}
	if decoded.Code.String() != "N" || decoded.Code.IsCombined() {
		t.Errorf("反序列化结果 = %+v", decoded.Code)
	}

	var bad payload
	if err := json.Unmarshal([]byte(`{"code":"A/B/C"}`), &bad); err == nil {
		t.Error("非法代码反序列化应报错")
	}
}
