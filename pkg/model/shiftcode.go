// Package model 定义医院排班引擎的核心数据模型
package model

import (
	"fmt"
	"strings"
)

// CombinedSeparator 组合班次代码分隔符
const CombinedSeparator = "/"

// ShiftCode 班次代码的标签化表示
// 单一班次为 Single(code)，同日两个连续半日班为 Combined(first, second)，
// 按时间顺序存储。消费方禁止自行按 "/" 拆分字符串，统一经由本类型。
type ShiftCode struct {
	first  string
	second string
}

// NewShiftCode 创建单一班次代码
func NewShiftCode(code string) ShiftCode {
	return ShiftCode{first: code}
}

// NewCombinedCode 创建组合班次代码（first 在前，second 在后，按时间顺序）
func NewCombinedCode(first, second string) (ShiftCode, error) {
	if first == "" || second == "" {
		return ShiftCode{}, fmt.Errorf("组合班次代码不能为空: %q + %q", first, second)
	}
	if strings.Contains(first, CombinedSeparator) || strings.Contains(second, CombinedSeparator) {
		return ShiftCode{}, fmt.Errorf("组合班次的成员不能再含分隔符: %q + %q", first, second)
	}
	return ShiftCode{first: first, second: second}, nil
}

// ParseShiftCode 解析班次代码字符串（"M" 或 "M/P"）
func ParseShiftCode(s string) (ShiftCode, error) {
	if s == "" {
		return ShiftCode{}, fmt.Errorf("班次代码为空")
	}
	parts := strings.Split(s, CombinedSeparator)
	switch len(parts) {
	case 1:
		return NewShiftCode(parts[0]), nil
	case 2:
		return NewCombinedCode(parts[0], parts[1])
	default:
		return ShiftCode{}, fmt.Errorf("非法班次代码: %q", s)
	}
}

// IsZero 判断是否为零值（无班次）
func (c ShiftCode) IsZero() bool {
	return c.first == ""
}

// IsCombined 判断是否为组合班次
func (c ShiftCode) IsCombined() bool {
	return c.second != ""
}

// First 返回第一个（或唯一的）成员代码
func (c ShiftCode) First() string {
	return c.first
}

// Second 返回第二个成员代码，单一班次返回空串
func (c ShiftCode) Second() string {
	return c.second
}

// Parts 返回全部成员代码
func (c ShiftCode) Parts() []string {
	if c.IsZero() {
		return nil
	}
	if c.IsCombined() {
		return []string{c.first, c.second}
	}
	return []string{c.first}
}

// Contains 判断是否含有某个成员代码
func (c ShiftCode) Contains(code string) bool {
	return c.first == code || (c.second != "" && c.second == code)
}

// String 输出标准字符串形式（组合班次以 "/" 连接）
func (c ShiftCode) String() string {
	if c.second == "" {
		return c.first
	}
	return c.first + CombinedSeparator + c.second
}

// Validate 校验全部成员代码都存在于目录中
func (c ShiftCode) Validate(catalog Catalog) error {
	for _, code := range c.Parts() {
		if !catalog.Has(code) {
			return fmt.Errorf("班次代码 %q 无对应定义", code)
		}
	}
	return nil
}

// MarshalJSON 以字符串形式序列化
func (c ShiftCode) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", c.String())), nil
}

// UnmarshalJSON 从字符串反序列化
func (c *ShiftCode) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*c = ShiftCode{}
		return nil
	}
	parsed, err := ParseShiftCode(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
