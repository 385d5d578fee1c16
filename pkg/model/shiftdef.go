// Package model 定义医院排班引擎的核心数据模型
package model

// ShiftDefinition 班次定义
// Code 为唯一键；被现有排班引用后不可随意删除，仅能通过管理路径编辑。
type ShiftDefinition struct {
	Code        string      `json:"code" db:"code"`
	Description string      `json:"description" db:"description"`
	Location    Location    `json:"location" db:"location"`
	Time        ShiftTime   `json:"time" db:"time"`
	Roles       []StaffRole `json:"roles" db:"roles"`
	Color       string      `json:"color,omitempty" db:"color"`
	TextColor   string      `json:"text_color,omitempty" db:"text_color"`
}

// AllowsRole 判断班次的角色集合是否包含指定角色
func (d *ShiftDefinition) AllowsRole(role StaffRole) bool {
	for _, r := range d.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsLong 判断是否为长班（加班制班次）
func (d *ShiftDefinition) IsLong() bool {
	return LongShiftCodes[d.Code]
}

// IsNight 判断是否为夜班
func (d *ShiftDefinition) IsNight() bool {
	return d.Time == TimeNight
}

// Catalog 班次定义目录，按代码索引
type Catalog map[string]*ShiftDefinition

// NewCatalog 从班次定义列表构建目录
func NewCatalog(defs []*ShiftDefinition) Catalog {
	c := make(Catalog, len(defs))
	for _, d := range defs {
		c[d.Code] = d
	}
	return c
}

// Get 按代码查找班次定义，未找到返回 nil
func (c Catalog) Get(code string) *ShiftDefinition {
	return c[code]
}

// Has 判断代码是否存在
func (c Catalog) Has(code string) bool {
	_, ok := c[code]
	return ok
}
