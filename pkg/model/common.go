// Package model 定义医院排班引擎的核心数据模型
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// StaffRole 人员角色
type StaffRole string

const (
	RoleHeadNurse     StaffRole = "head_nurse"     // 护士长（Caposala）
	RoleNurse         StaffRole = "nurse"          // 护士（Infermiere）
	RoleCareAssistant StaffRole = "care_assistant" // 护理员（OSS）
	RolePhysician     StaffRole = "physician"      // 医生（Medico）
)

// ContractType 合同工时类别
type ContractType string

const (
	ContractH6  ContractType = "h6"  // 仅上早班
	ContractH12 ContractType = "h12" // 不上夜班
	ContractH24 ContractType = "h24" // 全轮转（含夜班）
)

// Rank 返回合同等级，用于替班排序（越大越灵活）
func (c ContractType) Rank() int {
	switch c {
	case ContractH24:
		return 3
	case ContractH12:
		return 2
	case ContractH6:
		return 1
	default:
		return 0
	}
}

// ShiftTime 班次时段类别
type ShiftTime string

const (
	TimeMorning   ShiftTime = "morning"   // 早班
	TimeAfternoon ShiftTime = "afternoon" // 午后班
	TimeNight     ShiftTime = "night"     // 夜班
	TimeFullDay   ShiftTime = "full_day"  // 全天班
	TimeRest      ShiftTime = "rest"      // 休息
	TimeAbsence   ShiftTime = "absence"   // 缺勤
	TimeOffShift  ShiftTime = "off_shift" // 非排班时段
)

// IsWorking 判断该时段类别是否为实际工作班次
func (t ShiftTime) IsWorking() bool {
	switch t {
	case TimeMorning, TimeAfternoon, TimeNight, TimeFullDay:
		return true
	default:
		return false
	}
}

// ShiftTimePriority 统一的班次时段优先级枚举
// 夜班最先填充，其次午后班、早班、全天班；休息类不参与填充。
// 最小填充与最大填充两个阶段都必须使用该表，禁止各自定义比较函数。
var ShiftTimePriority = map[ShiftTime]int{
	TimeNight:     1,
	TimeAfternoon: 2,
	TimeMorning:   3,
	TimeFullDay:   4,
	TimeAbsence:   9,
	TimeRest:      9,
	TimeOffShift:  9,
}

// Location 工作地点（院区/科室驻地）
type Location string

// 保留班次代码
const (
	// PostNightRestCode 夜班后强制休息（smonto notte）
	PostNightRestCode = "S"
	// SundayRestCode 周日休息
	SundayRestCode = "RS"
	// DefaultRestCode 默认休息
	DefaultRestCode = "R"
	// UncoveredCode 未覆盖班次占位代码
	UncoveredCode = "UNCOVERED"
)

// LongShiftCodes 被视为"长班"（加班制）的班次代码集合
var LongShiftCodes = map[string]bool{
	"Ps": true,
}

// UnassignedStaffID 哨兵人员ID，持有未覆盖班次占位记录
// 该ID永远不会被分配真实班次。
var UnassignedStaffID = uuid.Nil

// DateLayout 日历日期的规范格式（无时区歧义）
const DateLayout = "2006-01-02"

// BaseModel 基础模型（包含通用字段）
type BaseModel struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// FormatDate 按规范格式输出日期
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate 解析规范格式日期
func ParseDate(date string) (time.Time, error) {
	return time.Parse(DateLayout, date)
}

// PreviousDate 获取前一天日期
func PreviousDate(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(DateLayout)
}

// NextDate 获取后一天日期
func NextDate(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, 1).Format(DateLayout)
}

// Month 年月对，排班目标月份的选择单位
type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// Days 返回该月的天数
func (m Month) Days() int {
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateOf 返回该月第 day 天的规范日期字符串（day 从1开始）
func (m Month) DateOf(day int) string {
	return time.Date(m.Year, m.Month, day, 0, 0, 0, 0, time.UTC).Format(DateLayout)
}

// WeekdayOf 返回该月第 day 天是星期几
func (m Month) WeekdayOf(day int) time.Weekday {
	return time.Date(m.Year, m.Month, day, 0, 0, 0, 0, time.UTC).Weekday()
}

// FirstDay 返回该月第一天
func (m Month) FirstDay() string {
	return m.DateOf(1)
}

// LastDayOfPrevMonth 返回上个月最后一天
func (m Month) LastDayOfPrevMonth() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1).Format(DateLayout)
}

// Prefix 返回 "YYYY-MM" 前缀，用于按月筛选
func (m Month) Prefix() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

func (m Month) String() string {
	return m.Prefix()
}

// Contains 判断日期是否落在该月内
func (m Month) Contains(date string) bool {
	return strings.HasPrefix(date, m.Prefix()+"-")
}

// PublicHolidays 意大利法定节假日（月-日），节假日出勤计入调休统计
// 复活节及复活节后周一为移动节日，未列入。
var PublicHolidays = []string{
	"01-01", // 元旦
	"01-06", // 主显节
	"04-25", // 解放日
	"05-01", // 劳动节
	"06-02", // 共和国日
	"08-15", // 八月节
	"11-01", // 诸圣节
	"12-08", // 圣母无染原罪瞻礼
	"12-25", // 圣诞节
	"12-26", // 圣斯德望日
}

// IsPublicHoliday 判断日期是否为法定节假日
func IsPublicHoliday(date string) bool {
	if len(date) != 10 {
		return false
	}
	md := date[5:]
	for _, h := range PublicHolidays {
		if h == md {
			return true
		}
	}
	return false
}
