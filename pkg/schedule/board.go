// Package schedule 提供排班记录集的内存快照与点编辑操作
// 生成器与替班查找器都在 Board 上工作，存储访问由调用方的仓储层负责。
package schedule

import (
	"sort"

	"github.com/google/uuid"
	"github.com/yuanban/yuanban/pkg/errors"
	"github.com/yuanban/yuanban/pkg/model"
)

// Board 排班面板：人员/班组/班次目录的只读快照加当前排班集
// 常规人员按 (人员, 日期) 索引唯一；哨兵人员按日期持有任意数量的未覆盖占位。
type Board struct {
	Staff   []*model.Staff
	Teams   map[uuid.UUID]*model.Team
	Catalog model.Catalog

	assignments map[string]*model.ScheduledAssignment
	byStaffDate map[uuid.UUID]map[string]*model.ScheduledAssignment
	uncovered   map[string][]*model.ScheduledAssignment
}

// NewBoard 创建排班面板
func NewBoard(staff []*model.Staff, teams []*model.Team, catalog model.Catalog) *Board {
	teamMap := make(map[uuid.UUID]*model.Team, len(teams))
	for _, t := range teams {
		teamMap[t.ID] = t
	}
	return &Board{
		Staff:       staff,
		Teams:       teamMap,
		Catalog:     catalog,
		assignments: make(map[string]*model.ScheduledAssignment),
		byStaffDate: make(map[uuid.UUID]map[string]*model.ScheduledAssignment),
		uncovered:   make(map[string][]*model.ScheduledAssignment),
	}
}

// GetStaff 按ID查找人员
func (b *Board) GetStaff(id uuid.UUID) *model.Staff {
	for _, s := range b.Staff {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// SetAssignments 载入排班记录并重建索引
// 每条记录的人员与班次代码引用都必须有效，否则整体失败。
func (b *Board) SetAssignments(assignments []*model.ScheduledAssignment) error {
	b.assignments = make(map[string]*model.ScheduledAssignment, len(assignments))
	b.byStaffDate = make(map[uuid.UUID]map[string]*model.ScheduledAssignment)
	b.uncovered = make(map[string][]*model.ScheduledAssignment)
	for _, a := range assignments {
		if err := b.Add(a); err != nil {
			return err
		}
	}
	return nil
}

// Add 添加一条排班记录并维护索引
func (b *Board) Add(a *model.ScheduledAssignment) error {
	if err := b.validate(a); err != nil {
		return err
	}
	b.assignments[a.ID] = a
	if a.IsUncovered() {
		b.uncovered[a.Date] = append(b.uncovered[a.Date], a)
		return nil
	}
	if b.byStaffDate[a.StaffID] == nil {
		b.byStaffDate[a.StaffID] = make(map[string]*model.ScheduledAssignment)
	}
	b.byStaffDate[a.StaffID][a.Date] = a
	return nil
}

// Remove 按ID移除排班记录
func (b *Board) Remove(id string) {
	a, ok := b.assignments[id]
	if !ok {
		return
	}
	delete(b.assignments, id)
	if a.IsUncovered() {
		slots := b.uncovered[a.Date]
		for i, s := range slots {
			if s.ID == id {
				b.uncovered[a.Date] = append(slots[:i], slots[i+1:]...)
				break
			}
		}
		return
	}
	if byDate := b.byStaffDate[a.StaffID]; byDate != nil {
		delete(byDate, a.Date)
	}
}

// Get 获取常规人员在指定日期的排班记录
func (b *Board) Get(staffID uuid.UUID, date string) *model.ScheduledAssignment {
	if byDate := b.byStaffDate[staffID]; byDate != nil {
		return byDate[date]
	}
	return nil
}

// GetByID 按记录ID查找
func (b *Board) GetByID(id string) *model.ScheduledAssignment {
	return b.assignments[id]
}

// UncoveredOn 返回指定日期的全部未覆盖占位记录
func (b *Board) UncoveredOn(date string) []*model.ScheduledAssignment {
	return b.uncovered[date]
}

// Uncovered 返回全部未覆盖占位记录（按ID排序，输出稳定）
func (b *Board) Uncovered() []*model.ScheduledAssignment {
	var all []*model.ScheduledAssignment
	for _, slots := range b.uncovered {
		all = append(all, slots...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

// All 返回全部排班记录（按ID排序，输出稳定）
func (b *Board) All() []*model.ScheduledAssignment {
	all := make([]*model.ScheduledAssignment, 0, len(b.assignments))
	for _, a := range b.assignments {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

// StaffAssignments 返回某人员的全部排班记录
func (b *Board) StaffAssignments(staffID uuid.UUID) []*model.ScheduledAssignment {
	byDate := b.byStaffDate[staffID]
	if byDate == nil {
		return nil
	}
	result := make([]*model.ScheduledAssignment, 0, len(byDate))
	for _, a := range byDate {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result
}

// HasWorkedAt 判断人员在记录集中是否有该地点的工作经历
func (b *Board) HasWorkedAt(staffID uuid.UUID, loc model.Location) bool {
	for _, a := range b.StaffAssignments(staffID) {
		for _, code := range a.Code.Parts() {
			def := b.Catalog.Get(code)
			if def != nil && def.Time.IsWorking() && def.Location == loc {
				return true
			}
		}
	}
	return false
}

// validate 校验记录引用的人员与班次代码
func (b *Board) validate(a *model.ScheduledAssignment) error {
	if !a.IsUncovered() && b.GetStaff(a.StaffID) == nil {
		return errors.InvalidReference(a.Date, a.StaffID.String(), a.Code.String())
	}
	if !a.Code.IsZero() {
		if err := a.Code.Validate(b.Catalog); err != nil {
			return errors.InvalidReference(a.Date, a.StaffID.String(), a.Code.String()).WithCause(err)
		}
	}
	return nil
}
