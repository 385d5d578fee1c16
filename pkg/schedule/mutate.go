// Package schedule 提供排班记录集的内存快照与点编辑操作
package schedule

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/yuanban/yuanban/pkg/errors"
	"github.com/yuanban/yuanban/pkg/merge"
	"github.com/yuanban/yuanban/pkg/model"
	"github.com/yuanban/yuanban/pkg/rules"
)

// ApplyAbsence 应用缺勤记录
// 范围内每一天：若原记录是工作班次，生成带原持有人标记的未覆盖占位；
// 缺勤人员自己的记录改写为缺勤原因代码。
// 返回新产生的未覆盖占位记录。
func (b *Board) ApplyAbsence(rec *model.AbsenceRecord) ([]*model.ScheduledAssignment, error) {
	staff := b.GetStaff(rec.StaffID)
	if staff == nil {
		return nil, errors.InvalidReference(rec.StartDate, rec.StaffID.String(), rec.Reason)
	}
	reasonDef := b.Catalog.Get(rec.Reason)
	if reasonDef == nil {
		return nil, errors.InvalidReference(rec.StartDate, rec.StaffID.String(), rec.Reason)
	}
	if reasonDef.Time != model.TimeAbsence {
		return nil, errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("班次 %q 不是缺勤类别，不能作为缺勤原因", rec.Reason))
	}
	dates := rec.Dates()
	if len(dates) == 0 {
		return nil, errors.New(errors.CodeInvalidDateRange,
			fmt.Sprintf("缺勤日期范围无效: %s .. %s", rec.StartDate, rec.EndDate))
	}

	var created []*model.ScheduledAssignment
	for _, date := range dates {
		original := b.Get(rec.StaffID, date)
		if original != nil && !original.Code.IsZero() {
			def := b.Catalog.Get(original.Code.First())
			if def != nil && def.Time != model.TimeAbsence && def.Time != model.TimeRest {
				staffID := rec.StaffID
				slot := &model.ScheduledAssignment{
					ID:              "uncovered-" + staffID.String() + "-" + date,
					StaffID:         model.UnassignedStaffID,
					Date:            date,
					Code:            original.Code,
					OriginalStaffID: &staffID,
				}
				if err := b.Add(slot); err != nil {
					return nil, err
				}
				created = append(created, slot)
			}
		}
		entry := &model.ScheduledAssignment{
			ID:      model.AssignmentID(rec.StaffID, date),
			StaffID: rec.StaffID,
			Date:    date,
			Code:    model.NewShiftCode(rec.Reason),
		}
		if original != nil {
			b.Remove(original.ID)
		}
		if err := b.Add(entry); err != nil {
			return nil, err
		}
	}
	return created, nil
}

// AssignUncovered 将一个未覆盖占位分配给指定人员
// 同步应用资格规则与组合规则：候选人若当天已持有互补半日班，
// 结果改写为组合班次；持有不兼容工作班次则拒绝并保持原状。
// 返回产生的组合判定结果（非组合场景返回 nil）。
func (b *Board) AssignUncovered(slotID string, staffID uuid.UUID, merger *merge.Merger) (*merge.Result, error) {
	slot := b.GetByID(slotID)
	if slot == nil || !slot.IsUncovered() {
		return nil, errors.NotFound("未覆盖班次", slotID)
	}
	staff := b.GetStaff(staffID)
	if staff == nil {
		return nil, errors.InvalidReference(slot.Date, staffID.String(), slot.Code.String())
	}
	code := slot.Code.First()
	if !rules.IsShiftAllowed(code, staff, b.Catalog, b.Teams) {
		return nil, errors.NotEligible(staffID.String(), code)
	}

	existing := b.Get(staffID, slot.Date)
	newCode := slot.Code
	var mergeResult *merge.Result

	if existing != nil && !existing.Code.IsZero() {
		existingDef := b.Catalog.Get(existing.Code.First())
		switch {
		case existing.Code.IsCombined():
			return nil, errors.ScheduleConflict(staffID.String(), slot.Date,
				fmt.Sprintf("已持有组合班次 %s", existing.Code))
		case existingDef != nil && existingDef.Time.IsWorking():
			result, err := merger.Merge(existing.Code.First(), code, staff, b.Catalog)
			if err != nil {
				return nil, err
			}
			newCode = result.Code
			mergeResult = result
		default:
			// 休息/缺勤记录被新的工作班次覆盖
		}
		b.Remove(existing.ID)
	}

	b.Remove(slotID)
	entry := &model.ScheduledAssignment{
		ID:      model.AssignmentID(staffID, slot.Date),
		StaffID: staffID,
		Date:    slot.Date,
		Code:    newCode,
	}
	if err := b.Add(entry); err != nil {
		return nil, err
	}
	return mergeResult, nil
}

// UpdateShift 修改某人员单日的班次（newCode 为空串表示清除）
// 工作班次被改为缺勤类班次时，生成对应的未覆盖占位记录。
func (b *Board) UpdateShift(staffID uuid.UUID, date, newCode string) (*model.ScheduledAssignment, error) {
	staff := b.GetStaff(staffID)
	if staff == nil {
		return nil, errors.InvalidReference(date, staffID.String(), newCode)
	}

	original := b.Get(staffID, date)

	if newCode == "" {
		if original != nil {
			b.Remove(original.ID)
		}
		return nil, nil
	}

	code, err := model.ParseShiftCode(newCode)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "班次代码解析失败")
	}
	if err := code.Validate(b.Catalog); err != nil {
		return nil, errors.InvalidReference(date, staffID.String(), newCode).WithCause(err)
	}
	for _, part := range code.Parts() {
		if !rules.IsShiftAllowed(part, staff, b.Catalog, b.Teams) {
			return nil, errors.NotEligible(staffID.String(), part)
		}
	}

	var uncovered *model.ScheduledAssignment
	if original != nil && !original.Code.IsZero() {
		wasWorking := false
		if def := b.Catalog.Get(original.Code.First()); def != nil && def.Time != model.TimeRest && def.Time != model.TimeAbsence {
			wasWorking = true
		}
		newDef := b.Catalog.Get(code.First())
		if wasWorking && newDef != nil && newDef.Time == model.TimeAbsence {
			sid := staffID
			uncovered = &model.ScheduledAssignment{
				ID:              "uncovered-" + model.AssignmentID(staffID, date),
				StaffID:         model.UnassignedStaffID,
				Date:            date,
				Code:            original.Code,
				OriginalStaffID: &sid,
			}
			if err := b.Add(uncovered); err != nil {
				return nil, err
			}
		}
		b.Remove(original.ID)
	}

	entry := &model.ScheduledAssignment{
		ID:      model.AssignmentID(staffID, date),
		StaffID: staffID,
		Date:    date,
		Code:    code,
	}
	if err := b.Add(entry); err != nil {
		return nil, err
	}
	return uncovered, nil
}
