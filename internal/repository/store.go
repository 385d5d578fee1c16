package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yuanban/yuanban/pkg/model"
)

// Snapshot 排班所需的完整数据快照
type Snapshot struct {
	Staff    []*model.Staff
	Teams    map[uuid.UUID]*model.Team
	Catalog  model.Catalog
	Existing []*model.ScheduledAssignment // 目标月记录加上月末尾
	Absences []*model.AbsenceRecord
}

// Store 聚合各仓储的数据门面
type Store struct {
	Staff       *StaffRepository
	Teams       *TeamRepository
	Definitions *ShiftDefinitionRepository
	Schedules   *ScheduleRepository
	Absences    *AbsenceRepository
}

// NewStore 创建数据门面
func NewStore(db Transactor) *Store {
	return &Store{
		Staff:       NewStaffRepository(db),
		Teams:       NewTeamRepository(db),
		Definitions: NewShiftDefinitionRepository(db),
		Schedules:   NewScheduleRepository(db),
		Absences:    NewAbsenceRepository(db),
	}
}

// LoadSnapshot 加载目标月排班所需的全部数据
func (s *Store) LoadSnapshot(ctx context.Context, month model.Month) (*Snapshot, error) {
	staff, err := s.Staff.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	teams, err := s.Teams.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	catalog, err := s.Definitions.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := s.Schedules.ListMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	tail, err := s.Schedules.PrevMonthTail(ctx, month)
	if err != nil {
		return nil, err
	}
	existing = append(existing, tail...)

	absences, err := s.Absences.ListRange(ctx, month.FirstDay(), month.DateOf(month.Days()))
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Staff:    staff,
		Teams:    teams,
		Catalog:  catalog,
		Existing: existing,
		Absences: absences,
	}, nil
}

// CommitAssignments 整月替换写入生成结果
func (s *Store) CommitAssignments(ctx context.Context, month model.Month, assignments []*model.ScheduledAssignment) error {
	return s.Schedules.ReplaceMonth(ctx, month, assignments)
}
