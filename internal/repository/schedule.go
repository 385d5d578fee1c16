package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yuanban/yuanban/pkg/model"
)

// ScheduleRepository 排班记录仓储
// 未覆盖占位与正常班次同表存储，以哨兵人员ID区分。
type ScheduleRepository struct {
	db Transactor
}

// NewScheduleRepository 创建排班记录仓储
func NewScheduleRepository(db Transactor) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListMonth 查询目标月的全部排班记录
func (r *ScheduleRepository) ListMonth(ctx context.Context, month model.Month) ([]*model.ScheduledAssignment, error) {
	return r.listRange(ctx, month.FirstDay(), month.DateOf(month.Days()))
}

// ListRange 查询日期区间内的排班记录（闭区间）
func (r *ScheduleRepository) ListRange(ctx context.Context, startDate, endDate string) ([]*model.ScheduledAssignment, error) {
	return r.listRange(ctx, startDate, endDate)
}

func (r *ScheduleRepository) listRange(ctx context.Context, startDate, endDate string) ([]*model.ScheduledAssignment, error) {
	query := `
		SELECT id, staff_id, date, code, original_staff_id
		FROM scheduled_shifts
		WHERE date >= $1 AND date <= $2
		ORDER BY date, id
	`
	rows, err := r.db.QueryContext(ctx, query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("查询排班记录失败: %w", err)
	}
	defer rows.Close()

	var list []*model.ScheduledAssignment
	for rows.Next() {
		asg, err := r.scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, asg)
	}
	return list, rows.Err()
}

// PrevMonthTail 查询上月最后一天的排班，用于跨月夜班推导
func (r *ScheduleRepository) PrevMonthTail(ctx context.Context, month model.Month) ([]*model.ScheduledAssignment, error) {
	lastPrev := month.LastDayOfPrevMonth()
	return r.listRange(ctx, lastPrev, lastPrev)
}

// ReplaceMonth 以事务整月替换排班记录
// 先删除目标月的全部记录，再写入新的完整集合。
func (r *ScheduleRepository) ReplaceMonth(ctx context.Context, month model.Month, assignments []*model.ScheduledAssignment) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM scheduled_shifts WHERE date >= $1 AND date <= $2`,
			month.FirstDay(), month.DateOf(month.Days()),
		)
		if err != nil {
			return fmt.Errorf("清理旧排班失败: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO scheduled_shifts (id, staff_id, date, code, original_staff_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`)
		if err != nil {
			return fmt.Errorf("准备写入语句失败: %w", err)
		}
		defer stmt.Close()

		now := time.Now()
		for _, asg := range assignments {
			var original interface{}
			if asg.OriginalStaffID != nil {
				original = *asg.OriginalStaffID
			}
			if _, err := stmt.ExecContext(ctx,
				asg.ID, asg.StaffID, asg.Date, asg.Code.String(), original, now, now,
			); err != nil {
				return fmt.Errorf("写入排班记录 %s 失败: %w", asg.ID, err)
			}
		}
		return nil
	})
}

// Upsert 写入或更新单条排班记录
func (r *ScheduleRepository) Upsert(ctx context.Context, asg *model.ScheduledAssignment) error {
	var original interface{}
	if asg.OriginalStaffID != nil {
		original = *asg.OriginalStaffID
	}
	query := `
		INSERT INTO scheduled_shifts (id, staff_id, date, code, original_staff_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (id) DO UPDATE SET
			staff_id = EXCLUDED.staff_id, code = EXCLUDED.code,
			original_staff_id = EXCLUDED.original_staff_id, updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query,
		asg.ID, asg.StaffID, asg.Date, asg.Code.String(), original, time.Now(),
	); err != nil {
		return fmt.Errorf("写入排班记录失败: %w", err)
	}
	return nil
}

// DeleteByID 删除单条排班记录
func (r *ScheduleRepository) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM scheduled_shifts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("删除排班记录失败: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("排班记录不存在")
	}
	return nil
}

func (r *ScheduleRepository) scanAssignment(row Scanner) (*model.ScheduledAssignment, error) {
	asg := &model.ScheduledAssignment{}
	var code string
	var original uuid.NullUUID

	if err := row.Scan(&asg.ID, &asg.StaffID, &asg.Date, &code, &original); err != nil {
		return nil, fmt.Errorf("扫描排班记录失败: %w", err)
	}

	sc, err := model.ParseShiftCode(code)
	if err != nil {
		return nil, fmt.Errorf("排班记录 %s 的班次代码无效: %w", asg.ID, err)
	}
	asg.Code = sc
	if original.Valid {
		id := original.UUID
		asg.OriginalStaffID = &id
	}
	return asg, nil
}

// AbsenceRepository 缺勤记录仓储
type AbsenceRepository struct {
	db DB
}

// NewAbsenceRepository 创建缺勤记录仓储
func NewAbsenceRepository(db DB) *AbsenceRepository {
	return &AbsenceRepository{db: db}
}

// Create 登记缺勤
func (r *AbsenceRepository) Create(ctx context.Context, rec *model.AbsenceRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	query := `
		INSERT INTO absences (id, staff_id, start_date, end_date, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.StaffID, rec.StartDate, rec.EndDate, rec.Reason, time.Now(),
	); err != nil {
		return fmt.Errorf("登记缺勤失败: %w", err)
	}
	return nil
}

// ListRange 查询与日期区间有交集的缺勤记录
func (r *AbsenceRepository) ListRange(ctx context.Context, startDate, endDate string) ([]*model.AbsenceRecord, error) {
	query := `
		SELECT id, staff_id, start_date, end_date, reason
		FROM absences
		WHERE start_date <= $2 AND end_date >= $1
		ORDER BY start_date, id
	`
	rows, err := r.db.QueryContext(ctx, query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("查询缺勤记录失败: %w", err)
	}
	defer rows.Close()

	var list []*model.AbsenceRecord
	for rows.Next() {
		rec := &model.AbsenceRecord{}
		if err := rows.Scan(&rec.ID, &rec.StaffID, &rec.StartDate, &rec.EndDate, &rec.Reason); err != nil {
			return nil, fmt.Errorf("扫描缺勤记录失败: %w", err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}
