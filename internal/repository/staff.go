// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/yuanban/yuanban/pkg/model"
)

// StaffRepository 人员仓储
type StaffRepository struct {
	db DB
}

// NewStaffRepository 创建人员仓储
func NewStaffRepository(db DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// Create 创建人员
func (r *StaffRepository) Create(ctx context.Context, staff *model.Staff) error {
	if staff.ID == uuid.Nil {
		staff.ID = uuid.New()
	}
	now := time.Now()
	staff.CreatedAt = now
	staff.UpdatedAt = now

	excludedJSON, _ := json.Marshal(staff.UnavailableShiftCodes)

	query := `
		INSERT INTO staff (
			id, name, role, contract, phone, email,
			unavailable_codes, long_shift_ok, max_long_shifts, has_law104,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		staff.ID, staff.Name, staff.Role, staff.Contract, staff.Phone, staff.Email,
		excludedJSON, staff.LongShiftOK, staff.MaxLongShiftsPerMonth, staff.HasLaw104,
		staff.CreatedAt, staff.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建人员失败: %w", err)
	}

	return r.replaceTeams(ctx, staff.ID, staff.TeamIDs)
}

// GetByID 根据ID获取人员
func (r *StaffRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	query := `
		SELECT id, name, role, contract, phone, email,
			unavailable_codes, long_shift_ok, max_long_shifts, has_law104,
			created_at, updated_at
		FROM staff
		WHERE id = $1 AND deleted_at IS NULL
	`
	staff, err := r.scanStaff(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadTeams(ctx, staff); err != nil {
		return nil, err
	}
	return staff, nil
}

// Update 更新人员
func (r *StaffRepository) Update(ctx context.Context, staff *model.Staff) error {
	staff.UpdatedAt = time.Now()
	excludedJSON, _ := json.Marshal(staff.UnavailableShiftCodes)

	query := `
		UPDATE staff SET
			name = $2, role = $3, contract = $4, phone = $5, email = $6,
			unavailable_codes = $7, long_shift_ok = $8, max_long_shifts = $9,
			has_law104 = $10, updated_at = $11
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		staff.ID, staff.Name, staff.Role, staff.Contract, staff.Phone, staff.Email,
		excludedJSON, staff.LongShiftOK, staff.MaxLongShiftsPerMonth,
		staff.HasLaw104, staff.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新人员失败: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("人员不存在")
	}

	return r.replaceTeams(ctx, staff.ID, staff.TeamIDs)
}

// Delete 软删除人员
func (r *StaffRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE staff SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除人员失败: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("人员不存在")
	}
	return nil
}

// ListAll 获取全部在册人员（含团队归属），按姓名排序
func (r *StaffRepository) ListAll(ctx context.Context) ([]*model.Staff, error) {
	query := `
		SELECT id, name, role, contract, phone, email,
			unavailable_codes, long_shift_ok, max_long_shifts, has_law104,
			created_at, updated_at
		FROM staff
		WHERE deleted_at IS NULL
		ORDER BY name, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询人员列表失败: %w", err)
	}
	defer rows.Close()

	var list []*model.Staff
	byID := make(map[uuid.UUID]*model.Staff)
	for rows.Next() {
		staff, err := r.scanStaff(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, staff)
		byID[staff.ID] = staff
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(list) == 0 {
		return list, nil
	}

	ids := make([]uuid.UUID, 0, len(list))
	for _, staff := range list {
		ids = append(ids, staff.ID)
	}
	memberRows, err := r.db.QueryContext(ctx,
		`SELECT staff_id, team_id FROM staff_teams WHERE staff_id = ANY($1) ORDER BY team_id`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("查询团队归属失败: %w", err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var staffID, teamID uuid.UUID
		if err := memberRows.Scan(&staffID, &teamID); err != nil {
			return nil, err
		}
		if staff, ok := byID[staffID]; ok {
			staff.TeamIDs = append(staff.TeamIDs, teamID)
		}
	}
	return list, memberRows.Err()
}

// replaceTeams 重建人员的团队归属
func (r *StaffRepository) replaceTeams(ctx context.Context, staffID uuid.UUID, teamIDs []uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM staff_teams WHERE staff_id = $1`, staffID); err != nil {
		return fmt.Errorf("清理团队归属失败: %w", err)
	}
	for _, teamID := range teamIDs {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO staff_teams (staff_id, team_id) VALUES ($1, $2)`,
			staffID, teamID,
		); err != nil {
			return fmt.Errorf("写入团队归属失败: %w", err)
		}
	}
	return nil
}

// loadTeams 加载人员的团队归属
func (r *StaffRepository) loadTeams(ctx context.Context, staff *model.Staff) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT team_id FROM staff_teams WHERE staff_id = $1 ORDER BY team_id`, staff.ID)
	if err != nil {
		return fmt.Errorf("查询团队归属失败: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var teamID uuid.UUID
		if err := rows.Scan(&teamID); err != nil {
			return err
		}
		staff.TeamIDs = append(staff.TeamIDs, teamID)
	}
	return rows.Err()
}

func (r *StaffRepository) scanStaff(row Scanner) (*model.Staff, error) {
	staff := &model.Staff{}
	var excludedJSON []byte

	err := row.Scan(
		&staff.ID, &staff.Name, &staff.Role, &staff.Contract, &staff.Phone, &staff.Email,
		&excludedJSON, &staff.LongShiftOK, &staff.MaxLongShiftsPerMonth, &staff.HasLaw104,
		&staff.CreatedAt, &staff.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("人员不存在")
	}
	if err != nil {
		return nil, fmt.Errorf("扫描人员数据失败: %w", err)
	}

	if len(excludedJSON) > 0 {
		_ = json.Unmarshal(excludedJSON, &staff.UnavailableShiftCodes)
	}
	return staff, nil
}
