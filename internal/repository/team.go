package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yuanban/yuanban/pkg/model"
)

// TeamRepository 班组仓储
type TeamRepository struct {
	db DB
}

// NewTeamRepository 创建班组仓储
func NewTeamRepository(db DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// Create 创建班组
func (r *TeamRepository) Create(ctx context.Context, team *model.Team) error {
	if team.ID == uuid.Nil {
		team.ID = uuid.New()
	}
	now := time.Now()
	team.CreatedAt = now
	team.UpdatedAt = now

	locJSON, _ := json.Marshal(team.Locations)
	codesJSON, _ := json.Marshal(team.AllowedShiftCodes)

	query := `
		INSERT INTO teams (id, name, locations, allowed_codes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		team.ID, team.Name, locJSON, codesJSON, team.CreatedAt, team.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建班组失败: %w", err)
	}
	return nil
}

// GetByID 根据ID获取班组
func (r *TeamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Team, error) {
	query := `
		SELECT id, name, locations, allowed_codes, created_at, updated_at
		FROM teams
		WHERE id = $1 AND deleted_at IS NULL
	`
	return r.scanTeam(r.db.QueryRowContext(ctx, query, id))
}

// Update 更新班组
func (r *TeamRepository) Update(ctx context.Context, team *model.Team) error {
	team.UpdatedAt = time.Now()
	locJSON, _ := json.Marshal(team.Locations)
	codesJSON, _ := json.Marshal(team.AllowedShiftCodes)

	query := `
		UPDATE teams SET name = $2, locations = $3, allowed_codes = $4, updated_at = $5
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		team.ID, team.Name, locJSON, codesJSON, team.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新班组失败: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("班组不存在")
	}
	return nil
}

// ListAll 获取全部班组，键为班组ID
func (r *TeamRepository) ListAll(ctx context.Context) (map[uuid.UUID]*model.Team, error) {
	query := `
		SELECT id, name, locations, allowed_codes, created_at, updated_at
		FROM teams
		WHERE deleted_at IS NULL
		ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询班组列表失败: %w", err)
	}
	defer rows.Close()

	teams := make(map[uuid.UUID]*model.Team)
	for rows.Next() {
		team, err := r.scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams[team.ID] = team
	}
	return teams, rows.Err()
}

func (r *TeamRepository) scanTeam(row Scanner) (*model.Team, error) {
	team := &model.Team{}
	var locJSON, codesJSON []byte

	err := row.Scan(&team.ID, &team.Name, &locJSON, &codesJSON, &team.CreatedAt, &team.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("班组不存在")
	}
	if err != nil {
		return nil, fmt.Errorf("扫描班组数据失败: %w", err)
	}

	if len(locJSON) > 0 {
		_ = json.Unmarshal(locJSON, &team.Locations)
	}
	if len(codesJSON) > 0 {
		_ = json.Unmarshal(codesJSON, &team.AllowedShiftCodes)
	}
	return team, nil
}
