package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yuanban/yuanban/pkg/model"
)

// ShiftDefinitionRepository 班次目录仓储
type ShiftDefinitionRepository struct {
	db DB
}

// NewShiftDefinitionRepository 创建班次目录仓储
func NewShiftDefinitionRepository(db DB) *ShiftDefinitionRepository {
	return &ShiftDefinitionRepository{db: db}
}

// Create 创建班次定义
func (r *ShiftDefinitionRepository) Create(ctx context.Context, def *model.ShiftDefinition) error {
	rolesJSON, _ := json.Marshal(def.Roles)
	now := time.Now()

	query := `
		INSERT INTO shift_definitions (
			code, description, location, time_slot, roles, color, text_color,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		def.Code, def.Description, def.Location, def.Time, rolesJSON,
		def.Color, def.TextColor, now, now,
	)
	if err != nil {
		return fmt.Errorf("创建班次定义失败: %w", err)
	}
	return nil
}

// GetByCode 根据代码获取班次定义
func (r *ShiftDefinitionRepository) GetByCode(ctx context.Context, code string) (*model.ShiftDefinition, error) {
	query := `
		SELECT code, description, location, time_slot, roles, color, text_color
		FROM shift_definitions
		WHERE code = $1
	`
	return r.scanDefinition(r.db.QueryRowContext(ctx, query, code))
}

// Update 更新班次定义
func (r *ShiftDefinitionRepository) Update(ctx context.Context, def *model.ShiftDefinition) error {
	rolesJSON, _ := json.Marshal(def.Roles)

	query := `
		UPDATE shift_definitions SET
			description = $2, location = $3, time_slot = $4, roles = $5,
			color = $6, text_color = $7, updated_at = $8
		WHERE code = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		def.Code, def.Description, def.Location, def.Time, rolesJSON,
		def.Color, def.TextColor, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("更新班次定义失败: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("班次定义不存在")
	}
	return nil
}

// LoadCatalog 加载完整班次目录
func (r *ShiftDefinitionRepository) LoadCatalog(ctx context.Context) (model.Catalog, error) {
	query := `
		SELECT code, description, location, time_slot, roles, color, text_color
		FROM shift_definitions
		ORDER BY code
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询班次目录失败: %w", err)
	}
	defer rows.Close()

	var defs []*model.ShiftDefinition
	for rows.Next() {
		def, err := r.scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return model.NewCatalog(defs), nil
}

func (r *ShiftDefinitionRepository) scanDefinition(row Scanner) (*model.ShiftDefinition, error) {
	def := &model.ShiftDefinition{}
	var rolesJSON []byte

	err := row.Scan(&def.Code, &def.Description, &def.Location, &def.Time,
		&rolesJSON, &def.Color, &def.TextColor)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("班次定义不存在")
	}
	if err != nil {
		return nil, fmt.Errorf("扫描班次定义失败: %w", err)
	}

	if len(rolesJSON) > 0 {
		_ = json.Unmarshal(rolesJSON, &def.Roles)
	}
	return def, nil
}
