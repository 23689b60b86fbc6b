package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/model"
)

// RuleConfigRepositoryInterface 规则配置仓储接口
type RuleConfigRepositoryInterface interface {
	Create(ctx context.Context, config *model.RuleConfig) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.RuleConfig, error)
	Update(ctx context.Context, config *model.RuleConfig) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) ([]*model.RuleConfig, int, error)

	// 生效配置操作
	GetActiveByFleet(ctx context.Context, fleetID uuid.UUID) (*model.RuleConfig, error)
	Activate(ctx context.Context, id uuid.UUID) error
	ResolvePreferences(ctx context.Context, fleetID uuid.UUID) (*model.SchedulingPreferences, error)
}

// RuleConfigRepository 规则配置仓储实现
// 权重与阈值覆盖项存放在 preferences JSON 列中
type RuleConfigRepository struct {
	db DB
}

// NewRuleConfigRepository 创建规则配置仓储
func NewRuleConfigRepository(db DB) *RuleConfigRepository {
	return &RuleConfigRepository{db: db}
}

// Create 创建规则配置
func (r *RuleConfigRepository) Create(ctx context.Context, config *model.RuleConfig) error {
	if config.ID == uuid.Nil {
		config.ID = uuid.New()
	}
	now := time.Now()
	config.CreatedAt = now
	config.UpdatedAt = now

	prefsJSON, _ := json.Marshal(config.Preferences)

	query := `
		INSERT INTO rule_configs (
			id, fleet_id, name, description, active, preferences, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		config.ID, config.FleetID, config.Name, config.Description,
		config.Active, prefsJSON, config.CreatedAt, config.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建规则配置失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取规则配置
func (r *RuleConfigRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.RuleConfig, error) {
	query := `
		SELECT id, fleet_id, name, description, active, preferences, created_at, updated_at
		FROM rule_configs
		WHERE id = $1 AND deleted_at IS NULL
	`

	return r.scanRuleConfig(r.db.QueryRowContext(ctx, query, id))
}

// Update 更新规则配置
func (r *RuleConfigRepository) Update(ctx context.Context, config *model.RuleConfig) error {
	config.UpdatedAt = time.Now()

	prefsJSON, _ := json.Marshal(config.Preferences)

	query := `
		UPDATE rule_configs SET
			name = $2, description = $3, active = $4, preferences = $5, updated_at = $6
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		config.ID, config.Name, config.Description, config.Active, prefsJSON, config.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新规则配置失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("规则配置不存在")
	}

	return nil
}

// Delete 软删除规则配置
func (r *RuleConfigRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE rule_configs SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除规则配置失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("规则配置不存在")
	}

	return nil
}

// List 查询规则配置列表
func (r *RuleConfigRepository) List(ctx context.Context, filter ListFilter) ([]*model.RuleConfig, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if filter.FleetID != nil {
		conditions = append(conditions, fmt.Sprintf("fleet_id = $%d", argIndex))
		args = append(args, *filter.FleetID)
		argIndex++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	// 查询总数
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM rule_configs WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	// 查询列表
	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	orderDir := filter.OrderDir
	if orderDir == "" {
		orderDir = "desc"
	}

	query := fmt.Sprintf(`
		SELECT id, fleet_id, name, description, active, preferences, created_at, updated_at
		FROM rule_configs
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, orderBy, orderDir, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var configs []*model.RuleConfig
	for rows.Next() {
		config, err := r.scanRuleConfigFromRows(rows)
		if err != nil {
			return nil, 0, err
		}
		configs = append(configs, config)
	}

	return configs, total, nil
}

// GetActiveByFleet 获取船队当前生效的规则配置
func (r *RuleConfigRepository) GetActiveByFleet(ctx context.Context, fleetID uuid.UUID) (*model.RuleConfig, error) {
	query := `
		SELECT id, fleet_id, name, description, active, preferences, created_at, updated_at
		FROM rule_configs
		WHERE fleet_id = $1 AND active = TRUE AND deleted_at IS NULL
		ORDER BY updated_at DESC
		LIMIT 1
	`

	return r.scanRuleConfig(r.db.QueryRowContext(ctx, query, fleetID))
}

// Activate 激活规则配置并停用同船队其他配置
func (r *RuleConfigRepository) Activate(ctx context.Context, id uuid.UUID) error {
	config, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if config == nil {
		return fmt.Errorf("规则配置不存在")
	}

	now := time.Now()

	// 停用同船队其他配置
	deactivate := `
		UPDATE rule_configs SET active = FALSE, updated_at = $2
		WHERE fleet_id = $1 AND active = TRUE AND deleted_at IS NULL
	`
	if _, err := r.db.ExecContext(ctx, deactivate, config.FleetID, now); err != nil {
		return fmt.Errorf("停用旧规则配置失败: %w", err)
	}

	activate := `UPDATE rule_configs SET active = TRUE, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	if _, err := r.db.ExecContext(ctx, activate, id, now); err != nil {
		return fmt.Errorf("激活规则配置失败: %w", err)
	}

	return nil
}

// ResolvePreferences 解析船队生效的排班偏好
// 无生效配置时返回默认偏好
func (r *RuleConfigRepository) ResolvePreferences(ctx context.Context, fleetID uuid.UUID) (*model.SchedulingPreferences, error) {
	config, err := r.GetActiveByFleet(ctx, fleetID)
	if err != nil {
		return nil, err
	}
	if config == nil || config.Preferences == nil {
		return model.DefaultPreferences(), nil
	}
	return config.Preferences, nil
}

// scanRuleConfig 扫描单行规则配置数据
func (r *RuleConfigRepository) scanRuleConfig(row *sql.Row) (*model.RuleConfig, error) {
	config := &model.RuleConfig{}
	var prefsJSON []byte

	err := row.Scan(
		&config.ID, &config.FleetID, &config.Name, &config.Description,
		&config.Active, &prefsJSON, &config.CreatedAt, &config.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描规则配置数据失败: %w", err)
	}

	if len(prefsJSON) > 0 {
		json.Unmarshal(prefsJSON, &config.Preferences)
	}

	return config, nil
}

// scanRuleConfigFromRows 扫描Rows中的规则配置数据
func (r *RuleConfigRepository) scanRuleConfigFromRows(rows *sql.Rows) (*model.RuleConfig, error) {
	config := &model.RuleConfig{}
	var prefsJSON []byte

	err := rows.Scan(
		&config.ID, &config.FleetID, &config.Name, &config.Description,
		&config.Active, &prefsJSON, &config.CreatedAt, &config.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描规则配置数据失败: %w", err)
	}

	if len(prefsJSON) > 0 {
		json.Unmarshal(prefsJSON, &config.Preferences)
	}

	return config, nil
}
