// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/model"
)

// ShiftRepository 班次模板仓储
type ShiftRepository struct {
	db DB
}

// NewShiftRepository 创建班次模板仓储
func NewShiftRepository(db DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// Create 创建班次模板
func (r *ShiftRepository) Create(ctx context.Context, shift *model.ShiftTemplate) error {
	if shift.ID == uuid.Nil {
		shift.ID = uuid.New()
	}
	now := time.Now()
	shift.CreatedAt = now
	shift.UpdatedAt = now

	query := `
		INSERT INTO shift_templates (
			id, fleet_id, vessel_id, name, code, role, start_time, end_time,
			needed, skill, cert, min_rank, description, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.ExecContext(ctx, query,
		shift.ID, shift.FleetID, shift.VesselID, shift.Name, shift.Code, shift.Role,
		shift.StartTime, shift.EndTime, shift.Needed, shift.Skill, shift.Cert,
		shift.MinRank, shift.Description, shift.IsActive, shift.CreatedAt, shift.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建班次模板失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取班次模板
func (r *ShiftRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ShiftTemplate, error) {
	query := `
		SELECT id, fleet_id, vessel_id, name, code, role, start_time, end_time,
			needed, skill, cert, min_rank, description, is_active, created_at, updated_at
		FROM shift_templates
		WHERE id = $1 AND deleted_at IS NULL
	`

	shift := &model.ShiftTemplate{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&shift.ID, &shift.FleetID, &shift.VesselID, &shift.Name, &shift.Code, &shift.Role,
		&shift.StartTime, &shift.EndTime, &shift.Needed, &shift.Skill, &shift.Cert,
		&shift.MinRank, &shift.Description, &shift.IsActive, &shift.CreatedAt, &shift.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询班次模板失败: %w", err)
	}

	return shift, nil
}

// Update 更新班次模板
func (r *ShiftRepository) Update(ctx context.Context, shift *model.ShiftTemplate) error {
	shift.UpdatedAt = time.Now()

	query := `
		UPDATE shift_templates SET
			name = $2, code = $3, role = $4, start_time = $5, end_time = $6,
			needed = $7, skill = $8, cert = $9, min_rank = $10, description = $11,
			is_active = $12, updated_at = $13
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		shift.ID, shift.Name, shift.Code, shift.Role, shift.StartTime, shift.EndTime,
		shift.Needed, shift.Skill, shift.Cert, shift.MinRank, shift.Description,
		shift.IsActive, shift.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新班次模板失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("班次模板不存在")
	}

	return nil
}

// Delete 软删除班次模板
func (r *ShiftRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE shift_templates SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除班次模板失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("班次模板不存在")
	}

	return nil
}

// List 查询班次模板列表
func (r *ShiftRepository) List(ctx context.Context, filter ListFilter) ([]*model.ShiftTemplate, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if filter.FleetID != nil {
		conditions = append(conditions, fmt.Sprintf("fleet_id = $%d", argIndex))
		args = append(args, *filter.FleetID)
		argIndex++
	}

	if filter.VesselID != nil {
		conditions = append(conditions, fmt.Sprintf("vessel_id = $%d", argIndex))
		args = append(args, *filter.VesselID)
		argIndex++
	}

	if filter.Status != "" {
		isActive := filter.Status == "active"
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIndex))
		args = append(args, isActive)
		argIndex++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	// 查询总数
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM shift_templates WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	// 查询列表
	query := fmt.Sprintf(`
		SELECT id, fleet_id, vessel_id, name, code, role, start_time, end_time,
			needed, skill, cert, min_rank, description, is_active, created_at, updated_at
		FROM shift_templates
		WHERE %s
		ORDER BY start_time ASC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var shifts []*model.ShiftTemplate
	for rows.Next() {
		shift := &model.ShiftTemplate{}
		if err := rows.Scan(
			&shift.ID, &shift.FleetID, &shift.VesselID, &shift.Name, &shift.Code, &shift.Role,
			&shift.StartTime, &shift.EndTime, &shift.Needed, &shift.Skill, &shift.Cert,
			&shift.MinRank, &shift.Description, &shift.IsActive, &shift.CreatedAt, &shift.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("扫描行失败: %w", err)
		}
		shifts = append(shifts, shift)
	}

	return shifts, total, nil
}

// ListActive 获取船队下所有启用的班次模板
func (r *ShiftRepository) ListActive(ctx context.Context, fleetID uuid.UUID) ([]*model.ShiftTemplate, error) {
	filter := DefaultListFilter().WithFleetID(fleetID).WithStatus("active").WithLimit(100)
	shifts, _, err := r.List(ctx, filter)
	return shifts, err
}

// ListByVessel 获取船舶的启用班次模板
func (r *ShiftRepository) ListByVessel(ctx context.Context, vesselID uuid.UUID) ([]*model.ShiftTemplate, error) {
	filter := DefaultListFilter().WithVesselID(vesselID).WithStatus("active").WithLimit(100)
	shifts, _, err := r.List(ctx, filter)
	return shifts, err
}
