// Package repository 提供数据访问层
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

// PlanRepositoryInterface 排班计划仓储接口
type PlanRepositoryInterface interface {
	// 计划操作
	Create(ctx context.Context, plan *model.Plan) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Plan, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) ([]*model.Plan, int, error)

	// 分配与缺员明细操作
	CreateAssignments(ctx context.Context, planID uuid.UUID, assignments []model.Assignment) error
	GetAssignments(ctx context.Context, planID uuid.UUID) ([]model.Assignment, error)
	GetAssignmentsByCrew(ctx context.Context, crewID uuid.UUID, startDate, endDate string) ([]model.Assignment, error)
	CreateUnfilled(ctx context.Context, planID uuid.UUID, unfilled []model.UnfilledShift) error
	GetUnfilled(ctx context.Context, planID uuid.UUID) ([]model.UnfilledShift, error)

	// 查询统计
	GetLatest(ctx context.Context, fleetID uuid.UUID) (*model.Plan, error)
	CountByDateRange(ctx context.Context, fleetID uuid.UUID, startDate, endDate string) (int, error)
}

// PlanRepository 排班计划仓储实现
type PlanRepository struct {
	db DB
}

// NewPlanRepository 创建排班计划仓储
func NewPlanRepository(db DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create 创建排班计划
func (r *PlanRepository) Create(ctx context.Context, plan *model.Plan) error {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	now := time.Now()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	if plan.Status == "" {
		plan.Status = "draft"
	}
	if plan.Version == 0 {
		plan.Version = 1
	}

	statsJSON, _ := json.Marshal(plan.Statistics)

	query := `
		INSERT INTO plans (
			id, fleet_id, name, start_date, end_date, engine, status, version,
			created_by, published_at, statistics, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		plan.ID, plan.FleetID, plan.Name, plan.StartDate, plan.EndDate, plan.Engine,
		plan.Status, plan.Version, plan.CreatedBy, plan.PublishedAt, statsJSON,
		plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建排班计划失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取排班计划
func (r *PlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Plan, error) {
	query := `
		SELECT id, fleet_id, name, start_date, end_date, engine, status, version,
			created_by, published_at, statistics, created_at, updated_at
		FROM plans
		WHERE id = $1 AND deleted_at IS NULL
	`

	return r.scanPlan(r.db.QueryRowContext(ctx, query, id))
}

// UpdateStatus 更新计划状态
// 切换到published时记录发布时间
func (r *PlanRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	now := time.Now()

	var query string
	var args []interface{}
	if status == "published" {
		query = `UPDATE plans SET status = $2, published_at = $3, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`
		args = []interface{}{id, status, now}
	} else {
		query = `UPDATE plans SET status = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`
		args = []interface{}{id, status, now}
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("更新计划状态失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("排班计划不存在")
	}

	return nil
}

// Delete 删除排班计划
func (r *PlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// 先删除明细
	if _, err := r.db.ExecContext(ctx, "DELETE FROM plan_assignments WHERE plan_id = $1", id); err != nil {
		return fmt.Errorf("删除排班分配失败: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM plan_unfilled WHERE plan_id = $1", id); err != nil {
		return fmt.Errorf("删除缺员明细失败: %w", err)
	}

	// 再删除计划
	if _, err := r.db.ExecContext(ctx, "DELETE FROM plans WHERE id = $1", id); err != nil {
		return fmt.Errorf("删除排班计划失败: %w", err)
	}

	return nil
}

// List 查询排班计划列表
func (r *PlanRepository) List(ctx context.Context, filter ListFilter) ([]*model.Plan, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if filter.FleetID != nil {
		conditions = append(conditions, fmt.Sprintf("fleet_id = $%d", argIndex))
		args = append(args, *filter.FleetID)
		argIndex++
	}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}

	if filter.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("start_date >= $%d", argIndex))
		args = append(args, filter.StartDate)
		argIndex++
	}

	if filter.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("end_date <= $%d", argIndex))
		args = append(args, filter.EndDate)
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	// 查询总数
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM plans WHERE %s", whereClause)
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
		SELECT id, fleet_id, name, start_date, end_date, engine, status, version,
			created_by, published_at, statistics, created_at, updated_at
		FROM plans
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

	var plans []*model.Plan
	for rows.Next() {
		plan, err := r.scanPlanFromRows(rows)
		if err != nil {
			return nil, 0, err
		}
		plans = append(plans, plan)
	}

	return plans, total, nil
}

// CreateAssignments 批量写入排班分配
func (r *PlanRepository) CreateAssignments(ctx context.Context, planID uuid.UUID, assignments []model.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}

	var values []string
	var args []interface{}
	argIndex := 1

	now := time.Now()
	for _, a := range assignments {
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			argIndex, argIndex+1, argIndex+2, argIndex+3, argIndex+4,
			argIndex+5, argIndex+6, argIndex+7, argIndex+8, argIndex+9,
		))
		args = append(args,
			uuid.New(), planID, a.Date, a.ShiftID, a.CrewID,
			a.VesselID, a.Role, a.StartTime, a.EndTime, now,
		)
		argIndex += 10
	}

	query := fmt.Sprintf(`
		INSERT INTO plan_assignments (
			id, plan_id, date, shift_id, crew_id, vessel_id, role, start_time, end_time, created_at
		) VALUES %s
	`, strings.Join(values, ", "))

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("批量写入排班分配失败: %w", err)
	}

	return nil
}

// GetAssignments 获取计划的所有排班分配
func (r *PlanRepository) GetAssignments(ctx context.Context, planID uuid.UUID) ([]model.Assignment, error) {
	query := `
		SELECT date, shift_id, crew_id, vessel_id, role, start_time, end_time
		FROM plan_assignments
		WHERE plan_id = $1
		ORDER BY date, start_time, shift_id
	`

	rows, err := r.db.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("查询排班分配失败: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		a := model.Assignment{}
		if err := rows.Scan(&a.Date, &a.ShiftID, &a.CrewID, &a.VesselID, &a.Role, &a.StartTime, &a.EndTime); err != nil {
			return nil, fmt.Errorf("扫描行失败: %w", err)
		}
		assignments = append(assignments, a)
	}

	return assignments, nil
}

// GetAssignmentsByCrew 获取船员在日期范围内的排班分配
func (r *PlanRepository) GetAssignmentsByCrew(ctx context.Context, crewID uuid.UUID, startDate, endDate string) ([]model.Assignment, error) {
	query := `
		SELECT date, shift_id, crew_id, vessel_id, role, start_time, end_time
		FROM plan_assignments
		WHERE crew_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, start_time
	`

	rows, err := r.db.QueryContext(ctx, query, crewID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("查询排班分配失败: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		a := model.Assignment{}
		if err := rows.Scan(&a.Date, &a.ShiftID, &a.CrewID, &a.VesselID, &a.Role, &a.StartTime, &a.EndTime); err != nil {
			return nil, fmt.Errorf("扫描行失败: %w", err)
		}
		assignments = append(assignments, a)
	}

	return assignments, nil
}

// CreateUnfilled 批量写入缺员明细
func (r *PlanRepository) CreateUnfilled(ctx context.Context, planID uuid.UUID, unfilled []model.UnfilledShift) error {
	if len(unfilled) == 0 {
		return nil
	}

	var values []string
	var args []interface{}
	argIndex := 1

	now := time.Now()
	for _, u := range unfilled {
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			argIndex, argIndex+1, argIndex+2, argIndex+3, argIndex+4, argIndex+5, argIndex+6,
		))
		args = append(args, uuid.New(), planID, u.Day, u.ShiftID, u.Need, u.Reason, now)
		argIndex += 7
	}

	query := fmt.Sprintf(`
		INSERT INTO plan_unfilled (id, plan_id, day, shift_id, need, reason, created_at)
		VALUES %s
	`, strings.Join(values, ", "))

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("批量写入缺员明细失败: %w", err)
	}

	return nil
}

// GetUnfilled 获取计划的缺员明细
func (r *PlanRepository) GetUnfilled(ctx context.Context, planID uuid.UUID) ([]model.UnfilledShift, error) {
	query := `
		SELECT day, shift_id, need, reason
		FROM plan_unfilled
		WHERE plan_id = $1
		ORDER BY day, shift_id
	`

	rows, err := r.db.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("查询缺员明细失败: %w", err)
	}
	defer rows.Close()

	var unfilled []model.UnfilledShift
	for rows.Next() {
		u := model.UnfilledShift{}
		if err := rows.Scan(&u.Day, &u.ShiftID, &u.Need, &u.Reason); err != nil {
			return nil, fmt.Errorf("扫描行失败: %w", err)
		}
		unfilled = append(unfilled, u)
	}

	return unfilled, nil
}

// GetLatest 获取船队最近一次生成的计划
func (r *PlanRepository) GetLatest(ctx context.Context, fleetID uuid.UUID) (*model.Plan, error) {
	query := `
		SELECT id, fleet_id, name, start_date, end_date, engine, status, version,
			created_by, published_at, statistics, created_at, updated_at
		FROM plans
		WHERE fleet_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1
	`

	return r.scanPlan(r.db.QueryRowContext(ctx, query, fleetID))
}

// CountByDateRange 统计日期范围内的计划数
func (r *PlanRepository) CountByDateRange(ctx context.Context, fleetID uuid.UUID, startDate, endDate string) (int, error) {
	query := `
		SELECT COUNT(*) FROM plans
		WHERE fleet_id = $1 AND start_date >= $2 AND end_date <= $3 AND deleted_at IS NULL
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, fleetID, startDate, endDate).Scan(&count); err != nil {
		return 0, fmt.Errorf("统计计划数量失败: %w", err)
	}
	return count, nil
}

// scanPlan 扫描单行计划数据
func (r *PlanRepository) scanPlan(row *sql.Row) (*model.Plan, error) {
	plan := &model.Plan{}
	var statsJSON []byte

	err := row.Scan(
		&plan.ID, &plan.FleetID, &plan.Name, &plan.StartDate, &plan.EndDate, &plan.Engine,
		&plan.Status, &plan.Version, &plan.CreatedBy, &plan.PublishedAt, &statsJSON,
		&plan.CreatedAt, &plan.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描计划数据失败: %w", err)
	}

	if len(statsJSON) > 0 {
		json.Unmarshal(statsJSON, &plan.Statistics)
	}

	return plan, nil
}

// scanPlanFromRows 扫描Rows中的计划数据
func (r *PlanRepository) scanPlanFromRows(rows *sql.Rows) (*model.Plan, error) {
	plan := &model.Plan{}
	var statsJSON []byte

	err := rows.Scan(
		&plan.ID, &plan.FleetID, &plan.Name, &plan.StartDate, &plan.EndDate, &plan.Engine,
		&plan.Status, &plan.Version, &plan.CreatedBy, &plan.PublishedAt, &statsJSON,
		&plan.CreatedAt, &plan.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描计划数据失败: %w", err)
	}

	if len(statsJSON) > 0 {
		json.Unmarshal(statsJSON, &plan.Statistics)
	}

	return plan, nil
}
