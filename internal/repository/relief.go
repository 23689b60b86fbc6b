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

// ReliefOrderRepository 换班调派单仓储
type ReliefOrderRepository struct {
	db DB
}

// NewReliefOrderRepository 创建换班调派单仓储
func NewReliefOrderRepository(db DB) *ReliefOrderRepository {
	return &ReliefOrderRepository{db: db}
}

// Create 创建调派单
func (r *ReliefOrderRepository) Create(ctx context.Context, order *model.ReliefOrder) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	if order.Status == "" {
		order.Status = "pending"
	}

	posJSON, _ := json.Marshal(order.Position)
	skillsJSON, _ := json.Marshal(order.Skills)

	query := `
		INSERT INTO relief_orders (
			id, fleet_id, vessel_id, order_no, port, position, relief_date,
			rank, skills, cert, off_signer_id, crew_id, status, priority, notes,
			assigned_at, completed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err := r.db.ExecContext(ctx, query,
		order.ID, order.FleetID, order.VesselID, order.OrderNo, order.Port, posJSON, order.ReliefDate,
		order.Rank, skillsJSON, order.Cert, order.OffSignerID, order.CrewID, order.Status,
		order.Priority, order.Notes, order.AssignedAt, order.CompletedAt, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建调派单失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取调派单
func (r *ReliefOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ReliefOrder, error) {
	query := `
		SELECT id, fleet_id, vessel_id, order_no, port, position, relief_date,
			rank, skills, cert, off_signer_id, crew_id, status, priority, notes,
			assigned_at, completed_at, created_at, updated_at
		FROM relief_orders
		WHERE id = $1 AND deleted_at IS NULL
	`

	return r.scanOrder(r.db.QueryRowContext(ctx, query, id))
}

// GetByOrderNo 根据单号获取调派单
func (r *ReliefOrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*model.ReliefOrder, error) {
	query := `
		SELECT id, fleet_id, vessel_id, order_no, port, position, relief_date,
			rank, skills, cert, off_signer_id, crew_id, status, priority, notes,
			assigned_at, completed_at, created_at, updated_at
		FROM relief_orders
		WHERE order_no = $1 AND deleted_at IS NULL
	`

	return r.scanOrder(r.db.QueryRowContext(ctx, query, orderNo))
}

// Assign 指派接班船员
func (r *ReliefOrderRepository) Assign(ctx context.Context, id, crewID uuid.UUID) error {
	now := time.Now()
	query := `
		UPDATE relief_orders
		SET crew_id = $2, status = 'assigned', assigned_at = $3, updated_at = $3
		WHERE id = $1 AND status = 'pending' AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id, crewID, now)
	if err != nil {
		return fmt.Errorf("指派调派单失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("调派单不存在或已指派")
	}

	return nil
}

// UpdateStatus 更新调派单状态
// 切换到completed时记录完成时间
func (r *ReliefOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	now := time.Now()

	var query string
	if status == "completed" {
		query = `UPDATE relief_orders SET status = $2, completed_at = $3, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`
	} else {
		query = `UPDATE relief_orders SET status = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`
	}

	result, err := r.db.ExecContext(ctx, query, id, status, now)
	if err != nil {
		return fmt.Errorf("更新调派单状态失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("调派单不存在")
	}

	return nil
}

// Delete 软删除调派单
func (r *ReliefOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE relief_orders SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除调派单失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("调派单不存在")
	}

	return nil
}

// List 查询调派单列表
func (r *ReliefOrderRepository) List(ctx context.Context, filter ListFilter) ([]*model.ReliefOrder, int, error) {
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
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(order_no ILIKE $%d OR port ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	if filter.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("relief_date >= $%d", argIndex))
		args = append(args, filter.StartDate)
		argIndex++
	}

	if filter.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("relief_date <= $%d", argIndex))
		args = append(args, filter.EndDate)
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	// 查询总数
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM relief_orders WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	// 查询列表
	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "priority"
	}
	orderDir := filter.OrderDir
	if orderDir == "" {
		orderDir = "desc"
	}

	query := fmt.Sprintf(`
		SELECT id, fleet_id, vessel_id, order_no, port, position, relief_date,
			rank, skills, cert, off_signer_id, crew_id, status, priority, notes,
			assigned_at, completed_at, created_at, updated_at
		FROM relief_orders
		WHERE %s
		ORDER BY %s %s, relief_date ASC
		LIMIT $%d OFFSET $%d
	`, whereClause, orderBy, orderDir, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var orders []*model.ReliefOrder
	for rows.Next() {
		order, err := r.scanOrderFromRows(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}

	return orders, total, nil
}

// ListPending 获取船队待派的调派单
func (r *ReliefOrderRepository) ListPending(ctx context.Context, fleetID uuid.UUID) ([]*model.ReliefOrder, error) {
	filter := DefaultListFilter().WithFleetID(fleetID).WithStatus("pending").WithLimit(1000)
	orders, _, err := r.List(ctx, filter)
	return orders, err
}

// ListOpenByCrew 获取船员名下未完结的调派单
func (r *ReliefOrderRepository) ListOpenByCrew(ctx context.Context, crewID uuid.UUID) ([]*model.ReliefOrder, error) {
	query := `
		SELECT id, fleet_id, vessel_id, order_no, port, position, relief_date,
			rank, skills, cert, off_signer_id, crew_id, status, priority, notes,
			assigned_at, completed_at, created_at, updated_at
		FROM relief_orders
		WHERE crew_id = $1 AND status IN ('pending', 'assigned') AND deleted_at IS NULL
		ORDER BY relief_date
	`

	rows, err := r.db.QueryContext(ctx, query, crewID)
	if err != nil {
		return nil, fmt.Errorf("查询调派单失败: %w", err)
	}
	defer rows.Close()

	var orders []*model.ReliefOrder
	for rows.Next() {
		order, err := r.scanOrderFromRows(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, nil
}

// scanOrder 扫描单行调派单数据
func (r *ReliefOrderRepository) scanOrder(row *sql.Row) (*model.ReliefOrder, error) {
	order := &model.ReliefOrder{}
	var posJSON, skillsJSON []byte

	err := row.Scan(
		&order.ID, &order.FleetID, &order.VesselID, &order.OrderNo, &order.Port, &posJSON, &order.ReliefDate,
		&order.Rank, &skillsJSON, &order.Cert, &order.OffSignerID, &order.CrewID, &order.Status,
		&order.Priority, &order.Notes, &order.AssignedAt, &order.CompletedAt, &order.CreatedAt, &order.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描调派单数据失败: %w", err)
	}

	if len(posJSON) > 0 {
		json.Unmarshal(posJSON, &order.Position)
	}
	json.Unmarshal(skillsJSON, &order.Skills)

	return order, nil
}

// scanOrderFromRows 扫描Rows中的调派单数据
func (r *ReliefOrderRepository) scanOrderFromRows(rows *sql.Rows) (*model.ReliefOrder, error) {
	order := &model.ReliefOrder{}
	var posJSON, skillsJSON []byte

	err := rows.Scan(
		&order.ID, &order.FleetID, &order.VesselID, &order.OrderNo, &order.Port, &posJSON, &order.ReliefDate,
		&order.Rank, &skillsJSON, &order.Cert, &order.OffSignerID, &order.CrewID, &order.Status,
		&order.Priority, &order.Notes, &order.AssignedAt, &order.CompletedAt, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描调派单数据失败: %w", err)
	}

	if len(posJSON) > 0 {
		json.Unmarshal(posJSON, &order.Position)
	}
	json.Unmarshal(skillsJSON, &order.Skills)

	return order, nil
}

// HistoryRepository 船员-船舶服务历史仓储
type HistoryRepository struct {
	db DB
}

// NewHistoryRepository 创建服务历史仓储
func NewHistoryRepository(db DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// RecordService 累计一次服务履历
// 已有记录时累加趟次与天数，否则插入新记录
func (r *HistoryRepository) RecordService(ctx context.Context, h *model.CrewVesselHistory) error {
	query := `
		INSERT INTO crew_vessel_history (crew_id, vessel_id, service_count, total_days, last_served_at, is_regular)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (crew_id, vessel_id) DO UPDATE SET
			service_count = crew_vessel_history.service_count + EXCLUDED.service_count,
			total_days = crew_vessel_history.total_days + EXCLUDED.total_days,
			last_served_at = EXCLUDED.last_served_at,
			is_regular = EXCLUDED.is_regular OR crew_vessel_history.is_regular
	`

	_, err := r.db.ExecContext(ctx, query,
		h.CrewID, h.VesselID, h.ServiceCount, h.TotalDays, h.LastServedAt, h.IsRegular,
	)
	if err != nil {
		return fmt.Errorf("记录服务履历失败: %w", err)
	}

	return nil
}

// ListByVessel 获取船舶的全部服务履历
func (r *HistoryRepository) ListByVessel(ctx context.Context, vesselID uuid.UUID) ([]model.CrewVesselHistory, error) {
	query := `
		SELECT crew_id, vessel_id, service_count, total_days, last_served_at, is_regular
		FROM crew_vessel_history
		WHERE vessel_id = $1
		ORDER BY total_days DESC
	`

	rows, err := r.db.QueryContext(ctx, query, vesselID)
	if err != nil {
		return nil, fmt.Errorf("查询服务履历失败: %w", err)
	}
	defer rows.Close()

	var history []model.CrewVesselHistory
	for rows.Next() {
		h := model.CrewVesselHistory{}
		if err := rows.Scan(&h.CrewID, &h.VesselID, &h.ServiceCount, &h.TotalDays, &h.LastServedAt, &h.IsRegular); err != nil {
			return nil, fmt.Errorf("扫描行失败: %w", err)
		}
		history = append(history, h)
	}

	return history, nil
}

// ListByCrew 获取船员的全部服务履历
func (r *HistoryRepository) ListByCrew(ctx context.Context, crewID uuid.UUID) ([]model.CrewVesselHistory, error) {
	query := `
		SELECT crew_id, vessel_id, service_count, total_days, last_served_at, is_regular
		FROM crew_vessel_history
		WHERE crew_id = $1
		ORDER BY last_served_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, crewID)
	if err != nil {
		return nil, fmt.Errorf("查询服务履历失败: %w", err)
	}
	defer rows.Close()

	var history []model.CrewVesselHistory
	for rows.Next() {
		h := model.CrewVesselHistory{}
		if err := rows.Scan(&h.CrewID, &h.VesselID, &h.ServiceCount, &h.TotalDays, &h.LastServedAt, &h.IsRegular); err != nil {
			return nil, fmt.Errorf("扫描行失败: %w", err)
		}
		history = append(history, h)
	}

	return history, nil
}
