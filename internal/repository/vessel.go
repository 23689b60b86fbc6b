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

// VesselRepository 船舶仓储
type VesselRepository struct {
	db DB
}

// NewVesselRepository 创建船舶仓储
func NewVesselRepository(db DB) *VesselRepository {
	return &VesselRepository{db: db}
}

// Create 创建船舶
func (r *VesselRepository) Create(ctx context.Context, vessel *model.Vessel) error {
	if vessel.ID == uuid.Nil {
		vessel.ID = uuid.New()
	}
	now := time.Now()
	vessel.CreatedAt = now
	vessel.UpdatedAt = now

	posJSON, err := json.Marshal(vessel.Position)
	if err != nil {
		return fmt.Errorf("序列化position失败: %w", err)
	}

	query := `
		INSERT INTO vessels (id, fleet_id, name, imo, type, flag, status, berths, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.db.ExecContext(ctx, query,
		vessel.ID, vessel.FleetID, vessel.Name, vessel.IMO, vessel.Type, vessel.Flag,
		vessel.Status, vessel.Berths, posJSON, vessel.CreatedAt, vessel.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建船舶失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取船舶
func (r *VesselRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Vessel, error) {
	query := `
		SELECT id, fleet_id, name, imo, type, flag, status, berths, position, created_at, updated_at
		FROM vessels
		WHERE id = $1 AND deleted_at IS NULL
	`

	return r.scanVessel(r.db.QueryRowContext(ctx, query, id))
}

// GetByIMO 根据IMO编号获取船舶
func (r *VesselRepository) GetByIMO(ctx context.Context, imo string) (*model.Vessel, error) {
	query := `
		SELECT id, fleet_id, name, imo, type, flag, status, berths, position, created_at, updated_at
		FROM vessels
		WHERE imo = $1 AND deleted_at IS NULL
	`

	return r.scanVessel(r.db.QueryRowContext(ctx, query, imo))
}

// Update 更新船舶
func (r *VesselRepository) Update(ctx context.Context, vessel *model.Vessel) error {
	vessel.UpdatedAt = time.Now()

	posJSON, err := json.Marshal(vessel.Position)
	if err != nil {
		return fmt.Errorf("序列化position失败: %w", err)
	}

	query := `
		UPDATE vessels
		SET name = $2, imo = $3, type = $4, flag = $5, status = $6, berths = $7, position = $8, updated_at = $9
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		vessel.ID, vessel.Name, vessel.IMO, vessel.Type, vessel.Flag,
		vessel.Status, vessel.Berths, posJSON, vessel.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新船舶失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("船舶不存在")
	}

	return nil
}

// Delete 软删除船舶
func (r *VesselRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE vessels SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除船舶失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("船舶不存在")
	}

	return nil
}

// List 查询船舶列表
func (r *VesselRepository) List(ctx context.Context, filter ListFilter) ([]*model.Vessel, int, error) {
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

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR imo ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	// 船型过滤
	if vtype, ok := filter.Extra["type"].(string); ok && vtype != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIndex))
		args = append(args, vtype)
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	// 查询总数
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM vessels WHERE %s", whereClause)
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
		SELECT id, fleet_id, name, imo, type, flag, status, berths, position, created_at, updated_at
		FROM vessels
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

	var vessels []*model.Vessel
	for rows.Next() {
		vessel, err := r.scanVesselRow(rows)
		if err != nil {
			return nil, 0, err
		}
		vessels = append(vessels, vessel)
	}

	return vessels, total, nil
}

// ListInService 获取船队下所有在役船舶
func (r *VesselRepository) ListInService(ctx context.Context, fleetID uuid.UUID) ([]*model.Vessel, error) {
	filter := DefaultListFilter().WithFleetID(fleetID).WithStatus("in_service").WithLimit(1000)
	vessels, _, err := r.List(ctx, filter)
	return vessels, err
}

// scanVessel 扫描单行船舶数据
func (r *VesselRepository) scanVessel(row *sql.Row) (*model.Vessel, error) {
	vessel := &model.Vessel{}
	var posJSON []byte

	err := row.Scan(
		&vessel.ID, &vessel.FleetID, &vessel.Name, &vessel.IMO, &vessel.Type, &vessel.Flag,
		&vessel.Status, &vessel.Berths, &posJSON, &vessel.CreatedAt, &vessel.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描船舶数据失败: %w", err)
	}

	if len(posJSON) > 0 {
		json.Unmarshal(posJSON, &vessel.Position)
	}

	return vessel, nil
}

// scanVesselRow 扫描Rows中的船舶数据
func (r *VesselRepository) scanVesselRow(rows *sql.Rows) (*model.Vessel, error) {
	vessel := &model.Vessel{}
	var posJSON []byte

	err := rows.Scan(
		&vessel.ID, &vessel.FleetID, &vessel.Name, &vessel.IMO, &vessel.Type, &vessel.Flag,
		&vessel.Status, &vessel.Berths, &posJSON, &vessel.CreatedAt, &vessel.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描船舶数据失败: %w", err)
	}

	if len(posJSON) > 0 {
		json.Unmarshal(posJSON, &vessel.Position)
	}

	return vessel, nil
}

// PortCallRepository 靠港窗口仓储
type PortCallRepository struct {
	db DB
}

// NewPortCallRepository 创建靠港窗口仓储
func NewPortCallRepository(db DB) *PortCallRepository {
	return &PortCallRepository{db: db}
}

// Create 创建靠港窗口
func (r *PortCallRepository) Create(ctx context.Context, w *model.PortCallWindow) error {
	query := `
		INSERT INTO port_call_windows (id, vessel_id, port, start_at, end_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query, uuid.New(), w.VesselID, w.Port, w.Start, w.End, time.Now())
	if err != nil {
		return fmt.Errorf("创建靠港窗口失败: %w", err)
	}

	return nil
}

// ListByVessel 获取船舶的靠港窗口
func (r *PortCallRepository) ListByVessel(ctx context.Context, vesselID uuid.UUID) ([]model.PortCallWindow, error) {
	query := `
		SELECT vessel_id, port, start_at, end_at
		FROM port_call_windows
		WHERE vessel_id = $1
		ORDER BY start_at
	`

	rows, err := r.db.QueryContext(ctx, query, vesselID)
	if err != nil {
		return nil, fmt.Errorf("查询靠港窗口失败: %w", err)
	}
	defer rows.Close()

	var windows []model.PortCallWindow
	for rows.Next() {
		w := model.PortCallWindow{}
		if err := rows.Scan(&w.VesselID, &w.Port, &w.Start, &w.End); err != nil {
			return nil, fmt.Errorf("扫描行失败: %w", err)
		}
		windows = append(windows, w)
	}

	return windows, nil
}

// ListOverlapping 获取与时间范围重叠的靠港窗口
func (r *PortCallRepository) ListOverlapping(ctx context.Context, vesselID uuid.UUID, start, end time.Time) ([]model.PortCallWindow, error) {
	query := `
		SELECT vessel_id, port, start_at, end_at
		FROM port_call_windows
		WHERE vessel_id = $1 AND start_at < $3 AND end_at > $2
		ORDER BY start_at
	`

	rows, err := r.db.QueryContext(ctx, query, vesselID, start, end)
	if err != nil {
		return nil, fmt.Errorf("查询靠港窗口失败: %w", err)
	}
	defer rows.Close()

	var windows []model.PortCallWindow
	for rows.Next() {
		w := model.PortCallWindow{}
		if err := rows.Scan(&w.VesselID, &w.Port, &w.Start, &w.End); err != nil {
			return nil, fmt.Errorf("扫描行失败: %w", err)
		}
		windows = append(windows, w)
	}

	return windows, nil
}

// DrydockRepository 进坞窗口仓储
type DrydockRepository struct {
	db DB
}

// NewDrydockRepository 创建进坞窗口仓储
func NewDrydockRepository(db DB) *DrydockRepository {
	return &DrydockRepository{db: db}
}

// Create 创建进坞窗口
func (r *DrydockRepository) Create(ctx context.Context, w *model.DrydockWindow) error {
	query := `
		INSERT INTO drydock_windows (id, vessel_id, yard, start_at, end_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query, uuid.New(), w.VesselID, w.Yard, w.Start, w.End, time.Now())
	if err != nil {
		return fmt.Errorf("创建进坞窗口失败: %w", err)
	}

	return nil
}

// ListByVessel 获取船舶的进坞窗口
func (r *DrydockRepository) ListByVessel(ctx context.Context, vesselID uuid.UUID) ([]model.DrydockWindow, error) {
	query := `
		SELECT vessel_id, yard, start_at, end_at
		FROM drydock_windows
		WHERE vessel_id = $1
		ORDER BY start_at
	`

	rows, err := r.db.QueryContext(ctx, query, vesselID)
	if err != nil {
		return nil, fmt.Errorf("查询进坞窗口失败: %w", err)
	}
	defer rows.Close()

	var windows []model.DrydockWindow
	for rows.Next() {
		w := model.DrydockWindow{}
		if err := rows.Scan(&w.VesselID, &w.Yard, &w.Start, &w.End); err != nil {
			return nil, fmt.Errorf("扫描行失败: %w", err)
		}
		windows = append(windows, w)
	}

	return windows, nil
}

// ListOverlapping 获取与时间范围重叠的进坞窗口
func (r *DrydockRepository) ListOverlapping(ctx context.Context, vesselID uuid.UUID, start, end time.Time) ([]model.DrydockWindow, error) {
	query := `
		SELECT vessel_id, yard, start_at, end_at
		FROM drydock_windows
		WHERE vessel_id = $1 AND start_at < $3 AND end_at > $2
		ORDER BY start_at
	`

	rows, err := r.db.QueryContext(ctx, query, vesselID, start, end)
	if err != nil {
		return nil, fmt.Errorf("查询进坞窗口失败: %w", err)
	}
	defer rows.Close()

	var windows []model.DrydockWindow
	for rows.Next() {
		w := model.DrydockWindow{}
		if err := rows.Scan(&w.VesselID, &w.Yard, &w.Start, &w.End); err != nil {
			return nil, fmt.Errorf("扫描行失败: %w", err)
		}
		windows = append(windows, w)
	}

	return windows, nil
}
