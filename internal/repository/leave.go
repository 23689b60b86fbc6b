// Package repository 提供数据访问层
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/model"
)

// LeaveRepository 休假记录仓储
type LeaveRepository struct {
	db DB
}

// NewLeaveRepository 创建休假记录仓储
func NewLeaveRepository(db DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// Create 创建休假记录
func (r *LeaveRepository) Create(ctx context.Context, leave *model.LeaveRecord) error {
	query := `
		INSERT INTO leave_records (id, crew_id, start_at, end_at, type, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		uuid.New(), leave.CrewID, leave.Start, leave.End, leave.Type, leave.Reason, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("创建休假记录失败: %w", err)
	}

	return nil
}

// ListByCrew 获取船员的休假记录
func (r *LeaveRepository) ListByCrew(ctx context.Context, crewID uuid.UUID) ([]model.LeaveRecord, error) {
	query := `
		SELECT crew_id, start_at, end_at, type, reason
		FROM leave_records
		WHERE crew_id = $1
		ORDER BY start_at
	`

	rows, err := r.db.QueryContext(ctx, query, crewID)
	if err != nil {
		return nil, fmt.Errorf("查询休假记录失败: %w", err)
	}
	defer rows.Close()

	var leaves []model.LeaveRecord
	for rows.Next() {
		l := model.LeaveRecord{}
		if err := rows.Scan(&l.CrewID, &l.Start, &l.End, &l.Type, &l.Reason); err != nil {
			return nil, fmt.Errorf("扫描行失败: %w", err)
		}
		leaves = append(leaves, l)
	}

	return leaves, nil
}

// ListByCrewIDs 获取一批船员与时间范围重叠的休假记录
func (r *LeaveRepository) ListByCrewIDs(ctx context.Context, crewIDs []uuid.UUID, start, end time.Time) ([]model.LeaveRecord, error) {
	if len(crewIDs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(crewIDs))
	args := make([]interface{}, 0, len(crewIDs)+2)
	for i, id := range crewIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args = append(args, id)
	}
	args = append(args, start, end)

	query := fmt.Sprintf(`
		SELECT crew_id, start_at, end_at, type, reason
		FROM leave_records
		WHERE crew_id IN (%s) AND start_at < $%d AND end_at > $%d
		ORDER BY crew_id, start_at
	`, strings.Join(placeholders, ","), len(crewIDs)+2, len(crewIDs)+1)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询休假记录失败: %w", err)
	}
	defer rows.Close()

	var leaves []model.LeaveRecord
	for rows.Next() {
		l := model.LeaveRecord{}
		if err := rows.Scan(&l.CrewID, &l.Start, &l.End, &l.Type, &l.Reason); err != nil {
			return nil, fmt.Errorf("扫描行失败: %w", err)
		}
		leaves = append(leaves, l)
	}

	return leaves, nil
}

// DeleteByCrew 删除船员的全部休假记录
func (r *LeaveRepository) DeleteByCrew(ctx context.Context, crewID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM leave_records WHERE crew_id = $1", crewID)
	if err != nil {
		return fmt.Errorf("删除休假记录失败: %w", err)
	}
	return nil
}
