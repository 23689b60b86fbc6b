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

// CrewRepository 船员仓储
type CrewRepository struct {
	db DB
}

// NewCrewRepository 创建船员仓储
func NewCrewRepository(db DB) *CrewRepository {
	return &CrewRepository{db: db}
}

// Create 创建船员
func (r *CrewRepository) Create(ctx context.Context, crew *model.CrewMember) error {
	if crew.ID == uuid.Nil {
		crew.ID = uuid.New()
	}
	now := time.Now()
	crew.CreatedAt = now
	crew.UpdatedAt = now

	skillsJSON, _ := json.Marshal(crew.Skills)
	certsJSON, _ := json.Marshal(crew.Certifications)
	prefsJSON, _ := json.Marshal(crew.Preferences)
	locJSON, _ := json.Marshal(crew.HomeLocation)
	vesselsJSON, _ := json.Marshal(crew.ServedVessels)

	query := `
		INSERT INTO crew_members (
			id, fleet_id, name, code, phone, email, status, rank, hire_date,
			skills, certifications, preferences, home_location, served_vessels,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.ExecContext(ctx, query,
		crew.ID, crew.FleetID, crew.Name, crew.Code, crew.Phone, crew.Email, crew.Status, crew.Rank, crew.HireDate,
		skillsJSON, certsJSON, prefsJSON, locJSON, vesselsJSON,
		crew.CreatedAt, crew.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建船员失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取船员
func (r *CrewRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.CrewMember, error) {
	query := `
		SELECT id, fleet_id, name, code, phone, email, status, rank, hire_date,
			skills, certifications, preferences, home_location, served_vessels,
			created_at, updated_at
		FROM crew_members
		WHERE id = $1 AND deleted_at IS NULL
	`

	return r.scanCrew(r.db.QueryRowContext(ctx, query, id))
}

// GetByCode 根据船队和船员编号获取船员
func (r *CrewRepository) GetByCode(ctx context.Context, fleetID uuid.UUID, code string) (*model.CrewMember, error) {
	query := `
		SELECT id, fleet_id, name, code, phone, email, status, rank, hire_date,
			skills, certifications, preferences, home_location, served_vessels,
			created_at, updated_at
		FROM crew_members
		WHERE fleet_id = $1 AND code = $2 AND deleted_at IS NULL
	`

	return r.scanCrew(r.db.QueryRowContext(ctx, query, fleetID, code))
}

// Update 更新船员
func (r *CrewRepository) Update(ctx context.Context, crew *model.CrewMember) error {
	crew.UpdatedAt = time.Now()

	skillsJSON, _ := json.Marshal(crew.Skills)
	certsJSON, _ := json.Marshal(crew.Certifications)
	prefsJSON, _ := json.Marshal(crew.Preferences)
	locJSON, _ := json.Marshal(crew.HomeLocation)
	vesselsJSON, _ := json.Marshal(crew.ServedVessels)

	query := `
		UPDATE crew_members SET
			name = $2, code = $3, phone = $4, email = $5, status = $6, rank = $7,
			skills = $8, certifications = $9, preferences = $10,
			home_location = $11, served_vessels = $12, updated_at = $13
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		crew.ID, crew.Name, crew.Code, crew.Phone, crew.Email, crew.Status, crew.Rank,
		skillsJSON, certsJSON, prefsJSON, locJSON, vesselsJSON, crew.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新船员失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("船员不存在")
	}

	return nil
}

// Delete 软删除船员
func (r *CrewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE crew_members SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除船员失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("船员不存在")
	}

	return nil
}

// List 查询船员列表
func (r *CrewRepository) List(ctx context.Context, filter ListFilter) ([]*model.CrewMember, int, error) {
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
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d OR phone ILIKE $%d)", argIndex, argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	// 职级过滤
	if rank, ok := filter.Extra["rank"].(string); ok && rank != "" {
		conditions = append(conditions, fmt.Sprintf("rank = $%d", argIndex))
		args = append(args, rank)
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	// 查询总数
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM crew_members WHERE %s", whereClause)
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
		SELECT id, fleet_id, name, code, phone, email, status, rank, hire_date,
			skills, certifications, preferences, home_location, served_vessels,
			created_at, updated_at
		FROM crew_members
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

	var members []*model.CrewMember
	for rows.Next() {
		crew, err := r.scanCrewRow(rows)
		if err != nil {
			return nil, 0, err
		}
		members = append(members, crew)
	}

	return members, total, nil
}

// ListByIDs 根据ID列表获取船员
func (r *CrewRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.CrewMember, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, fleet_id, name, code, phone, email, status, rank, hire_date,
			skills, certifications, preferences, home_location, served_vessels,
			created_at, updated_at
		FROM crew_members
		WHERE id IN (%s) AND deleted_at IS NULL
	`, strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询船员失败: %w", err)
	}
	defer rows.Close()

	var members []*model.CrewMember
	for rows.Next() {
		crew, err := r.scanCrewRow(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, crew)
	}

	return members, nil
}

// ListActive 获取船队下所有在册船员
func (r *CrewRepository) ListActive(ctx context.Context, fleetID uuid.UUID) ([]*model.CrewMember, error) {
	filter := DefaultListFilter().WithFleetID(fleetID).WithStatus("active").WithLimit(10000)
	members, _, err := r.List(ctx, filter)
	return members, err
}

// scanCrew 扫描单行船员数据
func (r *CrewRepository) scanCrew(row *sql.Row) (*model.CrewMember, error) {
	crew := &model.CrewMember{}
	var skillsJSON, certsJSON, prefsJSON, locJSON, vesselsJSON []byte

	err := row.Scan(
		&crew.ID, &crew.FleetID, &crew.Name, &crew.Code, &crew.Phone, &crew.Email, &crew.Status, &crew.Rank, &crew.HireDate,
		&skillsJSON, &certsJSON, &prefsJSON, &locJSON, &vesselsJSON,
		&crew.CreatedAt, &crew.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描船员数据失败: %w", err)
	}

	json.Unmarshal(skillsJSON, &crew.Skills)
	json.Unmarshal(certsJSON, &crew.Certifications)
	json.Unmarshal(prefsJSON, &crew.Preferences)
	json.Unmarshal(locJSON, &crew.HomeLocation)
	json.Unmarshal(vesselsJSON, &crew.ServedVessels)

	return crew, nil
}

// scanCrewRow 扫描Rows中的船员数据
func (r *CrewRepository) scanCrewRow(rows *sql.Rows) (*model.CrewMember, error) {
	crew := &model.CrewMember{}
	var skillsJSON, certsJSON, prefsJSON, locJSON, vesselsJSON []byte

	err := rows.Scan(
		&crew.ID, &crew.FleetID, &crew.Name, &crew.Code, &crew.Phone, &crew.Email, &crew.Status, &crew.Rank, &crew.HireDate,
		&skillsJSON, &certsJSON, &prefsJSON, &locJSON, &vesselsJSON,
		&crew.CreatedAt, &crew.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描船员数据失败: %w", err)
	}

	json.Unmarshal(skillsJSON, &crew.Skills)
	json.Unmarshal(certsJSON, &crew.Certifications)
	json.Unmarshal(prefsJSON, &crew.Preferences)
	json.Unmarshal(locJSON, &crew.HomeLocation)
	json.Unmarshal(vesselsJSON, &crew.ServedVessels)

	return crew, nil
}
