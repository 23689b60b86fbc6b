package model

import (
	"time"

	"github.com/google/uuid"
)

// ReliefOrder 换班调派单
// 在指定港口为船舶补充一名接班船员
type ReliefOrder struct {
	BaseModel
	FleetID     uuid.UUID  `json:"fleet_id" db:"fleet_id"`
	VesselID    uuid.UUID  `json:"vessel_id" db:"vessel_id"`
	OrderNo     string     `json:"order_no" db:"order_no"`
	Port        string     `json:"port" db:"port"` // 换班港口代码
	Position    *Location  `json:"position,omitempty" db:"position"`
	ReliefDate  string     `json:"relief_date" db:"relief_date"` // YYYY-MM-DD
	Rank        string     `json:"rank,omitempty" db:"rank"`     // 接班职级要求
	Skills      []string   `json:"skills,omitempty" db:"skills"`
	Cert        string     `json:"cert,omitempty" db:"cert"` // 必备证书代码
	OffSignerID *uuid.UUID `json:"off_signer_id,omitempty" db:"off_signer_id"`
	CrewID      *uuid.UUID `json:"crew_id,omitempty" db:"crew_id"` // 已指派的接班船员
	Status      string     `json:"status" db:"status"`             // pending/assigned/completed/cancelled
	Priority    int        `json:"priority" db:"priority"`
	Notes       string     `json:"notes,omitempty" db:"notes"`
	AssignedAt  *time.Time `json:"assigned_at,omitempty" db:"assigned_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// ReliefMatch 调派匹配结果
type ReliefMatch struct {
	OrderID       uuid.UUID         `json:"order_id"`
	CrewID        uuid.UUID         `json:"crew_id"`
	CrewName      string            `json:"crew_name"`
	Score         float64           `json:"score"`
	Distance      float64           `json:"distance_km"`
	MatchedSkills []string          `json:"matched_skills,omitempty"`
	MatchReasons  []string          `json:"match_reasons"`
	Conflicts     []string          `json:"conflicts,omitempty"`
	Alternatives  []AlternativeCrew `json:"alternatives,omitempty"`
}

// AlternativeCrew 备选船员
type AlternativeCrew struct {
	CrewID   uuid.UUID `json:"crew_id"`
	CrewName string    `json:"crew_name"`
	Score    float64   `json:"score"`
	Reason   string    `json:"reason"`
}

// CrewVesselHistory 船员-船舶服务历史
type CrewVesselHistory struct {
	CrewID       uuid.UUID `json:"crew_id" db:"crew_id"`
	VesselID     uuid.UUID `json:"vessel_id" db:"vessel_id"`
	ServiceCount int       `json:"service_count" db:"service_count"`
	TotalDays    int       `json:"total_days" db:"total_days"`
	LastServedAt time.Time `json:"last_served_at" db:"last_served_at"`
	IsRegular    bool      `json:"is_regular" db:"is_regular"` // 常驻班底
}

// IsAssigned 检查调派单是否已指派
func (o *ReliefOrder) IsAssigned() bool {
	return o.CrewID != nil && o.Status != "pending"
}

// NeedsDispatch 检查调派单是否待派
func (o *ReliefOrder) NeedsDispatch() bool {
	return o.Status == "pending" && o.CrewID == nil
}
