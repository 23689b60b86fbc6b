// Package fleet 提供船队隔离支持
package fleet

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrFleetNotFound = errors.New("船队不存在")
	ErrInvalidFleet  = errors.New("无效的船队")
	ErrFleetDisabled = errors.New("船队已停用")
)

// Fleet 船队
type Fleet struct {
	ID        uuid.UUID     `json:"id"`
	Code      string        `json:"code"`   // 船队编码
	Name      string        `json:"name"`   // 船队名称
	Type      string        `json:"type"`   // owner/manager
	Status    string        `json:"status"` // active/suspended/expired
	Settings  FleetSettings `json:"settings"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiredAt *time.Time    `json:"expired_at,omitempty"`
}

// FleetSettings 船队配置
type FleetSettings struct {
	MaxVessels         int      `json:"max_vessels"`          // 最大船舶数
	MaxCrew            int      `json:"max_crew"`             // 最大船员数
	AllowedVesselTypes []string `json:"allowed_vessel_types"` // 允许的船型
	Features           []string `json:"features"`             // 启用的功能
	APIRateLimit       int      `json:"api_rate_limit"`       // API速率限制
	DataRetention      int      `json:"data_retention_days"`  // 数据保留天数
}

// IsActive 检查船队是否活跃
func (f *Fleet) IsActive() bool {
	if f.Status != "active" {
		return false
	}
	if f.ExpiredAt != nil && f.ExpiredAt.Before(time.Now()) {
		return false
	}
	return true
}

// HasFeature 检查船队是否拥有某功能
func (f *Fleet) HasFeature(feature string) bool {
	for _, v := range f.Settings.Features {
		if v == feature || v == "*" {
			return true
		}
	}
	return false
}

// HasVesselType 检查船队是否允许某船型
func (f *Fleet) HasVesselType(vesselType string) bool {
	for _, v := range f.Settings.AllowedVesselTypes {
		if v == vesselType || v == "*" {
			return true
		}
	}
	return false
}

// Manager 船队管理器
type Manager struct {
	fleets map[string]*Fleet // code -> fleet
	mu     sync.RWMutex
}

// NewManager 创建船队管理器
func NewManager() *Manager {
	return &Manager{
		fleets: make(map[string]*Fleet),
	}
}

// Register 注册船队
func (m *Manager) Register(fleet *Fleet) error {
	if fleet == nil || fleet.Code == "" {
		return ErrInvalidFleet
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.fleets[fleet.Code] = fleet
	return nil
}

// Get 获取船队
func (m *Manager) Get(code string) (*Fleet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fleet, exists := m.fleets[code]
	if !exists {
		return nil, ErrFleetNotFound
	}

	if !fleet.IsActive() {
		return nil, ErrFleetDisabled
	}

	return fleet, nil
}

// GetByID 通过ID获取船队
func (m *Manager) GetByID(id uuid.UUID) (*Fleet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, fleet := range m.fleets {
		if fleet.ID == id {
			if !fleet.IsActive() {
				return nil, ErrFleetDisabled
			}
			return fleet, nil
		}
	}

	return nil, ErrFleetNotFound
}

// List 列出所有船队
func (m *Manager) List() []*Fleet {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Fleet, 0, len(m.fleets))
	for _, f := range m.fleets {
		result = append(result, f)
	}
	return result
}

// Remove 移除船队
func (m *Manager) Remove(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.fleets, code)
}

// fleetContextKey 船队上下文键
type fleetContextKey struct{}

// WithFleet 将船队添加到上下文
func WithFleet(ctx context.Context, fleet *Fleet) context.Context {
	return context.WithValue(ctx, fleetContextKey{}, fleet)
}

// FromContext 从上下文获取船队
func FromContext(ctx context.Context) (*Fleet, bool) {
	fleet, ok := ctx.Value(fleetContextKey{}).(*Fleet)
	return fleet, ok
}

// DefaultFleetSettings 默认船队配置
func DefaultFleetSettings() FleetSettings {
	return FleetSettings{
		MaxVessels:         50,
		MaxCrew:            500,
		AllowedVesselTypes: []string{"cargo", "tanker", "passenger", "offshore"},
		Features:           []string{"plan", "dispatch", "stats"},
		APIRateLimit:       100,
		DataRetention:      365,
	}
}

// CreateDefaultFleet 创建默认船队（开发测试用）
func CreateDefaultFleet() *Fleet {
	return &Fleet{
		ID:        uuid.New(),
		Code:      "default",
		Name:      "默认船队",
		Type:      "owner",
		Status:    "active",
		Settings:  DefaultFleetSettings(),
		CreatedAt: time.Now(),
	}
}
