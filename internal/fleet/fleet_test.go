package fleet

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestFleet_IsActive(t *testing.T) {
	now := time.Now()
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name     string
		fleet    *Fleet
		expected bool
	}{
		{
			name:     "活跃船队",
			fleet:    &Fleet{Status: "active"},
			expected: true,
		},
		{
			name:     "暂停船队",
			fleet:    &Fleet{Status: "suspended"},
			expected: false,
		},
		{
			name:     "未过期船队",
			fleet:    &Fleet{Status: "active", ExpiredAt: &future},
			expected: true,
		},
		{
			name:     "已过期船队",
			fleet:    &Fleet{Status: "active", ExpiredAt: &past},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.fleet.IsActive(); result != tt.expected {
				t.Errorf("IsActive() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestFleet_HasFeature(t *testing.T) {
	fleet := &Fleet{
		Settings: FleetSettings{
			Features: []string{"plan", "dispatch"},
		},
	}

	if !fleet.HasFeature("plan") {
		t.Error("应有plan功能")
	}
	if !fleet.HasFeature("dispatch") {
		t.Error("应有dispatch功能")
	}
	if fleet.HasFeature("stats") {
		t.Error("不应有stats功能")
	}

	// 测试通配符
	fleet2 := &Fleet{
		Settings: FleetSettings{
			Features: []string{"*"},
		},
	}
	if !fleet2.HasFeature("anything") {
		t.Error("通配符应匹配任何功能")
	}
}

func TestFleet_HasVesselType(t *testing.T) {
	fleet := &Fleet{
		Settings: FleetSettings{
			AllowedVesselTypes: []string{"cargo", "tanker"},
		},
	}

	if !fleet.HasVesselType("cargo") {
		t.Error("应允许cargo船型")
	}
	if fleet.HasVesselType("passenger") {
		t.Error("不应允许passenger船型")
	}
}

func TestManager_RegisterAndGet(t *testing.T) {
	manager := NewManager()

	fleet := &Fleet{
		ID:     uuid.New(),
		Code:   "test",
		Name:   "测试船队",
		Status: "active",
	}

	// 注册
	err := manager.Register(fleet)
	if err != nil {
		t.Errorf("Register failed: %v", err)
	}

	// 获取
	got, err := manager.Get("test")
	if err != nil {
		t.Errorf("Get failed: %v", err)
	}
	if got.Code != "test" {
		t.Errorf("Got wrong fleet: %v", got)
	}

	// 获取不存在的
	_, err = manager.Get("nonexistent")
	if err != ErrFleetNotFound {
		t.Errorf("Expected ErrFleetNotFound, got: %v", err)
	}
}

func TestManager_GetByID(t *testing.T) {
	manager := NewManager()
	id := uuid.New()

	fleet := &Fleet{
		ID:     id,
		Code:   "test",
		Status: "active",
	}
	manager.Register(fleet)

	got, err := manager.GetByID(id)
	if err != nil {
		t.Errorf("GetByID failed: %v", err)
	}
	if got.ID != id {
		t.Errorf("Got wrong fleet")
	}
}

func TestFleetContext(t *testing.T) {
	fleet := &Fleet{Code: "test"}
	ctx := WithFleet(context.Background(), fleet)

	got, ok := FromContext(ctx)
	if !ok {
		t.Error("FromContext should return true")
	}
	if got.Code != "test" {
		t.Error("Got wrong fleet from context")
	}

	// 空上下文
	_, ok = FromContext(context.Background())
	if ok {
		t.Error("Empty context should return false")
	}
}

func TestDefaultFleetSettings(t *testing.T) {
	settings := DefaultFleetSettings()

	if settings.MaxVessels != 50 {
		t.Errorf("Expected MaxVessels=50, got %d", settings.MaxVessels)
	}
	if len(settings.AllowedVesselTypes) != 4 {
		t.Errorf("Expected 4 vessel types, got %d", len(settings.AllowedVesselTypes))
	}
}

func TestCreateDefaultFleet(t *testing.T) {
	fleet := CreateDefaultFleet()

	if fleet.Code != "default" {
		t.Errorf("Expected code='default', got %s", fleet.Code)
	}
	if fleet.Status != "active" {
		t.Errorf("Expected status='active', got %s", fleet.Status)
	}
}
