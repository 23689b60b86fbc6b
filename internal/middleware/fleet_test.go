package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/crewplan/crewplan/internal/fleet"
)

func newTestManager(t *testing.T) *fleet.Manager {
	t.Helper()
	manager := fleet.NewManager()
	manager.Register(&fleet.Fleet{
		ID:     uuid.New(),
		Code:   "east-china",
		Name:   "华东船队",
		Status: "active",
		Settings: fleet.FleetSettings{
			Features: []string{"plan", "stats"},
		},
	})
	manager.Register(&fleet.Fleet{
		ID:     uuid.New(),
		Code:   "laid-up",
		Status: "suspended",
	})
	return manager
}

func TestFleetMiddleware(t *testing.T) {
	manager := newTestManager(t)
	mw := FleetMiddleware(&FleetConfig{Manager: manager, SkipPaths: []string{"/health"}})

	var gotFleet *fleet.Fleet
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFleet, _ = fleet.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("携带有效编码", func(t *testing.T) {
		gotFleet = nil
		req := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
		req.Header.Set(FleetHeader, "east-china")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		if gotFleet == nil || gotFleet.Code != "east-china" {
			t.Errorf("Expected fleet east-china in context, got %v", gotFleet)
		}
		if rec.Header().Get("X-Fleet-ID") == "" {
			t.Error("Expected X-Fleet-ID response header")
		}
	})

	t.Run("未携带编码直接放行", func(t *testing.T) {
		gotFleet = nil
		req := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		if gotFleet != nil {
			t.Errorf("Expected no fleet in context, got %v", gotFleet)
		}
	})

	t.Run("未知编码拒绝", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
		req.Header.Set(FleetHeader, "nonexistent")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("Expected 403, got %d", rec.Code)
		}
	})

	t.Run("停用船队拒绝", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
		req.Header.Set(FleetHeader, "laid-up")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("Expected 403, got %d", rec.Code)
		}
	})

	t.Run("跳过路径", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(FleetHeader, "nonexistent")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200 for skipped path, got %d", rec.Code)
		}
	})
}

func TestRequireFeature(t *testing.T) {
	manager := newTestManager(t)
	chain := FleetMiddleware(&FleetConfig{Manager: manager})(
		RequireFeature("dispatch")(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}),
		),
	)

	t.Run("功能未启用拒绝", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/relief/single", nil)
		req.Header.Set(FleetHeader, "east-china")
		rec := httptest.NewRecorder()

		chain.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("Expected 403, got %d", rec.Code)
		}
	})

	t.Run("无船队上下文放行", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/relief/single", nil)
		rec := httptest.NewRecorder()

		chain.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rec.Code)
		}
	})
}
