package constraint

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/model"
)

var testDays = []string{"2026-01-11", "2026-01-12", "2026-01-13", "2026-01-14", "2026-01-15", "2026-01-16", "2026-01-17"}

func TestManager_Register(t *testing.T) {
	manager := NewManager()

	c := &MockRule{
		name:     "test",
		typ:      Type("test_type"),
		category: CategoryHard,
	}
	manager.Register(c)

	constraints := manager.GetAll()
	if len(constraints) != 1 {
		t.Errorf("Expected 1 constraint, got %d", len(constraints))
	}
}

func TestManager_GetByCategory(t *testing.T) {
	manager := NewManager()

	hard := &MockRule{name: "hard1", typ: Type("hard1"), category: CategoryHard}
	soft := &MockRule{name: "soft1", typ: Type("soft1"), category: CategorySoft}
	manager.Register(hard)
	manager.Register(soft)

	hardConstraints := manager.GetByCategory(CategoryHard)
	if len(hardConstraints) != 1 {
		t.Errorf("Expected 1 hard constraint, got %d", len(hardConstraints))
	}

	softConstraints := manager.GetByCategory(CategorySoft)
	if len(softConstraints) != 1 {
		t.Errorf("Expected 1 soft constraint, got %d", len(softConstraints))
	}
}

func TestManager_Evaluate(t *testing.T) {
	manager := NewManager()

	// 注册一个通过的规则
	pass := &MockRule{
		name:     "pass",
		typ:      Type("pass_type"),
		category: CategoryHard,
		pass:     true,
	}
	manager.Register(pass)

	ctx := NewContext(uuid.New(), testDays)

	result := manager.Evaluate(ctx)

	if result.TotalPenalty != 0 {
		t.Errorf("Expected 0 penalty, got %d", result.TotalPenalty)
	}
}

func TestManager_CanAssign(t *testing.T) {
	manager := NewManager()
	ctx := NewContext(uuid.New(), testDays)
	a := &model.Assignment{Date: "2026-01-11", CrewID: uuid.New()}

	t.Run("硬规则全部通过", func(t *testing.T) {
		manager.Clear()
		manager.Register(&MockRule{name: "h1", typ: Type("h1"), category: CategoryHard, pass: true})
		manager.Register(&MockRule{name: "s1", typ: Type("s1"), category: CategorySoft, pass: true, penalty: 30})

		ok, reason := manager.CanAssign(ctx, a)
		if !ok {
			t.Errorf("应允许分配, reason=%s", reason)
		}
	})

	t.Run("任一硬规则不通过即拒绝", func(t *testing.T) {
		manager.Clear()
		manager.Register(&MockRule{name: "h1", typ: Type("h1"), category: CategoryHard, pass: true})
		manager.Register(&MockRule{name: "h2", typ: Type("h2"), category: CategoryHard, pass: false})

		ok, reason := manager.CanAssign(ctx, a)
		if ok {
			t.Error("应拒绝分配")
		}
		if reason == "" {
			t.Error("拒绝时应给出原因")
		}
	})

	t.Run("软规则不影响准入", func(t *testing.T) {
		manager.Clear()
		manager.Register(&MockRule{name: "s1", typ: Type("s1"), category: CategorySoft, pass: false, penalty: 50})

		if ok, _ := manager.CanAssign(ctx, a); !ok {
			t.Error("软规则不应拒绝分配")
		}
	})
}

func TestManager_GetPenalty(t *testing.T) {
	manager := NewManager()
	ctx := NewContext(uuid.New(), testDays)
	a := &model.Assignment{Date: "2026-01-11", CrewID: uuid.New()}

	manager.Register(&MockRule{name: "s1", typ: Type("s1"), category: CategorySoft, pass: true, penalty: 30})
	manager.Register(&MockRule{name: "s2", typ: Type("s2"), category: CategorySoft, pass: true, penalty: 12})
	// 硬规则罚分不计入评分
	manager.Register(&MockRule{name: "h1", typ: Type("h1"), category: CategoryHard, pass: true, penalty: 999})

	if penalty := manager.GetPenalty(ctx, a); penalty != 42 {
		t.Errorf("penalty = %d, expected 42", penalty)
	}
}

func TestManager_Clear(t *testing.T) {
	manager := NewManager()

	manager.Register(&MockRule{name: "test", typ: Type("test"), category: CategoryHard})
	manager.Clear()

	if len(manager.GetAll()) != 0 {
		t.Error("Expected 0 constraints after clear")
	}
}

func TestManager_Count(t *testing.T) {
	manager := NewManager()

	if manager.Count() != 0 {
		t.Error("Expected 0 count for empty manager")
	}

	manager.Register(&MockRule{name: "c1", typ: Type("c1"), category: CategoryHard})
	manager.Register(&MockRule{name: "c2", typ: Type("c2"), category: CategorySoft})

	if manager.Count() != 2 {
		t.Errorf("Expected 2 count, got %d", manager.Count())
	}
}

func TestContext_Counters(t *testing.T) {
	crewID := uuid.New()
	ctx := NewContext(uuid.New(), testDays)
	ctx.SetCrew([]*model.CrewMember{
		{BaseModel: model.BaseModel{ID: crewID}, Name: "王澜", Status: "active"},
	})

	night := &model.Assignment{
		Date:      "2026-01-11",
		CrewID:    crewID,
		StartTime: time.Date(2026, 1, 11, 22, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 1, 12, 6, 0, 0, 0, time.UTC),
	}
	day := &model.Assignment{
		Date:      "2026-01-12",
		CrewID:    crewID,
		StartTime: time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 1, 12, 16, 0, 0, 0, time.UTC),
	}

	ctx.AddAssignment(night)
	ctx.AddAssignment(day)

	if got := ctx.AssignmentCount(crewID); got != 2 {
		t.Errorf("AssignmentCount = %d, expected 2", got)
	}
	if got := ctx.NightCount(crewID); got != 1 {
		t.Errorf("NightCount = %d, expected 1", got)
	}
	if !ctx.HasAssignmentOn(crewID, "2026-01-11") {
		t.Error("2026-01-11 应已有排班")
	}
	if !ctx.WorkedNightOn(crewID, "2026-01-11") {
		t.Error("2026-01-11 应记为夜班")
	}
	if ctx.WorkedNightOn(crewID, "2026-01-12") {
		t.Error("2026-01-12 不应记为夜班")
	}

	ctx.RemoveAssignment(crewID, "2026-01-11", night.ShiftID)
	if got := ctx.AssignmentCount(crewID); got != 1 {
		t.Errorf("移除后 AssignmentCount = %d, expected 1", got)
	}
	if got := ctx.NightCount(crewID); got != 0 {
		t.Errorf("移除后 NightCount = %d, expected 0", got)
	}
}

func TestContext_CertificationsFor(t *testing.T) {
	crewID := uuid.New()
	ctx := NewContext(uuid.New(), testDays)
	ctx.SetCrew([]*model.CrewMember{
		{
			BaseModel: model.BaseModel{ID: crewID},
			Name:      "王澜",
			Status:    "active",
			Certifications: []model.Certification{
				{Code: "STCW-VI/1", Expiry: "2026-06-30"},
			},
		},
	})
	ctx.SetCertifications(map[uuid.UUID][]model.Certification{
		crewID: {{Code: "GMDSS", Expiry: "2026-12-31"}},
	})

	certs := ctx.CertificationsFor(crewID)
	if len(certs) != 2 {
		t.Fatalf("证书数 = %d, expected 2（档案+补充）", len(certs))
	}
	if !model.HasValidCertification(certs, "STCW-VI/1", "2026-01-11") {
		t.Error("档案证书应参与检查")
	}
	if !model.HasValidCertification(certs, "GMDSS", "2026-01-11") {
		t.Error("补充证书应参与检查")
	}
}

func TestContext_AverageAssignments(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	ctx := NewContext(uuid.New(), testDays)
	ctx.SetCrew([]*model.CrewMember{
		{BaseModel: model.BaseModel{ID: a}, Name: "A"},
		{BaseModel: model.BaseModel{ID: b}, Name: "B"},
	})

	if avg := ctx.AverageAssignments(); avg != 0 {
		t.Errorf("avg = %v, expected 0", avg)
	}

	ctx.AddAssignment(&model.Assignment{Date: "2026-01-11", CrewID: a})
	ctx.AddAssignment(&model.Assignment{Date: "2026-01-12", CrewID: a})
	ctx.AddAssignment(&model.Assignment{Date: "2026-01-11", CrewID: b})

	if avg := ctx.AverageAssignments(); avg != 1.5 {
		t.Errorf("avg = %v, expected 1.5", avg)
	}
}

// MockRule 用于测试的模拟规则
type MockRule struct {
	name     string
	typ      Type
	category Category
	weight   int
	pass     bool
	penalty  int
}

func (m *MockRule) Name() string       { return m.name }
func (m *MockRule) Type() Type         { return m.typ }
func (m *MockRule) Category() Category { return m.category }
func (m *MockRule) Weight() int {
	if m.weight == 0 {
		return 100
	}
	return m.weight
}

func (m *MockRule) Evaluate(ctx *Context) (bool, int, []ViolationDetail) {
	if m.pass {
		return true, 0, nil
	}
	return false, m.penalty, []ViolationDetail{
		{ConstraintName: m.name, Message: "违反规则", Penalty: m.penalty},
	}
}

func (m *MockRule) EvaluateAssignment(ctx *Context, assignment *model.Assignment) (bool, int) {
	return m.pass, m.penalty
}
