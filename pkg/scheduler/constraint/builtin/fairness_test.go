package builtin

import (
	"testing"

	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/scheduler/constraint"
)

func TestFairnessRule_EvaluateAssignment(t *testing.T) {
	crewA := &model.CrewMember{BaseModel: model.BaseModel{ID: uuid.New()}, Name: "船员A", Status: "active"}
	crewB := &model.CrewMember{BaseModel: model.BaseModel{ID: uuid.New()}, Name: "船员B", Status: "active"}
	crewC := &model.CrewMember{BaseModel: model.BaseModel{ID: uuid.New()}, Name: "船员C", Status: "active"}

	rule := NewFairnessRule(20)

	t.Run("排班数高于人均时按超出量罚分", func(t *testing.T) {
		ctx := constraint.NewContext(uuid.New(), testWeek)
		ctx.SetCrew([]*model.CrewMember{crewA, crewB, crewC})

		// C 已有3个班，A/B 均为0，人均 1.0
		for i := 0; i < 3; i++ {
			ctx.AddAssignment(dayAssignment(crewC.ID, testWeek[i]))
		}

		// C: max(0, 3-1) * 20 = 40
		if _, penalty := rule.EvaluateAssignment(ctx, dayAssignment(crewC.ID, testWeek[3])); penalty != 40 {
			t.Errorf("C penalty = %d, expected 40", penalty)
		}

		// A: max(0, 0-1) = 0
		if _, penalty := rule.EvaluateAssignment(ctx, dayAssignment(crewA.ID, testWeek[3])); penalty != 0 {
			t.Errorf("A penalty = %d, expected 0", penalty)
		}
	})

	t.Run("空方案无罚分", func(t *testing.T) {
		ctx := constraint.NewContext(uuid.New(), testWeek)
		ctx.SetCrew([]*model.CrewMember{crewA, crewB, crewC})

		if _, penalty := rule.EvaluateAssignment(ctx, dayAssignment(crewA.ID, testWeek[0])); penalty != 0 {
			t.Errorf("penalty = %d, expected 0", penalty)
		}
	})

	t.Run("权重放大罚分", func(t *testing.T) {
		heavy := NewFairnessRule(100)
		ctx := constraint.NewContext(uuid.New(), testWeek)
		ctx.SetCrew([]*model.CrewMember{crewA, crewB})

		ctx.AddAssignment(dayAssignment(crewA.ID, testWeek[0]))
		ctx.AddAssignment(dayAssignment(crewA.ID, testWeek[1]))

		// A: max(0, 2-1) * 100 = 100
		if _, penalty := heavy.EvaluateAssignment(ctx, dayAssignment(crewA.ID, testWeek[2])); penalty != 100 {
			t.Errorf("penalty = %d, expected 100", penalty)
		}
	})
}

func TestFairnessRule_Evaluate(t *testing.T) {
	crewA := &model.CrewMember{BaseModel: model.BaseModel{ID: uuid.New()}, Name: "船员A", Status: "active"}
	crewB := &model.CrewMember{BaseModel: model.BaseModel{ID: uuid.New()}, Name: "船员B", Status: "active"}

	rule := NewFairnessRule(20)

	ctx := constraint.NewContext(uuid.New(), testWeek)
	ctx.SetCrew([]*model.CrewMember{crewA, crewB})
	ctx.AddAssignment(dayAssignment(crewA.ID, testWeek[0]))
	ctx.AddAssignment(dayAssignment(crewA.ID, testWeek[1]))

	// 人均1.0，A 超出1.0 -> 罚分20，B 不罚
	valid, penalty, details := rule.Evaluate(ctx)
	if !valid {
		t.Error("软规则不应影响有效性")
	}
	if penalty != 20 {
		t.Errorf("penalty = %d, expected 20", penalty)
	}
	if len(details) != 1 {
		t.Fatalf("违规详情数 = %d, expected 1", len(details))
	}
	if details[0].CrewID != crewA.ID {
		t.Error("违规详情应指向超载船员")
	}
}
