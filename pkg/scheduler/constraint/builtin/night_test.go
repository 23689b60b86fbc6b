package builtin

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/scheduler/constraint"
)

var testWeek = []string{
	"2026-01-11", "2026-01-12", "2026-01-13", "2026-01-14",
	"2026-01-15", "2026-01-16", "2026-01-17",
}

// nightAssignment 构造一个 22:00-06:00 的夜班分配
func nightAssignment(crewID uuid.UUID, date string) *model.Assignment {
	d, _ := time.ParseInLocation("2006-01-02", date, time.UTC)
	start := time.Date(d.Year(), d.Month(), d.Day(), 22, 0, 0, 0, time.UTC)
	return &model.Assignment{
		Date:      date,
		ShiftID:   uuid.New(),
		CrewID:    crewID,
		VesselID:  uuid.New(),
		StartTime: start,
		EndTime:   start.Add(8 * time.Hour),
	}
}

// dayAssignment 构造一个 08:00-16:00 的日班分配
func dayAssignment(crewID uuid.UUID, date string) *model.Assignment {
	d, _ := time.ParseInLocation("2006-01-02", date, time.UTC)
	start := time.Date(d.Year(), d.Month(), d.Day(), 8, 0, 0, 0, time.UTC)
	return &model.Assignment{
		Date:      date,
		ShiftID:   uuid.New(),
		CrewID:    crewID,
		VesselID:  uuid.New(),
		StartTime: start,
		EndTime:   start.Add(8 * time.Hour),
	}
}

func TestNightCapRule_EvaluateAssignment(t *testing.T) {
	crewID := uuid.New()
	crew := []*model.CrewMember{
		{BaseModel: model.BaseModel{ID: crewID}, Name: "张海", Status: "active"},
	}

	t.Run("夜班数达到上限后不再参与夜班", func(t *testing.T) {
		ctx := constraint.NewContext(uuid.New(), testWeek)
		ctx.SetCrew(crew)

		// 先排满默认上限的4个夜班
		for i := 0; i < 4; i++ {
			ctx.AddAssignment(nightAssignment(crewID, testWeek[i]))
		}

		rule := NewNightCapRule()
		valid, penalty := rule.EvaluateAssignment(ctx, nightAssignment(crewID, testWeek[4]))
		if valid {
			t.Error("第5个夜班应被拒绝")
		}
		if penalty != rule.Weight() {
			t.Errorf("penalty = %d, expected %d", penalty, rule.Weight())
		}
	})

	t.Run("未达上限时允许夜班", func(t *testing.T) {
		ctx := constraint.NewContext(uuid.New(), testWeek)
		ctx.SetCrew(crew)

		for i := 0; i < 3; i++ {
			ctx.AddAssignment(nightAssignment(crewID, testWeek[i]))
		}

		rule := NewNightCapRule()
		if valid, _ := rule.EvaluateAssignment(ctx, nightAssignment(crewID, testWeek[3])); !valid {
			t.Error("第4个夜班应被允许")
		}
	})

	t.Run("日班不受夜班上限影响", func(t *testing.T) {
		ctx := constraint.NewContext(uuid.New(), testWeek)
		ctx.SetCrew(crew)

		for i := 0; i < 4; i++ {
			ctx.AddAssignment(nightAssignment(crewID, testWeek[i]))
		}

		rule := NewNightCapRule()
		if valid, _ := rule.EvaluateAssignment(ctx, dayAssignment(crewID, testWeek[4])); !valid {
			t.Error("日班应被允许")
		}
	})

	t.Run("自定义上限生效", func(t *testing.T) {
		ctx := constraint.NewContext(uuid.New(), testWeek)
		ctx.SetCrew(crew)
		ctx.SetPreferences(&model.SchedulingPreferences{MaxNightsPerWeek: 2})

		ctx.AddAssignment(nightAssignment(crewID, testWeek[0]))
		ctx.AddAssignment(nightAssignment(crewID, testWeek[1]))

		rule := NewNightCapRule()
		if valid, _ := rule.EvaluateAssignment(ctx, nightAssignment(crewID, testWeek[2])); valid {
			t.Error("超过自定义上限2时应被拒绝")
		}
	})
}

func TestNightOverageRule_EvaluateAssignment(t *testing.T) {
	crewID := uuid.New()
	crew := []*model.CrewMember{
		{BaseModel: model.BaseModel{ID: crewID}, Name: "张海", Status: "active"},
	}

	rule := NewNightOverageRule(10)

	t.Run("未达上限无罚分", func(t *testing.T) {
		ctx := constraint.NewContext(uuid.New(), testWeek)
		ctx.SetCrew(crew)
		ctx.AddAssignment(nightAssignment(crewID, testWeek[0]))

		if _, penalty := rule.EvaluateAssignment(ctx, nightAssignment(crewID, testWeek[1])); penalty != 0 {
			t.Errorf("penalty = %d, expected 0", penalty)
		}
	})

	t.Run("达到上限时按超额档位罚分", func(t *testing.T) {
		ctx := constraint.NewContext(uuid.New(), testWeek)
		ctx.SetCrew(crew)
		for i := 0; i < 4; i++ {
			ctx.AddAssignment(nightAssignment(crewID, testWeek[i]))
		}

		// nights=4, max=4 -> (4-4+1)*10 = 10
		if _, penalty := rule.EvaluateAssignment(ctx, nightAssignment(crewID, testWeek[4])); penalty != 10 {
			t.Errorf("penalty = %d, expected 10", penalty)
		}
	})

	t.Run("超出上限越多罚分越高", func(t *testing.T) {
		ctx := constraint.NewContext(uuid.New(), testWeek)
		ctx.SetCrew(crew)
		for i := 0; i < 5; i++ {
			ctx.AddAssignment(nightAssignment(crewID, testWeek[i]))
		}

		// nights=5, max=4 -> (5-4+1)*10 = 20
		if _, penalty := rule.EvaluateAssignment(ctx, nightAssignment(crewID, testWeek[5])); penalty != 20 {
			t.Errorf("penalty = %d, expected 20", penalty)
		}
	})

	t.Run("日班不罚分", func(t *testing.T) {
		ctx := constraint.NewContext(uuid.New(), testWeek)
		ctx.SetCrew(crew)
		for i := 0; i < 4; i++ {
			ctx.AddAssignment(nightAssignment(crewID, testWeek[i]))
		}

		if _, penalty := rule.EvaluateAssignment(ctx, dayAssignment(crewID, testWeek[4])); penalty != 0 {
			t.Errorf("penalty = %d, expected 0", penalty)
		}
	})
}

func TestConsecutiveNightRule_EvaluateAssignment(t *testing.T) {
	crewID := uuid.New()
	crew := []*model.CrewMember{
		{BaseModel: model.BaseModel{ID: crewID}, Name: "张海", Status: "active"},
	}

	rule := NewConsecutiveNightRule(8)

	t.Run("前一日值夜班后排班罚分", func(t *testing.T) {
		ctx := constraint.NewContext(uuid.New(), testWeek)
		ctx.SetCrew(crew)
		ctx.AddAssignment(nightAssignment(crewID, "2026-01-11"))

		if _, penalty := rule.EvaluateAssignment(ctx, dayAssignment(crewID, "2026-01-12")); penalty != 8 {
			t.Errorf("penalty = %d, expected 8", penalty)
		}
	})

	t.Run("前一日为日班不罚分", func(t *testing.T) {
		ctx := constraint.NewContext(uuid.New(), testWeek)
		ctx.SetCrew(crew)
		ctx.AddAssignment(dayAssignment(crewID, "2026-01-11"))

		if _, penalty := rule.EvaluateAssignment(ctx, nightAssignment(crewID, "2026-01-12")); penalty != 0 {
			t.Errorf("penalty = %d, expected 0", penalty)
		}
	})

	t.Run("隔日夜班不罚分", func(t *testing.T) {
		ctx := constraint.NewContext(uuid.New(), testWeek)
		ctx.SetCrew(crew)
		ctx.AddAssignment(nightAssignment(crewID, "2026-01-11"))

		if _, penalty := rule.EvaluateAssignment(ctx, nightAssignment(crewID, "2026-01-13")); penalty != 0 {
			t.Errorf("penalty = %d, expected 0", penalty)
		}
	})
}
