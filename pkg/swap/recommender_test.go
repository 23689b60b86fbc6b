package swap

import (
	"testing"

	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/scheduler/constraint"
)

func TestRecommender_RecommendSwapTargets(t *testing.T) {
	zhang := newSailor("张海")
	li := newSailor("李航")
	wang := newSailor("王澜")
	watch := newWatch("甲板值班", "08:00", "16:00")
	source := newRow(t, watch, "2026-01-12", zhang.ID)

	ctx := constraint.NewContext(uuid.New(), swapDays)
	ctx.SetCrew([]*model.CrewMember{zhang, li, wang})
	ctx.SetShifts([]*model.ShiftTemplate{watch})
	ctx.SetAssignments([]*model.Assignment{source})

	recommender := NewRecommender(newManager())

	t.Run("默认推荐", func(t *testing.T) {
		recommendations := recommender.RecommendSwapTargets(ctx, source, nil)

		if len(recommendations) != 2 {
			t.Fatalf("Expected 2 candidates, got %d", len(recommendations))
		}
		for i, rec := range recommendations {
			if rec.Rank != i+1 {
				t.Errorf("Rank should be %d, got %d", i+1, rec.Rank)
			}
			if rec.SwapType != "take_over" {
				t.Errorf("Expected take_over, got %s", rec.SwapType)
			}
			if rec.TargetCrew.ID == zhang.ID {
				t.Error("Source crew should be excluded")
			}
		}
	})

	t.Run("优先船员加分", func(t *testing.T) {
		recommendations := recommender.RecommendSwapTargets(ctx, source, &RecommendOptions{
			MaxRecommendations: 5,
			PreferredCrew:      []uuid.UUID{wang.ID},
			MinScore:           60,
		})

		if len(recommendations) == 0 {
			t.Fatal("Expected candidates")
		}
		if recommendations[0].TargetCrew.ID != wang.ID {
			t.Errorf("Preferred crew should rank first, got %s", recommendations[0].TargetCrew.Name)
		}
	})

	t.Run("排除名单", func(t *testing.T) {
		recommendations := recommender.RecommendSwapTargets(ctx, source, &RecommendOptions{
			MaxRecommendations: 5,
			ExcludeCrew:        []uuid.UUID{li.ID},
			MinScore:           60,
		})

		for _, rec := range recommendations {
			if rec.TargetCrew.ID == li.ID {
				t.Error("Excluded crew should not appear")
			}
		}
	})

	t.Run("数量上限", func(t *testing.T) {
		recommendations := recommender.RecommendSwapTargets(ctx, source, &RecommendOptions{
			MaxRecommendations: 1,
			MinScore:           60,
		})

		if len(recommendations) > 1 {
			t.Errorf("Expected at most 1 candidate, got %d", len(recommendations))
		}
	})
}

func TestRecommender_ExchangeCandidates(t *testing.T) {
	zhang := newSailor("张海")
	li := newSailor("李航")
	watch := newWatch("甲板值班", "08:00", "16:00")
	monday := newRow(t, watch, "2026-01-12", zhang.ID)
	tuesday := newRow(t, watch, "2026-01-13", li.ID)

	ctx := constraint.NewContext(uuid.New(), swapDays)
	ctx.SetCrew([]*model.CrewMember{zhang, li})
	ctx.SetShifts([]*model.ShiftTemplate{watch})
	ctx.SetAssignments([]*model.Assignment{monday, tuesday})

	recommender := NewRecommender(newManager())
	recommendations := recommender.RecommendSwapTargets(ctx, monday, &RecommendOptions{
		MaxRecommendations: 5,
		AllowExchange:      true,
		MinScore:           0,
	})

	hasExchange := false
	for _, rec := range recommendations {
		if rec.SwapType == "exchange" {
			hasExchange = true
			if rec.Assignment == nil {
				t.Error("Exchange recommendation should carry the returned assignment")
			}
		}
	}
	if !hasExchange {
		t.Error("Should offer an exchange candidate")
	}
}

func TestRecommender_FindBestSwapMatch(t *testing.T) {
	zhang := newSailor("张海")
	li := newSailor("李航")
	watch := newWatch("甲板值班", "08:00", "16:00")
	source := newRow(t, watch, "2026-01-12", zhang.ID)

	ctx := constraint.NewContext(uuid.New(), swapDays)
	ctx.SetCrew([]*model.CrewMember{zhang, li})
	ctx.SetShifts([]*model.ShiftTemplate{watch})
	ctx.SetAssignments([]*model.Assignment{source})

	recommender := NewRecommender(newManager())

	t.Run("找到顶替", func(t *testing.T) {
		best := recommender.FindBestSwapMatch(ctx, zhang.ID, "2026-01-12")
		if best == nil {
			t.Fatal("Expected a match")
		}
		if best.TargetCrew.ID != li.ID {
			t.Errorf("Expected 李航, got %s", best.TargetCrew.Name)
		}
	})

	t.Run("当日无排班", func(t *testing.T) {
		if best := recommender.FindBestSwapMatch(ctx, zhang.ID, "2026-01-13"); best != nil {
			t.Errorf("Expected nil, got %+v", best)
		}
	})
}

func TestRecommender_AutoAssignSwap(t *testing.T) {
	zhang := newSailor("张海")
	li := newSailor("李航")
	watch := newWatch("甲板值班", "08:00", "16:00")
	source := newRow(t, watch, "2026-01-12", zhang.ID)

	ctx := constraint.NewContext(uuid.New(), swapDays)
	ctx.SetCrew([]*model.CrewMember{zhang, li})
	ctx.SetShifts([]*model.ShiftTemplate{watch})
	ctx.SetAssignments([]*model.Assignment{source})

	recommender := NewRecommender(newManager())
	swapped := recommender.AutoAssignSwap(ctx, source)

	if swapped == nil {
		t.Fatal("Expected an auto-assigned swap")
	}
	if swapped.CrewID != li.ID {
		t.Errorf("Swap should go to 李航, got %s", swapped.CrewID)
	}
	if source.CrewID != zhang.ID {
		t.Error("Source assignment should stay unchanged")
	}
	if swapped.ShiftID != source.ShiftID || swapped.Date != source.Date {
		t.Error("Swapped assignment should keep shift and date")
	}
}

func TestPlanFingerprint(t *testing.T) {
	zhang := newSailor("张海")
	li := newSailor("李航")
	watch := newWatch("甲板值班", "08:00", "16:00")
	a := newRow(t, watch, "2026-01-12", zhang.ID)
	b := newRow(t, watch, "2026-01-13", li.ID)

	base := planFingerprint([]*model.Assignment{a, b})

	if base != planFingerprint([]*model.Assignment{a, b}) {
		t.Error("Same plan should produce the same fingerprint")
	}

	swapped := *a
	swapped.CrewID = li.ID
	if base == planFingerprint([]*model.Assignment{&swapped, b}) {
		t.Error("Different crew on a shift should change the fingerprint")
	}
}
