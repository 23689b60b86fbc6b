package scenario

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/scheduler/planner"
)

// TestPassengerNightCapWeek 唯一船员触及周夜班上限后其余夜班计为缺员
func TestPassengerNightCapWeek(t *testing.T) {
	vesselID := uuid.New()

	patrol := createShift(vesselID, "邮轮夜间巡检", "22:00", "06:00", 1)

	days := horizonDays(t, "2026-06-01", 7)
	req := &planner.Request{
		Days:   days,
		Shifts: []*model.ShiftTemplate{patrol},
		Crew:   []*model.CrewMember{createCrew("陈潮", model.RankAbleSeaman)},
	}

	for _, engine := range []string{"constraint", "greedy"} {
		t.Run(engine, func(t *testing.T) {
			result, err := planner.NewSelector().Plan(context.Background(), engine, req)
			if err != nil {
				t.Fatalf("排班执行失败: %v", err)
			}

			if len(result.Scheduled) != model.DefaultMaxNightsPerWeek {
				t.Errorf("scheduled = %d, 期望 %d", len(result.Scheduled), model.DefaultMaxNightsPerWeek)
			}
			if len(result.Unfilled) != 3 {
				t.Fatalf("unfilled = %d, 期望 3", len(result.Unfilled))
			}

			// 按日期顺序排班，上限后的三天全部缺员
			for i, u := range result.Unfilled {
				wantDay := days[model.DefaultMaxNightsPerWeek+i]
				if u.Day != wantDay {
					t.Errorf("缺员日期 = %s, 期望 %s", u.Day, wantDay)
				}
				if u.Reason != planner.ReasonInsufficientCrew {
					t.Errorf("缺员原因 = %q", u.Reason)
				}
			}

			checkSlotConservation(t, days, req.Shifts, result)
		})
	}
}

// TestPassengerDayOffPreference 休息日偏好使同等条件下的船员让位
func TestPassengerDayOffPreference(t *testing.T) {
	vesselID := uuid.New()

	service := createShift(vesselID, "客舱服务", "08:00", "16:00", 1)

	wantsOff := createCrew("陈潮", model.RankAbleSeaman)
	available := createCrew("周汐", model.RankAbleSeaman)

	day := "2026-06-01"
	req := &planner.Request{
		Days:   []string{day},
		Shifts: []*model.ShiftTemplate{service},
		Crew:   []*model.CrewMember{wantsOff, available},
		Preferences: &model.SchedulingPreferences{
			PerCrew: map[uuid.UUID]model.CrewPreferences{
				wantsOff.ID: {DaysOff: []string{day}},
			},
		},
	}

	result, err := planner.NewSelector().Plan(context.Background(), "constraint", req)
	if err != nil {
		t.Fatalf("排班执行失败: %v", err)
	}

	if len(result.Scheduled) != 1 {
		t.Fatalf("scheduled = %d, 期望 1", len(result.Scheduled))
	}
	if result.Scheduled[0].CrewID != available.ID {
		t.Errorf("休息日偏好未生效, 排到了 %v", result.Scheduled[0].CrewID)
	}
	t.Logf("偏好休息的陈潮让位, 周汐上岗")
}

// TestPassengerConsecutiveNightAlternation 连续夜班罚分促使夜班轮换
func TestPassengerConsecutiveNightAlternation(t *testing.T) {
	vesselID := uuid.New()

	patrol := createShift(vesselID, "邮轮夜间巡检", "22:00", "06:00", 1)

	crewA := createCrew("陈潮", model.RankAbleSeaman)
	crewB := createCrew("周汐", model.RankAbleSeaman)

	days := horizonDays(t, "2026-06-01", 2)
	req := &planner.Request{
		Days:   days,
		Shifts: []*model.ShiftTemplate{patrol},
		Crew:   []*model.CrewMember{crewA, crewB},
	}

	result, err := planner.NewSelector().Plan(context.Background(), "constraint", req)
	if err != nil {
		t.Fatalf("排班执行失败: %v", err)
	}

	if len(result.Scheduled) != 2 {
		t.Fatalf("scheduled = %d, 期望 2", len(result.Scheduled))
	}

	byDay := make(map[string]uuid.UUID, 2)
	for _, a := range result.Scheduled {
		byDay[a.Date] = a.CrewID
	}
	if byDay[days[0]] == byDay[days[1]] {
		t.Errorf("连续两晚排了同一名船员 %v", byDay[days[0]])
	}
	t.Logf("夜班轮换: %s=%v, %s=%v", days[0], byDay[days[0]], days[1], byDay[days[1]])
}
