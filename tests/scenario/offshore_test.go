package scenario

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/scheduler/planner"
)

// TestOffshoreDrydockBlocksSchedule 进坞期间整船班次停排并按船舶不可用归因
func TestOffshoreDrydockBlocksSchedule(t *testing.T) {
	vesselID := uuid.New()

	dpWatch := createShift(vesselID, "动力定位值班", "08:00", "16:00", 1)

	days := horizonDays(t, "2026-07-01", 3)
	req := &planner.Request{
		Days:   days,
		Shifts: []*model.ShiftTemplate{dpWatch},
		Crew: []*model.CrewMember{
			createCrew("吴深", model.RankAbleSeaman),
			createCrew("郑远", model.RankAbleSeaman),
		},
		Drydocks: []model.DrydockWindow{
			{
				VesselID: vesselID,
				Yard:     "舟山中远船厂",
				Start:    utcAt("2026-06-30", "00:00"),
				End:      utcAt("2026-07-05", "00:00"),
			},
		},
	}

	for _, engine := range []string{"constraint", "greedy"} {
		t.Run(engine, func(t *testing.T) {
			result, err := planner.NewSelector().Plan(context.Background(), engine, req)
			if err != nil {
				t.Fatalf("排班执行失败: %v", err)
			}

			if len(result.Scheduled) != 0 {
				t.Errorf("scheduled = %d, 期望 0", len(result.Scheduled))
			}
			if len(result.Unfilled) != len(days) {
				t.Fatalf("unfilled = %d, 期望 %d", len(result.Unfilled), len(days))
			}
			for _, u := range result.Unfilled {
				if u.Reason != planner.ReasonVesselUnavailable {
					t.Errorf("%s 缺员原因 = %q, 期望 %q", u.Day, u.Reason, planner.ReasonVesselUnavailable)
				}
			}
		})
	}
}

// TestOffshorePortCallOverridesDrydock 进坞期内的靠港窗口恢复排班
func TestOffshorePortCallOverridesDrydock(t *testing.T) {
	vesselID := uuid.New()

	dpWatch := createShift(vesselID, "动力定位值班", "08:00", "16:00", 1)

	days := horizonDays(t, "2026-07-01", 3)
	req := &planner.Request{
		Days:   days,
		Shifts: []*model.ShiftTemplate{dpWatch},
		Crew: []*model.CrewMember{
			createCrew("吴深", model.RankAbleSeaman),
			createCrew("郑远", model.RankAbleSeaman),
		},
		Drydocks: []model.DrydockWindow{
			{
				VesselID: vesselID,
				Yard:     "舟山中远船厂",
				Start:    utcAt("2026-06-30", "00:00"),
				End:      utcAt("2026-07-05", "00:00"),
			},
		},
		// 坞修期间临时靠港，窗口内照常排班
		PortCalls: []model.PortCallWindow{
			{
				VesselID: vesselID,
				Port:     "宁波舟山港",
				Start:    utcAt("2026-07-01", "00:00"),
				End:      utcAt("2026-07-04", "00:00"),
			},
		},
	}

	result, err := planner.NewSelector().Plan(context.Background(), "constraint", req)
	if err != nil {
		t.Fatalf("排班执行失败: %v", err)
	}

	if len(result.Unfilled) != 0 {
		t.Fatalf("unfilled = %d, 期望 0: %+v", len(result.Unfilled), result.Unfilled)
	}
	if len(result.Scheduled) != len(days) {
		t.Errorf("scheduled = %d, 期望 %d", len(result.Scheduled), len(days))
	}
	t.Logf("靠港窗口覆盖坞修期, %d 天全部排满", len(days))
}

// TestOffshoreRankFloor 最低职级不满足时按职级原因归因, 补入高职级后排班成功
func TestOffshoreRankFloor(t *testing.T) {
	vesselID := uuid.New()

	craneOp := createShift(vesselID, "甲板吊装作业", "08:00", "16:00", 1)
	craneOp.MinRank = model.RankChiefOfficer

	junior := []*model.CrewMember{
		createCrew("吴深", model.RankAbleSeaman),
		createCrew("郑远", model.RankDeckOfficer),
	}

	req := &planner.Request{
		Days:   []string{"2026-07-01"},
		Shifts: []*model.ShiftTemplate{craneOp},
		Crew:   junior,
	}

	result, err := planner.NewSelector().Plan(context.Background(), "constraint", req)
	if err != nil {
		t.Fatalf("排班执行失败: %v", err)
	}

	if len(result.Unfilled) != 1 {
		t.Fatalf("unfilled = %d, 期望 1", len(result.Unfilled))
	}
	if result.Unfilled[0].Reason != "no crew meeting minimum rank: Chief Officer" {
		t.Errorf("缺员原因 = %q", result.Unfilled[0].Reason)
	}

	// 补入轮机长后职级达标
	senior := createCrew("林涛", model.RankChiefEngineer)
	req.Crew = append(junior, senior)

	result, err = planner.NewSelector().Plan(context.Background(), "constraint", req)
	if err != nil {
		t.Fatalf("排班执行失败: %v", err)
	}

	if len(result.Scheduled) != 1 {
		t.Fatalf("scheduled = %d, 期望 1", len(result.Scheduled))
	}
	if result.Scheduled[0].CrewID != senior.ID {
		t.Errorf("应排职级达标的林涛, got %v", result.Scheduled[0].CrewID)
	}
}
