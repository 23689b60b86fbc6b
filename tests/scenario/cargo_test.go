// Package scenario 提供场景测试
package scenario

import (
	"bytes"
	"context"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/rotation"
	"github.com/crewplan/crewplan/pkg/scheduler/planner"
)

// TestCargoWeekWatchSchedule 散货船一周值班排班测试
func TestCargoWeekWatchSchedule(t *testing.T) {
	vesselID := uuid.New()

	// 4/8 三班制：六段四小时值班
	shifts, err := rotation.NewCatalog().Templates(vesselID, rotation.ThreeWatch, 1)
	if err != nil {
		t.Fatalf("生成班次模板失败: %v", err)
	}

	// 创建船员（普通船员即可承担值班）
	crew := []*model.CrewMember{
		createCrew("张海", model.RankAbleSeaman),
		createCrew("李航", model.RankAbleSeaman),
		createCrew("王澜", model.RankAbleSeaman),
		createCrew("赵汀", model.RankAbleSeaman),
		createCrew("陈汐", model.RankAbleSeaman),
		createCrew("周洋", model.RankAbleSeaman),
		createCrew("吴潮", model.RankAbleSeaman),
		createCrew("郑波", model.RankAbleSeaman),
		createCrew("孙涛", model.RankAbleSeaman),
		createCrew("钱浪", model.RankAbleSeaman),
		createCrew("冯洲", model.RankAbleSeaman),
		createCrew("褚港", model.RankAbleSeaman),
	}

	days := horizonDays(t, "2026-03-02", 7)

	req := &planner.Request{
		FleetID: uuid.New(),
		Days:    days,
		Shifts:  shifts,
		Crew:    crew,
	}

	for _, engine := range []string{"constraint", "greedy"} {
		t.Run(engine, func(t *testing.T) {
			result, err := planner.NewSelector().Plan(context.Background(), engine, req)
			if err != nil {
				t.Fatalf("排班执行失败: %v", err)
			}

			t.Logf("总分配数: %d", len(result.Scheduled))
			t.Logf("缺员数: %d", len(result.Unfilled))

			// 12 名船员覆盖每天 6 段值班，不应出现缺员
			if len(result.Unfilled) != 0 {
				t.Errorf("缺员 = %d, 期望 0: %+v", len(result.Unfilled), result.Unfilled)
			}

			checkSlotConservation(t, days, shifts, result)
			checkNoSameDayDouble(t, result)

			// 一周内每名船员的夜班数不得超过上限
			nightCount := make(map[uuid.UUID]int)
			for _, a := range result.Scheduled {
				if a.IsNight() {
					nightCount[a.CrewID]++
				}
			}
			for _, member := range crew {
				if n := nightCount[member.ID]; n > model.DefaultMaxNightsPerWeek {
					t.Errorf("船员 %s 夜班 %d 次，超过上限 %d", member.Name, n, model.DefaultMaxNightsPerWeek)
				}
			}
		})
	}
}

// TestCargoFairnessRotation 货控专岗不影响甲板值班的公平轮转
func TestCargoFairnessRotation(t *testing.T) {
	vesselID := uuid.New()

	// 货控值班只有王澜具备技能，甲板值班三人皆可
	cargoWatch := createShift(vesselID, "货控值班", "08:00", "16:00", 1)
	cargoWatch.Skill = "cargo_ops"
	deckWatch := createShift(vesselID, "甲板值班", "16:00", "20:00", 2)

	crewA := createCrew("张海", model.RankAbleSeaman)
	crewB := createCrew("李航", model.RankAbleSeaman)
	crewC := createCrew("王澜", model.RankAbleSeaman, "cargo_ops")

	days := horizonDays(t, "2026-03-02", 3)

	req := &planner.Request{
		Days:   days,
		Shifts: []*model.ShiftTemplate{cargoWatch, deckWatch},
		Crew:   []*model.CrewMember{crewA, crewB, crewC},
	}

	result, err := planner.NewSelector().Plan(context.Background(), "constraint", req)
	if err != nil {
		t.Fatalf("排班执行失败: %v", err)
	}

	if len(result.Unfilled) != 0 {
		t.Fatalf("缺员 = %+v, 期望无缺员", result.Unfilled)
	}

	// 王澜每天先占货控班，甲板班应始终由负载更轻的张海和李航承担
	for _, a := range result.Scheduled {
		if a.ShiftID == cargoWatch.ID && a.CrewID != crewC.ID {
			t.Errorf("货控值班 %s 排了 %v, 期望王澜", a.Date, a.CrewID)
		}
		if a.ShiftID == deckWatch.ID && a.CrewID == crewC.ID {
			t.Errorf("甲板值班 %s 排了已有专岗的王澜", a.Date)
		}
	}
}

// TestCargoRunRepeatability 相同航次输入的重复运行结果必须一致
func TestCargoRunRepeatability(t *testing.T) {
	vesselID := uuid.New()

	shifts, err := rotation.NewCatalog().Templates(vesselID, rotation.TwoWatch, 1)
	if err != nil {
		t.Fatalf("生成班次模板失败: %v", err)
	}

	crew := []*model.CrewMember{
		createCrew("张海", model.RankAbleSeaman),
		createCrew("李航", model.RankAbleSeaman),
		createCrew("王澜", model.RankAbleSeaman),
		createCrew("赵汀", model.RankAbleSeaman),
		createCrew("陈汐", model.RankAbleSeaman),
		createCrew("周洋", model.RankAbleSeaman),
	}

	days := horizonDays(t, "2026-03-02", 7)

	req := &planner.Request{
		Days:   days,
		Shifts: shifts,
		Crew:   crew,
		Leaves: []model.LeaveRecord{
			{CrewID: crew[0].ID, Start: utcAt("2026-03-04", "00:00"), End: utcAt("2026-03-04", "23:59"), Type: "shore"},
		},
		Drydocks: []model.DrydockWindow{
			{VesselID: vesselID, Yard: "舟山船厂", Start: utcAt("2026-03-08", "00:00"), End: utcAt("2026-03-09", "00:00")},
		},
	}

	for _, engine := range []string{"constraint", "greedy"} {
		t.Run(engine, func(t *testing.T) {
			first, err := planner.NewSelector().Plan(context.Background(), engine, req)
			if err != nil {
				t.Fatalf("第一次排班失败: %v", err)
			}
			second, err := planner.NewSelector().Plan(context.Background(), engine, req)
			if err != nil {
				t.Fatalf("第二次排班失败: %v", err)
			}

			firstJSON, _ := json.Marshal(first)
			secondJSON, _ := json.Marshal(second)
			if !bytes.Equal(firstJSON, secondJSON) {
				t.Errorf("两次运行结果不一致:\n%s\n%s", firstJSON, secondJSON)
			}
		})
	}
}

// 辅助函数

func createCrew(name, rank string, skills ...string) *model.CrewMember {
	return &model.CrewMember{
		BaseModel: model.BaseModel{ID: uuid.New()},
		Name:      name,
		Rank:      rank,
		Skills:    skills,
		Status:    "active",
	}
}

func createShift(vesselID uuid.UUID, name, startTime, endTime string, needed int) *model.ShiftTemplate {
	return &model.ShiftTemplate{
		BaseModel: model.BaseModel{ID: uuid.New()},
		VesselID:  vesselID,
		Name:      name,
		StartTime: startTime,
		EndTime:   endTime,
		Needed:    needed,
		IsActive:  true,
	}
}

func horizonDays(t *testing.T, start string, n int) []string {
	t.Helper()
	days, err := rotation.Days(start, n)
	if err != nil {
		t.Fatalf("展开排班周期失败: %v", err)
	}
	return days
}

func utcAt(day, clock string) time.Time {
	ts, _ := time.Parse("2006-01-02 15:04", day+" "+clock)
	return ts
}

// checkSlotConservation 校验每个(日期,班次)的已排人数与缺员人数之和等于需求人数
func checkSlotConservation(t *testing.T, days []string, shifts []*model.ShiftTemplate, result *planner.Result) {
	t.Helper()

	type slot struct {
		day     string
		shiftID uuid.UUID
	}

	committed := make(map[slot]int)
	for _, a := range result.Scheduled {
		committed[slot{a.Date, a.ShiftID}]++
	}
	shortfall := make(map[slot]int)
	for _, u := range result.Unfilled {
		shortfall[slot{u.Day, u.ShiftID}] += u.Need
	}

	for _, day := range days {
		for _, s := range shifts {
			key := slot{day, s.ID}
			if got := committed[key] + shortfall[key]; got != s.Needed {
				t.Errorf("%s %s: 已排%d + 缺员%d != 需求%d",
					day, s.Name, committed[key], shortfall[key], s.Needed)
			}
		}
	}
}

// checkNoSameDayDouble 校验同一船员同一天不出现两条分配
func checkNoSameDayDouble(t *testing.T, result *planner.Result) {
	t.Helper()

	seen := make(map[string]bool)
	for _, a := range result.Scheduled {
		key := a.Date + "/" + a.CrewID.String()
		if seen[key] {
			t.Errorf("船员 %v 在 %s 被重复排班", a.CrewID, a.Date)
		}
		seen[key] = true
	}
}
