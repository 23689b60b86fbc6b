package stats

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/model"
)

// mkAssignment 构造一条指定日期与时长的分配记录
func mkAssignment(crewID uuid.UUID, date, startClock string, hours int) *model.Assignment {
	d, _ := time.ParseInLocation("2006-01-02", date, time.UTC)
	st, _ := time.Parse("15:04", startClock)
	start := time.Date(d.Year(), d.Month(), d.Day(), st.Hour(), st.Minute(), 0, 0, time.UTC)
	return &model.Assignment{
		Date:      date,
		ShiftID:   uuid.New(),
		CrewID:    crewID,
		StartTime: start,
		EndTime:   start.Add(time.Duration(hours) * time.Hour),
	}
}

func mkCrew(name string) *model.CrewMember {
	return &model.CrewMember{
		BaseModel: model.NewBaseModel(),
		Name:      name,
		Status:    "active",
	}
}

func TestFairnessAnalyzer_Analyze(t *testing.T) {
	analyzer := NewFairnessAnalyzer()

	zhang := mkCrew("张海")
	li := mkCrew("李航")
	crew := []*model.CrewMember{zhang, li}

	// 张海 16 小时，李航 8 小时
	assignments := []*model.Assignment{
		mkAssignment(zhang.ID, "2026-01-12", "08:00", 8),
		mkAssignment(zhang.ID, "2026-01-13", "08:00", 8),
		mkAssignment(li.ID, "2026-01-12", "08:00", 8),
	}

	metrics := analyzer.Analyze(assignments, crew)

	if metrics == nil {
		t.Fatal("Metrics should not be nil")
	}

	if metrics.WorkloadGini < 0 || metrics.WorkloadGini > 1 {
		t.Errorf("Gini coefficient should be between 0 and 1, got %f", metrics.WorkloadGini)
	}

	if len(metrics.CrewStats) != 2 {
		t.Fatalf("Expected 2 crew stats, got %d", len(metrics.CrewStats))
	}

	if metrics.AvgHoursPerCrew != 12 {
		t.Errorf("Expected avg 12 hours, got %f", metrics.AvgHoursPerCrew)
	}
	if metrics.MaxHours != 16 || metrics.MinHours != 8 {
		t.Errorf("Expected max 16 / min 8, got %f / %f", metrics.MaxHours, metrics.MinHours)
	}
	if metrics.HoursRange != 8 {
		t.Errorf("Expected range 8, got %f", metrics.HoursRange)
	}

	// 工时高者排前，偏差为对人均的百分比
	first := metrics.CrewStats[0]
	if first.CrewID != zhang.ID || first.TotalHours != 16 {
		t.Errorf("Expected 张海 with 16h first, got %s with %f", first.CrewName, first.TotalHours)
	}
	if first.Deviation <= 0 {
		t.Errorf("Overloaded crew should have positive deviation, got %f", first.Deviation)
	}
}

func TestFairnessAnalyzer_EmptyInput(t *testing.T) {
	analyzer := NewFairnessAnalyzer()

	metrics := analyzer.Analyze(nil, nil)

	if metrics == nil {
		t.Fatal("Should return empty metrics for nil input")
	}
	if metrics.OverallFairnessScore != 100 {
		t.Errorf("Empty plan should score 100, got %f", metrics.OverallFairnessScore)
	}
}

func TestFairnessAnalyzer_PerfectFairness(t *testing.T) {
	analyzer := NewFairnessAnalyzer()

	a := mkCrew("张海")
	b := mkCrew("李航")
	crew := []*model.CrewMember{a, b}

	// 完全相同的工时分配
	assignments := []*model.Assignment{
		mkAssignment(a.ID, "2026-01-12", "08:00", 8),
		mkAssignment(b.ID, "2026-01-12", "08:00", 8),
	}

	metrics := analyzer.Analyze(assignments, crew)

	if metrics.WorkloadGini > 0.01 {
		t.Errorf("Perfect fairness should have Gini near 0, got %f", metrics.WorkloadGini)
	}
	if metrics.WorkloadStdDev != 0 {
		t.Errorf("Identical workloads should have zero std dev, got %f", metrics.WorkloadStdDev)
	}
}

func TestFairnessAnalyzer_NightAndWeekendCounts(t *testing.T) {
	analyzer := NewFairnessAnalyzer()

	member := mkCrew("王澜")
	crew := []*model.CrewMember{member}

	// 2026-01-11 为周日；22:00 起为夜班
	assignments := []*model.Assignment{
		mkAssignment(member.ID, "2026-01-11", "08:00", 8),
		mkAssignment(member.ID, "2026-01-12", "22:00", 8),
		mkAssignment(member.ID, "2026-01-13", "08:00", 8),
	}

	metrics := analyzer.Analyze(assignments, crew)

	if len(metrics.CrewStats) != 1 {
		t.Fatalf("Expected 1 crew stat, got %d", len(metrics.CrewStats))
	}
	cs := metrics.CrewStats[0]
	if cs.ShiftCount != 3 {
		t.Errorf("Expected 3 shifts, got %d", cs.ShiftCount)
	}
	if cs.NightShifts != 1 {
		t.Errorf("Expected 1 night shift, got %d", cs.NightShifts)
	}
	if cs.WeekendShifts != 1 {
		t.Errorf("Expected 1 weekend shift, got %d", cs.WeekendShifts)
	}
}

func TestFairnessAnalyzer_UnknownCrewFallsBackToID(t *testing.T) {
	analyzer := NewFairnessAnalyzer()

	ghost := uuid.New()
	assignments := []*model.Assignment{
		mkAssignment(ghost, "2026-01-12", "08:00", 8),
	}

	metrics := analyzer.Analyze(assignments, []*model.CrewMember{mkCrew("张海")})

	if len(metrics.CrewStats) != 1 {
		t.Fatalf("Expected 1 crew stat, got %d", len(metrics.CrewStats))
	}
	if metrics.CrewStats[0].CrewName != ghost.String() {
		t.Errorf("Unknown crew should fall back to ID, got %s", metrics.CrewStats[0].CrewName)
	}
}

func TestFairnessAnalyzer_OverallScore(t *testing.T) {
	analyzer := NewFairnessAnalyzer()

	member := mkCrew("张海")
	assignments := []*model.Assignment{
		mkAssignment(member.ID, "2026-01-12", "08:00", 8),
	}

	metrics := analyzer.Analyze(assignments, []*model.CrewMember{member})

	if metrics.OverallFairnessScore < 0 || metrics.OverallFairnessScore > 100 {
		t.Errorf("Score should be 0-100, got %f", metrics.OverallFairnessScore)
	}
}

func TestComparePlans(t *testing.T) {
	analyzer := NewFairnessAnalyzer()

	a := mkCrew("张海")
	b := mkCrew("李航")
	crew := []*model.CrewMember{a, b}

	// 调整前：张海独揽全部班次
	before := []*model.Assignment{
		mkAssignment(a.ID, "2026-01-12", "08:00", 8),
		mkAssignment(a.ID, "2026-01-13", "08:00", 8),
		mkAssignment(a.ID, "2026-01-14", "08:00", 8),
		mkAssignment(a.ID, "2026-01-15", "08:00", 8),
	}
	// 调整后：两人平分
	after := []*model.Assignment{
		mkAssignment(a.ID, "2026-01-12", "08:00", 8),
		mkAssignment(a.ID, "2026-01-13", "08:00", 8),
		mkAssignment(b.ID, "2026-01-14", "08:00", 8),
		mkAssignment(b.ID, "2026-01-15", "08:00", 8),
	}

	diff := analyzer.ComparePlans(before, after, crew)

	if diff["overall_score_diff"] <= 0 {
		t.Errorf("Balanced plan should improve the score, got diff %f", diff["overall_score_diff"])
	}
	if diff["workload_gini_diff"] >= 0 {
		t.Errorf("Balanced plan should lower workload Gini, got diff %f", diff["workload_gini_diff"])
	}
	if diff["after_overall_score"] <= diff["before_overall_score"] {
		t.Errorf("Expected after score above before, got %f vs %f",
			diff["after_overall_score"], diff["before_overall_score"])
	}
}
