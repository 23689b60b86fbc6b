// Package stats 提供排班结果的统计分析
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/crewplan/crewplan/pkg/model"
)

// FairnessMetrics 公平性指标
type FairnessMetrics struct {
	// 工时公平性
	WorkloadGini     float64 `json:"workload_gini"` // 工时基尼系数 (0=完全公平, 1=完全不公平)
	WorkloadVariance float64 `json:"workload_variance"`
	WorkloadStdDev   float64 `json:"workload_std_dev"`
	AvgHoursPerCrew  float64 `json:"avg_hours_per_crew"`
	MaxHours         float64 `json:"max_hours"`
	MinHours         float64 `json:"min_hours"`
	HoursRange       float64 `json:"hours_range"`

	// 班次分配公平性
	NightShiftGini   float64 `json:"night_shift_gini"`
	WeekendShiftGini float64 `json:"weekend_shift_gini"`

	// 船员级别统计
	CrewStats []CrewStat `json:"crew_stats"`

	// 综合评分 (0-100)
	OverallFairnessScore float64 `json:"overall_fairness_score"`
}

// CrewStat 船员统计
type CrewStat struct {
	CrewID        uuid.UUID `json:"crew_id"`
	CrewName      string    `json:"crew_name"`
	TotalHours    float64   `json:"total_hours"`
	ShiftCount    int       `json:"shift_count"`
	NightShifts   int       `json:"night_shifts"`
	WeekendShifts int       `json:"weekend_shifts"`
	Deviation     float64   `json:"deviation"` // 与人均工时的偏差百分比
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct{}

// NewFairnessAnalyzer 创建公平性分析器
func NewFairnessAnalyzer() *FairnessAnalyzer {
	return &FairnessAnalyzer{}
}

// Analyze 分析一份排班方案的公平性
func (f *FairnessAnalyzer) Analyze(assignments []*model.Assignment, crew []*model.CrewMember) *FairnessMetrics {
	if len(assignments) == 0 || len(crew) == 0 {
		return &FairnessMetrics{OverallFairnessScore: 100}
	}

	crewStats := f.calculateCrewStats(assignments, crew)

	hours := make([]float64, len(crewStats))
	nightShifts := make([]float64, len(crewStats))
	weekendShifts := make([]float64, len(crewStats))
	for i, cs := range crewStats {
		hours[i] = cs.TotalHours
		nightShifts[i] = float64(cs.NightShifts)
		weekendShifts[i] = float64(cs.WeekendShifts)
	}

	avgHours := stat.Mean(hours, nil)
	variance := stat.PopVariance(hours, nil)
	stdDev := math.Sqrt(variance)
	maxHours := floats.Max(hours)
	minHours := floats.Min(hours)

	for i := range crewStats {
		if avgHours > 0 {
			crewStats[i].Deviation = (crewStats[i].TotalHours - avgHours) / avgHours * 100
		}
	}

	workloadGini := gini(hours)
	nightGini := gini(nightShifts)
	weekendGini := gini(weekendShifts)

	return &FairnessMetrics{
		WorkloadGini:         workloadGini,
		WorkloadVariance:     variance,
		WorkloadStdDev:       stdDev,
		AvgHoursPerCrew:      avgHours,
		MaxHours:             maxHours,
		MinHours:             minHours,
		HoursRange:           maxHours - minHours,
		NightShiftGini:       nightGini,
		WeekendShiftGini:     weekendGini,
		CrewStats:            crewStats,
		OverallFairnessScore: overallScore(workloadGini, nightGini, weekendGini, stdDev, avgHours),
	}
}

// calculateCrewStats 逐条分配累计每名船员的统计数据
func (f *FairnessAnalyzer) calculateCrewStats(assignments []*model.Assignment, crew []*model.CrewMember) []CrewStat {
	nameByID := make(map[uuid.UUID]string, len(crew))
	for _, member := range crew {
		nameByID[member.ID] = member.Name
	}

	statMap := make(map[uuid.UUID]*CrewStat)
	for _, a := range assignments {
		cs, exists := statMap[a.CrewID]
		if !exists {
			name := nameByID[a.CrewID]
			if name == "" {
				name = a.CrewID.String()
			}
			cs = &CrewStat{CrewID: a.CrewID, CrewName: name}
			statMap[a.CrewID] = cs
		}

		cs.TotalHours += a.WorkingHours()
		cs.ShiftCount++
		if a.IsNight() {
			cs.NightShifts++
		}
		if isWeekend(a.Date) {
			cs.WeekendShifts++
		}
	}

	result := make([]CrewStat, 0, len(statMap))
	for _, cs := range statMap {
		result = append(result, *cs)
	}

	// 工时降序
	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalHours != result[j].TotalHours {
			return result[i].TotalHours > result[j].TotalHours
		}
		return result[i].CrewID.String() < result[j].CrewID.String()
	})

	return result
}

// ComparePlans 比较两份排班方案的公平性
func (f *FairnessAnalyzer) ComparePlans(before, after []*model.Assignment, crew []*model.CrewMember) map[string]float64 {
	metricsBefore := f.Analyze(before, crew)
	metricsAfter := f.Analyze(after, crew)

	return map[string]float64{
		"workload_gini_diff":   metricsAfter.WorkloadGini - metricsBefore.WorkloadGini,
		"night_gini_diff":      metricsAfter.NightShiftGini - metricsBefore.NightShiftGini,
		"weekend_gini_diff":    metricsAfter.WeekendShiftGini - metricsBefore.WeekendShiftGini,
		"overall_score_diff":   metricsAfter.OverallFairnessScore - metricsBefore.OverallFairnessScore,
		"before_overall_score": metricsBefore.OverallFairnessScore,
		"after_overall_score":  metricsAfter.OverallFairnessScore,
	}
}

func isWeekend(dateStr string) bool {
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return false
	}
	weekday := date.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// gini 计算基尼系数
func gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := floats.Sum(sorted)
	if sum == 0 {
		return 0
	}

	g := 0.0
	for i, v := range sorted {
		g += (2*float64(i+1) - float64(n) - 1) * v
	}
	g = g / (float64(n) * sum)

	return math.Max(0, math.Min(1, g))
}

// overallScore 加权合成综合公平性评分
func overallScore(workloadGini, nightGini, weekendGini, stdDev, avgHours float64) float64 {
	const (
		workloadWeight = 0.4
		nightWeight    = 0.25
		weekendWeight  = 0.25
		stdDevWeight   = 0.1
	)

	workloadScore := (1 - workloadGini) * 100
	nightScore := (1 - nightGini) * 100
	weekendScore := (1 - weekendGini) * 100

	// 变异系数越低分数越高
	cvScore := 100.0
	if avgHours > 0 {
		cv := stdDev / avgHours
		cvScore = math.Max(0, 100-cv*200)
	}

	score := workloadWeight*workloadScore +
		nightWeight*nightScore +
		weekendWeight*weekendScore +
		stdDevWeight*cvScore

	return math.Max(0, math.Min(100, score))
}
