package stats

import (
	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/model"
)

// CoverageMetrics 覆盖率指标
type CoverageMetrics struct {
	// 整体覆盖率
	TotalSlots      int     `json:"total_slots"`    // 周期内总需求人次
	AssignedSlots   int     `json:"assigned_slots"` // 已排人次
	OverallCoverage float64 `json:"overall_coverage"`

	// 按日期统计
	DailyCoverage map[string]DayCoverage `json:"daily_coverage"`

	// 按岗位统计
	RoleCoverage map[string]float64 `json:"role_coverage"`

	// 按技能需求统计
	SkillCoverage map[string]float64 `json:"skill_coverage"`

	// 按时段统计 (0-23)
	HourlyCoverage map[int]float64 `json:"hourly_coverage"`

	// 需求满足度
	DemandSatisfaction float64 `json:"demand_satisfaction"`

	// 缺员归因
	UnfilledByReason map[string]int `json:"unfilled_by_reason"`
}

// DayCoverage 每日覆盖情况
type DayCoverage struct {
	Date         string  `json:"date"`
	TotalSlots   int     `json:"total_slots"`
	Assigned     int     `json:"assigned"`
	CoverageRate float64 `json:"coverage_rate"`
	CrewCount    int     `json:"crew_count"` // 当日出勤船员数
	TotalHours   float64 `json:"total_hours"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze 对一次排班结果统计覆盖率。
// days 与 shifts 给出需求面，scheduled/unfilled 给出结果面。
func (c *CoverageAnalyzer) Analyze(days []string, shifts []*model.ShiftTemplate, scheduled []*model.Assignment, unfilled []model.UnfilledShift) *CoverageMetrics {
	metrics := &CoverageMetrics{
		DailyCoverage:    make(map[string]DayCoverage),
		RoleCoverage:     make(map[string]float64),
		SkillCoverage:    make(map[string]float64),
		HourlyCoverage:   make(map[int]float64),
		UnfilledByReason: make(map[string]int),
	}
	if len(days) == 0 || len(shifts) == 0 {
		metrics.OverallCoverage = 100
		metrics.DemandSatisfaction = 100
		return metrics
	}

	shiftByID := make(map[uuid.UUID]*model.ShiftTemplate, len(shifts))
	for _, shift := range shifts {
		shiftByID[shift.ID] = shift
	}

	// 已排人次按 (日期, 班次) 聚合
	assignedByKey := make(map[string]int)
	dailyCrew := make(map[string]map[uuid.UUID]bool)
	dailyHours := make(map[string]float64)
	for _, a := range scheduled {
		assignedByKey[a.Date+"|"+a.ShiftID.String()]++
		if dailyCrew[a.Date] == nil {
			dailyCrew[a.Date] = make(map[uuid.UUID]bool)
		}
		dailyCrew[a.Date][a.CrewID] = true
		dailyHours[a.Date] += a.WorkingHours()
	}

	roleTotals := make(map[string]int)
	roleAssigned := make(map[string]int)
	skillTotals := make(map[string]int)
	skillAssigned := make(map[string]int)
	hourlyRequired := make(map[int]int)
	hourlyAssigned := make(map[int]int)

	for _, day := range days {
		dc := DayCoverage{Date: day}

		for _, shift := range shifts {
			assigned := assignedByKey[day+"|"+shift.ID.String()]

			metrics.TotalSlots += shift.Needed
			metrics.AssignedSlots += assigned
			dc.TotalSlots += shift.Needed
			dc.Assigned += assigned

			if shift.Role != "" {
				roleTotals[shift.Role] += shift.Needed
				roleAssigned[shift.Role] += assigned
			}
			if shift.Skill != "" {
				skillTotals[shift.Skill] += shift.Needed
				skillAssigned[shift.Skill] += assigned
			}

			// 班次覆盖的每个小时计入时段统计，跨日班次折回 0-23
			window, err := shift.WindowOn(day)
			if err != nil {
				continue
			}
			startHour := window.Start.Hour()
			endHour := startHour + int(window.Duration().Hours())
			for h := startHour; h < endHour; h++ {
				hourlyRequired[h%24] += shift.Needed
				hourlyAssigned[h%24] += assigned
			}
		}

		if dc.TotalSlots > 0 {
			dc.CoverageRate = float64(dc.Assigned) / float64(dc.TotalSlots) * 100
		}
		dc.CrewCount = len(dailyCrew[day])
		dc.TotalHours = dailyHours[day]
		metrics.DailyCoverage[day] = dc
	}

	if metrics.TotalSlots > 0 {
		metrics.OverallCoverage = float64(metrics.AssignedSlots) / float64(metrics.TotalSlots) * 100
	}

	for role, total := range roleTotals {
		if total > 0 {
			metrics.RoleCoverage[role] = float64(roleAssigned[role]) / float64(total) * 100
		}
	}
	for skill, total := range skillTotals {
		if total > 0 {
			metrics.SkillCoverage[skill] = float64(skillAssigned[skill]) / float64(total) * 100
		}
	}
	for hour := 0; hour < 24; hour++ {
		if hourlyRequired[hour] > 0 {
			metrics.HourlyCoverage[hour] = float64(hourlyAssigned[hour]) / float64(hourlyRequired[hour]) * 100
		}
	}

	metrics.DemandSatisfaction = demandSatisfaction(hourlyRequired, hourlyAssigned)

	for _, u := range unfilled {
		metrics.UnfilledByReason[u.Reason] += u.Need
	}

	return metrics
}

// demandSatisfaction 按时段需求汇总满足度，超额不加分
func demandSatisfaction(required, assigned map[int]int) float64 {
	totalRequired := 0
	totalSatisfied := 0

	for hour, req := range required {
		totalRequired += req
		got := assigned[hour]
		if got >= req {
			totalSatisfied += req
		} else {
			totalSatisfied += got
		}
	}

	if totalRequired == 0 {
		return 100
	}
	return float64(totalSatisfied) / float64(totalRequired) * 100
}
