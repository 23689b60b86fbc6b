// Package builtin 提供内置排班规则实现
package builtin

import (
	"fmt"
	"sort"
	"time"

	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/scheduler/constraint"
)

// ConsecutiveNightRule 连续夜班规则（软规则）
// 船员前一日历日值过夜班时，新分配记一次固定罚分
type ConsecutiveNightRule struct {
	*BaseRule
}

// NewConsecutiveNightRule 创建连续夜班规则
func NewConsecutiveNightRule(weight int) *ConsecutiveNightRule {
	return &ConsecutiveNightRule{
		BaseRule: NewBaseRule(
			"连续夜班",
			constraint.TypeConsecutiveNight,
			constraint.CategorySoft,
			weight,
		),
	}
}

// Evaluate 评估整个排班
func (c *ConsecutiveNightRule) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for _, a := range ctx.Assignments {
		prev := model.PreviousDate(a.Date)
		if prev == "" || !ctx.WorkedNightOn(a.CrewID, prev) {
			continue
		}

		penalty := c.Weight()
		totalPenalty += penalty

		crew := ctx.GetCrew(a.CrewID)
		name := a.CrewID.String()
		if crew != nil {
			name = crew.Name
		}
		violations = append(violations, c.CreateViolation(
			a.CrewID, a.Date,
			fmt.Sprintf("船员 %s 前一日值夜班后 %s 继续排班", name, a.Date),
			penalty,
		))
	}

	return true, totalPenalty, violations
}

// EvaluateAssignment 评估单个分配
func (c *ConsecutiveNightRule) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	prev := model.PreviousDate(a.Date)
	if prev != "" && ctx.WorkedNightOn(a.CrewID, prev) {
		return true, c.Weight()
	}
	return true, 0
}

// WatchTurnaroundRule 值更间隔规则（硬规则，按需启用）
// 同一船员相邻两次值更之间须留出最小间隔
type WatchTurnaroundRule struct {
	*BaseRule
	minHours int
}

// NewWatchTurnaroundRule 创建值更间隔规则
func NewWatchTurnaroundRule(minHours int) *WatchTurnaroundRule {
	return &WatchTurnaroundRule{
		BaseRule: NewBaseRule(
			"值更间隔",
			constraint.TypeWatchTurnaround,
			constraint.CategoryHard,
			100,
		),
		minHours: minHours,
	}
}

// Evaluate 评估整个排班
func (c *WatchTurnaroundRule) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	minGap := time.Duration(c.minHours) * time.Hour
	for _, crew := range ctx.Crew {
		assignments := ctx.GetCrewAssignments(crew.ID)
		if len(assignments) < 2 {
			continue
		}

		sorted := make([]*model.Assignment, len(assignments))
		copy(sorted, assignments)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].StartTime.Before(sorted[j].StartTime)
		})

		for i := 1; i < len(sorted); i++ {
			gap := sorted[i].StartTime.Sub(sorted[i-1].EndTime)
			if gap < minGap {
				isValid = false
				penalty := c.Weight()
				totalPenalty += penalty

				violations = append(violations, c.CreateViolation(
					crew.ID, sorted[i].Date,
					fmt.Sprintf("船员 %s 值更间隔 %.1f 小时，少于 %d 小时", crew.Name, gap.Hours(), c.minHours),
					penalty,
				))
			}
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个分配
func (c *WatchTurnaroundRule) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	minGap := time.Duration(c.minHours) * time.Hour

	for _, existing := range ctx.GetCrewAssignments(a.CrewID) {
		var gap time.Duration
		switch {
		case !existing.EndTime.After(a.StartTime):
			gap = a.StartTime.Sub(existing.EndTime)
		case !a.EndTime.After(existing.StartTime):
			gap = existing.StartTime.Sub(a.EndTime)
		default:
			// 时间窗口重叠
			return false, c.Weight()
		}
		if gap < minGap {
			return false, c.Weight()
		}
	}
	return true, 0
}
