// Package builtin 提供内置排班规则实现
package builtin

import (
	"fmt"

	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/scheduler/constraint"
)

// LeaveConflictRule 休假冲突规则（硬规则）
// 班次开始时刻落在休假区间内（含两端）时不得排班
type LeaveConflictRule struct {
	*BaseRule
}

// NewLeaveConflictRule 创建休假冲突规则
func NewLeaveConflictRule() *LeaveConflictRule {
	return &LeaveConflictRule{
		BaseRule: NewBaseRule(
			"休假冲突",
			constraint.TypeLeaveConflict,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估整个排班
func (c *LeaveConflictRule) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, a := range ctx.Assignments {
		for _, leave := range ctx.LeavesFor(a.CrewID) {
			if leave.Covers(a.StartTime) {
				isValid = false
				penalty := c.Weight()
				totalPenalty += penalty

				crew := ctx.GetCrew(a.CrewID)
				name := a.CrewID.String()
				if crew != nil {
					name = crew.Name
				}
				violations = append(violations, c.CreateViolation(
					a.CrewID, a.Date,
					fmt.Sprintf("船员 %s 在 %s 休假期间被排班", name, a.Date),
					penalty,
				))
				break
			}
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个分配
func (c *LeaveConflictRule) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	for _, leave := range ctx.LeavesFor(a.CrewID) {
		if leave.Covers(a.StartTime) {
			return false, c.Weight()
		}
	}
	return true, 0
}
