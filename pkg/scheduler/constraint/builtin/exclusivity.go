// Package builtin 提供内置排班规则实现
package builtin

import (
	"fmt"

	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/scheduler/constraint"
)

// SameDayExclusiveRule 同日唯一规则（硬规则）
// 一名船员同一日历日最多承担一个班次
type SameDayExclusiveRule struct {
	*BaseRule
}

// NewSameDayExclusiveRule 创建同日唯一规则
func NewSameDayExclusiveRule() *SameDayExclusiveRule {
	return &SameDayExclusiveRule{
		BaseRule: NewBaseRule(
			"同日唯一",
			constraint.TypeSameDayExclusive,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估整个排班
func (c *SameDayExclusiveRule) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	// 按船员+日期统计
	seen := make(map[string]int)
	for _, a := range ctx.Assignments {
		key := a.CrewID.String() + "|" + a.Date
		seen[key]++
		if seen[key] == 2 { // 首次发现重复时记录
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
				fmt.Sprintf("船员 %s 在 %s 被排了多个班次", name, a.Date),
				penalty,
			))
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个分配
// 候选分配尚未加入上下文，同日已有任何排班即冲突
func (c *SameDayExclusiveRule) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	if ctx.HasAssignmentOn(a.CrewID, a.Date) {
		return false, c.Weight()
	}
	return true, 0
}
