// Package builtin 提供内置排班规则实现
package builtin

import (
	"fmt"
	"math"

	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/scheduler/constraint"
)

// FairnessRule 负载公平规则（软规则）
// 船员当前排班数高于人均值时，按超出量乘以权重罚分
// 排班数低于人均值的船员不罚分，使排班向负载低的船员倾斜
type FairnessRule struct {
	*BaseRule
}

// NewFairnessRule 创建负载公平规则
func NewFairnessRule(weight int) *FairnessRule {
	return &FairnessRule{
		BaseRule: NewBaseRule(
			"负载公平",
			constraint.TypeFairness,
			constraint.CategorySoft,
			weight,
		),
	}
}

// Evaluate 评估整个排班
func (c *FairnessRule) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	if len(ctx.Crew) == 0 {
		return true, 0, nil
	}

	avg := ctx.AverageAssignments()
	for _, crew := range ctx.Crew {
		count := ctx.AssignmentCount(crew.ID)
		over := float64(count) - avg
		if over > 0 {
			penalty := int(over * float64(c.Weight()))
			totalPenalty += penalty

			violations = append(violations, c.CreateViolation(
				crew.ID, "",
				fmt.Sprintf("船员 %s 排班 %d 次，高于人均 %.1f 次", crew.Name, count, avg),
				penalty,
			))
		}
	}

	return true, totalPenalty, violations
}

// EvaluateAssignment 评估单个分配
func (c *FairnessRule) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	if len(ctx.Crew) == 0 {
		return true, 0
	}

	current := float64(ctx.AssignmentCount(a.CrewID))
	avg := ctx.AverageAssignments()
	penalty := int(math.Max(0, current-avg) * float64(c.Weight()))
	return true, penalty
}
