// Package builtin 提供内置排班规则实现
package builtin

import (
	"fmt"

	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/scheduler/constraint"
)

// HorizonQuotaRule 周期班次配额规则（硬规则，按需启用）
// 限制单个船员在本次排班周期内的总班次数
type HorizonQuotaRule struct {
	*BaseRule
	maxShifts int
}

// NewHorizonQuotaRule 创建周期班次配额规则
func NewHorizonQuotaRule(maxShifts int) *HorizonQuotaRule {
	return &HorizonQuotaRule{
		BaseRule: NewBaseRule(
			"周期班次配额",
			constraint.TypeHorizonQuota,
			constraint.CategoryHard,
			100,
		),
		maxShifts: maxShifts,
	}
}

// Evaluate 评估整个排班
func (c *HorizonQuotaRule) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, crew := range ctx.Crew {
		count := ctx.AssignmentCount(crew.ID)
		if count > c.maxShifts {
			isValid = false
			penalty := c.Weight()
			totalPenalty += penalty

			violations = append(violations, c.CreateViolation(
				crew.ID, "",
				fmt.Sprintf("船员 %s 周期内排班 %d 次，超过配额 %d", crew.Name, count, c.maxShifts),
				penalty,
			))
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个分配
func (c *HorizonQuotaRule) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	if ctx.AssignmentCount(a.CrewID) >= c.maxShifts {
		return false, c.Weight()
	}
	return true, 0
}
