// Package builtin 提供内置排班规则实现
package builtin

import (
	"fmt"

	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/scheduler/constraint"
)

// NightCapRule 夜班上限规则（硬规则）
// 本次运行内夜班数已达上限的船员不再参与夜班
// 上限取排班偏好中的 max_nights_per_week
type NightCapRule struct {
	*BaseRule
}

// NewNightCapRule 创建夜班上限规则
func NewNightCapRule() *NightCapRule {
	return &NightCapRule{
		BaseRule: NewBaseRule(
			"夜班上限",
			constraint.TypeNightCap,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估整个排班
func (c *NightCapRule) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	max := ctx.MaxNightsPerWeek()
	for _, crew := range ctx.Crew {
		nights := 0
		for _, a := range ctx.GetCrewAssignments(crew.ID) {
			if a.IsNight() {
				nights++
			}
		}
		if nights > max {
			isValid = false
			penalty := c.Weight()
			totalPenalty += penalty

			violations = append(violations, c.CreateViolation(
				crew.ID, "",
				fmt.Sprintf("船员 %s 夜班 %d 次，超过上限 %d", crew.Name, nights, max),
				penalty,
			))
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个分配
func (c *NightCapRule) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	if !a.IsNight() {
		return true, 0
	}
	if ctx.NightCount(a.CrewID) >= ctx.MaxNightsPerWeek() {
		return false, c.Weight()
	}
	return true, 0
}

// NightOverageRule 夜班超额规则（软规则）
// 夜班数达到或超过上限时，每超一档按权重累进罚分
// 常规排班路径中硬规则已拦截超额，本规则主要在校验既有方案时生效
type NightOverageRule struct {
	*BaseRule
}

// NewNightOverageRule 创建夜班超额规则
func NewNightOverageRule(weight int) *NightOverageRule {
	return &NightOverageRule{
		BaseRule: NewBaseRule(
			"夜班超额",
			constraint.TypeNightOverage,
			constraint.CategorySoft,
			weight,
		),
	}
}

// Evaluate 评估整个排班
func (c *NightOverageRule) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	max := ctx.MaxNightsPerWeek()
	for _, crew := range ctx.Crew {
		nights := 0
		for _, a := range ctx.GetCrewAssignments(crew.ID) {
			if a.IsNight() {
				nights++
			}
		}
		if nights > max {
			penalty := (nights - max) * c.Weight()
			totalPenalty += penalty

			violations = append(violations, c.CreateViolation(
				crew.ID, "",
				fmt.Sprintf("船员 %s 夜班 %d 次，超出期望上限 %d", crew.Name, nights, max),
				penalty,
			))
		}
	}

	return true, totalPenalty, violations
}

// EvaluateAssignment 评估单个分配
func (c *NightOverageRule) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	if !a.IsNight() {
		return true, 0
	}

	nights := ctx.NightCount(a.CrewID)
	max := ctx.MaxNightsPerWeek()
	if nights >= max {
		return true, (nights - max + 1) * c.Weight()
	}
	return true, 0
}
