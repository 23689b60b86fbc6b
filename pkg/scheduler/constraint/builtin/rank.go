// Package builtin 提供内置排班规则实现
package builtin

import (
	"fmt"

	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/scheduler/constraint"
)

// RankMinimumRule 最低职级规则（硬规则）
// 班次模板声明了最低职级时，船员职级不得低于要求
// 未收录的职级不参与比较，不会因此排除船员
type RankMinimumRule struct {
	*BaseRule
}

// NewRankMinimumRule 创建最低职级规则
func NewRankMinimumRule() *RankMinimumRule {
	return &RankMinimumRule{
		BaseRule: NewBaseRule(
			"最低职级",
			constraint.TypeRankMinimum,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估整个排班
func (c *RankMinimumRule) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, a := range ctx.Assignments {
		shift := ctx.GetShift(a.ShiftID)
		if shift == nil || shift.MinRank == "" {
			continue
		}

		crew := ctx.GetCrew(a.CrewID)
		if crew == nil {
			continue
		}

		if !model.RankAtLeast(crew.Rank, shift.MinRank) {
			isValid = false
			penalty := c.Weight()
			totalPenalty += penalty

			violations = append(violations, c.CreateViolation(
				a.CrewID, a.Date,
				fmt.Sprintf("船员 %s 职级 %s 低于要求: %s", crew.Name, crew.Rank, shift.MinRank),
				penalty,
			))
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个分配
func (c *RankMinimumRule) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	shift := ctx.GetShift(a.ShiftID)
	if shift == nil || shift.MinRank == "" {
		return true, 0
	}

	crew := ctx.GetCrew(a.CrewID)
	if crew == nil {
		return false, c.Weight()
	}

	if !model.RankAtLeast(crew.Rank, shift.MinRank) {
		return false, c.Weight()
	}
	return true, 0
}
