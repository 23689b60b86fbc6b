// Package builtin 提供内置排班规则实现
package builtin

import (
	"fmt"

	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/scheduler/constraint"
)

// SkillRequiredRule 技能要求规则（硬规则）
// 班次模板声明了必备技能时，船员必须具备该技能
type SkillRequiredRule struct {
	*BaseRule
}

// NewSkillRequiredRule 创建技能要求规则
func NewSkillRequiredRule() *SkillRequiredRule {
	return &SkillRequiredRule{
		BaseRule: NewBaseRule(
			"技能要求",
			constraint.TypeSkillRequired,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估整个排班
func (c *SkillRequiredRule) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, a := range ctx.Assignments {
		shift := ctx.GetShift(a.ShiftID)
		if shift == nil || shift.Skill == "" {
			continue
		}

		crew := ctx.GetCrew(a.CrewID)
		if crew == nil {
			continue
		}

		if !crew.HasSkill(shift.Skill) {
			isValid = false
			penalty := c.Weight()
			totalPenalty += penalty

			violations = append(violations, c.CreateViolation(
				a.CrewID, a.Date,
				fmt.Sprintf("船员 %s 缺少必备技能: %s", crew.Name, shift.Skill),
				penalty,
			))
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个分配
func (c *SkillRequiredRule) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	shift := ctx.GetShift(a.ShiftID)
	if shift == nil || shift.Skill == "" {
		return true, 0
	}

	crew := ctx.GetCrew(a.CrewID)
	if crew == nil {
		return false, c.Weight()
	}

	if !crew.HasSkill(shift.Skill) {
		return false, c.Weight()
	}
	return true, 0
}
