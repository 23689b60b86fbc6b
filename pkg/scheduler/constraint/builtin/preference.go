// Package builtin 提供内置排班规则实现
package builtin

import (
	"fmt"

	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/scheduler/constraint"
)

// DayOffPreferenceRule 期望休息日规则（软规则）
// 班次日期落在船员期望休息日时记一次固定罚分
type DayOffPreferenceRule struct {
	*BaseRule
}

// NewDayOffPreferenceRule 创建期望休息日规则
func NewDayOffPreferenceRule(weight int) *DayOffPreferenceRule {
	return &DayOffPreferenceRule{
		BaseRule: NewBaseRule(
			"期望休息日",
			constraint.TypeDayOffPreference,
			constraint.CategorySoft,
			weight,
		),
	}
}

// Evaluate 评估整个排班
func (c *DayOffPreferenceRule) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for _, a := range ctx.Assignments {
		if onPreferredDayOff(ctx, a) {
			penalty := c.Weight()
			totalPenalty += penalty

			crew := ctx.GetCrew(a.CrewID)
			name := a.CrewID.String()
			if crew != nil {
				name = crew.Name
			}
			violations = append(violations, c.CreateViolation(
				a.CrewID, a.Date,
				fmt.Sprintf("船员 %s 在期望休息日 %s 被排班", name, a.Date),
				penalty,
			))
		}
	}

	return true, totalPenalty, violations
}

// EvaluateAssignment 评估单个分配
func (c *DayOffPreferenceRule) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	if onPreferredDayOff(ctx, a) {
		return true, c.Weight()
	}
	return true, 0
}

// onPreferredDayOff 检查分配是否落在期望休息日
func onPreferredDayOff(ctx *constraint.Context, a *model.Assignment) bool {
	prefs := ctx.Preferences.PrefsFor(a.CrewID)
	for _, d := range prefs.DaysOff {
		if d == a.Date {
			return true
		}
	}
	return false
}

// VesselPreferenceRule 偏好船舶规则（软规则）
// 船员设定了偏好船舶且班次不在该船舶上时记一次固定罚分
type VesselPreferenceRule struct {
	*BaseRule
}

// NewVesselPreferenceRule 创建偏好船舶规则
func NewVesselPreferenceRule(weight int) *VesselPreferenceRule {
	return &VesselPreferenceRule{
		BaseRule: NewBaseRule(
			"偏好船舶",
			constraint.TypeVesselPreference,
			constraint.CategorySoft,
			weight,
		),
	}
}

// Evaluate 评估整个排班
func (c *VesselPreferenceRule) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for _, a := range ctx.Assignments {
		if offPreferredVessel(ctx, a) {
			penalty := c.Weight()
			totalPenalty += penalty

			crew := ctx.GetCrew(a.CrewID)
			name := a.CrewID.String()
			if crew != nil {
				name = crew.Name
			}
			violations = append(violations, c.CreateViolation(
				a.CrewID, a.Date,
				fmt.Sprintf("船员 %s 被排往非偏好船舶", name),
				penalty,
			))
		}
	}

	return true, totalPenalty, violations
}

// EvaluateAssignment 评估单个分配
func (c *VesselPreferenceRule) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	if offPreferredVessel(ctx, a) {
		return true, c.Weight()
	}
	return true, 0
}

// offPreferredVessel 检查分配是否偏离偏好船舶
func offPreferredVessel(ctx *constraint.Context, a *model.Assignment) bool {
	prefs := ctx.Preferences.PrefsFor(a.CrewID)
	return prefs.PreferredVesselID != nil && *prefs.PreferredVesselID != a.VesselID
}
