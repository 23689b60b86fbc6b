// Package builtin 提供内置排班规则实现
package builtin

import (
	"fmt"

	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/scheduler/constraint"
)

// CertificationRule 证书有效性规则（硬规则）
// 班次模板声明了必备证书时，船员须持有该证书且在班次日期未过期
// 到期日当天仍视为有效
type CertificationRule struct {
	*BaseRule
}

// NewCertificationRule 创建证书有效性规则
func NewCertificationRule() *CertificationRule {
	return &CertificationRule{
		BaseRule: NewBaseRule(
			"证书有效性",
			constraint.TypeCertificationValid,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估整个排班
func (c *CertificationRule) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, a := range ctx.Assignments {
		shift := ctx.GetShift(a.ShiftID)
		if shift == nil || shift.Cert == "" {
			continue
		}

		if !model.HasValidCertification(ctx.CertificationsFor(a.CrewID), shift.Cert, a.Date) {
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
				fmt.Sprintf("船员 %s 在 %s 缺少有效证书: %s", name, a.Date, shift.Cert),
				penalty,
			))
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个分配
func (c *CertificationRule) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	shift := ctx.GetShift(a.ShiftID)
	if shift == nil || shift.Cert == "" {
		return true, 0
	}

	if !model.HasValidCertification(ctx.CertificationsFor(a.CrewID), shift.Cert, a.Date) {
		return false, c.Weight()
	}
	return true, 0
}
