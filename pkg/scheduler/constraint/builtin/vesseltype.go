// Package builtin 提供内置排班规则实现
package builtin

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/scheduler/constraint"
)

// VesselTypeCertRule 船型证书规则（硬规则，按需启用）
// 特定船型要求值班船员持有对应的有效证书，如油轮须持油轮适任签注
type VesselTypeCertRule struct {
	*BaseRule
	vesselTypes map[uuid.UUID]model.VesselType
	certByType  map[model.VesselType]string
}

// NewVesselTypeCertRule 创建船型证书规则
func NewVesselTypeCertRule(vesselTypes map[uuid.UUID]model.VesselType, certByType map[model.VesselType]string) *VesselTypeCertRule {
	return &VesselTypeCertRule{
		BaseRule: NewBaseRule(
			"船型证书",
			constraint.TypeVesselTypeCert,
			constraint.CategoryHard,
			100,
		),
		vesselTypes: vesselTypes,
		certByType:  certByType,
	}
}

// requiredCert 返回船舶对应的证书代码，无要求时为空
func (c *VesselTypeCertRule) requiredCert(vesselID uuid.UUID) string {
	t, ok := c.vesselTypes[vesselID]
	if !ok {
		return ""
	}
	return c.certByType[t]
}

// Evaluate 评估整个排班
func (c *VesselTypeCertRule) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, a := range ctx.Assignments {
		code := c.requiredCert(a.VesselID)
		if code == "" {
			continue
		}

		if !model.HasValidCertification(ctx.CertificationsFor(a.CrewID), code, a.Date) {
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
				fmt.Sprintf("船员 %s 缺少船型要求的有效证书: %s", name, code),
				penalty,
			))
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个分配
func (c *VesselTypeCertRule) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	code := c.requiredCert(a.VesselID)
	if code == "" {
		return true, 0
	}

	if !model.HasValidCertification(ctx.CertificationsFor(a.CrewID), code, a.Date) {
		return false, c.Weight()
	}
	return true, 0
}
