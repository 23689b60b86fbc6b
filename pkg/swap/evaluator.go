// Package swap 提供换班评估与推荐功能
package swap

import (
	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/scheduler/constraint"
	"github.com/crewplan/crewplan/pkg/validator"
)

// SwapEvaluator 换班评估器
type SwapEvaluator struct {
	manager  *constraint.Manager
	detector *validator.ConflictDetector
}

// NewSwapEvaluator 创建换班评估器
func NewSwapEvaluator(m *constraint.Manager) *SwapEvaluator {
	return &SwapEvaluator{
		manager:  m,
		detector: validator.NewConflictDetector(nil),
	}
}

// SwapRequest 换班请求
type SwapRequest struct {
	Source           *model.Assignment `json:"source"`                      // 需要让出的班次
	TargetCrew       *model.CrewMember `json:"target_crew"`                 // 接班船员
	TargetAssignment *model.Assignment `json:"target_assignment,omitempty"` // 互换时目标船员让出的班次
}

// SwapEvaluation 换班评估结果
type SwapEvaluation struct {
	Feasible       bool        `json:"feasible"`
	Score          float64     `json:"score"` // 0-100
	Issues         []SwapIssue `json:"issues"`
	Impact         *SwapImpact `json:"impact"`
	Recommendation string      `json:"recommendation"`
}

// SwapIssue 换班问题
type SwapIssue struct {
	Type     string `json:"type"`
	Severity string `json:"severity"` // error/warning
	Message  string `json:"message"`
}

// SwapImpact 换班影响
type SwapImpact struct {
	SourceCrewImpact   *CrewImpact `json:"source_crew_impact"`
	TargetCrewImpact   *CrewImpact `json:"target_crew_impact"`
	OverallScoreChange float64     `json:"overall_score_change"`
}

// CrewImpact 单个船员受到的影响
type CrewImpact struct {
	HoursChange         float64 `json:"hours_change"`
	NightShiftChange    int     `json:"night_shift_change"`
	PreferenceSatisfied bool    `json:"preference_satisfied"`
	NewConflicts        int     `json:"new_conflicts"`
}

// EvaluateSwap 评估换班可行性
func (e *SwapEvaluator) EvaluateSwap(ctx *constraint.Context, request *SwapRequest) *SwapEvaluation {
	result := &SwapEvaluation{
		Feasible: true,
		Score:    100,
		Issues:   make([]SwapIssue, 0),
		Impact: &SwapImpact{
			SourceCrewImpact: &CrewImpact{PreferenceSatisfied: true},
			TargetCrewImpact: &CrewImpact{PreferenceSatisfied: true},
		},
	}

	if request == nil || request.Source == nil || request.TargetCrew == nil {
		result.Feasible = false
		result.Issues = append(result.Issues, SwapIssue{
			Type:     "invalid_request",
			Severity: "error",
			Message:  "无效的换班请求",
		})
		return result
	}

	source := request.Source
	target := request.TargetCrew

	if !target.IsActive() {
		result.Feasible = false
		result.Issues = append(result.Issues, SwapIssue{
			Type:     "crew_inactive",
			Severity: "error",
			Message:  "目标船员不在册",
		})
		return result
	}

	// 班次模板的硬性门槛：技能、证书、职级
	if shift := ctx.GetShift(source.ShiftID); shift != nil {
		if shift.Skill != "" && !target.HasSkill(shift.Skill) {
			result.Feasible = false
			result.Issues = append(result.Issues, SwapIssue{
				Type:     "skill_mismatch",
				Severity: "error",
				Message:  "目标船员缺少必备技能: " + shift.Skill,
			})
		}
		if shift.Cert != "" && !model.HasValidCertification(ctx.CertificationsFor(target.ID), shift.Cert, source.Date) {
			result.Feasible = false
			result.Issues = append(result.Issues, SwapIssue{
				Type:     "certification_invalid",
				Severity: "error",
				Message:  "目标船员缺少有效证书: " + shift.Cert,
			})
		}
		if shift.MinRank != "" && !model.RankAtLeast(target.Rank, shift.MinRank) {
			result.Feasible = false
			result.Issues = append(result.Issues, SwapIssue{
				Type:     "rank_below_minimum",
				Severity: "error",
				Message:  "目标船员职级不满足: " + shift.MinRank,
			})
		}
	}
	if !result.Feasible {
		return result
	}

	// 模拟换班后的完整方案并检测冲突
	simulated := e.simulate(ctx, request)
	involved := map[uuid.UUID]bool{target.ID: true}
	if request.TargetAssignment != nil {
		involved[source.CrewID] = true
	}

	conflicts := e.detector.DetectAll(&validator.Input{
		// 换班不改变人数账，不传 Days 以跳过覆盖核对
		Shifts:         ctx.Shifts,
		Crew:           ctx.Crew,
		Leaves:         ctx.Leaves,
		PortCalls:      ctx.PortCalls,
		Drydocks:       ctx.Drydocks,
		Certifications: ctx.ExtraCertifications(),
		Scheduled:      simulated,
	})
	for _, conflict := range conflicts {
		if !involved[conflict.CrewID] {
			continue
		}
		result.Issues = append(result.Issues, SwapIssue{
			Type:     string(conflict.Type),
			Severity: conflict.Severity,
			Message:  conflict.Message,
		})
		if conflict.Severity == "error" {
			result.Feasible = false
		}
		if conflict.CrewID == target.ID {
			result.Impact.TargetCrewImpact.NewConflicts++
		} else {
			result.Impact.SourceCrewImpact.NewConflicts++
		}
	}

	// 规则管理器整体评估：换班前后得分对比
	if e.manager != nil {
		baseline := e.manager.Evaluate(ctx)
		simCtx := ctx.CloneWithAssignments(simulated)
		evaluated := e.manager.Evaluate(simCtx)

		if !evaluated.IsValid {
			for _, v := range evaluated.HardViolations {
				if !involved[v.CrewID] {
					continue
				}
				result.Feasible = false
				result.Issues = append(result.Issues, SwapIssue{
					Type:     string(v.ConstraintType),
					Severity: "error",
					Message:  v.Message,
				})
			}
		}

		result.Score = evaluated.Score
		result.Impact.OverallScoreChange = evaluated.Score - baseline.Score
	}

	e.calculateImpact(ctx, request, result)
	result.Recommendation = e.generateRecommendation(result)

	return result
}

// CanSwap 快速检查是否可换班
func (e *SwapEvaluator) CanSwap(ctx *constraint.Context, request *SwapRequest) (bool, string) {
	result := e.EvaluateSwap(ctx, request)
	if !result.Feasible {
		if len(result.Issues) > 0 {
			return false, result.Issues[0].Message
		}
		return false, "无法进行换班"
	}
	return true, ""
}

// simulate 生成换班后的排班列表
// 接管：源班次改由目标船员承担；互换：目标班次同时改由源船员承担
func (e *SwapEvaluator) simulate(ctx *constraint.Context, request *SwapRequest) []*model.Assignment {
	simulated := make([]*model.Assignment, 0, len(ctx.Assignments))

	for _, a := range ctx.Assignments {
		switch {
		case sameAssignment(a, request.Source):
			swapped := *a
			swapped.CrewID = request.TargetCrew.ID
			simulated = append(simulated, &swapped)
		case request.TargetAssignment != nil && sameAssignment(a, request.TargetAssignment):
			swapped := *a
			swapped.CrewID = request.Source.CrewID
			simulated = append(simulated, &swapped)
		default:
			simulated = append(simulated, a)
		}
	}

	return simulated
}

// calculateImpact 计算换班对双方工时、夜班与偏好的影响
func (e *SwapEvaluator) calculateImpact(ctx *constraint.Context, request *SwapRequest, result *SwapEvaluation) {
	source := request.Source
	target := request.TargetCrew

	sourceImpact := result.Impact.SourceCrewImpact
	targetImpact := result.Impact.TargetCrewImpact

	sourceImpact.HoursChange = -source.WorkingHours()
	targetImpact.HoursChange = source.WorkingHours()
	if source.IsNight() {
		sourceImpact.NightShiftChange = -1
		targetImpact.NightShiftChange = 1
	}

	if request.TargetAssignment != nil {
		back := request.TargetAssignment
		sourceImpact.HoursChange += back.WorkingHours()
		targetImpact.HoursChange -= back.WorkingHours()
		if back.IsNight() {
			sourceImpact.NightShiftChange++
			targetImpact.NightShiftChange--
		}
	}

	targetImpact.PreferenceSatisfied = !prefersDayOff(ctx, target.ID, source.Date)
	if request.TargetAssignment != nil {
		sourceImpact.PreferenceSatisfied = !prefersDayOff(ctx, source.CrewID, request.TargetAssignment.Date)
	}
}

// generateRecommendation 生成换班建议
func (e *SwapEvaluator) generateRecommendation(result *SwapEvaluation) string {
	if !result.Feasible {
		return "不建议进行此换班，存在硬规则冲突"
	}

	if result.Score >= 90 {
		return "强烈推荐，换班后整体效果良好"
	} else if result.Score >= 70 {
		return "可以进行，但存在一些软规则提醒"
	} else if result.Score >= 50 {
		return "谨慎进行，可能影响整体排班质量"
	}
	return "不推荐，虽然可行但会显著降低排班质量"
}

// sameAssignment 按 (日期, 班次, 船员) 判断是否同一条分配
func sameAssignment(a, b *model.Assignment) bool {
	return a.Date == b.Date && a.ShiftID == b.ShiftID && a.CrewID == b.CrewID
}

// prefersDayOff 检查某日期是否在船员的期望休息日内
func prefersDayOff(ctx *constraint.Context, crewID uuid.UUID, date string) bool {
	prefs := ctx.Preferences.PrefsFor(crewID)
	for _, d := range prefs.DaysOff {
		if d == date {
			return true
		}
	}
	if member := ctx.GetCrew(crewID); member != nil && member.Preferences != nil {
		for _, d := range member.Preferences.DaysOff {
			if d == date {
				return true
			}
		}
	}
	return false
}
