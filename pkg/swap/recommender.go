package swap

import (
	"hash/fnv"
	"sort"

	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/scheduler/constraint"
)

// Recommender 换班推荐器
type Recommender struct {
	evaluator *SwapEvaluator
}

// NewRecommender 创建换班推荐器
func NewRecommender(m *constraint.Manager) *Recommender {
	return &Recommender{
		evaluator: NewSwapEvaluator(m),
	}
}

// Recommendation 换班推荐
type Recommendation struct {
	TargetCrew    *model.CrewMember `json:"target_crew"`
	Assignment    *model.Assignment `json:"assignment,omitempty"` // 互换时目标船员让出的班次
	Score         float64           `json:"score"`
	Reason        string            `json:"reason"`
	SwapType      string            `json:"swap_type"` // take_over/exchange
	ImpactSummary string            `json:"impact_summary"`
	Rank          int               `json:"rank"`
}

// RecommendOptions 推荐选项
type RecommendOptions struct {
	MaxRecommendations int         // 最大推荐数量
	PreferredCrew      []uuid.UUID // 优先考虑的船员
	ExcludeCrew        []uuid.UUID // 排除的船员
	AllowExchange      bool        // 是否允许互换
	MinScore           float64     // 最低得分
}

// DefaultRecommendOptions 返回默认选项
func DefaultRecommendOptions() *RecommendOptions {
	return &RecommendOptions{
		MaxRecommendations: 5,
		AllowExchange:      true,
		MinScore:           60,
	}
}

// RecommendSwapTargets 为需要让出的班次推荐接班船员
func (r *Recommender) RecommendSwapTargets(ctx *constraint.Context, source *model.Assignment, options *RecommendOptions) []Recommendation {
	if options == nil {
		options = DefaultRecommendOptions()
	}

	excludeSet := make(map[uuid.UUID]bool)
	excludeSet[source.CrewID] = true
	for _, id := range options.ExcludeCrew {
		excludeSet[id] = true
	}

	preferredSet := make(map[uuid.UUID]bool)
	for _, id := range options.PreferredCrew {
		preferredSet[id] = true
	}

	var candidates []Recommendation
	seen := make(map[uint64]bool) // 已评估方案的指纹，互换候选去重

	for _, member := range ctx.Crew {
		if excludeSet[member.ID] || !member.IsActive() {
			continue
		}

		request := &SwapRequest{Source: source, TargetCrew: member}
		evaluation := r.evaluator.EvaluateSwap(ctx, request)

		if evaluation.Feasible && evaluation.Score >= options.MinScore {
			candidate := Recommendation{
				TargetCrew:    member,
				Score:         evaluation.Score,
				SwapType:      "take_over",
				Reason:        r.generateReason(evaluation),
				ImpactSummary: r.generateImpactSummary(evaluation),
			}
			if preferredSet[member.ID] {
				candidate.Score += 10
			}
			candidates = append(candidates, candidate)
			seen[planFingerprint(r.evaluator.simulate(ctx, request))] = true
		}

		if options.AllowExchange {
			candidates = append(candidates, r.findExchangeCandidates(ctx, source, member, options, seen)...)
		}
	}

	// 得分降序，同分保持遍历顺序
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > options.MaxRecommendations {
		candidates = candidates[:options.MaxRecommendations]
	}
	for i := range candidates {
		candidates[i].Rank = i + 1
	}

	return candidates
}

// findExchangeCandidates 查找与目标船员互换班次的候选
func (r *Recommender) findExchangeCandidates(
	ctx *constraint.Context,
	source *model.Assignment,
	target *model.CrewMember,
	options *RecommendOptions,
	seen map[uint64]bool,
) []Recommendation {
	var candidates []Recommendation

	for _, back := range ctx.GetCrewAssignments(target.ID) {
		// 同日互换没有意义
		if back.Date == source.Date {
			continue
		}

		request := &SwapRequest{
			Source:           source,
			TargetCrew:       target,
			TargetAssignment: back,
		}

		fingerprint := planFingerprint(r.evaluator.simulate(ctx, request))
		if seen[fingerprint] {
			continue
		}
		seen[fingerprint] = true

		evaluation := r.evaluator.EvaluateSwap(ctx, request)
		if !evaluation.Feasible || evaluation.Score < options.MinScore {
			continue
		}

		candidates = append(candidates, Recommendation{
			TargetCrew:    target,
			Assignment:    back,
			Score:         evaluation.Score,
			SwapType:      "exchange",
			Reason:        "互换班次，双方工时更平衡",
			ImpactSummary: r.generateImpactSummary(evaluation),
		})
	}

	return candidates
}

// generateReason 生成推荐原因
func (r *Recommender) generateReason(evaluation *SwapEvaluation) string {
	if len(evaluation.Issues) == 0 {
		return "无规则冲突"
	}

	warningCount := 0
	for _, issue := range evaluation.Issues {
		if issue.Severity == "warning" {
			warningCount++
		}
	}
	if warningCount > 0 && warningCount <= 2 {
		return "仅有少量软规则提醒"
	}
	return "可以接替此班次"
}

// generateImpactSummary 生成影响摘要
func (r *Recommender) generateImpactSummary(evaluation *SwapEvaluation) string {
	if evaluation.Impact == nil || evaluation.Impact.TargetCrewImpact == nil {
		return "影响较小"
	}

	impact := evaluation.Impact.TargetCrewImpact
	if impact.HoursChange > 0 {
		return "目标船员增加工时，更接近平均水平"
	} else if impact.HoursChange < 0 {
		return "目标船员减少工时"
	}
	return "对双方工时影响均衡"
}

// FindBestSwapMatch 为休假船员找到某日班次的最佳顶替
func (r *Recommender) FindBestSwapMatch(ctx *constraint.Context, crewID uuid.UUID, date string) *Recommendation {
	var source *model.Assignment
	for _, a := range ctx.GetCrewAssignments(crewID) {
		if a.Date == date {
			source = a
			break
		}
	}
	if source == nil {
		return nil
	}

	recommendations := r.RecommendSwapTargets(ctx, source, &RecommendOptions{
		MaxRecommendations: 1,
		MinScore:           50,
	})
	if len(recommendations) == 0 {
		return nil
	}
	return &recommendations[0]
}

// AutoAssignSwap 自动换班：取最佳推荐并生成接班后的分配
// 无人达到自动换班分数线时返回 nil
func (r *Recommender) AutoAssignSwap(ctx *constraint.Context, source *model.Assignment) *model.Assignment {
	recommendations := r.RecommendSwapTargets(ctx, source, &RecommendOptions{
		MaxRecommendations: 1,
		MinScore:           70, // 自动换班要求更高得分
	})
	if len(recommendations) == 0 {
		return nil
	}

	swapped := *source
	swapped.CrewID = recommendations[0].TargetCrew.ID
	return &swapped
}

// planFingerprint 计算一份排班方案的指纹
func planFingerprint(assignments []*model.Assignment) uint64 {
	h := fnv.New64a()
	for _, a := range assignments {
		h.Write([]byte(a.Date))
		h.Write(a.ShiftID[:])
		h.Write(a.CrewID[:])
	}
	return h.Sum64()
}
