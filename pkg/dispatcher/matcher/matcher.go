// Package matcher 提供技能、距离与履历的综合匹配评分
package matcher

import (
	"sort"

	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/model"
)

// MatchScore 匹配评分
type MatchScore struct {
	CrewID        string   `json:"crew_id"`
	CrewName      string   `json:"crew_name"`
	TotalScore    float64  `json:"total_score"`
	SkillScore    float64  `json:"skill_score"`
	DistanceScore float64  `json:"distance_score"`
	HistoryScore  float64  `json:"history_score"`
	MatchedSkills []string `json:"matched_skills"`
	Distance      float64  `json:"distance_km"`
}

// SkillMatcher 技能匹配器
type SkillMatcher struct {
	skillWeights map[string]float64 // 技能权重
}

// NewSkillMatcher 创建技能匹配器
func NewSkillMatcher() *SkillMatcher {
	return &SkillMatcher{
		skillWeights: map[string]float64{
			// 甲板技能
			"navigation": 1.8,
			"deck":       1.0,
			"cargo_ops":  1.3,
			"crane":      1.2,
			// 轮机技能
			"engine":     1.5,
			"electrical": 1.4,
			"welding":    1.2,
			// 特种技能
			"dp":           2.0,
			"firefighting": 1.4,
			"medical":      1.3,
			// 默认权重
			"default": 1.0,
		},
	}
}

// MatchSkills 匹配技能，返回加权得分和命中的技能
func (m *SkillMatcher) MatchSkills(requiredSkills []string, member *model.CrewMember) (float64, []string) {
	if len(requiredSkills) == 0 {
		return 100, nil
	}

	owned := make(map[string]bool)
	for _, s := range member.Skills {
		owned[s] = true
	}

	matchedSkills := make([]string, 0)
	totalWeight := 0.0
	matchedWeight := 0.0

	for _, req := range requiredSkills {
		weight := m.skillWeights[req]
		if weight == 0 {
			weight = m.skillWeights["default"]
		}
		totalWeight += weight

		if owned[req] {
			matchedSkills = append(matchedSkills, req)
			matchedWeight += weight
		}
	}

	if totalWeight == 0 {
		return 100, matchedSkills
	}

	score := (matchedWeight / totalWeight) * 100
	return score, matchedSkills
}

// DistanceMatcher 距离匹配器
type DistanceMatcher struct {
	maxDistanceKm float64
}

// NewDistanceMatcher 创建距离匹配器
func NewDistanceMatcher(maxDistance float64) *DistanceMatcher {
	if maxDistance <= 0 {
		maxDistance = 6000
	}
	return &DistanceMatcher{
		maxDistanceKm: maxDistance,
	}
}

// CalculateDistance 计算两点距离
func (d *DistanceMatcher) CalculateDistance(loc1, loc2 *model.Location) float64 {
	if loc1 == nil || loc2 == nil {
		return 0
	}
	return loc1.Distance(*loc2)
}

// ScoreDistance 距离评分（距离越近分数越高）
func (d *DistanceMatcher) ScoreDistance(distance float64) float64 {
	if distance <= 0 {
		return 100
	}
	if distance >= d.maxDistanceKm {
		return 0
	}
	return (1 - distance/d.maxDistanceKm) * 100
}

// HistoryMatcher 服务履历匹配器
type HistoryMatcher struct{}

// NewHistoryMatcher 创建履历匹配器
func NewHistoryMatcher() *HistoryMatcher {
	return &HistoryMatcher{}
}

// ScoreHistory 根据船员在该船的服务履历评分
func (h *HistoryMatcher) ScoreHistory(crewID, vesselID uuid.UUID, history []model.CrewVesselHistory) float64 {
	for _, hist := range history {
		if hist.CrewID == crewID && hist.VesselID == vesselID {
			score := 0.0

			// 上船次数评分
			if hist.ServiceCount >= 10 {
				score += 30
			} else if hist.ServiceCount >= 5 {
				score += 20
			} else if hist.ServiceCount >= 2 {
				score += 10
			}

			// 累计在船天数评分
			if hist.TotalDays >= 365 {
				score += 30
			} else if hist.TotalDays >= 180 {
				score += 20
			} else if hist.TotalDays >= 30 {
				score += 10
			}

			// 常驻班底加分
			if hist.IsRegular {
				score += 20
			}

			return score
		}
	}

	return 0
}

// ComprehensiveMatcher 综合匹配器
type ComprehensiveMatcher struct {
	skillMatcher    *SkillMatcher
	distanceMatcher *DistanceMatcher
	historyMatcher  *HistoryMatcher

	// 权重配置
	skillWeight    float64
	distanceWeight float64
	historyWeight  float64
}

// NewComprehensiveMatcher 创建综合匹配器
func NewComprehensiveMatcher(maxDistance float64) *ComprehensiveMatcher {
	return &ComprehensiveMatcher{
		skillMatcher:    NewSkillMatcher(),
		distanceMatcher: NewDistanceMatcher(maxDistance),
		historyMatcher:  NewHistoryMatcher(),
		skillWeight:     0.4,
		distanceWeight:  0.35,
		historyWeight:   0.25,
	}
}

// SetWeights 设置权重
func (c *ComprehensiveMatcher) SetWeights(skill, distance, history float64) {
	total := skill + distance + history
	c.skillWeight = skill / total
	c.distanceWeight = distance / total
	c.historyWeight = history / total
}

// Match 综合匹配，结果按总分从高到低排序
func (c *ComprehensiveMatcher) Match(order *model.ReliefOrder, crew []*model.CrewMember, history []model.CrewVesselHistory) []MatchScore {
	scores := make([]MatchScore, 0, len(crew))

	for _, member := range crew {
		score := c.scoreCrew(order, member, history)
		scores = append(scores, score)
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].TotalScore > scores[j].TotalScore
	})

	return scores
}

// scoreCrew 评估单个船员
func (c *ComprehensiveMatcher) scoreCrew(order *model.ReliefOrder, member *model.CrewMember, history []model.CrewVesselHistory) MatchScore {
	// 技能评分
	skillScore, matchedSkills := c.skillMatcher.MatchSkills(order.Skills, member)

	// 距离评分（居住地到上船港）
	var distance float64
	var distanceScore float64 = 100
	if order.Position != nil && member.HomeLocation != nil {
		distance = member.HomeLocation.Distance(*order.Position)
		distanceScore = c.distanceMatcher.ScoreDistance(distance)
	}

	// 履历评分
	historyScore := c.historyMatcher.ScoreHistory(member.ID, order.VesselID, history)

	// 综合评分
	totalScore := skillScore*c.skillWeight + distanceScore*c.distanceWeight + historyScore*c.historyWeight

	return MatchScore{
		CrewID:        member.ID.String(),
		CrewName:      member.Name,
		TotalScore:    totalScore,
		SkillScore:    skillScore,
		DistanceScore: distanceScore,
		HistoryScore:  historyScore,
		MatchedSkills: matchedSkills,
		Distance:      distance,
	}
}

// FindBestMatch 找到最佳匹配
func (c *ComprehensiveMatcher) FindBestMatch(order *model.ReliefOrder, crew []*model.CrewMember, history []model.CrewVesselHistory) *MatchScore {
	scores := c.Match(order, crew, history)
	if len(scores) == 0 {
		return nil
	}
	return &scores[0]
}
