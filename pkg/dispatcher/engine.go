// Package dispatcher 提供换班调派引擎
package dispatcher

import (
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/dispatcher/constraint"
	"github.com/crewplan/crewplan/pkg/model"
)

// 候选人数达到该阈值时改用并行评估
const parallelThreshold = 16

// DispatchEngine 调派引擎
type DispatchEngine struct {
	constraints []constraint.DispatchConstraint
	workers     int
}

// NewDispatchEngine 创建调派引擎
func NewDispatchEngine() *DispatchEngine {
	return &DispatchEngine{
		constraints: constraint.DefaultDispatchConstraints(),
		workers:     4,
	}
}

// NewDispatchEngineWithConstraints 创建带自定义约束的调派引擎
func NewDispatchEngineWithConstraints(constraints []constraint.DispatchConstraint) *DispatchEngine {
	return &DispatchEngine{
		constraints: constraints,
		workers:     4,
	}
}

// DispatchRequest 调派请求
type DispatchRequest struct {
	Order      *model.ReliefOrder
	Candidates []*model.CrewMember
	Vessel     *model.Vessel
	OpenOrders []*model.ReliefOrder // 窗口内已指派的调派单
	History    []model.CrewVesselHistory
	Leaves     []model.LeaveRecord
	MaxResults int
}

// DispatchResponse 调派结果
type DispatchResponse struct {
	OrderNo      string           `json:"order_no"`
	Success      bool             `json:"success"`
	BestMatch    *CandidateScore  `json:"best_match,omitempty"`
	Alternatives []CandidateScore `json:"alternatives,omitempty"`
	Reason       string           `json:"reason,omitempty"`
}

// CandidateScore 候选船员评分
type CandidateScore struct {
	Crew         *model.CrewMember `json:"crew"`
	Score        float64           `json:"score"`
	Feasible     bool              `json:"feasible"`
	Violations   []string          `json:"violations,omitempty"`
	MatchReasons []string          `json:"match_reasons,omitempty"`
	Distance     float64           `json:"distance_km,omitempty"`
}

// Dispatch 执行调派
func (e *DispatchEngine) Dispatch(req *DispatchRequest) *DispatchResponse {
	if req.Order == nil || len(req.Candidates) == 0 {
		return &DispatchResponse{
			Success: false,
			Reason:  "缺少调派单或候选船员",
		}
	}

	log.Printf("开始调派: 单号=%s, 候选=%d", req.Order.OrderNo, len(req.Candidates))

	// 评估所有候选船员
	scores := e.evaluateCandidates(req)

	// 按分数排序（分数越低越好）
	sort.SliceStable(scores, func(i, j int) bool {
		// 可行解优先
		if scores[i].Feasible != scores[j].Feasible {
			return scores[i].Feasible
		}
		return scores[i].Score < scores[j].Score
	})

	// 过滤可行解
	var feasibleScores []CandidateScore
	for _, s := range scores {
		if s.Feasible {
			feasibleScores = append(feasibleScores, s)
		}
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	if len(feasibleScores) == 0 {
		// 没有可行解
		return &DispatchResponse{
			OrderNo:      req.Order.OrderNo,
			Success:      false,
			Reason:       "没有符合条件的船员",
			Alternatives: limitCandidates(scores, maxResults),
		}
	}

	response := &DispatchResponse{
		OrderNo:   req.Order.OrderNo,
		Success:   true,
		BestMatch: &feasibleScores[0],
	}

	if len(feasibleScores) > 1 {
		response.Alternatives = limitCandidates(feasibleScores[1:], maxResults-1)
	}

	log.Printf("调派完成: 单号=%s, 最佳人选=%s, 得分=%.2f, 备选=%d",
		req.Order.OrderNo, feasibleScores[0].Crew.Name, feasibleScores[0].Score, len(response.Alternatives))

	return response
}

// evaluateCandidates 评估所有候选船员
// 候选较多时分发给工作协程，结果按下标回填，顺序与输入一致
func (e *DispatchEngine) evaluateCandidates(req *DispatchRequest) []CandidateScore {
	scores := make([]CandidateScore, len(req.Candidates))

	if len(req.Candidates) < parallelThreshold {
		for i, member := range req.Candidates {
			scores[i] = e.evaluateCandidate(member, req)
		}
		return scores
	}

	type job struct {
		index  int
		member *model.CrewMember
	}
	type result struct {
		index int
		score CandidateScore
	}

	jobChan := make(chan job, len(req.Candidates))
	resultChan := make(chan result, len(req.Candidates))

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobChan {
				resultChan <- result{index: j.index, score: e.evaluateCandidate(j.member, req)}
			}
		}()
	}

	for i, member := range req.Candidates {
		jobChan <- job{index: i, member: member}
	}
	close(jobChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for r := range resultChan {
		scores[r.index] = r.score
	}

	return scores
}

// evaluateCandidate 评估单个候选船员
func (e *DispatchEngine) evaluateCandidate(member *model.CrewMember, req *DispatchRequest) CandidateScore {
	score := CandidateScore{
		Crew:     member,
		Feasible: true,
		Score:    0,
	}

	// 该船员名下的调派单
	var crewOrders []*model.ReliefOrder
	for _, order := range req.OpenOrders {
		if order.CrewID != nil && *order.CrewID == member.ID {
			crewOrders = append(crewOrders, order)
		}
	}

	// 该船员的休假记录
	var leaves []model.LeaveRecord
	for _, leave := range req.Leaves {
		if leave.CrewID == member.ID {
			leaves = append(leaves, leave)
		}
	}

	dctx := &constraint.DispatchContext{
		Vessel:     req.Vessel,
		OpenOrders: req.OpenOrders,
		CrewOrders: crewOrders,
		History:    req.History,
		Leaves:     leaves,
	}

	// 评估所有约束
	for _, c := range e.constraints {
		valid, penalty, violation := c.Evaluate(req.Order, member, dctx)

		if !valid {
			score.Feasible = false
			score.Violations = append(score.Violations, violation)
			score.Score += penalty
		} else if penalty != 0 {
			score.Score += penalty
			if penalty < 0 {
				// 奖励转为匹配原因
				score.MatchReasons = append(score.MatchReasons, c.Name()+": 匹配")
			}
		}
	}

	if member.HomeLocation != nil && req.Order.Position != nil {
		score.Distance = member.HomeLocation.Distance(*req.Order.Position)
	}

	return score
}

// BatchDispatch 批量调派
// 优先级高的调派单先处理，已指派结果滚动计入后续调派的任务冲突检查
func (e *DispatchEngine) BatchDispatch(orders []*model.ReliefOrder, candidates []*model.CrewMember, vessels []*model.Vessel, history []model.CrewVesselHistory, leaves []model.LeaveRecord) []*DispatchResponse {
	vesselByID := make(map[uuid.UUID]*model.Vessel, len(vessels))
	for _, v := range vessels {
		vesselByID[v.ID] = v
	}

	sorted := make([]*model.ReliefOrder, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	// 已指派的调派单（用于任务冲突检查）
	assigned := make([]*model.ReliefOrder, 0)
	for _, order := range sorted {
		if order.IsAssigned() {
			assigned = append(assigned, order)
		}
	}

	responses := make([]*DispatchResponse, 0, len(sorted))

	for _, order := range sorted {
		if !order.NeedsDispatch() {
			responses = append(responses, &DispatchResponse{
				OrderNo: order.OrderNo,
				Success: false,
				Reason:  "调派单已有人选",
			})
			continue
		}

		req := &DispatchRequest{
			Order:      order,
			Candidates: candidates,
			Vessel:     vesselByID[order.VesselID],
			OpenOrders: assigned,
			History:    history,
			Leaves:     leaves,
			MaxResults: 3,
		}

		resp := e.Dispatch(req)
		responses = append(responses, resp)

		// 调派成功则记录指派
		if resp.Success && resp.BestMatch != nil {
			orderCopy := *order
			crewID := resp.BestMatch.Crew.ID
			orderCopy.CrewID = &crewID
			orderCopy.Status = "assigned"
			assigned = append(assigned, &orderCopy)
		}
	}

	return responses
}

// limitCandidates 限制候选数量
func limitCandidates(scores []CandidateScore, max int) []CandidateScore {
	if len(scores) <= max {
		return scores
	}
	return scores[:max]
}

// OptimalRoute 规划多港巡回的访问顺序（贪心最近邻）
func (e *DispatchEngine) OptimalRoute(orders []*model.ReliefOrder, startLocation *model.Location) []*model.ReliefOrder {
	if len(orders) <= 1 || startLocation == nil {
		return orders
	}

	result := make([]*model.ReliefOrder, 0, len(orders))
	remaining := make([]*model.ReliefOrder, len(orders))
	copy(remaining, orders)

	currentLoc := *startLocation

	for len(remaining) > 0 {
		minDist := -1.0
		minIdx := 0

		for i, order := range remaining {
			if order.Position == nil {
				continue
			}
			dist := currentLoc.Distance(*order.Position)
			if minDist < 0 || dist < minDist {
				minDist = dist
				minIdx = i
			}
		}

		result = append(result, remaining[minIdx])

		if remaining[minIdx].Position != nil {
			currentLoc = *remaining[minIdx].Position
		}

		remaining = append(remaining[:minIdx], remaining[minIdx+1:]...)
	}

	return result
}
