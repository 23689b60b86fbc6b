// Package handler 提供API处理器
package handler

import (
	"log"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/crewplan/crewplan/internal/fleet"
	"github.com/crewplan/crewplan/pkg/dispatcher"
	"github.com/crewplan/crewplan/pkg/model"
)

// ReliefRequest 换班调派API请求
type ReliefRequest struct {
	Order      *model.ReliefOrder        `json:"order"`
	Candidates []*model.CrewMember       `json:"candidates"`
	Vessel     *model.Vessel             `json:"vessel,omitempty"`
	OpenOrders []*model.ReliefOrder      `json:"open_orders,omitempty"`
	History    []model.CrewVesselHistory `json:"history,omitempty"`
	Leaves     []model.LeaveRecord       `json:"leaves,omitempty"`
	MaxResults int                       `json:"max_results,omitempty"`
}

// BatchReliefRequest 批量调派请求
type BatchReliefRequest struct {
	Orders     []*model.ReliefOrder      `json:"orders"`
	Candidates []*model.CrewMember       `json:"candidates"`
	Vessels    []*model.Vessel           `json:"vessels,omitempty"`
	History    []model.CrewVesselHistory `json:"history,omitempty"`
	Leaves     []model.LeaveRecord       `json:"leaves,omitempty"`
}

// ReliefAPIResponse 调派API响应
type ReliefAPIResponse struct {
	Success bool                         `json:"success"`
	Data    *dispatcher.DispatchResponse `json:"data,omitempty"`
	Error   string                       `json:"error,omitempty"`
}

// BatchReliefAPIResponse 批量调派API响应
type BatchReliefAPIResponse struct {
	Success bool                           `json:"success"`
	Data    []*dispatcher.DispatchResponse `json:"data,omitempty"`
	Summary *BatchSummary                  `json:"summary,omitempty"`
	Error   string                         `json:"error,omitempty"`
}

// BatchSummary 批量调派汇总
type BatchSummary struct {
	TotalOrders  int `json:"total_orders"`
	SuccessCount int `json:"success_count"`
	FailCount    int `json:"fail_count"`
	AssignedCrew int `json:"assigned_crew"`
}

var reliefEngine *dispatcher.DispatchEngine

func init() {
	reliefEngine = dispatcher.NewDispatchEngine()
}

// ReliefDispatchHandler 单个调派单调派
func ReliefDispatchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ReliefRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendReliefError(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Order == nil {
		sendReliefError(w, "Order is required", http.StatusBadRequest)
		return
	}

	if len(req.Candidates) == 0 {
		sendReliefError(w, "At least one candidate is required", http.StatusBadRequest)
		return
	}

	// 请求头携带船队编码时校验目标船型是否对船队开放
	if f, ok := fleet.FromContext(r.Context()); ok && req.Vessel != nil && req.Vessel.Type != "" {
		if !f.HasVesselType(string(req.Vessel.Type)) {
			sendReliefError(w, "Vessel type not allowed for fleet: "+string(req.Vessel.Type), http.StatusForbidden)
			return
		}
	}

	log.Printf("接收调派请求: order=%s, candidates=%d", req.Order.OrderNo, len(req.Candidates))

	dispReq := &dispatcher.DispatchRequest{
		Order:      req.Order,
		Candidates: req.Candidates,
		Vessel:     req.Vessel,
		OpenOrders: req.OpenOrders,
		History:    req.History,
		Leaves:     req.Leaves,
		MaxResults: req.MaxResults,
	}

	resp := reliefEngine.Dispatch(dispReq)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ReliefAPIResponse{
		Success: resp.Success,
		Data:    resp,
	})
}

// BatchReliefHandler 批量调派
func BatchReliefHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req BatchReliefRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendReliefError(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	if len(req.Orders) == 0 {
		sendReliefError(w, "At least one order is required", http.StatusBadRequest)
		return
	}

	if len(req.Candidates) == 0 {
		sendReliefError(w, "At least one candidate is required", http.StatusBadRequest)
		return
	}

	if f, ok := fleet.FromContext(r.Context()); ok {
		for _, v := range req.Vessels {
			if v.Type != "" && !f.HasVesselType(string(v.Type)) {
				sendReliefError(w, "Vessel type not allowed for fleet: "+string(v.Type), http.StatusForbidden)
				return
			}
		}
	}

	log.Printf("接收批量调派请求: orders=%d, candidates=%d", len(req.Orders), len(req.Candidates))

	responses := reliefEngine.BatchDispatch(req.Orders, req.Candidates, req.Vessels, req.History, req.Leaves)

	// 统计结果
	summary := &BatchSummary{
		TotalOrders: len(req.Orders),
	}
	assignedMap := make(map[string]bool)

	for _, resp := range responses {
		if resp.Success {
			summary.SuccessCount++
			if resp.BestMatch != nil {
				assignedMap[resp.BestMatch.Crew.ID.String()] = true
			}
		} else {
			summary.FailCount++
		}
	}
	summary.AssignedCrew = len(assignedMap)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BatchReliefAPIResponse{
		Success: true,
		Data:    responses,
		Summary: summary,
	})
}

// OptimalRouteRequest 最优巡回路线请求
type OptimalRouteRequest struct {
	Orders        []*model.ReliefOrder `json:"orders"`
	StartLocation *model.Location      `json:"start_location"`
}

// OptimalRouteResponse 最优巡回路线响应
type OptimalRouteResponse struct {
	Success bool                 `json:"success"`
	Orders  []*model.ReliefOrder `json:"orders,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// OptimalRouteHandler 计算调派单最优巡回顺序
func OptimalRouteHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req OptimalRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(OptimalRouteResponse{
			Success: false,
			Error:   "Invalid request: " + err.Error(),
		})
		return
	}

	if len(req.Orders) == 0 {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(OptimalRouteResponse{
			Success: true,
			Orders:  req.Orders,
		})
		return
	}

	optimized := reliefEngine.OptimalRoute(req.Orders, req.StartLocation)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(OptimalRouteResponse{
		Success: true,
		Orders:  optimized,
	})
}

// sendReliefError 发送调派错误
func sendReliefError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ReliefAPIResponse{
		Success: false,
		Error:   message,
	})
}
