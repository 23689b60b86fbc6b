// Package handler 提供API处理器
package handler

import (
	"log"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/crewplan/crewplan/internal/metrics"
	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/rotation"
	"github.com/crewplan/crewplan/pkg/stats"
)

// StatsRequest 统计请求
type StatsRequest struct {
	FleetID   string                 `json:"fleet_id,omitempty"`
	Days      []string               `json:"days,omitempty"`
	StartDate string                 `json:"start_date,omitempty"`
	EndDate   string                 `json:"end_date,omitempty"`
	Shifts    []*model.ShiftTemplate `json:"shifts,omitempty"`
	Crew      []*model.CrewMember    `json:"crew"`
	Scheduled []*model.Assignment    `json:"scheduled"`
	Unfilled  []model.UnfilledShift  `json:"unfilled,omitempty"`
}

// FairnessResponse 公平性响应
type FairnessResponse struct {
	Success bool                   `json:"success"`
	Data    *stats.FairnessMetrics `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// CoverageResponse 覆盖率响应
type CoverageResponse struct {
	Success bool                   `json:"success"`
	Data    *stats.CoverageMetrics `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// WorkloadResponse 工作量响应
type WorkloadResponse struct {
	Success bool             `json:"success"`
	Data    *WorkloadSummary `json:"data,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// WorkloadSummary 工作量汇总
type WorkloadSummary struct {
	Period            string                   `json:"period"`
	TotalHours        float64                  `json:"total_hours"`
	TotalShifts       int                      `json:"total_shifts"`
	CrewCount         int                      `json:"crew_count"`
	AvgHoursPerPerson float64                  `json:"avg_hours_per_person"`
	OvertimeHours     float64                  `json:"overtime_hours"`
	ByCrew            []CrewWorkload           `json:"by_crew"`
	ByDate            map[string]DailyWorkload `json:"by_date"`
	ByWatchBand       map[string]float64       `json:"by_watch_band"`
}

// CrewWorkload 船员工作量
type CrewWorkload struct {
	CrewID        string  `json:"crew_id"`
	CrewName      string  `json:"crew_name"`
	TotalHours    float64 `json:"total_hours"`
	ShiftCount    int     `json:"shift_count"`
	NightShifts   int     `json:"night_shifts"`
	OvertimeHours float64 `json:"overtime_hours"`
	Utilization   float64 `json:"utilization"` // 利用率 (%)
}

// DailyWorkload 每日工作量
type DailyWorkload struct {
	Date       string  `json:"date"`
	TotalHours float64 `json:"total_hours"`
	ShiftCount int     `json:"shift_count"`
	CrewCount  int     `json:"crew_count"`
}

// GetFairnessHandler 公平性分析API
func GetFairnessHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req StatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	log.Printf("接收公平性分析请求: fleet_id=%s, crew=%d, scheduled=%d",
		req.FleetID, len(req.Crew), len(req.Scheduled))

	analyzer := stats.NewFairnessAnalyzer()
	data := analyzer.Analyze(req.Scheduled, req.Crew)

	metrics.SetFairnessGini(req.FleetID, "workload", data.WorkloadGini)
	metrics.SetFairnessGini(req.FleetID, "night_shift", data.NightShiftGini)
	metrics.SetFairnessGini(req.FleetID, "weekend_shift", data.WeekendShiftGini)

	resp := FairnessResponse{
		Success: true,
		Data:    data,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetCoverageHandler 覆盖率分析API
func GetCoverageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req StatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	days := req.Days
	if len(days) == 0 && req.StartDate != "" && req.EndDate != "" {
		expanded, err := rotation.DateRangeDays(req.StartDate, req.EndDate)
		if err != nil {
			sendJSONError(w, "Invalid date range: "+err.Error(), http.StatusBadRequest)
			return
		}
		days = expanded
	}

	log.Printf("接收覆盖率分析请求: fleet_id=%s, days=%d, shifts=%d, scheduled=%d",
		req.FleetID, len(days), len(req.Shifts), len(req.Scheduled))

	analyzer := stats.NewCoverageAnalyzer()
	data := analyzer.Analyze(days, req.Shifts, req.Scheduled, req.Unfilled)

	metrics.SetCoverageRate(req.FleetID, data.OverallCoverage)

	resp := CoverageResponse{
		Success: true,
		Data:    data,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetWorkloadHandler 工作量统计API
func GetWorkloadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req StatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	log.Printf("接收工作量统计请求: fleet_id=%s, start_date=%s, end_date=%s",
		req.FleetID, req.StartDate, req.EndDate)

	// 构建船员映射
	crewMap := make(map[uuid.UUID]*model.CrewMember)
	for _, c := range req.Crew {
		crewMap[c.ID] = c
	}

	summary := calculateWorkload(req.Scheduled, crewMap, req.StartDate, req.EndDate)

	resp := WorkloadResponse{
		Success: true,
		Data:    summary,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// calculateWorkload 计算工作量
func calculateWorkload(scheduled []*model.Assignment, crewMap map[uuid.UUID]*model.CrewMember, startDate, endDate string) *WorkloadSummary {
	summary := &WorkloadSummary{
		Period:      startDate + " ~ " + endDate,
		ByDate:      make(map[string]DailyWorkload),
		ByWatchBand: make(map[string]float64),
	}

	// 船员工作量统计
	crewStats := make(map[uuid.UUID]*CrewWorkload)
	var crewOrder []uuid.UUID

	// 海员合同周工时
	standardWeeklyHours := 44.0

	for _, a := range scheduled {
		hours := a.WorkingHours()
		summary.TotalHours += hours
		summary.TotalShifts++

		cw, exists := crewStats[a.CrewID]
		if !exists {
			name := a.CrewID.String()
			if member, ok := crewMap[a.CrewID]; ok {
				name = member.Name
			}
			cw = &CrewWorkload{
				CrewID:   a.CrewID.String(),
				CrewName: name,
			}
			crewStats[a.CrewID] = cw
			crewOrder = append(crewOrder, a.CrewID)
		}
		cw.TotalHours += hours
		cw.ShiftCount++
		if a.IsNight() {
			cw.NightShifts++
		}

		// 日期统计
		daily, exists := summary.ByDate[a.Date]
		if !exists {
			daily = DailyWorkload{Date: a.Date}
		}
		daily.TotalHours += hours
		daily.ShiftCount++
		daily.CrewCount++
		summary.ByDate[a.Date] = daily

		// 值班时段统计
		band := classifyWatchBand(a.StartTime)
		summary.ByWatchBand[band] += hours
	}

	summary.CrewCount = len(crewStats)

	// 计算周数
	weeks := 1.0
	if startDate != "" && endDate != "" {
		start, err1 := time.Parse("2006-01-02", startDate)
		end, err2 := time.Parse("2006-01-02", endDate)
		if err1 == nil && err2 == nil {
			days := end.Sub(start).Hours() / 24
			weeks = days / 7
			if weeks < 1 {
				weeks = 1
			}
		}
	}

	expectedHours := standardWeeklyHours * weeks

	for _, id := range crewOrder {
		cw := crewStats[id]
		if cw.TotalHours > expectedHours {
			cw.OvertimeHours = cw.TotalHours - expectedHours
			summary.OvertimeHours += cw.OvertimeHours
		}
		cw.Utilization = cw.TotalHours / expectedHours * 100
		summary.ByCrew = append(summary.ByCrew, *cw)
	}

	// 计算人均工时
	if summary.CrewCount > 0 {
		summary.AvgHoursPerPerson = summary.TotalHours / float64(summary.CrewCount)
	}

	return summary
}

// classifyWatchBand 按起始时刻划分值班时段，夜班口径与排班引擎一致
func classifyWatchBand(start time.Time) string {
	if model.IsNightStart(start) {
		return "night"
	}
	if start.Hour() < 14 {
		return "day"
	}
	return "evening"
}

// sendJSONError 发送JSON错误响应
func sendJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
