// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/crewplan/crewplan/internal/fleet"
	"github.com/crewplan/crewplan/internal/metrics"
	apperrors "github.com/crewplan/crewplan/pkg/errors"
	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/rotation"
	"github.com/crewplan/crewplan/pkg/scheduler/planner"
	"github.com/crewplan/crewplan/pkg/stats"
	"github.com/crewplan/crewplan/pkg/validator"
)

// defaultPlanTimeout 排班计算默认超时
const defaultPlanTimeout = 30 * time.Second

// PlanHandler 排班处理器
type PlanHandler struct {
	selector *planner.Selector
	detector *validator.ConflictDetector
}

// NewPlanHandler 创建排班处理器
func NewPlanHandler() *PlanHandler {
	return &PlanHandler{
		selector: planner.NewSelector(),
		detector: validator.NewConflictDetector(nil),
	}
}

// GenerateRequest 排班生成请求
// 排班周期既可直接给出days，也可给出start_date/end_date区间
type GenerateRequest struct {
	FleetID        string                              `json:"fleet_id,omitempty"`
	Engine         string                              `json:"engine,omitempty"`
	Days           []string                            `json:"days,omitempty"`
	StartDate      string                              `json:"start_date,omitempty"`
	EndDate        string                              `json:"end_date,omitempty"`
	Shifts         []*model.ShiftTemplate              `json:"shifts"`
	Crew           []*model.CrewMember                 `json:"crew"`
	Leaves         []model.LeaveRecord                 `json:"leaves,omitempty"`
	PortCalls      []model.PortCallWindow              `json:"port_calls,omitempty"`
	Drydocks       []model.DrydockWindow               `json:"drydocks,omitempty"`
	Certifications map[uuid.UUID][]model.Certification `json:"certifications,omitempty"`
	Preferences    *model.SchedulingPreferences        `json:"preferences,omitempty"`
	Options        *GenerateOptions                    `json:"options,omitempty"`
}

// GenerateOptions 生成选项
type GenerateOptions struct {
	Timeout int `json:"timeout_seconds,omitempty"`
}

// GenerateResponse 排班生成响应
type GenerateResponse struct {
	Success    bool                  `json:"success"`
	Message    string                `json:"message,omitempty"`
	PlanID     string                `json:"plan_id,omitempty"`
	Engine     string                `json:"engine"`
	Days       []string              `json:"days"`
	Scheduled  []AssignmentOutput    `json:"scheduled"`
	Unfilled   []model.UnfilledShift `json:"unfilled,omitempty"`
	Statistics *model.PlanStats      `json:"statistics"`
	Duration   string                `json:"duration"`
}

// AssignmentOutput 排班输出
type AssignmentOutput struct {
	CrewID    string  `json:"crew_id"`
	CrewName  string  `json:"crew_name,omitempty"`
	ShiftID   string  `json:"shift_id"`
	ShiftName string  `json:"shift_name,omitempty"`
	VesselID  string  `json:"vessel_id,omitempty"`
	Date      string  `json:"date"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Role      string  `json:"role,omitempty"`
	Hours     float64 `json:"hours"`
	IsNight   bool    `json:"is_night"`
}

// Generate 生成排班
func (h *PlanHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, apperrors.New(apperrors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeInvalidInput, "解析请求失败"))
		return
	}

	if err := validateGenerateRequest(&req); err != nil {
		respondError(w, err)
		return
	}

	// 请求头携带船队编码时按船队配额限制船员规模
	if f, ok := fleet.FromContext(r.Context()); ok {
		if f.Settings.MaxCrew > 0 && len(req.Crew) > f.Settings.MaxCrew {
			respondError(w, apperrors.New(apperrors.CodeQuotaExceeded, "船员数量超出船队配额").
				WithField("max_crew", f.Settings.MaxCrew).
				WithField("crew_count", len(req.Crew)))
			return
		}
	}

	fleetID := uuid.Nil
	if req.FleetID != "" {
		parsed, err := uuid.Parse(req.FleetID)
		if err != nil {
			respondError(w, apperrors.Wrap(err, apperrors.CodeInvalidInput, "无效的船队ID格式"))
			return
		}
		fleetID = parsed
	}

	// 展开排班周期
	days := req.Days
	if len(days) == 0 {
		expanded, err := rotation.DateRangeDays(req.StartDate, req.EndDate)
		if err != nil {
			respondError(w, apperrors.Wrap(err, apperrors.CodeInvalidInput, "展开排班周期失败"))
			return
		}
		days = expanded
	}

	planReq := &planner.Request{
		FleetID:        fleetID,
		Days:           days,
		Shifts:         req.Shifts,
		Crew:           req.Crew,
		Leaves:         req.Leaves,
		PortCalls:      req.PortCalls,
		Drydocks:       req.Drydocks,
		Certifications: req.Certifications,
		Preferences:    req.Preferences,
	}

	timeout := defaultPlanTimeout
	if req.Options != nil && req.Options.Timeout > 0 {
		timeout = time.Duration(req.Options.Timeout) * time.Second
	}
	solveCtx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	metrics.IncActiveTasks()
	defer metrics.DecActiveTasks()

	start := time.Now()
	result, err := h.selector.Plan(solveCtx, req.Engine, planReq)
	duration := time.Since(start)

	engine := string(planner.ParseEngine(req.Engine))
	metrics.RecordPlanGeneration(engine, err == nil, duration)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			respondError(w, apperrors.New(apperrors.CodeTimeout, "排班计算超时，请尝试缩短排班周期或减少船员数量"))
			return
		}
		if errors.Is(err, context.Canceled) {
			respondError(w, apperrors.New(apperrors.CodeInternal, "排班请求已取消"))
			return
		}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			respondError(w, appErr)
			return
		}
		respondError(w, apperrors.Wrap(err, apperrors.CodeInternal, "排班失败"))
		return
	}

	statistics := buildPlanStatistics(result, req.Crew)
	metrics.SetPlanFillRate(fleetID.String(), statistics.CoverageRate)

	resp := GenerateResponse{
		Success:    true,
		PlanID:     uuid.New().String(),
		Engine:     engine,
		Days:       days,
		Scheduled:  buildAssignmentOutputs(result.Scheduled, req.Shifts, req.Crew),
		Unfilled:   result.Unfilled,
		Statistics: statistics,
		Duration:   duration.String(),
	}
	if len(result.Unfilled) > 0 {
		resp.Message = "存在缺员班次，详见unfilled列表"
	}

	respondJSON(w, http.StatusOK, resp)
}

// validateGenerateRequest 验证请求
func validateGenerateRequest(req *GenerateRequest) *apperrors.AppError {
	ve := &apperrors.ValidationErrors{}

	if len(req.Days) == 0 && req.StartDate == "" {
		ve.Add("days", "排班周期不能为空，需给出days或start_date/end_date")
	}
	if len(req.Days) == 0 && req.StartDate != "" && req.EndDate == "" {
		ve.Add("end_date", "结束日期不能为空")
	}
	if len(req.Shifts) == 0 {
		ve.Add("shifts", "班次模板列表不能为空")
	}
	if len(req.Crew) == 0 {
		ve.Add("crew", "船员列表不能为空")
	}

	// 验证日期格式
	if req.StartDate != "" {
		if _, err := time.Parse("2006-01-02", req.StartDate); err != nil {
			ve.Add("start_date", "日期格式无效，应为YYYY-MM-DD")
		}
	}
	if req.EndDate != "" {
		if _, err := time.Parse("2006-01-02", req.EndDate); err != nil {
			ve.Add("end_date", "日期格式无效，应为YYYY-MM-DD")
		}
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}

// buildPlanStatistics 汇总排班结果统计
func buildPlanStatistics(result *planner.Result, crew []*model.CrewMember) *model.PlanStats {
	ps := &model.PlanStats{TotalAssignments: len(result.Scheduled)}

	seen := make(map[uuid.UUID]struct{})
	for _, a := range result.Scheduled {
		seen[a.CrewID] = struct{}{}
		ps.TotalHours += a.WorkingHours()
		if a.IsNight() {
			ps.NightAssignments++
		}
	}
	ps.TotalCrew = len(seen)

	missing := 0
	for _, u := range result.Unfilled {
		missing += u.Need
	}
	ps.UnfilledShifts = missing

	demand := ps.TotalAssignments + missing
	if demand > 0 {
		ps.CoverageRate = float64(ps.TotalAssignments) / float64(demand)
	} else {
		ps.CoverageRate = 1
	}
	if ps.TotalAssignments > 0 {
		ps.NightShare = float64(ps.NightAssignments) / float64(ps.TotalAssignments)
	}

	fairness := stats.NewFairnessAnalyzer().Analyze(result.Scheduled, crew)
	ps.FairnessScore = fairness.OverallFairnessScore

	return ps
}

// buildAssignmentOutputs 转换排班记录为响应DTO
func buildAssignmentOutputs(scheduled []*model.Assignment, shifts []*model.ShiftTemplate, crew []*model.CrewMember) []AssignmentOutput {
	shiftNames := make(map[uuid.UUID]string, len(shifts))
	for _, s := range shifts {
		shiftNames[s.ID] = s.Name
	}
	crewNames := make(map[uuid.UUID]string, len(crew))
	for _, c := range crew {
		crewNames[c.ID] = c.Name
	}

	outputs := make([]AssignmentOutput, len(scheduled))
	for i, a := range scheduled {
		out := AssignmentOutput{
			CrewID:    a.CrewID.String(),
			CrewName:  crewNames[a.CrewID],
			ShiftID:   a.ShiftID.String(),
			ShiftName: shiftNames[a.ShiftID],
			Date:      a.Date,
			StartTime: a.StartTime.Format("15:04"),
			EndTime:   a.EndTime.Format("15:04"),
			Role:      a.Role,
			Hours:     a.WorkingHours(),
			IsNight:   a.IsNight(),
		}
		if a.VesselID != uuid.Nil {
			out.VesselID = a.VesselID.String()
		}
		outputs[i] = out
	}
	return outputs
}

// ValidateRequest 排班验证请求
type ValidateRequest struct {
	FleetID string `json:"fleet_id,omitempty"`
	validator.Input
}

// ValidateResponse 验证响应
type ValidateResponse struct {
	OK        bool                 `json:"ok"`
	Errors    int                  `json:"errors"`
	Warnings  int                  `json:"warnings"`
	Conflicts []validator.Conflict `json:"conflicts"`
}

// Validate 验证排班方案
func (h *PlanHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, apperrors.New(apperrors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeInvalidInput, "解析请求失败"))
		return
	}

	if len(req.Scheduled) == 0 && len(req.Unfilled) == 0 {
		respondError(w, apperrors.New(apperrors.CodeInvalidInput, "待验证的排班方案不能为空"))
		return
	}

	conflicts := h.detector.DetectAll(&req.Input)
	if conflicts == nil {
		conflicts = []validator.Conflict{}
	}
	errCount, warnCount := validator.CountBySeverity(conflicts)

	resp := ValidateResponse{
		OK:        errCount == 0,
		Errors:    errCount,
		Warnings:  warnCount,
		Conflicts: conflicts,
	}

	respondJSON(w, http.StatusOK, resp)
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    err.Code,
		"message": err.Message,
		"details": err.Details,
		"fields":  err.Fields,
	})
}
