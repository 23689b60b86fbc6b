// Package handler 提供API处理器
package handler

import (
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	apperrors "github.com/crewplan/crewplan/pkg/errors"
	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/scheduler/constraint"
	"github.com/crewplan/crewplan/pkg/scheduler/constraint/builtin"
	"github.com/crewplan/crewplan/pkg/swap"
)

// SwapContextInput 换班评估所依赖的排班上下文
type SwapContextInput struct {
	FleetID        string                              `json:"fleet_id,omitempty"`
	Days           []string                            `json:"days"`
	Shifts         []*model.ShiftTemplate              `json:"shifts"`
	Crew           []*model.CrewMember                 `json:"crew"`
	Leaves         []model.LeaveRecord                 `json:"leaves,omitempty"`
	Certifications map[uuid.UUID][]model.Certification `json:"certifications,omitempty"`
	Preferences    *model.SchedulingPreferences        `json:"preferences,omitempty"`
	Scheduled      []*model.Assignment                 `json:"scheduled"`
}

// buildSwapContext 由请求上下文构造规则评估环境
func buildSwapContext(in *SwapContextInput) (*constraint.Context, *constraint.Manager, *apperrors.AppError) {
	fleetID := uuid.Nil
	if in.FleetID != "" {
		parsed, err := uuid.Parse(in.FleetID)
		if err != nil {
			return nil, nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "无效的船队ID格式")
		}
		fleetID = parsed
	}

	ctx := constraint.NewContext(fleetID, in.Days)
	ctx.SetCrew(in.Crew)
	ctx.SetShifts(in.Shifts)
	ctx.SetLeaves(in.Leaves)
	ctx.SetCertifications(in.Certifications)
	ctx.SetPreferences(in.Preferences)
	ctx.SetAssignments(in.Scheduled)

	manager := constraint.NewManager()
	builtin.RegisterDefaultRules(manager, in.Preferences)

	return ctx, manager, nil
}

// EvaluateSwapRequest 换班评估请求
type EvaluateSwapRequest struct {
	Context SwapContextInput `json:"context"`
	Swap    swap.SwapRequest `json:"swap"`
}

// EvaluateSwapResponse 换班评估响应
type EvaluateSwapResponse struct {
	Success bool                 `json:"success"`
	Data    *swap.SwapEvaluation `json:"data,omitempty"`
}

// EvaluateSwapHandler 评估一次换班
func EvaluateSwapHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, apperrors.New(apperrors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req EvaluateSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeInvalidInput, "解析请求失败"))
		return
	}

	if req.Swap.Source == nil {
		respondError(w, apperrors.InvalidInput("swap.source", "需要让出的班次不能为空"))
		return
	}
	if req.Swap.TargetCrew == nil {
		respondError(w, apperrors.InvalidInput("swap.target_crew", "接班船员不能为空"))
		return
	}

	ctx, manager, appErr := buildSwapContext(&req.Context)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	evaluator := swap.NewSwapEvaluator(manager)
	evaluation := evaluator.EvaluateSwap(ctx, &req.Swap)

	respondJSON(w, http.StatusOK, EvaluateSwapResponse{
		Success: true,
		Data:    evaluation,
	})
}

// RecommendSwapRequest 换班推荐请求
type RecommendSwapRequest struct {
	Context SwapContextInput       `json:"context"`
	Source  *model.Assignment      `json:"source"`
	Options *RecommendOptionsInput `json:"options,omitempty"`
}

// RecommendOptionsInput 推荐选项
type RecommendOptionsInput struct {
	MaxRecommendations int         `json:"max_recommendations,omitempty"`
	PreferredCrew      []uuid.UUID `json:"preferred_crew,omitempty"`
	ExcludeCrew        []uuid.UUID `json:"exclude_crew,omitempty"`
	AllowExchange      *bool       `json:"allow_exchange,omitempty"`
	MinScore           float64     `json:"min_score,omitempty"`
}

// RecommendSwapResponse 换班推荐响应
type RecommendSwapResponse struct {
	Success         bool                  `json:"success"`
	Recommendations []swap.Recommendation `json:"recommendations"`
}

// RecommendSwapHandler 为需要让出的班次推荐接班人选
func RecommendSwapHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, apperrors.New(apperrors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req RecommendSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeInvalidInput, "解析请求失败"))
		return
	}

	if req.Source == nil {
		respondError(w, apperrors.InvalidInput("source", "需要让出的班次不能为空"))
		return
	}

	ctx, manager, appErr := buildSwapContext(&req.Context)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	options := swap.DefaultRecommendOptions()
	if req.Options != nil {
		if req.Options.MaxRecommendations > 0 {
			options.MaxRecommendations = req.Options.MaxRecommendations
		}
		options.PreferredCrew = req.Options.PreferredCrew
		options.ExcludeCrew = req.Options.ExcludeCrew
		if req.Options.AllowExchange != nil {
			options.AllowExchange = *req.Options.AllowExchange
		}
		if req.Options.MinScore > 0 {
			options.MinScore = req.Options.MinScore
		}
	}

	recommender := swap.NewRecommender(manager)
	recommendations := recommender.RecommendSwapTargets(ctx, req.Source, options)
	if recommendations == nil {
		recommendations = []swap.Recommendation{}
	}

	respondJSON(w, http.StatusOK, RecommendSwapResponse{
		Success:         true,
		Recommendations: recommendations,
	})
}
