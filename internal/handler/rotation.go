// Package handler 提供API处理器
package handler

import (
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	apperrors "github.com/crewplan/crewplan/pkg/errors"
	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/rotation"
)

var rotationCatalog = rotation.NewCatalog()

// ExpandRotationRequest 值班制展开请求
// 周期展开三选一：rrule（配合limit）、end（区间）、days（天数），均以start为起点
type ExpandRotationRequest struct {
	VesselID string `json:"vessel_id,omitempty"`
	System   string `json:"system,omitempty"` // two_watch/three_watch/day_worker
	Needed   int    `json:"needed,omitempty"` // 每个时段的需求人数
	Start    string `json:"start"`
	Days     int    `json:"days,omitempty"`
	End      string `json:"end,omitempty"`
	RRule    string `json:"rrule,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// ExpandRotationResponse 值班制展开响应
type ExpandRotationResponse struct {
	Success bool                   `json:"success"`
	Days    []string               `json:"days"`
	Shifts  []*model.ShiftTemplate `json:"shifts,omitempty"`
}

// ExpandRotationHandler 展开排班周期与值班制班次模板
func ExpandRotationHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, apperrors.New(apperrors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req ExpandRotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeInvalidInput, "解析请求失败"))
		return
	}

	if req.Start == "" {
		respondError(w, apperrors.InvalidInput("start", "起始日期不能为空"))
		return
	}

	var days []string
	var err error
	switch {
	case req.RRule != "":
		limit := req.Limit
		if limit <= 0 {
			limit = 31
		}
		days, err = rotation.FromRRule(req.RRule, req.Start, limit)
	case req.End != "":
		days, err = rotation.DateRangeDays(req.Start, req.End)
	case req.Days > 0:
		days, err = rotation.Days(req.Start, req.Days)
	default:
		respondError(w, apperrors.InvalidInput("days", "需给出rrule、end或days之一"))
		return
	}
	if err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeInvalidInput, "展开排班周期失败"))
		return
	}

	resp := ExpandRotationResponse{
		Success: true,
		Days:    days,
	}

	// 指定值班制时同时生成班次模板
	if req.System != "" {
		vesselID := uuid.Nil
		if req.VesselID != "" {
			parsed, err := uuid.Parse(req.VesselID)
			if err != nil {
				respondError(w, apperrors.Wrap(err, apperrors.CodeInvalidInput, "无效的船舶ID格式"))
				return
			}
			vesselID = parsed
		}

		needed := req.Needed
		if needed <= 0 {
			needed = 1
		}

		shifts, err := rotationCatalog.Templates(vesselID, rotation.WatchSystem(req.System), needed)
		if err != nil {
			respondError(w, apperrors.Wrap(err, apperrors.CodeInvalidInput, "生成班次模板失败"))
			return
		}
		resp.Shifts = shifts
	}

	respondJSON(w, http.StatusOK, resp)
}
