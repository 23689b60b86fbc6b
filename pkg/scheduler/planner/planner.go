// Package planner 提供排班引擎：入口选择器、约束启发式引擎与贪心引擎
package planner

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/crewplan/crewplan/pkg/errors"
	"github.com/crewplan/crewplan/pkg/logger"
	"github.com/crewplan/crewplan/pkg/model"

	"github.com/google/uuid"
)

// Engine 排班引擎标识
type Engine string

const (
	// EngineConstraint 约束启发式引擎
	EngineConstraint Engine = "constraint"
	// EngineGreedy 贪心引擎
	EngineGreedy Engine = "greedy"
)

// ParseEngine 解析引擎标识，未识别的标识一律落到贪心引擎
func ParseEngine(tag string) Engine {
	if tag == string(EngineConstraint) {
		return EngineConstraint
	}
	return EngineGreedy
}

// Request 排班请求：一次完整的排班周期输入
type Request struct {
	FleetID        uuid.UUID                          `json:"fleet_id,omitempty"`
	Days           []string                           `json:"days"`
	Shifts         []*model.ShiftTemplate             `json:"shifts"`
	Crew           []*model.CrewMember                `json:"crew"`
	Leaves         []model.LeaveRecord                `json:"leaves,omitempty"`
	PortCalls      []model.PortCallWindow             `json:"port_calls,omitempty"`
	Drydocks       []model.DrydockWindow              `json:"drydocks,omitempty"`
	Certifications map[uuid.UUID][]model.Certification `json:"certifications,omitempty"`
	Preferences    *model.SchedulingPreferences       `json:"preferences,omitempty"`
}

// Validate 边界校验：拒绝缺失标识或时间格式非法的输入
func (r *Request) Validate() error {
	for _, day := range r.Days {
		if _, err := time.Parse("2006-01-02", day); err != nil {
			return apperrors.New(apperrors.CodeInvalidTimeFormat,
				fmt.Sprintf("日期格式无效: '%s'，应为 YYYY-MM-DD", day))
		}
	}
	for _, shift := range r.Shifts {
		if shift == nil || shift.ID == uuid.Nil {
			return apperrors.InvalidShiftTemplate("", "缺少班次标识")
		}
		if shift.Needed < 1 {
			return apperrors.InvalidShiftTemplate(shift.Name, "需求人数必须大于 0")
		}
		if _, err := time.Parse("15:04", shift.StartTime); err != nil {
			return apperrors.InvalidTimeFormat(shift.StartTime)
		}
		if _, err := time.Parse("15:04", shift.EndTime); err != nil {
			return apperrors.InvalidTimeFormat(shift.EndTime)
		}
	}
	return nil
}

// Result 排班结果
type Result struct {
	Scheduled []*model.Assignment   `json:"scheduled"`
	Unfilled  []model.UnfilledShift `json:"unfilled"`
}

func newResult() *Result {
	return &Result{
		Scheduled: make([]*model.Assignment, 0),
		Unfilled:  make([]model.UnfilledShift, 0),
	}
}

// Planner 排班引擎接口
type Planner interface {
	// Plan 对整个排班周期生成排班
	Plan(ctx context.Context, req *Request) (*Result, error)

	// Name 返回引擎名称
	Name() string
}

// Selector 引擎选择器：排班的唯一入口。
// 约束引擎失败时记录日志并用贪心引擎对同一请求重试一次；
// 贪心引擎失败则直接向上返回，不产生部分结果。
type Selector struct {
	heuristic Planner
	greedy    *GreedyPlanner
	logger    *logger.PlannerLogger
}

// NewSelector 创建引擎选择器
func NewSelector() *Selector {
	return &Selector{
		heuristic: NewHeuristicPlanner(),
		greedy:    NewGreedyPlanner(),
		logger:    logger.NewPlannerLogger(),
	}
}

// Plan 按引擎标识生成排班
func (s *Selector) Plan(ctx context.Context, engine string, req *Request) (*Result, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	eng := ParseEngine(engine)
	s.logger.StartPlan(string(eng), len(req.Crew), len(req.Shifts), len(req.Days))

	var result *Result
	var err error

	switch eng {
	case EngineConstraint:
		result, err = s.heuristic.Plan(ctx, req)
		if err != nil {
			s.logger.FallbackTriggered(string(EngineConstraint), err)
			result, err = s.planGreedy(ctx, req)
		}
	default:
		result, err = s.planGreedy(ctx, req)
	}

	if err != nil {
		return nil, apperrors.PlannerFailed(string(eng), err)
	}

	s.logger.PlanComplete(string(eng), time.Since(start), len(result.Scheduled), len(result.Unfilled))
	return result, nil
}

// planGreedy 组装贪心引擎的窄输入：
// 班次模板预过滤为周期内至少有一个可用船舶窗口的模板，
// 补充证书合并进船员档案，坞修窗口不再下传。
func (s *Selector) planGreedy(ctx context.Context, req *Request) (*Result, error) {
	filtered := filterShiftsWithAllowedWindow(req.Days, req.Shifts, req.PortCalls, req.Drydocks)
	enriched := mergeCertifications(req.Crew, req.Certifications)
	return s.greedy.Plan(ctx, req.Days, filtered, enriched, req.Leaves, nil)
}

// 缺员原因（对外输出，保持英文）
const (
	ReasonVesselUnavailable = "vessel unavailable (drydock)"
	ReasonInsufficientCrew  = "insufficient eligible crew"
)

// shortfallReason 按固定优先级给出缺员原因：
// 候选池为空时依次归因到技能、证书、最低职级要求，否则给出通用原因
func shortfallReason(shift *model.ShiftTemplate, poolEmpty bool) string {
	if poolEmpty {
		if shift.Skill != "" {
			return fmt.Sprintf("no crew with required skill: %s", shift.Skill)
		}
		if shift.Cert != "" {
			return fmt.Sprintf("no crew with valid certification: %s", shift.Cert)
		}
		if shift.MinRank != "" {
			return fmt.Sprintf("no crew meeting minimum rank: %s", shift.MinRank)
		}
	}
	return ReasonInsufficientCrew
}

// buildAssignment 在指定日期为船员构造一条排班记录
func buildAssignment(day string, shift *model.ShiftTemplate, crewID uuid.UUID, window model.TimeRange) *model.Assignment {
	return &model.Assignment{
		Date:      day,
		ShiftID:   shift.ID,
		CrewID:    crewID,
		VesselID:  shift.VesselID,
		Role:      shift.Role,
		StartTime: window.Start,
		EndTime:   window.End,
	}
}
