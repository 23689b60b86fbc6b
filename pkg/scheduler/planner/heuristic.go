package planner

import (
	"context"
	"sort"

	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/scheduler/constraint"
	"github.com/crewplan/crewplan/pkg/scheduler/constraint/builtin"
)

// HeuristicPlanner 约束启发式引擎。
// 按天、按班次顺序遍历，用硬规则筛出候选池，按软规则罚分升序稳定排序后
// 提交前 min(needed, len(pool)) 名船员；同分时保持船员输入顺序。
// 每次提交立即更新本轮计数器，后续班次的资格判定依赖前面的提交结果。
type HeuristicPlanner struct{}

// NewHeuristicPlanner 创建约束启发式引擎
func NewHeuristicPlanner() *HeuristicPlanner {
	return &HeuristicPlanner{}
}

// Name 返回引擎名称
func (p *HeuristicPlanner) Name() string {
	return string(EngineConstraint)
}

// candidate 候选船员及其罚分
type candidate struct {
	assignment *model.Assignment
	penalty    int
}

// Plan 生成排班
func (p *HeuristicPlanner) Plan(_ context.Context, req *Request) (*Result, error) {
	schedCtx := constraint.NewContext(req.FleetID, req.Days)
	schedCtx.SetCrew(req.Crew)
	schedCtx.SetShifts(req.Shifts)
	schedCtx.SetLeaves(req.Leaves)
	schedCtx.SetWindows(req.PortCalls, req.Drydocks)
	schedCtx.SetCertifications(req.Certifications)
	schedCtx.SetPreferences(req.Preferences)

	manager := constraint.NewManager()
	builtin.RegisterDefaultRules(manager, req.Preferences)

	result := newResult()

	for _, day := range req.Days {
		for _, shift := range req.Shifts {
			window, err := shift.WindowOn(day)
			if err != nil {
				return nil, err
			}

			// 船舶不可用：整个需求计为缺员，不评估任何候选人
			if !isWindowAllowed(window, shift.VesselID, req.PortCalls, req.Drydocks) {
				result.Unfilled = append(result.Unfilled, model.UnfilledShift{
					Day:     day,
					ShiftID: shift.ID,
					Need:    shift.Needed,
					Reason:  ReasonVesselUnavailable,
				})
				continue
			}

			// 按输入顺序构建候选池
			pool := make([]candidate, 0, len(req.Crew))
			for _, member := range req.Crew {
				a := buildAssignment(day, shift, member.ID, window)
				if ok, _ := manager.CanAssign(schedCtx, a); !ok {
					continue
				}
				pool = append(pool, candidate{
					assignment: a,
					penalty:    manager.GetPenalty(schedCtx, a),
				})
			}

			// 稳定排序保证同分候选人维持输入顺序
			sort.SliceStable(pool, func(i, j int) bool {
				return pool[i].penalty < pool[j].penalty
			})

			commit := shift.Needed
			if len(pool) < commit {
				commit = len(pool)
			}

			for i := 0; i < commit; i++ {
				schedCtx.AddAssignment(pool[i].assignment)
				result.Scheduled = append(result.Scheduled, pool[i].assignment)
			}

			if commit < shift.Needed {
				result.Unfilled = append(result.Unfilled, model.UnfilledShift{
					Day:     day,
					ShiftID: shift.ID,
					Need:    shift.Needed - commit,
					Reason:  shortfallReason(shift, len(pool) == 0),
				})
			}
		}
	}

	return result, nil
}
