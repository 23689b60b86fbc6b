package planner

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/model"
)

// GreedyPlanner 贪心引擎：不经过规则管理器的简化排班器。
// 输入比约束引擎窄：班次模板已预过滤、证书已并入船员档案、
// 不感知靠港窗口。资格判定内联完成，候选人按本轮已排班次数
// 升序稳定排序，优先派给负载最轻的船员。
type GreedyPlanner struct{}

// NewGreedyPlanner 创建贪心引擎
func NewGreedyPlanner() *GreedyPlanner {
	return &GreedyPlanner{}
}

// Name 返回引擎名称
func (g *GreedyPlanner) Name() string {
	return string(EngineGreedy)
}

// greedyRun 一次贪心排班的本轮状态
type greedyRun struct {
	assignCounts map[uuid.UUID]int
	nightCounts  map[uuid.UUID]int
	assignedOn   map[string]map[uuid.UUID]bool
	leavesByCrew map[uuid.UUID][]model.LeaveRecord
	maxNights    int
}

func newGreedyRun(leaves []model.LeaveRecord) *greedyRun {
	run := &greedyRun{
		assignCounts: make(map[uuid.UUID]int),
		nightCounts:  make(map[uuid.UUID]int),
		assignedOn:   make(map[string]map[uuid.UUID]bool),
		leavesByCrew: make(map[uuid.UUID][]model.LeaveRecord),
		maxNights:    model.DefaultMaxNightsPerWeek,
	}
	for _, leave := range leaves {
		run.leavesByCrew[leave.CrewID] = append(run.leavesByCrew[leave.CrewID], leave)
	}
	return run
}

func (r *greedyRun) commit(a *model.Assignment) {
	r.assignCounts[a.CrewID]++
	if a.IsNight() {
		r.nightCounts[a.CrewID]++
	}
	if r.assignedOn[a.Date] == nil {
		r.assignedOn[a.Date] = make(map[uuid.UUID]bool)
	}
	r.assignedOn[a.Date][a.CrewID] = true
}

// eligible 内联资格判定：休假、技能、职级、证书、同日排他、夜班上限
func (r *greedyRun) eligible(member *model.CrewMember, shift *model.ShiftTemplate, day string, window model.TimeRange) bool {
	for _, leave := range r.leavesByCrew[member.ID] {
		if leave.Covers(window.Start) {
			return false
		}
	}
	if shift.Skill != "" && !member.HasSkill(shift.Skill) {
		return false
	}
	if shift.MinRank != "" && !model.RankAtLeast(member.Rank, shift.MinRank) {
		return false
	}
	if !model.HasValidCertification(member.Certifications, shift.Cert, day) {
		return false
	}
	if r.assignedOn[day][member.ID] {
		return false
	}
	if model.IsNightStart(window.Start) && r.nightCounts[member.ID] >= r.maxNights {
		return false
	}
	return true
}

// Plan 按约定的窄输入生成排班：(days, shifts, crewWithCerts, leaves, drydocks)。
// 作为约束引擎的回退路径被调用时 drydocks 恒为 nil。
func (g *GreedyPlanner) Plan(_ context.Context, days []string, shifts []*model.ShiftTemplate, crew []*model.CrewMember, leaves []model.LeaveRecord, drydocks []model.DrydockWindow) (*Result, error) {
	result := newResult()
	run := newGreedyRun(leaves)

	for _, day := range days {
		for _, shift := range shifts {
			window, err := shift.WindowOn(day)
			if err != nil {
				return nil, err
			}

			if !isWindowAllowed(window, shift.VesselID, nil, drydocks) {
				result.Unfilled = append(result.Unfilled, model.UnfilledShift{
					Day:     day,
					ShiftID: shift.ID,
					Need:    shift.Needed,
					Reason:  ReasonVesselUnavailable,
				})
				continue
			}

			pool := make([]*model.CrewMember, 0, len(crew))
			for _, member := range crew {
				if run.eligible(member, shift, day, window) {
					pool = append(pool, member)
				}
			}

			// 负载最轻者优先，同负载保持输入顺序
			sort.SliceStable(pool, func(i, j int) bool {
				return run.assignCounts[pool[i].ID] < run.assignCounts[pool[j].ID]
			})

			commit := shift.Needed
			if len(pool) < commit {
				commit = len(pool)
			}

			for i := 0; i < commit; i++ {
				a := buildAssignment(day, shift, pool[i].ID, window)
				run.commit(a)
				result.Scheduled = append(result.Scheduled, a)
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
