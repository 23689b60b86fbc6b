// Package constraint 定义排班规则接口和管理器
package constraint

import (
	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/model"
)

// Type 规则类型标识
type Type string

const (
	// 硬规则类型
	TypeLeaveConflict      Type = "leave_conflict"
	TypeSkillRequired      Type = "skill_required"
	TypeCertificationValid Type = "certification_valid"
	TypeRankMinimum        Type = "rank_minimum"
	TypeSameDayExclusive   Type = "same_day_exclusive"
	TypeNightCap           Type = "night_cap"
	TypeWatchTurnaround    Type = "watch_turnaround"
	TypeHorizonQuota       Type = "horizon_quota"
	TypeVesselTypeCert     Type = "vessel_type_cert"

	// 软规则类型
	TypeFairness         Type = "fairness"
	TypeNightOverage     Type = "night_overage"
	TypeConsecutiveNight Type = "consecutive_night"
	TypeDayOffPreference Type = "day_off_preference"
	TypeVesselPreference Type = "vessel_preference"
)

// Category 规则类别
type Category string

const (
	CategoryHard Category = "hard" // 硬规则（必须满足）
	CategorySoft Category = "soft" // 软规则（尽量满足）
)

// Constraint 排班规则接口
type Constraint interface {
	// Name 返回规则名称
	Name() string

	// Type 返回规则类型
	Type() Type

	// Category 返回规则类别
	Category() Category

	// Weight 返回规则权重
	Weight() int

	// Evaluate 评估整个排班方案
	// 返回：是否满足、罚分、违反详情
	Evaluate(ctx *Context) (valid bool, penalty int, details []ViolationDetail)

	// EvaluateAssignment 评估单个分配
	// 返回：是否满足、罚分
	EvaluateAssignment(ctx *Context, assignment *model.Assignment) (valid bool, penalty int)
}

// ViolationDetail 规则违反详情
type ViolationDetail struct {
	ConstraintType Type      `json:"constraint_type"`
	ConstraintName string    `json:"constraint_name"`
	CrewID         uuid.UUID `json:"crew_id,omitempty"`
	Date           string    `json:"date,omitempty"`
	Message        string    `json:"message"`
	Severity       string    `json:"severity"` // error/warning
	Penalty        int       `json:"penalty"`
}

// Context 排班上下文
// 承载一次排班运行的全部输入和运行期计数，跨运行不保留任何状态
type Context struct {
	// 输入数据
	FleetID     uuid.UUID                    `json:"fleet_id"`
	StartDate   string                       `json:"start_date"`
	EndDate     string                       `json:"end_date"`
	Days        []string                     `json:"days"`
	Crew        []*model.CrewMember          `json:"crew"`
	Shifts      []*model.ShiftTemplate       `json:"shifts"`
	Leaves      []model.LeaveRecord          `json:"leaves"`
	PortCalls   []model.PortCallWindow       `json:"port_calls"`
	Drydocks    []model.DrydockWindow        `json:"drydocks"`
	Preferences *model.SchedulingPreferences `json:"preferences,omitempty"`

	// 当前排班结果
	Assignments []*model.Assignment `json:"assignments"`

	// 索引缓存
	crewMap           map[uuid.UUID]*model.CrewMember
	shiftMap          map[uuid.UUID]*model.ShiftTemplate
	assignmentsByCrew map[uuid.UUID][]*model.Assignment
	assignmentsByDate map[string][]*model.Assignment
	assignCounts      map[uuid.UUID]int
	nightCounts       map[uuid.UUID]int
	leavesByCrew      map[uuid.UUID][]model.LeaveRecord
	extraCerts        map[uuid.UUID][]model.Certification
}

// NewContext 创建新的排班上下文
func NewContext(fleetID uuid.UUID, days []string) *Context {
	c := &Context{
		FleetID:           fleetID,
		Days:              days,
		Crew:              make([]*model.CrewMember, 0),
		Shifts:            make([]*model.ShiftTemplate, 0),
		Assignments:       make([]*model.Assignment, 0),
		crewMap:           make(map[uuid.UUID]*model.CrewMember),
		shiftMap:          make(map[uuid.UUID]*model.ShiftTemplate),
		assignmentsByCrew: make(map[uuid.UUID][]*model.Assignment),
		assignmentsByDate: make(map[string][]*model.Assignment),
		assignCounts:      make(map[uuid.UUID]int),
		nightCounts:       make(map[uuid.UUID]int),
		leavesByCrew:      make(map[uuid.UUID][]model.LeaveRecord),
		extraCerts:        make(map[uuid.UUID][]model.Certification),
	}
	if len(days) > 0 {
		c.StartDate = days[0]
		c.EndDate = days[len(days)-1]
	}
	return c
}

// SetCrew 设置船员列表
func (c *Context) SetCrew(crew []*model.CrewMember) {
	c.Crew = crew
	c.crewMap = make(map[uuid.UUID]*model.CrewMember)
	for _, m := range crew {
		c.crewMap[m.ID] = m
	}
}

// SetShifts 设置班次模板列表
func (c *Context) SetShifts(shifts []*model.ShiftTemplate) {
	c.Shifts = shifts
	c.shiftMap = make(map[uuid.UUID]*model.ShiftTemplate)
	for _, s := range shifts {
		c.shiftMap[s.ID] = s
	}
}

// SetLeaves 设置休假记录
func (c *Context) SetLeaves(leaves []model.LeaveRecord) {
	c.Leaves = leaves
	c.leavesByCrew = make(map[uuid.UUID][]model.LeaveRecord)
	for _, l := range leaves {
		c.leavesByCrew[l.CrewID] = append(c.leavesByCrew[l.CrewID], l)
	}
}

// SetWindows 设置靠港与进坞窗口
func (c *Context) SetWindows(portCalls []model.PortCallWindow, drydocks []model.DrydockWindow) {
	c.PortCalls = portCalls
	c.Drydocks = drydocks
}

// SetCertifications 设置随请求提供的补充证书
// 与船员档案上的证书合并后参与证书检查
func (c *Context) SetCertifications(certs map[uuid.UUID][]model.Certification) {
	c.extraCerts = make(map[uuid.UUID][]model.Certification)
	for id, list := range certs {
		c.extraCerts[id] = list
	}
}

// SetPreferences 设置排班偏好
func (c *Context) SetPreferences(prefs *model.SchedulingPreferences) {
	c.Preferences = prefs
}

// SetAssignments 设置排班分配
func (c *Context) SetAssignments(assignments []*model.Assignment) {
	c.Assignments = assignments
	c.rebuildAssignmentIndexes()
}

// AddAssignment 添加排班分配
func (c *Context) AddAssignment(a *model.Assignment) {
	c.Assignments = append(c.Assignments, a)
	c.assignmentsByCrew[a.CrewID] = append(c.assignmentsByCrew[a.CrewID], a)
	c.assignmentsByDate[a.Date] = append(c.assignmentsByDate[a.Date], a)
	c.assignCounts[a.CrewID]++
	if a.IsNight() {
		c.nightCounts[a.CrewID]++
	}
}

// RemoveAssignment 移除排班分配
func (c *Context) RemoveAssignment(crewID uuid.UUID, date string, shiftID uuid.UUID) {
	for i, a := range c.Assignments {
		if a.CrewID == crewID && a.Date == date && a.ShiftID == shiftID {
			c.Assignments = append(c.Assignments[:i], c.Assignments[i+1:]...)
			break
		}
	}
	c.rebuildAssignmentIndexes()
}

// rebuildAssignmentIndexes 重建分配索引和计数
func (c *Context) rebuildAssignmentIndexes() {
	c.assignmentsByCrew = make(map[uuid.UUID][]*model.Assignment)
	c.assignmentsByDate = make(map[string][]*model.Assignment)
	c.assignCounts = make(map[uuid.UUID]int)
	c.nightCounts = make(map[uuid.UUID]int)
	for _, a := range c.Assignments {
		c.assignmentsByCrew[a.CrewID] = append(c.assignmentsByCrew[a.CrewID], a)
		c.assignmentsByDate[a.Date] = append(c.assignmentsByDate[a.Date], a)
		c.assignCounts[a.CrewID]++
		if a.IsNight() {
			c.nightCounts[a.CrewID]++
		}
	}
}

// CloneWithAssignments 复制上下文并替换排班结果
// 输入数据按引用共享，仅重建分配索引，用于换班模拟
func (c *Context) CloneWithAssignments(assignments []*model.Assignment) *Context {
	clone := NewContext(c.FleetID, c.Days)
	clone.SetCrew(c.Crew)
	clone.SetShifts(c.Shifts)
	clone.SetLeaves(c.Leaves)
	clone.SetWindows(c.PortCalls, c.Drydocks)
	clone.SetPreferences(c.Preferences)
	clone.extraCerts = c.extraCerts
	clone.SetAssignments(assignments)
	return clone
}

// GetCrew 获取船员
func (c *Context) GetCrew(id uuid.UUID) *model.CrewMember {
	return c.crewMap[id]
}

// GetShift 获取班次模板
func (c *Context) GetShift(id uuid.UUID) *model.ShiftTemplate {
	return c.shiftMap[id]
}

// GetCrewAssignments 获取船员的所有排班
func (c *Context) GetCrewAssignments(crewID uuid.UUID) []*model.Assignment {
	return c.assignmentsByCrew[crewID]
}

// GetDateAssignments 获取某日期的所有排班
func (c *Context) GetDateAssignments(date string) []*model.Assignment {
	return c.assignmentsByDate[date]
}

// HasAssignmentOn 检查船员在某日期是否已有排班
func (c *Context) HasAssignmentOn(crewID uuid.UUID, date string) bool {
	for _, a := range c.assignmentsByCrew[crewID] {
		if a.Date == date {
			return true
		}
	}
	return false
}

// WorkedNightOn 检查船员在某日期是否值了夜班
func (c *Context) WorkedNightOn(crewID uuid.UUID, date string) bool {
	for _, a := range c.assignmentsByCrew[crewID] {
		if a.Date == date && a.IsNight() {
			return true
		}
	}
	return false
}

// AssignmentCount 返回船员在本次运行中的排班数
func (c *Context) AssignmentCount(crewID uuid.UUID) int {
	return c.assignCounts[crewID]
}

// NightCount 返回船员在本次运行中的夜班数
func (c *Context) NightCount(crewID uuid.UUID) int {
	return c.nightCounts[crewID]
}

// AverageAssignments 返回当前人均排班数
func (c *Context) AverageAssignments() float64 {
	if len(c.Crew) == 0 {
		return 0
	}
	return float64(len(c.Assignments)) / float64(len(c.Crew))
}

// CertificationsFor 返回船员的全部证书（档案证书与补充证书合并）
func (c *Context) CertificationsFor(crewID uuid.UUID) []model.Certification {
	crew := c.crewMap[crewID]
	extra := c.extraCerts[crewID]
	if crew == nil {
		return extra
	}
	if len(extra) == 0 {
		return crew.Certifications
	}
	merged := make([]model.Certification, 0, len(crew.Certifications)+len(extra))
	merged = append(merged, crew.Certifications...)
	merged = append(merged, extra...)
	return merged
}

// ExtraCertifications 返回随请求提供的补充证书表
func (c *Context) ExtraCertifications() map[uuid.UUID][]model.Certification {
	return c.extraCerts
}

// LeavesFor 返回船员的休假记录
func (c *Context) LeavesFor(crewID uuid.UUID) []model.LeaveRecord {
	return c.leavesByCrew[crewID]
}

// CrewHoursOnDate 获取船员某天的工作时长
func (c *Context) CrewHoursOnDate(crewID uuid.UUID, date string) float64 {
	var hours float64
	for _, a := range c.assignmentsByCrew[crewID] {
		if a.Date == date {
			hours += a.WorkingHours()
		}
	}
	return hours
}

// CrewHoursInRange 获取船员在日期范围内的工作时长
func (c *Context) CrewHoursInRange(crewID uuid.UUID, startDate, endDate string) float64 {
	var hours float64
	for _, a := range c.assignmentsByCrew[crewID] {
		if a.Date >= startDate && a.Date <= endDate {
			hours += a.WorkingHours()
		}
	}
	return hours
}

// Weights 返回补齐默认值后的罚分权重
func (c *Context) Weights() model.PenaltyWeights {
	return c.Preferences.ResolvedWeights()
}

// MaxNightsPerWeek 返回每周夜班上限
func (c *Context) MaxNightsPerWeek() int {
	return c.Preferences.ResolvedMaxNights()
}

// Result 规则评估结果
type Result struct {
	IsValid        bool              `json:"is_valid"`
	TotalPenalty   int               `json:"total_penalty"`
	HardViolations []ViolationDetail `json:"hard_violations"`
	SoftViolations []ViolationDetail `json:"soft_violations"`
	Score          float64           `json:"score"` // 0-100
}

// CalculateScore 计算规则满足度得分
func (r *Result) CalculateScore(maxPenalty int) {
	if maxPenalty == 0 {
		r.Score = 100.0
		return
	}
	r.Score = 100.0 * float64(maxPenalty-r.TotalPenalty) / float64(maxPenalty)
	if r.Score < 0 {
		r.Score = 0
	}
}
