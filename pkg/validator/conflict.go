// Package validator 提供排班方案验证功能
package validator

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/model"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictDoubleBooking ConflictType = "double_booking" // 同日重复排班
	ConflictOverlap       ConflictType = "overlap"        // 时间重叠
	ConflictLeave         ConflictType = "leave"          // 休假期间排班
	ConflictCertification ConflictType = "certification"  // 证书缺失或过期
	ConflictDrydock       ConflictType = "drydock"        // 坞修期间排班
	ConflictRest          ConflictType = "rest_hours"     // 休息时间不足
	ConflictMaxHours      ConflictType = "max_hours"      // 工时超限
	ConflictCoverage      ConflictType = "coverage"       // 人数不符
)

// Conflict 冲突信息
type Conflict struct {
	Type     ConflictType `json:"type"`
	Severity string       `json:"severity"` // error/warning
	CrewID   uuid.UUID    `json:"crew_id,omitempty"`
	Date     string       `json:"date,omitempty"`
	ShiftIDs []uuid.UUID  `json:"shift_ids,omitempty"` // 相关班次
	Message  string       `json:"message"`
}

// Input 待验证的排班方案及其上下文
// Scheduled/Unfilled 为引擎输出，其余字段为引擎当时看到的输入
type Input struct {
	Days           []string                            `json:"days"`
	Shifts         []*model.ShiftTemplate              `json:"shifts"`
	Crew           []*model.CrewMember                 `json:"crew"`
	Leaves         []model.LeaveRecord                 `json:"leaves,omitempty"`
	PortCalls      []model.PortCallWindow              `json:"port_calls,omitempty"`
	Drydocks       []model.DrydockWindow               `json:"drydocks,omitempty"`
	Certifications map[uuid.UUID][]model.Certification `json:"certifications,omitempty"`
	Scheduled      []*model.Assignment                 `json:"scheduled"`
	Unfilled       []model.UnfilledShift               `json:"unfilled,omitempty"`
}

// ConflictDetector 冲突检测器
type ConflictDetector struct {
	config *DetectorConfig
}

// DetectorConfig 检测器配置
// 工时与休息限值按 MLC 2006 / STCW A-VIII/1 的海上工时规则取默认值
type DetectorConfig struct {
	MinRestHours    int  // 相邻班次最小休息时间（小时）
	MaxHoursPerDay  int  // 每日最大工时
	MaxHoursPerWeek int  // 每周最大工时（按 ISO 周）
	CheckLeaves     bool // 是否检查休假冲突
	CheckCerts      bool // 是否检查证书有效性
}

// DefaultDetectorConfig 返回默认配置
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		MinRestHours:    10,
		MaxHoursPerDay:  14,
		MaxHoursPerWeek: 72,
		CheckLeaves:     true,
		CheckCerts:      true,
	}
}

// NewConflictDetector 创建冲突检测器
func NewConflictDetector(config *DetectorConfig) *ConflictDetector {
	if config == nil {
		config = DefaultDetectorConfig()
	}
	return &ConflictDetector{config: config}
}

// DetectAll 检测一份排班方案的全部冲突
// error 级冲突违反引擎硬性保证，warning 级为疲劳与覆盖提示
func (d *ConflictDetector) DetectAll(in *Input) []Conflict {
	var conflicts []Conflict
	if in == nil {
		return conflicts
	}

	crewByID := make(map[uuid.UUID]*model.CrewMember, len(in.Crew))
	for _, member := range in.Crew {
		crewByID[member.ID] = member
	}
	shiftByID := make(map[uuid.UUID]*model.ShiftTemplate, len(in.Shifts))
	for _, shift := range in.Shifts {
		shiftByID[shift.ID] = shift
	}

	// 按船员分组，保持首次出现顺序，结果可复现
	order, byCrew := groupByCrew(in.Scheduled)
	for _, crewID := range order {
		rows := byCrew[crewID]
		name := crewName(crewByID[crewID], crewID)

		conflicts = append(conflicts, d.detectDoubleBookings(crewID, name, rows)...)
		conflicts = append(conflicts, d.detectOverlaps(crewID, name, rows)...)
		if d.config.CheckLeaves {
			conflicts = append(conflicts, d.detectLeaveConflicts(crewID, name, rows, in.Leaves)...)
		}
		if d.config.CheckCerts {
			conflicts = append(conflicts, d.detectCertConflicts(crewID, name, rows, shiftByID, crewByID[crewID], in.Certifications[crewID])...)
		}
		conflicts = append(conflicts, d.detectRestViolations(crewID, name, rows)...)
		conflicts = append(conflicts, d.detectHourViolations(crewID, name, rows)...)
	}

	conflicts = append(conflicts, d.detectDrydockConflicts(in.Scheduled, in.PortCalls, in.Drydocks)...)
	conflicts = append(conflicts, d.detectCoverageGaps(in)...)

	return conflicts
}

// DetectForAssignment 检测追加一条分配会引入的冲突
// 换班评估在提交前调用，仅做同船员维度的快速检查
func (d *ConflictDetector) DetectForAssignment(candidate *model.Assignment, existing []*model.Assignment, leaves []model.LeaveRecord) []Conflict {
	var conflicts []Conflict

	for _, a := range existing {
		if a.CrewID != candidate.CrewID {
			continue
		}

		if a.Date == candidate.Date && a.ShiftID == candidate.ShiftID {
			continue // 同一条记录
		}

		if a.Date == candidate.Date {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictDoubleBooking,
				Severity: "error",
				CrewID:   candidate.CrewID,
				Date:     candidate.Date,
				ShiftIDs: []uuid.UUID{candidate.ShiftID, a.ShiftID},
				Message:  fmt.Sprintf("%s 已有排班，同日不可重复分配", candidate.Date),
			})
			continue
		}

		if overlapping(candidate, a) {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictOverlap,
				Severity: "error",
				CrewID:   candidate.CrewID,
				Date:     candidate.Date,
				ShiftIDs: []uuid.UUID{candidate.ShiftID, a.ShiftID},
				Message:  "与现有排班时间重叠",
			})
			continue
		}

		rest := restHoursBetween(candidate, a)
		if rest >= 0 && rest < float64(d.config.MinRestHours) {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictRest,
				Severity: "warning",
				CrewID:   candidate.CrewID,
				Date:     candidate.Date,
				ShiftIDs: []uuid.UUID{candidate.ShiftID, a.ShiftID},
				Message:  fmt.Sprintf("班次间休息仅 %.1f 小时，低于 %d 小时", rest, d.config.MinRestHours),
			})
		}
	}

	for _, leave := range leaves {
		if leave.CrewID == candidate.CrewID && leave.Covers(candidate.StartTime) {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictLeave,
				Severity: "error",
				CrewID:   candidate.CrewID,
				Date:     candidate.Date,
				ShiftIDs: []uuid.UUID{candidate.ShiftID},
				Message:  "休假期间不可排班",
			})
			break
		}
	}

	return conflicts
}

// detectDoubleBookings 检测同日重复排班
func (d *ConflictDetector) detectDoubleBookings(crewID uuid.UUID, name string, rows []*model.Assignment) []Conflict {
	var conflicts []Conflict

	byDate := make(map[string][]*model.Assignment)
	dates := make([]string, 0)
	for _, a := range rows {
		if len(byDate[a.Date]) == 0 {
			dates = append(dates, a.Date)
		}
		byDate[a.Date] = append(byDate[a.Date], a)
	}

	for _, date := range dates {
		same := byDate[date]
		if len(same) < 2 {
			continue
		}
		shiftIDs := make([]uuid.UUID, 0, len(same))
		for _, a := range same {
			shiftIDs = append(shiftIDs, a.ShiftID)
		}
		conflicts = append(conflicts, Conflict{
			Type:     ConflictDoubleBooking,
			Severity: "error",
			CrewID:   crewID,
			Date:     date,
			ShiftIDs: shiftIDs,
			Message:  fmt.Sprintf("船员 %s 在 %s 被排入 %d 个班次", name, date, len(same)),
		})
	}

	return conflicts
}

// detectOverlaps 检测时间重叠（含跨午夜班次撞上次日班次）
func (d *ConflictDetector) detectOverlaps(crewID uuid.UUID, name string, rows []*model.Assignment) []Conflict {
	var conflicts []Conflict

	sorted := sortedByStart(rows)
	for i := 0; i < len(sorted)-1; i++ {
		current, next := sorted[i], sorted[i+1]
		if current.Date == next.Date {
			continue // 同日重复由 double_booking 负责
		}
		if overlapping(current, next) {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictOverlap,
				Severity: "error",
				CrewID:   crewID,
				Date:     next.Date,
				ShiftIDs: []uuid.UUID{current.ShiftID, next.ShiftID},
				Message:  fmt.Sprintf("船员 %s 的班次在 %s 前后重叠", name, next.Date),
			})
		}
	}

	return conflicts
}

// detectLeaveConflicts 检测休假期间被排班
func (d *ConflictDetector) detectLeaveConflicts(crewID uuid.UUID, name string, rows []*model.Assignment, leaves []model.LeaveRecord) []Conflict {
	var conflicts []Conflict

	for _, a := range rows {
		for _, leave := range leaves {
			if leave.CrewID != crewID || !leave.Covers(a.StartTime) {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Type:     ConflictLeave,
				Severity: "error",
				CrewID:   crewID,
				Date:     a.Date,
				ShiftIDs: []uuid.UUID{a.ShiftID},
				Message:  fmt.Sprintf("船员 %s 在 %s 休假期间被排班", name, a.Date),
			})
			break
		}
	}

	return conflicts
}

// detectCertConflicts 检测必备证书缺失或过期
// 证书取船员档案与补充证书表的并集
func (d *ConflictDetector) detectCertConflicts(crewID uuid.UUID, name string, rows []*model.Assignment, shiftByID map[uuid.UUID]*model.ShiftTemplate, member *model.CrewMember, extra []model.Certification) []Conflict {
	var conflicts []Conflict

	var certs []model.Certification
	if member != nil {
		certs = member.Certifications
	}
	if len(extra) > 0 {
		merged := make([]model.Certification, 0, len(certs)+len(extra))
		merged = append(merged, certs...)
		merged = append(merged, extra...)
		certs = merged
	}

	for _, a := range rows {
		shift := shiftByID[a.ShiftID]
		if shift == nil || shift.Cert == "" {
			continue
		}
		if model.HasValidCertification(certs, shift.Cert, a.Date) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Type:     ConflictCertification,
			Severity: "error",
			CrewID:   crewID,
			Date:     a.Date,
			ShiftIDs: []uuid.UUID{a.ShiftID},
			Message:  fmt.Sprintf("船员 %s 在 %s 缺少有效证书 %s", name, a.Date, shift.Cert),
		})
	}

	return conflicts
}

// detectRestViolations 检测相邻班次休息不足
func (d *ConflictDetector) detectRestViolations(crewID uuid.UUID, name string, rows []*model.Assignment) []Conflict {
	var conflicts []Conflict
	if len(rows) < 2 {
		return conflicts
	}

	sorted := sortedByStart(rows)
	for i := 0; i < len(sorted)-1; i++ {
		current, next := sorted[i], sorted[i+1]
		rest := next.StartTime.Sub(current.EndTime).Hours()
		if rest >= 0 && rest < float64(d.config.MinRestHours) {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictRest,
				Severity: "warning",
				CrewID:   crewID,
				Date:     next.Date,
				ShiftIDs: []uuid.UUID{current.ShiftID, next.ShiftID},
				Message:  fmt.Sprintf("船员 %s 班次间休息仅 %.1f 小时，低于 %d 小时", name, rest, d.config.MinRestHours),
			})
		}
	}

	return conflicts
}

// detectHourViolations 检测日工时与周工时超限
func (d *ConflictDetector) detectHourViolations(crewID uuid.UUID, name string, rows []*model.Assignment) []Conflict {
	var conflicts []Conflict

	dailyHours := make(map[string]float64)
	weeklyHours := make(map[string]float64)
	dates := make([]string, 0)
	weeks := make([]string, 0)

	for _, a := range rows {
		hours := a.WorkingHours()
		if _, seen := dailyHours[a.Date]; !seen {
			dates = append(dates, a.Date)
		}
		dailyHours[a.Date] += hours

		week := isoWeekOf(a.Date)
		if _, seen := weeklyHours[week]; !seen {
			weeks = append(weeks, week)
		}
		weeklyHours[week] += hours
	}

	for _, date := range dates {
		if dailyHours[date] > float64(d.config.MaxHoursPerDay) {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictMaxHours,
				Severity: "warning",
				CrewID:   crewID,
				Date:     date,
				Message:  fmt.Sprintf("船员 %s 在 %s 工作 %.1f 小时，超过 %d 小时", name, date, dailyHours[date], d.config.MaxHoursPerDay),
			})
		}
	}
	for _, week := range weeks {
		if weeklyHours[week] > float64(d.config.MaxHoursPerWeek) {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictMaxHours,
				Severity: "warning",
				CrewID:   crewID,
				Message:  fmt.Sprintf("船员 %s 第 %s 周工时 %.1f 小时，超过 %d 小时", name, week, weeklyHours[week], d.config.MaxHoursPerWeek),
			})
		}
	}

	return conflicts
}

// detectDrydockConflicts 检测坞修期间仍有排班
// 与靠港窗口重叠的坞修视为在港维护，照常排班
func (d *ConflictDetector) detectDrydockConflicts(rows []*model.Assignment, portCalls []model.PortCallWindow, drydocks []model.DrydockWindow) []Conflict {
	var conflicts []Conflict
	if len(drydocks) == 0 {
		return conflicts
	}

	for _, a := range rows {
		window := model.TimeRange{Start: a.StartTime, End: a.EndTime}

		inPort := false
		for _, pc := range portCalls {
			if pc.VesselID == a.VesselID && window.Overlaps(pc.Window()) {
				inPort = true
				break
			}
		}
		if inPort {
			continue
		}

		for _, dd := range drydocks {
			if dd.VesselID == a.VesselID && window.Overlaps(dd.Window()) {
				conflicts = append(conflicts, Conflict{
					Type:     ConflictDrydock,
					Severity: "error",
					CrewID:   a.CrewID,
					Date:     a.Date,
					ShiftIDs: []uuid.UUID{a.ShiftID},
					Message:  fmt.Sprintf("船舶坞修期间仍有排班（%s）", a.Date),
				})
				break
			}
		}
	}

	return conflicts
}

// detectCoverageGaps 核对每个 (日期, 班次) 的人数账
// 已排 + 缺员应等于需求；贪心引擎丢弃的不可用班次会在此浮出
func (d *ConflictDetector) detectCoverageGaps(in *Input) []Conflict {
	var conflicts []Conflict

	assigned := make(map[string]int)
	for _, a := range in.Scheduled {
		assigned[a.Date+"|"+a.ShiftID.String()]++
	}
	unfilled := make(map[string]int)
	for _, u := range in.Unfilled {
		unfilled[u.Day+"|"+u.ShiftID.String()] += u.Need
	}

	for _, day := range in.Days {
		for _, shift := range in.Shifts {
			key := day + "|" + shift.ID.String()
			got := assigned[key] + unfilled[key]
			if got == shift.Needed {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Type:     ConflictCoverage,
				Severity: "warning",
				Date:     day,
				ShiftIDs: []uuid.UUID{shift.ID},
				Message: fmt.Sprintf("班次 %s 在 %s 人数不符：需求 %d，排定 %d，缺员 %d",
					shift.Name, day, shift.Needed, assigned[key], unfilled[key]),
			})
		}
	}

	return conflicts
}

// CountBySeverity 统计冲突的错误与告警数量
func CountBySeverity(conflicts []Conflict) (errors, warnings int) {
	for _, c := range conflicts {
		switch c.Severity {
		case "error":
			errors++
		case "warning":
			warnings++
		}
	}
	return errors, warnings
}

// groupByCrew 按船员分组并保留首次出现顺序
func groupByCrew(rows []*model.Assignment) ([]uuid.UUID, map[uuid.UUID][]*model.Assignment) {
	order := make([]uuid.UUID, 0)
	grouped := make(map[uuid.UUID][]*model.Assignment)
	for _, a := range rows {
		if _, seen := grouped[a.CrewID]; !seen {
			order = append(order, a.CrewID)
		}
		grouped[a.CrewID] = append(grouped[a.CrewID], a)
	}
	return order, grouped
}

func crewName(member *model.CrewMember, id uuid.UUID) string {
	if member != nil && member.Name != "" {
		return member.Name
	}
	return id.String()
}

func sortedByStart(rows []*model.Assignment) []*model.Assignment {
	sorted := make([]*model.Assignment, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})
	return sorted
}

func overlapping(a, b *model.Assignment) bool {
	return a.StartTime.Before(b.EndTime) && b.StartTime.Before(a.EndTime)
}

// restHoursBetween 计算两个班次之间的休息时长，重叠返回 -1
func restHoursBetween(a, b *model.Assignment) float64 {
	if a.EndTime.Before(b.StartTime) {
		return b.StartTime.Sub(a.EndTime).Hours()
	}
	if b.EndTime.Before(a.StartTime) {
		return a.StartTime.Sub(b.EndTime).Hours()
	}
	return -1
}

// isoWeekOf 返回日期所在 ISO 周（如 2026-W03）
func isoWeekOf(date string) string {
	t, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return date
	}
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
