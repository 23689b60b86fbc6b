package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ShiftTemplate 班次模板
// 同一模板在排班周期内的每一天各产生一次人员需求
type ShiftTemplate struct {
	BaseModel
	FleetID     uuid.UUID `json:"fleet_id" db:"fleet_id"`
	VesselID    uuid.UUID `json:"vessel_id" db:"vessel_id"`
	Name        string    `json:"name" db:"name"`
	Code        string    `json:"code,omitempty" db:"code"`
	Role        string    `json:"role,omitempty" db:"role"`
	StartTime   string    `json:"start_time" db:"start_time"` // HH:MM
	EndTime     string    `json:"end_time" db:"end_time"`     // HH:MM
	Needed      int       `json:"needed" db:"needed"`         // 每日需求人数
	Skill       string    `json:"skill,omitempty" db:"skill"` // 必备技能
	Cert        string    `json:"cert,omitempty" db:"cert"`   // 必备证书代码
	MinRank     string    `json:"min_rank,omitempty" db:"min_rank"`
	Description string    `json:"description,omitempty" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
}

// WindowOn 计算班次在某日期的绝对时间窗口（UTC）
// 结束时间不晚于开始时间的视为跨午夜班次，结束时间顺延 24 小时
func (s *ShiftTemplate) WindowOn(day string) (TimeRange, error) {
	d, err := time.ParseInLocation("2006-01-02", day, time.UTC)
	if err != nil {
		return TimeRange{}, fmt.Errorf("日期格式无效: %s", day)
	}
	st, err := time.Parse("15:04", s.StartTime)
	if err != nil {
		return TimeRange{}, fmt.Errorf("开始时间格式无效: %s", s.StartTime)
	}
	et, err := time.Parse("15:04", s.EndTime)
	if err != nil {
		return TimeRange{}, fmt.Errorf("结束时间格式无效: %s", s.EndTime)
	}

	start := time.Date(d.Year(), d.Month(), d.Day(), st.Hour(), st.Minute(), 0, 0, time.UTC)
	end := time.Date(d.Year(), d.Month(), d.Day(), et.Hour(), et.Minute(), 0, 0, time.UTC)
	if !end.After(start) {
		end = end.Add(24 * time.Hour) // 跨午夜
	}
	return TimeRange{Start: start, End: end}, nil
}

// IsNightStart 检查开始时刻是否属于夜班时段（20:00 起或 06:00 前）
func IsNightStart(t time.Time) bool {
	h := t.Hour()
	return h >= 20 || h < 6
}

// Assignment 排班分配
// 引擎输出的纯值对象，入库时再补充行标识
type Assignment struct {
	Date      string    `json:"date"` // YYYY-MM-DD
	ShiftID   uuid.UUID `json:"shift_id"`
	CrewID    uuid.UUID `json:"crew_id"`
	VesselID  uuid.UUID `json:"vessel_id"`
	Role      string    `json:"role,omitempty"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// WorkingHours 计算工作时长（小时）
func (a *Assignment) WorkingHours() float64 {
	return a.EndTime.Sub(a.StartTime).Hours()
}

// IsOnDate 检查分配是否在指定日期
func (a *Assignment) IsOnDate(date string) bool {
	return a.Date == date
}

// IsNight 检查分配是否为夜班
func (a *Assignment) IsNight() bool {
	return IsNightStart(a.StartTime)
}

// UnfilledShift 缺员班次
type UnfilledShift struct {
	Day     string    `json:"day"`      // YYYY-MM-DD
	ShiftID uuid.UUID `json:"shift_id"`
	Need    int       `json:"need"`   // 缺员人数
	Reason  string    `json:"reason"` // 缺员原因
}

// Plan 排班计划
type Plan struct {
	BaseModel
	FleetID     uuid.UUID       `json:"fleet_id" db:"fleet_id"`
	Name        string          `json:"name" db:"name"`
	StartDate   string          `json:"start_date" db:"start_date"`
	EndDate     string          `json:"end_date" db:"end_date"`
	Engine      string          `json:"engine" db:"engine"`
	Status      string          `json:"status" db:"status"` // draft/published/archived
	Version     int             `json:"version" db:"version"`
	CreatedBy   *uuid.UUID      `json:"created_by,omitempty" db:"created_by"`
	PublishedAt *time.Time      `json:"published_at,omitempty" db:"published_at"`
	Scheduled   []Assignment    `json:"scheduled,omitempty" db:"-"`
	Unfilled    []UnfilledShift `json:"unfilled,omitempty" db:"-"`
	Statistics  *PlanStats      `json:"statistics,omitempty" db:"-"`
}

// PlanStats 排班统计
type PlanStats struct {
	TotalAssignments int     `json:"total_assignments"`
	TotalCrew        int     `json:"total_crew"`
	TotalHours       float64 `json:"total_hours"`
	NightAssignments int     `json:"night_assignments"`
	NightShare       float64 `json:"night_share"` // 夜班占比
	UnfilledShifts   int     `json:"unfilled_shifts"`
	CoverageRate     float64 `json:"coverage_rate"`  // 需求满足率
	FairnessScore    float64 `json:"fairness_score"` // 公平性得分
}

// 默认权重与夜班上限
const (
	DefaultHardViolationWeight  = 1000
	DefaultFairnessWeight       = 20
	DefaultNightOverWeight      = 10
	DefaultConsecNightWeight    = 8
	DefaultPrefOffWeight        = 6
	DefaultVesselMismatchWeight = 3
	DefaultMaxNightsPerWeek     = 4
)

// PenaltyWeights 软规则罚分权重
type PenaltyWeights struct {
	HardViolation  int `json:"hard_violation,omitempty"`
	Fairness       int `json:"fairness,omitempty"`
	NightOver      int `json:"night_over,omitempty"`
	ConsecNight    int `json:"consec_night,omitempty"`
	PrefOff        int `json:"pref_off,omitempty"`
	VesselMismatch int `json:"vessel_mismatch,omitempty"`
}

// SchedulingPreferences 排班偏好
// 权重与夜班上限未设置（<=0）时取默认值
type SchedulingPreferences struct {
	Weights          PenaltyWeights                `json:"weights,omitempty"`
	MaxNightsPerWeek int                           `json:"max_nights_per_week,omitempty"`
	PerCrew          map[uuid.UUID]CrewPreferences `json:"per_crew,omitempty"`
}

// DefaultPreferences 返回默认排班偏好
func DefaultPreferences() *SchedulingPreferences {
	return &SchedulingPreferences{
		Weights: PenaltyWeights{
			HardViolation:  DefaultHardViolationWeight,
			Fairness:       DefaultFairnessWeight,
			NightOver:      DefaultNightOverWeight,
			ConsecNight:    DefaultConsecNightWeight,
			PrefOff:        DefaultPrefOffWeight,
			VesselMismatch: DefaultVesselMismatchWeight,
		},
		MaxNightsPerWeek: DefaultMaxNightsPerWeek,
	}
}

// ResolvedWeights 返回补齐默认值后的权重
func (sp *SchedulingPreferences) ResolvedWeights() PenaltyWeights {
	w := PenaltyWeights{
		HardViolation:  DefaultHardViolationWeight,
		Fairness:       DefaultFairnessWeight,
		NightOver:      DefaultNightOverWeight,
		ConsecNight:    DefaultConsecNightWeight,
		PrefOff:        DefaultPrefOffWeight,
		VesselMismatch: DefaultVesselMismatchWeight,
	}
	if sp == nil {
		return w
	}
	if sp.Weights.HardViolation > 0 {
		w.HardViolation = sp.Weights.HardViolation
	}
	if sp.Weights.Fairness > 0 {
		w.Fairness = sp.Weights.Fairness
	}
	if sp.Weights.NightOver > 0 {
		w.NightOver = sp.Weights.NightOver
	}
	if sp.Weights.ConsecNight > 0 {
		w.ConsecNight = sp.Weights.ConsecNight
	}
	if sp.Weights.PrefOff > 0 {
		w.PrefOff = sp.Weights.PrefOff
	}
	if sp.Weights.VesselMismatch > 0 {
		w.VesselMismatch = sp.Weights.VesselMismatch
	}
	return w
}

// ResolvedMaxNights 返回补齐默认值后的每周夜班上限
func (sp *SchedulingPreferences) ResolvedMaxNights() int {
	if sp == nil || sp.MaxNightsPerWeek <= 0 {
		return DefaultMaxNightsPerWeek
	}
	return sp.MaxNightsPerWeek
}

// PrefsFor 返回某船员的个人偏好
func (sp *SchedulingPreferences) PrefsFor(crewID uuid.UUID) CrewPreferences {
	if sp == nil || sp.PerCrew == nil {
		return CrewPreferences{}
	}
	return sp.PerCrew[crewID]
}

// RuleConfig 船队级规则配置
// 同一船队同时只有一份active配置生效
type RuleConfig struct {
	BaseModel
	FleetID     uuid.UUID              `json:"fleet_id" db:"fleet_id"`
	Name        string                 `json:"name" db:"name"`
	Description string                 `json:"description,omitempty" db:"description"`
	Active      bool                   `json:"active" db:"active"`
	Preferences *SchedulingPreferences `json:"preferences,omitempty" db:"-"`
}

// PreviousDate 返回前一个日历日（YYYY-MM-DD）
// 日期无效时返回空字符串
func PreviousDate(day string) string {
	d, err := time.ParseInLocation("2006-01-02", day, time.UTC)
	if err != nil {
		return ""
	}
	return d.AddDate(0, 0, -1).Format("2006-01-02")
}
