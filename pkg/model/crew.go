package model

import (
	"time"

	"github.com/google/uuid"
)

// 船员职级（由低到高）
const (
	RankAbleSeaman    = "Able Seaman"
	RankDeckOfficer   = "Deck Officer"
	RankChiefOfficer  = "Chief Officer"
	RankChiefEngineer = "Chief Engineer"
)

// rankOrder 职级序号，数值越大职级越高
var rankOrder = map[string]int{
	RankAbleSeaman:    1,
	RankDeckOfficer:   2,
	RankChiefOfficer:  3,
	RankChiefEngineer: 4,
}

// RankAtLeast 检查职级是否达到最低要求
// 任一职级未收录时不做限制
func RankAtLeast(rank, min string) bool {
	r, rok := rankOrder[rank]
	m, mok := rankOrder[min]
	if !rok || !mok {
		return true
	}
	return r >= m
}

// CrewMember 船员
type CrewMember struct {
	BaseModel
	FleetID  uuid.UUID `json:"fleet_id" db:"fleet_id"`
	Name     string    `json:"name" db:"name"`
	Code     string    `json:"code" db:"code"`
	Phone    string    `json:"phone,omitempty" db:"phone"`
	Email    string    `json:"email,omitempty" db:"email"`
	Status   string    `json:"status" db:"status"` // active/inactive/signed_off
	Rank     string    `json:"rank" db:"rank"`
	HireDate string    `json:"hire_date,omitempty" db:"hire_date"`

	// 排班相关
	Skills         []string        `json:"skills" db:"skills"`
	Certifications []Certification `json:"certifications,omitempty" db:"certifications"`

	// 工作偏好
	Preferences *CrewPreferences `json:"preferences,omitempty" db:"preferences"`

	// 调派相关（换班调度使用）
	HomeLocation  *Location   `json:"home_location,omitempty" db:"home_location"`
	ServedVessels []uuid.UUID `json:"served_vessels,omitempty" db:"served_vessels"`
}

// CrewPreferences 船员偏好
type CrewPreferences struct {
	DaysOff           []string   `json:"days_off,omitempty"`            // 期望休息日（YYYY-MM-DD）
	PreferredVesselID *uuid.UUID `json:"preferred_vessel_id,omitempty"` // 偏好船舶
}

// Certification 适任证书
type Certification struct {
	Code   string `json:"code" db:"code"`     // 证书代码，如 STCW-VI/1
	Expiry string `json:"expiry" db:"expiry"` // 到期日（YYYY-MM-DD）
	Issuer string `json:"issuer,omitempty" db:"issuer"`
}

// IsValidOn 检查证书在某日期是否有效（到期日当天仍有效）
// 日期均为 YYYY-MM-DD 格式，可直接按字典序比较
func (c Certification) IsValidOn(date string) bool {
	return c.Expiry >= date
}

// HasValidCertification 检查证书列表中是否存在某代码的有效证书
// 代码为空表示无证书要求
func HasValidCertification(certs []Certification, code, date string) bool {
	if code == "" {
		return true
	}
	for _, c := range certs {
		if c.Code == code && c.IsValidOn(date) {
			return true
		}
	}
	return false
}

// LeaveRecord 休假记录
type LeaveRecord struct {
	CrewID uuid.UUID `json:"crew_id" db:"crew_id"`
	Start  time.Time `json:"start" db:"start_at"`
	End    time.Time `json:"end" db:"end_at"`
	Type   string    `json:"type,omitempty" db:"type"` // annual/medical/shore
	Reason string    `json:"reason,omitempty" db:"reason"`
}

// Covers 检查某时刻是否落在休假区间内（闭区间）
func (l LeaveRecord) Covers(t time.Time) bool {
	return !t.Before(l.Start) && !t.After(l.End)
}

// IsActive 检查船员是否在册
func (c *CrewMember) IsActive() bool {
	return c.Status == "active"
}

// HasSkill 检查船员是否具备某技能
func (c *CrewMember) HasSkill(skill string) bool {
	for _, s := range c.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// HasServed 检查船员是否曾在某船舶服务
func (c *CrewMember) HasServed(vesselID uuid.UUID) bool {
	for _, v := range c.ServedVessels {
		if v == vesselID {
			return true
		}
	}
	return false
}
