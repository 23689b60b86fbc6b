package model

import (
	"time"

	"github.com/google/uuid"
)

// Vessel 船舶
type Vessel struct {
	BaseModel
	FleetID uuid.UUID  `json:"fleet_id" db:"fleet_id"`
	Name    string     `json:"name" db:"name"`
	IMO     string     `json:"imo,omitempty" db:"imo"` // IMO 编号
	Type    VesselType `json:"type" db:"type"`
	Flag    string     `json:"flag,omitempty" db:"flag"` // 船旗国
	Status  string     `json:"status" db:"status"`       // in_service/laid_up
	Berths  int        `json:"berths,omitempty" db:"berths"`

	// 当前船位（换班调度使用）
	Position *Location `json:"position,omitempty" db:"position"`
}

// PortCallWindow 靠港窗口
// 靠港期间船舶在港，排班照常进行
type PortCallWindow struct {
	VesselID uuid.UUID `json:"vessel_id" db:"vessel_id"`
	Port     string    `json:"port,omitempty" db:"port"`
	Start    time.Time `json:"start" db:"start_at"`
	End      time.Time `json:"end" db:"end_at"`
}

// Window 返回靠港时间范围
func (p PortCallWindow) Window() TimeRange {
	return TimeRange{Start: p.Start, End: p.End}
}

// DrydockWindow 进坞窗口
// 进坞期间船舶停用，不安排任何班次
type DrydockWindow struct {
	VesselID uuid.UUID `json:"vessel_id" db:"vessel_id"`
	Yard     string    `json:"yard,omitempty" db:"yard"`
	Start    time.Time `json:"start" db:"start_at"`
	End      time.Time `json:"end" db:"end_at"`
}

// Window 返回进坞时间范围
func (d DrydockWindow) Window() TimeRange {
	return TimeRange{Start: d.Start, End: d.End}
}

// IsInService 检查船舶是否在役
func (v *Vessel) IsInService() bool {
	return v.Status == "in_service"
}
