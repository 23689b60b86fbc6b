// Package rotation 提供船舶值班制目录与班次模板生成
package rotation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/model"
)

// WatchSystem 值班制
type WatchSystem string

const (
	// TwoWatch 6/6 对班制：四段六小时值班
	TwoWatch WatchSystem = "two_watch"
	// ThreeWatch 4/8 三班制：六段四小时值班
	ThreeWatch WatchSystem = "three_watch"
	// DayWorker 日勤制：单段白班
	DayWorker WatchSystem = "day_worker"
)

// watchBlock 值班时段
type watchBlock struct {
	code  string
	start string
	end   string
}

// Catalog 值班制目录
type Catalog struct {
	// 值班制对应的时段划分
	systemBlocks map[WatchSystem][]watchBlock
	// 值班制对应的岗位
	systemRoles map[WatchSystem]string
}

// NewCatalog 创建值班制目录
func NewCatalog() *Catalog {
	return &Catalog{
		systemBlocks: map[WatchSystem][]watchBlock{
			TwoWatch: {
				{code: "W1", start: "00:00", end: "06:00"},
				{code: "W2", start: "06:00", end: "12:00"},
				{code: "W3", start: "12:00", end: "18:00"},
				{code: "W4", start: "18:00", end: "00:00"},
			},
			ThreeWatch: {
				{code: "W1", start: "00:00", end: "04:00"},
				{code: "W2", start: "04:00", end: "08:00"},
				{code: "W3", start: "08:00", end: "12:00"},
				{code: "W4", start: "12:00", end: "16:00"},
				{code: "W5", start: "16:00", end: "20:00"},
				{code: "W6", start: "20:00", end: "00:00"},
			},
			DayWorker: {
				{code: "DAY", start: "08:00", end: "17:00"},
			},
		},
		systemRoles: map[WatchSystem]string{
			TwoWatch:   "watchkeeper",
			ThreeWatch: "watchkeeper",
			DayWorker:  "day_worker",
		},
	}
}

// Systems 返回支持的值班制
func (c *Catalog) Systems() []WatchSystem {
	return []WatchSystem{TwoWatch, ThreeWatch, DayWorker}
}

// Valid 判断值班制是否受支持
func (c *Catalog) Valid(system WatchSystem) bool {
	_, ok := c.systemBlocks[system]
	return ok
}

// Templates 按值班制为船舶生成班次模板。
// needed 为每段值班的需求人数，小于 1 时取 1。
func (c *Catalog) Templates(vesselID uuid.UUID, system WatchSystem, needed int) ([]*model.ShiftTemplate, error) {
	blocks, ok := c.systemBlocks[system]
	if !ok {
		return nil, fmt.Errorf("不支持的值班制: %s", system)
	}
	if vesselID == uuid.Nil {
		return nil, fmt.Errorf("缺少船舶标识")
	}
	if needed < 1 {
		needed = 1
	}

	templates := make([]*model.ShiftTemplate, len(blocks))
	for i, block := range blocks {
		templates[i] = &model.ShiftTemplate{
			BaseModel: model.NewBaseModel(),
			VesselID:  vesselID,
			Name:      fmt.Sprintf("%s-%s 值班", block.start, block.end),
			Code:      block.code,
			Role:      c.systemRoles[system],
			StartTime: block.start,
			EndTime:   block.end,
			Needed:    needed,
			IsActive:  true,
		}
	}

	return templates, nil
}

// NightBlocks 统计一个值班制中按夜班判定的时段数
func (c *Catalog) NightBlocks(system WatchSystem) int {
	count := 0
	for _, block := range c.systemBlocks[system] {
		t, err := time.Parse("15:04", block.start)
		if err != nil {
			continue
		}
		if model.IsNightStart(t) {
			count++
		}
	}
	return count
}
