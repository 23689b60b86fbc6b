// Package constraint 提供换班调派约束
package constraint

import (
	"time"

	"github.com/crewplan/crewplan/pkg/model"
)

// DispatchConstraint 换班调派约束接口
type DispatchConstraint interface {
	Name() string
	Type() string // hard/soft
	Weight() float64
	Evaluate(order *model.ReliefOrder, member *model.CrewMember, ctx *DispatchContext) (bool, float64, string)
}

// DispatchContext 调派上下文
type DispatchContext struct {
	Vessel     *model.Vessel             // 待补员船舶
	OpenOrders []*model.ReliefOrder      // 窗口内全部未完结调派单
	CrewOrders []*model.ReliefOrder      // 该船员名下的调派单
	History    []model.CrewVesselHistory // 船员-船舶服务履历
	Leaves     []model.LeaveRecord       // 该船员的休假记录
}

// BaseDispatchConstraint 基础调派约束
type BaseDispatchConstraint struct {
	name   string
	ctype  string
	weight float64
}

func (b *BaseDispatchConstraint) Name() string    { return b.name }
func (b *BaseDispatchConstraint) Type() string    { return b.ctype }
func (b *BaseDispatchConstraint) Weight() float64 { return b.weight }

// =========================================
// 1. EmploymentStatusConstraint 在册状态
// =========================================
type EmploymentStatusConstraint struct {
	BaseDispatchConstraint
}

func NewEmploymentStatusConstraint() *EmploymentStatusConstraint {
	return &EmploymentStatusConstraint{
		BaseDispatchConstraint: BaseDispatchConstraint{
			name:   "EmploymentStatus",
			ctype:  "hard",
			weight: 1000,
		},
	}
}

func (c *EmploymentStatusConstraint) Evaluate(order *model.ReliefOrder, member *model.CrewMember, ctx *DispatchContext) (bool, float64, string) {
	// 休班（signed_off）船员正是换班调派的候选，只拦截离职船员
	if member.Status == "inactive" {
		return false, c.weight, "船员已离职"
	}
	return true, 0, ""
}

// =========================================
// 2. TravelDistanceConstraint 动员距离
// =========================================
type TravelDistanceConstraint struct {
	BaseDispatchConstraint
	MaxDistanceKm float64 // 居住地到上船港的最大动员距离
}

func NewTravelDistanceConstraint(maxDistance float64) *TravelDistanceConstraint {
	return &TravelDistanceConstraint{
		BaseDispatchConstraint: BaseDispatchConstraint{
			name:   "TravelDistance",
			ctype:  "hard",
			weight: 1000,
		},
		MaxDistanceKm: maxDistance,
	}
}

func (c *TravelDistanceConstraint) Evaluate(order *model.ReliefOrder, member *model.CrewMember, ctx *DispatchContext) (bool, float64, string) {
	if order.Position == nil || member.HomeLocation == nil {
		// 无位置信息，跳过检查
		return true, 0, ""
	}

	distance := member.HomeLocation.Distance(*order.Position)

	if distance > c.MaxDistanceKm {
		return false, c.weight, "居住地距上船港超出动员范围"
	}

	// 软惩罚：距离越远惩罚越高
	penalty := distance / c.MaxDistanceKm * 10
	return true, penalty, ""
}

// =========================================
// 3. LeaveAvailabilityConstraint 休假冲突
// =========================================
type LeaveAvailabilityConstraint struct {
	BaseDispatchConstraint
}

func NewLeaveAvailabilityConstraint() *LeaveAvailabilityConstraint {
	return &LeaveAvailabilityConstraint{
		BaseDispatchConstraint: BaseDispatchConstraint{
			name:   "LeaveAvailability",
			ctype:  "hard",
			weight: 800,
		},
	}
}

func (c *LeaveAvailabilityConstraint) Evaluate(order *model.ReliefOrder, member *model.CrewMember, ctx *DispatchContext) (bool, float64, string) {
	if len(ctx.Leaves) == 0 {
		return true, 0, ""
	}

	day, err := time.Parse("2006-01-02", order.ReliefDate)
	if err != nil {
		// 日期无法解析时交由上游校验
		return true, 0, ""
	}
	dayEnd := day.Add(24 * time.Hour)

	for _, leave := range ctx.Leaves {
		if leave.Start.Before(dayEnd) && !leave.End.Before(day) {
			return false, c.weight, "换班日处于休假期间: " + leave.Type
		}
	}

	return true, 0, ""
}

// =========================================
// 4. OrderGapConstraint 任务间隔
// =========================================
type OrderGapConstraint struct {
	BaseDispatchConstraint
	MinGapDays int // 两次上船之间的最小间隔天数
}

func NewOrderGapConstraint(minGap int) *OrderGapConstraint {
	return &OrderGapConstraint{
		BaseDispatchConstraint: BaseDispatchConstraint{
			name:   "OrderGap",
			ctype:  "hard",
			weight: 500,
		},
		MinGapDays: minGap,
	}
}

func (c *OrderGapConstraint) Evaluate(order *model.ReliefOrder, member *model.CrewMember, ctx *DispatchContext) (bool, float64, string) {
	if len(ctx.CrewOrders) == 0 {
		return true, 0, ""
	}

	day, err := time.Parse("2006-01-02", order.ReliefDate)
	if err != nil {
		return true, 0, ""
	}

	for _, existing := range ctx.CrewOrders {
		if existing.Status == "completed" || existing.Status == "cancelled" {
			continue
		}
		existDay, err := time.Parse("2006-01-02", existing.ReliefDate)
		if err != nil {
			continue
		}

		if existDay.Equal(day) {
			return false, c.weight, "当日已有调派任务"
		}

		gap := int(existDay.Sub(day).Hours() / 24)
		if gap < 0 {
			gap = -gap
		}
		if gap < c.MinGapDays {
			return false, c.weight * 0.5, "与既有调派任务间隔不足"
		}
	}

	return true, 0, ""
}

// =========================================
// 5. MaxOpenOrdersConstraint 在手任务上限
// =========================================
type MaxOpenOrdersConstraint struct {
	BaseDispatchConstraint
	MaxOrders int
}

func NewMaxOpenOrdersConstraint(maxOrders int) *MaxOpenOrdersConstraint {
	return &MaxOpenOrdersConstraint{
		BaseDispatchConstraint: BaseDispatchConstraint{
			name:   "MaxOpenOrders",
			ctype:  "hard",
			weight: 300,
		},
		MaxOrders: maxOrders,
	}
}

func (c *MaxOpenOrdersConstraint) Evaluate(order *model.ReliefOrder, member *model.CrewMember, ctx *DispatchContext) (bool, float64, string) {
	currentCount := 0
	for _, o := range ctx.CrewOrders {
		if o.Status == "pending" || o.Status == "assigned" {
			currentCount++
		}
	}

	if currentCount >= c.MaxOrders {
		return false, c.weight, "船员持有调派单已达上限"
	}

	// 软惩罚：在手任务越多惩罚越高
	penalty := float64(currentCount) / float64(c.MaxOrders) * 5
	return true, penalty, ""
}

// =========================================
// 6. RankRequirementConstraint 职级要求
// =========================================
type RankRequirementConstraint struct {
	BaseDispatchConstraint
}

func NewRankRequirementConstraint() *RankRequirementConstraint {
	return &RankRequirementConstraint{
		BaseDispatchConstraint: BaseDispatchConstraint{
			name:   "RankRequirement",
			ctype:  "hard",
			weight: 600,
		},
	}
}

func (c *RankRequirementConstraint) Evaluate(order *model.ReliefOrder, member *model.CrewMember, ctx *DispatchContext) (bool, float64, string) {
	if order.Rank == "" {
		return true, 0, ""
	}

	if !model.RankAtLeast(member.Rank, order.Rank) {
		return false, c.weight, "职级低于要求: " + order.Rank
	}

	return true, 0, ""
}

// =========================================
// 7. CertificationConstraint 证书检查
// =========================================
type CertificationConstraint struct {
	BaseDispatchConstraint
	VesselTypeCerts map[model.VesselType][]string // 船型 -> 所需证书
}

func NewCertificationConstraint() *CertificationConstraint {
	return &CertificationConstraint{
		BaseDispatchConstraint: BaseDispatchConstraint{
			name:   "CertificationValid",
			ctype:  "hard",
			weight: 800,
		},
		VesselTypeCerts: map[model.VesselType][]string{
			model.VesselTanker:    {"STCW-V/1-1"},
			model.VesselPassenger: {"STCW-V/2"},
			model.VesselOffshore:  {"STCW-VI/1"},
		},
	}
}

func (c *CertificationConstraint) Evaluate(order *model.ReliefOrder, member *model.CrewMember, ctx *DispatchContext) (bool, float64, string) {
	required := make([]string, 0, 2)
	if order.Cert != "" {
		required = append(required, order.Cert)
	}
	if ctx.Vessel != nil {
		required = append(required, c.VesselTypeCerts[ctx.Vessel.Type]...)
	}

	for _, code := range required {
		if !model.HasValidCertification(member.Certifications, code, order.ReliefDate) {
			return false, c.weight, "缺少有效证书: " + code
		}
	}

	return true, 0, ""
}

// =========================================
// 8. SkillMatchConstraint 技能匹配
// =========================================
type SkillMatchConstraint struct {
	BaseDispatchConstraint
}

func NewSkillMatchConstraint() *SkillMatchConstraint {
	return &SkillMatchConstraint{
		BaseDispatchConstraint: BaseDispatchConstraint{
			name:   "SkillMatch",
			ctype:  "hard",
			weight: 600,
		},
	}
}

func (c *SkillMatchConstraint) Evaluate(order *model.ReliefOrder, member *model.CrewMember, ctx *DispatchContext) (bool, float64, string) {
	if len(order.Skills) == 0 {
		return true, 0, ""
	}

	for _, skill := range order.Skills {
		if !member.HasSkill(skill) {
			return false, c.weight, "缺少必需技能: " + skill
		}
	}

	return true, 0, ""
}

// =========================================
// 9. VesselFamiliarityConstraint 船舶熟悉度
// =========================================
type VesselFamiliarityConstraint struct {
	BaseDispatchConstraint
}

func NewVesselFamiliarityConstraint() *VesselFamiliarityConstraint {
	return &VesselFamiliarityConstraint{
		BaseDispatchConstraint: BaseDispatchConstraint{
			name:   "VesselFamiliarity",
			ctype:  "soft",
			weight: 40,
		},
	}
}

func (c *VesselFamiliarityConstraint) Evaluate(order *model.ReliefOrder, member *model.CrewMember, ctx *DispatchContext) (bool, float64, string) {
	for _, h := range ctx.History {
		if h.CrewID == member.ID && h.VesselID == order.VesselID {
			bonus := 0.0

			// 上船次数奖励
			if h.ServiceCount > 5 {
				bonus -= 15
			} else if h.ServiceCount > 2 {
				bonus -= 8
			}

			// 累计在船天数奖励
			if h.TotalDays >= 365 {
				bonus -= 10
			} else if h.TotalDays >= 180 {
				bonus -= 5
			}

			// 常驻班底奖励
			if h.IsRegular {
				bonus -= 20
			}

			return true, bonus, ""
		}
	}

	// 服务过该船但无履历明细，小幅奖励
	if member.HasServed(order.VesselID) {
		return true, -5, ""
	}

	// 从未上过该船，轻微惩罚
	return true, 5, ""
}

// DefaultDispatchConstraints 返回默认调派约束集合
func DefaultDispatchConstraints() []DispatchConstraint {
	return []DispatchConstraint{
		NewEmploymentStatusConstraint(),   // 在册状态
		NewTravelDistanceConstraint(6000), // 最大动员距离6000km
		NewLeaveAvailabilityConstraint(),  // 休假冲突
		NewOrderGapConstraint(2),          // 最小任务间隔2天
		NewMaxOpenOrdersConstraint(2),     // 在手调派单上限
		NewRankRequirementConstraint(),    // 职级要求
		NewCertificationConstraint(),      // 证书检查
		NewSkillMatchConstraint(),         // 技能匹配
		NewVesselFamiliarityConstraint(),  // 船舶熟悉度
	}
}
