// Package rules 排班规则目录
package rules

// RuleParam 规则参数定义
type RuleParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // int, float, string, bool, array
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
}

// RuleDefinition 规则定义
type RuleDefinition struct {
	Name        string      `json:"name"`
	DisplayName string      `json:"display_name"`
	Type        string      `json:"type"`     // hard 硬规则, soft 软规则
	Category    string      `json:"category"` // 分类
	Description string      `json:"description"`
	VesselTypes []string    `json:"vessel_types"` // 适用船型
	Params      []RuleParam `json:"params"`
}

// LibraryResponse 规则库响应
type LibraryResponse struct {
	Library []RuleDefinition `json:"library"`
}

// GetLibrary 获取完整的规则库
func GetLibrary() []RuleDefinition {
	return []RuleDefinition{
		// =====================================================
		// 通用硬规则
		// =====================================================
		{
			Name:        "leave_conflict",
			DisplayName: "休假冲突",
			Type:        "hard",
			Category:    "可用性",
			Description: "船员休假期间不安排任何班次，班次窗口与休假区间重叠即排除。",
			VesselTypes: []string{"cargo", "tanker", "passenger", "offshore"},
			Params:      []RuleParam{},
		},
		{
			Name:        "skill_required",
			DisplayName: "技能要求",
			Type:        "hard",
			Category:    "资质要求",
			Description: "确保分配的船员具备班次要求的技能（如驾驶、轮机、动力定位）。",
			VesselTypes: []string{"cargo", "tanker", "passenger", "offshore"},
			Params:      []RuleParam{},
		},
		{
			Name:        "cert_valid",
			DisplayName: "证书有效性",
			Type:        "hard",
			Category:    "资质要求",
			Description: "检查船员适任证书在班次当日仍在有效期内，到期日当天仍视为有效。",
			VesselTypes: []string{"cargo", "tanker", "passenger", "offshore"},
			Params:      []RuleParam{},
		},
		{
			Name:        "min_rank",
			DisplayName: "最低职级",
			Type:        "hard",
			Category:    "资质要求",
			Description: "班次设有最低职级要求时，只安排达到该职级的船员；未收录的职级不做限制。",
			VesselTypes: []string{"cargo", "tanker", "passenger", "offshore"},
			Params:      []RuleParam{},
		},
		{
			Name:        "same_day_exclusive",
			DisplayName: "同日唯一",
			Type:        "hard",
			Category:    "值更安排",
			Description: "同一船员同一日历日最多承担一个班次，跨午夜班次占用其开始日。",
			VesselTypes: []string{"cargo", "tanker", "passenger", "offshore"},
			Params:      []RuleParam{},
		},
		{
			Name:        "night_cap",
			DisplayName: "夜班上限",
			Type:        "hard",
			Category:    "休息保障",
			Description: "限制船员每个ISO周内的夜班数量，保障海上值更的休息节律。",
			VesselTypes: []string{"cargo", "tanker", "passenger", "offshore"},
			Params: []RuleParam{
				{Name: "max_nights", Type: "int", Description: "每周最大夜班数", Default: "4", Min: "1", Max: "7"},
			},
		},

		// =====================================================
		// 通用软规则
		// =====================================================
		{
			Name:        "workload_fairness",
			DisplayName: "负载公平",
			Type:        "soft",
			Category:    "公平性",
			Description: "尽量使各船员的班次数量分布均匀，降低最多与最少之间的差距。",
			VesselTypes: []string{"cargo", "tanker", "passenger", "offshore"},
			Params: []RuleParam{
				{Name: "weight", Type: "int", Description: "优化权重", Default: "20", Min: "0", Max: "100"},
			},
		},
		{
			Name:        "night_overage",
			DisplayName: "夜班超额",
			Type:        "soft",
			Category:    "休息保障",
			Description: "夜班数接近周上限时逐班加罚，引导引擎优先把夜班分给还有余量的船员。",
			VesselTypes: []string{"cargo", "tanker", "passenger", "offshore"},
			Params: []RuleParam{
				{Name: "weight", Type: "int", Description: "优化权重", Default: "10", Min: "0", Max: "100"},
			},
		},
		{
			Name:        "consecutive_nights",
			DisplayName: "连续夜班",
			Type:        "soft",
			Category:    "休息保障",
			Description: "前一日已值夜班的船员再排夜班时加罚，减少连续夜班。",
			VesselTypes: []string{"cargo", "tanker", "passenger", "offshore"},
			Params: []RuleParam{
				{Name: "weight", Type: "int", Description: "优化权重", Default: "8", Min: "0", Max: "100"},
			},
		},
		{
			Name:        "day_off_preference",
			DisplayName: "期望休息日",
			Type:        "soft",
			Category:    "偏好",
			Description: "尽量避开船员标记的期望休息日。",
			VesselTypes: []string{"cargo", "tanker", "passenger", "offshore"},
			Params: []RuleParam{
				{Name: "weight", Type: "int", Description: "优化权重", Default: "6", Min: "0", Max: "100"},
			},
		},
		{
			Name:        "vessel_preference",
			DisplayName: "偏好船舶",
			Type:        "soft",
			Category:    "偏好",
			Description: "船员设有偏好船舶时，安排到其他船舶的班次加罚。",
			VesselTypes: []string{"cargo", "tanker", "passenger", "offshore"},
			Params: []RuleParam{
				{Name: "weight", Type: "int", Description: "优化权重", Default: "3", Min: "0", Max: "100"},
			},
		},

		// =====================================================
		// 航次场景补充规则
		// =====================================================
		{
			Name:        "watch_turnaround",
			DisplayName: "值更间隔",
			Type:        "hard",
			Category:    "休息保障",
			Description: "同一船员相邻班次之间保证最短间隔时间，符合海上值更休息要求。",
			VesselTypes: []string{"cargo", "tanker", "passenger", "offshore"},
			Params: []RuleParam{
				{Name: "watch_turnaround_hours", Type: "int", Description: "最短间隔(小时)", Default: "8", Min: "6", Max: "16"},
			},
		},
		{
			Name:        "horizon_quota",
			DisplayName: "周期班次配额",
			Type:        "hard",
			Category:    "值更安排",
			Description: "限制船员在整个排班周期内承担的班次总数。",
			VesselTypes: []string{"cargo", "tanker", "passenger", "offshore"},
			Params: []RuleParam{
				{Name: "max_shifts_per_horizon", Type: "int", Description: "周期内最大班次数", Default: "20", Min: "1", Max: "62"},
			},
		},
		{
			Name:        "vessel_type_cert",
			DisplayName: "船型证书",
			Type:        "hard",
			Category:    "资质要求",
			Description: "按船型要求额外证书（如油轮、客船、海工船的专项培训证书）。",
			VesselTypes: []string{"tanker", "passenger", "offshore"},
			Params: []RuleParam{
				{Name: "cert_by_vessel_type", Type: "array", Description: "船型到证书代码映射", Default: "tanker:STCW-V/1-1,passenger:STCW-V/2,offshore:STCW-VI/1"},
			},
		},
	}
}

// TemplateRule 模板中的规则摘要
type TemplateRule struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Default     string `json:"default"`
}

// RuleTemplate 船型规则模板
type RuleTemplate struct {
	VesselType  string         `json:"vessel_type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Rules       []TemplateRule `json:"rules"`
}

// TemplatesResponse 规则模板响应
type TemplatesResponse struct {
	Templates []RuleTemplate `json:"templates"`
}

// GetTemplates 获取各船型的默认规则模板
func GetTemplates() []RuleTemplate {
	// 通用硬规则
	commonHardRules := []TemplateRule{
		{Name: "leave_conflict", Type: "hard", Category: "可用性", Description: "休假冲突", Default: "必须满足"},
		{Name: "skill_required", Type: "hard", Category: "资质要求", Description: "技能要求", Default: "必须满足"},
		{Name: "cert_valid", Type: "hard", Category: "资质要求", Description: "证书有效性", Default: "班次当日有效"},
		{Name: "same_day_exclusive", Type: "hard", Category: "值更安排", Description: "同日唯一", Default: "每日最多1班"},
		{Name: "night_cap", Type: "hard", Category: "休息保障", Description: "夜班上限", Default: "每周4班"},
	}

	// 通用软规则
	commonSoftRules := []TemplateRule{
		{Name: "workload_fairness", Type: "soft", Category: "公平性", Description: "负载公平", Default: "权重20"},
		{Name: "day_off_preference", Type: "soft", Category: "偏好", Description: "期望休息日", Default: "权重6"},
		{Name: "consecutive_nights", Type: "soft", Category: "休息保障", Description: "连续夜班", Default: "权重8"},
	}

	templates := []RuleTemplate{
		{
			VesselType:  "cargo",
			Name:        "货船标准模板",
			Description: "适用于货船的标准规则配置，包含基础值更与休息保障规则",
			Rules: append(append(commonHardRules,
				TemplateRule{Name: "watch_turnaround", Type: "hard", Category: "休息保障", Description: "值更间隔", Default: "8小时"},
			), commonSoftRules...),
		},
		{
			VesselType:  "tanker",
			Name:        "油轮模板",
			Description: "适用于油轮的规则配置，额外要求油轮专项证书",
			Rules: append(append(commonHardRules,
				TemplateRule{Name: "vessel_type_cert", Type: "hard", Category: "资质要求", Description: "船型证书", Default: "STCW-V/1-1"},
				TemplateRule{Name: "watch_turnaround", Type: "hard", Category: "休息保障", Description: "值更间隔", Default: "10小时"},
			), commonSoftRules...),
		},
		{
			VesselType:  "passenger",
			Name:        "客船模板",
			Description: "适用于客船的规则配置，包含客船专项证书与较严的夜班限制",
			Rules: append(append(commonHardRules,
				TemplateRule{Name: "vessel_type_cert", Type: "hard", Category: "资质要求", Description: "船型证书", Default: "STCW-V/2"},
				TemplateRule{Name: "horizon_quota", Type: "hard", Category: "值更安排", Description: "周期班次配额", Default: "18班"},
			), commonSoftRules...),
		},
		{
			VesselType:  "offshore",
			Name:        "海工船模板",
			Description: "适用于海工船的规则配置，包含海工安全证书与配额限制",
			Rules: append(append(commonHardRules,
				TemplateRule{Name: "vessel_type_cert", Type: "hard", Category: "资质要求", Description: "船型证书", Default: "STCW-VI/1"},
				TemplateRule{Name: "horizon_quota", Type: "hard", Category: "值更安排", Description: "周期班次配额", Default: "20班"},
			), commonSoftRules...),
		},
	}

	return templates
}
