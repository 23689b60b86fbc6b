// Package builtin 提供内置排班规则实现
package builtin

import (
	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/scheduler/constraint"
)

// RegisterDefaultRules 注册默认规则到管理器
// 硬规则固定启用，软规则权重取排班偏好（未设置时取默认值）
func RegisterDefaultRules(manager *constraint.Manager, prefs *model.SchedulingPreferences) {
	weights := prefs.ResolvedWeights()

	// 注册硬规则
	manager.Register(NewLeaveConflictRule())
	manager.Register(NewSkillRequiredRule())
	manager.Register(NewCertificationRule())
	manager.Register(NewRankMinimumRule())
	manager.Register(NewSameDayExclusiveRule())
	manager.Register(NewNightCapRule())

	// 注册软规则
	manager.Register(NewFairnessRule(weights.Fairness))
	manager.Register(NewNightOverageRule(weights.NightOver))
	manager.Register(NewConsecutiveNightRule(weights.ConsecNight))
	manager.Register(NewDayOffPreferenceRule(weights.PrefOff))
	manager.Register(NewVesselPreferenceRule(weights.VesselMismatch))
}

// RegisterVoyageRules 注册航次场景的补充规则
// 在默认规则之上按配置启用值更间隔、周期配额和船型证书检查
func RegisterVoyageRules(manager *constraint.Manager, prefs *model.SchedulingPreferences, config map[string]interface{}, vessels []*model.Vessel) {
	RegisterDefaultRules(manager, prefs)

	// 值更间隔
	if turnaround := getConfigInt(config, "watch_turnaround_hours", 0); turnaround > 0 {
		manager.Register(NewWatchTurnaroundRule(turnaround))
	}

	// 周期班次配额
	if quota := getConfigInt(config, "max_shifts_per_horizon", 0); quota > 0 {
		manager.Register(NewHorizonQuotaRule(quota))
	}

	// 船型证书
	if certCfg, ok := config["cert_by_vessel_type"].(map[string]interface{}); ok && len(certCfg) > 0 {
		vesselTypes := make(map[uuid.UUID]model.VesselType, len(vessels))
		for _, v := range vessels {
			vesselTypes[v.ID] = v.Type
		}
		certByType := make(map[model.VesselType]string, len(certCfg))
		for typ, code := range certCfg {
			if s, ok := code.(string); ok && s != "" {
				certByType[model.VesselType(typ)] = s
			}
		}
		if len(certByType) > 0 {
			manager.Register(NewVesselTypeCertRule(vesselTypes, certByType))
		}
	}
}

// getConfigInt 从配置中获取整数
func getConfigInt(config map[string]interface{}, key string, defaultVal int) int {
	if config == nil {
		return defaultVal
	}
	if val, ok := config[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case float64:
			return int(v)
		case int64:
			return int(v)
		}
	}
	return defaultVal
}

// getConfigFloat 从配置中获取浮点数
func getConfigFloat(config map[string]interface{}, key string, defaultVal float64) float64 {
	if config == nil {
		return defaultVal
	}
	if val, ok := config[key]; ok {
		switch v := val.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		}
	}
	return defaultVal
}

// getConfigString 从配置中获取字符串
func getConfigString(config map[string]interface{}, key string, defaultVal string) string {
	if config == nil {
		return defaultVal
	}
	if val, ok := config[key].(string); ok {
		return val
	}
	return defaultVal
}
