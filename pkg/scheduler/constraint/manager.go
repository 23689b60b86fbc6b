// Package constraint 定义排班规则接口和管理器
package constraint

import (
	"fmt"
	"sort"
	"sync"

	"github.com/crewplan/crewplan/pkg/logger"
	"github.com/crewplan/crewplan/pkg/model"
)

// Manager 规则管理器
type Manager struct {
	constraints []Constraint
	mu          sync.RWMutex
	logger      *logger.PlannerLogger
}

// NewManager 创建规则管理器
func NewManager() *Manager {
	return &Manager{
		constraints: make([]Constraint, 0),
		logger:      logger.NewPlannerLogger(),
	}
}

// Register 注册规则
func (m *Manager) Register(c Constraint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 检查是否已存在同类型规则
	for i, existing := range m.constraints {
		if existing.Type() == c.Type() {
			m.constraints[i] = c // 替换
			return
		}
	}

	m.constraints = append(m.constraints, c)

	// 按类别和权重排序：硬规则在前，权重高的在前
	sort.SliceStable(m.constraints, func(i, j int) bool {
		ci, cj := m.constraints[i], m.constraints[j]
		if ci.Category() != cj.Category() {
			return ci.Category() == CategoryHard
		}
		return ci.Weight() > cj.Weight()
	})
}

// Unregister 注销规则
func (m *Manager) Unregister(t Type) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, c := range m.constraints {
		if c.Type() == t {
			m.constraints = append(m.constraints[:i], m.constraints[i+1:]...)
			return
		}
	}
}

// GetConstraint 获取规则
func (m *Manager) GetConstraint(t Type) Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.constraints {
		if c.Type() == t {
			return c
		}
	}
	return nil
}

// GetAll 获取所有规则
func (m *Manager) GetAll() []Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Constraint, len(m.constraints))
	copy(result, m.constraints)
	return result
}

// GetByCategory 按类别获取规则
func (m *Manager) GetByCategory(cat Category) []Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Constraint
	for _, c := range m.constraints {
		if c.Category() == cat {
			result = append(result, c)
		}
	}
	return result
}

// Evaluate 评估所有规则
func (m *Manager) Evaluate(ctx *Context) *Result {
	m.mu.RLock()
	constraints := make([]Constraint, len(m.constraints))
	copy(constraints, m.constraints)
	m.mu.RUnlock()

	result := &Result{
		IsValid:        true,
		TotalPenalty:   0,
		HardViolations: make([]ViolationDetail, 0),
		SoftViolations: make([]ViolationDetail, 0),
	}

	maxPenalty := 0

	for _, c := range constraints {
		valid, penalty, details := c.Evaluate(ctx)

		// 累加最大可能罚分（用于计算得分）
		maxPenalty += c.Weight() * 100 // 假设每条规则最多违反100次

		if !valid || penalty > 0 {
			result.TotalPenalty += penalty

			for _, d := range details {
				if c.Category() == CategoryHard {
					result.IsValid = false
					result.HardViolations = append(result.HardViolations, d)
					m.logger.RuleViolation(c.Name(), d.Message)
				} else {
					result.SoftViolations = append(result.SoftViolations, d)
				}
			}
		}
	}

	result.CalculateScore(maxPenalty)
	return result
}

// EvaluateAssignment 评估单个分配
func (m *Manager) EvaluateAssignment(ctx *Context, assignment *model.Assignment) (bool, int, []ViolationDetail) {
	m.mu.RLock()
	constraints := make([]Constraint, len(m.constraints))
	copy(constraints, m.constraints)
	m.mu.RUnlock()

	var violations []ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, c := range constraints {
		valid, penalty := c.EvaluateAssignment(ctx, assignment)
		if !valid || penalty > 0 {
			totalPenalty += penalty
			violations = append(violations, ViolationDetail{
				ConstraintType: c.Type(),
				ConstraintName: c.Name(),
				CrewID:         assignment.CrewID,
				Date:           assignment.Date,
				Message:        fmt.Sprintf("违反规则: %s", c.Name()),
				Severity:       string(c.Category()),
				Penalty:        penalty,
			})

			if c.Category() == CategoryHard && !valid {
				isValid = false
			}
		}
	}

	return isValid, totalPenalty, violations
}

// CanAssign 检查候选分配是否满足全部硬规则
func (m *Manager) CanAssign(ctx *Context, assignment *model.Assignment) (bool, string) {
	hardConstraints := m.GetByCategory(CategoryHard)

	for _, c := range hardConstraints {
		valid, _ := c.EvaluateAssignment(ctx, assignment)
		if !valid {
			return false, fmt.Sprintf("违反硬规则: %s", c.Name())
		}
	}

	return true, ""
}

// GetPenalty 计算候选分配的软规则罚分
func (m *Manager) GetPenalty(ctx *Context, assignment *model.Assignment) int {
	softConstraints := m.GetByCategory(CategorySoft)

	penalty := 0
	for _, c := range softConstraints {
		_, p := c.EvaluateAssignment(ctx, assignment)
		penalty += p
	}
	return penalty
}

// Clear 清除所有规则
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.constraints = make([]Constraint, 0)
}

// Count 返回规则数量
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.constraints)
}

// Summary 返回规则摘要
func (m *Manager) Summary() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hard := 0
	soft := 0
	for _, c := range m.constraints {
		if c.Category() == CategoryHard {
			hard++
		} else {
			soft++
		}
	}

	return map[string]interface{}{
		"total": len(m.constraints),
		"hard":  hard,
		"soft":  soft,
	}
}
