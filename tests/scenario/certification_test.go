// Package scenario 提供场景测试
package scenario

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/scheduler/constraint"
	"github.com/crewplan/crewplan/pkg/scheduler/constraint/builtin"
	"github.com/crewplan/crewplan/pkg/scheduler/planner"
)

// TestCertificationRuleEvaluate 证书有效性规则整体评估测试
func TestCertificationRuleEvaluate(t *testing.T) {
	cm := constraint.NewManager()
	cm.Register(builtin.NewCertificationRule())

	fleetID := uuid.New()
	day := "2026-05-10"
	schedCtx := constraint.NewContext(fleetID, []string{day})

	vesselID := uuid.New()
	watch := createShift(vesselID, "货油操作值班", "08:00", "16:00", 1)
	watch.Cert = "STCW-V/1-1"
	schedCtx.SetShifts([]*model.ShiftTemplate{watch})

	// 持有效证书的船员
	certified := createCrew("张海", model.RankAbleSeaman)
	certified.Certifications = []model.Certification{
		{Code: "STCW-V/1-1", Expiry: "2027-01-01", Issuer: "MSA"},
	}

	// 证书已过期的船员
	lapsed := createCrew("李航", model.RankAbleSeaman)
	lapsed.Certifications = []model.Certification{
		{Code: "STCW-V/1-1", Expiry: "2026-05-09", Issuer: "MSA"},
	}

	schedCtx.SetCrew([]*model.CrewMember{certified, lapsed})

	window, err := watch.WindowOn(day)
	if err != nil {
		t.Fatalf("计算班次窗口失败: %v", err)
	}

	// 有效证书应通过
	schedCtx.SetAssignments([]*model.Assignment{
		{Date: day, ShiftID: watch.ID, CrewID: certified.ID, VesselID: vesselID, StartTime: window.Start, EndTime: window.End},
	})

	result := cm.Evaluate(schedCtx)
	if !result.IsValid {
		t.Error("持有效证书的船员应通过验证")
	}
	t.Logf("持证船员: 验证通过=%v, 违反数=%d", result.IsValid, len(result.HardViolations))

	// 过期证书应被拒绝
	schedCtx.SetAssignments([]*model.Assignment{
		{Date: day, ShiftID: watch.ID, CrewID: lapsed.ID, VesselID: vesselID, StartTime: window.Start, EndTime: window.End},
	})

	result = cm.Evaluate(schedCtx)
	if result.IsValid {
		t.Error("证书过期的船员应被拒绝")
	}
	if len(result.HardViolations) == 0 {
		t.Error("应该有硬规则违反记录")
	}

	t.Logf("过期证书船员: 验证通过=%v, 违反数=%d", result.IsValid, len(result.HardViolations))
	for _, v := range result.HardViolations {
		t.Logf("  违反: %s", v.Message)
	}
}

// TestCertificationExpiryBoundary 证书到期日边界测试
func TestCertificationExpiryBoundary(t *testing.T) {
	tests := []struct {
		name      string
		expiry    string
		date      string
		wantValid bool
	}{
		{
			name:      "到期日当天仍有效",
			expiry:    "2026-05-10",
			date:      "2026-05-10",
			wantValid: true,
		},
		{
			name:      "到期次日失效",
			expiry:    "2026-05-10",
			date:      "2026-05-11",
			wantValid: false,
		},
		{
			name:      "跨月边界失效",
			expiry:    "2026-09-30",
			date:      "2026-10-01",
			wantValid: false,
		},
		{
			name:      "跨月边界有效",
			expiry:    "2026-10-01",
			date:      "2026-09-30",
			wantValid: true,
		},
		{
			name:      "跨年边界失效",
			expiry:    "2025-12-31",
			date:      "2026-01-01",
			wantValid: false,
		},
		{
			name:      "跨年边界有效",
			expiry:    "2026-01-01",
			date:      "2025-12-31",
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cert := model.Certification{Code: "STCW-II/4", Expiry: tt.expiry}
			if got := cert.IsValidOn(tt.date); got != tt.wantValid {
				t.Errorf("IsValidOn(%s) = %v, want %v (expiry=%s)", tt.date, got, tt.wantValid, tt.expiry)
			}
		})
	}

	// 空证书代码表示无要求
	if !model.HasValidCertification(nil, "", "2026-05-10") {
		t.Error("无证书要求时应始终有效")
	}
}

// TestSameDayExclusiveSchedule 同日互斥: 一名船员一天只排一个班
func TestSameDayExclusiveSchedule(t *testing.T) {
	vesselID := uuid.New()

	morning := createShift(vesselID, "上午检修", "08:00", "12:00", 1)
	afternoon := createShift(vesselID, "下午检修", "13:00", "17:00", 1)

	only := createCrew("张海", model.RankAbleSeaman)

	days := []string{"2026-05-10"}
	req := &planner.Request{
		Days:   days,
		Shifts: []*model.ShiftTemplate{morning, afternoon},
		Crew:   []*model.CrewMember{only},
	}

	for _, engine := range []string{"constraint", "greedy"} {
		t.Run(engine, func(t *testing.T) {
			result, err := planner.NewSelector().Plan(context.Background(), engine, req)
			if err != nil {
				t.Fatalf("排班执行失败: %v", err)
			}

			if len(result.Scheduled) != 1 {
				t.Fatalf("scheduled = %d, 期望 1", len(result.Scheduled))
			}
			if result.Scheduled[0].ShiftID != morning.ID {
				t.Errorf("应按班次顺序先排上午检修")
			}

			if len(result.Unfilled) != 1 {
				t.Fatalf("unfilled = %d, 期望 1", len(result.Unfilled))
			}
			if result.Unfilled[0].ShiftID != afternoon.ID {
				t.Errorf("缺员班次 = %v, 期望下午检修", result.Unfilled[0].ShiftID)
			}
			if result.Unfilled[0].Reason != planner.ReasonInsufficientCrew {
				t.Errorf("缺员原因 = %q", result.Unfilled[0].Reason)
			}

			checkNoSameDayDouble(t, result)
			checkSlotConservation(t, days, req.Shifts, result)
		})
	}
}
