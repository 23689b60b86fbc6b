package planner

import (
	"testing"

	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/model"
)

func TestIsWindowAllowed(t *testing.T) {
	vesselID := uuid.New()
	otherVessel := uuid.New()

	window := model.TimeRange{
		Start: utc("2026-01-11", "08:00"),
		End:   utc("2026-01-11", "16:00"),
	}

	drydock := model.DrydockWindow{
		VesselID: vesselID,
		Start:    utc("2026-01-10", "00:00"),
		End:      utc("2026-01-12", "00:00"),
	}
	portCall := model.PortCallWindow{
		VesselID: vesselID,
		Port:     "Rotterdam",
		Start:    utc("2026-01-11", "06:00"),
		End:      utc("2026-01-11", "20:00"),
	}

	tests := []struct {
		name      string
		portCalls []model.PortCallWindow
		drydocks  []model.DrydockWindow
		expected  bool
	}{
		{"无任何窗口默认可排", nil, nil, true},
		{"坞修重叠不可排", nil, []model.DrydockWindow{drydock}, false},
		{"靠港重叠可排", []model.PortCallWindow{portCall}, nil, true},
		{"靠港与坞修同时重叠时靠港优先", []model.PortCallWindow{portCall}, []model.DrydockWindow{drydock}, true},
		{"他船坞修不影响本船", nil, []model.DrydockWindow{{VesselID: otherVessel, Start: drydock.Start, End: drydock.End}}, true},
		{"不重叠的坞修不影响", nil, []model.DrydockWindow{{VesselID: vesselID, Start: utc("2026-01-12", "00:00"), End: utc("2026-01-13", "00:00")}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isWindowAllowed(window, vesselID, tt.portCalls, tt.drydocks); got != tt.expected {
				t.Errorf("isWindowAllowed() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestFilterShiftsWithAllowedWindow(t *testing.T) {
	blocked := newTestShift("坞修中的班", "08:00", "16:00", 1)
	partial := newTestShift("部分可排的班", "08:00", "16:00", 1)
	open := newTestShift("全程可排的班", "08:00", "16:00", 1)

	days := []string{"2026-01-11", "2026-01-12"}
	drydocks := []model.DrydockWindow{
		// 全程覆盖 blocked 的船
		{VesselID: blocked.VesselID, Start: utc("2026-01-11", "00:00"), End: utc("2026-01-13", "00:00")},
		// 只覆盖 partial 的第一天
		{VesselID: partial.VesselID, Start: utc("2026-01-11", "00:00"), End: utc("2026-01-12", "00:00")},
	}

	filtered := filterShiftsWithAllowedWindow(days,
		[]*model.ShiftTemplate{blocked, partial, open}, nil, drydocks)

	if len(filtered) != 2 {
		t.Fatalf("filtered = %d, expected 2", len(filtered))
	}
	if filtered[0].ID != partial.ID || filtered[1].ID != open.ID {
		t.Errorf("过滤应保持输入顺序: %v", []string{filtered[0].Name, filtered[1].Name})
	}
}

func TestMergeCertifications(t *testing.T) {
	withProfile := newTestCrew("张海")
	withProfile.Certifications = []model.Certification{{Code: "STCW-VI/1", Expiry: "2026-06-30"}}
	bare := newTestCrew("李航")

	extra := map[uuid.UUID][]model.Certification{
		withProfile.ID: {{Code: "GMDSS", Expiry: "2026-12-31"}},
	}

	enriched := mergeCertifications([]*model.CrewMember{withProfile, bare}, extra)

	if len(enriched[0].Certifications) != 2 {
		t.Errorf("合并后证书数 = %d, expected 2", len(enriched[0].Certifications))
	}
	if enriched[0].Certifications[0].Code != "STCW-VI/1" {
		t.Error("档案证书应排在前面")
	}
	// 原档案不被改动
	if len(withProfile.Certifications) != 1 {
		t.Errorf("原档案证书数 = %d, expected 1", len(withProfile.Certifications))
	}
	// 无补充证书的船员沿用原对象
	if enriched[1] != bare {
		t.Error("无补充证书的船员不应复制")
	}

	t.Run("空补充表直接返回原切片", func(t *testing.T) {
		crew := []*model.CrewMember{bare}
		if got := mergeCertifications(crew, nil); &got[0] != &crew[0] {
			t.Error("空补充表不应复制切片")
		}
	})
}
