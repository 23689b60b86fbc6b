package planner

import (
	"github.com/google/uuid"

	"github.com/crewplan/crewplan/pkg/model"
)

// isWindowAllowed 判断班次窗口内船舶是否可排班。
// 先查靠港窗口：与任一靠港窗口重叠即为可排（靠港期间照常值班）；
// 没有靠港重叠时再查坞修窗口，重叠则不可排；两者都不命中默认可排。
// 同时与靠港和坞修重叠时靠港优先，这是既定的判定顺序。
func isWindowAllowed(window model.TimeRange, vesselID uuid.UUID, portCalls []model.PortCallWindow, drydocks []model.DrydockWindow) bool {
	for _, pc := range portCalls {
		if pc.VesselID == vesselID && window.Overlaps(pc.Window()) {
			return true
		}
	}
	for _, dd := range drydocks {
		if dd.VesselID == vesselID && window.Overlaps(dd.Window()) {
			return false
		}
	}
	return true
}

// filterShiftsWithAllowedWindow 保留周期内至少有一天可排的班次模板，顺序不变
func filterShiftsWithAllowedWindow(days []string, shifts []*model.ShiftTemplate, portCalls []model.PortCallWindow, drydocks []model.DrydockWindow) []*model.ShiftTemplate {
	filtered := make([]*model.ShiftTemplate, 0, len(shifts))

	for _, shift := range shifts {
		for _, day := range days {
			window, err := shift.WindowOn(day)
			if err != nil {
				continue
			}
			if isWindowAllowed(window, shift.VesselID, portCalls, drydocks) {
				filtered = append(filtered, shift)
				break
			}
		}
	}

	return filtered
}

// mergeCertifications 把补充证书并入船员档案，返回新切片，不改动原档案
func mergeCertifications(crew []*model.CrewMember, extra map[uuid.UUID][]model.Certification) []*model.CrewMember {
	if len(extra) == 0 {
		return crew
	}

	enriched := make([]*model.CrewMember, len(crew))
	for i, member := range crew {
		certs, ok := extra[member.ID]
		if !ok || len(certs) == 0 {
			enriched[i] = member
			continue
		}

		clone := *member
		merged := make([]model.Certification, 0, len(member.Certifications)+len(certs))
		merged = append(merged, member.Certifications...)
		merged = append(merged, certs...)
		clone.Certifications = merged
		enriched[i] = &clone
	}

	return enriched
}
