package decision

import (
	"fmt"
	"sort"

	"github.com/shenikar/urban_monitoring_system/internal/models"
)

// Rules - детерминированная политика решений. Не обращается к сети и всегда доступна.
type Rules struct {
	Adjacency map[string][]string
}

// ActionFor возвращает тип действия для уровня критичности
func (Rules) ActionFor(severity models.Severity) models.ActionType {
	switch severity {
	case models.SeverityCritical:
		return models.ActionDispatchEmergency
	case models.SeverityHigh:
		return models.ActionEscalate
	case models.SeverityMedium:
		return models.ActionMonitor
	default:
		return models.ActionNone
	}
}

// Decide вычисляет решение по событию без сервиса подсказок
func (r Rules) Decide(ec EscalationContext) Decision {
	severity := ec.Event.Severity
	action := r.ActionFor(severity)
	return Decision{
		Severity:            severity,
		ActionType:          action,
		Detail:              fmt.Sprintf("rule: %s %s=%g %s -> %s", severity, ec.Event.SensorType, ec.Event.Value, ec.Event.Unit, action),
		CrossDistrict:       severity.IsCritical(),
		RequestCoordination: severity == models.SeverityCritical,
	}
}

// Plan строит план по фиксированной политике: каждому району-инициатору - coordinate_response,
// каждому соседу, не входящему в инициаторы, - reroute_traffic.
func (r Rules) Plan(pc PlanContext) Plan {
	triggers := make(map[string]struct{}, len(pc.Triggers))
	for _, d := range pc.Triggers {
		triggers[d] = struct{}{}
	}

	var entries []PlanEntry
	sorted := append([]string(nil), pc.Triggers...)
	sort.Strings(sorted)
	for _, d := range sorted {
		entries = append(entries, PlanEntry{
			Target:     d,
			ActionType: models.ActionCoordinateResponse,
			Detail:     "rule: coordinate response with concurrent escalations",
		})
	}

	seen := make(map[string]struct{})
	for _, d := range sorted {
		for _, n := range r.Adjacency[d] {
			if _, isTrigger := triggers[n]; isTrigger {
				continue
			}
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			entries = append(entries, PlanEntry{
				Target:     n,
				ActionType: models.ActionRerouteTraffic,
				Detail:     fmt.Sprintf("rule: support adjacent escalation in %s", d),
			})
		}
	}
	return Plan{Entries: entries}
}
