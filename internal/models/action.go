package models

import (
	"sort"
	"strings"
	"time"
)

// ActionType - закрытый перечень типов действий
type ActionType string

const (
	ActionNone               ActionType = "none"
	ActionMonitor            ActionType = "monitor"
	ActionEscalate           ActionType = "escalate"
	ActionDispatchEmergency  ActionType = "dispatch_emergency"
	ActionRerouteTraffic     ActionType = "reroute_traffic"
	ActionNotifyDistrict     ActionType = "notify_district"
	ActionCoordinateResponse ActionType = "coordinate_response"
)

var knownActionTypes = map[ActionType]struct{}{
	ActionNone:               {},
	ActionMonitor:            {},
	ActionEscalate:           {},
	ActionDispatchEmergency:  {},
	ActionRerouteTraffic:     {},
	ActionNotifyDistrict:     {},
	ActionCoordinateResponse: {},
}

// ParseActionType нормализует строку и проверяет, что тип входит в перечень
func ParseActionType(raw string) (ActionType, bool) {
	t := ActionType(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := knownActionTypes[t]
	return t, ok
}

// Origin - кто создал действие
type Origin string

const (
	OriginAgent       Origin = "agent"
	OriginCoordinator Origin = "coordinator"
)

// Action - действие, принятое агентом района или координатором. После записи не изменяется.
type Action struct {
	ID            string       `json:"id"`
	CreatedAt     time.Time    `json:"created_at"`
	Origin        Origin       `json:"origin"`
	Source        string       `json:"source"`
	Target        string       `json:"target"`
	ActionType    ActionType   `json:"action_type"`
	Reason        string       `json:"reason"`
	Detail        string       `json:"detail,omitempty"`
	EventSnapshot *SensorEvent `json:"event_snapshot,omitempty"`
	Escalations   []Escalation `json:"escalations,omitempty"`
}

// Escalation - активная эскалация района в состоянии координатора
type Escalation struct {
	District            string    `json:"district"`
	Severity            Severity  `json:"severity"`
	EventID             string    `json:"event_id"`
	ActionID            string    `json:"action_id"`
	SensorType          string    `json:"sensor_type"`
	Value               float64   `json:"value"`
	Timestamp           time.Time `json:"timestamp"`
	ReceivedAt          time.Time `json:"received_at"`
	RequestCoordination bool      `json:"request_coordination"`
}

// JoinDistricts возвращает отсортированный список районов через запятую
func JoinDistricts(districts []string) string {
	sorted := append([]string(nil), districts...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
