package v1

import (
	"encoding/json"
	"time"
)

// TelemetryRequest DTO для приема показания датчика
// @Description DTO для приема показания датчика
type TelemetryRequest struct {
	Topic   string          `json:"topic" validate:"required" example:"city/D1/traffic"`
	Payload json.RawMessage `json:"payload" validate:"required" swaggertype:"object"`
}

// EventResponse DTO для ответа с принятым событием
// @Description DTO для ответа с принятым событием
type EventResponse struct {
	ID         string    `json:"id"`
	District   string    `json:"district"`
	SensorType string    `json:"sensor_type"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	Severity   string    `json:"severity"`
	Timestamp  time.Time `json:"timestamp"`
	Topic      string    `json:"topic"`
}

// ActionResponse DTO для действия агента или координатора
// @Description DTO для действия агента или координатора
type ActionResponse struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Origin     string    `json:"origin"`
	Source     string    `json:"source"`
	Target     string    `json:"target"`
	ActionType string    `json:"action_type"`
	Reason     string    `json:"reason"`
	Detail     string    `json:"detail,omitempty"`
	EventID    string    `json:"event_id,omitempty"`
}

// CommandResponse DTO для последней команды координатора, полученной районом
// @Description DTO для команды координатора
type CommandResponse struct {
	ActionID   string    `json:"action_id"`
	Source     string    `json:"source"`
	ActionType string    `json:"action_type"`
	Reason     string    `json:"reason"`
	Detail     string    `json:"detail,omitempty"`
	IssuedAt   time.Time `json:"issued_at"`
}

// DistrictStatsResponse DTO для счетчиков агента района
// @Description DTO для счетчиков агента района
type DistrictStatsResponse struct {
	EventsProcessed  int `json:"events_processed"`
	ActionsEmitted   int `json:"actions_emitted"`
	Suppressed       int `json:"suppressed"`
	Duplicates       int `json:"duplicates"`
	CommandsReceived int `json:"commands_received"`
}

// DistrictResponse DTO для состояния агента района
// @Description DTO для состояния агента района
type DistrictResponse struct {
	District         string                `json:"district"`
	State            string                `json:"state"`
	LastEvent        *EventResponse        `json:"last_event,omitempty"`
	LastAction       *ActionResponse       `json:"last_action,omitempty"`
	CooldownUntil    *time.Time            `json:"cooldown_until,omitempty"`
	CooldownSeverity string                `json:"cooldown_severity,omitempty"`
	LastCommand      *CommandResponse      `json:"last_command,omitempty"`
	HistorySize      int                   `json:"history_size"`
	MailboxDepth     int                   `json:"mailbox_depth"`
	Stats            DistrictStatsResponse `json:"stats"`
}

// EscalationResponse DTO для активной эскалации
// @Description DTO для активной эскалации
type EscalationResponse struct {
	District            string    `json:"district"`
	Severity            string    `json:"severity"`
	EventID             string    `json:"event_id"`
	SensorType          string    `json:"sensor_type"`
	Value               float64   `json:"value"`
	ReceivedAt          time.Time `json:"received_at"`
	RequestCoordination bool      `json:"request_coordination"`
}

// PlanResponse DTO для последнего плана координации
// @Description DTO для последнего плана координации
type PlanResponse struct {
	TriggerKey string            `json:"trigger_key"`
	Reason     string            `json:"reason"`
	IssuedAt   time.Time         `json:"issued_at"`
	Actions    []*ActionResponse `json:"actions"`
}

// CoordinatorStatsResponse DTO для счетчиков координатора
// @Description DTO для счетчиков координатора
type CoordinatorStatsResponse struct {
	SignalsReceived      int `json:"signals_received"`
	PlansIssued          int `json:"plans_issued"`
	ActionsEmitted       int `json:"actions_emitted"`
	SuppressedByCooldown int `json:"suppressed_by_cooldown"`
	CommandsDropped      int `json:"commands_dropped"`
}

// CoordinatorResponse DTO для состояния координатора
// @Description DTO для состояния координатора
type CoordinatorResponse struct {
	Active         []*EscalationResponse    `json:"active"`
	Cooldowns      map[string]time.Time     `json:"cooldowns"`
	KnownDistricts []string                 `json:"known_districts"`
	LastPlan       *PlanResponse            `json:"last_plan,omitempty"`
	MailboxDepth   int                      `json:"mailbox_depth"`
	Stats          CoordinatorStatsResponse `json:"stats"`
}
