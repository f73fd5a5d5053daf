package decision

import (
	"context"
	"errors"
	"time"

	"github.com/shenikar/urban_monitoring_system/internal/models"
)

var (
	// ErrTimeout - сервис подсказок не ответил за отведенное время
	ErrTimeout = errors.New("decision: assist call timed out")
	// ErrInvalidResponse - ответ сервиса подсказок не соответствует ожидаемой структуре
	ErrInvalidResponse = errors.New("decision: invalid assist response")
	// ErrInputTooLarge - запрос не помещается в ограничение на размер входа
	ErrInputTooLarge = errors.New("decision: assist input too large")
)

// Cause - причина выбора детерминированного решения
type Cause string

const (
	CauseNone            Cause = ""
	CauseTimeout         Cause = "timeout"
	CauseInvalidResponse Cause = "invalid_response"
	CauseError           Cause = "error"
	CauseDisabled        Cause = "disabled"
	CauseInputTooLarge   Cause = "input_too_large"
)

// ReasonAssist - значение reason для решений, полученных от сервиса подсказок
const ReasonAssist = "llm"

// FallbackReason формирует reason вида "fallback:<cause>"
func FallbackReason(cause Cause) string {
	return "fallback:" + string(cause)
}

// Decision - решение по эскалации одного события
type Decision struct {
	Severity            models.Severity
	ActionType          models.ActionType
	Reason              string
	Detail              string
	CrossDistrict       bool
	RequestCoordination bool
	Assisted            bool
	Cause               Cause
}

// EscalationContext - вход решения для агента района
type EscalationContext struct {
	District string
	Event    models.SensorEvent
	History  []models.EventSummary
}

// PlanEntry - один пункт плана координации
type PlanEntry struct {
	Target     string
	ActionType models.ActionType
	Detail     string
}

// Plan - план координации нескольких районов
type Plan struct {
	Entries  []PlanEntry
	Reason   string
	Assisted bool
	Cause    Cause
}

// PlanContext - вход решения для координатора
type PlanContext struct {
	Triggers       []string
	Escalations    []models.Escalation
	KnownDistricts []string
}

// EscalationRequest - запрос к сервису подсказок по эскалации
type EscalationRequest struct {
	District     string                `json:"district"`
	RecentEvents []models.EventSummary `json:"recent_events"`
	CurrentEvent models.EventSummary   `json:"current_event"`
}

// EscalationResponse - ответ сервиса подсказок по эскалации
type EscalationResponse struct {
	Severity      string `json:"severity"`
	ActionType    string `json:"action_type"`
	Reason        string `json:"reason"`
	CrossDistrict *bool  `json:"cross_district,omitempty"`
}

// EscalationSummary - описание активной эскалации для запроса плана
type EscalationSummary struct {
	District   string          `json:"district"`
	Severity   models.Severity `json:"severity"`
	Timestamp  time.Time       `json:"timestamp"`
	SensorType string          `json:"sensor_type,omitempty"`
	Value      float64         `json:"value"`
}

// PlanRequest - запрос к сервису подсказок по плану координации
type PlanRequest struct {
	SourceDistricts []string            `json:"source_districts"`
	Escalations     []EscalationSummary `json:"escalations"`
	Districts       []string            `json:"districts"`
}

// PlanResponseEntry - пункт плана в ответе сервиса подсказок
type PlanResponseEntry struct {
	TargetDistrict string `json:"target_district"`
	ActionType     string `json:"action_type"`
	Reason         string `json:"reason"`
}

// PlanResponse - ответ сервиса подсказок по плану координации
type PlanResponse struct {
	Plan []PlanResponseEntry `json:"plan"`
}

//go:generate mockgen -source=types.go -destination=mocks/mock_assistant.go -package=mocks

// Assistant - внешний сервис подсказок, вызываемый с ограничением по времени
type Assistant interface {
	DecideEscalation(ctx context.Context, req EscalationRequest) (*EscalationResponse, error)
	PlanCoordination(ctx context.Context, req PlanRequest) (*PlanResponse, error)
}
