package decision_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shenikar/urban_monitoring_system/internal/decision"
	"github.com/shenikar/urban_monitoring_system/internal/decision/mocks"
	"github.com/shenikar/urban_monitoring_system/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestEngine(t *testing.T, opts decision.Options) (*decision.Engine, *mocks.MockAssistant) {
	ctrl := gomock.NewController(t)
	assistant := mocks.NewMockAssistant(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	rules := decision.Rules{Adjacency: map[string][]string{"D1": {"D2", "D3"}}}
	return decision.NewEngine(assistant, rules, opts, logger), assistant
}

func trafficEvent(value float64, severity models.Severity) models.SensorEvent {
	return models.SensorEvent{
		ID:         "evt-1",
		District:   "D1",
		SensorType: "traffic",
		Value:      value,
		Unit:       "veh/min",
		Severity:   severity,
		Timestamp:  time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		Topic:      "city/D1/traffic",
	}
}

func TestDecide_AssistAccepted(t *testing.T) {
	// Подготовка
	engine, assistant := newTestEngine(t, decision.Options{Timeout: time.Second})
	ec := decision.EscalationContext{District: "D1", Event: trafficEvent(95, models.SeverityHigh)}

	// Ожидания
	assistant.EXPECT().
		DecideEscalation(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req decision.EscalationRequest) (*decision.EscalationResponse, error) {
			assert.Equal(t, "D1", req.District)
			assert.Equal(t, 95.0, req.CurrentEvent.Value)
			return &decision.EscalationResponse{Severity: "high", ActionType: "escalate", Reason: "congestion spreading"}, nil
		}).Times(1)

	// Действие
	d := engine.Decide(context.Background(), ec)

	// Проверки
	assert.Equal(t, "llm", d.Reason)
	assert.Equal(t, models.ActionEscalate, d.ActionType)
	assert.Equal(t, "congestion spreading", d.Detail)
	assert.True(t, d.Assisted)
	assert.True(t, d.CrossDistrict)
}

func TestDecide_TimeoutFallsBack(t *testing.T) {
	engine, assistant := newTestEngine(t, decision.Options{Timeout: time.Millisecond})
	ec := decision.EscalationContext{District: "D1", Event: trafficEvent(95, models.SeverityHigh)}

	// Сервис игнорирует контекст и отвечает слишком поздно
	assistant.EXPECT().
		DecideEscalation(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, decision.EscalationRequest) (*decision.EscalationResponse, error) {
			time.Sleep(50 * time.Millisecond)
			return &decision.EscalationResponse{Severity: "low", ActionType: "none", Reason: "late"}, nil
		}).Times(1)

	d := engine.Decide(context.Background(), ec)

	assert.Equal(t, "fallback:timeout", d.Reason)
	assert.Equal(t, decision.CauseTimeout, d.Cause)
	assert.Equal(t, models.ActionEscalate, d.ActionType)
	assert.False(t, d.Assisted)
}

func TestDecide_ContextAwareTimeout(t *testing.T) {
	engine, assistant := newTestEngine(t, decision.Options{Timeout: time.Millisecond})
	ec := decision.EscalationContext{District: "D1", Event: trafficEvent(130, models.SeverityCritical)}

	assistant.EXPECT().
		DecideEscalation(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ decision.EscalationRequest) (*decision.EscalationResponse, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}).Times(1)

	d := engine.Decide(context.Background(), ec)

	assert.Equal(t, "fallback:timeout", d.Reason)
	assert.Equal(t, models.ActionDispatchEmergency, d.ActionType)
	assert.True(t, d.RequestCoordination)
}

func TestDecide_InvalidResponseFallsBack(t *testing.T) {
	tests := []struct {
		name string
		resp *decision.EscalationResponse
	}{
		{name: "unknown action", resp: &decision.EscalationResponse{Severity: "high", ActionType: "launch_rockets", Reason: "x"}},
		{name: "unknown severity", resp: &decision.EscalationResponse{Severity: "apocalyptic", ActionType: "escalate", Reason: "x"}},
		{name: "missing reason", resp: &decision.EscalationResponse{Severity: "high", ActionType: "escalate"}},
		{name: "nil response", resp: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, assistant := newTestEngine(t, decision.Options{Timeout: time.Second})
			assistant.EXPECT().DecideEscalation(gomock.Any(), gomock.Any()).Return(tt.resp, nil).Times(1)

			d := engine.Decide(context.Background(), decision.EscalationContext{District: "D1", Event: trafficEvent(95, models.SeverityHigh)})

			assert.Equal(t, "fallback:invalid_response", d.Reason)
			assert.Equal(t, models.ActionEscalate, d.ActionType)
		})
	}
}

func TestDecide_CallErrorFallsBack(t *testing.T) {
	engine, assistant := newTestEngine(t, decision.Options{Timeout: time.Second})
	assistant.EXPECT().DecideEscalation(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused")).Times(1)

	d := engine.Decide(context.Background(), decision.EscalationContext{District: "D1", Event: trafficEvent(95, models.SeverityHigh)})

	assert.Equal(t, "fallback:error", d.Reason)
}

func TestDecide_DisabledAssistant(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	engine := decision.NewEngine(nil, decision.Rules{}, decision.Options{Timeout: time.Second}, logger)

	d := engine.Decide(context.Background(), decision.EscalationContext{District: "D1", Event: trafficEvent(95, models.SeverityHigh)})

	assert.Equal(t, "fallback:disabled", d.Reason)
	assert.Equal(t, models.ActionEscalate, d.ActionType)
}

func TestDecide_HistoryTrimmedToInputLimit(t *testing.T) {
	ev := trafficEvent(95, models.SeverityHigh)
	bare, err := json.Marshal(decision.EscalationRequest{District: "D1", CurrentEvent: ev.Summary()})
	require.NoError(t, err)

	engine, assistant := newTestEngine(t, decision.Options{Timeout: time.Second, MaxInputBytes: len(bare) + 10})
	history := []models.EventSummary{
		trafficEvent(10, models.SeverityLow).Summary(),
		trafficEvent(60, models.SeverityMedium).Summary(),
	}

	assistant.EXPECT().
		DecideEscalation(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req decision.EscalationRequest) (*decision.EscalationResponse, error) {
			assert.Empty(t, req.RecentEvents)
			return &decision.EscalationResponse{Severity: "high", ActionType: "escalate", Reason: "ok"}, nil
		}).Times(1)

	d := engine.Decide(context.Background(), decision.EscalationContext{District: "D1", Event: ev, History: history})

	assert.Equal(t, "llm", d.Reason)
	assert.Len(t, history, 2)
}

func TestDecide_InputTooLarge(t *testing.T) {
	engine, assistant := newTestEngine(t, decision.Options{Timeout: time.Second, MaxInputBytes: 16})
	assistant.EXPECT().DecideEscalation(gomock.Any(), gomock.Any()).Times(0)

	d := engine.Decide(context.Background(), decision.EscalationContext{District: "D1", Event: trafficEvent(95, models.SeverityHigh)})

	assert.Equal(t, "fallback:input_too_large", d.Reason)
}

func TestPlan_AssistAccepted(t *testing.T) {
	engine, assistant := newTestEngine(t, decision.Options{Timeout: time.Second})
	pc := decision.PlanContext{
		Triggers:       []string{"D1", "D2"},
		KnownDistricts: []string{"D1", "D2", "D3"},
		Escalations: []models.Escalation{
			{District: "D1", Severity: models.SeverityHigh},
			{District: "D2", Severity: models.SeverityHigh},
		},
	}

	assistant.EXPECT().
		PlanCoordination(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req decision.PlanRequest) (*decision.PlanResponse, error) {
			assert.Len(t, req.Escalations, 2)
			assert.Equal(t, []string{"D1", "D2"}, req.SourceDistricts)
			return &decision.PlanResponse{Plan: []decision.PlanResponseEntry{
				{TargetDistrict: "D3", ActionType: "reroute_traffic", Reason: "absorb traffic"},
			}}, nil
		}).Times(1)

	plan := engine.Plan(context.Background(), pc)

	require.Len(t, plan.Entries, 1)
	assert.Equal(t, "llm", plan.Reason)
	assert.Equal(t, "D3", plan.Entries[0].Target)
	assert.Equal(t, models.ActionRerouteTraffic, plan.Entries[0].ActionType)
}

func TestPlan_UnknownTargetFallsBack(t *testing.T) {
	engine, assistant := newTestEngine(t, decision.Options{Timeout: time.Second})
	pc := decision.PlanContext{Triggers: []string{"D1", "D2"}, KnownDistricts: []string{"D1", "D2", "D3"}}

	assistant.EXPECT().PlanCoordination(gomock.Any(), gomock.Any()).Return(&decision.PlanResponse{Plan: []decision.PlanResponseEntry{
		{TargetDistrict: "Atlantis", ActionType: "reroute_traffic", Reason: "?"},
	}}, nil).Times(1)

	plan := engine.Plan(context.Background(), pc)

	assert.Equal(t, "fallback:invalid_response", plan.Reason)
	// D1 и D2 - инициаторы, D3 - сосед D1
	require.Len(t, plan.Entries, 3)
	assert.Equal(t, "D1", plan.Entries[0].Target)
	assert.Equal(t, models.ActionCoordinateResponse, plan.Entries[0].ActionType)
	assert.Equal(t, "D2", plan.Entries[1].Target)
	assert.Equal(t, "D3", plan.Entries[2].Target)
	assert.Equal(t, models.ActionRerouteTraffic, plan.Entries[2].ActionType)
}

func TestPlan_EmptyPlanFallsBack(t *testing.T) {
	engine, assistant := newTestEngine(t, decision.Options{Timeout: time.Second})
	assistant.EXPECT().PlanCoordination(gomock.Any(), gomock.Any()).Return(&decision.PlanResponse{}, nil).Times(1)

	plan := engine.Plan(context.Background(), decision.PlanContext{Triggers: []string{"D2"}, KnownDistricts: []string{"D2"}})

	assert.Equal(t, "fallback:invalid_response", plan.Reason)
	require.Len(t, plan.Entries, 1)
	assert.Equal(t, "D2", plan.Entries[0].Target)
}

func TestRules_ActionBands(t *testing.T) {
	rules := decision.Rules{}

	assert.Equal(t, models.ActionNone, rules.ActionFor(models.SeverityLow))
	assert.Equal(t, models.ActionMonitor, rules.ActionFor(models.SeverityMedium))
	assert.Equal(t, models.ActionEscalate, rules.ActionFor(models.SeverityHigh))
	assert.Equal(t, models.ActionDispatchEmergency, rules.ActionFor(models.SeverityCritical))
}
