package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shenikar/urban_monitoring_system/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureStore struct {
	events  []models.SensorEvent
	actions []models.Action
}

func (s *captureStore) CreateEvent(_ context.Context, event models.SensorEvent) (string, error) {
	s.events = append(s.events, event)
	return event.ID, nil
}

func (s *captureStore) CreateAction(_ context.Context, action models.Action) (string, error) {
	s.actions = append(s.actions, action)
	return action.ID, nil
}

func TestOutboxWorker_ProcessPayload(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	store := &captureStore{}
	worker := NewOutboxWorker(nil, store, RetryPolicy{MaxRetries: 1}, logger)

	action := models.Action{
		ID:         "act-1",
		CreatedAt:  time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		Origin:     models.OriginCoordinator,
		Source:     "D1,D2",
		Target:     "D3",
		ActionType: models.ActionRerouteTraffic,
		Reason:     "fallback:timeout",
		Escalations: []models.Escalation{
			{District: "D1", Severity: models.SeverityHigh},
			{District: "D2", Severity: models.SeverityCritical},
		},
	}
	payload, err := json.Marshal(actionRecord(action))
	require.NoError(t, err)

	require.NoError(t, worker.process(context.Background(), string(payload)))

	require.Len(t, store.actions, 1)
	assert.Equal(t, "D3", store.actions[0].Target)
	assert.Equal(t, models.SeverityCritical, store.actions[0].Escalations[1].Severity)
	assert.Empty(t, store.events)
}

func TestOutboxWorker_RejectsMalformedPayload(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	worker := NewOutboxWorker(nil, &captureStore{}, RetryPolicy{MaxRetries: 1}, logger)

	assert.Error(t, worker.process(context.Background(), "{not json"))
}

func TestDeliver_MalformedRecord(t *testing.T) {
	err := deliver(context.Background(), &captureStore{}, Record{Kind: KindEvent})

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "create event", perr.Op)
}
