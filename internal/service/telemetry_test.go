package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shenikar/urban_monitoring_system/internal/agent"
	"github.com/shenikar/urban_monitoring_system/internal/ingest"
	"github.com/shenikar/urban_monitoring_system/internal/models"
	"github.com/shenikar/urban_monitoring_system/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// newTestTelemetryService - вспомогательная функция для создания инстанса сервиса с моками.
func newTestTelemetryService(t *testing.T) (TelemetryService, *mocks.MockEventNormalizer, *mocks.MockEventRouter, *mocks.MockCoordinatorReader) {
	ctrl := gomock.NewController(t)
	normalizerMock := mocks.NewMockEventNormalizer(ctrl)
	routerMock := mocks.NewMockEventRouter(ctrl)
	coordinatorMock := mocks.NewMockCoordinatorReader(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	return NewTelemetryService(normalizerMock, routerMock, coordinatorMock, logger), normalizerMock, routerMock, coordinatorMock
}

func testEvent() models.SensorEvent {
	return models.SensorEvent{
		ID:         "evt-1",
		District:   "D1",
		SensorType: "traffic",
		Value:      130,
		Unit:       "vehicles/min",
		Severity:   models.SeverityCritical,
		Timestamp:  time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
		Topic:      "city/D1/traffic",
	}
}

func TestIngest_Success(t *testing.T) {
	// Подготовка
	service, normalizerMock, routerMock, _ := newTestTelemetryService(t)
	ctx := context.Background()
	msg := ingest.RawMessage{Topic: "city/D1/traffic", Payload: []byte(`{}`)}
	event := testEvent()

	// Ожидания
	normalizerMock.EXPECT().Normalize(msg).Return(event, nil).Times(1)
	routerMock.EXPECT().Route(ctx, event).Return(nil).Times(1)

	// Действие
	got, err := service.Ingest(ctx, msg)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, event, got)
}

func TestIngest_ValidationError(t *testing.T) {
	// Подготовка
	service, normalizerMock, _, _ := newTestTelemetryService(t)
	msg := ingest.RawMessage{Topic: "bad", Payload: []byte(`{}`)}
	validationErr := &ingest.ValidationError{Topic: "bad", Reason: "malformed topic"}

	// Ожидания
	normalizerMock.EXPECT().Normalize(msg).Return(models.SensorEvent{}, validationErr).Times(1)
	// Route не должен вызываться

	// Действие
	_, err := service.Ingest(context.Background(), msg)

	// Проверки
	require.Error(t, err)
	var target *ingest.ValidationError
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, "malformed topic", target.Reason)
}

func TestIngest_CapacityError(t *testing.T) {
	// Подготовка
	service, normalizerMock, routerMock, _ := newTestTelemetryService(t)
	ctx := context.Background()
	msg := ingest.RawMessage{Topic: "city/D1/traffic", Payload: []byte(`{}`)}
	event := testEvent()
	capErr := &agent.CapacityError{District: "D1", Reason: agent.ReasonMailboxFull, Limit: 8}

	// Ожидания
	normalizerMock.EXPECT().Normalize(msg).Return(event, nil).Times(1)
	routerMock.EXPECT().Route(ctx, event).Return(capErr).Times(1)

	// Действие
	got, err := service.Ingest(ctx, msg)

	// Проверки
	require.Error(t, err)
	assert.Equal(t, event.ID, got.ID)
	assert.True(t, ingest.IsTemporary(err))
	var target *agent.CapacityError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, agent.ReasonMailboxFull, target.Reason)
}

func TestIngest_RouterStopped(t *testing.T) {
	// Подготовка
	service, normalizerMock, routerMock, _ := newTestTelemetryService(t)
	ctx := context.Background()
	msg := ingest.RawMessage{Topic: "city/D1/traffic", Payload: []byte(`{}`)}
	event := testEvent()

	// Ожидания
	normalizerMock.EXPECT().Normalize(msg).Return(event, nil).Times(1)
	routerMock.EXPECT().Route(ctx, event).Return(agent.ErrStopped).Times(1)

	// Действие
	_, err := service.Ingest(ctx, msg)

	// Проверки
	require.Error(t, err)
	assert.ErrorIs(t, err, agent.ErrStopped)
	assert.False(t, ingest.IsTemporary(err))
}

func TestRoute_RepeatedDeliveryKeepsEvent(t *testing.T) {
	// Подготовка
	service, _, routerMock, _ := newTestTelemetryService(t)
	ctx := context.Background()
	event := testEvent()
	capErr := &agent.CapacityError{District: "D1", Reason: agent.ReasonMailboxFull, Limit: 8}

	// Ожидания
	gomock.InOrder(
		routerMock.EXPECT().Route(ctx, event).Return(capErr).Times(1),
		routerMock.EXPECT().Route(ctx, event).Return(nil).Times(1),
	)
	// Normalize не должен вызываться

	// Действие
	firstErr := service.Route(ctx, event)
	secondErr := service.Route(ctx, event)

	// Проверки
	require.Error(t, firstErr)
	assert.True(t, ingest.IsTemporary(firstErr))
	assert.NoError(t, secondErr)
}

func TestNormalize_ValidationError(t *testing.T) {
	// Подготовка
	service, normalizerMock, _, _ := newTestTelemetryService(t)
	msg := ingest.RawMessage{Topic: "city/D1", Payload: []byte(`{}`)}

	// Ожидания
	normalizerMock.EXPECT().Normalize(msg).Return(models.SensorEvent{}, &ingest.ValidationError{Topic: "city/D1", Reason: "malformed topic"}).Times(1)

	// Действие
	_, err := service.Normalize(msg)

	// Проверки
	var target *ingest.ValidationError
	require.ErrorAs(t, err, &target)
	assert.False(t, ingest.IsTemporary(err))
}

func TestListDistricts(t *testing.T) {
	// Подготовка
	service, _, routerMock, _ := newTestTelemetryService(t)
	ctx := context.Background()
	expected := []agent.DistrictSnapshot{{District: "D1"}, {District: "D2"}}

	// Ожидания
	routerMock.EXPECT().Snapshots(ctx).Return(expected).Times(1)

	// Действие
	got := service.ListDistricts(ctx)

	// Проверки
	assert.Equal(t, expected, got)
}

func TestGetDistrict_Success(t *testing.T) {
	// Подготовка
	service, _, routerMock, _ := newTestTelemetryService(t)
	ctx := context.Background()
	expected := agent.DistrictSnapshot{District: "D1", State: agent.StateCooldown}

	// Ожидания
	routerMock.EXPECT().Snapshot(ctx, "D1").Return(expected, nil).Times(1)

	// Действие
	got, err := service.GetDistrict(ctx, "D1")

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

func TestGetDistrict_Unknown(t *testing.T) {
	// Подготовка
	service, _, routerMock, _ := newTestTelemetryService(t)
	ctx := context.Background()

	// Ожидания
	routerMock.EXPECT().Snapshot(ctx, "D9").Return(agent.DistrictSnapshot{}, agent.ErrUnknownDistrict).Times(1)

	// Действие
	_, err := service.GetDistrict(ctx, "D9")

	// Проверки
	require.Error(t, err)
	assert.ErrorIs(t, err, agent.ErrUnknownDistrict)
}

func TestGetCoordinator_Success(t *testing.T) {
	// Подготовка
	service, _, _, coordinatorMock := newTestTelemetryService(t)
	ctx := context.Background()
	expected := agent.CoordinatorSnapshot{KnownDistricts: []string{"D1", "D2"}}

	// Ожидания
	coordinatorMock.EXPECT().Snapshot(ctx).Return(expected, nil).Times(1)

	// Действие
	got, err := service.GetCoordinator(ctx)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

func TestGetCoordinator_Error(t *testing.T) {
	// Подготовка
	service, _, _, coordinatorMock := newTestTelemetryService(t)
	ctx := context.Background()

	// Ожидания
	coordinatorMock.EXPECT().Snapshot(ctx).Return(agent.CoordinatorSnapshot{}, agent.ErrStopped).Times(1)

	// Действие
	_, err := service.GetCoordinator(ctx)

	// Проверки
	require.Error(t, err)
	assert.ErrorIs(t, err, agent.ErrStopped)
}
