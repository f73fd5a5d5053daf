package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shenikar/urban_monitoring_system/internal/agent"
	"github.com/shenikar/urban_monitoring_system/internal/ingest"
	"github.com/shenikar/urban_monitoring_system/internal/models"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// EventNormalizer определяет контракт проверки сырой телеметрии
type EventNormalizer interface {
	Normalize(msg ingest.RawMessage) (models.SensorEvent, error)
}

// EventRouter определяет контракт доставки событий агентам районов
type EventRouter interface {
	Route(ctx context.Context, event models.SensorEvent) error
	Snapshot(ctx context.Context, district string) (agent.DistrictSnapshot, error)
	Snapshots(ctx context.Context) []agent.DistrictSnapshot
}

// CoordinatorReader определяет контракт чтения состояния координатора
type CoordinatorReader interface {
	Snapshot(ctx context.Context) (agent.CoordinatorSnapshot, error)
}

// TelemetryService определяет контракт приема телеметрии и чтения состояния агентов
type TelemetryService interface {
	Ingest(ctx context.Context, msg ingest.RawMessage) (models.SensorEvent, error)
	Normalize(msg ingest.RawMessage) (models.SensorEvent, error)
	Route(ctx context.Context, event models.SensorEvent) error
	ListDistricts(ctx context.Context) []agent.DistrictSnapshot
	GetDistrict(ctx context.Context, name string) (agent.DistrictSnapshot, error)
	GetCoordinator(ctx context.Context) (agent.CoordinatorSnapshot, error)
}

type telemetryService struct {
	normalizer  EventNormalizer
	router      EventRouter
	coordinator CoordinatorReader
	logger      *logrus.Logger
}

// NewTelemetryService создает сервис телеметрии
func NewTelemetryService(normalizer EventNormalizer, router EventRouter, coordinator CoordinatorReader, logger *logrus.Logger) TelemetryService {
	return &telemetryService{
		normalizer:  normalizer,
		router:      router,
		coordinator: coordinator,
		logger:      logger,
	}
}

// Ingest проверяет сообщение и передает событие агенту района.
// Ошибки *ingest.ValidationError и *agent.CapacityError возвращаются обернутыми.
func (s *telemetryService) Ingest(ctx context.Context, msg ingest.RawMessage) (models.SensorEvent, error) {
	event, err := s.Normalize(msg)
	if err != nil {
		return models.SensorEvent{}, err
	}
	if err := s.Route(ctx, event); err != nil {
		return event, err
	}
	return event, nil
}

// Normalize проверяет сообщение и создает событие. Событие уходит на запись ровно один раз.
func (s *telemetryService) Normalize(msg ingest.RawMessage) (models.SensorEvent, error) {
	event, err := s.normalizer.Normalize(msg)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"service": "telemetry",
			"method":  "Normalize",
			"topic":   msg.Topic,
		}).WithError(err).Warn("Dropping invalid telemetry")
		return models.SensorEvent{}, fmt.Errorf("service: invalid telemetry: %w", err)
	}
	return event, nil
}

// Route передает готовое событие агенту района. Повторный вызов с тем же событием безопасен.
func (s *telemetryService) Route(ctx context.Context, event models.SensorEvent) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "telemetry",
		"method":   "Route",
		"event_id": event.ID,
		"district": event.District,
	})

	if err := s.router.Route(ctx, event); err != nil {
		var capErr *agent.CapacityError
		if errors.As(err, &capErr) {
			log.WithError(err).Warn("Event not delivered: capacity exceeded")
		} else {
			log.WithError(err).Error("Event not delivered")
		}
		return fmt.Errorf("service: could not route event: %w", err)
	}

	log.Debug("Event routed")
	return nil
}

// ListDistricts возвращает состояние всех агентов районов
func (s *telemetryService) ListDistricts(ctx context.Context) []agent.DistrictSnapshot {
	return s.router.Snapshots(ctx)
}

// GetDistrict возвращает состояние агента района
func (s *telemetryService) GetDistrict(ctx context.Context, name string) (agent.DistrictSnapshot, error) {
	snapshot, err := s.router.Snapshot(ctx, name)
	if err != nil {
		if !errors.Is(err, agent.ErrUnknownDistrict) {
			s.logger.WithFields(logrus.Fields{
				"service":  "telemetry",
				"method":   "GetDistrict",
				"district": name,
			}).WithError(err).Error("Failed to get district snapshot")
		}
		return agent.DistrictSnapshot{}, fmt.Errorf("service: could not get district %s: %w", name, err)
	}
	return snapshot, nil
}

// GetCoordinator возвращает состояние координатора
func (s *telemetryService) GetCoordinator(ctx context.Context) (agent.CoordinatorSnapshot, error) {
	snapshot, err := s.coordinator.Snapshot(ctx)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"service": "telemetry",
			"method":  "GetCoordinator",
		}).WithError(err).Error("Failed to get coordinator snapshot")
		return agent.CoordinatorSnapshot{}, fmt.Errorf("service: could not get coordinator state: %w", err)
	}
	return snapshot, nil
}
