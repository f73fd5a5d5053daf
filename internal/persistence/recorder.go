package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/shenikar/urban_monitoring_system/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// RetryPolicy - параметры повторной отправки записи
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// QueueRecorder - Recorder с ограниченной очередью в памяти и пулом воркеров
type QueueRecorder struct {
	store   Store
	queue   chan Record
	workers int
	retry   RetryPolicy
	logger  *logrus.Logger
}

// NewQueueRecorder создает QueueRecorder
func NewQueueRecorder(store Store, size, workers int, retry RetryPolicy, logger *logrus.Logger) *QueueRecorder {
	if workers < 1 {
		workers = 1
	}
	return &QueueRecorder{
		store:   store,
		queue:   make(chan Record, size),
		workers: workers,
		retry:   retry,
		logger:  logger,
	}
}

// RecordEvent ставит событие в очередь, не блокируя вызывающего
func (r *QueueRecorder) RecordEvent(event models.SensorEvent) {
	r.enqueue(eventRecord(event))
}

// RecordAction ставит действие в очередь, не блокируя вызывающего
func (r *QueueRecorder) RecordAction(action models.Action) {
	r.enqueue(actionRecord(action))
}

func (r *QueueRecorder) enqueue(rec Record) {
	select {
	case r.queue <- rec:
	default:
		err := &Error{Op: "enqueue " + string(rec.Kind), RecordID: rec.ID(), Err: ErrQueueFull}
		r.logger.WithField("component", "recorder").WithError(err).Warn("Dropping record")
	}
}

// Run запускает воркеры и блокируется до отмены контекста.
// Оставшиеся в очереди записи отправляются перед выходом.
func (r *QueueRecorder) Run(ctx context.Context) error {
	r.logger.WithField("workers", r.workers).Info("Starting persistence recorder...")

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < r.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case rec := <-r.queue:
					r.process(gctx, rec)
				}
			}
		})
	}
	err := g.Wait()

	r.drain()
	r.logger.Info("Stopping persistence recorder.")
	return err
}

func (r *QueueRecorder) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case rec := <-r.queue:
			if err := deliver(ctx, r.store, rec); err != nil {
				r.logger.WithError(err).Error("Failed to persist record during shutdown")
			}
		default:
			return
		}
	}
}

func (r *QueueRecorder) process(ctx context.Context, rec Record) {
	log := r.logger.WithFields(logrus.Fields{
		"component": "recorder",
		"kind":      rec.Kind,
		"record_id": rec.ID(),
	})
	deliverWithRetry(ctx, r.store, rec, r.retry, log)
}

// deliverWithRetry повторяет отправку с экспоненциальной задержкой
func deliverWithRetry(ctx context.Context, store Store, rec Record, retry RetryPolicy, log *logrus.Entry) bool {
	maxRetries := retry.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	baseDelay := retry.BaseDelay

	for i := 0; i < maxRetries; i++ {
		err := deliver(ctx, store, rec)
		if err == nil {
			log.Debug("Record persisted")
			return true
		}
		if errors.Is(err, context.Canceled) {
			log.WithError(err).Warn("Record persistence canceled")
			return false
		}
		if i == maxRetries-1 {
			break
		}
		log.WithError(err).Warnf("Failed to persist record. Retrying in %v. Retries left: %d", baseDelay, maxRetries-1-i)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(baseDelay):
		}
		baseDelay *= 2 // Экспоненциальная задержка
	}

	log.Errorf("Failed to persist record after %d attempts.", maxRetries)
	return false
}
