package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shenikar/urban_monitoring_system/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	outboxQueueKey = "urban:persistence:outbox"

	publishTimeout = 2 * time.Second
	popTimeout     = time.Second
	popErrorDelay  = time.Second
)

// OutboxPublisher - Recorder, складывающий записи в список Redis
type OutboxPublisher struct {
	redisClient *redis.Client
	logger      *logrus.Logger
}

// NewOutboxPublisher создает OutboxPublisher
func NewOutboxPublisher(client *redis.Client, logger *logrus.Logger) *OutboxPublisher {
	return &OutboxPublisher{
		redisClient: client,
		logger:      logger,
	}
}

// RecordEvent публикует событие в очередь, не дожидаясь результата
func (p *OutboxPublisher) RecordEvent(event models.SensorEvent) {
	go p.publishAsync(eventRecord(event))
}

// RecordAction публикует действие в очередь, не дожидаясь результата
func (p *OutboxPublisher) RecordAction(action models.Action) {
	go p.publishAsync(actionRecord(action))
}

func (p *OutboxPublisher) publishAsync(rec Record) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.Publish(ctx, rec); err != nil {
		p.logger.WithField("component", "outbox").WithError(err).Error("Failed to publish record")
	}
}

// Publish помещает запись в левую часть списка
func (p *OutboxPublisher) Publish(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return &Error{Op: "marshal " + string(rec.Kind), RecordID: rec.ID(), Err: err}
	}

	if err := p.redisClient.LPush(ctx, outboxQueueKey, payload).Err(); err != nil {
		return &Error{Op: "publish " + string(rec.Kind), RecordID: rec.ID(), Err: err}
	}
	return nil
}

// OutboxWorker забирает записи из Redis и сохраняет их в Store
type OutboxWorker struct {
	redisClient *redis.Client
	store       Store
	retry       RetryPolicy
	logger      *logrus.Logger
}

// NewOutboxWorker создает OutboxWorker
func NewOutboxWorker(client *redis.Client, store Store, retry RetryPolicy, logger *logrus.Logger) *OutboxWorker {
	return &OutboxWorker{
		redisClient: client,
		store:       store,
		retry:       retry,
		logger:      logger,
	}
}

// Run обрабатывает очередь до отмены контекста
func (w *OutboxWorker) Run(ctx context.Context) error {
	w.logger.Info("Starting outbox worker...")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping outbox worker.")
			return nil
		default:
		}

		// BRPOP - блокирующее извлечение из правой части списка (очереди)
		result, err := w.redisClient.BRPop(ctx, popTimeout, outboxQueueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			w.logger.WithError(err).Error("Failed to pop record from Redis")
			select {
			case <-ctx.Done():
			case <-time.After(popErrorDelay):
			}
			continue
		}

		// result[0] - ключ, result[1] - значение
		if err := w.process(ctx, result[1]); err != nil {
			w.logger.WithError(err).Error("Failed to process outbox record")
		}
	}
}

func (w *OutboxWorker) process(ctx context.Context, payload string) error {
	var rec Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return fmt.Errorf("failed to unmarshal outbox record: %w", err)
	}

	log := w.logger.WithFields(logrus.Fields{
		"component": "outbox",
		"kind":      rec.Kind,
		"record_id": rec.ID(),
	})
	deliverWithRetry(ctx, w.store, rec, w.retry, log)
	return nil
}
