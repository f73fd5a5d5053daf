package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shenikar/urban_monitoring_system/internal/models"
	"github.com/sirupsen/logrus"
)

// Ingester проверяет сырое сообщение и доводит событие до агента района.
// Шаги разделены, чтобы повтор доставки не создавал событие заново.
type Ingester interface {
	Normalize(msg RawMessage) (models.SensorEvent, error)
	Route(ctx context.Context, event models.SensorEvent) error
}

// temporary - ошибки, после которых доставку стоит повторить
type temporary interface {
	Temporary() bool
}

// IsTemporary сообщает, что ошибка вызвана временной перегрузкой
func IsTemporary(err error) bool {
	var t temporary
	return errors.As(err, &t) && t.Temporary()
}

// SubjectToTopic переводит субъект NATS city.<district>.<sensor> в топик city/<district>/<sensor>
func SubjectToTopic(subject string) string {
	return strings.ReplaceAll(subject, ".", "/")
}

// Listener читает телеметрию из NATS и передает ее в Ingester
type Listener struct {
	conn          *nats.Conn
	subject       string
	ingester      Ingester
	retryDelay    time.Duration
	maxRetryDelay time.Duration
	logger        *logrus.Logger
}

// NewListener создает Listener
func NewListener(conn *nats.Conn, subject string, ingester Ingester, logger *logrus.Logger) *Listener {
	return &Listener{
		conn:          conn,
		subject:       subject,
		ingester:      ingester,
		retryDelay:    50 * time.Millisecond,
		maxRetryDelay: 2 * time.Second,
		logger:        logger,
	}
}

// Run подписывается на субъект и блокируется до отмены контекста.
// Обработчик подписки выполняется последовательно, поэтому повтор доставки приостанавливает чтение.
func (l *Listener) Run(ctx context.Context) error {
	sub, err := l.conn.Subscribe(l.subject, func(msg *nats.Msg) {
		l.handle(ctx, msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("ingest: failed to subscribe to %s: %w", l.subject, err)
	}
	l.logger.WithField("subject", l.subject).Info("Listening for telemetry on NATS")

	<-ctx.Done()

	if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		l.logger.WithError(err).Warn("Failed to unsubscribe from NATS")
	}
	l.logger.Info("Stopping NATS listener.")
	return nil
}

func (l *Listener) handle(ctx context.Context, subject string, data []byte) {
	msg := RawMessage{Topic: SubjectToTopic(subject), Payload: data}
	log := l.logger.WithFields(logrus.Fields{
		"component": "listener",
		"topic":     msg.Topic,
	})

	event, err := l.ingester.Normalize(msg)
	if err != nil {
		log.WithError(err).Warn("Dropping invalid telemetry")
		return
	}
	log = log.WithField("event_id", event.ID)

	delay := l.retryDelay
	for {
		err := l.ingester.Route(ctx, event)
		switch {
		case err == nil:
			return
		case IsTemporary(err):
			log.WithError(err).Warnf("Backpressure, pausing for %v", delay)
			select {
			case <-ctx.Done():
				log.Warn("Shutting down, telemetry not delivered")
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > l.maxRetryDelay {
				delay = l.maxRetryDelay
			}
		default:
			log.WithError(err).Error("Dropping telemetry")
			return
		}
	}
}
