// Package persistence сохраняет события и действия во внешнем хранилище.
// Запись всегда выполняется в фоне: ошибки логируются и не влияют на агентов.
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/shenikar/urban_monitoring_system/internal/models"
)

//go:generate mockgen -source=persistence.go -destination=mocks/mock_persistence.go -package=mocks

// Store - контракт создания записей во внешнем хранилище
type Store interface {
	CreateEvent(ctx context.Context, event models.SensorEvent) (string, error)
	CreateAction(ctx context.Context, action models.Action) (string, error)
}

// Recorder - неблокирующая запись событий и действий
type Recorder interface {
	RecordEvent(event models.SensorEvent)
	RecordAction(action models.Action)
}

// ErrQueueFull - очередь записи переполнена, запись отброшена
var ErrQueueFull = errors.New("persistence queue is full")

// Error - ошибка сохранения записи. Только логируется.
type Error struct {
	Op       string
	RecordID string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("persistence: %s %s: %v", e.Op, e.RecordID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// RecordKind - тип записи в очереди
type RecordKind string

const (
	KindEvent  RecordKind = "event"
	KindAction RecordKind = "action"
)

// Record - элемент очереди записи: событие или действие
type Record struct {
	Kind   RecordKind          `json:"kind"`
	Event  *models.SensorEvent `json:"event,omitempty"`
	Action *models.Action      `json:"action,omitempty"`
}

// ID возвращает идентификатор сохраняемой сущности
func (r Record) ID() string {
	switch {
	case r.Kind == KindEvent && r.Event != nil:
		return r.Event.ID
	case r.Kind == KindAction && r.Action != nil:
		return r.Action.ID
	default:
		return ""
	}
}

func eventRecord(event models.SensorEvent) Record {
	return Record{Kind: KindEvent, Event: &event}
}

func actionRecord(action models.Action) Record {
	return Record{Kind: KindAction, Action: &action}
}

// deliver передает запись в хранилище и оборачивает ошибку в *Error
func deliver(ctx context.Context, store Store, rec Record) error {
	var err error
	switch {
	case rec.Kind == KindEvent && rec.Event != nil:
		_, err = store.CreateEvent(ctx, *rec.Event)
	case rec.Kind == KindAction && rec.Action != nil:
		_, err = store.CreateAction(ctx, *rec.Action)
	default:
		err = fmt.Errorf("malformed record of kind %q", rec.Kind)
	}
	if err != nil {
		return &Error{Op: "create " + string(rec.Kind), RecordID: rec.ID(), Err: err}
	}
	return nil
}
