// Package agent содержит агентов районов, городского координатора и маршрутизатор событий.
// Каждый агент - отдельная горутина с собственным ограниченным почтовым ящиком.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shenikar/urban_monitoring_system/internal/decision"
	"github.com/shenikar/urban_monitoring_system/internal/models"
)

// Decider - механизм решений, общий для агентов районов и координатора
type Decider interface {
	Decide(ctx context.Context, ec decision.EscalationContext) decision.Decision
	Plan(ctx context.Context, pc decision.PlanContext) decision.Plan
}

// Command - команда координатора агенту района
type Command struct {
	ActionID   string            `json:"action_id"`
	Source     string            `json:"source"`
	ActionType models.ActionType `json:"action_type"`
	Reason     string            `json:"reason"`
	Detail     string            `json:"detail,omitempty"`
	IssuedAt   time.Time         `json:"issued_at"`
}

// message - сообщение в почтовом ящике агента
type message interface {
	isMessage()
}

type eventMsg struct {
	event models.SensorEvent
}

type commandMsg struct {
	command Command
}

type districtSnapshotMsg struct {
	reply chan DistrictSnapshot
}

type escalationMsg struct {
	escalation models.Escalation
}

type districtOnlineMsg struct {
	district string
}

type coordinatorSnapshotMsg struct {
	reply chan CoordinatorSnapshot
}

func (eventMsg) isMessage()               {}
func (commandMsg) isMessage()             {}
func (districtSnapshotMsg) isMessage()    {}
func (escalationMsg) isMessage()          {}
func (districtOnlineMsg) isMessage()      {}
func (coordinatorSnapshotMsg) isMessage() {}

// CapacityReason - причина отказа в доставке
type CapacityReason string

const (
	ReasonDistrictLimit CapacityReason = "district_limit"
	ReasonMailboxFull   CapacityReason = "mailbox_full"
)

// CapacityError - превышен лимит районов или почтовый ящик переполнен
type CapacityError struct {
	District string
	Reason   CapacityReason
	Limit    int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("agent: capacity exceeded for %s: %s (limit %d)", e.District, e.Reason, e.Limit)
}

// Temporary сообщает, что доставку можно повторить позже
func (e *CapacityError) Temporary() bool {
	return e.Reason == ReasonMailboxFull
}

var (
	// ErrStopped - агент или маршрутизатор уже остановлены
	ErrStopped = errors.New("agent: stopped")
	// ErrUnknownDistrict - район еще не зарегистрирован
	ErrUnknownDistrict = errors.New("agent: unknown district")
)

// mailbox - ограниченный почтовый ящик агента
type mailbox struct {
	ch   chan message
	done chan struct{}
}

func newMailbox(capacity int) mailbox {
	return mailbox{
		ch:   make(chan message, capacity),
		done: make(chan struct{}),
	}
}

// send кладет сообщение в ящик, ожидая освобождения места не дольше timeout
func (m mailbox) send(ctx context.Context, msg message, timeout time.Duration, owner string) error {
	select {
	case <-m.done:
		return ErrStopped
	default:
	}

	select {
	case m.ch <- msg:
		return nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case m.ch <- msg:
		return nil
	case <-timer.C:
		return &CapacityError{District: owner, Reason: ReasonMailboxFull, Limit: cap(m.ch)}
	case <-m.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// trySend кладет сообщение в ящик без ожидания
func (m mailbox) trySend(msg message, owner string) error {
	select {
	case <-m.done:
		return ErrStopped
	default:
	}

	select {
	case m.ch <- msg:
		return nil
	default:
		return &CapacityError{District: owner, Reason: ReasonMailboxFull, Limit: cap(m.ch)}
	}
}

// request отправляет запрос и ждет ответа в канале reply
func request[T any](ctx context.Context, m mailbox, msg message, reply <-chan T, timeout time.Duration, owner string) (T, error) {
	var zero T
	if err := m.send(ctx, msg, timeout, owner); err != nil {
		return zero, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-m.done:
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
