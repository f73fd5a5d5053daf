package agent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/urban_monitoring_system/internal/decision"
	"github.com/shenikar/urban_monitoring_system/internal/dedup"
	"github.com/shenikar/urban_monitoring_system/internal/models"
	"github.com/shenikar/urban_monitoring_system/internal/persistence"
	"github.com/sirupsen/logrus"
)

// UnitState - состояние агента района. Оценка события идет внутри горутины агента,
// поэтому снаружи наблюдаются только ожидание и охлаждение.
type UnitState string

const (
	StateIdle     UnitState = "idle"
	StateCooldown UnitState = "cooldown"
)

// OverridePolicy определяет, может ли событие прервать период охлаждения
type OverridePolicy string

const (
	// OverrideHigher - только событие со строго большей серьезностью
	OverrideHigher OverridePolicy = "higher"
	// OverrideNever - охлаждение никогда не прерывается
	OverrideNever OverridePolicy = "never"
)

// UnitConfig - параметры агента района
type UnitConfig struct {
	Cooldown    time.Duration
	Override    OverridePolicy
	HistorySize int
}

// UnitStats - счетчики агента района
type UnitStats struct {
	EventsProcessed  int `json:"events_processed"`
	ActionsEmitted   int `json:"actions_emitted"`
	Suppressed       int `json:"suppressed"`
	Duplicates       int `json:"duplicates"`
	CommandsReceived int `json:"commands_received"`
}

// DistrictSnapshot - состояние агента района на момент запроса
type DistrictSnapshot struct {
	District         string              `json:"district"`
	State            UnitState           `json:"state"`
	LastEvent        *models.SensorEvent `json:"last_event,omitempty"`
	LastAction       *models.Action      `json:"last_action,omitempty"`
	CooldownUntil    *time.Time          `json:"cooldown_until,omitempty"`
	CooldownSeverity models.Severity     `json:"cooldown_severity,omitempty"`
	LastCommand      *Command            `json:"last_command,omitempty"`
	HistorySize      int                 `json:"history_size"`
	MailboxDepth     int                 `json:"mailbox_depth"`
	Stats            UnitStats           `json:"stats"`
}

// signaler принимает сигналы эскалации от агентов районов
type signaler interface {
	Signal(ctx context.Context, esc models.Escalation) error
}

// districtUnit - агент района. Все поля ниже mailbox принадлежат горутине run.
type districtUnit struct {
	name        string
	mailbox     mailbox
	engine      Decider
	recorder    persistence.Recorder
	coordinator signaler
	filter      dedup.Filter
	cfg         UnitConfig
	now         func() time.Time
	logger      *logrus.Logger

	lastEvent        *models.SensorEvent
	lastAction       *models.Action
	lastCommand      *Command
	cooldownUntil    time.Time
	cooldownSeverity models.Severity
	history          []models.EventSummary
	stats            UnitStats
}

func (u *districtUnit) run(ctx context.Context) {
	defer close(u.mailbox.done)

	log := u.logger.WithField("district", u.name)
	log.Info("District unit started")
	for {
		select {
		case <-ctx.Done():
			log.Info("District unit stopped")
			return
		case msg := <-u.mailbox.ch:
			u.handle(ctx, msg)
		}
	}
}

func (u *districtUnit) handle(ctx context.Context, msg message) {
	switch m := msg.(type) {
	case eventMsg:
		u.handleEvent(ctx, m.event)
	case commandMsg:
		u.handleCommand(m.command)
	case districtSnapshotMsg:
		m.reply <- u.snapshot()
	default:
		u.logger.WithField("district", u.name).Warnf("Unexpected message %T", msg)
	}
}

func (u *districtUnit) handleEvent(ctx context.Context, event models.SensorEvent) {
	log := u.logger.WithFields(logrus.Fields{
		"component":   "district",
		"district":    u.name,
		"event_id":    event.ID,
		"sensor_type": event.SensorType,
		"severity":    event.Severity,
	})

	if u.filter != nil {
		seen, err := u.filter.Seen(ctx, event.ID)
		if err != nil {
			log.WithError(err).Warn("Duplicate check failed, processing event anyway")
		} else if seen {
			u.stats.Duplicates++
			log.Debug("Dropping duplicate event")
			return
		}
	}

	u.stats.EventsProcessed++
	u.lastEvent = &event
	defer u.remember(event)

	inCooldown := u.now().Before(u.cooldownUntil)

	if !event.Severity.IsCritical() {
		log.Debug("Event below critical threshold")
		return
	}

	if inCooldown && !u.overrides(event.Severity) {
		u.stats.Suppressed++
		log.WithField("cooldown_until", u.cooldownUntil).Info("Critical event suppressed by cooldown")
		return
	}
	if inCooldown {
		log.WithField("cooldown_severity", u.cooldownSeverity).Info("Escalation override: severity increased during cooldown")
	}

	d := u.engine.Decide(ctx, decision.EscalationContext{
		District: u.name,
		Event:    event,
		History:  append([]models.EventSummary(nil), u.history...),
	})

	now := u.now()
	snapshot := event
	action := models.Action{
		ID:            uuid.NewString(),
		CreatedAt:     now.UTC(),
		Origin:        models.OriginAgent,
		Source:        u.name,
		Target:        u.name,
		ActionType:    d.ActionType,
		Reason:        d.Reason,
		Detail:        d.Detail,
		EventSnapshot: &snapshot,
	}
	u.recorder.RecordAction(action)
	u.lastAction = &action
	u.stats.ActionsEmitted++

	log.WithFields(logrus.Fields{
		"action_id":   action.ID,
		"action_type": action.ActionType,
		"reason":      action.Reason,
	}).Info("Action emitted")

	if d.CrossDistrict {
		err := u.coordinator.Signal(ctx, models.Escalation{
			District:            u.name,
			Severity:            d.Severity.Max(event.Severity),
			EventID:             event.ID,
			ActionID:            action.ID,
			SensorType:          event.SensorType,
			Value:               event.Value,
			Timestamp:           event.Timestamp,
			ReceivedAt:          now,
			RequestCoordination: d.RequestCoordination,
		})
		if err != nil {
			log.WithError(err).Warn("Failed to signal coordinator")
		}
	}

	u.cooldownUntil = now.Add(u.cfg.Cooldown)
	u.cooldownSeverity = event.Severity
}

// overrides сообщает, прерывает ли событие текущее охлаждение
func (u *districtUnit) overrides(severity models.Severity) bool {
	switch u.cfg.Override {
	case OverrideNever:
		return false
	default:
		return severity > u.cooldownSeverity
	}
}

// remember добавляет событие в ограниченную историю района
func (u *districtUnit) remember(event models.SensorEvent) {
	if u.cfg.HistorySize <= 0 {
		return
	}
	if len(u.history) >= u.cfg.HistorySize {
		copy(u.history, u.history[1:])
		u.history = u.history[:len(u.history)-1]
	}
	u.history = append(u.history, event.Summary())
}

func (u *districtUnit) handleCommand(cmd Command) {
	u.stats.CommandsReceived++
	u.lastCommand = &cmd
	u.logger.WithFields(logrus.Fields{
		"component":   "district",
		"district":    u.name,
		"source":      cmd.Source,
		"action_type": cmd.ActionType,
		"reason":      cmd.Reason,
	}).Info("Coordination command received")
}

func (u *districtUnit) snapshot() DistrictSnapshot {
	now := u.now()
	s := DistrictSnapshot{
		District:     u.name,
		State:        StateIdle,
		LastEvent:    u.lastEvent,
		LastAction:   u.lastAction,
		LastCommand:  u.lastCommand,
		HistorySize:  len(u.history),
		MailboxDepth: len(u.mailbox.ch),
		Stats:        u.stats,
	}
	if now.Before(u.cooldownUntil) {
		until := u.cooldownUntil
		s.State = StateCooldown
		s.CooldownUntil = &until
		s.CooldownSeverity = u.cooldownSeverity
	}
	return s
}
