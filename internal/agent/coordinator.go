package agent

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/urban_monitoring_system/internal/decision"
	"github.com/shenikar/urban_monitoring_system/internal/models"
	"github.com/shenikar/urban_monitoring_system/internal/persistence"
	"github.com/sirupsen/logrus"
)

const coordinatorName = "coordinator"

// Dispatcher доставляет команды координатора агентам районов без ожидания.
// created сообщает, что агент района создан этой командой.
type Dispatcher interface {
	Dispatch(target string, cmd Command) (created bool, err error)
}

// CoordinatorConfig - параметры городского координатора
type CoordinatorConfig struct {
	Cooldown        time.Duration
	Window          time.Duration
	MinActive       int
	HonorRequests   bool
	MailboxCapacity int
	SendTimeout     time.Duration
	// Districts - районы, известные до их первого события (DISTRICTS и соседи)
	Districts []string
}

// CoordinatorStats - счетчики координатора
type CoordinatorStats struct {
	SignalsReceived      int `json:"signals_received"`
	PlansIssued          int `json:"plans_issued"`
	ActionsEmitted       int `json:"actions_emitted"`
	SuppressedByCooldown int `json:"suppressed_by_cooldown"`
	CommandsDropped      int `json:"commands_dropped"`
}

// CoordinationRecord - последний выпущенный план
type CoordinationRecord struct {
	TriggerKey string          `json:"trigger_key"`
	Reason     string          `json:"reason"`
	IssuedAt   time.Time       `json:"issued_at"`
	Actions    []models.Action `json:"actions"`
}

// CoordinatorSnapshot - состояние координатора на момент запроса
type CoordinatorSnapshot struct {
	Active         []models.Escalation  `json:"active"`
	Cooldowns      map[string]time.Time `json:"cooldowns"`
	KnownDistricts []string             `json:"known_districts"`
	LastPlan       *CoordinationRecord  `json:"last_plan,omitempty"`
	MailboxDepth   int                  `json:"mailbox_depth"`
	Stats          CoordinatorStats     `json:"stats"`
}

// Coordinator собирает эскалации районов и выпускает планы координации.
// Поля ниже mailbox принадлежат горутине run.
type Coordinator struct {
	cfg        CoordinatorConfig
	engine     Decider
	recorder   persistence.Recorder
	dispatcher Dispatcher
	mailbox    mailbox
	now        func() time.Time
	logger     *logrus.Logger

	active    map[string]models.Escalation
	cooldowns map[string]time.Time
	known     map[string]struct{}
	lastPlan  *CoordinationRecord
	stats     CoordinatorStats
}

// NewCoordinator создает координатора. Горутину запускает Router.Start.
func NewCoordinator(cfg CoordinatorConfig, engine Decider, recorder persistence.Recorder, logger *logrus.Logger) *Coordinator {
	c := &Coordinator{
		cfg:       cfg,
		engine:    engine,
		recorder:  recorder,
		mailbox:   newMailbox(cfg.MailboxCapacity),
		now:       time.Now,
		logger:    logger,
		active:    make(map[string]models.Escalation),
		cooldowns: make(map[string]time.Time),
		known:     make(map[string]struct{}),
	}
	for _, d := range cfg.Districts {
		c.known[d] = struct{}{}
	}
	return c
}

// Signal передает эскалацию координатору с ограниченным ожиданием
func (c *Coordinator) Signal(ctx context.Context, esc models.Escalation) error {
	return c.mailbox.send(ctx, escalationMsg{escalation: esc}, c.cfg.SendTimeout, coordinatorName)
}

// Snapshot возвращает текущее состояние координатора
func (c *Coordinator) Snapshot(ctx context.Context) (CoordinatorSnapshot, error) {
	reply := make(chan CoordinatorSnapshot, 1)
	return request(ctx, c.mailbox, coordinatorSnapshotMsg{reply: reply}, reply, c.cfg.SendTimeout, coordinatorName)
}

func (c *Coordinator) online(ctx context.Context, district string) error {
	return c.mailbox.send(ctx, districtOnlineMsg{district: district}, c.cfg.SendTimeout, coordinatorName)
}

func (c *Coordinator) run(ctx context.Context) {
	defer close(c.mailbox.done)

	c.logger.Info("City coordinator started")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("City coordinator stopped")
			return
		case msg := <-c.mailbox.ch:
			c.handle(ctx, msg)
		}
	}
}

func (c *Coordinator) handle(ctx context.Context, msg message) {
	switch m := msg.(type) {
	case escalationMsg:
		c.handleEscalation(ctx, m.escalation)
	case districtOnlineMsg:
		c.known[m.district] = struct{}{}
	case coordinatorSnapshotMsg:
		m.reply <- c.snapshot()
	default:
		c.logger.Warnf("Unexpected coordinator message %T", msg)
	}
}

func (c *Coordinator) handleEscalation(ctx context.Context, esc models.Escalation) {
	c.stats.SignalsReceived++
	if esc.ReceivedAt.IsZero() {
		esc.ReceivedAt = c.now()
	}
	c.known[esc.District] = struct{}{}
	c.active[esc.District] = esc

	c.logger.WithFields(logrus.Fields{
		"component": "coordinator",
		"district":  esc.District,
		"severity":  esc.Severity,
		"active":    len(c.active),
	}).Info("Escalation registered")

	c.evaluate(ctx)
}

// prune удаляет эскалации старше окна и истекшие периоды охлаждения
func (c *Coordinator) prune(now time.Time) {
	for district, esc := range c.active {
		if now.Sub(esc.ReceivedAt) > c.cfg.Window {
			delete(c.active, district)
		}
	}
	for key, until := range c.cooldowns {
		if !now.Before(until) {
			delete(c.cooldowns, key)
		}
	}
}

// triggered - условие запуска координации над активным набором
func (c *Coordinator) triggered() bool {
	if c.cfg.MinActive > 0 && len(c.active) >= c.cfg.MinActive {
		return true
	}
	if c.cfg.HonorRequests {
		for _, esc := range c.active {
			if esc.RequestCoordination {
				return true
			}
		}
	}
	return false
}

func (c *Coordinator) evaluate(ctx context.Context) {
	now := c.now()
	c.prune(now)
	if !c.triggered() {
		return
	}

	escalations := c.activeEscalations()
	triggers := make([]string, 0, len(escalations))
	for _, esc := range escalations {
		triggers = append(triggers, esc.District)
	}
	key := models.JoinDistricts(triggers)

	log := c.logger.WithFields(logrus.Fields{
		"component":   "coordinator",
		"trigger_key": key,
	})

	if until, ok := c.cooldowns[key]; ok && now.Before(until) {
		c.stats.SuppressedByCooldown++
		log.WithField("cooldown_until", until).Info("Coordination suppressed by cooldown")
		return
	}

	plan := c.engine.Plan(ctx, decision.PlanContext{
		Triggers:       triggers,
		Escalations:    escalations,
		KnownDistricts: c.knownDistricts(),
	})

	issuedAt := c.now()
	record := &CoordinationRecord{TriggerKey: key, Reason: plan.Reason, IssuedAt: issuedAt.UTC()}
	for _, entry := range plan.Entries {
		action := models.Action{
			ID:          uuid.NewString(),
			CreatedAt:   issuedAt.UTC(),
			Origin:      models.OriginCoordinator,
			Source:      key,
			Target:      entry.Target,
			ActionType:  entry.ActionType,
			Reason:      plan.Reason,
			Detail:      entry.Detail,
			Escalations: append([]models.Escalation(nil), escalations...),
		}
		c.recorder.RecordAction(action)
		record.Actions = append(record.Actions, action)
		c.stats.ActionsEmitted++

		if c.dispatcher == nil {
			continue
		}
		created, err := c.dispatcher.Dispatch(entry.Target, Command{
			ActionID:   action.ID,
			Source:     key,
			ActionType: action.ActionType,
			Reason:     action.Reason,
			Detail:     action.Detail,
			IssuedAt:   action.CreatedAt,
		})
		if created {
			c.known[entry.Target] = struct{}{}
		}
		if err != nil {
			c.stats.CommandsDropped++
			log.WithError(err).WithField("target", entry.Target).Warn("Coordination command dropped")
		}
	}

	c.stats.PlansIssued++
	c.lastPlan = record
	c.cooldowns[key] = issuedAt.Add(c.cfg.Cooldown)

	log.WithFields(logrus.Fields{
		"reason":  plan.Reason,
		"actions": len(plan.Entries),
	}).Info("Coordination plan issued")
}

func (c *Coordinator) activeEscalations() []models.Escalation {
	escalations := make([]models.Escalation, 0, len(c.active))
	for _, esc := range c.active {
		escalations = append(escalations, esc)
	}
	sort.Slice(escalations, func(i, j int) bool {
		return escalations[i].District < escalations[j].District
	})
	return escalations
}

func (c *Coordinator) knownDistricts() []string {
	districts := make([]string, 0, len(c.known))
	for d := range c.known {
		districts = append(districts, d)
	}
	sort.Strings(districts)
	return districts
}

func (c *Coordinator) snapshot() CoordinatorSnapshot {
	c.prune(c.now())
	cooldowns := make(map[string]time.Time, len(c.cooldowns))
	for key, until := range c.cooldowns {
		cooldowns[key] = until
	}
	return CoordinatorSnapshot{
		Active:         c.activeEscalations(),
		Cooldowns:      cooldowns,
		KnownDistricts: c.knownDistricts(),
		LastPlan:       c.lastPlan,
		MailboxDepth:   len(c.mailbox.ch),
		Stats:          c.stats,
	}
}
