package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shenikar/urban_monitoring_system/internal/decision"
	"github.com/shenikar/urban_monitoring_system/internal/decision/mocks"
	"github.com/shenikar/urban_monitoring_system/internal/dedup"
	"github.com/shenikar/urban_monitoring_system/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type captureRecorder struct {
	mu      sync.Mutex
	events  []models.SensorEvent
	actions []models.Action
}

func (r *captureRecorder) RecordEvent(event models.SensorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *captureRecorder) RecordAction(action models.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
}

func (r *captureRecorder) byOrigin(origin models.Origin) []models.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Action
	for _, a := range r.actions {
		if a.Origin == origin {
			out = append(out, a)
		}
	}
	return out
}

type funcDecider struct {
	decide func(ctx context.Context, ec decision.EscalationContext) decision.Decision
	rules  decision.Rules
}

func (d funcDecider) Decide(ctx context.Context, ec decision.EscalationContext) decision.Decision {
	return d.decide(ctx, ec)
}

func (d funcDecider) Plan(_ context.Context, pc decision.PlanContext) decision.Plan {
	return d.rules.Plan(pc)
}

type testEnv struct {
	router   *Router
	recorder *captureRecorder
	clock    *fakeClock
}

type envOption func(*RouterConfig, *CoordinatorConfig)

func newTestEnv(t *testing.T, engine Decider, filters FilterFactory, opts ...envOption) *testEnv {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	rcfg := RouterConfig{
		MaxDistricts:    8,
		MailboxCapacity: 32,
		SendTimeout:     200 * time.Millisecond,
		Unit:            UnitConfig{Cooldown: 30 * time.Second, Override: OverrideHigher, HistorySize: 5},
	}
	ccfg := CoordinatorConfig{
		Cooldown:        2 * time.Minute,
		Window:          5 * time.Minute,
		MinActive:       2,
		MailboxCapacity: 32,
		SendTimeout:     200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&rcfg, &ccfg)
	}

	clock := &fakeClock{now: t0}
	recorder := &captureRecorder{}
	coordinator := NewCoordinator(ccfg, engine, recorder, logger)
	coordinator.now = clock.Now
	router := NewRouter(rcfg, engine, recorder, coordinator, filters, logger)
	router.now = clock.Now

	require.NoError(t, router.Start(context.Background(), nil))
	t.Cleanup(router.Close)

	return &testEnv{router: router, recorder: recorder, clock: clock}
}

func rulesEngine() *decision.Engine {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	rules := decision.Rules{Adjacency: map[string][]string{"D1": {"D3"}}}
	return decision.NewEngine(nil, rules, decision.Options{Timeout: time.Second}, logger)
}

func event(id, district string, value float64, severity models.Severity) models.SensorEvent {
	return models.SensorEvent{
		ID:         id,
		District:   district,
		SensorType: "traffic",
		Value:      value,
		Unit:       "veh/min",
		Severity:   severity,
		Timestamp:  t0,
		Topic:      "city/" + district + "/traffic",
	}
}

// route доставляет событие и дожидается его обработки агентом
func (e *testEnv) route(t *testing.T, ev models.SensorEvent) DistrictSnapshot {
	t.Helper()
	require.NoError(t, e.router.Route(context.Background(), ev))
	s, err := e.router.Snapshot(context.Background(), ev.District)
	require.NoError(t, err)
	return s
}

func (e *testEnv) coordinatorSnapshot(t *testing.T) CoordinatorSnapshot {
	t.Helper()
	s, err := e.router.Coordinator().Snapshot(context.Background())
	require.NoError(t, err)
	return s
}

func TestScenario_AssistDecisionAccepted(t *testing.T) {
	// Подготовка
	ctrl := gomock.NewController(t)
	assistant := mocks.NewMockAssistant(ctrl)
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	engine := decision.NewEngine(assistant, decision.Rules{}, decision.Options{Timeout: time.Second}, logger)
	env := newTestEnv(t, engine, nil)

	// Ожидания
	assistant.EXPECT().DecideEscalation(gomock.Any(), gomock.Any()).
		Return(&decision.EscalationResponse{Severity: "high", ActionType: "escalate", Reason: "congestion"}, nil).Times(1)

	// Действие
	snapshot := env.route(t, event("evt-1", "D1", 95, models.SeverityHigh))

	// Проверки
	actions := env.recorder.byOrigin(models.OriginAgent)
	require.Len(t, actions, 1)
	assert.Equal(t, "D1", actions[0].Source)
	assert.Equal(t, models.ActionEscalate, actions[0].ActionType)
	assert.Equal(t, "llm", actions[0].Reason)
	require.NotNil(t, actions[0].EventSnapshot)
	assert.Equal(t, "evt-1", actions[0].EventSnapshot.ID)
	assert.Equal(t, StateCooldown, snapshot.State)
}

func TestScenario_AssistTimeoutFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	assistant := mocks.NewMockAssistant(ctrl)
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	engine := decision.NewEngine(assistant, decision.Rules{}, decision.Options{Timeout: time.Millisecond}, logger)
	env := newTestEnv(t, engine, nil)

	assistant.EXPECT().DecideEscalation(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ decision.EscalationRequest) (*decision.EscalationResponse, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}).Times(1)

	env.route(t, event("evt-1", "D1", 95, models.SeverityHigh))

	actions := env.recorder.byOrigin(models.OriginAgent)
	require.Len(t, actions, 1)
	assert.Equal(t, "fallback:timeout", actions[0].Reason)
	assert.Equal(t, decision.Rules{}.ActionFor(models.SeverityHigh), actions[0].ActionType)
}

func TestThresholds_UnreachableAssistUsesRules(t *testing.T) {
	ctrl := gomock.NewController(t)
	assistant := mocks.NewMockAssistant(ctrl)
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	engine := decision.NewEngine(assistant, decision.Rules{}, decision.Options{Timeout: time.Second}, logger)
	env := newTestEnv(t, engine, nil)

	assistant.EXPECT().DecideEscalation(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("dial tcp: connection refused")).AnyTimes()
	assistant.EXPECT().PlanCoordination(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("dial tcp: connection refused")).AnyTimes()

	thresholds := models.Thresholds{Medium: 50, Critical: 80, Extreme: 120}
	for i, value := range []float64{80, 95, 119.9, 120, 160} {
		district := fmt.Sprintf("T%d", i)
		env.route(t, event(fmt.Sprintf("evt-%d", i), district, value, thresholds.Classify(value)))
	}

	actions := env.recorder.byOrigin(models.OriginAgent)
	require.Len(t, actions, 5)
	for _, a := range actions {
		assert.Regexp(t, "^fallback:", a.Reason)
		assert.Equal(t, decision.Rules{}.ActionFor(a.EventSnapshot.Severity), a.ActionType)
	}
}

func TestDistrict_BelowThresholdEmitsNothing(t *testing.T) {
	env := newTestEnv(t, rulesEngine(), nil)

	snapshot := env.route(t, event("evt-1", "D1", 60, models.SeverityMedium))

	assert.Empty(t, env.recorder.byOrigin(models.OriginAgent))
	assert.Equal(t, StateIdle, snapshot.State)
	require.NotNil(t, snapshot.LastEvent)
	assert.Equal(t, "evt-1", snapshot.LastEvent.ID)
	assert.Equal(t, 1, snapshot.HistorySize)
}

func TestDistrict_CooldownAndOverride(t *testing.T) {
	env := newTestEnv(t, rulesEngine(), nil, func(_ *RouterConfig, c *CoordinatorConfig) {
		c.MinActive = 10
	})

	env.route(t, event("evt-1", "D1", 95, models.SeverityHigh))
	env.clock.Advance(10 * time.Second)
	env.route(t, event("evt-2", "D1", 99, models.SeverityHigh)) // подавлено
	env.clock.Advance(10 * time.Second)
	env.route(t, event("evt-3", "D1", 130, models.SeverityCritical)) // повышение серьезности
	env.clock.Advance(5 * time.Second)
	snapshot := env.route(t, event("evt-4", "D1", 140, models.SeverityCritical)) // подавлено

	assert.Equal(t, StateCooldown, snapshot.State)
	assert.Equal(t, models.SeverityCritical, snapshot.CooldownSeverity)
	require.NotNil(t, snapshot.LastEvent)
	assert.Equal(t, "evt-4", snapshot.LastEvent.ID)

	env.clock.Advance(26 * time.Second) // охлаждение от evt-3 закончилось
	snapshot = env.route(t, event("evt-5", "D1", 95, models.SeverityHigh))

	actions := env.recorder.byOrigin(models.OriginAgent)
	require.Len(t, actions, 3)
	assert.Equal(t, "evt-1", actions[0].EventSnapshot.ID)
	assert.Equal(t, "evt-3", actions[1].EventSnapshot.ID)
	assert.Equal(t, models.ActionDispatchEmergency, actions[1].ActionType)
	assert.Equal(t, "evt-5", actions[2].EventSnapshot.ID)
	assert.Equal(t, 2, snapshot.Stats.Suppressed)
	assert.Equal(t, 5, snapshot.Stats.EventsProcessed)
}

func TestDistrict_OverrideNever(t *testing.T) {
	env := newTestEnv(t, rulesEngine(), nil, func(r *RouterConfig, c *CoordinatorConfig) {
		r.Unit.Override = OverrideNever
		c.MinActive = 10
	})

	env.route(t, event("evt-1", "D1", 95, models.SeverityHigh))
	env.clock.Advance(time.Second)
	env.route(t, event("evt-2", "D1", 130, models.SeverityCritical))

	assert.Len(t, env.recorder.byOrigin(models.OriginAgent), 1)
}

func TestDistrict_PerDistrictOrdering(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	engine := funcDecider{decide: func(_ context.Context, ec decision.EscalationContext) decision.Decision {
		mu.Lock()
		seen = append(seen, ec.Event.ID)
		mu.Unlock()
		return decision.Decision{Severity: ec.Event.Severity, ActionType: models.ActionEscalate, Reason: "fallback:disabled"}
	}}
	env := newTestEnv(t, engine, nil, func(r *RouterConfig, _ *CoordinatorConfig) {
		r.Unit.Cooldown = 0
	})

	var want []string
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("evt-%02d", i)
		want = append(want, id)
		require.NoError(t, env.router.Route(context.Background(), event(id, "D1", 95, models.SeverityHigh)))
	}
	_, err := env.router.Snapshot(context.Background(), "D1")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, want, seen)
}

func TestDistrict_HistoryPassedToDecision(t *testing.T) {
	var got []models.EventSummary
	engine := funcDecider{decide: func(_ context.Context, ec decision.EscalationContext) decision.Decision {
		got = ec.History
		return decision.Decision{Severity: ec.Event.Severity, ActionType: models.ActionEscalate, Reason: "fallback:disabled"}
	}}
	env := newTestEnv(t, engine, nil)

	for i := 0; i < 7; i++ {
		env.route(t, event(fmt.Sprintf("evt-%d", i), "D1", float64(10+i), models.SeverityLow))
	}
	env.route(t, event("evt-critical", "D1", 95, models.SeverityHigh))

	require.Len(t, got, 5)
	assert.Equal(t, 12.0, got[0].Value)
	assert.Equal(t, 16.0, got[4].Value)
}

func TestScenario_CoordinationWithCooldown(t *testing.T) {
	env := newTestEnv(t, rulesEngine(), nil)

	env.route(t, event("evt-1", "D1", 95, models.SeverityHigh))
	env.route(t, event("evt-2", "D2", 95, models.SeverityHigh))
	snapshot := env.coordinatorSnapshot(t)

	coordination := env.recorder.byOrigin(models.OriginCoordinator)
	require.Len(t, coordination, 3)
	for _, a := range coordination {
		assert.Equal(t, "D1,D2", a.Source)
		assert.Equal(t, "fallback:disabled", a.Reason)
		assert.Len(t, a.Escalations, 2)
	}
	assert.Equal(t, "D1", coordination[0].Target)
	assert.Equal(t, models.ActionCoordinateResponse, coordination[0].ActionType)
	assert.Equal(t, "D2", coordination[1].Target)
	assert.Equal(t, "D3", coordination[2].Target)
	assert.Equal(t, models.ActionRerouteTraffic, coordination[2].ActionType)
	assert.Equal(t, 1, snapshot.Stats.PlansIssued)
	assert.Contains(t, snapshot.Cooldowns, "D1,D2")

	// Команды доставлены агентам, D3 создан по команде
	d3, err := env.router.Snapshot(context.Background(), "D3")
	require.NoError(t, err)
	require.NotNil(t, d3.LastCommand)
	assert.Equal(t, models.ActionRerouteTraffic, d3.LastCommand.ActionType)
	assert.Equal(t, "D1,D2", d3.LastCommand.Source)

	// Повторная эскалация D1 после охлаждения агента не порождает второй план
	env.clock.Advance(31 * time.Second)
	env.route(t, event("evt-3", "D1", 95, models.SeverityHigh))
	snapshot = env.coordinatorSnapshot(t)

	assert.Len(t, env.recorder.byOrigin(models.OriginCoordinator), 3)
	assert.Equal(t, 1, snapshot.Stats.PlansIssued)
	assert.Equal(t, 1, snapshot.Stats.SuppressedByCooldown)

	// После охлаждения координатора план выпускается снова
	env.clock.Advance(2 * time.Minute)
	env.route(t, event("evt-4", "D2", 96, models.SeverityHigh))
	snapshot = env.coordinatorSnapshot(t)

	assert.Equal(t, 2, snapshot.Stats.PlansIssued)
	assert.Len(t, env.recorder.byOrigin(models.OriginCoordinator), 6)
}

func TestCoordinator_ExpiredEscalationDoesNotTrigger(t *testing.T) {
	env := newTestEnv(t, rulesEngine(), nil)

	env.route(t, event("evt-1", "D1", 95, models.SeverityHigh))
	snapshot := env.coordinatorSnapshot(t) // сигнал D1 обработан координатором до сдвига часов
	require.Len(t, snapshot.Active, 1)
	env.clock.Advance(6 * time.Minute)
	env.route(t, event("evt-2", "D2", 95, models.SeverityHigh))
	snapshot = env.coordinatorSnapshot(t)

	assert.Empty(t, env.recorder.byOrigin(models.OriginCoordinator))
	require.Len(t, snapshot.Active, 1)
	assert.Equal(t, "D2", snapshot.Active[0].District)

	env.route(t, event("evt-3", "D1", 95, models.SeverityHigh))
	snapshot = env.coordinatorSnapshot(t)

	assert.Equal(t, 1, snapshot.Stats.PlansIssued)
	assert.NotEmpty(t, env.recorder.byOrigin(models.OriginCoordinator))
}

func TestCoordinator_HonorsExplicitRequest(t *testing.T) {
	env := newTestEnv(t, rulesEngine(), nil, func(_ *RouterConfig, c *CoordinatorConfig) {
		c.HonorRequests = true
	})

	env.route(t, event("evt-1", "D2", 130, models.SeverityCritical))
	snapshot := env.coordinatorSnapshot(t)

	coordination := env.recorder.byOrigin(models.OriginCoordinator)
	require.Len(t, coordination, 1)
	assert.Equal(t, "D2", coordination[0].Target)
	assert.Equal(t, 1, snapshot.Stats.PlansIssued)
	require.Len(t, snapshot.Active, 1)
	assert.True(t, snapshot.Active[0].RequestCoordination)
}

func TestDistrict_DuplicateDelivery(t *testing.T) {
	filters := func(string) dedup.Filter { return dedup.NewMemoryFilter(16) }
	env := newTestEnv(t, rulesEngine(), filters, func(r *RouterConfig, c *CoordinatorConfig) {
		r.Unit.Cooldown = 0
		c.MinActive = 10
	})

	env.route(t, event("evt-1", "D1", 95, models.SeverityHigh))
	snapshot := env.route(t, event("evt-1", "D1", 95, models.SeverityHigh))

	assert.Len(t, env.recorder.byOrigin(models.OriginAgent), 1)
	assert.Equal(t, 1, snapshot.Stats.Duplicates)
}

func TestDistrict_AtMostOnceWithoutFilter(t *testing.T) {
	env := newTestEnv(t, rulesEngine(), nil, func(r *RouterConfig, c *CoordinatorConfig) {
		r.Unit.Cooldown = 0
		c.MinActive = 10
	})

	env.route(t, event("evt-1", "D1", 95, models.SeverityHigh))
	env.route(t, event("evt-1", "D1", 95, models.SeverityHigh))

	assert.Len(t, env.recorder.byOrigin(models.OriginAgent), 2)
}

func TestRouter_DistrictLimit(t *testing.T) {
	env := newTestEnv(t, rulesEngine(), nil, func(r *RouterConfig, _ *CoordinatorConfig) {
		r.MaxDistricts = 2
	})

	env.route(t, event("evt-1", "D1", 10, models.SeverityLow))
	env.route(t, event("evt-2", "D2", 10, models.SeverityLow))
	err := env.router.Route(context.Background(), event("evt-3", "D3", 10, models.SeverityLow))

	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, ReasonDistrictLimit, capErr.Reason)
	assert.False(t, capErr.Temporary())
	assert.Equal(t, []string{"D1", "D2"}, env.router.Districts())
}

func TestRouter_MailboxFullSignalsBackpressure(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	engine := funcDecider{decide: func(ctx context.Context, ec decision.EscalationContext) decision.Decision {
		started <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return decision.Decision{Severity: ec.Event.Severity, ActionType: models.ActionEscalate, Reason: "fallback:disabled"}
	}}
	env := newTestEnv(t, engine, nil, func(r *RouterConfig, c *CoordinatorConfig) {
		r.MailboxCapacity = 1
		r.SendTimeout = 10 * time.Millisecond
		c.MinActive = 10
	})
	defer close(release)

	require.NoError(t, env.router.Route(context.Background(), event("evt-1", "D1", 95, models.SeverityHigh)))
	<-started
	require.NoError(t, env.router.Route(context.Background(), event("evt-2", "D1", 10, models.SeverityLow)))
	err := env.router.Route(context.Background(), event("evt-3", "D1", 10, models.SeverityLow))

	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, ReasonMailboxFull, capErr.Reason)
	assert.True(t, capErr.Temporary())
}

func TestRouter_EagerDistrictsAndClose(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	recorder := &captureRecorder{}
	coordinator := NewCoordinator(CoordinatorConfig{MinActive: 2, Window: time.Minute, MailboxCapacity: 4, SendTimeout: 50 * time.Millisecond}, rulesEngine(), recorder, logger)
	router := NewRouter(RouterConfig{MaxDistricts: 4, MailboxCapacity: 4, SendTimeout: 50 * time.Millisecond}, rulesEngine(), recorder, coordinator, nil, logger)

	require.NoError(t, router.Start(context.Background(), []string{"north", "south"}))
	assert.Equal(t, []string{"north", "south"}, router.Districts())

	snapshot, err := coordinator.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"north", "south"}, snapshot.KnownDistricts)

	router.Close()
	router.Close()

	err = router.Route(context.Background(), event("evt-1", "north", 10, models.SeverityLow))
	assert.ErrorIs(t, err, ErrStopped)
	_, err = router.Snapshot(context.Background(), "east")
	assert.ErrorIs(t, err, ErrUnknownDistrict)
}

func newTestCoordinator(clock *fakeClock, recorder *captureRecorder) *Coordinator {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	c := NewCoordinator(CoordinatorConfig{
		Cooldown:        2 * time.Minute,
		Window:          5 * time.Minute,
		MinActive:       2,
		MailboxCapacity: 4,
		SendTimeout:     50 * time.Millisecond,
	}, rulesEngine(), recorder, logger)
	c.now = clock.Now
	return c
}

func TestCoordinator_KeepsUnitReceiveTime(t *testing.T) {
	// Подготовка
	clock := &fakeClock{now: t0.Add(6 * time.Minute)}
	recorder := &captureRecorder{}
	c := newTestCoordinator(clock, recorder)

	// Действие: сигнал D1 дошел до координатора с опозданием, уже вне окна
	c.handleEscalation(context.Background(), models.Escalation{District: "D1", Severity: models.SeverityHigh, ReceivedAt: t0})
	c.handleEscalation(context.Background(), models.Escalation{District: "D2", Severity: models.SeverityHigh, ReceivedAt: t0.Add(6 * time.Minute)})

	// Проверки
	assert.Empty(t, recorder.byOrigin(models.OriginCoordinator))
	snapshot := c.snapshot()
	require.Len(t, snapshot.Active, 1)
	assert.Equal(t, "D2", snapshot.Active[0].District)
	assert.Equal(t, t0.Add(6*time.Minute), snapshot.Active[0].ReceivedAt)
	assert.Equal(t, 0, snapshot.Stats.PlansIssued)
}

func TestCoordinator_StampsMissingReceiveTime(t *testing.T) {
	// Подготовка
	clock := &fakeClock{now: t0}
	recorder := &captureRecorder{}
	c := newTestCoordinator(clock, recorder)

	// Действие
	c.handleEscalation(context.Background(), models.Escalation{District: "D1", Severity: models.SeverityHigh})

	// Проверки
	snapshot := c.snapshot()
	require.Len(t, snapshot.Active, 1)
	assert.Equal(t, t0, snapshot.Active[0].ReceivedAt)
}

type stubDispatcher struct {
	err     error
	targets []string
}

func (d *stubDispatcher) Dispatch(target string, _ Command) (bool, error) {
	d.targets = append(d.targets, target)
	return true, d.err
}

func TestCoordinator_DropsUndeliverableCommands(t *testing.T) {
	// Подготовка
	clock := &fakeClock{now: t0}
	recorder := &captureRecorder{}
	c := newTestCoordinator(clock, recorder)
	dispatcher := &stubDispatcher{err: &CapacityError{District: "D3", Reason: ReasonMailboxFull, Limit: 1}}
	c.dispatcher = dispatcher

	// Действие
	c.handleEscalation(context.Background(), models.Escalation{District: "D1", Severity: models.SeverityHigh, ReceivedAt: t0})
	c.handleEscalation(context.Background(), models.Escalation{District: "D2", Severity: models.SeverityHigh, ReceivedAt: t0})

	// Проверки
	snapshot := c.snapshot()
	assert.Equal(t, []string{"D1", "D2", "D3"}, dispatcher.targets)
	assert.Equal(t, 1, snapshot.Stats.PlansIssued)
	assert.Equal(t, 3, snapshot.Stats.CommandsDropped)
	assert.Len(t, recorder.byOrigin(models.OriginCoordinator), 3)
	assert.Equal(t, []string{"D1", "D2", "D3"}, snapshot.KnownDistricts)
}

// gatedDecider задерживает построение плана до сигнала теста
type gatedDecider struct {
	Decider
	entered chan struct{}
	release chan struct{}
}

func (d gatedDecider) Plan(ctx context.Context, pc decision.PlanContext) decision.Plan {
	d.entered <- struct{}{}
	select {
	case <-d.release:
	case <-ctx.Done():
	}
	return d.Decider.Plan(ctx, pc)
}

func TestCoordinator_DispatchToNewDistrictDoesNotBlock(t *testing.T) {
	// Подготовка
	engine := gatedDecider{Decider: rulesEngine(), entered: make(chan struct{}, 1), release: make(chan struct{})}
	env := newTestEnv(t, engine, nil, func(_ *RouterConfig, c *CoordinatorConfig) {
		c.MailboxCapacity = 1
		c.SendTimeout = 2 * time.Second
	})
	env.route(t, event("evt-1", "D1", 95, models.SeverityHigh))
	env.route(t, event("evt-2", "D2", 95, models.SeverityHigh))
	<-engine.entered

	// Ящик координатора заполнен, пока он строит план с командой для нового D3
	require.NoError(t, env.router.Coordinator().mailbox.trySend(districtOnlineMsg{district: "D9"}, coordinatorName))

	// Действие
	start := time.Now()
	close(engine.release)
	snapshot := env.coordinatorSnapshot(t)

	// Проверки
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, snapshot.Stats.PlansIssued)
	assert.Equal(t, 0, snapshot.Stats.CommandsDropped)
	assert.Equal(t, []string{"D1", "D2", "D3", "D9"}, snapshot.KnownDistricts)

	d3, err := env.router.Snapshot(context.Background(), "D3")
	require.NoError(t, err)
	require.NotNil(t, d3.LastCommand)
	assert.Equal(t, "D1,D2", d3.LastCommand.Source)
}

func TestRouter_DispatchToFullMailboxFailsFast(t *testing.T) {
	// Подготовка
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	engine := funcDecider{decide: func(ctx context.Context, ec decision.EscalationContext) decision.Decision {
		started <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return decision.Decision{Severity: ec.Event.Severity, ActionType: models.ActionEscalate, Reason: "fallback:disabled"}
	}}
	env := newTestEnv(t, engine, nil, func(r *RouterConfig, c *CoordinatorConfig) {
		r.MailboxCapacity = 1
		r.SendTimeout = 2 * time.Second
		c.MinActive = 10
	})
	defer close(release)

	require.NoError(t, env.router.Route(context.Background(), event("evt-1", "D1", 95, models.SeverityHigh)))
	<-started
	require.NoError(t, env.router.Route(context.Background(), event("evt-2", "D1", 10, models.SeverityLow)))

	// Действие
	start := time.Now()
	created, err := env.router.Dispatch("D1", Command{Source: "D1,D2", ActionType: models.ActionCoordinateResponse})

	// Проверки
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, created)
	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, ReasonMailboxFull, capErr.Reason)
}

func TestDistrict_SnapshotReportsIdleAfterCooldown(t *testing.T) {
	env := newTestEnv(t, rulesEngine(), nil, func(_ *RouterConfig, c *CoordinatorConfig) {
		c.MinActive = 10
	})

	snapshot := env.route(t, event("evt-1", "D1", 95, models.SeverityHigh))
	assert.Equal(t, StateCooldown, snapshot.State)
	require.NotNil(t, snapshot.CooldownUntil)

	env.clock.Advance(31 * time.Second)
	snapshot, err := env.router.Snapshot(context.Background(), "D1")

	require.NoError(t, err)
	assert.Equal(t, StateIdle, snapshot.State)
	assert.Nil(t, snapshot.CooldownUntil)
}
