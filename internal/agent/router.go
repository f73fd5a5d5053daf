package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shenikar/urban_monitoring_system/internal/dedup"
	"github.com/shenikar/urban_monitoring_system/internal/models"
	"github.com/shenikar/urban_monitoring_system/internal/persistence"
	"github.com/sirupsen/logrus"
)

// FilterFactory создает фильтр дубликатов для района. nil отключает проверку.
type FilterFactory func(district string) dedup.Filter

// RouterConfig - параметры маршрутизатора и создаваемых им агентов
type RouterConfig struct {
	MaxDistricts    int
	MailboxCapacity int
	SendTimeout     time.Duration
	Unit            UnitConfig
}

// Router владеет агентами районов: создает их по первому событию,
// доставляет события в их почтовые ящики и останавливает при завершении.
type Router struct {
	cfg         RouterConfig
	engine      Decider
	recorder    persistence.Recorder
	coordinator *Coordinator
	filters     FilterFactory
	logger      *logrus.Logger
	now         func() time.Time

	mu     sync.RWMutex
	units  map[string]*districtUnit
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// NewRouter создает маршрутизатор и связывает его с координатором
func NewRouter(cfg RouterConfig, engine Decider, recorder persistence.Recorder, coordinator *Coordinator, filters FilterFactory, logger *logrus.Logger) *Router {
	r := &Router{
		cfg:         cfg,
		engine:      engine,
		recorder:    recorder,
		coordinator: coordinator,
		filters:     filters,
		logger:      logger,
		now:         time.Now,
		units:       make(map[string]*districtUnit),
	}
	coordinator.dispatcher = r
	return r
}

// Start запускает координатора и агентов для заранее известных районов
func (r *Router) Start(ctx context.Context, districts []string) error {
	r.mu.Lock()
	if r.ctx != nil {
		r.mu.Unlock()
		return fmt.Errorf("agent: router already started")
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.coordinator.run(r.ctx)
	}()

	for _, district := range districts {
		if _, err := r.unit(district); err != nil {
			return fmt.Errorf("agent: failed to start district %s: %w", district, err)
		}
	}
	r.logger.WithField("districts", len(districts)).Info("Router started")
	return nil
}

// Route доставляет событие агенту его района, сохраняя порядок внутри района
func (r *Router) Route(ctx context.Context, event models.SensorEvent) error {
	u, err := r.unit(event.District)
	if err != nil {
		return err
	}
	return u.mailbox.send(ctx, eventMsg{event: event}, r.cfg.SendTimeout, event.District)
}

// Dispatch доставляет команду координатора агенту района без ожидания.
// Вызывается из горутины координатора, поэтому о новом районе не объявляет:
// created сообщает координатору, что район нужно учесть самому.
func (r *Router) Dispatch(target string, cmd Command) (created bool, err error) {
	u, created, err := r.lookupOrCreate(target)
	if err != nil {
		return false, err
	}
	return created, u.mailbox.trySend(commandMsg{command: cmd}, target)
}

// Districts возвращает отсортированный список зарегистрированных районов
func (r *Router) Districts() []string {
	r.mu.RLock()
	districts := make([]string, 0, len(r.units))
	for name := range r.units {
		districts = append(districts, name)
	}
	r.mu.RUnlock()

	sort.Strings(districts)
	return districts
}

// Snapshot запрашивает состояние агента района
func (r *Router) Snapshot(ctx context.Context, district string) (DistrictSnapshot, error) {
	r.mu.RLock()
	u, ok := r.units[district]
	r.mu.RUnlock()
	if !ok {
		return DistrictSnapshot{}, fmt.Errorf("%w: %s", ErrUnknownDistrict, district)
	}

	reply := make(chan DistrictSnapshot, 1)
	return request(ctx, u.mailbox, districtSnapshotMsg{reply: reply}, reply, r.cfg.SendTimeout, district)
}

// Snapshots запрашивает состояние всех агентов. Недоступные агенты пропускаются.
func (r *Router) Snapshots(ctx context.Context) []DistrictSnapshot {
	districts := r.Districts()
	snapshots := make([]DistrictSnapshot, 0, len(districts))
	for _, district := range districts {
		s, err := r.Snapshot(ctx, district)
		if err != nil {
			r.logger.WithError(err).WithField("district", district).Warn("Failed to get district snapshot")
			continue
		}
		snapshots = append(snapshots, s)
	}
	return snapshots
}

// Coordinator возвращает координатора, которым управляет маршрутизатор
func (r *Router) Coordinator() *Coordinator {
	return r.coordinator
}

// Close останавливает всех агентов и координатора и дожидается их завершения
func (r *Router) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
	r.logger.Info("Router stopped")
}

// unit возвращает агента района, создавая его при первом обращении
// и сообщая координатору о новом районе
func (r *Router) unit(district string) (*districtUnit, error) {
	u, created, err := r.lookupOrCreate(district)
	if err != nil || !created {
		return u, err
	}
	if err := r.coordinator.online(r.ctx, district); err != nil {
		r.logger.WithError(err).WithField("district", district).Warn("Failed to announce district to coordinator")
	}
	return u, nil
}

func (r *Router) lookupOrCreate(district string) (*districtUnit, bool, error) {
	r.mu.RLock()
	u, ok := r.units[district]
	r.mu.RUnlock()
	if ok {
		return u, false, nil
	}

	r.mu.Lock()
	if r.closed || r.ctx == nil {
		r.mu.Unlock()
		return nil, false, ErrStopped
	}
	if u, ok := r.units[district]; ok {
		r.mu.Unlock()
		return u, false, nil
	}
	if len(r.units) >= r.cfg.MaxDistricts {
		r.mu.Unlock()
		r.logger.WithField("district", district).Warn("District limit reached, dropping event")
		return nil, false, &CapacityError{District: district, Reason: ReasonDistrictLimit, Limit: r.cfg.MaxDistricts}
	}

	u = r.newUnit(district)
	r.units[district] = u
	ctx := r.ctx
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		u.run(ctx)
	}()
	return u, true, nil
}

func (r *Router) newUnit(district string) *districtUnit {
	var filter dedup.Filter
	if r.filters != nil {
		filter = r.filters(district)
	}
	return &districtUnit{
		name:        district,
		mailbox:     newMailbox(r.cfg.MailboxCapacity),
		engine:      r.engine,
		recorder:    r.recorder,
		coordinator: r.coordinator,
		filter:      filter,
		cfg:         r.cfg.Unit,
		now:         r.now,
		logger:      r.logger,
	}
}
