package decision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shenikar/urban_monitoring_system/internal/models"
	"github.com/sirupsen/logrus"
)

// Options - ограничения вызова сервиса подсказок
type Options struct {
	Timeout       time.Duration
	MaxInputBytes int
}

// Engine - общий механизм решений для агентов районов и координатора.
// Не хранит состояния между вызовами.
type Engine struct {
	rules     Rules
	assistant Assistant
	opts      Options
	logger    *logrus.Logger
}

// NewEngine создает механизм решений. assistant может быть nil - тогда всегда используется правило.
func NewEngine(assistant Assistant, rules Rules, opts Options, logger *logrus.Logger) *Engine {
	return &Engine{
		rules:     rules,
		assistant: assistant,
		opts:      opts,
		logger:    logger,
	}
}

// Decide возвращает решение по событию. Ошибки сервиса подсказок всегда приводят к правилу.
func (e *Engine) Decide(ctx context.Context, ec EscalationContext) Decision {
	fallback := e.rules.Decide(ec)

	log := e.logger.WithFields(logrus.Fields{
		"component": "decision",
		"method":    "Decide",
		"district":  ec.District,
		"event_id":  ec.Event.ID,
	})

	if e.assistant == nil {
		return withFallback(fallback, CauseDisabled)
	}

	req, err := e.escalationRequest(ec)
	if err != nil {
		log.WithError(err).Warn("Assist request rejected, using deterministic rule")
		return withFallback(fallback, causeOf(err))
	}

	resp, err := callBounded(ctx, e.opts.Timeout, func(ctx context.Context) (*EscalationResponse, error) {
		return e.assistant.DecideEscalation(ctx, req)
	})
	if err == nil {
		var decision Decision
		decision, err = acceptEscalation(resp)
		if err == nil {
			log.WithFields(logrus.Fields{
				"severity":    decision.Severity,
				"action_type": decision.ActionType,
			}).Info("Assist decision accepted")
			return decision
		}
	}

	log.WithError(err).WithField("cause", causeOf(err)).Warn("Assist unavailable or invalid, using deterministic rule")
	return withFallback(fallback, causeOf(err))
}

// Plan возвращает план координации. Ошибки сервиса подсказок приводят к фиксированной политике.
func (e *Engine) Plan(ctx context.Context, pc PlanContext) Plan {
	fallback := e.rules.Plan(pc)

	log := e.logger.WithFields(logrus.Fields{
		"component": "decision",
		"method":    "Plan",
		"triggers":  models.JoinDistricts(pc.Triggers),
	})

	if e.assistant == nil {
		return withFallbackPlan(fallback, CauseDisabled)
	}

	req := planRequest(pc)
	if err := e.checkSize(req); err != nil {
		log.WithError(err).Warn("Assist plan request rejected, using fallback plan")
		return withFallbackPlan(fallback, causeOf(err))
	}

	resp, err := callBounded(ctx, e.opts.Timeout, func(ctx context.Context) (*PlanResponse, error) {
		return e.assistant.PlanCoordination(ctx, req)
	})
	if err == nil {
		var plan Plan
		plan, err = acceptPlan(resp, pc.KnownDistricts)
		if err == nil {
			log.WithField("entries", len(plan.Entries)).Info("Assist coordination plan accepted")
			return plan
		}
	}

	log.WithError(err).WithField("cause", causeOf(err)).Warn("Assist unavailable or invalid, using fallback plan")
	return withFallbackPlan(fallback, causeOf(err))
}

// escalationRequest собирает запрос, отбрасывая самые старые события истории,
// пока запрос не уложится в ограничение по размеру.
func (e *Engine) escalationRequest(ec EscalationContext) (EscalationRequest, error) {
	req := EscalationRequest{
		District:     ec.District,
		RecentEvents: append([]models.EventSummary(nil), ec.History...),
		CurrentEvent: ec.Event.Summary(),
	}
	for {
		err := e.checkSize(req)
		if err == nil {
			return req, nil
		}
		if !errors.Is(err, ErrInputTooLarge) || len(req.RecentEvents) == 0 {
			return req, err
		}
		req.RecentEvents = req.RecentEvents[1:]
	}
}

func (e *Engine) checkSize(req any) error {
	if e.opts.MaxInputBytes <= 0 {
		return nil
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("decision: marshal assist request: %w", err)
	}
	if len(payload) > e.opts.MaxInputBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrInputTooLarge, len(payload), e.opts.MaxInputBytes)
	}
	return nil
}

func planRequest(pc PlanContext) PlanRequest {
	req := PlanRequest{
		SourceDistricts: append([]string(nil), pc.Triggers...),
		Districts:       append([]string(nil), pc.KnownDistricts...),
	}
	for _, esc := range pc.Escalations {
		req.Escalations = append(req.Escalations, EscalationSummary{
			District:   esc.District,
			Severity:   esc.Severity,
			Timestamp:  esc.Timestamp,
			SensorType: esc.SensorType,
			Value:      esc.Value,
		})
	}
	return req
}

// acceptEscalation проверяет структуру ответа: обязательные поля и допустимые значения
func acceptEscalation(resp *EscalationResponse) (Decision, error) {
	if resp == nil {
		return Decision{}, fmt.Errorf("%w: empty response", ErrInvalidResponse)
	}
	severity, err := models.ParseSeverity(resp.Severity)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	action, ok := models.ParseActionType(resp.ActionType)
	if !ok {
		return Decision{}, fmt.Errorf("%w: unknown action_type %q", ErrInvalidResponse, resp.ActionType)
	}
	if strings.TrimSpace(resp.Reason) == "" {
		return Decision{}, fmt.Errorf("%w: missing reason", ErrInvalidResponse)
	}

	cross := severity.IsCritical()
	if resp.CrossDistrict != nil {
		cross = *resp.CrossDistrict
	}
	return Decision{
		Severity:            severity,
		ActionType:          action,
		Reason:              ReasonAssist,
		Detail:              resp.Reason,
		CrossDistrict:       cross,
		RequestCoordination: severity == models.SeverityCritical,
		Assisted:            true,
	}, nil
}

// acceptPlan принимает план, только если каждый пункт указывает на известный район и допустимый тип действия
func acceptPlan(resp *PlanResponse, known []string) (Plan, error) {
	if resp == nil || len(resp.Plan) == 0 {
		return Plan{}, fmt.Errorf("%w: empty plan", ErrInvalidResponse)
	}
	districts := make(map[string]struct{}, len(known))
	for _, d := range known {
		districts[d] = struct{}{}
	}

	entries := make([]PlanEntry, 0, len(resp.Plan))
	for i, item := range resp.Plan {
		if _, ok := districts[item.TargetDistrict]; !ok {
			return Plan{}, fmt.Errorf("%w: entry %d targets unknown district %q", ErrInvalidResponse, i, item.TargetDistrict)
		}
		action, ok := models.ParseActionType(item.ActionType)
		if !ok {
			return Plan{}, fmt.Errorf("%w: entry %d has unknown action_type %q", ErrInvalidResponse, i, item.ActionType)
		}
		entries = append(entries, PlanEntry{
			Target:     item.TargetDistrict,
			ActionType: action,
			Detail:     item.Reason,
		})
	}
	return Plan{Entries: entries, Reason: ReasonAssist, Assisted: true}, nil
}

func withFallback(d Decision, cause Cause) Decision {
	d.Reason = FallbackReason(cause)
	d.Cause = cause
	d.Assisted = false
	return d
}

func withFallbackPlan(p Plan, cause Cause) Plan {
	p.Reason = FallbackReason(cause)
	p.Cause = cause
	p.Assisted = false
	return p
}

func causeOf(err error) Cause {
	switch {
	case err == nil:
		return CauseNone
	case errors.Is(err, ErrTimeout):
		return CauseTimeout
	case errors.Is(err, ErrInvalidResponse):
		return CauseInvalidResponse
	case errors.Is(err, ErrInputTooLarge):
		return CauseInputTooLarge
	default:
		return CauseError
	}
}

// callBounded выполняет вызов с таймаутом. Результат, пришедший после таймаута, отбрасывается.
func callBounded[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(r.err, context.DeadlineExceeded) {
				return zero, fmt.Errorf("%w: %v", ErrTimeout, r.err)
			}
			return zero, r.err
		}
		return r.value, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return zero, ctx.Err()
	}
}
