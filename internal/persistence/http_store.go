package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shenikar/urban_monitoring_system/internal/models"
)

const (
	eventsPath  = "/api/events"
	actionsPath = "/api/actions"
)

// HTTPStore сохраняет записи через REST API веб-бэкенда
type HTTPStore struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPStore создает HTTPStore
func NewHTTPStore(baseURL string, timeout time.Duration) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type eventCreate struct {
	EventID    string  `json:"event_id"`
	District   string  `json:"district"`
	SensorType string  `json:"sensor_type"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
	Severity   string  `json:"severity"`
	Timestamp  string  `json:"timestamp"`
	Topic      string  `json:"topic"`
}

type actionCreate struct {
	SourceDistrict string         `json:"source_district"`
	TargetDistrict string         `json:"target_district"`
	ActionType     string         `json:"action_type"`
	Reason         string         `json:"reason"`
	EventSnapshot  map[string]any `json:"event_snapshot"`
}

// CreateEvent отправляет POST /api/events
func (s *HTTPStore) CreateEvent(ctx context.Context, event models.SensorEvent) (string, error) {
	body := eventCreate{
		EventID:    event.ID,
		District:   event.District,
		SensorType: event.SensorType,
		Value:      event.Value,
		Unit:       event.Unit,
		Severity:   event.Severity.String(),
		Timestamp:  event.Timestamp.Format(time.RFC3339Nano),
		Topic:      event.Topic,
	}
	return s.post(ctx, eventsPath, body)
}

// CreateAction отправляет POST /api/actions
func (s *HTTPStore) CreateAction(ctx context.Context, action models.Action) (string, error) {
	body := actionCreate{
		SourceDistrict: action.Source,
		TargetDistrict: action.Target,
		ActionType:     string(action.ActionType),
		Reason:         action.Reason,
		EventSnapshot:  actionSnapshot(action),
	}
	return s.post(ctx, actionsPath, body)
}

// actionSnapshot собирает снимок контекста действия в свободной форме
func actionSnapshot(action models.Action) map[string]any {
	snapshot := map[string]any{
		"action_id": action.ID,
		"origin":    string(action.Origin),
	}
	if action.Detail != "" {
		snapshot["detail"] = action.Detail
	}
	if action.EventSnapshot != nil {
		snapshot["event"] = action.EventSnapshot
	}
	if len(action.Escalations) > 0 {
		snapshot["escalations"] = action.Escalations
	}
	return snapshot
}

func (s *HTTPStore) post(ctx context.Context, path string, body any) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("backend returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var created struct {
		ID any `json:"id"`
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&created); err != nil || created.ID == nil {
		// Бэкенд принял запись, но не вернул идентификатор
		return "", nil
	}
	return fmt.Sprint(created.ID), nil
}
