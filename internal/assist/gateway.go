// Package assist содержит клиенты внешнего сервиса подсказок.
// Оба клиента реализуют decision.Assistant; ограничение по времени накладывает decision.Engine.
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shenikar/urban_monitoring_system/internal/decision"
	"github.com/sirupsen/logrus"
)

const (
	decideEscalationPath = "/llm/decide_escalation"
	planCoordinationPath = "/llm/plan_coordination"

	maxResponseBytes = 1 << 20
)

// GatewayClient - клиент HTTP-шлюза подсказок
type GatewayClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewGatewayClient создает клиент шлюза. Таймаут задается контекстом вызова.
func NewGatewayClient(baseURL string, logger *logrus.Logger) *GatewayClient {
	return &GatewayClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// DecideEscalation запрашивает решение по эскалации
func (c *GatewayClient) DecideEscalation(ctx context.Context, req decision.EscalationRequest) (*decision.EscalationResponse, error) {
	var resp decision.EscalationResponse
	if err := c.post(ctx, decideEscalationPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PlanCoordination запрашивает план координации
func (c *GatewayClient) PlanCoordination(ctx context.Context, req decision.PlanRequest) (*decision.PlanResponse, error) {
	var resp decision.PlanResponse
	if err := c.post(ctx, planCoordinationPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *GatewayClient) post(ctx context.Context, path string, body, out any) error {
	log := c.logger.WithField("component", "assist").WithField("path", path)

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("assist: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("assist: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug("Calling assist gateway")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("assist: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("assist: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("assist: gateway returned status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", decision.ErrInvalidResponse, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
