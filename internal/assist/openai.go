package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/shenikar/urban_monitoring_system/internal/decision"
	"github.com/sirupsen/logrus"
)

const (
	escalationSystemPrompt = "You are an AI assistant for an urban monitoring multi-agent system. " +
		"Decide how a district monitoring agent should react to a critical sensor reading, " +
		"given the district's recent events. " +
		`You MUST answer strictly in JSON following the schema: {"severity": "low|medium|high|critical", ` +
		`"action_type": "none|monitor|escalate|dispatch_emergency|reroute_traffic|notify_district|coordinate_response", ` +
		`"reason": "short explanation", "cross_district": true or false}. ` +
		"Do not include any explanation outside of the JSON object."

	planSystemPrompt = "You are a coordination planner for an urban multi-agent system. " +
		"Several districts have raised concurrent critical escalations and you must propose " +
		"a coordination plan over the listed districts. " +
		`You MUST answer strictly in JSON following the schema: {"plan": [ {"target_district": "name", ` +
		`"action_type": "reroute_traffic|notify_district|coordinate_response|dispatch_emergency|monitor", ` +
		`"reason": "short explanation"} ] }. ` +
		"target_district must be one of the listed districts. " +
		"Do not include any explanation outside of the JSON object."
)

// OpenAIOptions - параметры OpenAI-совместимого чата (например, Ollama)
type OpenAIOptions struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
}

// OpenAIClient обращается к модели через Chat Completions и извлекает JSON из ответа
type OpenAIClient struct {
	client *openai.Client
	opts   OpenAIOptions
	logger *logrus.Logger
}

// NewOpenAIClient создает клиент для OpenAI-совместимого API
func NewOpenAIClient(opts OpenAIOptions, logger *logrus.Logger) *OpenAIClient {
	apiKey := opts.APIKey
	if apiKey == "" {
		// Локальные рантаймы ключ не проверяют, но SDK требует непустое значение
		apiKey = "unused"
	}
	client := openai.NewClient(
		option.WithBaseURL(opts.BaseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)
	return NewOpenAIClientFromClient(&client, opts, logger)
}

// NewOpenAIClientFromClient создает клиент из готового SDK-клиента
func NewOpenAIClientFromClient(client *openai.Client, opts OpenAIOptions, logger *logrus.Logger) *OpenAIClient {
	if opts.Temperature == 0 {
		opts.Temperature = 0.1
	}
	return &OpenAIClient{client: client, opts: opts, logger: logger}
}

// DecideEscalation запрашивает решение по эскалации у модели
func (c *OpenAIClient) DecideEscalation(ctx context.Context, req decision.EscalationRequest) (*decision.EscalationResponse, error) {
	var resp decision.EscalationResponse
	if err := c.complete(ctx, escalationSystemPrompt, "Analyze the situation and decide the reaction.", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PlanCoordination запрашивает план координации у модели
func (c *OpenAIClient) PlanCoordination(ctx context.Context, req decision.PlanRequest) (*decision.PlanResponse, error) {
	var resp decision.PlanResponse
	if err := c.complete(ctx, planSystemPrompt, "Propose a coordination plan as a JSON object.", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *OpenAIClient) complete(ctx context.Context, systemPrompt, instruction string, input, out any) error {
	inputJSON, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return fmt.Errorf("assist: failed to marshal input: %w", err)
	}
	userPrompt := instruction + "\nInput JSON:\n" + string(inputJSON)

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Model:       c.opts.Model,
		Temperature: openai.Float(c.opts.Temperature),
	}

	c.logger.WithField("component", "assist").WithField("model", c.opts.Model).Debug("Calling chat completion")
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return fmt.Errorf("assist: chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("%w: no choices returned", decision.ErrInvalidResponse)
	}

	object, err := extractJSON(resp.Choices[0].Message.Content)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(object), out); err != nil {
		return fmt.Errorf("%w: %v", decision.ErrInvalidResponse, err)
	}
	return nil
}

// extractJSON вырезает JSON-объект из текстового ответа модели
func extractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("%w: no JSON object in model output %q", decision.ErrInvalidResponse, truncate(text, 200))
	}
	return text[start : end+1], nil
}
