// Package ingest превращает сырые сообщения телеметрии в события и принимает их из NATS.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shenikar/urban_monitoring_system/internal/models"
	"github.com/shenikar/urban_monitoring_system/internal/persistence"
	"github.com/sirupsen/logrus"
)

const topicPrefix = "city"

var nameRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// RawMessage - сообщение телеметрии в том виде, в котором оно пришло из транспорта
type RawMessage struct {
	Topic   string
	Payload []byte
}

// ValidationError - некорректное сообщение. Сообщение отбрасывается без повторов.
type ValidationError struct {
	Topic  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid telemetry on topic %q: %s", e.Topic, e.Reason)
}

// telemetryPayload - JSON-тело сообщения датчика
type telemetryPayload struct {
	ID        string   `json:"id" validate:"omitempty,max=128"`
	Value     *float64 `json:"value" validate:"required"`
	Unit      *string  `json:"unit" validate:"required"`
	Severity  string   `json:"severity"`
	Timestamp string   `json:"timestamp" validate:"required"`
	District  string   `json:"district"`
	Type      string   `json:"type"`
}

// Normalizer проверяет сырые сообщения и создает из них события
type Normalizer struct {
	thresholds models.ThresholdTable
	recorder   persistence.Recorder
	validate   *validator.Validate
	logger     *logrus.Logger
	now        func() time.Time
}

// NewNormalizer создает Normalizer
func NewNormalizer(thresholds models.ThresholdTable, recorder persistence.Recorder, logger *logrus.Logger) *Normalizer {
	return &Normalizer{
		thresholds: thresholds,
		recorder:   recorder,
		validate:   validator.New(),
		logger:     logger,
		now:        time.Now,
	}
}

// Normalize проверяет сообщение и возвращает событие. Событие асинхронно передается на сохранение.
func (n *Normalizer) Normalize(msg RawMessage) (models.SensorEvent, error) {
	district, sensorType, err := ParseTopic(msg.Topic)
	if err != nil {
		return models.SensorEvent{}, &ValidationError{Topic: msg.Topic, Reason: err.Error()}
	}

	var payload telemetryPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return models.SensorEvent{}, &ValidationError{Topic: msg.Topic, Reason: "malformed JSON payload: " + err.Error()}
	}
	if err := n.validate.Struct(payload); err != nil {
		return models.SensorEvent{}, &ValidationError{Topic: msg.Topic, Reason: describeValidation(err)}
	}

	if payload.District != "" && payload.District != district {
		return models.SensorEvent{}, &ValidationError{Topic: msg.Topic, Reason: fmt.Sprintf("payload district %q does not match topic", payload.District)}
	}
	if payload.Type != "" && payload.Type != sensorType {
		return models.SensorEvent{}, &ValidationError{Topic: msg.Topic, Reason: fmt.Sprintf("payload type %q does not match topic", payload.Type)}
	}

	timestamp, err := time.Parse(time.RFC3339Nano, payload.Timestamp)
	if err != nil {
		return models.SensorEvent{}, &ValidationError{Topic: msg.Topic, Reason: fmt.Sprintf("timestamp %q is not RFC 3339", payload.Timestamp)}
	}

	provided := models.SeverityUnknown
	if payload.Severity != "" {
		if provided, err = models.ParseSeverity(payload.Severity); err != nil {
			return models.SensorEvent{}, &ValidationError{Topic: msg.Topic, Reason: err.Error()}
		}
	}
	derived := n.thresholds.Classify(district, sensorType, *payload.Value)

	id := payload.ID
	if id == "" {
		id = uuid.NewString()
	}

	event := models.SensorEvent{
		ID:               id,
		District:         district,
		SensorType:       sensorType,
		Value:            *payload.Value,
		Unit:             *payload.Unit,
		Severity:         provided.Max(derived),
		ProvidedSeverity: provided,
		Timestamp:        timestamp,
		Topic:            msg.Topic,
		CreatedAt:        n.now().UTC(),
	}

	n.recorder.RecordEvent(event)
	return event, nil
}

// ParseTopic разбирает топик вида city/<district>/<sensor_type>
func ParseTopic(topic string) (district, sensorType string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != topicPrefix {
		return "", "", errors.New("topic must have the form city/<district>/<sensor_type>")
	}
	if !nameRe.MatchString(parts[1]) {
		return "", "", fmt.Errorf("invalid district name %q", parts[1])
	}
	if !nameRe.MatchString(parts[2]) {
		return "", "", fmt.Errorf("invalid sensor type %q", parts[2])
	}
	return parts[1], parts[2], nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, fmt.Sprintf("field %s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(problems, "; ")
}
