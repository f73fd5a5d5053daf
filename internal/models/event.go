package models

import (
	"time"
)

// SensorEvent - нормализованное показание датчика. После создания не изменяется.
type SensorEvent struct {
	ID               string    `json:"id"`
	District         string    `json:"district"`
	SensorType       string    `json:"sensor_type"`
	Value            float64   `json:"value"`
	Unit             string    `json:"unit"`
	Severity         Severity  `json:"severity"`
	ProvidedSeverity Severity  `json:"provided_severity,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
	Topic            string    `json:"topic"`
	CreatedAt        time.Time `json:"created_at"`
}

// EventSummary - сокращенное представление события для истории района
type EventSummary struct {
	Timestamp  time.Time `json:"timestamp"`
	SensorType string    `json:"sensor_type"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	Severity   Severity  `json:"severity"`
}

// Summary возвращает краткую сводку события
func (e SensorEvent) Summary() EventSummary {
	return EventSummary{
		Timestamp:  e.Timestamp,
		SensorType: e.SensorType,
		Value:      e.Value,
		Unit:       e.Unit,
		Severity:   e.Severity,
	}
}
