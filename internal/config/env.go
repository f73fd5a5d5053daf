package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shenikar/urban_monitoring_system/internal/models"
)

// envReader читает переменные окружения и копит ошибки разбора
type envReader struct {
	problems []string
}

func (r *envReader) fail(format string, args ...any) {
	r.problems = append(r.problems, fmt.Sprintf(format, args...))
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func (r *envReader) getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func (r *envReader) getEnvAsInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		r.fail("%s: %q is not an integer", key, value)
		return defaultValue
	}
	return intValue
}

// getEnvAsBool возвращает значение переменной окружения как bool или значение по умолчанию
func (r *envReader) getEnvAsBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		r.fail("%s: %q is not a boolean", key, value)
		return defaultValue
	}
	return boolValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func (r *envReader) getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	durationValue, err := time.ParseDuration(value)
	if err != nil {
		r.fail("%s: %q is not a duration", key, value)
		return defaultValue
	}
	return durationValue
}

// getEnvAsList разбирает список через запятую
func (r *envReader) getEnvAsList(key string) []string {
	return splitList(os.Getenv(key), ",")
}

func splitList(raw, sep string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseThresholds разбирает пороги вида "medium/critical/extreme", например "50/80/120"
func ParseThresholds(raw string) (models.Thresholds, error) {
	parts := strings.Split(strings.TrimSpace(raw), "/")
	if len(parts) != 3 {
		return models.Thresholds{}, fmt.Errorf("expected medium/critical/extreme, got %q", raw)
	}
	values := make([]float64, 3)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return models.Thresholds{}, fmt.Errorf("threshold %q is not a number", p)
		}
		values[i] = v
	}
	if values[0] > values[1] || values[1] > values[2] {
		return models.Thresholds{}, fmt.Errorf("thresholds must be non-decreasing, got %q", raw)
	}
	return models.Thresholds{Medium: values[0], Critical: values[1], Extreme: values[2]}, nil
}

// ParseThresholdTable разбирает пороги районов вида "D1=50/80/120;D1.traffic=40/70/100"
func ParseThresholdTable(raw string) (map[string]models.Thresholds, error) {
	table := make(map[string]models.Thresholds)
	for _, entry := range splitList(raw, ";") {
		key, value, ok := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("entry %q must look like district=medium/critical/extreme", entry)
		}
		th, err := ParseThresholds(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		table[key] = th
	}
	return table, nil
}

// ParseAdjacency разбирает соседство районов вида "D1=D2|D3;D2=D1"
func ParseAdjacency(raw string) (map[string][]string, error) {
	adjacency := make(map[string][]string)
	for _, entry := range splitList(raw, ";") {
		district, neighbours, ok := strings.Cut(entry, "=")
		district = strings.TrimSpace(district)
		if !ok || district == "" {
			return nil, fmt.Errorf("entry %q must look like district=neighbour|neighbour", entry)
		}
		for _, n := range splitList(neighbours, "|") {
			if n == district {
				continue
			}
			adjacency[district] = append(adjacency[district], n)
		}
	}
	return adjacency, nil
}
