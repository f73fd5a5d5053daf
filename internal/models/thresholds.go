package models

// Thresholds - пороги значений, по которым выводится уровень критичности.
// Critical - порог эскалации, Extreme - порог крайнего уровня.
type Thresholds struct {
	Medium   float64 `json:"medium"`
	Critical float64 `json:"critical"`
	Extreme  float64 `json:"extreme"`
}

// Classify переводит значение в уровень критичности
func (t Thresholds) Classify(value float64) Severity {
	switch {
	case value >= t.Extreme:
		return SeverityCritical
	case value >= t.Critical:
		return SeverityHigh
	case value >= t.Medium:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// ThresholdTable - пороги по районам. Ключ "district.sensor_type" имеет приоритет над "district".
type ThresholdTable struct {
	Default   Thresholds
	Overrides map[string]Thresholds
}

// Lookup возвращает пороги для пары район/тип датчика
func (t ThresholdTable) Lookup(district, sensorType string) Thresholds {
	if th, ok := t.Overrides[district+"."+sensorType]; ok {
		return th
	}
	if th, ok := t.Overrides[district]; ok {
		return th
	}
	return t.Default
}

// Classify выводит уровень критичности значения для района и типа датчика
func (t ThresholdTable) Classify(district, sensorType string, value float64) Severity {
	return t.Lookup(district, sensorType).Classify(value)
}
