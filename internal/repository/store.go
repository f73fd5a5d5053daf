package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/shenikar/urban_monitoring_system/internal/models"
)

// querier - часть pgxpool.Pool, нужная хранилищу
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore сохраняет события и действия в PostgreSQL
type PostgresStore struct {
	db querier
}

// NewPostgresStore создает PostgresStore поверх пула соединений
func NewPostgresStore(db querier) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateEvent сохраняет событие. Повторная запись с тем же event_id возвращает существующую строку.
func (r *PostgresStore) CreateEvent(ctx context.Context, event models.SensorEvent) (string, error) {
	query := `
		INSERT INTO events (event_id, district, sensor_type, value, unit, severity, provided_severity, topic, source_timestamp, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (event_id) DO UPDATE SET event_id = EXCLUDED.event_id
		RETURNING id;
	`
	var id int64
	err := r.db.QueryRow(ctx, query,
		event.ID,
		event.District,
		event.SensorType,
		event.Value,
		event.Unit,
		event.Severity.String(),
		event.ProvidedSeverity.String(),
		event.Topic,
		event.Timestamp,
		event.CreatedAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

// CreateAction сохраняет действие вместе со снимками события и эскалаций
func (r *PostgresStore) CreateAction(ctx context.Context, action models.Action) (string, error) {
	snapshot, err := jsonOrNil(action.EventSnapshot)
	if err != nil {
		return "", fmt.Errorf("failed to marshal event snapshot: %w", err)
	}
	var escalations []byte
	if len(action.Escalations) > 0 {
		if escalations, err = json.Marshal(action.Escalations); err != nil {
			return "", fmt.Errorf("failed to marshal escalations: %w", err)
		}
	}

	query := `
		INSERT INTO actions (action_id, origin, source_district, target_district, action_type, reason, detail, event_snapshot, escalations, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (action_id) DO UPDATE SET action_id = EXCLUDED.action_id
		RETURNING id;
	`
	var id int64
	err = r.db.QueryRow(ctx, query,
		action.ID,
		string(action.Origin),
		action.Source,
		action.Target,
		string(action.ActionType),
		action.Reason,
		action.Detail,
		snapshot,
		escalations,
		action.CreatedAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create action: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

func jsonOrNil(event *models.SensorEvent) ([]byte, error) {
	if event == nil {
		return nil, nil
	}
	return json.Marshal(event)
}
