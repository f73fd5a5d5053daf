package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shenikar/urban_monitoring_system/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	id  int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.id
	return nil
}

type fakeQuerier struct {
	row  fakeRow
	sql  string
	args []any
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.sql = sql
	q.args = args
	return q.row
}

func TestPostgresStore_CreateEvent(t *testing.T) {
	// Подготовка
	db := &fakeQuerier{row: fakeRow{id: 15}}
	store := NewPostgresStore(db)
	event := models.SensorEvent{
		ID:               "evt-1",
		District:         "D1",
		SensorType:       "pollution",
		Value:            42,
		Unit:             "ug/m3",
		Severity:         models.SeverityMedium,
		ProvidedSeverity: models.SeverityLow,
		Timestamp:        time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		Topic:            "city/D1/pollution",
	}

	// Действие
	id, err := store.CreateEvent(context.Background(), event)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, "15", id)
	assert.Contains(t, db.sql, "INSERT INTO events")
	assert.Equal(t, "evt-1", db.args[0])
	assert.Equal(t, "medium", db.args[5])
	assert.Equal(t, "low", db.args[6])
}

func TestPostgresStore_CreateActionWithEscalations(t *testing.T) {
	db := &fakeQuerier{row: fakeRow{id: 3}}
	store := NewPostgresStore(db)

	id, err := store.CreateAction(context.Background(), models.Action{
		ID:         "act-1",
		Origin:     models.OriginCoordinator,
		Source:     "D1,D2",
		Target:     "D3",
		ActionType: models.ActionRerouteTraffic,
		Reason:     "fallback:disabled",
		Escalations: []models.Escalation{
			{District: "D1", Severity: models.SeverityHigh},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "3", id)
	assert.Nil(t, db.args[7], "coordinator actions carry no event snapshot")

	var escalations []models.Escalation
	require.NoError(t, json.Unmarshal(db.args[8].([]byte), &escalations))
	require.Len(t, escalations, 1)
	assert.Equal(t, models.SeverityHigh, escalations[0].Severity)
}

func TestPostgresStore_ScanError(t *testing.T) {
	store := NewPostgresStore(&fakeQuerier{row: fakeRow{err: errors.New("connection reset")}})

	_, err := store.CreateEvent(context.Background(), models.SensorEvent{ID: "evt-1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create event")
}
