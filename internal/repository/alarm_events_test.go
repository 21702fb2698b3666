package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"wisefido-fallcam/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockAlarmEventsDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *AlarmEventsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewAlarmEventsRepository(db, zap.NewNop())

	return db, mock, repo
}

func sampleAlarmEvent(tenantID string) *models.AlarmEvent {
	now := time.Now()
	return &models.AlarmEvent{
		EventID:       uuid.New().String(),
		TenantID:      tenantID,
		DeviceID:      "fallcam-01",
		EventType:     models.AlarmEventTypeFall,
		Category:      models.AlarmCategorySafety,
		AlarmLevel:    models.AlarmLevelAlert,
		AlarmStatus:   models.AlarmStatusActive,
		TriggeredAt:   now,
		TriggerData:   `{"event_type":"Fall","source":"Camera"}`,
		NotifiedUsers: "[]",
		Metadata:      "{}",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestCreateAlarmEvent_Success(t *testing.T) {
	db, mock, repo := setupMockAlarmEventsDB(t)
	defer db.Close()

	tenantID := uuid.New().String()
	event := sampleAlarmEvent(tenantID)

	mock.ExpectExec(`INSERT INTO alarm_events`).
		WithArgs(
			event.EventID, event.TenantID, event.DeviceID, event.EventType, event.Category,
			event.AlarmLevel, event.AlarmStatus, event.TriggeredAt, event.TriggerData,
			event.NotifiedUsers, event.Metadata, event.CreatedAt, event.UpdatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.CreateAlarmEvent(context.Background(), tenantID, event)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAlarmEvent_Validation(t *testing.T) {
	db, mock, repo := setupMockAlarmEventsDB(t)
	defer db.Close()

	ctx := context.Background()
	event := sampleAlarmEvent("tenant-a")

	assert.EqualError(t, repo.CreateAlarmEvent(ctx, "", event), "tenant_id is required")
	assert.EqualError(t, repo.CreateAlarmEvent(ctx, "tenant-a", nil), "event is required")
	assert.EqualError(t, repo.CreateAlarmEvent(ctx, "tenant-b", event), "event.tenant_id must match tenant_id parameter")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAlarmEvent_DBError(t *testing.T) {
	db, mock, repo := setupMockAlarmEventsDB(t)
	defer db.Close()

	dbErr := errors.New("connection reset")
	mock.ExpectExec(`INSERT INTO alarm_events`).WillReturnError(dbErr)

	err := repo.CreateAlarmEvent(context.Background(), "tenant-a", sampleAlarmEvent("tenant-a"))

	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.Contains(t, err.Error(), "failed to create alarm event")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountActiveAlarmEvents(t *testing.T) {
	db, mock, repo := setupMockAlarmEventsDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs("tenant-a", "fallcam-01").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountActiveAlarmEvents(context.Background(), "tenant-a", "fallcam-01")

	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func sampleAlert() models.Alert {
	return models.Alert{
		DeviceID:  "fallcam-01",
		Title:     "[URGENT] Fall detected",
		RiskLevel: models.RiskMedium,
		ImagePath: "fall_detections/fall_20240309_070503.jpg",
		Event: models.FallEvent{
			ID:         uuid.New().String(),
			Timestamp:  time.Date(2024, 3, 9, 7, 5, 3, 0, time.UTC),
			Analysis:   models.AnalysisResult{IsFall: true, FallScore: 0.65},
			Confidence: 0.88,
		},
	}
}

func TestAlarmEventSink_Notify(t *testing.T) {
	db, mock, repo := setupMockAlarmEventsDB(t)
	defer db.Close()

	alert := sampleAlert()
	sink := NewAlarmEventSink(repo, "tenant-a", "fallcam-01", nil, zap.NewNop())

	mock.ExpectExec(`INSERT INTO alarm_events`).
		WithArgs(
			alert.Event.ID, "tenant-a", "fallcam-01", "Fall", "safety",
			"WARNING", "active", alert.Event.Timestamp, sqlmock.AnyArg(),
			"[]", "{}", sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs("tenant-a", "fallcam-01").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	require.NoError(t, sink.Notify(context.Background(), alert))
	assert.Equal(t, "alarm_events", sink.Name())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlarmEventSink_InsertFails(t *testing.T) {
	db, mock, repo := setupMockAlarmEventsDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO alarm_events`).WillReturnError(sql.ErrConnDone)

	sink := NewAlarmEventSink(repo, "tenant-a", "fallcam-01", map[string]interface{}{"camera_source": "0"}, zap.NewNop())

	err := sink.Notify(context.Background(), sampleAlert())

	assert.ErrorIs(t, err, sql.ErrConnDone)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlarmEventSink_CountFailureIgnored(t *testing.T) {
	db, mock, repo := setupMockAlarmEventsDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO alarm_events`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT COUNT`).WillReturnError(errors.New("timeout"))

	sink := NewAlarmEventSink(repo, "tenant-a", "fallcam-01", nil, zap.NewNop())

	assert.NoError(t, sink.Notify(context.Background(), sampleAlert()))
	require.NoError(t, mock.ExpectationsWereMet())
}
