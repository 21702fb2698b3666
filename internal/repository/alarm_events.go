package repository

import (
	"context"
	"database/sql"
	"fmt"

	"wisefido-fallcam/internal/models"

	"go.uber.org/zap"
)

// AlarmEventsRepository 报警事件仓库（owl 后端 alarm_events 表）
type AlarmEventsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAlarmEventsRepository 创建报警事件仓库
func NewAlarmEventsRepository(db *sql.DB, logger *zap.Logger) *AlarmEventsRepository {
	return &AlarmEventsRepository{
		db:     db,
		logger: logger,
	}
}

// CreateAlarmEvent 创建报警事件（需验证 tenant_id）
func (r *AlarmEventsRepository) CreateAlarmEvent(ctx context.Context, tenantID string, event *models.AlarmEvent) error {
	if tenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if event == nil {
		return fmt.Errorf("event is required")
	}
	if event.TenantID != tenantID {
		return fmt.Errorf("event.tenant_id must match tenant_id parameter")
	}

	query := `
		INSERT INTO alarm_events (
			event_id,
			tenant_id,
			device_id,
			event_type,
			category,
			alarm_level,
			alarm_status,
			triggered_at,
			trigger_data,
			notified_users,
			metadata,
			created_at,
			updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
	`

	_, err := r.db.ExecContext(ctx,
		query,
		event.EventID,
		event.TenantID,
		event.DeviceID,
		event.EventType,
		event.Category,
		event.AlarmLevel,
		event.AlarmStatus,
		event.TriggeredAt,
		event.TriggerData,
		event.NotifiedUsers,
		event.Metadata,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create alarm event: %w", err)
	}

	r.logger.Info("Alarm event created",
		zap.String("event_id", event.EventID),
		zap.String("tenant_id", tenantID),
		zap.String("device_id", event.DeviceID),
		zap.String("alarm_level", event.AlarmLevel),
	)

	return nil
}

// CountActiveAlarmEvents 统计设备未处理的报警事件数
func (r *AlarmEventsRepository) CountActiveAlarmEvents(ctx context.Context, tenantID, deviceID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM alarm_events
		WHERE tenant_id = $1
		  AND device_id = $2
		  AND alarm_status = 'active'
		  AND (metadata->>'deleted_at' IS NULL)
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, tenantID, deviceID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count alarm events: %w", err)
	}
	return count, nil
}
