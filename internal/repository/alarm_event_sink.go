package repository

import (
	"context"
	"fmt"

	"wisefido-fallcam/internal/evidence"
	"wisefido-fallcam/internal/models"

	"go.uber.org/zap"
)

// AlarmEventSink 把报警写入 alarm_events 表的通知端
type AlarmEventSink struct {
	repo     *AlarmEventsRepository
	builder  *evidence.AlarmEventBuilder
	tenantID string
	metadata map[string]interface{}
	logger   *zap.Logger
}

// NewAlarmEventSink 创建报警事件通知端
func NewAlarmEventSink(repo *AlarmEventsRepository, tenantID, deviceID string, metadata map[string]interface{}, logger *zap.Logger) *AlarmEventSink {
	return &AlarmEventSink{
		repo:     repo,
		builder:  evidence.NewAlarmEventBuilder(tenantID, deviceID),
		tenantID: tenantID,
		metadata: metadata,
		logger:   logger,
	}
}

// Name 通知端名称
func (s *AlarmEventSink) Name() string {
	return "alarm_events"
}

// Notify 写入报警事件
func (s *AlarmEventSink) Notify(ctx context.Context, alert models.Alert) error {
	event, err := s.builder.Build(alert, s.metadata)
	if err != nil {
		return fmt.Errorf("failed to build alarm event: %w", err)
	}

	if err := s.repo.CreateAlarmEvent(ctx, s.tenantID, event); err != nil {
		return err
	}

	if count, err := s.repo.CountActiveAlarmEvents(ctx, s.tenantID, event.DeviceID); err != nil {
		s.logger.Warn("Failed to count active alarm events", zap.Error(err))
	} else {
		s.logger.Debug("Active alarm events", zap.String("device_id", event.DeviceID), zap.Int("active_count", count))
	}

	return nil
}
