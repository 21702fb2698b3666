package evidence

import (
	"encoding/json"
	"fmt"
	"time"

	"wisefido-fallcam/internal/models"

	"github.com/google/uuid"
)

// AlarmEventBuilder 把报警转换为 alarm_events 记录
type AlarmEventBuilder struct {
	tenantID string
	deviceID string
}

// NewAlarmEventBuilder 创建报警事件构建器
func NewAlarmEventBuilder(tenantID, deviceID string) *AlarmEventBuilder {
	return &AlarmEventBuilder{
		tenantID: tenantID,
		deviceID: deviceID,
	}
}

// Build 构建报警事件
// 高风险为 ALERT，其余为 WARNING
func (b *AlarmEventBuilder) Build(alert models.Alert, metadata map[string]interface{}) (*models.AlarmEvent, error) {
	ev := alert.Event

	triggerDataJSON, err := json.Marshal(BuildTriggerData(alert))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trigger data: %w", err)
	}

	metadataJSON := "{}"
	if metadata != nil {
		metadataBytes, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadataJSON = string(metadataBytes)
	}

	level := models.AlarmLevelWarning
	if alert.RiskLevel == models.RiskHigh {
		level = models.AlarmLevelAlert
	}

	eventID := ev.ID
	if _, err := uuid.Parse(eventID); err != nil {
		eventID = uuid.New().String()
	}

	triggeredAt := ev.Timestamp
	if triggeredAt.IsZero() {
		triggeredAt = time.Now()
	}
	now := time.Now()

	return &models.AlarmEvent{
		EventID:       eventID,
		TenantID:      b.tenantID,
		DeviceID:      b.deviceID,
		EventType:     models.AlarmEventTypeFall,
		Category:      models.AlarmCategorySafety,
		AlarmLevel:    level,
		AlarmStatus:   models.AlarmStatusActive,
		TriggeredAt:   triggeredAt,
		TriggerData:   string(triggerDataJSON),
		NotifiedUsers: "[]",
		Metadata:      metadataJSON,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// BuildTriggerData 构建触发数据快照
func BuildTriggerData(alert models.Alert) *models.TriggerData {
	ev := alert.Event
	return &models.TriggerData{
		EventType:  models.AlarmEventTypeFall,
		Source:     models.AlarmSourceCamera,
		FallScore:  ev.Analysis.FallScore,
		Confidence: ev.Confidence,
		Reason:     ev.Analysis.Reason,
		Scores:     ev.Analysis.Scores,
		BBox:       ev.BBox,
		ImagePath:  alert.ImagePath,
		VideoPath:  alert.VideoPath,
	}
}
