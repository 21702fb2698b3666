package models

import "time"

// 报警事件固定取值（与 owl 后端 alarm_events 表保持一致）
const (
	AlarmEventTypeFall  = "Fall"
	AlarmCategorySafety = "safety"
	AlarmLevelAlert     = "ALERT"
	AlarmLevelWarning   = "WARNING"
	AlarmStatusActive   = "active"
	AlarmSourceCamera   = "Camera"
)

// AlarmEvent 报警事件（对应 alarm_events 表）
type AlarmEvent struct {
	EventID       string    `json:"event_id" db:"event_id"`
	TenantID      string    `json:"tenant_id" db:"tenant_id"`
	DeviceID      string    `json:"device_id" db:"device_id"`
	EventType     string    `json:"event_type" db:"event_type"`
	Category      string    `json:"category" db:"category"`       // safety
	AlarmLevel    string    `json:"alarm_level" db:"alarm_level"` // ALERT, WARNING
	AlarmStatus   string    `json:"alarm_status" db:"alarm_status"`
	TriggeredAt   time.Time `json:"triggered_at" db:"triggered_at"`
	TriggerData   string    `json:"trigger_data" db:"trigger_data"` // JSONB
	NotifiedUsers string    `json:"notified_users" db:"notified_users"`
	Metadata      string    `json:"metadata" db:"metadata"` // JSONB
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// TriggerData 触发数据快照（JSONB 结构）
type TriggerData struct {
	EventType  string      `json:"event_type"`
	Source     string      `json:"source"` // "Camera"
	FallScore  float64     `json:"fall_score"`
	Confidence float64     `json:"confidence"`
	Reason     string      `json:"reason"`
	Scores     SubScores   `json:"scores"`
	BBox       BoundingBox `json:"bbox"`
	ImagePath  string      `json:"image_path,omitempty"`
	VideoPath  string      `json:"video_path,omitempty"`
}
