package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wisefido-fallcam/internal/models"
)

// Notifier 报警通知端
// 调用是同步的，失败只返回错误，不做重试
type Notifier interface {
	Notify(ctx context.Context, alert models.Alert) error
}

// NamedNotifier 带名称的通知端（用于日志）
type NamedNotifier interface {
	Notifier
	Name() string
}

// Multi 扇出到多个通知端，每个通知端都会被调用，错误合并返回
type Multi []Notifier

// Notify 依次调用所有通知端
func (m Multi) Notify(ctx context.Context, alert models.Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, alert); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", nameOf(n), err))
		}
	}
	return errors.Join(errs...)
}

// Name 通知端名称
func (m Multi) Name() string {
	return "multi"
}

func nameOf(n Notifier) string {
	if named, ok := n.(NamedNotifier); ok {
		return named.Name()
	}
	return fmt.Sprintf("%T", n)
}

// AlertMessage MQTT / Redis Streams 中的报警消息
type AlertMessage struct {
	EventID    string             `json:"event_id"`
	DeviceID   string             `json:"device_id"`
	Timestamp  time.Time          `json:"timestamp"`
	RiskLevel  string             `json:"risk_level"`
	FallScore  float64            `json:"fall_score"`
	Confidence float64            `json:"confidence"`
	Reason     string             `json:"reason"`
	Scores     models.SubScores   `json:"scores"`
	BBox       models.BoundingBox `json:"bbox"`
	Title      string             `json:"title"`
	ImagePath  string             `json:"image_path,omitempty"`
	VideoPath  string             `json:"video_path,omitempty"`
}

// NewAlertMessage 从报警构建消息
func NewAlertMessage(alert models.Alert) AlertMessage {
	ev := alert.Event
	return AlertMessage{
		EventID:    ev.ID,
		DeviceID:   alert.DeviceID,
		Timestamp:  ev.Timestamp,
		RiskLevel:  alert.RiskLevel,
		FallScore:  ev.Analysis.FallScore,
		Confidence: ev.Confidence,
		Reason:     ev.Analysis.Reason,
		Scores:     ev.Analysis.Scores,
		BBox:       ev.BBox,
		Title:      alert.Title,
		ImagePath:  alert.ImagePath,
		VideoPath:  alert.VideoPath,
	}
}
