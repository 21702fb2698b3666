package models

import "time"

// 风险等级
const (
	RiskHigh   = "high"
	RiskMedium = "medium"
	RiskLow    = "low"
)

// FallEvent 一次确认的跌倒事件（创建后不可修改）
type FallEvent struct {
	ID         string         `json:"event_id"`
	Timestamp  time.Time      `json:"timestamp"`
	Analysis   AnalysisResult `json:"analysis"`
	BBox       BoundingBox    `json:"bbox"`
	Keypoints  Keypoints      `json:"keypoints"`
	Confidence float64        `json:"confidence"`
}

// RiskLevel 根据跌倒分数返回风险等级
func RiskLevel(fallScore float64) string {
	switch {
	case fallScore > 0.7:
		return RiskHigh
	case fallScore > 0.5:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Alert 发送给通知端的报警内容
type Alert struct {
	DeviceID  string    `json:"device_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	ImagePath string    `json:"image_path,omitempty"`
	VideoPath string    `json:"video_path,omitempty"`
	RiskLevel string    `json:"risk_level"`
	Event     FallEvent `json:"event"`
}

// HasImage 是否附带图片
func (a Alert) HasImage() bool { return a.ImagePath != "" }

// HasVideo 是否附带视频
func (a Alert) HasVideo() bool { return a.VideoPath != "" }
