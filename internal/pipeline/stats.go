package pipeline

import (
	"time"

	"go.uber.org/zap"
)

// Stats 运行统计
type Stats struct {
	StartedAt            time.Time
	TotalFrames          int
	FramesWithDetections int
	SuppressedFrames     int
	OracleErrors         int
	FallsDetected        int
	AlertsSent           int
	AlertsFailed         int
	FPS                  float64
}

// Elapsed 运行时长
func (s Stats) Elapsed(now time.Time) time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(s.StartedAt)
}

// AverageFPS 平均处理帧率
func (s Stats) AverageFPS(now time.Time) float64 {
	elapsed := s.Elapsed(now).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.TotalFrames) / elapsed
}

// Fields 日志字段
func (s Stats) Fields(now time.Time) []zap.Field {
	return []zap.Field{
		zap.Duration("elapsed", s.Elapsed(now)),
		zap.Int("total_frames", s.TotalFrames),
		zap.Int("frames_with_detections", s.FramesWithDetections),
		zap.Int("suppressed_frames", s.SuppressedFrames),
		zap.Int("oracle_errors", s.OracleErrors),
		zap.Int("falls_detected", s.FallsDetected),
		zap.Int("alerts_sent", s.AlertsSent),
		zap.Int("alerts_failed", s.AlertsFailed),
		zap.Float64("fps", s.FPS),
		zap.Float64("average_fps", s.AverageFPS(now)),
	}
}

// fpsMeter 按秒统计帧率
type fpsMeter struct {
	windowStart time.Time
	frames      int
	fps         float64
}

func (m *fpsMeter) tick(now time.Time) float64 {
	if m.windowStart.IsZero() {
		m.windowStart = now
	}
	m.frames++
	if elapsed := now.Sub(m.windowStart); elapsed >= time.Second {
		m.fps = float64(m.frames) / elapsed.Seconds()
		m.frames = 0
		m.windowStart = now
	}
	return m.fps
}
