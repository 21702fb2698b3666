package pipeline

import (
	"context"
	"time"

	"wisefido-fallcam/internal/evaluator"
	"wisefido-fallcam/internal/models"
)

// Camera 视频帧来源
type Camera[F any] interface {
	// Read 阻塞读取下一帧，返回的帧归调用方所有
	Read(ctx context.Context) (F, error)
}

// Oracle 人体检测与姿态估计
type Oracle[F any] interface {
	Infer(ctx context.Context, frame F) ([]models.PoseObservation, error)
}

// FrameOps 帧的复制、释放和尺寸
type FrameOps[F any] interface {
	Clone(frame F) F
	Release(frame F)
	Height(frame F) float64
}

// EvidenceWriter 事件截图与录像写入
type EvidenceWriter[F any] interface {
	WriteImage(ts time.Time, frame F) (string, error)
	WriteVideo(ts time.Time, frames []F) (string, error)
}

// Overlay 调试画面上的叠加信息
type Overlay struct {
	Scored             []evaluator.Scored
	State              models.DetectionState
	FallDurationFrames int
	Confirmed          bool
	FPS                float64
	ShowFPS            bool
}

// 调试窗口按键
const (
	KeyNone  = -1
	KeyQuit  = 'q'
	KeyStats = 's'
)

// Display 调试窗口
// Show 在帧的副本上绘制叠加信息并显示，返回按键（无按键为 KeyNone）
type Display[F any] interface {
	Show(frame F, overlay Overlay) int
	Close() error
}

// modelNamer 能报告模型名称的推理服务
type modelNamer interface {
	Model() string
}
