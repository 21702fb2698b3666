package evidence

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// ErrEmptyClip 录像没有任何帧
var ErrEmptyClip = errors.New("empty clip")

// Encoder 帧编码器（由 media 包基于 OpenCV 实现）
type Encoder[F any] interface {
	WriteImage(path string, frame F) error
	WriteVideo(path string, frames []F, fps float64) error
}

// Params 证据保存参数
type Params struct {
	SaveImages bool
	ImagesDir  string
	SaveVideos bool
	VideosDir  string
	FPS        float64
}

// Writer 把事件截图和录像写入磁盘
// 写入失败只返回错误，由调用方记录日志后继续发送报警
type Writer[F any] struct {
	params  Params
	encoder Encoder[F]
	logger  *zap.Logger
}

// NewWriter 创建证据写入器
func NewWriter[F any](p Params, encoder Encoder[F], logger *zap.Logger) *Writer[F] {
	return &Writer[F]{
		params:  p,
		encoder: encoder,
		logger:  logger,
	}
}

// SavesImages 是否保存截图
func (w *Writer[F]) SavesImages() bool { return w.params.SaveImages }

// SavesVideos 是否保存录像
func (w *Writer[F]) SavesVideos() bool { return w.params.SaveVideos }

// WriteImage 保存事件截图，返回文件路径
// 未开启截图时返回空路径
func (w *Writer[F]) WriteImage(ts time.Time, frame F) (string, error) {
	if !w.params.SaveImages {
		return "", nil
	}
	if err := os.MkdirAll(w.params.ImagesDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create image dir: %w", err)
	}

	path := ImagePath(w.params.ImagesDir, ts)
	if err := w.encoder.WriteImage(path, frame); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	w.logger.Info("Fall image saved", zap.String("path", path))
	return path, nil
}

// WriteVideo 保存事件录像，返回文件路径
// 未开启录像时返回空路径
func (w *Writer[F]) WriteVideo(ts time.Time, frames []F) (string, error) {
	if !w.params.SaveVideos {
		return "", nil
	}
	if len(frames) == 0 {
		return "", ErrEmptyClip
	}
	if err := os.MkdirAll(w.params.VideosDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create video dir: %w", err)
	}

	path := VideoPath(w.params.VideosDir, ts)
	if err := w.encoder.WriteVideo(path, frames, w.params.FPS); err != nil {
		return "", fmt.Errorf("failed to write video: %w", err)
	}

	w.logger.Info("Fall video saved",
		zap.String("path", path),
		zap.Int("frames", len(frames)),
		zap.Float64("duration_sec", float64(len(frames))/w.params.FPS),
	)
	return path, nil
}
