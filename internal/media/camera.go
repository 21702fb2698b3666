package media

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// ErrEmptyFrame 摄像头返回空帧（断开或视频结束）
var ErrEmptyFrame = errors.New("empty frame")

// CameraConfig 摄像头配置
type CameraConfig struct {
	// Source 设备索引（"0"）或视频流地址
	Source string
	Width  int
	Height int
	FPS    float64
}

// Camera 基于 OpenCV VideoCapture 的帧来源
type Camera struct {
	capture *gocv.VideoCapture
	logger  *zap.Logger
}

// OpenCamera 打开摄像头或视频流
func OpenCamera(cfg CameraConfig, logger *zap.Logger) (*Camera, error) {
	var device interface{} = cfg.Source
	if idx, err := strconv.Atoi(strings.TrimSpace(cfg.Source)); err == nil {
		device = idx
	}

	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open video capture: %w", err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("video capture is not opened: %s", cfg.Source)
	}

	if cfg.Width > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	}
	if cfg.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	if cfg.FPS > 0 {
		capture.Set(gocv.VideoCaptureFPS, cfg.FPS)
	}
	// 只保留最新一帧，降低延迟
	capture.Set(gocv.VideoCaptureBufferSize, 1)

	logger.Info("Camera opened",
		zap.String("source", cfg.Source),
		zap.Float64("width", capture.Get(gocv.VideoCaptureFrameWidth)),
		zap.Float64("height", capture.Get(gocv.VideoCaptureFrameHeight)),
		zap.Float64("fps", capture.Get(gocv.VideoCaptureFPS)),
	)

	return &Camera{capture: capture, logger: logger}, nil
}

// Read 读取下一帧，返回的 Mat 由调用方关闭
func (c *Camera) Read(ctx context.Context) (gocv.Mat, error) {
	if err := ctx.Err(); err != nil {
		return gocv.Mat{}, err
	}

	img := gocv.NewMat()
	if ok := c.capture.Read(&img); !ok || img.Empty() {
		img.Close()
		return gocv.Mat{}, ErrEmptyFrame
	}
	return img, nil
}

// Close 释放摄像头
func (c *Camera) Close() error {
	return c.capture.Close()
}
