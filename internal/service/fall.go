package service

import (
	"context"
	"fmt"

	"wisefido-fallcam/internal/config"
	"wisefido-fallcam/internal/evaluator"
	"wisefido-fallcam/internal/evidence"
	"wisefido-fallcam/internal/media"
	"wisefido-fallcam/internal/oracle"
	"wisefido-fallcam/internal/pipeline"
	"wisefido-fallcam/internal/pose"
	"wisefido-fallcam/internal/recorder"
	"wisefido-fallcam/internal/sinks"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

const viewerTitle = "Fall Detection"

var (
	_ pipeline.Camera[gocv.Mat]         = (*media.Camera)(nil)
	_ pipeline.Oracle[gocv.Mat]         = (*oracle.HTTPClient[gocv.Mat])(nil)
	_ pipeline.FrameOps[gocv.Mat]       = media.MatOps{}
	_ pipeline.EvidenceWriter[gocv.Mat] = (*evidence.Writer[gocv.Mat])(nil)
	_ pipeline.Display[gocv.Mat]        = (*media.Viewer)(nil)
	_ evidence.Encoder[gocv.Mat]        = (*media.Encoder)(nil)
)

// FallService 跌倒检测服务（整合各层）
type FallService struct {
	config *config.Config
	logger *zap.Logger

	camera   *media.Camera
	sinks    *sinks.Sinks
	pipeline *pipeline.Pipeline[gocv.Mat]
}

// NewFallService 创建跌倒检测服务
func NewFallService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*FallService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 1. 通知端
	alertSinks, err := sinks.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open alert sinks: %w", err)
	}

	// 2. 摄像头
	camera, err := media.OpenCamera(media.CameraConfig{
		Source: cfg.Camera.Source,
		Width:  cfg.Camera.Width,
		Height: cfg.Camera.Height,
		FPS:    cfg.Camera.FPS,
	}, logger)
	if err != nil {
		alertSinks.Close()
		return nil, fmt.Errorf("failed to open camera: %w", err)
	}

	// 3. 推理与判定
	poseOracle := oracle.NewHTTPClient[gocv.Mat](oracle.Config{
		BaseURL:       cfg.Oracle.URL,
		Timeout:       cfg.Oracle.Timeout,
		MinConfidence: cfg.Oracle.MinConfidence,
	}, media.EncodeJPEG, logger)

	eval := evaluator.NewEvaluator(pose.NewAnalyzer(cfg.Detection.Pose), cfg.Detection.Temporal, logger)

	// 4. 证据与录像
	ops := media.MatOps{}
	writer := evidence.NewWriter[gocv.Mat](evidence.Params{
		SaveImages: cfg.Storage.SaveImages,
		ImagesDir:  cfg.Storage.ImagesDir,
		SaveVideos: cfg.Storage.SaveVideos,
		VideosDir:  cfg.Storage.VideosDir,
		FPS:        cfg.Camera.FPS,
	}, media.NewEncoder(cfg.Video.Codec), logger)

	deps := pipeline.Deps[gocv.Mat]{
		Camera:    camera,
		Oracle:    poseOracle,
		Evaluator: eval,
		Evidence:  writer,
		Notifier:  alertSinks.Notifier,
		Frames:    ops,
	}
	if cfg.Storage.SaveVideos {
		window := cfg.VideoWindow()
		deps.Recorder = recorder.New(window, ops.Release)
		logger.Info("Video recording enabled",
			zap.Int("buffer_frames", window.BufferFrames),
			zap.Int("after_frames", window.AfterFrames),
		)
	}
	if cfg.Debug.Enabled {
		deps.Display = media.NewViewer(viewerTitle)
	}

	return &FallService{
		config: cfg,
		logger: logger,
		camera: camera,
		sinks:  alertSinks,
		pipeline: pipeline.New(deps, pipeline.Options{
			DeviceID: cfg.DeviceID,
			Model:    cfg.Oracle.Model,
			ShowFPS:  cfg.Debug.ShowFPS,
		}, logger),
	}, nil
}

// Start 启动服务，阻塞到主循环结束
func (s *FallService) Start(ctx context.Context) error {
	s.logger.Info("Starting fall detection service",
		zap.String("device_id", s.config.DeviceID),
		zap.String("camera_source", s.config.Camera.Source),
		zap.String("oracle_url", s.config.Oracle.URL),
		zap.Bool("debug", s.config.Debug.Enabled),
	)

	// 连接测试失败只警告，报警仍会尝试发送
	if err := s.sinks.CMS.Ping(ctx); err != nil {
		s.logger.Warn("CMS unreachable, running in offline mode", zap.Error(err))
	}

	if err := s.pipeline.Run(ctx); err != nil {
		return fmt.Errorf("fall detection loop failed: %w", err)
	}
	return nil
}

// Stats 运行统计
func (s *FallService) Stats() pipeline.Stats {
	return s.pipeline.Stats()
}

// Stop 停止服务，释放摄像头和连接
func (s *FallService) Stop() error {
	s.logger.Info("Stopping fall detection service")

	if err := s.camera.Close(); err != nil {
		s.logger.Error("Failed to close camera", zap.Error(err))
	}
	if err := s.sinks.Close(); err != nil {
		s.logger.Error("Failed to close alert sinks", zap.Error(err))
	}

	return nil
}
