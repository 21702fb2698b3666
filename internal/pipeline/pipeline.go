package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wisefido-fallcam/internal/evaluator"
	"wisefido-fallcam/internal/evidence"
	"wisefido-fallcam/internal/models"
	"wisefido-fallcam/internal/notify"
	"wisefido-fallcam/internal/recorder"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrCameraRead 摄像头读取失败，主循环停止
var ErrCameraRead = errors.New("camera read failed")

// Options 主循环选项
type Options struct {
	DeviceID string
	// Model 推理模型名称（写入报警正文），推理服务报告的名称优先
	Model   string
	ShowFPS bool
	// Now / NewID 用于测试注入
	Now   func() time.Time
	NewID func() string
}

// Deps 主循环依赖
type Deps[F any] struct {
	Camera    Camera[F]
	Oracle    Oracle[F]
	Evaluator *evaluator.Evaluator
	// Recorder 为 nil 表示不录像，确认事件后立即发送报警
	Recorder *recorder.Recorder[F]
	Evidence EvidenceWriter[F]
	Notifier notify.Notifier
	Frames   FrameOps[F]
	// Display 为 nil 表示不显示调试窗口
	Display Display[F]
}

// incident 等待录像完成的事件
type incident[F any] struct {
	event    models.FallEvent
	snapshot F
}

// Pipeline 单线程主循环：读帧 → 推理 → 判定 → 录像 → 报警
type Pipeline[F any] struct {
	deps    Deps[F]
	opts    Options
	logger  *zap.Logger
	stats   Stats
	fps     fpsMeter
	pending *incident[F]
}

// New 创建主循环
func New[F any](deps Deps[F], opts Options, logger *zap.Logger) *Pipeline[F] {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.New().String() }
	}
	return &Pipeline[F]{
		deps:   deps,
		opts:   opts,
		logger: logger,
	}
}

// Stats 返回统计快照
func (p *Pipeline[F]) Stats() Stats {
	return p.stats
}

// Run 运行主循环直到 ctx 取消、调试窗口按 q 或摄像头读取失败
// 退出前完成正在进行的录像并发送报警
func (p *Pipeline[F]) Run(ctx context.Context) error {
	p.stats.StartedAt = p.opts.Now()
	p.logger.Info("Fall detection loop started", zap.String("device_id", p.opts.DeviceID))
	defer p.shutdown(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Fall detection loop stopping", zap.Error(ctx.Err()))
			return nil
		default:
		}

		frame, err := p.deps.Camera.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Error("Failed to read frame", zap.Error(err))
			return fmt.Errorf("%w: %w", ErrCameraRead, err)
		}

		if quit := p.processFrame(ctx, frame); quit {
			p.logger.Info("Quit requested from viewer")
			return nil
		}
	}
}

// processFrame 处理一帧，frame 的所有权转交给本函数
func (p *Pipeline[F]) processFrame(ctx context.Context, frame F) bool {
	now := p.opts.Now()
	p.stats.TotalFrames++
	p.stats.FPS = p.fps.tick(now)

	var verdict evaluator.Verdict
	if p.deps.Evaluator.BeginFrame() {
		// 冷却期：跳过推理
		p.stats.SuppressedFrames++
		verdict.State = p.deps.Evaluator.State()
	} else {
		observations, err := p.deps.Oracle.Infer(ctx, frame)
		if err != nil {
			p.stats.OracleErrors++
			p.logger.Warn("Pose inference failed", zap.Error(err))
			observations = nil
		}
		if len(observations) > 0 {
			p.stats.FramesWithDetections++
		}
		verdict = p.deps.Evaluator.Evaluate(observations, p.deps.Frames.Height(frame))
	}

	if verdict.Confirmed() {
		p.onConfirmed(ctx, now, frame, verdict)
	}

	key := KeyNone
	if p.deps.Display != nil {
		key = p.deps.Display.Show(frame, Overlay{
			Scored:             verdict.Scored,
			State:              verdict.State,
			FallDurationFrames: p.deps.Evaluator.Params().FallDurationFrames,
			Confirmed:          verdict.Confirmed(),
			FPS:                p.stats.FPS,
			ShowFPS:            p.opts.ShowFPS,
		})
	}

	if p.deps.Recorder != nil {
		if clip, done := p.deps.Recorder.Push(frame); done {
			p.completeIncident(ctx, &clip)
		}
	} else {
		p.deps.Frames.Release(frame)
	}

	switch key {
	case KeyQuit:
		return true
	case KeyStats:
		p.logger.Info("Statistics", p.stats.Fields(p.opts.Now())...)
	}
	return false
}

// onConfirmed 确认跌倒：生成事件，开始录像或立即报警
func (p *Pipeline[F]) onConfirmed(ctx context.Context, now time.Time, frame F, verdict evaluator.Verdict) {
	p.stats.FallsDetected++

	trigger := verdict.Trigger
	inc := &incident[F]{
		event: models.FallEvent{
			ID:         p.opts.NewID(),
			Timestamp:  now,
			Analysis:   trigger.Analysis,
			BBox:       trigger.Observation.BBox,
			Keypoints:  trigger.Observation.Keypoints,
			Confidence: trigger.Observation.Confidence,
		},
		snapshot: p.deps.Frames.Clone(frame),
	}

	p.logger.Warn("Fall detected",
		zap.String("event_id", inc.event.ID),
		zap.Float64("fall_score", inc.event.Analysis.FallScore),
		zap.String("risk_level", models.RiskLevel(inc.event.Analysis.FallScore)),
		zap.Int("cooldown_remaining", verdict.State.CooldownRemaining),
	)

	if p.deps.Recorder == nil {
		p.handleIncident(ctx, inc, nil)
		return
	}

	if !p.deps.Recorder.Trigger() {
		// 上一段录像尚未结束：本次事件只发送截图
		p.logger.Warn("Recording already in progress, sending alert without video",
			zap.String("event_id", inc.event.ID),
		)
		p.handleIncident(ctx, inc, nil)
		return
	}

	p.pending = inc
	p.logger.Info("Recording fall video",
		zap.String("event_id", inc.event.ID),
		zap.Int("pre_frames", p.deps.Recorder.Params().BufferFrames),
		zap.Int("after_frames", p.deps.Recorder.Params().AfterFrames),
	)
}

// completeIncident 录像完成后发送对应事件的报警
func (p *Pipeline[F]) completeIncident(ctx context.Context, clip *recorder.Clip[F]) {
	inc := p.pending
	p.pending = nil
	if inc == nil {
		p.releaseClip(clip)
		return
	}
	p.handleIncident(ctx, inc, clip)
}

// handleIncident 保存证据并同步发送报警，失败只记录日志
func (p *Pipeline[F]) handleIncident(ctx context.Context, inc *incident[F], clip *recorder.Clip[F]) {
	ts := inc.event.Timestamp

	imagePath, err := p.deps.Evidence.WriteImage(ts, inc.snapshot)
	if err != nil {
		p.logger.Error("Failed to save fall image", zap.String("event_id", inc.event.ID), zap.Error(err))
	}
	p.deps.Frames.Release(inc.snapshot)

	var videoPath string
	if clip != nil {
		videoPath, err = p.deps.Evidence.WriteVideo(ts, clip.Frames)
		if err != nil {
			p.logger.Error("Failed to save fall video", zap.String("event_id", inc.event.ID), zap.Error(err))
		}
		p.releaseClip(clip)
	}

	alert := evidence.BuildAlert(p.opts.DeviceID, inc.event, imagePath, videoPath, p.modelName())

	// 停止时 ctx 已取消，仍然要把在途事件发出去
	if err := p.deps.Notifier.Notify(context.WithoutCancel(ctx), alert); err != nil {
		p.stats.AlertsFailed++
		p.logger.Error("Failed to send fall alert",
			zap.String("event_id", inc.event.ID),
			zap.Error(err),
		)
		return
	}

	p.stats.AlertsSent++
	p.logger.Info("Fall alert sent",
		zap.String("event_id", inc.event.ID),
		zap.String("risk_level", alert.RiskLevel),
		zap.Bool("has_image", alert.HasImage()),
		zap.Bool("has_video", alert.HasVideo()),
	)
}

func (p *Pipeline[F]) releaseClip(clip *recorder.Clip[F]) {
	for _, f := range clip.Frames {
		p.deps.Frames.Release(f)
	}
	clip.Frames = nil
}

func (p *Pipeline[F]) modelName() string {
	if namer, ok := p.deps.Oracle.(modelNamer); ok {
		if name := namer.Model(); name != "" {
			return name
		}
	}
	return p.opts.Model
}

// shutdown 完成在途录像、释放资源并输出最终统计
func (p *Pipeline[F]) shutdown(ctx context.Context) {
	if p.deps.Recorder != nil {
		if clip, ok := p.deps.Recorder.Flush(); ok {
			p.logger.Info("Finishing in-flight recording", zap.Int("frames", clip.Len()))
			p.completeIncident(ctx, &clip)
		}
		p.deps.Recorder.Close()
	}

	if p.deps.Display != nil {
		if err := p.deps.Display.Close(); err != nil {
			p.logger.Warn("Failed to close viewer", zap.Error(err))
		}
	}

	p.logger.Info("Fall detection loop stopped", p.stats.Fields(p.opts.Now())...)
}
