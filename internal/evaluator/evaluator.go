package evaluator

import (
	"wisefido-fallcam/internal/models"
	"wisefido-fallcam/internal/pose"

	"go.uber.org/zap"
)

// Scorer 单人姿态评分（由 pose.Analyzer 实现）
type Scorer interface {
	Analyze(kps models.Keypoints, bbox models.BoundingBox, frameHeight float64) models.AnalysisResult
}

var _ Scorer = (*pose.Analyzer)(nil)

// Scored 一个检测结果及其评分
type Scored struct {
	Observation models.PoseObservation
	Analysis    models.AnalysisResult
}

// Verdict 一帧的判定结果
type Verdict struct {
	// Scored 本帧已评分的检测（确认事件后不再评分后续检测）
	Scored []Scored
	// Trigger 确认跌倒的检测，nil 表示本帧没有事件
	Trigger *Scored
	// State 判定后的状态快照
	State models.DetectionState
}

// Confirmed 本帧是否确认了跌倒事件
func (v Verdict) Confirmed() bool {
	return v.Trigger != nil
}

// Evaluator 跌倒评估器（评分 + 时间判定）
type Evaluator struct {
	scorer  Scorer
	machine *StateMachine
	logger  *zap.Logger
}

// NewEvaluator 创建评估器
func NewEvaluator(scorer Scorer, p Params, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		scorer:  scorer,
		machine: NewStateMachine(p),
		logger:  logger,
	}
}

// BeginFrame 每帧开始时调用，返回 true 表示处于冷却期（本帧可跳过推理）
func (e *Evaluator) BeginFrame() bool {
	return e.machine.BeginFrame()
}

// Evaluate 评估一帧内的所有检测
// 按顺序评分并输入状态机，第一个确认事件的检测之后停止（每帧最多一个事件）
func (e *Evaluator) Evaluate(observations []models.PoseObservation, frameHeight float64) Verdict {
	if len(observations) == 0 {
		e.machine.Absent()
		return Verdict{State: e.machine.State()}
	}

	verdict := Verdict{Scored: make([]Scored, 0, len(observations))}
	for _, obs := range observations {
		analysis := e.scorer.Analyze(obs.Keypoints, obs.BBox, frameHeight)
		verdict.Scored = append(verdict.Scored, Scored{Observation: obs, Analysis: analysis})

		if e.machine.Observe(analysis.IsFall) {
			trigger := verdict.Scored[len(verdict.Scored)-1]
			verdict.Trigger = &trigger

			e.logger.Warn("Fall confirmed",
				zap.Float64("fall_score", analysis.FallScore),
				zap.Float64("confidence", obs.Confidence),
				zap.String("reason", analysis.Reason),
			)
			break
		}
	}

	verdict.State = e.machine.State()
	return verdict
}

// State 当前状态快照
func (e *Evaluator) State() models.DetectionState {
	return e.machine.State()
}

// Reset 清空状态
func (e *Evaluator) Reset() {
	e.machine.Reset()
}

// Params 时间判定参数
func (e *Evaluator) Params() Params {
	return e.machine.Params()
}
