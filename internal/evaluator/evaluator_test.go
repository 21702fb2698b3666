package evaluator

import (
	"testing"

	"wisefido-fallcam/internal/models"
	"wisefido-fallcam/internal/pose"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// confidenceScorer 按鼻子关键点置信度决定是否跌倒（>= 0.9 视为跌倒）
type confidenceScorer struct {
	calls int
}

func (c *confidenceScorer) Analyze(kps models.Keypoints, _ models.BoundingBox, _ float64) models.AnalysisResult {
	c.calls++
	isFall := kps[0].Confidence >= 0.9
	score := 0.2
	if isFall {
		score = 0.8
	}
	return models.AnalysisResult{IsFall: isFall, FallScore: score}
}

func observation(fall bool) models.PoseObservation {
	var kps models.Keypoints
	if fall {
		kps[0].Confidence = 0.95
	}
	return models.PoseObservation{Keypoints: kps, Confidence: 0.8}
}

func TestStateMachine_ConfirmAfterDuration(t *testing.T) {
	m := NewStateMachine(DefaultParams())

	for i := 1; i < 15; i++ {
		require.False(t, m.BeginFrame())
		require.False(t, m.Observe(true), "frame %d", i)
		assert.Equal(t, i, m.State().ConsecutivePositiveFrames)
	}

	require.False(t, m.BeginFrame())
	assert.True(t, m.Observe(true))
	assert.Equal(t, models.DetectionState{ConsecutivePositiveFrames: 0, CooldownRemaining: 150}, m.State())
	assert.True(t, m.State().InCooldown())
}

func TestStateMachine_CooldownSuppression(t *testing.T) {
	m := NewStateMachine(Params{FallDurationFrames: 3, CooldownFrames: 10})

	events := 0
	for i := 0; i < 3; i++ {
		m.BeginFrame()
		if m.Observe(true) {
			events++
		}
	}
	require.Equal(t, 1, events)

	for i := 0; i < 10; i++ {
		assert.True(t, m.BeginFrame(), "cooldown frame %d", i)
		assert.False(t, m.Observe(true))
	}
	assert.Equal(t, 0, m.State().CooldownRemaining)
	assert.Equal(t, 0, m.State().ConsecutivePositiveFrames)

	assert.False(t, m.BeginFrame())
}

func TestStateMachine_DecayNotReset(t *testing.T) {
	m := NewStateMachine(DefaultParams())

	for i := 0; i < 10; i++ {
		m.Observe(true)
	}
	m.Observe(false)
	assert.Equal(t, 9, m.State().ConsecutivePositiveFrames)

	for i := 0; i < 20; i++ {
		m.Observe(false)
	}
	assert.Equal(t, 0, m.State().ConsecutivePositiveFrames)
}

func TestStateMachine_AlternatingNeverConfirms(t *testing.T) {
	patterns := map[string][]bool{
		"true_false":  {true, false},
		"seven_seven": {true, true, true, true, true, true, true, false, false, false, false, false, false, false},
	}

	for name, pattern := range patterns {
		t.Run(name, func(t *testing.T) {
			m := NewStateMachine(DefaultParams())
			for i := 0; i < 3000; i++ {
				m.BeginFrame()
				require.False(t, m.Observe(pattern[i%len(pattern)]), "frame %d", i)
			}
		})
	}
}

func TestStateMachine_FlickerTolerated(t *testing.T) {
	m := NewStateMachine(DefaultParams())

	// 14 帧阳性 + 1 帧抖动：计数只衰减到 13，下一轮第 2 帧确认
	pattern := append(repeat(true, 14), false)
	confirmedAt := -1
	for i := 0; i < 2*len(pattern); i++ {
		m.BeginFrame()
		if m.Observe(pattern[i%len(pattern)]) {
			confirmedAt = i + 1
			break
		}
	}
	assert.Equal(t, 17, confirmedAt)
}

func TestStateMachine_AbsentResets(t *testing.T) {
	m := NewStateMachine(DefaultParams())

	for i := 0; i < 14; i++ {
		m.Observe(true)
	}
	m.Absent()
	assert.Equal(t, 0, m.State().ConsecutivePositiveFrames)

	for i := 0; i < 14; i++ {
		require.False(t, m.Observe(true))
	}
	assert.True(t, m.Observe(true))
}

func TestStateMachine_ZeroCooldown(t *testing.T) {
	m := NewStateMachine(Params{FallDurationFrames: 1, CooldownFrames: 0})

	for i := 0; i < 5; i++ {
		assert.False(t, m.BeginFrame())
		assert.True(t, m.Observe(true))
	}
}

func TestStateMachine_Reset(t *testing.T) {
	m := NewStateMachine(Params{FallDurationFrames: 1, CooldownFrames: 30})
	require.True(t, m.Observe(true))

	m.Reset()

	assert.Equal(t, models.DetectionState{}, m.State())
	assert.False(t, m.BeginFrame())
}

func TestParams_Validate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
	assert.Error(t, Params{FallDurationFrames: 0, CooldownFrames: 10}.Validate())
	assert.Error(t, Params{FallDurationFrames: 5, CooldownFrames: -1}.Validate())
}

// 场景：15 帧 fall_score=0.8 → 第 15 帧确认，随后 150 帧被抑制，第 166 帧恢复
func TestEvaluator_EndToEndCooldownScenario(t *testing.T) {
	scorer := &confidenceScorer{}
	e := NewEvaluator(scorer, Params{FallDurationFrames: 15, CooldownFrames: 150}, zap.NewNop())

	var eventFrames, suppressedFrames []int
	for frame := 1; frame <= 180; frame++ {
		if e.BeginFrame() {
			suppressedFrames = append(suppressedFrames, frame)
			continue
		}
		v := e.Evaluate([]models.PoseObservation{observation(true)}, 480)
		if v.Confirmed() {
			eventFrames = append(eventFrames, frame)
			assert.InDelta(t, 0.8, v.Trigger.Analysis.FallScore, 1e-9)
			assert.Equal(t, 150, v.State.CooldownRemaining)
		}
	}

	require.NotEmpty(t, eventFrames)
	assert.Equal(t, 15, eventFrames[0])
	require.Len(t, suppressedFrames, 150)
	assert.Equal(t, 16, suppressedFrames[0])
	assert.Equal(t, 165, suppressedFrames[len(suppressedFrames)-1])
	// 第 166 帧恢复正常，再过 15 帧产生第二个事件
	assert.Equal(t, []int{15, 180}, eventFrames)
}

func TestEvaluator_StopsAtFirstConfirmingObservation(t *testing.T) {
	scorer := &confidenceScorer{}
	e := NewEvaluator(scorer, Params{FallDurationFrames: 2, CooldownFrames: 5}, zap.NewNop())

	v := e.Evaluate([]models.PoseObservation{observation(true)}, 480)
	require.False(t, v.Confirmed())

	scorer.calls = 0
	v = e.Evaluate([]models.PoseObservation{observation(true), observation(true), observation(true)}, 480)

	require.True(t, v.Confirmed())
	assert.Equal(t, 1, scorer.calls)
	assert.Len(t, v.Scored, 1)
	assert.Equal(t, 5, v.State.CooldownRemaining)
}

func TestEvaluator_PeopleShareOneCounter(t *testing.T) {
	scorer := &confidenceScorer{}
	e := NewEvaluator(scorer, Params{FallDurationFrames: 4, CooldownFrames: 5}, zap.NewNop())

	// 一人跌倒、一人站立：每帧 +1 -1，计数不增长
	for i := 0; i < 50; i++ {
		e.BeginFrame()
		v := e.Evaluate([]models.PoseObservation{observation(true), observation(false)}, 480)
		require.False(t, v.Confirmed())
		assert.Len(t, v.Scored, 2)
	}
	assert.Equal(t, 0, e.State().ConsecutivePositiveFrames)
}

func TestEvaluator_NoPersonResetsCounter(t *testing.T) {
	e := NewEvaluator(&confidenceScorer{}, DefaultParams(), zap.NewNop())

	for i := 0; i < 10; i++ {
		e.Evaluate([]models.PoseObservation{observation(true)}, 480)
	}
	require.Equal(t, 10, e.State().ConsecutivePositiveFrames)

	v := e.Evaluate(nil, 480)

	assert.False(t, v.Confirmed())
	assert.Empty(t, v.Scored)
	assert.Equal(t, 0, v.State.ConsecutivePositiveFrames)
}

func TestEvaluator_WithPoseAnalyzer(t *testing.T) {
	e := NewEvaluator(pose.NewAnalyzer(pose.DefaultParams()), Params{FallDurationFrames: 3, CooldownFrames: 10}, zap.NewNop())

	// 宽扁且无关键点的框：分数低于阈值，不会确认
	wide := models.PoseObservation{BBox: models.BoundingBox{X1: 0, Y1: 300, X2: 400, Y2: 340}, Confidence: 0.9}
	for i := 0; i < 10; i++ {
		e.BeginFrame()
		v := e.Evaluate([]models.PoseObservation{wide}, 480)
		require.False(t, v.Confirmed())
		require.Len(t, v.Scored, 1)
		assert.False(t, v.Scored[0].Analysis.IsFall)
	}
}

func repeat(v bool, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = v
	}
	return out
}
