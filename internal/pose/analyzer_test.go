package pose

import (
	"math"
	"testing"

	"wisefido-fallcam/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frameHeight = 480.0

func kp(x, y, conf float64) models.Keypoint {
	return models.Keypoint{X: x, Y: y, Confidence: conf}
}

// standingKeypoints 站立姿态：头在上，髋部在下，躯干竖直
func standingKeypoints() models.Keypoints {
	var kps models.Keypoints
	for i := models.KeypointNose; i <= models.KeypointRightEar; i++ {
		kps[i] = kp(240, 120, 0.9)
	}
	kps[models.KeypointLeftShoulder] = kp(225, 160, 0.9)
	kps[models.KeypointRightShoulder] = kp(255, 160, 0.9)
	kps[models.KeypointLeftHip] = kp(230, 260, 0.9)
	kps[models.KeypointRightHip] = kp(250, 260, 0.9)
	return kps
}

// lyingKeypoints 躺倒姿态：头部与髋部几乎同高，躯干接近水平
func lyingKeypoints() models.Keypoints {
	var kps models.Keypoints
	for i := models.KeypointNose; i <= models.KeypointRightEar; i++ {
		kps[i] = kp(120, 410, 0.9)
	}
	kps[models.KeypointLeftShoulder] = kp(180, 412, 0.9)
	kps[models.KeypointRightShoulder] = kp(180, 418, 0.9)
	kps[models.KeypointLeftHip] = kp(300, 415, 0.9)
	kps[models.KeypointRightHip] = kp(300, 425, 0.9)
	return kps
}

func TestAnalyzer_StandingPerson(t *testing.T) {
	a := NewAnalyzer(DefaultParams())

	result := a.Analyze(standingKeypoints(), models.BoundingBox{X1: 200, Y1: 100, X2: 280, Y2: 400}, frameHeight)

	assert.False(t, result.IsFall)
	assert.Equal(t, 0.0, result.FallScore)
	assert.Equal(t, models.SubScores{}, result.Scores)
	assert.Empty(t, result.Reason)
	assert.InDelta(t, 80.0/300.0, result.Details.AspectRatio, 1e-9)
	assert.InDelta(t, 0.0, result.Details.BodyAngle, 1e-9)
}

func TestAnalyzer_LyingPerson(t *testing.T) {
	a := NewAnalyzer(DefaultParams())
	bbox := models.BoundingBox{X1: 100, Y1: 380, X2: 400, Y2: 460}

	result := a.Analyze(lyingKeypoints(), bbox, frameHeight)

	expectedAngle := math.Atan(120.0/5.0) * 180 / math.Pi
	expected := models.SubScores{
		Aspect:     1.0,
		Position:   (420.0/480.0 - 0.6) / 0.4,
		Horizontal: 1 - (10.0/80.0)/0.3,
		Angle:      (expectedAngle - 60) / 30,
	}

	assert.InDelta(t, expected.Aspect, result.Scores.Aspect, 1e-9)
	assert.InDelta(t, expected.Position, result.Scores.Position, 1e-9)
	assert.InDelta(t, expected.Horizontal, result.Scores.Horizontal, 1e-9)
	assert.InDelta(t, expected.Angle, result.Scores.Angle, 1e-9)
	assert.InDelta(t, expectedAngle, result.Details.BodyAngle, 1e-9)

	expectedScore := 0.35*expected.Aspect + 0.20*expected.Position + 0.25*expected.Horizontal + 0.20*expected.Angle
	assert.InDelta(t, expectedScore, result.FallScore, 1e-9)
	assert.True(t, result.IsFall)
	assert.Equal(t, "Wide bbox; Low position; Horizontal body; Horizontal angle; ", result.Reason)
}

func TestAnalyzer_WideBoxWithoutKeypoints(t *testing.T) {
	a := NewAnalyzer(DefaultParams())

	// width=400, height=40 → ratio=10
	result := a.Analyze(models.Keypoints{}, models.BoundingBox{X1: 0, Y1: 300, X2: 400, Y2: 340}, frameHeight)

	assert.Equal(t, 1.0, result.Scores.Aspect)
	assert.Equal(t, 0.0, result.Scores.Horizontal)
	assert.Equal(t, 0.0, result.Scores.Angle)
	// 中心高度 320/480 略高于 0.6，位置信号只贡献很小的一部分
	assert.InDelta(t, (320.0/480.0-0.6)/0.4, result.Scores.Position, 1e-9)
	assert.InDelta(t, 0.35+0.20*result.Scores.Position, result.FallScore, 1e-9)
	assert.Less(t, result.FallScore, 0.6)
	assert.False(t, result.IsFall)
	assert.Equal(t, "Wide bbox; Low position; ", result.Reason)
}

func TestAnalyzer_AspectBelowThresholdIsZero(t *testing.T) {
	a := NewAnalyzer(DefaultParams())

	for _, width := range []float64{0, 10, 50, 99.9, 149, 150} {
		result := a.Analyze(models.Keypoints{}, models.BoundingBox{X1: 0, Y1: 0, X2: width, Y2: 100}, frameHeight)
		assert.Equal(t, 0.0, result.Scores.Aspect, "width=%v", width)
	}
}

func TestAnalyzer_ZeroHeightBox(t *testing.T) {
	a := NewAnalyzer(DefaultParams())

	result := a.Analyze(lyingKeypoints(), models.BoundingBox{X1: 0, Y1: 470, X2: 400, Y2: 470}, frameHeight)

	assert.Equal(t, 0.0, result.Scores.Aspect)
	assert.Equal(t, 0.0, result.Scores.Position)
	assert.Equal(t, 0.0, result.Scores.Horizontal)
	// 角度只依赖关键点
	assert.Greater(t, result.Scores.Angle, 0.0)
}

func TestAnalyzer_InvalidFrameHeight(t *testing.T) {
	a := NewAnalyzer(DefaultParams())
	bbox := models.BoundingBox{X1: 100, Y1: 380, X2: 400, Y2: 460}

	for _, h := range []float64{0, -480, math.Inf(1)} {
		result := a.Analyze(models.Keypoints{}, bbox, h)
		assert.Equal(t, 0.0, result.Scores.Position, "frame_height=%v", h)
	}
}

func TestAnalyzer_LowConfidenceKeypointsIgnored(t *testing.T) {
	a := NewAnalyzer(DefaultParams())
	kps := lyingKeypoints()
	for i := range kps {
		kps[i].Confidence = 0.3 // 等于阈值也不算有效
	}

	result := a.Analyze(kps, models.BoundingBox{X1: 100, Y1: 380, X2: 400, Y2: 460}, frameHeight)

	assert.Equal(t, 0.0, result.Scores.Horizontal)
	assert.Equal(t, 0.0, result.Scores.Angle)
	assert.NotContains(t, result.Reason, "Horizontal")
}

func TestAnalyzer_NaNKeypointsDegradeToZero(t *testing.T) {
	a := NewAnalyzer(DefaultParams())
	kps := lyingKeypoints()
	kps[models.KeypointLeftHip] = kp(math.NaN(), math.NaN(), 0.9)
	kps[models.KeypointRightHip] = kp(300, math.Inf(1), math.NaN())

	var result models.AnalysisResult
	require.NotPanics(t, func() {
		result = a.Analyze(kps, models.BoundingBox{X1: 100, Y1: 380, X2: 400, Y2: 460}, frameHeight)
	})

	assert.Equal(t, 0.0, result.Scores.Horizontal)
	assert.Equal(t, 0.0, result.Scores.Angle)
	assert.False(t, math.IsNaN(result.FallScore))
}

func TestAnalyzer_MinGroupKeypoints(t *testing.T) {
	p := DefaultParams()
	p.MinGroupKeypoints = 2
	a := NewAnalyzer(p)

	kps := lyingKeypoints()
	kps[models.KeypointRightHip].Confidence = 0.1 // 只剩一个髋部关键点

	result := a.Analyze(kps, models.BoundingBox{X1: 100, Y1: 380, X2: 400, Y2: 460}, frameHeight)

	assert.Equal(t, 0.0, result.Scores.Horizontal)
	assert.Equal(t, 0.0, result.Scores.Angle)

	// 默认参数下一个髋部关键点就足够
	result = NewAnalyzer(DefaultParams()).Analyze(kps, models.BoundingBox{X1: 100, Y1: 380, X2: 400, Y2: 460}, frameHeight)
	assert.Greater(t, result.Scores.Horizontal, 0.0)
}

func TestAnalyzer_VerticalDeltaZeroHasNoAngle(t *testing.T) {
	a := NewAnalyzer(DefaultParams())
	kps := lyingKeypoints()
	kps[models.KeypointLeftShoulder] = kp(180, 420, 0.9)
	kps[models.KeypointRightShoulder] = kp(180, 420, 0.9)

	result := a.Analyze(kps, models.BoundingBox{X1: 100, Y1: 380, X2: 400, Y2: 460}, frameHeight)

	assert.Equal(t, 0.0, result.Scores.Angle)
	assert.Equal(t, 0.0, result.Details.BodyAngle)
}

func TestAnalyzer_ThresholdBoundary(t *testing.T) {
	p := DefaultParams()
	p.Weights = Weights{Aspect: 1.0}
	p.FallScoreThreshold = 0.5
	a := NewAnalyzer(p)

	// ratio = 2.0 → aspect = 0.5 → 恰好等于阈值
	result := a.Analyze(models.Keypoints{}, models.BoundingBox{X1: 0, Y1: 0, X2: 200, Y2: 100}, frameHeight)

	assert.InDelta(t, 0.5, result.FallScore, 1e-12)
	assert.True(t, result.IsFall)
}

func TestFuse_WeightedDotProduct(t *testing.T) {
	weights := [4]float64{0.35, 0.20, 0.25, 0.20}
	values := []float64{0, 0.1, 0.25, 0.5, 0.75, 1}

	for _, a := range values {
		for _, p := range values {
			for _, h := range values {
				for _, g := range values {
					s := models.SubScores{Aspect: a, Position: p, Horizontal: h, Angle: g}
					got := Fuse(s, weights)
					want := a*0.35 + p*0.20 + h*0.25 + g*0.20
					assert.InDelta(t, want, got, 1e-12)
					assert.GreaterOrEqual(t, got, 0.0)
					assert.LessOrEqual(t, got, 1.0+1e-12)
				}
			}
		}
	}
}

func TestParams_Validate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	p := DefaultParams()
	p.Weights.Angle = 0.5
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights must sum to 1.0")

	p = DefaultParams()
	p.HeightRatioThreshold = 1
	assert.Error(t, p.Validate())

	p = DefaultParams()
	p.MinGroupKeypoints = 0
	assert.Error(t, p.Validate())

	p = DefaultParams()
	p.Weights = Weights{Aspect: 1.2, Position: -0.2}
	assert.Error(t, p.Validate())
}
