package pose

import (
	"math"
	"strings"

	"wisefido-fallcam/internal/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// 关键点分组
var (
	headGroup     = []int{models.KeypointNose, models.KeypointLeftEye, models.KeypointRightEye, models.KeypointLeftEar, models.KeypointRightEar}
	shoulderGroup = []int{models.KeypointLeftShoulder, models.KeypointRightShoulder}
	hipGroup      = []int{models.KeypointLeftHip, models.KeypointRightHip}
)

// 原因片段
const (
	reasonWideBBox        = "Wide bbox; "
	reasonLowPosition     = "Low position; "
	reasonHorizontalBody  = "Horizontal body; "
	reasonHorizontalAngle = "Horizontal angle; "
)

// Analyzer 姿态分析器：关键点 + 边界框 → 跌倒评分
// 纯函数，无状态，可并发使用
type Analyzer struct {
	params  Params
	weights [4]float64
}

// NewAnalyzer 创建姿态分析器
func NewAnalyzer(p Params) *Analyzer {
	return &Analyzer{
		params:  p,
		weights: [4]float64{p.Weights.Aspect, p.Weights.Position, p.Weights.Horizontal, p.Weights.Angle},
	}
}

// Params 返回分析器参数
func (a *Analyzer) Params() Params {
	return a.params
}

// Analyze 分析单个人的姿态
func (a *Analyzer) Analyze(kps models.Keypoints, bbox models.BoundingBox, frameHeight float64) models.AnalysisResult {
	var (
		result  models.AnalysisResult
		reasons strings.Builder
	)

	bboxValid := bbox.Valid() && bbox.Height() > 0
	bboxHeight := bbox.Height()

	// 1. 宽高比
	if bboxValid {
		ratio := bbox.Width() / bboxHeight
		result.Details.AspectRatio = ratio
		if ratio > a.params.AspectRatioThreshold {
			result.Scores.Aspect = clamp01((ratio - a.params.AspectRatioThreshold) / 1.0)
		}
	}

	// 2. 位置偏低
	if bboxValid && frameHeight > 0 && !math.IsInf(frameHeight, 0) {
		heightRatio := bbox.CenterY() / frameHeight
		result.Details.HeightRatio = heightRatio
		trigger := 1 - a.params.HeightRatioThreshold
		if heightRatio > trigger {
			result.Scores.Position = clamp01((heightRatio - trigger) / a.params.HeightRatioThreshold)
		}
	}

	// 3. 身体水平（头部与髋部几乎同高）
	headY, headOK := a.groupMean(kps, headGroup, axisY)
	hipY, hipOK := a.groupMean(kps, hipGroup, axisY)
	if bboxValid && headOK && hipOK {
		horizontalRatio := math.Abs(hipY-headY) / bboxHeight
		result.Details.HorizontalRatio = horizontalRatio
		if horizontalRatio < a.params.HorizontalThreshold {
			result.Scores.Horizontal = clamp01(1 - horizontalRatio/a.params.HorizontalThreshold)
		}
	}

	// 4. 躯干角度（肩部中点与髋部中点连线相对竖直方向）
	if angle, ok := a.bodyAngle(kps); ok {
		result.Details.BodyAngle = angle
		if angle > a.params.BodyAngleThreshold {
			result.Scores.Angle = clamp01((angle - a.params.BodyAngleThreshold) / 30.0)
		}
	}

	if result.Scores.Aspect > 0 {
		reasons.WriteString(reasonWideBBox)
	}
	if result.Scores.Position > 0 {
		reasons.WriteString(reasonLowPosition)
	}
	if result.Scores.Horizontal > 0 {
		reasons.WriteString(reasonHorizontalBody)
	}
	if result.Scores.Angle > 0 {
		reasons.WriteString(reasonHorizontalAngle)
	}

	// 5. 加权融合
	result.FallScore = Fuse(result.Scores, a.weights)
	result.Reason = reasons.String()

	// 6. 判定
	result.IsFall = result.FallScore >= a.params.FallScoreThreshold

	return result
}

// Fuse 分项得分与权重的点积
func Fuse(s models.SubScores, weights [4]float64) float64 {
	scores := []float64{s.Aspect, s.Position, s.Horizontal, s.Angle}
	return floats.Dot(scores, weights[:])
}

func (a *Analyzer) bodyAngle(kps models.Keypoints) (float64, bool) {
	shoulderX, ok1 := a.groupMean(kps, shoulderGroup, axisX)
	shoulderY, ok2 := a.groupMean(kps, shoulderGroup, axisY)
	hipX, ok3 := a.groupMean(kps, hipGroup, axisX)
	hipY, ok4 := a.groupMean(kps, hipGroup, axisY)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return 0, false
	}

	dx := math.Abs(shoulderX - hipX)
	dy := math.Abs(shoulderY - hipY)
	if dy == 0 {
		return 0, false
	}
	return math.Atan(dx/dy) * 180 / math.Pi, true
}

type axis int

const (
	axisX axis = iota
	axisY
)

// groupMean 计算一组关键点在某个坐标轴上的平均值
// 置信度不足或坐标非有限值的关键点被忽略，有效点不足时返回 false
func (a *Analyzer) groupMean(kps models.Keypoints, indices []int, ax axis) (float64, bool) {
	values := make([]float64, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(kps) {
			continue
		}
		kp := kps[idx]
		if !kp.Finite() || kp.Confidence <= a.params.KeypointConfidence {
			continue
		}
		if ax == axisX {
			values = append(values, kp.X)
		} else {
			values = append(values, kp.Y)
		}
	}

	if len(values) == 0 || len(values) < a.params.MinGroupKeypoints {
		return 0, false
	}
	return stat.Mean(values, nil), true
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
