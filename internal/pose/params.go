package pose

import (
	"fmt"
	"math"
)

// Weights 各信号融合权重（默认合计 1.0）
type Weights struct {
	Aspect     float64
	Position   float64
	Horizontal float64
	Angle      float64
}

// Sum 权重之和
func (w Weights) Sum() float64 {
	return w.Aspect + w.Position + w.Horizontal + w.Angle
}

// Params 姿态评分参数（不可变值，构造时传入）
type Params struct {
	// AspectRatioThreshold 边界框宽高比阈值，超过视为横躺
	AspectRatioThreshold float64
	// HeightRatioThreshold 边界框中心高度阈值，中心低于 1-阈值 视为位置偏低
	HeightRatioThreshold float64
	// HorizontalThreshold 头部与髋部垂直距离 / 边界框高度 的阈值
	HorizontalThreshold float64
	// BodyAngleThreshold 躯干与竖直方向夹角阈值（度）
	BodyAngleThreshold float64
	// KeypointConfidence 关键点置信度下限，低于等于该值的关键点不参与计算
	KeypointConfidence float64
	// MinGroupKeypoints 一组关键点至少需要的有效点数，不足则该组无定义
	MinGroupKeypoints int
	// Weights 融合权重
	Weights Weights
	// FallScoreThreshold 判定为跌倒的最低分数
	FallScoreThreshold float64
}

// DefaultParams 默认参数：
// - 宽高比阈值 1.5
// - 位置阈值 0.4（中心高度超过 0.6 触发）
// - 水平阈值 0.3
// - 躯干角度阈值 60 度
// - 关键点置信度 0.3
// - 权重 0.35 / 0.20 / 0.25 / 0.20
// - 跌倒分数阈值 0.6
func DefaultParams() Params {
	return Params{
		AspectRatioThreshold: 1.5,
		HeightRatioThreshold: 0.4,
		HorizontalThreshold:  0.3,
		BodyAngleThreshold:   60,
		KeypointConfidence:   0.3,
		MinGroupKeypoints:    1,
		Weights: Weights{
			Aspect:     0.35,
			Position:   0.20,
			Horizontal: 0.25,
			Angle:      0.20,
		},
		FallScoreThreshold: 0.6,
	}
}

// Validate 检查参数合法性
func (p Params) Validate() error {
	if p.AspectRatioThreshold <= 0 {
		return fmt.Errorf("aspect_ratio_threshold must be positive, got %v", p.AspectRatioThreshold)
	}
	if p.HeightRatioThreshold <= 0 || p.HeightRatioThreshold >= 1 {
		return fmt.Errorf("height_ratio_threshold must be in (0,1), got %v", p.HeightRatioThreshold)
	}
	if p.HorizontalThreshold <= 0 {
		return fmt.Errorf("horizontal_threshold must be positive, got %v", p.HorizontalThreshold)
	}
	if p.BodyAngleThreshold < 0 || p.BodyAngleThreshold >= 90 {
		return fmt.Errorf("body_angle_threshold must be in [0,90), got %v", p.BodyAngleThreshold)
	}
	if p.MinGroupKeypoints < 1 {
		return fmt.Errorf("min_group_keypoints must be at least 1, got %d", p.MinGroupKeypoints)
	}
	for name, w := range map[string]float64{
		"aspect":     p.Weights.Aspect,
		"position":   p.Weights.Position,
		"horizontal": p.Weights.Horizontal,
		"angle":      p.Weights.Angle,
	} {
		if w < 0 {
			return fmt.Errorf("weight %s must not be negative, got %v", name, w)
		}
	}
	if math.Abs(p.Weights.Sum()-1.0) > 1e-6 {
		return fmt.Errorf("weights must sum to 1.0, got %v", p.Weights.Sum())
	}
	if p.FallScoreThreshold <= 0 || p.FallScoreThreshold > 1 {
		return fmt.Errorf("fall_score_threshold must be in (0,1], got %v", p.FallScoreThreshold)
	}
	return nil
}
