package models

import "math"

// COCO 17 关键点索引（顺序固定，与姿态模型输出一致）
const (
	KeypointNose = iota
	KeypointLeftEye
	KeypointRightEye
	KeypointLeftEar
	KeypointRightEar
	KeypointLeftShoulder
	KeypointRightShoulder
	KeypointLeftElbow
	KeypointRightElbow
	KeypointLeftWrist
	KeypointRightWrist
	KeypointLeftHip
	KeypointRightHip
	KeypointLeftKnee
	KeypointRightKnee
	KeypointLeftAnkle
	KeypointRightAnkle

	// KeypointCount 每个人的关键点数量
	KeypointCount
)

// Keypoint 单个关键点（像素坐标 + 置信度）
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// Finite 坐标和置信度都是有限值
func (k Keypoint) Finite() bool {
	return !math.IsNaN(k.X) && !math.IsInf(k.X, 0) &&
		!math.IsNaN(k.Y) && !math.IsInf(k.Y, 0) &&
		!math.IsNaN(k.Confidence) && !math.IsInf(k.Confidence, 0)
}

// Keypoints 一个人的全部关键点
type Keypoints [KeypointCount]Keypoint

// BoundingBox 边界框（帧像素坐标），要求 X2>=X1, Y2>=Y1
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

func (b BoundingBox) Width() float64   { return b.X2 - b.X1 }
func (b BoundingBox) Height() float64  { return b.Y2 - b.Y1 }
func (b BoundingBox) CenterY() float64 { return (b.Y1 + b.Y2) / 2 }

// Valid 坐标有限且不倒置
func (b BoundingBox) Valid() bool {
	for _, v := range [4]float64{b.X1, b.Y1, b.X2, b.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.X2 >= b.X1 && b.Y2 >= b.Y1
}

// PoseObservation 单帧中检测到的一个人（只在当前帧内有效）
type PoseObservation struct {
	BBox       BoundingBox `json:"bbox"`
	Keypoints  Keypoints   `json:"keypoints"`
	Confidence float64     `json:"confidence"`
}
