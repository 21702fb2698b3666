package media

import (
	"fmt"
	"image"
	"image/color"

	"wisefido-fallcam/internal/models"
	"wisefido-fallcam/internal/pipeline"

	"gocv.io/x/gocv"
)

var (
	colorNormal = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	colorFall   = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	colorJoint  = color.RGBA{R: 0, G: 255, B: 255, A: 0}
	colorLimb   = color.RGBA{R: 255, G: 128, B: 0, A: 0}
	colorText   = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	colorWarn   = color.RGBA{R: 255, G: 165, B: 0, A: 0}
)

// skeleton COCO 骨架连线（关键点下标成对出现）
var skeleton = [][2]int{
	{15, 13}, {13, 11}, {16, 14}, {14, 12}, {11, 12},
	{5, 11}, {6, 12}, {5, 6}, {5, 7}, {6, 8}, {7, 9}, {8, 10},
	{1, 2}, {0, 1}, {0, 2}, {1, 3}, {2, 4}, {3, 5}, {4, 6},
}

// 绘制关键点的最低置信度
const drawKeypointConfidence = 0.3

// DrawOverlay 在图像上绘制检测框、骨架和状态信息
func DrawOverlay(img *gocv.Mat, overlay pipeline.Overlay) {
	for _, s := range overlay.Scored {
		clr := colorNormal
		if s.Analysis.IsFall {
			clr = colorFall
		}

		box := s.Observation.BBox
		rect := image.Rect(int(box.X1), int(box.Y1), int(box.X2), int(box.Y2))
		gocv.Rectangle(img, rect, clr, 2)
		gocv.PutText(img, fmt.Sprintf("Fall Score: %.2f", s.Analysis.FallScore),
			image.Pt(rect.Min.X, rect.Min.Y-10), gocv.FontHersheySimplex, 0.6, clr, 2)

		drawSkeleton(img, s.Observation.Keypoints)
	}

	y := 30
	if overlay.ShowFPS {
		gocv.PutText(img, fmt.Sprintf("FPS: %.1f", overlay.FPS),
			image.Pt(10, y), gocv.FontHersheySimplex, 0.7, colorText, 2)
		y += 30
	}

	if n := overlay.State.ConsecutivePositiveFrames; n > 0 {
		gocv.PutText(img, fmt.Sprintf("Fall Suspicion: %d/%d", n, overlay.FallDurationFrames),
			image.Pt(10, y), gocv.FontHersheySimplex, 0.7, colorWarn, 2)
		y += 30
	}

	if overlay.State.InCooldown() {
		gocv.PutText(img, fmt.Sprintf("Cooldown: %d", overlay.State.CooldownRemaining),
			image.Pt(10, y), gocv.FontHersheySimplex, 0.7, colorText, 2)
	}

	if overlay.Confirmed {
		gocv.PutText(img, "FALL DETECTED!", image.Pt(10, img.Rows()-20),
			gocv.FontHersheyDuplex, 1.2, colorFall, 3)
	}
}

func drawSkeleton(img *gocv.Mat, kps models.Keypoints) {
	visible := func(i int) bool {
		kp := kps[i]
		return kp.Finite() && kp.Confidence > drawKeypointConfidence
	}

	for _, pair := range skeleton {
		if !visible(pair[0]) || !visible(pair[1]) {
			continue
		}
		a, b := kps[pair[0]], kps[pair[1]]
		gocv.Line(img, image.Pt(int(a.X), int(a.Y)), image.Pt(int(b.X), int(b.Y)), colorLimb, 2)
	}

	for i := range kps {
		if !visible(i) {
			continue
		}
		gocv.Circle(img, image.Pt(int(kps[i].X), int(kps[i].Y)), 3, colorJoint, -1)
	}
}
