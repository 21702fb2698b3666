package media

import (
	"wisefido-fallcam/internal/pipeline"

	"gocv.io/x/gocv"
)

// Viewer 调试窗口
type Viewer struct {
	window *gocv.Window
}

// NewViewer 打开调试窗口
func NewViewer(title string) *Viewer {
	return &Viewer{window: gocv.NewWindow(title)}
}

// Show 在帧的副本上绘制叠加信息并显示，返回按键
func (v *Viewer) Show(frame gocv.Mat, overlay pipeline.Overlay) int {
	display := frame.Clone()
	defer display.Close()

	DrawOverlay(&display, overlay)
	v.window.IMShow(display)

	key := v.window.WaitKey(1)
	if key < 0 {
		return pipeline.KeyNone
	}
	return key & 0xff
}

// Close 关闭窗口
func (v *Viewer) Close() error {
	return v.window.Close()
}
