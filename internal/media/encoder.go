package media

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// Encoder 基于 OpenCV 的截图与录像编码
type Encoder struct {
	// Codec 录像 fourcc，如 "mp4v"
	Codec string
}

// NewEncoder 创建编码器
func NewEncoder(codec string) *Encoder {
	return &Encoder{Codec: codec}
}

// WriteImage 保存 JPEG 截图
func (e *Encoder) WriteImage(path string, frame gocv.Mat) error {
	if frame.Empty() {
		return errors.New("empty frame")
	}
	if ok := gocv.IMWrite(path, frame); !ok {
		return fmt.Errorf("imwrite failed: %s", path)
	}
	return nil
}

// WriteVideo 按帧率写出录像，分辨率取第一帧
func (e *Encoder) WriteVideo(path string, frames []gocv.Mat, fps float64) error {
	if len(frames) == 0 {
		return errors.New("no frames")
	}
	first := frames[0]

	writer, err := gocv.VideoWriterFile(path, e.Codec, fps, first.Cols(), first.Rows(), true)
	if err != nil {
		return fmt.Errorf("failed to open video writer: %w", err)
	}
	defer writer.Close()

	if !writer.IsOpened() {
		return fmt.Errorf("video writer is not opened: %s", path)
	}

	for i, f := range frames {
		if f.Empty() {
			continue
		}
		if err := writer.Write(f); err != nil {
			return fmt.Errorf("failed to write frame %d: %w", i, err)
		}
	}
	return nil
}
