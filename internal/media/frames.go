package media

import (
	"fmt"

	"gocv.io/x/gocv"
)

// MatOps Mat 的复制与释放
type MatOps struct{}

// Clone 深拷贝
func (MatOps) Clone(m gocv.Mat) gocv.Mat {
	return m.Clone()
}

// Release 关闭 Mat
func (MatOps) Release(m gocv.Mat) {
	m.Close()
}

// Height 帧高度（像素）
func (MatOps) Height(m gocv.Mat) float64 {
	return float64(m.Rows())
}

// EncodeJPEG 把帧编码为 JPEG
func EncodeJPEG(m gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	defer buf.Close()

	// NativeByteBuffer 关闭后内存失效，需要复制
	return append([]byte(nil), buf.GetBytes()...), nil
}
