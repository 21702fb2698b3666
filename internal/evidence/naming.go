package evidence

import (
	"path/filepath"
	"time"
)

// 文件名时间格式：YYYYMMDD_HHMMSS
const fileTimeLayout = "20060102_150405"

// ImageName 事件截图文件名 fall_<YYYYMMDD_HHMMSS>.jpg
func ImageName(ts time.Time) string {
	return "fall_" + ts.Format(fileTimeLayout) + ".jpg"
}

// VideoName 事件录像文件名 fall_<YYYYMMDD_HHMMSS>.mp4
func VideoName(ts time.Time) string {
	return "fall_" + ts.Format(fileTimeLayout) + ".mp4"
}

// ImagePath 截图完整路径
func ImagePath(dir string, ts time.Time) string {
	return filepath.Join(dir, ImageName(ts))
}

// VideoPath 录像完整路径
func VideoPath(dir string, ts time.Time) string {
	return filepath.Join(dir, VideoName(ts))
}
