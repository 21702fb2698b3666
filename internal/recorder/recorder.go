package recorder

import (
	"fmt"
)

// Params 录像窗口参数（单位：帧）
type Params struct {
	// BufferFrames 事件前保留的帧数（环形缓冲容量）
	BufferFrames int
	// AfterFrames 事件后继续录制的帧数（包含确认事件的那一帧）
	AfterFrames int
}

// ParamsFromSeconds 按秒数和帧率换算窗口参数
func ParamsFromSeconds(fps float64, bufferSeconds, afterSeconds float64) Params {
	return Params{
		BufferFrames: int(bufferSeconds * fps),
		AfterFrames:  int(afterSeconds * fps),
	}
}

// Validate 检查参数合法性
func (p Params) Validate() error {
	if p.BufferFrames < 0 {
		return fmt.Errorf("buffer_frames must not be negative, got %d", p.BufferFrames)
	}
	if p.AfterFrames < 1 {
		return fmt.Errorf("after_frames must be at least 1, got %d", p.AfterFrames)
	}
	return nil
}

// Clip 一段完整的事件录像
type Clip[F any] struct {
	// Frames 按时间顺序排列的帧
	Frames []F
	// PreFrames 事件前的帧数，Frames[PreFrames] 为确认事件的那一帧
	PreFrames int
}

// Len 帧总数
func (c Clip[F]) Len() int {
	return len(c.Frames)
}

// Recorder 滚动录像窗口
//
// 空闲时把最近 BufferFrames 帧保存在环形缓冲里；Trigger 后把缓冲中的帧
// 转移给录像作为事件前片段，之后 Push 的帧组成事件后片段，
// 满 AfterFrames 帧时返回完整录像并回到缓冲状态。
//
// Recorder 持有所有未交出的帧，被挤出缓冲的帧通过 release 回调释放。
// 交出的 Clip 归调用方所有。非并发安全，只在主循环中使用。
type Recorder[F any] struct {
	params  Params
	release func(F)

	ring  []F
	head  int // 最旧一帧的位置
	count int

	recording bool
	clip      []F
	preFrames int
}

// New 创建录像器，release 可以为 nil
func New[F any](p Params, release func(F)) *Recorder[F] {
	if release == nil {
		release = func(F) {}
	}
	return &Recorder[F]{
		params:  p,
		release: release,
		ring:    make([]F, p.BufferFrames),
	}
}

// Params 返回录像参数
func (r *Recorder[F]) Params() Params {
	return r.params
}

// Recording 是否正在录制事件后片段
func (r *Recorder[F]) Recording() bool {
	return r.recording
}

// Buffered 环形缓冲中的帧数
func (r *Recorder[F]) Buffered() int {
	return r.count
}

// Push 写入一帧，Recorder 接管该帧
// 录制完成时返回完整录像
func (r *Recorder[F]) Push(f F) (Clip[F], bool) {
	if r.recording {
		r.clip = append(r.clip, f)
		if len(r.clip)-r.preFrames >= r.params.AfterFrames {
			return r.finish(), true
		}
		return Clip[F]{}, false
	}

	if len(r.ring) == 0 {
		r.release(f)
		return Clip[F]{}, false
	}

	if r.count < len(r.ring) {
		r.ring[(r.head+r.count)%len(r.ring)] = f
		r.count++
		return Clip[F]{}, false
	}

	// 缓冲已满：挤出最旧的一帧
	r.release(r.ring[r.head])
	r.ring[r.head] = f
	r.head = (r.head + 1) % len(r.ring)
	return Clip[F]{}, false
}

// Trigger 开始录制事件录像
// 缓冲中的帧按时间顺序成为事件前片段，缓冲清空
// 已在录制中时返回 false，不做任何改变
func (r *Recorder[F]) Trigger() bool {
	if r.recording {
		return false
	}

	r.clip = make([]F, 0, r.count+r.params.AfterFrames)
	r.clip = append(r.clip, r.drain()...)
	r.preFrames = len(r.clip)
	r.recording = true
	return true
}

// Flush 结束正在进行的录制，返回已收集的部分录像
// 没有录制时返回 false
func (r *Recorder[F]) Flush() (Clip[F], bool) {
	if !r.recording {
		return Clip[F]{}, false
	}
	return r.finish(), true
}

// Close 释放所有仍由 Recorder 持有的帧
func (r *Recorder[F]) Close() {
	for _, f := range r.drain() {
		r.release(f)
	}
	for _, f := range r.clip {
		r.release(f)
	}
	r.clip = nil
	r.preFrames = 0
	r.recording = false
}

func (r *Recorder[F]) finish() Clip[F] {
	clip := Clip[F]{Frames: r.clip, PreFrames: r.preFrames}
	r.clip = nil
	r.preFrames = 0
	r.recording = false
	return clip
}

// drain 按时间顺序取出缓冲中的所有帧
func (r *Recorder[F]) drain() []F {
	var zero F
	out := make([]F, 0, r.count)
	for i := 0; i < r.count; i++ {
		idx := (r.head + i) % len(r.ring)
		out = append(out, r.ring[idx])
		r.ring[idx] = zero
	}
	r.head = 0
	r.count = 0
	return out
}
