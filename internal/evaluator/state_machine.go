package evaluator

import (
	"fmt"

	"wisefido-fallcam/internal/models"
)

// Params 时间判定参数
type Params struct {
	// FallDurationFrames 连续判定为跌倒的帧数，达到后确认事件（约 0.5 秒 @30fps）
	FallDurationFrames int
	// CooldownFrames 确认事件后的冷却帧数（约 5 秒 @30fps）
	CooldownFrames int
}

// DefaultParams 默认 15 帧确认，150 帧冷却
func DefaultParams() Params {
	return Params{
		FallDurationFrames: 15,
		CooldownFrames:     150,
	}
}

// Validate 检查参数合法性
func (p Params) Validate() error {
	if p.FallDurationFrames < 1 {
		return fmt.Errorf("fall_duration_frames must be at least 1, got %d", p.FallDurationFrames)
	}
	if p.CooldownFrames < 0 {
		return fmt.Errorf("cooldown_frames must not be negative, got %d", p.CooldownFrames)
	}
	return nil
}

// StateMachine 跌倒时间判定状态机
// IDLE：累计连续阳性帧；COOLDOWN：确认事件后抑制新的检测
// 所有人共用一个计数器（单目标假设）
type StateMachine struct {
	params      Params
	consecutive int
	cooldown    int
}

// NewStateMachine 创建状态机
func NewStateMachine(p Params) *StateMachine {
	return &StateMachine{params: p}
}

// BeginFrame 每帧开始时调用
// 冷却期内递减冷却计数并返回 true，本帧不得产生事件
func (m *StateMachine) BeginFrame() bool {
	if m.cooldown > 0 {
		m.cooldown--
		return true
	}
	return false
}

// Observe 输入一个人的判定结果，返回是否确认跌倒事件
func (m *StateMachine) Observe(isFall bool) bool {
	if m.cooldown > 0 {
		return false
	}

	if !isFall {
		// 衰减而不是清零，容忍单帧抖动
		if m.consecutive > 0 {
			m.consecutive--
		}
		return false
	}

	m.consecutive++
	if m.consecutive < m.params.FallDurationFrames {
		return false
	}

	m.consecutive = 0
	m.cooldown = m.params.CooldownFrames
	return true
}

// Absent 本帧没有检测到任何人，计数直接清零
func (m *StateMachine) Absent() {
	m.consecutive = 0
}

// State 当前状态快照
func (m *StateMachine) State() models.DetectionState {
	return models.DetectionState{
		ConsecutivePositiveFrames: m.consecutive,
		CooldownRemaining:         m.cooldown,
	}
}

// Params 返回状态机参数
func (m *StateMachine) Params() Params {
	return m.params
}

// Reset 回到初始 IDLE 状态
func (m *StateMachine) Reset() {
	m.consecutive = 0
	m.cooldown = 0
}
