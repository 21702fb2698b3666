package models

// SubScores 各信号的分项得分，均在 [0,1]
type SubScores struct {
	Aspect     float64 `json:"aspect"`
	Position   float64 `json:"position"`
	Horizontal float64 `json:"horizontal"`
	Angle      float64 `json:"angle"`
}

// AnalysisDetails 评分时的原始测量值（用于报警文本）
type AnalysisDetails struct {
	AspectRatio     float64 `json:"bbox_aspect_ratio"`
	HeightRatio     float64 `json:"head_height_ratio"`
	HorizontalRatio float64 `json:"horizontal_ratio"`
	BodyAngle       float64 `json:"body_angle"`
}

// AnalysisResult 单个姿态的分析结果（无隐藏状态）
type AnalysisResult struct {
	IsFall    bool            `json:"is_fall"`
	FallScore float64         `json:"fall_score"`
	Reason    string          `json:"reason"`
	Scores    SubScores       `json:"scores"`
	Details   AnalysisDetails `json:"details"`
}

// DetectionState 时间判定状态快照
type DetectionState struct {
	ConsecutivePositiveFrames int `json:"consecutive_positive_frames"`
	CooldownRemaining         int `json:"cooldown_remaining"`
}

// InCooldown 是否处于冷却期
func (s DetectionState) InCooldown() bool {
	return s.CooldownRemaining > 0
}
