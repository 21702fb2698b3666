package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"wisefido-fallcam/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// DefaultMinConfidence 人体检测最低置信度
const DefaultMinConfidence = 0.5

const posePath = "/v1/pose"

// EncodeFunc 把帧编码为 JPEG
type EncodeFunc[F any] func(frame F) ([]byte, error)

// Config 姿态推理服务配置
type Config struct {
	BaseURL string
	// Timeout 单次推理超时，0 表示不限制
	Timeout       time.Duration
	MinConfidence float64
}

// Detection 推理服务返回的一个检测结果
type Detection struct {
	BBox       []float64   `json:"bbox"`
	Keypoints  [][]float64 `json:"keypoints"`
	Confidence float64     `json:"confidence"`
}

// PoseResponse 推理服务响应
type PoseResponse struct {
	Detections []Detection `json:"detections"`
	Model      string      `json:"model,omitempty"`
}

// HTTPClient 通过 HTTP 调用姿态推理服务（YOLOv8-pose 等）
type HTTPClient[F any] struct {
	httpClient    *resty.Client
	encode        EncodeFunc[F]
	minConfidence float64
	logger        *zap.Logger
	model         string
}

// NewHTTPClient 创建姿态推理客户端
// 推理按帧调用，不做重试
func NewHTTPClient[F any](cfg Config, encode EncodeFunc[F], logger *zap.Logger) *HTTPClient[F] {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	minConf := cfg.MinConfidence
	if minConf <= 0 {
		minConf = DefaultMinConfidence
	}

	return &HTTPClient[F]{
		httpClient:    client,
		encode:        encode,
		minConfidence: minConf,
		logger:        logger,
	}
}

// Model 最近一次响应中的模型名称
func (c *HTTPClient[F]) Model() string {
	return c.model
}

// Infer 对一帧做人体检测和姿态估计
// 格式不正确或置信度不足的检测被丢弃
func (c *HTTPClient[F]) Infer(ctx context.Context, frame F) ([]models.PoseObservation, error) {
	body, err := c.encode(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "image/jpeg").
		SetBody(body).
		Post(posePath)
	if err != nil {
		return nil, fmt.Errorf("failed to call pose service: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("pose service returned status %d", resp.StatusCode())
	}

	var response PoseResponse
	if err := json.Unmarshal(resp.Body(), &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pose response: %w", err)
	}
	if response.Model != "" {
		c.model = response.Model
	}

	observations := make([]models.PoseObservation, 0, len(response.Detections))
	for i, d := range response.Detections {
		obs, ok := toObservation(d)
		if !ok {
			c.logger.Debug("Dropping malformed detection", zap.Int("index", i))
			continue
		}
		if obs.Confidence < c.minConfidence {
			continue
		}
		observations = append(observations, obs)
	}

	return observations, nil
}

// toObservation 校验并转换一个检测结果
func toObservation(d Detection) (models.PoseObservation, bool) {
	var obs models.PoseObservation

	if len(d.BBox) != 4 || len(d.Keypoints) != models.KeypointCount {
		return obs, false
	}
	if math.IsNaN(d.Confidence) {
		return obs, false
	}

	obs.BBox = models.BoundingBox{X1: d.BBox[0], Y1: d.BBox[1], X2: d.BBox[2], Y2: d.BBox[3]}
	if !obs.BBox.Valid() {
		return obs, false
	}

	for i, kp := range d.Keypoints {
		switch len(kp) {
		case 3:
			obs.Keypoints[i] = models.Keypoint{X: kp[0], Y: kp[1], Confidence: kp[2]}
		case 2:
			// 没有置信度的关键点视为不可用
			obs.Keypoints[i] = models.Keypoint{X: kp[0], Y: kp[1]}
		default:
			return obs, false
		}
	}
	obs.Confidence = d.Confidence

	return obs, true
}
