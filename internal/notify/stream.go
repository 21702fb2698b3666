package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wisefido-fallcam/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DefaultAlertStream 报警消息流
const DefaultAlertStream = "fallcam:alerts"

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient 创建 Redis 客户端
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// StreamPublisher 把报警写入 Redis Streams（下游消费者可重放）
type StreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *zap.Logger
}

// NewStreamPublisher 创建 Streams 通知端，maxLen<=0 表示不裁剪
func NewStreamPublisher(client *redis.Client, stream string, maxLen int64, logger *zap.Logger) *StreamPublisher {
	if stream == "" {
		stream = DefaultAlertStream
	}
	return &StreamPublisher{
		client: client,
		stream: stream,
		maxLen: maxLen,
		logger: logger,
	}
}

// Name 通知端名称
func (p *StreamPublisher) Name() string {
	return "redis_stream"
}

// Notify 使用 XADD 写入报警消息
func (p *StreamPublisher) Notify(ctx context.Context, alert models.Alert) error {
	data, err := json.Marshal(NewAlertMessage(alert))
	if err != nil {
		return fmt.Errorf("failed to marshal alert message: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"event_id":  alert.Event.ID,
			"device_id": alert.DeviceID,
			"data":      string(data),
			"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
	}

	p.logger.Info("Alert published to stream",
		zap.String("stream", p.stream),
		zap.String("message_id", id),
		zap.String("event_id", alert.Event.ID),
	)
	return nil
}
