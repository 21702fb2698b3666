package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"wisefido-fallcam/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MQTTConfig MQTT 配置
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// AlertTopic 设备报警主题
func AlertTopic(deviceID string) string {
	return fmt.Sprintf("wisefido/fallcam/%s/alerts", deviceID)
}

// Publisher MQTT 发布接口
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTClient paho 客户端封装
type MQTTClient struct {
	client mqtt.Client
}

// NewMQTTClient 连接 MQTT broker
func NewMQTTClient(cfg MQTTConfig) (*MQTTClient, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)

	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &MQTTClient{client: client}, nil
}

// Publish 发布消息
func (c *MQTTClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	token.Wait()

	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}

	return nil
}

// Disconnect 断开连接
func (c *MQTTClient) Disconnect() {
	c.client.Disconnect(250)
}

// MQTTPublisher 把报警发布到 MQTT
type MQTTPublisher struct {
	publisher Publisher
	qos       byte
	logger    *zap.Logger
}

// NewMQTTPublisher 创建 MQTT 通知端
func NewMQTTPublisher(publisher Publisher, qos byte, logger *zap.Logger) *MQTTPublisher {
	return &MQTTPublisher{
		publisher: publisher,
		qos:       qos,
		logger:    logger,
	}
}

// Name 通知端名称
func (p *MQTTPublisher) Name() string {
	return "mqtt"
}

// Notify 发布报警消息
func (p *MQTTPublisher) Notify(_ context.Context, alert models.Alert) error {
	payload, err := json.Marshal(NewAlertMessage(alert))
	if err != nil {
		return fmt.Errorf("failed to marshal alert message: %w", err)
	}

	topic := AlertTopic(alert.DeviceID)
	if err := p.publisher.Publish(topic, p.qos, false, payload); err != nil {
		return err
	}

	p.logger.Info("Alert published to MQTT",
		zap.String("topic", topic),
		zap.String("event_id", alert.Event.ID),
	)
	return nil
}
