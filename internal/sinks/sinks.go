package sinks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wisefido-fallcam/internal/config"
	"wisefido-fallcam/internal/notify"
	"wisefido-fallcam/internal/repository"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Sinks 已连接的报警通知端
type Sinks struct {
	CMS      *notify.CMSClient
	Notifier notify.Multi

	mqttClient  *notify.MQTTClient
	redisClient *redis.Client
	db          *sql.DB
	logger      *zap.Logger
}

// Open 按配置连接所有启用的通知端
// CMS 总是启用；MQTT、Redis Streams、数据库按开关启用
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Sinks, error) {
	s := &Sinks{logger: logger}

	s.CMS = notify.NewCMSClient(notify.CMSConfig{
		ServerURL: cfg.Notify.ServerURL,
		AuthorID:  cfg.Notify.AuthorID,
		Timeout:   cfg.Notify.Timeout,
	}, logger)
	s.Notifier = append(s.Notifier, s.CMS)

	if cfg.MQTT.Enabled {
		client, err := notify.NewMQTTClient(notify.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
		})
		if err != nil {
			s.Close()
			return nil, err
		}
		s.mqttClient = client
		s.Notifier = append(s.Notifier, notify.NewMQTTPublisher(client, byte(cfg.MQTT.QoS), logger))
	}

	if cfg.Redis.Enabled {
		client := notify.NewRedisClient(notify.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			s.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		s.redisClient = client
		s.Notifier = append(s.Notifier, notify.NewStreamPublisher(client, cfg.Redis.Stream, cfg.Redis.MaxLen, logger))
	}

	if cfg.Database.Enabled {
		db, err := repository.NewPostgresDB(&cfg.Database.DatabaseConfig)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.db = db
		repo := repository.NewAlarmEventsRepository(db, logger)
		metadata := map[string]interface{}{"camera_source": cfg.Camera.Source}
		s.Notifier = append(s.Notifier, repository.NewAlarmEventSink(repo, cfg.TenantID, cfg.DeviceID, metadata, logger))
	}

	names := make([]string, 0, len(s.Notifier))
	for _, n := range s.Notifier {
		if named, ok := n.(notify.NamedNotifier); ok {
			names = append(names, named.Name())
		}
	}
	logger.Info("Alert sinks ready", zap.Strings("sinks", names))

	return s, nil
}

// Close 断开所有连接
func (s *Sinks) Close() error {
	var errs []error

	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
		s.mqttClient = nil
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
		s.redisClient = nil
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
		s.db = nil
	}

	return errors.Join(errs...)
}
