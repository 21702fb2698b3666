package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"wisefido-fallcam/internal/evaluator"
	"wisefido-fallcam/internal/pose"
	"wisefido-fallcam/internal/recorder"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// Config 跌倒检测服务配置
type Config struct {
	Camera struct {
		// Source 摄像头索引（"0"）或视频流地址（rtsp://...）
		Source string
		Width  int
		Height int
		FPS    float64
	}

	// Oracle 姿态推理服务
	Oracle struct {
		URL           string
		Timeout       time.Duration // 0 表示不限制
		MinConfidence float64
		Model         string
	}

	Detection struct {
		Pose     pose.Params
		Temporal evaluator.Params
	}

	Video struct {
		BufferSeconds float64
		AfterSeconds  float64
		Codec         string
	}

	Storage struct {
		SaveImages bool
		ImagesDir  string
		SaveVideos bool
		VideosDir  string
	}

	// Notify Django CMS
	Notify struct {
		ServerURL string
		AuthorID  int
		Timeout   time.Duration
	}

	MQTT struct {
		Enabled  bool
		Broker   string
		ClientID string
		Username string
		Password string
		QoS      int
	}

	Redis struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
		Stream   string
		MaxLen   int64
	}

	Database struct {
		Enabled bool
		DatabaseConfig
	}

	TenantID string
	DeviceID string

	Debug struct {
		Enabled bool
		ShowFPS bool
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Camera.Source = getEnv("CAMERA_SOURCE", "0")
	cfg.Camera.Width = getEnvInt("CAMERA_WIDTH", 640)
	cfg.Camera.Height = getEnvInt("CAMERA_HEIGHT", 480)
	cfg.Camera.FPS = getEnvFloat("FPS", 30)

	cfg.Oracle.URL = getEnv("ORACLE_URL", "http://localhost:8500")
	cfg.Oracle.Timeout = time.Duration(getEnvInt("ORACLE_TIMEOUT_MS", 0)) * time.Millisecond
	cfg.Oracle.MinConfidence = getEnvFloat("PERSON_CONFIDENCE_THRESHOLD", 0.5)
	cfg.Oracle.Model = getEnv("POSE_MODEL", "yolov8n-pose")

	defaults := pose.DefaultParams()
	p := &cfg.Detection.Pose
	p.AspectRatioThreshold = getEnvFloat("ASPECT_RATIO_THRESHOLD", defaults.AspectRatioThreshold)
	p.HeightRatioThreshold = getEnvFloat("HEIGHT_RATIO_THRESHOLD", defaults.HeightRatioThreshold)
	p.HorizontalThreshold = getEnvFloat("HORIZONTAL_THRESHOLD", defaults.HorizontalThreshold)
	p.BodyAngleThreshold = getEnvFloat("BODY_ANGLE_THRESHOLD", defaults.BodyAngleThreshold)
	p.KeypointConfidence = getEnvFloat("KEYPOINT_CONFIDENCE_THRESHOLD", defaults.KeypointConfidence)
	p.MinGroupKeypoints = getEnvInt("MIN_GROUP_KEYPOINTS", defaults.MinGroupKeypoints)
	p.Weights.Aspect = getEnvFloat("WEIGHT_ASPECT", defaults.Weights.Aspect)
	p.Weights.Position = getEnvFloat("WEIGHT_POSITION", defaults.Weights.Position)
	p.Weights.Horizontal = getEnvFloat("WEIGHT_HORIZONTAL", defaults.Weights.Horizontal)
	p.Weights.Angle = getEnvFloat("WEIGHT_ANGLE", defaults.Weights.Angle)
	p.FallScoreThreshold = getEnvFloat("FALL_SCORE_THRESHOLD", defaults.FallScoreThreshold)

	temporal := evaluator.DefaultParams()
	cfg.Detection.Temporal.FallDurationFrames = getEnvInt("FALL_DURATION_FRAMES", temporal.FallDurationFrames)
	cfg.Detection.Temporal.CooldownFrames = getEnvInt("COOLDOWN_FRAMES", temporal.CooldownFrames)

	cfg.Video.BufferSeconds = getEnvFloat("VIDEO_BUFFER_SECONDS", 7)
	cfg.Video.AfterSeconds = getEnvFloat("VIDEO_RECORD_AFTER_SECONDS", 5)
	cfg.Video.Codec = getEnv("VIDEO_CODEC", "mp4v")

	cfg.Storage.SaveImages = getEnvBool("SAVE_FALL_IMAGES", true)
	cfg.Storage.ImagesDir = getEnv("FALL_IMAGES_DIR", "fall_detections")
	cfg.Storage.SaveVideos = getEnvBool("SAVE_FALL_VIDEOS", true)
	cfg.Storage.VideosDir = getEnv("FALL_VIDEOS_DIR", "fall_videos")

	cfg.Notify.ServerURL = getEnv("DJANGO_SERVER_URL", "http://localhost:8000")
	cfg.Notify.AuthorID = getEnvInt("AUTHOR_ID", 1)
	cfg.Notify.Timeout = time.Duration(getEnvInt("NOTIFY_TIMEOUT_SEC", 10)) * time.Second

	cfg.MQTT.Enabled = getEnvBool("MQTT_ENABLED", false)
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "wisefido-fallcam")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = getEnvInt("MQTT_QOS", 1)

	cfg.Redis.Enabled = getEnvBool("REDIS_ENABLED", false)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)
	cfg.Redis.Stream = getEnv("REDIS_ALERT_STREAM", "fallcam:alerts")
	cfg.Redis.MaxLen = int64(getEnvInt("REDIS_STREAM_MAXLEN", 10000))

	cfg.Database.Enabled = getEnvBool("DB_ENABLED", false)
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "owlrd")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 2)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 1)

	cfg.TenantID = getEnv("TENANT_ID", "")
	cfg.DeviceID = getEnv("DEVICE_ID", "fallcam-01")

	cfg.Debug.Enabled = getEnvBool("DEBUG_MODE", false)
	cfg.Debug.ShowFPS = getEnvBool("SHOW_FPS", true)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

// VideoWindow 录像窗口（帧）
func (c *Config) VideoWindow() recorder.Params {
	return recorder.ParamsFromSeconds(c.Camera.FPS, c.Video.BufferSeconds, c.Video.AfterSeconds)
}

// CameraIndex 摄像头来源是数字时返回设备索引
func (c *Config) CameraIndex() (int, bool) {
	idx, err := strconv.Atoi(strings.TrimSpace(c.Camera.Source))
	if err != nil {
		return 0, false
	}
	return idx, true
}

// Validate 检查配置
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Camera.Source) == "" {
		errs = append(errs, errors.New("CAMERA_SOURCE is required"))
	}
	if c.Camera.FPS <= 0 || math.IsNaN(c.Camera.FPS) || math.IsInf(c.Camera.FPS, 0) {
		errs = append(errs, fmt.Errorf("FPS must be positive, got %v", c.Camera.FPS))
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		errs = append(errs, fmt.Errorf("camera resolution must be positive, got %dx%d", c.Camera.Width, c.Camera.Height))
	}
	if c.Oracle.URL == "" {
		errs = append(errs, errors.New("ORACLE_URL is required"))
	}
	if c.Oracle.Timeout < 0 {
		errs = append(errs, errors.New("ORACLE_TIMEOUT_MS must not be negative"))
	}
	if err := c.Detection.Pose.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Detection.Temporal.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Video.BufferSeconds < 0 || c.Video.AfterSeconds <= 0 {
		errs = append(errs, fmt.Errorf("video window must be positive, got buffer=%vs after=%vs", c.Video.BufferSeconds, c.Video.AfterSeconds))
	} else if c.Camera.FPS > 0 {
		if err := c.VideoWindow().Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(c.Video.Codec) != 4 {
		errs = append(errs, fmt.Errorf("VIDEO_CODEC must be a fourcc, got %q", c.Video.Codec))
	}
	if c.Notify.ServerURL == "" {
		errs = append(errs, errors.New("DJANGO_SERVER_URL is required"))
	}
	if c.Notify.Timeout <= 0 {
		errs = append(errs, errors.New("NOTIFY_TIMEOUT_SEC must be positive"))
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		errs = append(errs, errors.New("MQTT_BROKER is required when MQTT is enabled"))
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("MQTT_QOS must be 0, 1 or 2, got %d", c.MQTT.QoS))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required when Redis is enabled"))
	}
	if c.Database.Enabled {
		if c.Database.Host == "" || c.Database.Database == "" {
			errs = append(errs, errors.New("DB_HOST and DB_NAME are required when the database is enabled"))
		}
		if c.TenantID == "" {
			errs = append(errs, errors.New("TENANT_ID is required when the database is enabled"))
		}
	}
	if c.DeviceID == "" {
		errs = append(errs, errors.New("DEVICE_ID is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}
