package notify

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"wisefido-fallcam/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const postPath = "/api_root/Post/"

// CMSConfig 内容管理服务配置
type CMSConfig struct {
	ServerURL string
	AuthorID  int
	Timeout   time.Duration
}

// CMSClient 把报警作为帖子发布到内容管理服务（Django REST）
type CMSClient struct {
	httpClient *resty.Client
	endpoint   string
	authorID   int
	logger     *zap.Logger
	now        func() time.Time
}

// NewCMSClient 创建 CMS 客户端
// 报警最多发送一次，不做重试
func NewCMSClient(cfg CMSConfig, logger *zap.Logger) *CMSClient {
	baseURL := strings.TrimRight(cfg.ServerURL, "/")
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &CMSClient{
		httpClient: client,
		endpoint:   baseURL + postPath,
		authorID:   cfg.AuthorID,
		logger:     logger,
		now:        time.Now,
	}
}

// Name 通知端名称
func (c *CMSClient) Name() string {
	return "cms"
}

// Notify 发布报警帖子
// 图片和视频文件存在时作为附件上传
func (c *CMSClient) Notify(ctx context.Context, alert models.Alert) error {
	req := c.httpClient.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{
			"author":         strconv.Itoa(c.authorID),
			"title":          alert.Title,
			"text":           alert.Body,
			"published_date": c.now().Format(time.RFC3339),
		})

	if alert.HasImage() && fileExists(alert.ImagePath) {
		req.SetFile("image", alert.ImagePath)
	}
	if alert.HasVideo() && fileExists(alert.VideoPath) {
		req.SetFile("video", alert.VideoPath)
	}

	c.logger.Info("Sending alert to CMS",
		zap.String("event_id", alert.Event.ID),
		zap.String("endpoint", c.endpoint),
	)

	resp, err := req.Post(postPath)
	if err != nil {
		c.logger.Error("CMS request failed", zap.Error(err))
		return fmt.Errorf("failed to post alert: %w", err)
	}

	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		c.logger.Error("CMS returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("response", truncate(resp.String(), 512)),
		)
		return fmt.Errorf("CMS returned status %d", resp.StatusCode())
	}

	c.logger.Info("Alert posted to CMS",
		zap.String("event_id", alert.Event.ID),
		zap.Int("status_code", resp.StatusCode()),
	)
	return nil
}

// Ping 启动时的连接测试，任何 HTTP 响应都视为可达
func (c *CMSClient) Ping(ctx context.Context) error {
	resp, err := c.httpClient.R().SetContext(ctx).Get("/")
	if err != nil {
		return fmt.Errorf("failed to connect to CMS: %w", err)
	}
	c.logger.Info("CMS connection test succeeded", zap.Int("status_code", resp.StatusCode()))
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
