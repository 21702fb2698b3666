package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"wisefido-fallcam/internal/config"
	"wisefido-fallcam/internal/logger"
	"wisefido-fallcam/internal/service"

	"go.uber.org/zap"
)

const serviceName = "wisefido-fallcam"

func main() {
	camera := flag.String("camera", "", "camera index or stream URL (overrides CAMERA_SOURCE)")
	debug := flag.Bool("debug", false, "show the debug viewer (overrides DEBUG_MODE)")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if *camera != "" {
		cfg.Camera.Source = *camera
	}
	if *debug {
		cfg.Debug.Enabled = true
	}

	// 2. 初始化日志
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, serviceName)
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	// 3. 创建上下文（支持优雅关闭）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. 创建服务
	fallService, err := service.NewFallService(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to create fall detection service",
			zap.Error(err),
		)
	}
	defer fallService.Stop()

	// 5. 启动服务（在 goroutine 中）
	serviceDone := make(chan error, 1)
	go func() {
		serviceDone <- fallService.Start(ctx)
	}()

	// 6. 等待信号（优雅关闭）
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down",
			zap.String("signal", sig.String()),
		)
		cancel()
		// 等待在途录像和报警完成
		err = <-serviceDone
	case err = <-serviceDone:
	}

	if err != nil {
		log.Error("Service error", zap.Error(err))
		fallService.Stop()
		log.Sync()
		os.Exit(1)
	}

	log.Info("Fall detection service stopped")
}
