package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"accessory-sync/config"
	"accessory-sync/internal/api/handler"
	"accessory-sync/internal/api/router"
	"accessory-sync/internal/repository"
	"accessory-sync/internal/service"
	"accessory-sync/internal/worker"
	"accessory-sync/pkg/jira"
	"accessory-sync/pkg/jwt"
	applogger "accessory-sync/pkg/logger"
	"accessory-sync/pkg/redis"
	"accessory-sync/pkg/snipeit"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("snipeit", cfg.SnipeIT.BaseURL),
		zap.String("jira", cfg.Jira.BaseURL),
		zap.Int("fields", len(cfg.Fields.Categories)),
	)

	// 3. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，Webhook 限流将不可用", zap.Error(err))
			rdb = nil
		}
	}

	// 4. 初始化 Webhook 令牌校验
	jwtMgr := jwt.NewManager(&cfg.Webhook)
	if !jwtMgr.Enabled() {
		logger.Warn("未配置 webhook.secret，Webhook 不做鉴权")
	}

	// 5. 依赖注入: Client → Repository → Service → Handler
	repo := repository.NewRepository(snipeit.NewClient(&cfg.SnipeIT), jira.NewClient(&cfg.Jira))
	svc := service.NewService(cfg, repo, logger)
	h := handler.NewHandler(cfg, svc)

	// 6. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 7. 定时字段同步（可选）
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	if cfg.Sync.Interval > 0 {
		go worker.NewFieldSyncWorker(svc.FieldSync, cfg.Sync.Interval, logger).Start(workerCtx)
	}

	// 8. 启动 HTTP 服务器（优雅关闭）
	// 单个工单可能包含多个配件，每个配件需多次调用资产系统，写超时放宽
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
