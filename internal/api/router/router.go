package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"accessory-sync/config"
	"accessory-sync/internal/api/handler"
	"accessory-sync/internal/api/middleware"
	"accessory-sync/pkg/jwt"
	"accessory-sync/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.WebhookAuth(jwtMgr))
	v1.Use(middleware.RateLimit(rdb, cfg.RateLimit.Limit, cfg.RateLimit.Window))
	{
		// Jira Automation 调用
		webhooks := v1.Group("/webhooks")
		{
			webhooks.POST("/accessories", h.Webhook.ProcessAccessories)
			webhooks.POST("/checked-out", h.Webhook.CheckedOut)
			webhooks.POST("/fields/sync", h.Field.SyncFields)
		}

		// 运维报表
		reports := v1.Group("/reports")
		{
			reports.GET("/catalog", h.Report.ExportCatalog)
		}
	}

	return r
}
