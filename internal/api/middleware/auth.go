package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"accessory-sync/pkg/jwt"
	"accessory-sync/pkg/response"
)

const webhookSubjectKey = "webhook_subject"

// WebhookAuth Webhook 令牌认证中间件
// 从 Authorization: Bearer <token> 中提取并验证调用方令牌；未配置共享密钥时直接放行
func WebhookAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtMgr == nil || !jwtMgr.Enabled() {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		c.Set(webhookSubjectKey, claims.Subject)

		c.Next()
	}
}

// WebhookSubject 返回已认证调用方的标识，未认证时为空
func WebhookSubject(c *gin.Context) string {
	return c.GetString(webhookSubjectKey)
}
