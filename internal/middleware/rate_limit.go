package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailbridge/backend/internal/storage"
)

// FetchRateLimit 按用户限制邮件拉取频率，须在 RequireAuth 之后使用。
//
// 计数器故障时放行，限流组件不可用不应阻断核心读路径。
func FetchRateLimit(counter storage.RateLimitRepository, limit int64, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("userID")
		if userID == "" {
			c.Next()
			return
		}

		count, err := counter.IncrementRateLimit("ratelimit:fetch:"+userID, window)
		if err != nil {
			log.Warn("rate limit counter unavailable",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			c.Next()
			return
		}

		if count > limit {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
