package httptransport

import (
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailbridge/backend/internal/auth"
	jwtpkg "mailbridge/backend/internal/auth/jwt"
	"mailbridge/backend/internal/config"
	"mailbridge/backend/internal/health"
	"mailbridge/backend/internal/middleware"
	"mailbridge/backend/internal/monitoring"
	"mailbridge/backend/internal/notify"
	"mailbridge/backend/internal/service"
	"mailbridge/backend/internal/storage"
	"mailbridge/backend/internal/websocket"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config         *config.Config
	InboxService   *service.InboxService
	ArchiveService *service.ArchiveService
	AuthService    *auth.Service
	JWTManager     *jwtpkg.Manager
	Mailer         *notify.Mailer
	WebSocketHub   *websocket.Hub
	HealthChecker  *health.HealthChecker
	Metrics        *monitoring.Metrics
	RateLimiter    storage.RateLimitRepository // 可为 nil，nil 时不启用拉取限流
	Logger         *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryHandler(deps.Logger, deps.Metrics))
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.BodySizeLimit(middleware.DefaultBodyLimit))
	if deps.Metrics != nil {
		router.Use(middleware.HTTPMetrics(deps.Metrics))
	}

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	// 允许所有来源时必须关闭凭证支持
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	// 创建处理器
	authHandler := NewAuthHandler(deps.AuthService, deps.JWTManager, deps.Logger)
	inboxHandler := NewInboxHandler(deps.InboxService, deps.Logger)
	archiveHandler := NewArchiveHandler(deps.ArchiveService, deps.Logger)
	notifyHandler := NewNotifyHandler(deps.Mailer, deps.Logger)

	jwtAuth := middleware.NewJWTAuth(deps.JWTManager, deps.Logger)

	// 健康检查与指标
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.HealthChecker != nil {
		router.GET("/live", gin.WrapF(deps.HealthChecker.LiveEndpoint))
		router.GET("/ready", gin.WrapF(deps.HealthChecker.ReadyEndpoint))
	}
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	// WebSocket 连接
	if deps.WebSocketHub != nil {
		router.GET("/v1/ws", websocket.HandleWebSocket(deps.WebSocketHub))
	}

	// V1 API
	v1 := router.Group("/v1")
	{
		// ========== Auth Routes ==========
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh", authHandler.Refresh)
			authRoutes.GET("/me", jwtAuth.RequireAuth(), authHandler.Me)
		}

		// ========== Gmail Routes ==========
		gmailRoutes := v1.Group("/gmail", jwtAuth.RequireAuth())
		if deps.RateLimiter != nil {
			gmailRoutes.Use(middleware.FetchRateLimit(
				deps.RateLimiter,
				deps.Config.Gmail.FetchRateLimit,
				deps.Config.Gmail.FetchRateWindow,
				deps.Logger,
			))
		}
		{
			gmailRoutes.POST("/messages/fetch", inboxHandler.Fetch)
		}

		// ========== Archive Routes ==========
		archiveRoutes := v1.Group("/archives", jwtAuth.RequireAuth())
		{
			archiveRoutes.POST("", archiveHandler.Archive)
			archiveRoutes.GET("", archiveHandler.List)
			archiveRoutes.GET("/:gmailId", archiveHandler.Get)
			archiveRoutes.DELETE("/:gmailId", archiveHandler.Delete)
		}

		// ========== Notify Routes（仅管理员） ==========
		notifyRoutes := v1.Group("/notify", jwtAuth.RequireAuth(), jwtAuth.RequireAdmin())
		{
			notifyRoutes.POST("/broadcast", notifyHandler.Broadcast)
		}
	}

	return router
}
