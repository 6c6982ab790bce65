package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailbridge/backend/internal/auth"
	jwtpkg "mailbridge/backend/internal/auth/jwt"
	"mailbridge/backend/internal/config"
	"mailbridge/backend/internal/connector"
	"mailbridge/backend/internal/gmail"
	"mailbridge/backend/internal/health"
	"mailbridge/backend/internal/logger"
	"mailbridge/backend/internal/monitoring"
	"mailbridge/backend/internal/notify"
	"mailbridge/backend/internal/pool"
	"mailbridge/backend/internal/service"
	"mailbridge/backend/internal/storage"
	"mailbridge/backend/internal/storage/memory"
	redisclient "mailbridge/backend/internal/storage/redis"
	sqlstore "mailbridge/backend/internal/storage/sql"
	httptransport "mailbridge/backend/internal/transport/http"
	"mailbridge/backend/internal/websocket"
)

// main 是后台邮件网关 HTTP 服务的程序入口。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		LogFile:     cfg.Log.File,
		MaxSize:     cfg.Log.MaxSize,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAge:      cfg.Log.MaxAge,
		Compress:    cfg.Log.Compress,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()
	log.Info("starting mailbridge API server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
	)

	// 初始化存储层：配置了数据库用 SQL，否则退回内存存储
	var store storage.Store
	if cfg.Database.Type != "" {
		sqlStore, err := sqlstore.NewStore(
			cfg.Database.Type,
			cfg.Database.DSN,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
			cfg.Database.ConnMaxLifetime,
		)
		if err != nil {
			log.Fatal("failed to initialize database", zap.Error(err))
		}
		store = sqlStore
		log.Info("using SQL storage", zap.String("driver", cfg.Database.Type))
	} else {
		store = memory.NewStore()
		log.Info("using memory storage")
	}
	defer store.Close()

	// Redis 缓存（可选）
	var cache *redisclient.Client
	if cfg.Redis.Address != "" {
		cache, err = redisclient.New(&cfg.Redis, log)
		if err != nil {
			log.Warn("failed to connect to Redis, continuing without cache", zap.Error(err))
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	// 监控指标
	metrics := monitoring.NewMetrics()

	// Gmail 上游与令牌提供者
	gmailClient := gmail.NewClient(&cfg.Gmail, metrics, log)
	tokenProvider := connector.NewProvider(&cfg.Connector, store, cache, log)

	// JWT 与认证
	jwtManager := jwtpkg.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.Issuer,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)
	authService := auth.NewService(store, metrics)

	// WebSocket Hub
	wsHub := websocket.NewHub(jwtManager, cfg.CORS.AllowedOrigins, metrics, log)

	// 通知外发：协程池 + SMTP 客户端
	notifyPool := pool.NewWorkerPool("notify", 4, 256, log)
	mailer := notify.NewMailer(&cfg.SMTP, notifyPool, metrics, log)
	if mailer.Enabled() {
		log.Info("smtp notifications enabled", zap.String("addr", cfg.SMTP.Addr))
	}

	// 业务服务
	inboxService := service.NewInboxService(&cfg.Gmail, gmailClient, tokenProvider, metrics, log)
	archiveService := service.NewArchiveService(store, wsHub, metrics, log)

	healthChecker := health.NewHealthChecker(store, cache, log)

	routerDeps := httptransport.RouterDependencies{
		Config:         cfg,
		InboxService:   inboxService,
		ArchiveService: archiveService,
		AuthService:    authService,
		JWTManager:     jwtManager,
		Mailer:         mailer,
		WebSocketHub:   wsHub,
		HealthChecker:  healthChecker,
		Metrics:        metrics,
		Logger:         log,
	}
	// 只有 Redis 可用时才启用按用户拉取限流
	if cache != nil {
		routerDeps.RateLimiter = cache
	}
	router := httptransport.NewRouter(routerDeps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// 信号处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifyPool.Start(ctx)

	go func() {
		log.Info("starting WebSocket hub")
		wsHub.Run(ctx)
	}()

	go func() {
		log.Info("API server listening", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server stopped cleanly")
	}

	notifyPool.Stop()
}
