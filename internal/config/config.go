package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host string // 监听地址，默认 "0.0.0.0"
	Port int    // 监听端口，默认 8080
}

// GmailConfig 定义 Gmail REST API 访问配置
type GmailConfig struct {
	APIBase          string        // Gmail REST API 基地址，测试时可指向 mock 服务器
	Timeout          time.Duration // 单次上游请求超时
	MaxPageSize      int           // 单页最大抓取数量上限，默认 100
	DefaultPageSize  int           // 未指定 maxResults 时的默认页大小，默认 50
	FetchConcurrency int           // 详情抓取并发上限，默认 10
	RateLimit        float64       // 上游请求速率限制（每秒），默认 25
	FetchRateLimit   int64         // 单用户拉取限流阈值（每窗口请求数），默认 60
	FetchRateWindow  time.Duration // 单用户拉取限流窗口，默认 1 分钟
}

// ConnectorConfig 定义第三方连接器令牌的获取配置
type ConnectorConfig struct {
	GmailStaticToken string        // 开发环境静态访问令牌（生产环境使用数据库中的用户令牌）
	TokenCacheTTL    time.Duration // Redis 令牌缓存时间，默认 5 分钟
}

// SMTPConfig 定义通知邮件外发（submission）配置
type SMTPConfig struct {
	Addr     string // SMTP 提交服务器地址，格式 "host:port"，留空禁用外发
	Username string // SMTP 认证用户名
	Password string // SMTP 认证密码
	From     string // 通知邮件发件人地址
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 启用彩色输出和详细堆栈信息
	File        string // 日志文件路径，留空只输出到标准输出
	MaxSize     int    // 单个日志文件上限（MB），默认 100
	MaxBackups  int    // 保留的轮转文件数，默认 3
	MaxAge      int    // 轮转文件保留天数，默认 28
	Compress    bool   // 是否压缩轮转文件，默认 true
}

// DatabaseConfig 定义数据库连接配置（支持 MySQL 和 PostgreSQL）
type DatabaseConfig struct {
	Type            string        // 数据库类型: "mysql" 或 "postgres"，留空使用内存存储
	DSN             string        // 数据库连接字符串
	MaxOpenConns    int           // 最大打开连接数，默认 25
	MaxIdleConns    int           // 最大空闲连接数，默认 5
	ConnMaxLifetime time.Duration // 连接最大生命周期，默认 5 分钟
}

// RedisConfig 定义 Redis 缓存服务配置
type RedisConfig struct {
	Address  string // Redis 服务地址，格式 "host:port"，默认 "localhost:6379"
	Password string // Redis 认证密码，留空表示无密码
	DB       int    // Redis 数据库编号，默认 0
}

// JWTConfig 定义 JWT 认证相关配置
type JWTConfig struct {
	Secret        string        // JWT 签名密钥，必须至少 32 字符
	Issuer        string        // JWT 签发者标识，默认 "mailbridge"
	AccessExpiry  time.Duration // 访问令牌有效期，默认 15 分钟
	RefreshExpiry time.Duration // 刷新令牌有效期，默认 7 天
}

// Config 是系统核心配置的根结构体，包含所有子系统的配置
type Config struct {
	Server    ServerConfig    // HTTP 服务器配置
	Gmail     GmailConfig     // Gmail 上游访问配置
	Connector ConnectorConfig // 连接器令牌配置
	SMTP      SMTPConfig      // 通知外发配置
	CORS      CORSConfig      // 跨域配置
	Log       LogConfig       // 日志配置
	Database  DatabaseConfig  // 数据库配置
	Redis     RedisConfig     // Redis 配置
	JWT       JWTConfig       // JWT 认证配置
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量（最高优先级）
//  2. .env 文件（如果存在）
//  3. 默认值
//
// 环境变量前缀: MAILBRIDGE_
// 例如: MAILBRIDGE_SERVER_HOST, MAILBRIDGE_JWT_SECRET
func Load() (*Config, error) {
	// 尝试加载 .env 文件（静默失败，因为 .env 文件是可选的）
	loadEnvFile()

	viper.SetEnvPrefix("mailbridge")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("gmail.api_base", "https://gmail.googleapis.com/gmail/v1")
	viper.SetDefault("gmail.timeout", "30s")
	viper.SetDefault("gmail.max_page_size", 100)
	viper.SetDefault("gmail.default_page_size", 50)
	viper.SetDefault("gmail.fetch_concurrency", 10)
	viper.SetDefault("gmail.rate_limit", 25.0)
	viper.SetDefault("gmail.fetch_rate_limit", 60)
	viper.SetDefault("gmail.fetch_rate_window", "1m")
	viper.SetDefault("connector.gmail_static_token", "")
	viper.SetDefault("connector.token_cache_ttl", "5m")
	viper.SetDefault("smtp.addr", "")
	viper.SetDefault("smtp.username", "")
	viper.SetDefault("smtp.password", "")
	viper.SetDefault("smtp.from", "noreply@mailbridge.local")
	viper.SetDefault("cors.allowed_origins", "*")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
	viper.SetDefault("log.file", "")
	viper.SetDefault("log.max_size", 100)
	viper.SetDefault("log.max_backups", 3)
	viper.SetDefault("log.max_age", 28)
	viper.SetDefault("log.compress", true)
	viper.SetDefault("database.type", "") // 默认为空，使用内存存储
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "5m")
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.issuer", "mailbridge")
	viper.SetDefault("jwt.access_expiry", "15m")
	viper.SetDefault("jwt.refresh_expiry", "168h")

	gmailTimeout, err := time.ParseDuration(viper.GetString("gmail.timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid gmail.timeout: %w", err)
	}

	maxPageSize := viper.GetInt("gmail.max_page_size")
	if maxPageSize <= 0 {
		maxPageSize = 100
	}

	defaultPageSize := viper.GetInt("gmail.default_page_size")
	if defaultPageSize <= 0 || defaultPageSize > maxPageSize {
		defaultPageSize = 50
	}

	fetchConcurrency := viper.GetInt("gmail.fetch_concurrency")
	if fetchConcurrency <= 0 {
		fetchConcurrency = 10
	}

	rateLimit := viper.GetFloat64("gmail.rate_limit")
	if rateLimit <= 0 {
		rateLimit = 25.0
	}

	fetchRateLimit := viper.GetInt64("gmail.fetch_rate_limit")
	if fetchRateLimit <= 0 {
		fetchRateLimit = 60
	}

	fetchRateWindow, err := time.ParseDuration(viper.GetString("gmail.fetch_rate_window"))
	if err != nil || fetchRateWindow <= 0 {
		fetchRateWindow = time.Minute
	}

	tokenCacheTTL, err := time.ParseDuration(viper.GetString("connector.token_cache_ttl"))
	if err != nil {
		tokenCacheTTL = 5 * time.Minute
	}

	corsOrigins := parseList(viper.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	connMaxLifetime, err := time.ParseDuration(viper.GetString("database.conn_max_lifetime"))
	if err != nil {
		connMaxLifetime = 5 * time.Minute
	}

	accessExpiry, err := time.ParseDuration(viper.GetString("jwt.access_expiry"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(viper.GetString("jwt.refresh_expiry"))
	if err != nil {
		refreshExpiry = 7 * 24 * time.Hour
	}

	jwtSecret := viper.GetString("jwt.secret")

	// 安全检查：禁止使用默认的 JWT secret
	if jwtSecret == "change-me-in-production" {
		return nil, fmt.Errorf("SECURITY ERROR: JWT secret cannot be the default value. Please set MAILBRIDGE_JWT_SECRET environment variable")
	}

	// JWT secret 必须至少 32 字符
	if len(jwtSecret) < 32 {
		return nil, fmt.Errorf("SECURITY ERROR: JWT secret must be at least 32 characters long")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("server.host"),
			Port: viper.GetInt("server.port"),
		},
		Gmail: GmailConfig{
			APIBase:          strings.TrimRight(viper.GetString("gmail.api_base"), "/"),
			Timeout:          gmailTimeout,
			MaxPageSize:      maxPageSize,
			DefaultPageSize:  defaultPageSize,
			FetchConcurrency: fetchConcurrency,
			RateLimit:        rateLimit,
			FetchRateLimit:   fetchRateLimit,
			FetchRateWindow:  fetchRateWindow,
		},
		Connector: ConnectorConfig{
			GmailStaticToken: viper.GetString("connector.gmail_static_token"),
			TokenCacheTTL:    tokenCacheTTL,
		},
		SMTP: SMTPConfig{
			Addr:     viper.GetString("smtp.addr"),
			Username: viper.GetString("smtp.username"),
			Password: viper.GetString("smtp.password"),
			From:     viper.GetString("smtp.from"),
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       viper.GetString("log.level"),
			Development: viper.GetBool("log.development"),
			File:        viper.GetString("log.file"),
			MaxSize:     viper.GetInt("log.max_size"),
			MaxBackups:  viper.GetInt("log.max_backups"),
			MaxAge:      viper.GetInt("log.max_age"),
			Compress:    viper.GetBool("log.compress"),
		},
		Database: DatabaseConfig{
			Type:            viper.GetString("database.type"),
			DSN:             viper.GetString("database.dsn"),
			MaxOpenConns:    viper.GetInt("database.max_open_conns"),
			MaxIdleConns:    viper.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:        jwtSecret,
			Issuer:        viper.GetString("jwt.issuer"),
			AccessExpiry:  accessExpiry,
			RefreshExpiry: refreshExpiry,
		},
	}

	return cfg, nil
}

// parseList 将逗号分隔的字符串解析为字符串切片
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件
//
// 加载顺序：
//  1. 当前目录的 .env
//  2. 父目录的 .env（用于从 backend/ 子目录运行的情况）
//
// 注意：
//   - 如果文件不存在，静默失败（.env 是可选的）
//   - 环境变量不会被覆盖（已存在的环境变量优先级更高）
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
