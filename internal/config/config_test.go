package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	// 保存原始环境变量
	originalEnvs := make(map[string]string)
	envKeys := []string{
		"MAILBRIDGE_JWT_SECRET",
		"MAILBRIDGE_SERVER_HOST",
		"MAILBRIDGE_SERVER_PORT",
		"MAILBRIDGE_GMAIL_API_BASE",
		"MAILBRIDGE_GMAIL_TIMEOUT",
		"MAILBRIDGE_GMAIL_MAX_PAGE_SIZE",
		"MAILBRIDGE_GMAIL_FETCH_CONCURRENCY",
		"MAILBRIDGE_CONNECTOR_GMAIL_STATIC_TOKEN",
		"MAILBRIDGE_LOG_LEVEL",
		"MAILBRIDGE_LOG_DEVELOPMENT",
		"MAILBRIDGE_LOG_FILE",
	}

	for _, key := range envKeys {
		originalEnvs[key] = os.Getenv(key)
	}

	// 测试后恢复环境变量
	defer func() {
		for key, value := range originalEnvs {
			if value == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, value)
			}
		}
	}()

	t.Run("加载默认配置成功", func(t *testing.T) {
		for _, key := range envKeys {
			os.Unsetenv(key)
		}

		// 设置必需的JWT密钥
		os.Setenv("MAILBRIDGE_JWT_SECRET", "test-secret-key-for-development-32-chars-long-at-least")

		cfg, err := Load()

		assert.NoError(t, err)
		assert.NotNil(t, cfg)

		// 验证默认值
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "https://gmail.googleapis.com/gmail/v1", cfg.Gmail.APIBase)
		assert.Equal(t, 30*time.Second, cfg.Gmail.Timeout)
		assert.Equal(t, 100, cfg.Gmail.MaxPageSize)
		assert.Equal(t, 50, cfg.Gmail.DefaultPageSize)
		assert.Equal(t, 10, cfg.Gmail.FetchConcurrency)
		assert.Equal(t, 25.0, cfg.Gmail.RateLimit)
		assert.Equal(t, int64(60), cfg.Gmail.FetchRateLimit)
		assert.Equal(t, time.Minute, cfg.Gmail.FetchRateWindow)
		assert.Equal(t, 5*time.Minute, cfg.Connector.TokenCacheTTL)
		assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.False(t, cfg.Log.Development)
		assert.Empty(t, cfg.Log.File)
		assert.Equal(t, 100, cfg.Log.MaxSize)
		assert.Equal(t, 3, cfg.Log.MaxBackups)
		assert.Equal(t, 28, cfg.Log.MaxAge)
		assert.True(t, cfg.Log.Compress)
		assert.Equal(t, "mailbridge", cfg.JWT.Issuer)
		assert.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiry)
		assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshExpiry)
	})

	t.Run("加载自定义配置成功", func(t *testing.T) {
		os.Setenv("MAILBRIDGE_JWT_SECRET", "custom-jwt-secret-key-32-chars-long-minimum")
		os.Setenv("MAILBRIDGE_SERVER_HOST", "127.0.0.1")
		os.Setenv("MAILBRIDGE_SERVER_PORT", "9090")
		os.Setenv("MAILBRIDGE_GMAIL_API_BASE", "http://localhost:9999/gmail/v1/")
		os.Setenv("MAILBRIDGE_GMAIL_TIMEOUT", "10s")
		os.Setenv("MAILBRIDGE_GMAIL_FETCH_CONCURRENCY", "4")
		os.Setenv("MAILBRIDGE_CONNECTOR_GMAIL_STATIC_TOKEN", "ya29.test-token")
		os.Setenv("MAILBRIDGE_LOG_LEVEL", "debug")
		os.Setenv("MAILBRIDGE_LOG_DEVELOPMENT", "true")
		os.Setenv("MAILBRIDGE_LOG_FILE", "/var/log/mailbridge/api.log")

		cfg, err := Load()

		assert.NoError(t, err)
		assert.Equal(t, "127.0.0.1", cfg.Server.Host)
		assert.Equal(t, 9090, cfg.Server.Port)
		// 尾部斜杠被去除，避免拼接出双斜杠 URL
		assert.Equal(t, "http://localhost:9999/gmail/v1", cfg.Gmail.APIBase)
		assert.Equal(t, 10*time.Second, cfg.Gmail.Timeout)
		assert.Equal(t, 4, cfg.Gmail.FetchConcurrency)
		assert.Equal(t, "ya29.test-token", cfg.Connector.GmailStaticToken)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.True(t, cfg.Log.Development)
		assert.Equal(t, "/var/log/mailbridge/api.log", cfg.Log.File)
	})

	t.Run("默认JWT密钥被拒绝", func(t *testing.T) {
		os.Unsetenv("MAILBRIDGE_JWT_SECRET")

		_, err := Load()

		assert.Error(t, err)
	})

	t.Run("过短JWT密钥被拒绝", func(t *testing.T) {
		os.Setenv("MAILBRIDGE_JWT_SECRET", "short")

		_, err := Load()

		assert.Error(t, err)
	})
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseList("a, b"))
	assert.Equal(t, []string{"https://crm.example.com"}, parseList("https://crm.example.com"))
	assert.Empty(t, parseList(" , "))
}
