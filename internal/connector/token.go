package connector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mailbridge/backend/internal/config"
	"mailbridge/backend/internal/storage"
	redisclient "mailbridge/backend/internal/storage/redis"
)

// ConnectorGmail Gmail 连接器名称
const ConnectorGmail = "gmail"

// ErrNoToken 表示用户没有可用的连接器令牌（未授权或已过期）。
var ErrNoToken = errors.New("no usable connector token")

// TokenSource 为出站调用提供某个用户当前有效的访问令牌。
type TokenSource interface {
	AccessToken(ctx context.Context, userID string) (string, error)
}

// Provider 是 TokenSource 的默认实现。
//
// 取令牌顺序：静态令牌（开发环境） > Redis 缓存 > 数据库。
// 令牌的签发与刷新由外部 OAuth 服务负责，这里只做读取与缓存。
type Provider struct {
	tokens   storage.TokenRepository
	cache    *redisclient.Client // 可为 nil，此时直接读库
	static   string
	cacheTTL time.Duration
	log      *zap.Logger
}

// NewProvider 创建令牌提供者。cache 传 nil 表示不启用缓存。
func NewProvider(cfg *config.ConnectorConfig, tokens storage.TokenRepository, cache *redisclient.Client, log *zap.Logger) *Provider {
	return &Provider{
		tokens:   tokens,
		cache:    cache,
		static:   cfg.GmailStaticToken,
		cacheTTL: cfg.TokenCacheTTL,
		log:      log,
	}
}

// AccessToken 返回用户当前的 Gmail 访问令牌。
//
// 用户没有令牌或令牌已过期时返回 ErrNoToken，调用方据此回应 401。
func (p *Provider) AccessToken(ctx context.Context, userID string) (string, error) {
	if p.static != "" {
		return p.static, nil
	}

	cacheKey := fmt.Sprintf("connector:token:%s:%s", ConnectorGmail, userID)
	if p.cache != nil {
		cached, err := p.cache.Get(ctx, cacheKey)
		if err == nil && cached != "" {
			return cached, nil
		}
		if err != nil && !redisclient.IsNil(err) {
			// 缓存故障不影响主路径
			p.log.Warn("token cache read failed", zap.Error(err))
		}
	}

	token, err := p.tokens.GetConnectorToken(userID, ConnectorGmail)
	if errors.Is(err, storage.ErrTokenNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("load connector token: %w", err)
	}
	if token.Expired(time.Now()) {
		return "", ErrNoToken
	}

	if p.cache != nil {
		ttl := p.cacheTTL
		if !token.ExpiresAt.IsZero() {
			if remaining := time.Until(token.ExpiresAt); remaining < ttl {
				ttl = remaining
			}
		}
		if ttl > 0 {
			if err := p.cache.Set(ctx, cacheKey, token.AccessToken, ttl); err != nil {
				p.log.Warn("token cache write failed", zap.Error(err))
			}
		}
	}

	return token.AccessToken, nil
}
