package connector

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailbridge/backend/internal/config"
	"mailbridge/backend/internal/domain"
	"mailbridge/backend/internal/storage/memory"
)

func newProvider(static string) (*Provider, *memory.Store) {
	store := memory.NewStore()
	cfg := &config.ConnectorConfig{
		GmailStaticToken: static,
		TokenCacheTTL:    5 * time.Minute,
	}
	return NewProvider(cfg, store, nil, zap.NewNop()), store
}

func TestAccessToken(t *testing.T) {
	ctx := context.Background()

	t.Run("静态令牌优先于数据库", func(t *testing.T) {
		provider, _ := newProvider("static-dev-token")

		token, err := provider.AccessToken(ctx, "any-user")
		require.NoError(t, err)
		assert.Equal(t, "static-dev-token", token)
	})

	t.Run("从数据库读取有效令牌", func(t *testing.T) {
		provider, store := newProvider("")
		userID := uuid.NewString()
		require.NoError(t, store.SaveConnectorToken(&domain.ConnectorToken{
			ID:          uuid.NewString(),
			UserID:      userID,
			Connector:   ConnectorGmail,
			AccessToken: "ya29.live",
			ExpiresAt:   time.Now().Add(time.Hour),
		}))

		token, err := provider.AccessToken(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "ya29.live", token)
	})

	t.Run("无令牌返回ErrNoToken", func(t *testing.T) {
		provider, _ := newProvider("")

		_, err := provider.AccessToken(ctx, "unknown-user")
		assert.ErrorIs(t, err, ErrNoToken)
	})

	t.Run("过期令牌返回ErrNoToken", func(t *testing.T) {
		provider, store := newProvider("")
		userID := uuid.NewString()
		require.NoError(t, store.SaveConnectorToken(&domain.ConnectorToken{
			ID:          uuid.NewString(),
			UserID:      userID,
			Connector:   ConnectorGmail,
			AccessToken: "ya29.stale",
			ExpiresAt:   time.Now().Add(-time.Minute),
		}))

		_, err := provider.AccessToken(ctx, userID)
		assert.ErrorIs(t, err, ErrNoToken)
	})

	t.Run("零值过期时间视为长期有效", func(t *testing.T) {
		provider, store := newProvider("")
		userID := uuid.NewString()
		require.NoError(t, store.SaveConnectorToken(&domain.ConnectorToken{
			ID:          uuid.NewString(),
			UserID:      userID,
			Connector:   ConnectorGmail,
			AccessToken: "ya29.forever",
		}))

		token, err := provider.AccessToken(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "ya29.forever", token)
	})
}
