package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars-long"

func TestGenerateAndValidate(t *testing.T) {
	manager := NewManager(testSecret, "mailbridge", 15*time.Minute, 7*24*time.Hour)

	pair, err := manager.GenerateTokenPair("user-1", "agent@brokerage.example.com", "user")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	t.Run("访问令牌验证通过", func(t *testing.T) {
		claims, err := manager.ValidateToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, "agent@brokerage.example.com", claims.Email)
		assert.Equal(t, "user", claims.Role)
		assert.Equal(t, "mailbridge", claims.Issuer)
	})

	t.Run("错误密钥签发的令牌被拒绝", func(t *testing.T) {
		other := NewManager("another-secret-key-at-least-32-chars", "mailbridge", time.Minute, time.Hour)
		forged, err := other.GenerateTokenPair("user-1", "x@example.com", "admin")
		require.NoError(t, err)

		_, err = manager.ValidateToken(forged.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("过期令牌返回ErrExpiredToken", func(t *testing.T) {
		expired := NewManager(testSecret, "mailbridge", -time.Minute, time.Hour)
		pair, err := expired.GenerateTokenPair("user-1", "x@example.com", "user")
		require.NoError(t, err)

		_, err = manager.ValidateToken(pair.AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("非法字符串返回ErrInvalidToken", func(t *testing.T) {
		_, err := manager.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestRefreshAccessToken(t *testing.T) {
	manager := NewManager(testSecret, "mailbridge", 15*time.Minute, 7*24*time.Hour)

	pair, err := manager.GenerateTokenPair("user-2", "broker@brokerage.example.com", "admin")
	require.NoError(t, err)

	t.Run("刷新令牌换取新访问令牌", func(t *testing.T) {
		newToken, err := manager.RefreshAccessToken(pair.RefreshToken)
		require.NoError(t, err)

		claims, err := manager.ValidateToken(newToken)
		require.NoError(t, err)
		assert.Equal(t, "user-2", claims.UserID)
		assert.Equal(t, "admin", claims.Role)
	})

	t.Run("非法刷新令牌被拒绝", func(t *testing.T) {
		_, err := manager.RefreshAccessToken("garbage")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
