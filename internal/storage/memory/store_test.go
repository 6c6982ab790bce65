package memory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailbridge/backend/internal/domain"
	"mailbridge/backend/internal/storage"
)

func newUser(email string) *domain.User {
	return &domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		Role:      domain.RoleUser,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
}

func TestUserRepository(t *testing.T) {
	store := NewStore()

	t.Run("创建并按ID和邮箱查询", func(t *testing.T) {
		user := newUser("agent@brokerage.example.com")
		require.NoError(t, store.CreateUser(user))

		byID, err := store.GetUserByID(user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, byID.Email)

		byEmail, err := store.GetUserByEmail(user.Email)
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
	})

	t.Run("重复邮箱返回ErrUserExists", func(t *testing.T) {
		err := store.CreateUser(newUser("agent@brokerage.example.com"))
		assert.ErrorIs(t, err, storage.ErrUserExists)
	})

	t.Run("查询不存在的用户", func(t *testing.T) {
		_, err := store.GetUserByID("missing")
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
	})

	t.Run("更新最近登录时间", func(t *testing.T) {
		user := newUser("login@brokerage.example.com")
		require.NoError(t, store.CreateUser(user))
		require.NoError(t, store.UpdateLastLogin(user.ID))

		got, err := store.GetUserByID(user.ID)
		require.NoError(t, err)
		assert.NotNil(t, got.LastLoginAt)
	})
}

func TestTokenRepository(t *testing.T) {
	store := NewStore()
	userID := uuid.NewString()

	t.Run("保存并读取令牌", func(t *testing.T) {
		token := &domain.ConnectorToken{
			ID:          uuid.NewString(),
			UserID:      userID,
			Connector:   "gmail",
			AccessToken: "ya29.token",
			ExpiresAt:   time.Now().Add(time.Hour),
		}
		require.NoError(t, store.SaveConnectorToken(token))

		got, err := store.GetConnectorToken(userID, "gmail")
		require.NoError(t, err)
		assert.Equal(t, "ya29.token", got.AccessToken)
	})

	t.Run("同一用户同一连接器覆盖旧令牌", func(t *testing.T) {
		require.NoError(t, store.SaveConnectorToken(&domain.ConnectorToken{
			ID:          uuid.NewString(),
			UserID:      userID,
			Connector:   "gmail",
			AccessToken: "ya29.rotated",
		}))

		got, err := store.GetConnectorToken(userID, "gmail")
		require.NoError(t, err)
		assert.Equal(t, "ya29.rotated", got.AccessToken)
	})

	t.Run("删除后查询返回ErrTokenNotFound", func(t *testing.T) {
		require.NoError(t, store.DeleteConnectorToken(userID, "gmail"))
		_, err := store.GetConnectorToken(userID, "gmail")
		assert.ErrorIs(t, err, storage.ErrTokenNotFound)
	})
}

func TestArchiveRepository(t *testing.T) {
	store := NewStore()
	userID := uuid.NewString()

	archive := func(gmailID string, at time.Time) *domain.ArchivedMessage {
		return &domain.ArchivedMessage{
			ID:         uuid.NewString(),
			UserID:     userID,
			Message:    domain.Message{GmailID: gmailID, Subject: "subject " + gmailID},
			ArchivedAt: at,
		}
	}

	t.Run("保存与读取", func(t *testing.T) {
		require.NoError(t, store.SaveArchivedMessage(archive("m1", time.Now())))

		got, err := store.GetArchivedMessage(userID, "m1")
		require.NoError(t, err)
		assert.Equal(t, "subject m1", got.Message.Subject)
	})

	t.Run("重复归档幂等", func(t *testing.T) {
		require.NoError(t, store.SaveArchivedMessage(archive("m1", time.Now())))

		list, total, err := store.ListArchivedMessages(userID, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, list, 1)
	})

	t.Run("分页按归档时间倒序", func(t *testing.T) {
		base := time.Now()
		require.NoError(t, store.SaveArchivedMessage(archive("m2", base.Add(time.Minute))))
		require.NoError(t, store.SaveArchivedMessage(archive("m3", base.Add(2*time.Minute))))

		page1, total, err := store.ListArchivedMessages(userID, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, page1, 2)
		assert.Equal(t, "m3", page1[0].Message.GmailID)
		assert.Equal(t, "m2", page1[1].Message.GmailID)

		page2, _, err := store.ListArchivedMessages(userID, 2, 2)
		require.NoError(t, err)
		require.Len(t, page2, 1)
		assert.Equal(t, "m1", page2[0].Message.GmailID)
	})

	t.Run("越界页返回空切片", func(t *testing.T) {
		page, total, err := store.ListArchivedMessages(userID, 9, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Empty(t, page)
	})

	t.Run("删除归档", func(t *testing.T) {
		require.NoError(t, store.DeleteArchivedMessage(userID, "m1"))
		_, err := store.GetArchivedMessage(userID, "m1")
		assert.ErrorIs(t, err, storage.ErrArchiveNotFound)
	})
}
