package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailbridge/backend/internal/domain"
	"mailbridge/backend/internal/storage"
	"mailbridge/backend/internal/storage/memory"
)

// recordingPublisher 记录推送的事件。
type recordingPublisher struct {
	mu     sync.Mutex
	events []interface{}
}

func (p *recordingPublisher) PublishToUser(userID string, event interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func TestArchive(t *testing.T) {
	publisher := &recordingPublisher{}
	svc := NewArchiveService(memory.NewStore(), publisher, nil, zap.NewNop())

	msg := domain.Message{
		GmailID: "m1",
		Subject: "江景两居室报价",
		Labels:  []string{"INBOX"},
	}

	t.Run("归档成功并推送事件", func(t *testing.T) {
		archived, err := svc.Archive("user-1", msg)
		require.NoError(t, err)
		assert.NotEmpty(t, archived.ID)
		assert.Equal(t, "user-1", archived.UserID)
		assert.False(t, archived.ArchivedAt.IsZero())

		require.Len(t, publisher.events, 1)
		event, ok := publisher.events[0].(ArchiveEvent)
		require.True(t, ok)
		assert.Equal(t, "message_archived", event.Type)
		assert.Equal(t, "m1", event.Message.GmailID)
	})

	t.Run("重复归档幂等", func(t *testing.T) {
		_, err := svc.Archive("user-1", msg)
		require.NoError(t, err)

		list, total, err := svc.List("user-1", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, list, 1)
	})

	t.Run("缺少gmailID被拒绝", func(t *testing.T) {
		_, err := svc.Archive("user-1", domain.Message{})
		assert.Error(t, err)
	})

	t.Run("按用户隔离", func(t *testing.T) {
		_, total, err := svc.List("user-2", 1, 10)
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("删除归档", func(t *testing.T) {
		require.NoError(t, svc.Delete("user-1", "m1"))
		_, err := svc.Get("user-1", "m1")
		assert.ErrorIs(t, err, storage.ErrArchiveNotFound)
	})
}
