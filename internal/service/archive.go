package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mailbridge/backend/internal/domain"
	"mailbridge/backend/internal/monitoring"
	"mailbridge/backend/internal/storage"
)

// EventPublisher 把业务事件推给在线客户端（如 WebSocket 集线器）。
type EventPublisher interface {
	PublishToUser(userID string, event interface{})
}

// ArchiveService 负责把归一化后的邮件落库归档。
type ArchiveService struct {
	archives  storage.ArchiveRepository
	publisher EventPublisher // 可为 nil
	metrics   *monitoring.Metrics
	log       *zap.Logger
}

// NewArchiveService 创建归档服务。
func NewArchiveService(archives storage.ArchiveRepository, publisher EventPublisher, metrics *monitoring.Metrics, log *zap.Logger) *ArchiveService {
	return &ArchiveService{
		archives:  archives,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
	}
}

// ArchiveEvent 归档完成后推送给客户端的事件。
type ArchiveEvent struct {
	Type    string         `json:"type"`
	Message domain.Message `json:"message"`
}

// Archive 归档一封邮件，按 (userID, gmailID) 幂等。
func (s *ArchiveService) Archive(userID string, msg domain.Message) (*domain.ArchivedMessage, error) {
	if msg.GmailID == "" {
		return nil, fmt.Errorf("message has no gmail id")
	}

	archived := &domain.ArchivedMessage{
		ID:         uuid.NewString(),
		UserID:     userID,
		Message:    msg,
		ArchivedAt: time.Now().UTC(),
	}
	if err := s.archives.SaveArchivedMessage(archived); err != nil {
		return nil, fmt.Errorf("save archived message: %w", err)
	}

	if s.metrics != nil {
		s.metrics.MessagesArchived.Inc()
	}
	s.log.Info("message archived",
		zap.String("user_id", userID),
		zap.String("gmail_id", msg.GmailID),
	)

	if s.publisher != nil {
		s.publisher.PublishToUser(userID, ArchiveEvent{
			Type:    "message_archived",
			Message: msg,
		})
	}

	return archived, nil
}

// Get 获取一条归档记录。
func (s *ArchiveService) Get(userID, gmailID string) (*domain.ArchivedMessage, error) {
	return s.archives.GetArchivedMessage(userID, gmailID)
}

// List 分页列出某用户的归档邮件。
func (s *ArchiveService) List(userID string, page, pageSize int) ([]domain.ArchivedMessage, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.archives.ListArchivedMessages(userID, page, pageSize)
}

// Delete 删除一条归档记录。
func (s *ArchiveService) Delete(userID, gmailID string) error {
	return s.archives.DeleteArchivedMessage(userID, gmailID)
}
