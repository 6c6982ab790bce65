package storage

import (
	"errors"
	"time"

	"mailbridge/backend/internal/domain"
)

var (
	// ErrUserNotFound 用户未找到错误
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists 用户已存在错误
	ErrUserExists = errors.New("user already exists")
	// ErrTokenNotFound 连接器令牌未找到错误
	ErrTokenNotFound = errors.New("connector token not found")
	// ErrArchiveNotFound 归档记录未找到错误
	ErrArchiveNotFound = errors.New("archived message not found")
)

// UserRepository 定义用户数据存取操作。
type UserRepository interface {
	CreateUser(user *domain.User) error
	GetUserByID(id string) (*domain.User, error)
	GetUserByEmail(email string) (*domain.User, error)
	UpdateUser(user *domain.User) error
	UpdateLastLogin(userID string) error
}

// TokenRepository 定义连接器令牌数据存取操作。
type TokenRepository interface {
	SaveConnectorToken(token *domain.ConnectorToken) error
	GetConnectorToken(userID, connector string) (*domain.ConnectorToken, error)
	DeleteConnectorToken(userID, connector string) error
}

// ArchiveRepository 定义邮件归档数据存取操作。
type ArchiveRepository interface {
	SaveArchivedMessage(msg *domain.ArchivedMessage) error
	GetArchivedMessage(userID, gmailID string) (*domain.ArchivedMessage, error)
	ListArchivedMessages(userID string, page, pageSize int) ([]domain.ArchivedMessage, int64, error)
	DeleteArchivedMessage(userID, gmailID string) error
}

// RateLimitRepository 定义限流计数操作。
type RateLimitRepository interface {
	// IncrementRateLimit 在窗口内自增并返回当前计数，窗口到期后计数归零。
	IncrementRateLimit(key string, window time.Duration) (int64, error)
}

// Store 定义完整的存储接口。
type Store interface {
	UserRepository
	TokenRepository
	ArchiveRepository

	// 工具方法
	Close() error
	Health() error
}
