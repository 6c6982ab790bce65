package memory

import (
	"sort"
	"sync"
	"time"

	"mailbridge/backend/internal/domain"
	"mailbridge/backend/internal/storage"
)

// Store 使用内存保存用户、令牌与归档数据，主要用于开发验证与测试。
type Store struct {
	mu       sync.RWMutex
	users    map[string]*domain.User           // userID -> user
	byEmail  map[string]string                 // email -> userID
	tokens   map[string]*domain.ConnectorToken // "userID:connector" -> token
	archives map[string]*domain.ArchivedMessage // "userID:gmailID" -> archived
}

// NewStore 创建一个内存存储实例。
func NewStore() *Store {
	return &Store{
		users:    make(map[string]*domain.User),
		byEmail:  make(map[string]string),
		tokens:   make(map[string]*domain.ConnectorToken),
		archives: make(map[string]*domain.ArchivedMessage),
	}
}

// CreateUser 创建用户，邮箱重复时返回 ErrUserExists。
func (s *Store) CreateUser(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[user.Email]; ok {
		return storage.ErrUserExists
	}
	s.users[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return nil
}

// GetUserByID 根据 ID 获取用户。
func (s *Store) GetUserByID(id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

// GetUserByEmail 根据邮箱获取用户。
func (s *Store) GetUserByEmail(email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return s.users[id], nil
}

// UpdateUser 更新用户信息。
func (s *Store) UpdateUser(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.users[user.ID]
	if !ok {
		return storage.ErrUserNotFound
	}
	if old.Email != user.Email {
		delete(s.byEmail, old.Email)
		s.byEmail[user.Email] = user.ID
	}
	user.UpdatedAt = time.Now()
	s.users[user.ID] = user
	return nil
}

// UpdateLastLogin 记录用户最近登录时间。
func (s *Store) UpdateLastLogin(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	now := time.Now()
	user.LastLoginAt = &now
	return nil
}

// SaveConnectorToken 保存连接器令牌，同一 (userID, connector) 覆盖旧值。
func (s *Store) SaveConnectorToken(token *domain.ConnectorToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token.UpdatedAt = time.Now()
	s.tokens[token.UserID+":"+token.Connector] = token
	return nil
}

// GetConnectorToken 获取用户在某个连接器上的令牌。
func (s *Store) GetConnectorToken(userID, connector string) (*domain.ConnectorToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[userID+":"+connector]
	if !ok {
		return nil, storage.ErrTokenNotFound
	}
	return token, nil
}

// DeleteConnectorToken 删除连接器令牌。
func (s *Store) DeleteConnectorToken(userID, connector string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := userID + ":" + connector
	if _, ok := s.tokens[key]; !ok {
		return storage.ErrTokenNotFound
	}
	delete(s.tokens, key)
	return nil
}

// SaveArchivedMessage 保存归档邮件，按 (userID, gmailID) 幂等覆盖。
func (s *Store) SaveArchivedMessage(msg *domain.ArchivedMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.archives[msg.UserID+":"+msg.Message.GmailID] = msg
	return nil
}

// GetArchivedMessage 获取一条归档记录。
func (s *Store) GetArchivedMessage(userID, gmailID string) (*domain.ArchivedMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.archives[userID+":"+gmailID]
	if !ok {
		return nil, storage.ErrArchiveNotFound
	}
	return msg, nil
}

// ListArchivedMessages 分页列出某用户的归档邮件，按归档时间倒序。
func (s *Store) ListArchivedMessages(userID string, page, pageSize int) ([]domain.ArchivedMessage, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.ArchivedMessage, 0)
	for _, msg := range s.archives {
		if msg.UserID == userID {
			all = append(all, *msg)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].ArchivedAt.After(all[j].ArchivedAt)
	})

	total := int64(len(all))
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []domain.ArchivedMessage{}, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// DeleteArchivedMessage 删除一条归档记录。
func (s *Store) DeleteArchivedMessage(userID, gmailID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := userID + ":" + gmailID
	if _, ok := s.archives[key]; !ok {
		return storage.ErrArchiveNotFound
	}
	delete(s.archives, key)
	return nil
}

// Close 关闭存储（内存实现为空操作）。
func (s *Store) Close() error { return nil }

// Health 健康检查（内存实现始终健康）。
func (s *Store) Health() error { return nil }
