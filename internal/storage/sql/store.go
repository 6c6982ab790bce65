package sql

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mailbridge/backend/internal/domain"
	"mailbridge/backend/internal/storage"
)

// Store SQL 数据库存储实现（支持 MySQL 5.7+ 和 PostgreSQL）
type Store struct {
	db         *sql.DB
	gormDB     *gorm.DB
	driverName string // "mysql" or "postgres"
}

// NewStore 创建SQL数据库存储
func NewStore(
	driverName string,
	dsn string,
	maxOpenConns int,
	maxIdleConns int,
	connMaxLifetime time.Duration,
) (*Store, error) {
	if driverName != "mysql" && driverName != "postgres" {
		return nil, fmt.Errorf("unsupported database driver: %s (supported: mysql, postgres)", driverName)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var gormDB *gorm.DB
	switch driverName {
	case "mysql":
		gormDB, err = gorm.Open(mysql.New(mysql.Config{Conn: db}), gormConfig)
	case "postgres":
		gormDB, err = gorm.Open(postgres.New(postgres.Config{Conn: db}), gormConfig)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize GORM: %w", err)
	}

	store := &Store{
		db:         db,
		gormDB:     gormDB,
		driverName: driverName,
	}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Health 检查数据库健康状态
func (s *Store) Health() error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.db.Ping()
}

// migrate 执行数据库迁移（使用GORM AutoMigrate）
func (s *Store) migrate() error {
	return s.gormDB.AutoMigrate(
		&domain.User{},
		&domain.ConnectorToken{},
		&domain.ArchivedMessage{},
	)
}

// CreateUser 创建用户
func (s *Store) CreateUser(user *domain.User) error {
	var count int64
	if err := s.gormDB.Model(&domain.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return fmt.Errorf("check user exists: %w", err)
	}
	if count > 0 {
		return storage.ErrUserExists
	}
	if err := s.gormDB.Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUserByID 根据 ID 获取用户
func (s *Store) GetUserByID(id string) (*domain.User, error) {
	var user domain.User
	err := s.gormDB.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail 根据邮箱获取用户
func (s *Store) GetUserByEmail(email string) (*domain.User, error) {
	var user domain.User
	err := s.gormDB.First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user by email: %w", err)
	}
	return &user, nil
}

// UpdateUser 更新用户信息
func (s *Store) UpdateUser(user *domain.User) error {
	result := s.gormDB.Model(&domain.User{}).Where("id = ?", user.ID).Updates(user)
	if result.Error != nil {
		return fmt.Errorf("update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return storage.ErrUserNotFound
	}
	return nil
}

// UpdateLastLogin 记录用户最近登录时间
func (s *Store) UpdateLastLogin(userID string) error {
	result := s.gormDB.Model(&domain.User{}).
		Where("id = ?", userID).
		Update("last_login_at", time.Now().UTC())
	if result.Error != nil {
		return fmt.Errorf("update last login: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return storage.ErrUserNotFound
	}
	return nil
}

// SaveConnectorToken 保存连接器令牌（同一用户同一连接器覆盖旧值）
func (s *Store) SaveConnectorToken(token *domain.ConnectorToken) error {
	token.UpdatedAt = time.Now().UTC()

	var existing domain.ConnectorToken
	err := s.gormDB.First(&existing, "user_id = ? AND connector = ?", token.UserID, token.Connector).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.gormDB.Create(token).Error; err != nil {
			return fmt.Errorf("create connector token: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("query connector token: %w", err)
	default:
		token.ID = existing.ID
		if err := s.gormDB.Save(token).Error; err != nil {
			return fmt.Errorf("update connector token: %w", err)
		}
		return nil
	}
}

// GetConnectorToken 获取用户在某个连接器上的令牌
func (s *Store) GetConnectorToken(userID, connector string) (*domain.ConnectorToken, error) {
	var token domain.ConnectorToken
	err := s.gormDB.First(&token, "user_id = ? AND connector = ?", userID, connector).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query connector token: %w", err)
	}
	return &token, nil
}

// DeleteConnectorToken 删除连接器令牌
func (s *Store) DeleteConnectorToken(userID, connector string) error {
	result := s.gormDB.Delete(&domain.ConnectorToken{}, "user_id = ? AND connector = ?", userID, connector)
	if result.Error != nil {
		return fmt.Errorf("delete connector token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return storage.ErrTokenNotFound
	}
	return nil
}

// SaveArchivedMessage 保存归档邮件（按 userID + gmailID 幂等覆盖）
func (s *Store) SaveArchivedMessage(msg *domain.ArchivedMessage) error {
	var existing domain.ArchivedMessage
	err := s.gormDB.First(&existing, "user_id = ? AND gmail_id = ?", msg.UserID, msg.Message.GmailID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.gormDB.Create(msg).Error; err != nil {
			return fmt.Errorf("create archived message: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("query archived message: %w", err)
	default:
		msg.ID = existing.ID
		if err := s.gormDB.Save(msg).Error; err != nil {
			return fmt.Errorf("update archived message: %w", err)
		}
		return nil
	}
}

// GetArchivedMessage 获取一条归档记录
func (s *Store) GetArchivedMessage(userID, gmailID string) (*domain.ArchivedMessage, error) {
	var msg domain.ArchivedMessage
	err := s.gormDB.First(&msg, "user_id = ? AND gmail_id = ?", userID, gmailID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrArchiveNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query archived message: %w", err)
	}
	return &msg, nil
}

// ListArchivedMessages 分页列出某用户的归档邮件，按归档时间倒序
func (s *Store) ListArchivedMessages(userID string, page, pageSize int) ([]domain.ArchivedMessage, int64, error) {
	var total int64
	if err := s.gormDB.Model(&domain.ArchivedMessage{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count archived messages: %w", err)
	}

	if page < 1 {
		page = 1
	}
	messages := make([]domain.ArchivedMessage, 0, pageSize)
	err := s.gormDB.
		Where("user_id = ?", userID).
		Order("archived_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&messages).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list archived messages: %w", err)
	}
	return messages, total, nil
}

// DeleteArchivedMessage 删除一条归档记录
func (s *Store) DeleteArchivedMessage(userID, gmailID string) error {
	result := s.gormDB.Delete(&domain.ArchivedMessage{}, "user_id = ? AND gmail_id = ?", userID, gmailID)
	if result.Error != nil {
		return fmt.Errorf("delete archived message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return storage.ErrArchiveNotFound
	}
	return nil
}
