package domain

import "time"

// ConnectorToken 表示某个用户在第三方连接器（如 "gmail"）上的访问令牌。
//
// 令牌的刷新与授权流程由外部的 OAuth 服务负责，
// 本系统只读取当前有效的 access token。
type ConnectorToken struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID      string    `json:"userId" gorm:"type:varchar(36);uniqueIndex:idx_user_connector;not null"`
	Connector   string    `json:"connector" gorm:"type:varchar(50);uniqueIndex:idx_user_connector;not null"` // 连接器名，如 "gmail"
	AccessToken string    `json:"-" gorm:"type:text"`                                                        // 不返回给前端
	ExpiresAt   time.Time `json:"expiresAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Expired 判断令牌是否已过期
func (t *ConnectorToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}
