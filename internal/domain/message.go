package domain

import "time"

// Message 表示一封从 Gmail 拉取并归一化后的邮件记录。
//
// JSON 字段名与后台前端约定的扁平格式保持一致（snake_case），
// gorm 标签仅在归档落库时生效，抓取路径本身不持久化任何内容。
type Message struct {
	GmailID        string       `json:"gmail_id" gorm:"primaryKey;type:varchar(32)"`
	ThreadID       string       `json:"thread_id" gorm:"type:varchar(32);index"`
	Subject        string       `json:"subject" gorm:"type:varchar(500)"`
	FromEmail      string       `json:"from_email" gorm:"type:varchar(255);index"`
	FromName       string       `json:"from_name" gorm:"type:varchar(255)"`
	ToEmail        string       `json:"to_email" gorm:"type:varchar(255)"`
	Snippet        string       `json:"snippet" gorm:"type:varchar(1000)"`
	Body           string       `json:"body" gorm:"type:text"`
	ReceivedDate   string       `json:"received_date" gorm:"type:varchar(32)"` // RFC3339 毫秒精度，UTC
	Labels         []string     `json:"labels" gorm:"serializer:json"`
	HasAttachments bool         `json:"has_attachments"`
	Attachments    []Attachment `json:"attachments" gorm:"serializer:json"`
}

// ArchivedMessage 表示归档到 CRM 数据库中的邮件。
type ArchivedMessage struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string    `json:"userId" gorm:"type:varchar(36);index;not null"`
	Message    Message   `json:"message" gorm:"embedded"`
	ArchivedAt time.Time `json:"archivedAt"`
}
