package domain

// Attachment 表示邮件附件的元数据（不含内容）。
//
// Gmail 对附件内容做了分离存储，抓取阶段只保留元数据，
// 内容按需通过独立的 attachmentId 接口获取（本系统不获取）。
type Attachment struct {
	Filename string `json:"filename"` // 文件名
	MimeType string `json:"mimeType"` // MIME类型
	Size     int64  `json:"size"`     // 大小（字节）
}
