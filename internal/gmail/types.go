package gmail

// 本文件定义 Gmail REST API 的原始 JSON 形状。
// 字段与 https://gmail.googleapis.com/gmail/v1 的响应一一对应，
// 只声明本系统用到的部分。

// ListResponse 是 users/me/messages 列表接口的响应。
type ListResponse struct {
	Messages           []MessageRef `json:"messages"`
	NextPageToken      string       `json:"nextPageToken"`
	ResultSizeEstimate int64        `json:"resultSizeEstimate"`
}

// MessageRef 是列表接口返回的邮件引用，只含 ID。
type MessageRef struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

// RawMessage 是 users/me/messages/{id}?format=full 的完整邮件表示。
type RawMessage struct {
	ID           string    `json:"id"`
	ThreadID     string    `json:"threadId"`
	Snippet      string    `json:"snippet"`
	InternalDate string    `json:"internalDate"` // epoch 毫秒，字符串形式
	LabelIDs     []string  `json:"labelIds"`
	Payload      *MimePart `json:"payload"`
}

// MimePart 是 MIME 树中的一个节点。
//
// 不变式：节点要么携带内联的 Body.Data，要么把内容委托给子 Parts；
// 附件节点携带 Filename + Body.AttachmentID，内容不内联。
type MimePart struct {
	MimeType string      `json:"mimeType"`
	Filename string      `json:"filename,omitempty"`
	Headers  []Header    `json:"headers,omitempty"`
	Body     *PartBody   `json:"body,omitempty"`
	Parts    []*MimePart `json:"parts,omitempty"`
}

// Header 是邮件头的键值对。
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PartBody 是节点的内容描述。
type PartBody struct {
	Data         string `json:"data,omitempty"` // base64url 编码的内联内容
	Size         int64  `json:"size,omitempty"`
	AttachmentID string `json:"attachmentId,omitempty"` // 内容分离存储时的附件句柄
}

// hasData 判断节点是否携带内联内容。
func (p *MimePart) hasData() bool {
	return p != nil && p.Body != nil && p.Body.Data != ""
}
