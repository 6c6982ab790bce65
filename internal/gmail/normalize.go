package gmail

import (
	"encoding/base64"
	"regexp"
	"strconv"
	"strings"
	"time"

	"mailbridge/backend/internal/domain"
)

// fromPattern 匹配 "Display Name <addr@example.com>" 形式的 From 头。
// 不做 RFC 5322 级别的解析，多地址头整体落入原样回退分支。
var fromPattern = regexp.MustCompile(`(.*)<(.*)>`)

// Normalize 把一封原始 Gmail 邮件归一化为扁平记录。
//
// 头部只检查最外层 payload；正文取 MIME 树中第一个可用的文本部分；
// 附件收集整棵树上所有分离存储的节点的元数据。
func Normalize(raw *RawMessage) domain.Message {
	fromName, fromEmail := parseSender(getHeader(raw.Payload, "From"))
	attachments := extractAttachments(raw.Payload)

	labels := raw.LabelIDs
	if labels == nil {
		labels = []string{}
	}

	return domain.Message{
		GmailID:        raw.ID,
		ThreadID:       raw.ThreadID,
		Subject:        getHeader(raw.Payload, "Subject"),
		FromEmail:      fromEmail,
		FromName:       fromName,
		ToEmail:        getHeader(raw.Payload, "To"),
		Snippet:        raw.Snippet,
		Body:           extractBody(raw.Payload),
		ReceivedDate:   formatInternalDate(raw.InternalDate),
		Labels:         labels,
		HasAttachments: len(attachments) > 0,
		Attachments:    attachments,
	}
}

// getHeader 在最外层 payload 的头部数组中做大小写不敏感查找。
//
// 嵌套 MIME 部分的头部不参与查找；未命中返回空字符串。
func getHeader(payload *MimePart, name string) string {
	if payload == nil {
		return ""
	}
	for _, h := range payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// parseSender 拆分 From 头为显示名与地址。
//
// 显示名去掉首尾引号并 trim；没有尖括号地址的头（裸地址）
// 把原始字符串同时作为显示名与地址返回。
func parseSender(header string) (name, email string) {
	m := fromPattern.FindStringSubmatch(header)
	if m == nil {
		return header, header
	}
	name = strings.TrimSpace(strings.Trim(strings.TrimSpace(m[1]), `"`))
	email = strings.TrimSpace(m[2])
	return name, email
}

// extractBody 深度优先提取第一个可用的文本正文。
//
// 规则：
//  1. 节点自身携带内联数据时直接解码返回，不检查 mimeType；
//  2. 否则按顺序扫描子节点：mimeType 恰为 text/plain 或 text/html
//     且携带内联数据的子节点胜出；
//  3. 子节点没有内联数据但有下级 parts 时，先递归再看下一个兄弟；
//  4. 整棵树都没有可用文本时返回空字符串。
//
// text/html 与 text/plain 同等对待，解码结果原样返回，不剥离标签。
func extractBody(part *MimePart) string {
	if part == nil {
		return ""
	}
	if part.hasData() {
		return decodeBase64URL(part.Body.Data)
	}
	for _, child := range part.Parts {
		if child.hasData() && (child.MimeType == "text/plain" || child.MimeType == "text/html") {
			return decodeBase64URL(child.Body.Data)
		}
		if !child.hasData() && len(child.Parts) > 0 {
			if body := extractBody(child); body != "" {
				return body
			}
		}
	}
	return ""
}

// extractAttachments 收集整棵 MIME 树中的附件元数据。
//
// 判定条件：节点同时携带非空 Filename 和 Body.AttachmentID
// （即 Gmail 把内容做了分离存储）。不抓取附件内容本身。
func extractAttachments(payload *MimePart) []domain.Attachment {
	attachments := make([]domain.Attachment, 0)
	walkParts(payload, func(p *MimePart) {
		if p.Filename != "" && p.Body != nil && p.Body.AttachmentID != "" {
			attachments = append(attachments, domain.Attachment{
				Filename: p.Filename,
				MimeType: p.MimeType,
				Size:     p.Body.Size,
			})
		}
	})
	return attachments
}

// walkParts 深度优先遍历 MIME 树，对每个节点调用 fn。
func walkParts(part *MimePart, fn func(*MimePart)) {
	if part == nil {
		return
	}
	fn(part)
	for _, sub := range part.Parts {
		walkParts(sub, fn)
	}
}

// decodeBase64URL 解码 Gmail 的 base64url 内容。
//
// 先把 '-'/'_' 翻译为标准字母表的 '+'/'/' 并补齐 padding，
// 再做标准 base64 解码；解码失败返回空字符串而不是报错。
func decodeBase64URL(data string) string {
	if data == "" {
		return ""
	}
	normalized := strings.NewReplacer("-", "+", "_", "/").Replace(data)
	if m := len(normalized) % 4; m != 0 {
		normalized += strings.Repeat("=", 4-m)
	}
	decoded, err := base64.StdEncoding.DecodeString(normalized)
	if err != nil {
		return ""
	}
	return string(decoded)
}

// formatInternalDate 把 epoch 毫秒字符串转为 RFC3339（毫秒精度，UTC）。
//
// 例如 "1700000000000" -> "2023-11-14T22:13:20.000Z"。
// 无法解析时返回空字符串。
func formatInternalDate(internalDate string) string {
	ms, err := strconv.ParseInt(internalDate, 10, 64)
	if err != nil {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
