package httptransport

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailbridge/backend/internal/notify"
)

// NotifyHandler 处理通知邮件外发请求（仅管理员）
type NotifyHandler struct {
	mailer *notify.Mailer
	log    *zap.Logger
}

// NewNotifyHandler 创建通知处理器
func NewNotifyHandler(mailer *notify.Mailer, log *zap.Logger) *NotifyHandler {
	return &NotifyHandler{
		mailer: mailer,
		log:    log,
	}
}

type broadcastRequest struct {
	To      []string `json:"to" binding:"required,min=1"`
	Subject string   `json:"subject" binding:"required"`
	Body    string   `json:"body" binding:"required"`
}

// Broadcast 把一封通知邮件异步发给多个收件人
func (h *NotifyHandler) Broadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	queued, err := h.mailer.Broadcast(req.To, req.Subject, req.Body)
	if err != nil {
		if errors.Is(err, notify.ErrDisabled) {
			Conflict(c, MsgNotifyDisabled)
			return
		}
		h.log.Error("broadcast failed", zap.Error(err))
		InternalError(c, MsgNotifyFailed)
		return
	}

	Success(c, gin.H{
		"queued": queued,
		"total":  len(req.To),
	})
}
