package httptransport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailbridge/backend/internal/connector"
	"mailbridge/backend/internal/gmail"
	"mailbridge/backend/internal/service"
)

// InboxHandler 处理 Gmail 邮件拉取请求。
//
// 这个端点直接面向前端收件箱组件，响应体是前端约定的扁平格式，
// 不套统一响应信封。
type InboxHandler struct {
	inbox *service.InboxService
	log   *zap.Logger
}

// NewInboxHandler 创建收件箱处理器
func NewInboxHandler(inbox *service.InboxService, log *zap.Logger) *InboxHandler {
	return &InboxHandler{
		inbox: inbox,
		log:   log,
	}
}

type fetchRequest struct {
	MaxResults int    `json:"maxResults"`
	Query      string `json:"query"`
	PageToken  string `json:"pageToken"`
}

// Fetch 拉取一页 Gmail 邮件并返回归一化记录。
//
// 成功返回 200 {"messages": [...], "nextPageToken": "..."}；
// 没有可用的 Gmail 令牌返回 401 {"error": "Unauthorized"}；
// 上游或内部错误返回 500 {"error": "<说明>"}。
func (h *InboxHandler) Fetch(c *gin.Context) {
	var req fetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	userID := c.GetString("userID")

	result, err := h.inbox.FetchPage(c.Request.Context(), userID, service.FetchInput{
		MaxResults: req.MaxResults,
		Query:      req.Query,
		PageToken:  req.PageToken,
	})
	if err != nil {
		if errors.Is(err, connector.ErrNoToken) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var upstream *gmail.UpstreamError
		if errors.As(err, &upstream) {
			h.log.Error("gmail upstream error",
				zap.Int("status", upstream.StatusCode),
				zap.String("user_id", userID),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": upstream.Error()})
			return
		}

		h.log.Error("fetch page failed", zap.Error(err), zap.String("user_id", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
