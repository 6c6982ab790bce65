package httptransport

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailbridge/backend/internal/domain"
	"mailbridge/backend/internal/service"
	"mailbridge/backend/internal/storage"
)

// ArchiveHandler 处理邮件归档相关的 HTTP 请求
type ArchiveHandler struct {
	archive *service.ArchiveService
	log     *zap.Logger
}

// NewArchiveHandler 创建归档处理器
func NewArchiveHandler(archive *service.ArchiveService, log *zap.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		archive: archive,
		log:     log,
	}
}

type archiveRequest struct {
	Message domain.Message `json:"message" binding:"required"`
}

// Archive 归档一封已归一化的邮件
func (h *ArchiveHandler) Archive(c *gin.Context) {
	var req archiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}
	if req.Message.GmailID == "" {
		BadRequest(c, "缺少 gmail_id")
		return
	}

	userID := c.GetString("userID")

	archived, err := h.archive.Archive(userID, req.Message)
	if err != nil {
		h.log.Error("archive failed", zap.Error(err), zap.String("user_id", userID))
		InternalError(c, MsgArchiveFailed)
		return
	}

	Created(c, archived)
}

// List 分页列出当前用户的归档邮件
func (h *ArchiveHandler) List(c *gin.Context) {
	userID := c.GetString("userID")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	messages, total, err := h.archive.List(userID, page, pageSize)
	if err != nil {
		h.log.Error("list archives failed", zap.Error(err), zap.String("user_id", userID))
		InternalError(c, MsgArchiveListFail)
		return
	}

	Success(c, gin.H{
		"messages": messages,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// Get 获取一条归档记录
func (h *ArchiveHandler) Get(c *gin.Context) {
	userID := c.GetString("userID")
	gmailID := c.Param("gmailId")

	archived, err := h.archive.Get(userID, gmailID)
	if err != nil {
		if errors.Is(err, storage.ErrArchiveNotFound) {
			NotFound(c, MsgArchiveNotFound)
			return
		}
		InternalError(c, MsgInternalError)
		return
	}

	Success(c, archived)
}

// Delete 删除一条归档记录
func (h *ArchiveHandler) Delete(c *gin.Context) {
	userID := c.GetString("userID")
	gmailID := c.Param("gmailId")

	if err := h.archive.Delete(userID, gmailID); err != nil {
		if errors.Is(err, storage.ErrArchiveNotFound) {
			NotFound(c, MsgArchiveNotFound)
			return
		}
		h.log.Error("delete archive failed", zap.Error(err), zap.String("user_id", userID))
		InternalError(c, MsgArchiveDelFailed)
		return
	}

	NoContent(c)
}
