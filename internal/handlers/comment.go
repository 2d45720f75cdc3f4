package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mengchat/internal/middleware"
	"mengchat/internal/services"
	"mengchat/internal/utils"
)

type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

type addCommentInput struct {
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
	UserID         string `json:"userId"`
}

// Add 添加评论
// 评论没有本地兜底：存储未配置或写入失败都是明确的 503，不做假成功
func (h *CommentHandler) Add(c *gin.Context) {
	var input addCommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		JSONError(c, http.StatusBadRequest, "Invalid data")
		return
	}
	if input.UserID == "" {
		input.UserID = middleware.CurrentUserID(c)
	}

	comment, err := h.commentService.Add(input.ConversationID, input.Content, input.UserID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":    "Missing required fields",
				"required": []string{"conversationId", "content", "userId"},
			})
		case errors.Is(err, services.ErrCommentUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "Comment service unavailable",
				"message": "KV存储未配置，评论功能暂时不可用",
			})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "KV operation failed",
				"message": "评论保存失败，请稍后重试",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"comment": comment,
		"message": "评论添加成功",
	})
}

// List 获取评论列表
// 后端失败一律 200 + 空列表，评论展示不阻塞页面
func (h *CommentHandler) List(c *gin.Context) {
	conversationID := c.Query("conversationId")
	if conversationID == "" {
		JSONError(c, http.StatusBadRequest, "Missing conversationId")
		return
	}
	limit := utils.StringToIntDefault(c.Query("limit"), 50)
	offset := utils.StringToIntDefault(c.Query("offset"), 0)

	comments, total, storage := h.commentService.List(conversationID, limit, offset)
	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"total":    total,
		"storage":  storage,
	})
}
