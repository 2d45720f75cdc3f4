package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mengchat/internal/middleware"
	"mengchat/internal/models"
	"mengchat/internal/services"
	"mengchat/internal/utils"
)

type ConversationHandler struct {
	convService *services.ConversationService
}

func NewConversationHandler(convService *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{convService: convService}
}

// Save 保存对话
// 除入参校验外对前端永远成功：存储失败降级为 storage=local 并带回完整记录
func (h *ConversationHandler) Save(c *gin.Context) {
	var input services.SaveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		JSONError(c, http.StatusBadRequest, "Invalid data")
		return
	}
	if input.UserID == "" {
		input.UserID = middleware.CurrentUserID(c)
	}

	result, err := h.convService.Save(input)
	if err != nil {
		if errors.Is(err, services.ErrInvalidData) {
			JSONError(c, http.StatusBadRequest, "Invalid data")
			return
		}
		// 意外错误也要给前端一份能本地保存的记录，对话不能悄悄丢掉
		log.Printf("保存对话出现意外错误: %v", err)
		conv := &models.Conversation{
			ID:            utils.NewConversationID(),
			CharacterName: input.CharacterName,
			GameName:      input.GameName,
			Title:         input.Title,
			ChatHistory:   input.ChatHistory,
			UserID:        input.UserID,
			IsPublic:      input.IsPublic,
			CreatedAt:     time.Now().UnixMilli(),
			MessageCount:  len(input.ChatHistory),
		}
		c.JSON(http.StatusOK, gin.H{
			"success":        true,
			"conversationId": conv.ID,
			"shareUrl":       "/share/" + conv.ID,
			"storage":        services.StorageLocal,
			"data":           conv,
		})
		return
	}

	resp := gin.H{
		"success":        true,
		"conversationId": result.ConversationID,
		"shareUrl":       result.ShareURL,
		"storage":        result.Storage,
	}
	if result.Data != nil {
		resp["data"] = result.Data
	}
	c.JSON(http.StatusOK, resp)
}

// Get 获取单条对话
func (h *ConversationHandler) Get(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		JSONError(c, http.StatusBadRequest, "Missing id")
		return
	}

	conv, found := h.convService.Get(id)
	if !found {
		JSONError(c, http.StatusNotFound, "Conversation not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conv})
}

// ListPublic 广场公开对话列表
func (h *ConversationHandler) ListPublic(c *gin.Context) {
	limit := utils.StringToIntDefault(c.Query("limit"), 20)
	offset := utils.StringToIntDefault(c.Query("offset"), 0)
	sortBy := c.DefaultQuery("sort", "recent")

	conversations := h.convService.ListPublic(limit, offset, sortBy)
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// ListUser 用户的对话历史
func (h *ConversationHandler) ListUser(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		userID = middleware.CurrentUserID(c)
	}
	limit := utils.StringToIntDefault(c.Query("limit"), 20)
	offset := utils.StringToIntDefault(c.Query("offset"), 0)

	conversations, storage := h.convService.ListUser(userID, limit, offset)
	c.JSON(http.StatusOK, gin.H{
		"conversations": conversations,
		"storage":       storage,
	})
}
