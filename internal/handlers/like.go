package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mengchat/internal/middleware"
	"mengchat/internal/services"
)

type LikeHandler struct {
	likeService *services.LikeService
}

func NewLikeHandler(likeService *services.LikeService) *LikeHandler {
	return &LikeHandler{likeService: likeService}
}

type toggleLikeInput struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

// Toggle 点赞/取消点赞
func (h *LikeHandler) Toggle(c *gin.Context) {
	var input toggleLikeInput
	if err := c.ShouldBindJSON(&input); err != nil || input.ConversationID == "" {
		JSONError(c, http.StatusBadRequest, "Missing conversationId")
		return
	}
	if input.UserID == "" {
		input.UserID = middleware.CurrentUserID(c)
	}

	liked, likes := h.likeService.Toggle(input.ConversationID, input.UserID)
	c.JSON(http.StatusOK, gin.H{
		"liked": liked,
		"likes": likes,
	})
}
