package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mengchat/internal/models"
	"mengchat/internal/services"
)

type ChatHandler struct {
	llmService *services.LLMService
}

func NewChatHandler(llmService *services.LLMService) *ChatHandler {
	return &ChatHandler{llmService: llmService}
}

type chatInput struct {
	CharacterName        string           `json:"characterName"`
	CharacterPersonality string           `json:"characterPersonality"`
	ChatHistory          []models.Message `json:"chatHistory"`
	UserMessage          string           `json:"userMessage"`
}

// Chat 一轮角色对话
// 超时和网络错误在网关里已折算成降级回复（200）；
// 余额不足和其他上游非 2xx 带 useFrontendFallback 标志透传，由前端自己兜底
func (h *ChatHandler) Chat(c *gin.Context) {
	var input chatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		JSONError(c, http.StatusBadRequest, "Invalid data")
		return
	}

	result, upErr := h.llmService.GetResponse(
		input.CharacterName,
		input.CharacterPersonality,
		input.ChatHistory,
		input.UserMessage,
	)
	if upErr != nil {
		c.JSON(upErr.Status, gin.H{
			"error":               http.StatusText(upErr.Status),
			"message":             upErr.Message,
			"useFrontendFallback": true,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"text":   result.Text,
		"mood":   result.Mood,
		"source": result.Source,
	})
}
