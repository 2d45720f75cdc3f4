package handlers

import (
	"github.com/gin-gonic/gin"
)

// JSONError 统一的错误响应
func JSONError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}
