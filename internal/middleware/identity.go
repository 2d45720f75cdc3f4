package middleware

import (
	"log"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"mengchat/internal/utils"
)

const UserIDKey = "userId"

// sessionUserIDKey 会话里存用户 ID 的键
const sessionUserIDKey = "user_id"

// Identity 匿名身份中间件
// 首次请求时惰性生成伪随机用户 ID 写进会话，之后一直复用；
// 会话写入失败不致命，本次请求用临时 ID 继续
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		userID, _ := session.Get(sessionUserIDKey).(string)
		if userID == "" {
			userID = utils.NewUserID()
			session.Set(sessionUserIDKey, userID)
			if err := session.Save(); err != nil {
				log.Printf("保存会话失败，本次使用临时用户 ID: %v", err)
			}
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// CurrentUserID 取当前请求的用户 ID
func CurrentUserID(c *gin.Context) string {
	if userID, ok := c.Get(UserIDKey); ok {
		if s, ok := userID.(string); ok {
			return s
		}
	}
	return "anonymous"
}
