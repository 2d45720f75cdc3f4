package utils

import (
	"math/rand"
	"strconv"
	"time"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// randomSuffix 生成定长的 36 进制随机后缀
func randomSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = idAlphabet[rand.Intn(len(idAlphabet))]
	}
	return string(b)
}

// newID 生成 <prefix>_<毫秒时间戳>_<随机后缀> 形式的 ID
func newID(prefix string) string {
	return prefix + "_" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "_" + randomSuffix(9)
}

// NewConversationID 生成对话 ID
func NewConversationID() string {
	return newID("conv")
}

// NewCommentID 生成评论 ID
func NewCommentID() string {
	return newID("comment")
}

// NewUserID 生成匿名用户 ID
func NewUserID() string {
	return newID("user")
}
