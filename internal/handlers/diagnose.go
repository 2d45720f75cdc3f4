package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mengchat/internal/db"
	"mengchat/internal/kv"
)

type DiagnoseHandler struct {
	store *kv.Store
}

func NewDiagnoseHandler(store *kv.Store) *DiagnoseHandler {
	return &DiagnoseHandler{store: store}
}

// CheckDB 存储连通性诊断
// 探测写/读/删一个测试键，顺带报告公开对话总数
func (h *DiagnoseHandler) CheckDB(c *gin.Context) {
	diagnostics := gin.H{
		"timestamp":    time.Now().Format(time.RFC3339),
		"kvConfigured": db.Configured(),
	}

	if !db.Configured() {
		diagnostics["kvConnection"] = nil
		c.JSON(http.StatusOK, gin.H{
			"success":     false,
			"message":     "KV 存储未配置",
			"diagnostics": diagnostics,
			"solution":    "请配置 KV_PATH 环境变量",
		})
		return
	}

	if !h.store.Available() {
		diagnostics["kvConnection"] = "failed"
		diagnostics["errorDetails"] = "存储已配置但未能打开"
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":     false,
			"message":     "数据库连接失败",
			"diagnostics": diagnostics,
		})
		return
	}

	// 读写探测
	testKey := "test:" + strconv.FormatInt(time.Now().UnixMilli(), 10)
	var readBack string
	err := h.store.Set(testKey, "test-value")
	if err == nil {
		err = h.store.Expire(testKey, 10*time.Second)
	}
	if err == nil {
		_, err = h.store.Get(testKey, &readBack)
	}
	if err == nil {
		err = h.store.Del(testKey)
	}
	if err != nil {
		diagnostics["kvConnection"] = "failed"
		diagnostics["errorDetails"] = err.Error()
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":     false,
			"message":     "数据库连接失败",
			"diagnostics": diagnostics,
		})
		return
	}

	diagnostics["kvConnection"] = "success"
	if readBack == "test-value" {
		diagnostics["testResult"] = "读写正常"
	} else {
		diagnostics["testResult"] = "读写异常"
	}

	totalPublic, _ := h.store.ZCard("public:conversations")

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "数据库连接正常",
		"diagnostics": diagnostics,
		"data": gin.H{
			"totalPublicConversations": totalPublic,
		},
	})
}
