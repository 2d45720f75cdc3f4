package router

import (
	"github.com/gin-gonic/gin"

	"mengchat/internal/handlers"
	"mengchat/internal/kv"
	"mengchat/internal/services"
)

// RegisterRoutes 组装服务并注册全部 API 路由
// store 为 nil 表示托管 KV 未配置，各服务自行降级
func RegisterRoutes(r *gin.Engine, store *kv.Store) {
	// Services
	localStore := services.NewLocalStore()
	convService := services.NewConversationService(store, localStore)
	commentService := services.NewCommentService(store)
	likeService := services.NewLikeService(store)
	llmService := services.GetLLMService()

	// Handlers
	convHandler := handlers.NewConversationHandler(convService)
	commentHandler := handlers.NewCommentHandler(commentService)
	likeHandler := handlers.NewLikeHandler(likeService)
	chatHandler := handlers.NewChatHandler(llmService)
	diagnoseHandler := handlers.NewDiagnoseHandler(store)

	api := r.Group("/api")
	{
		api.POST("/save-conversation", convHandler.Save)                 // 保存对话
		api.GET("/get-conversation", convHandler.Get)                    // 获取单条对话
		api.GET("/get-public-conversations", convHandler.ListPublic)     // 广场公开对话
		api.GET("/get-user-conversations", convHandler.ListUser)         // 我的对话历史
		api.POST("/add-comment", commentHandler.Add)                     // 发表评论
		api.GET("/get-comments", commentHandler.List)                    // 评论列表
		api.POST("/like-conversation", likeHandler.Toggle)               // 点赞/取消点赞
		api.POST("/chat", chatHandler.Chat)                              // 角色对话
		api.GET("/check-db", diagnoseHandler.CheckDB)                    // 存储连通性诊断
	}
}
