package models

// Comment 对话评论
// 只增不改：创建后追加到所属对话的评论列表头部
type Comment struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	Content        string `json:"content"`
	CreatedAt      int64  `json:"createdAt"` // 毫秒时间戳

	// 非存储字段，读取时由 Markdown 渲染生成
	ContentHTML string `json:"contentHtml,omitempty"`
}
