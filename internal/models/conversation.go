package models

// Message 对话中的单条消息
// sender 只会是 "user" 或 "ai"，mood 仅 AI 消息携带（用于前端表情动画）
type Message struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
	Mood   string `json:"mood,omitempty"`
}

// Conversation 对话记录
// 存储为 KV 中 conversation:<id> 键的完整 JSON，写入后除 CommentCount 外不再变更
type Conversation struct {
	ID                 string    `json:"id"`
	CharacterName      string    `json:"characterName"`
	GameName           string    `json:"gameName"`
	Title              string    `json:"title"`
	ChatHistory        []Message `json:"chatHistory"`
	UserID             string    `json:"userId"`
	IsPublic           bool      `json:"isPublic"`
	CreatedAt          int64     `json:"createdAt"` // 毫秒时间戳
	MessageCount       int       `json:"messageCount"`
	LastMessagePreview string    `json:"lastMessagePreview"`
	CommentCount       int       `json:"commentCount"`

	// 非存储字段，列表查询时填充
	Likes int `json:"likes,omitempty"`
}
