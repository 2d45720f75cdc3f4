package services

import (
	"log"

	lru "github.com/hashicorp/golang-lru/v2"

	"mengchat/internal/models"
)

// localStoreLimit 本地兜底存储的容量上限，超出后淘汰最旧的一条
const localStoreLimit = 20

// LocalStore 本地兜底存储
// KV 不可用时保存对话的最后一道防线；只支持按 ID 取和全量倒序取，
// 广场列表和评论在这一层不可用
type LocalStore struct {
	conversations *lru.Cache[string, *models.Conversation]
}

// NewLocalStore 创建本地兜底存储
func NewLocalStore() *LocalStore {
	l, err := lru.New[string, *models.Conversation](localStoreLimit)
	if err != nil {
		log.Fatalf("Failed to create local store: %v", err)
	}
	return &LocalStore{conversations: l}
}

// Save 保存对话，容量满时自动淘汰最旧的记录
func (s *LocalStore) Save(conv *models.Conversation) {
	s.conversations.Add(conv.ID, conv)
}

// Get 按 ID 查找（Peek 不影响淘汰顺序）
func (s *LocalStore) Get(id string) (*models.Conversation, bool) {
	return s.conversations.Peek(id)
}

// All 返回全部记录，最新的在前
func (s *LocalStore) All() []*models.Conversation {
	keys := s.conversations.Keys() // 从旧到新
	out := make([]*models.Conversation, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		if conv, ok := s.conversations.Peek(keys[i]); ok {
			out = append(out, conv)
		}
	}
	return out
}

// Len 当前记录数
func (s *LocalStore) Len() int {
	return s.conversations.Len()
}
