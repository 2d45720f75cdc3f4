package services

import (
	"log"

	"mengchat/internal/kv"
)

// LikeService 点赞子系统
// 点赞关系存在每个对话的点赞者集合里，数量从集合长度统计，
// 不维护独立计数器，避免读-改-写计数的丢失更新
type LikeService struct {
	store *kv.Store
}

// NewLikeService 创建点赞服务
func NewLikeService(store *kv.Store) *LikeService {
	return &LikeService{store: store}
}

// Toggle 点赞/取消点赞
// KV 不可用时按未点赞处理（点赞没有本地兜底，失败不致命）
func (s *LikeService) Toggle(conversationID, userID string) (liked bool, likes int) {
	if !s.store.Available() {
		return false, 0
	}

	key := likersKey(conversationID)
	isMember, err := s.store.SIsMember(key, userID)
	if err != nil {
		log.Printf("读取点赞状态失败: %v", err)
		return false, 0
	}

	if isMember {
		if err := s.store.SRem(key, userID); err != nil {
			log.Printf("取消点赞失败: %v", err)
		}
		liked = false
	} else {
		if err := s.store.SAdd(key, userID); err != nil {
			log.Printf("点赞失败: %v", err)
		}
		liked = true
	}

	likes, err = s.store.SCard(key)
	if err != nil {
		likes = 0
	}
	return liked, likes
}
