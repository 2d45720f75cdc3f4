package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"mengchat/internal/kv"
	"mengchat/internal/models"
	"mengchat/internal/utils"
)

// 评论没有本地兜底层：KV 不可用时读是空列表，写是明确的服务不可用
var (
	ErrCommentUnavailable = errors.New("comment service unavailable")
	ErrMissingFields      = errors.New("missing required fields")
)

// CommentService 评论子系统
type CommentService struct {
	store *kv.Store
}

// NewCommentService 创建评论服务
func NewCommentService(store *kv.Store) *CommentService {
	return &CommentService{store: store}
}

// Add 添加评论
// 评论先落库再更新父记录计数；计数更新失败不回滚评论（尽力而为的冗余计数，
// 并发评论时可能少算，属于接受的不一致）
func (s *CommentService) Add(conversationID, content, userID string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if conversationID == "" || content == "" || userID == "" {
		return nil, ErrMissingFields
	}
	if !s.store.Available() {
		return nil, ErrCommentUnavailable
	}

	comment := &models.Comment{
		ID:             utils.NewCommentID(),
		ConversationID: conversationID,
		UserID:         userID,
		Content:        content,
		CreatedAt:      time.Now().UnixMilli(),
	}

	if err := s.store.Set(commentKey(comment.ID), comment); err != nil {
		return nil, err
	}
	if err := s.store.LPush(convCommentsKey(conversationID), comment.ID); err != nil {
		return nil, err
	}

	// 冗余计数：读-改-写，失败只记日志
	var conv models.Conversation
	if found, err := s.store.Get(convKey(conversationID), &conv); err == nil && found {
		conv.CommentCount++
		if err := s.store.Set(convKey(conversationID), &conv); err != nil {
			log.Printf("更新评论计数失败: %v", err)
		}
	}

	return comment, nil
}

// List 评论分页
// 返回评论、总数和存储层级；任何后端失败都降级为空列表而不是报错。
// 总数取自列表实际长度，不用记录上的冗余计数，避免两者漂移互相放大
func (s *CommentService) List(conversationID string, limit, offset int) ([]models.Comment, int, string) {
	if !s.store.Available() {
		return []models.Comment{}, 0, StorageNone
	}

	ids, err := s.store.LRange(convCommentsKey(conversationID), offset, offset+limit-1)
	if err != nil {
		log.Printf("读取评论列表失败: %v", err)
		return []models.Comment{}, 0, "error"
	}

	comments := make([]models.Comment, 0, len(ids))
	for _, id := range ids {
		var comment models.Comment
		found, err := s.store.Get(commentKey(id), &comment)
		if err != nil || !found {
			continue
		}
		comment.ContentHTML = utils.RenderMarkdown(comment.Content)
		comments = append(comments, comment)
	}

	total, err := s.store.LLen(convCommentsKey(conversationID))
	if err != nil {
		total = len(comments)
	}

	return comments, total, StorageKV
}
