package services

import (
	"errors"
	"log"
	"sort"
	"time"

	"mengchat/internal/kv"
	"mengchat/internal/models"
	"mengchat/internal/utils"
)

// conversationTTL 托管层对话记录的保留时间
const conversationTTL = 30 * 24 * time.Hour

// previewLength 最后一条消息摘要的截断长度
const previewLength = 50

// plazaCacheTTL 广场列表缓存时间，短一点就够了
const plazaCacheTTL = 30 * time.Second

// 存储层级标记，原样返回给前端
const (
	StorageKV    = "kv"
	StorageLocal = "local"
	StorageNone  = "none"
)

// ErrInvalidData 保存入参校验失败
var ErrInvalidData = errors.New("invalid conversation data")

// KV 键名约定：按记录类型加 ID 命名空间化
func convKey(id string) string { return "conversation:" + id }

func userConvsKey(userID string) string { return "user:" + userID + ":conversations" }

func convCommentsKey(id string) string { return "conversation:" + id + ":comments" }

func commentKey(id string) string { return "comment:" + id }

func likersKey(id string) string { return "conversation:" + id + ":likers" }

const publicConvsKey = "public:conversations"

// ConversationService 对话持久化门面
// 唯一同时知道托管 KV 和本地兜底两个层级的组件，按可用性逐调用选层
type ConversationService struct {
	store *kv.Store
	local *LocalStore
	cache *utils.GlobalCache
}

// NewConversationService 创建对话服务
func NewConversationService(store *kv.Store, local *LocalStore) *ConversationService {
	return &ConversationService{
		store: store,
		local: local,
		cache: utils.NewCache(),
	}
}

// SaveInput 保存对话的入参
type SaveInput struct {
	CharacterName string           `json:"characterName"`
	GameName      string           `json:"gameName"`
	Title         string           `json:"title"`
	ChatHistory   []models.Message `json:"chatHistory"`
	UserID        string           `json:"userId"`
	IsPublic      bool             `json:"isPublic"`
}

// SaveResult 保存结果
// Storage 为 local 时 Data 带回完整记录，前端要自己存一份
type SaveResult struct {
	ConversationID string               `json:"conversationId"`
	ShareURL       string               `json:"shareUrl"`
	Storage        string               `json:"storage"`
	Data           *models.Conversation `json:"data,omitempty"`
}

// Save 保存对话（带降级方案）
// 对调用方永不失败：KV 写入任何一步出错都折算成本地存储结果，
// 绝不让用户的对话悄悄丢掉。只有入参校验会返回错误。
func (s *ConversationService) Save(input SaveInput) (*SaveResult, error) {
	if input.CharacterName == "" || len(input.ChatHistory) == 0 {
		return nil, ErrInvalidData
	}

	conv := s.assemble(input)

	if s.store.Available() {
		if err := s.saveHosted(conv); err == nil {
			log.Printf("对话已保存到 KV: %s", conv.ID)
			return &SaveResult{
				ConversationID: conv.ID,
				ShareURL:       "/share/" + conv.ID,
				Storage:        StorageKV,
			}, nil
		} else {
			log.Printf("KV 保存失败，降级到本地存储: %v", err)
		}
	}

	// KV 不可用或写入失败：存进本地兜底，并把完整记录还给前端
	s.local.Save(conv)
	return &SaveResult{
		ConversationID: conv.ID,
		ShareURL:       "/share/" + conv.ID,
		Storage:        StorageLocal,
		Data:           conv,
	}, nil
}

// assemble 组装完整对话记录（派生字段在这里一次算好，读取时不再重算）
func (s *ConversationService) assemble(input SaveInput) *models.Conversation {
	title := input.Title
	if title == "" {
		title = "与" + input.CharacterName + "的对话"
	}
	userID := input.UserID
	if userID == "" {
		userID = "anonymous"
	}
	preview := ""
	if n := len(input.ChatHistory); n > 0 {
		preview = utils.TruncateRunes(input.ChatHistory[n-1].Text, previewLength)
	}

	return &models.Conversation{
		ID:                 utils.NewConversationID(),
		CharacterName:      input.CharacterName,
		GameName:           input.GameName,
		Title:              title,
		ChatHistory:        input.ChatHistory,
		UserID:             userID,
		IsPublic:           input.IsPublic,
		CreatedAt:          time.Now().UnixMilli(),
		MessageCount:       len(input.ChatHistory),
		LastMessagePreview: preview,
	}
}

// saveHosted 托管层的多步写入：记录、用户索引、公开索引、过期时间
// 步骤顺序执行且不保证原子性，任何一步出错整体按失败处理
func (s *ConversationService) saveHosted(conv *models.Conversation) error {
	if err := s.store.Set(convKey(conv.ID), conv); err != nil {
		return err
	}
	if err := s.store.SAdd(userConvsKey(conv.UserID), conv.ID); err != nil {
		return err
	}
	if conv.IsPublic {
		if err := s.store.ZAdd(publicConvsKey, float64(conv.CreatedAt), conv.ID); err != nil {
			return err
		}
		s.cache.Delete(plazaCacheKeyAll)
	}
	return s.store.Expire(convKey(conv.ID), conversationTTL)
}

// Get 按 ID 取单条对话；托管层没有再查本地兜底
func (s *ConversationService) Get(id string) (*models.Conversation, bool) {
	if s.store.Available() {
		var conv models.Conversation
		found, err := s.store.Get(convKey(id), &conv)
		if err != nil {
			log.Printf("读取对话失败: %v", err)
		} else if found {
			conv.Likes = s.likeCount(id)
			return &conv, true
		}
	}
	if conv, ok := s.local.Get(id); ok {
		return conv, true
	}
	return nil, false
}

const plazaCacheKeyAll = "plaza:public"

// ListPublic 广场公开对话分页
// sort 支持 recent（时间倒序）/ popular / likes（点赞数倒序）；
// KV 不可用或读取失败一律降级为空列表
func (s *ConversationService) ListPublic(limit, offset int, sortBy string) []*models.Conversation {
	if !s.store.Available() {
		return []*models.Conversation{}
	}

	all := s.publicRecords()
	if sortBy == "popular" || sortBy == "likes" {
		// 按点赞数重排；复制一份，不动缓存里按时间排好的切片
		sorted := make([]*models.Conversation, len(all))
		copy(sorted, all)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Likes > sorted[j].Likes })
		all = sorted
	}

	if offset >= len(all) {
		return []*models.Conversation{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

// publicRecords 解析公开索引里的全部记录（短缓存），过期的条目静默跳过
func (s *ConversationService) publicRecords() []*models.Conversation {
	if cached := s.cache.Get(plazaCacheKeyAll); cached != nil {
		if list, ok := cached.([]*models.Conversation); ok {
			return list
		}
	}

	ids, err := s.store.ZRevRange(publicConvsKey, 0, -1)
	if err != nil {
		log.Printf("读取公开索引失败: %v", err)
		return []*models.Conversation{}
	}

	out := make([]*models.Conversation, 0, len(ids))
	for _, id := range ids {
		var conv models.Conversation
		found, err := s.store.Get(convKey(id), &conv)
		if err != nil || !found {
			continue // 已过期或已损坏，跳过
		}
		conv.Likes = s.likeCount(id)
		out = append(out, &conv)
	}

	s.cache.Set(plazaCacheKeyAll, out, plazaCacheTTL)
	return out
}

// ListUser 用户的对话历史，最新的在前
// KV 不可用时退化为本地兜底的全量过滤
func (s *ConversationService) ListUser(userID string, limit, offset int) ([]*models.Conversation, string) {
	if !s.store.Available() {
		out := []*models.Conversation{}
		for _, conv := range s.local.All() {
			if conv.UserID == userID {
				out = append(out, conv)
			}
		}
		return pageSlice(out, limit, offset), StorageLocal
	}

	ids, err := s.store.SMembers(userConvsKey(userID))
	if err != nil {
		log.Printf("读取用户对话索引失败: %v", err)
		return []*models.Conversation{}, StorageKV
	}

	out := make([]*models.Conversation, 0, len(ids))
	for _, id := range ids {
		var conv models.Conversation
		found, err := s.store.Get(convKey(id), &conv)
		if err != nil || !found {
			continue
		}
		conv.Likes = s.likeCount(id)
		out = append(out, &conv)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })

	return pageSlice(out, limit, offset), StorageKV
}

// likeCount 统计点赞数（从点赞者集合取长度，不维护独立计数器）
func (s *ConversationService) likeCount(id string) int {
	n, err := s.store.SCard(likersKey(id))
	if err != nil {
		return 0
	}
	return n
}

func pageSlice(list []*models.Conversation, limit, offset int) []*models.Conversation {
	if offset >= len(list) {
		return []*models.Conversation{}
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end]
}
