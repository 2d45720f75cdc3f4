package services

import (
	"math/rand"
	"strings"
)

// 降级回复分类标签，同时作为响应里的 source 字段返回给前端
const (
	SourceAPI      = "deepseek-api"
	SourceNoKey    = "mock-no-key"
	SourceTimeout  = "timeout-error"
	SourceError    = "error-fallback"
	SourceNoChoice = "empty-choice"
)

// fallbackTexts 失败分类 -> 萌系降级回复
// 数据与网关逻辑分离，加角色加文案不用动控制流
var fallbackTexts = map[string][]string{
	SourceNoKey: {
		"哎呀呀~ 大叔的脑子今天有点短路呢(´；ω；`) 不过没关系，小可爱有什么想聊的吗？💕",
		"呜呜~ 人家今天有点迷糊呢(｡•́︿•̀｡) 不过大叔还是会认真听你说话的哦~ ✨",
		"么么~ 大叔在这里呢！(｡・ω・｡) 虽然有点小问题，但咱们继续聊天吧~ 💖",
	},
	SourceTimeout: {
		"哎呀呀~ 大叔反应有点慢呢(´；ω；`) 能再说一遍吗？💕",
	},
	SourceError: {
		"哎呀呀~ 大叔遇到点小问题了呢(´；ω；`) 不过没关系，咱们继续聊天吧！",
	},
	SourceNoChoice: {
		"哎呀呀~ 大叔一时语塞了呢~ (*/ω＼*)",
	},
}

// PickFallback 从指定分类里随机挑一条降级回复
func PickFallback(category string) string {
	texts := fallbackTexts[category]
	if len(texts) == 0 {
		texts = fallbackTexts[SourceError]
	}
	return texts[rand.Intn(len(texts))]
}

// 情绪关键词表：正面优先于负面，负面优先于语气词，命中即返回
var (
	positiveKeywords = []string{"好", "棒", "赞", "厉害", "喜欢", "爱", "开心", "哈哈"}
	negativeKeywords = []string{"不", "差", "烂", "菜", "垃圾", "讨厌", "气"}
	excitedKeywords  = []string{"！", "!", "吗", "啊", "哇"}
)

// MoodNeutral 默认情绪
const MoodNeutral = "neutral"

// AnalyzeMood 对用户消息和 AI 回复做粗粒度情绪判定
// 只是关键词匹配，不是情感分析；正面词先判，命中即短路
func AnalyzeMood(userMessage, aiText string) string {
	text := userMessage + aiText
	for _, w := range positiveKeywords {
		if strings.Contains(text, w) {
			return "happy"
		}
	}
	for _, w := range negativeKeywords {
		if strings.Contains(text, w) {
			return "sad"
		}
	}
	for _, w := range excitedKeywords {
		if strings.Contains(text, w) {
			return "excited"
		}
	}
	return MoodNeutral
}
