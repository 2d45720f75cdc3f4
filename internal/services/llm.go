package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"mengchat/internal/models"
	"mengchat/internal/utils"
)

// llmTimeout 上游接口超时，超时后返回降级回复而不是报错
const llmTimeout = 15 * time.Second

// historyWindow 带入提示词的最近对话条数，避免上下文过长
const historyWindow = 6

// keyPlaceholder 模板里的占位 Key，视同未配置
const keyPlaceholder = "your_deepseek_api_key_here"

// LLMService DeepSeek 聊天接口代理
type LLMService struct {
	client  *http.Client
	apiKey  string
	baseURL string
	model   string
}

var llmService *LLMService

// GetLLMService 获取单例 LLM 服务
func GetLLMService() *LLMService {
	if llmService == nil {
		baseURL := os.Getenv("DEEPSEEK_BASE_URL")
		if baseURL == "" {
			baseURL = "https://api.deepseek.com/v1/chat/completions"
		}
		model := os.Getenv("DEEPSEEK_MODEL")
		if model == "" {
			model = "deepseek-chat"
		}
		llmService = &LLMService{
			client:  &http.Client{},
			apiKey:  strings.TrimSpace(os.Getenv("DEEPSEEK_API_KEY")),
			baseURL: baseURL,
			model:   model,
		}
	}
	return llmService
}

// ChatMessage 上游接口的消息结构
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest 上游接口请求体
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

// ChatResponse 上游接口响应体
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ChatResult 网关对外的统一结果：任何成功或降级路径都能渲染
type ChatResult struct {
	Text   string `json:"text"`
	Mood   string `json:"mood"`
	Source string `json:"source"`
}

// UpstreamError 需要调用方自行降级的上游错误（余额不足、非 2xx 状态）
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %d: %s", e.Status, e.Message)
}

// hasCredential API Key 是否已正确配置（空串和占位符都算没配）
func (s *LLMService) hasCredential() bool {
	return s.apiKey != "" && s.apiKey != keyPlaceholder
}

// buildSystemPrompt 把人设规则和最近对话编进系统提示词
func (s *LLMService) buildSystemPrompt(characterName, personality string, history []models.Message, userMessage string) string {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	var ctx strings.Builder
	for _, msg := range history {
		speaker := characterName
		if msg.Sender == "user" {
			speaker = "玩家"
		}
		ctx.WriteString(speaker + ": " + msg.Text + "\n")
	}

	return fmt.Sprintf(`你是%s，%s

重要规则:
1. 严格保持%s的萌系大叔人设
2. 大量使用可爱的颜文字，如：(｡・ω・｡)、(つ✧ω✧)つ、(๑´ㅂ`+"`"+`๑)等
3. 使用"哎呀呀"、"小可爱"、"宝贝"等萌系称呼
4. 回复要温柔可爱，长度30-80字
5. 适当使用emoji：💕、✨、🌸、💖、🎀等
6. 偶尔会害羞："人家也不知道啦~"、"讨厌啦~"
7. 给出战术建议时要专业但表达方式要萌

之前的对话:
%s
现在玩家说: %s

请以%s的萌系大叔口吻回复:`,
		characterName, personality, characterName,
		strings.TrimRight(ctx.String(), "\n"), userMessage, characterName)
}

// GetResponse 获取角色回复
// 除 UpstreamError 外所有失败路径都折算成可渲染的降级回复，绝不向上抛错
func (s *LLMService) GetResponse(characterName, personality string, history []models.Message, userMessage string) (*ChatResult, *UpstreamError) {
	// Key 未配置是正常路径：直接给萌系降级回复
	if !s.hasCredential() {
		log.Println("DeepSeek API Key 未配置，返回萌系降级回复")
		return &ChatResult{
			Text:   PickFallback(SourceNoKey),
			Mood:   MoodNeutral,
			Source: SourceNoKey,
		}, nil
	}

	body, err := json.Marshal(ChatRequest{
		Model: s.model,
		Messages: []ChatMessage{
			{Role: "system", Content: s.buildSystemPrompt(characterName, personality, history, userMessage)},
			{Role: "user", Content: userMessage},
		},
		Temperature: 0.9,
		MaxTokens:   500,
		Stream:      false,
	})
	if err != nil {
		log.Printf("构造请求体失败: %v", err)
		return &ChatResult{Text: PickFallback(SourceError), Mood: MoodNeutral, Source: SourceError}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), llmTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		log.Printf("创建请求失败: %v", err)
		return &ChatResult{Text: PickFallback(SourceError), Mood: MoodNeutral, Source: SourceError}, nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			log.Println("DeepSeek API 超时")
			return &ChatResult{Text: PickFallback(SourceTimeout), Mood: MoodNeutral, Source: SourceTimeout}, nil
		}
		log.Printf("DeepSeek API 请求失败: %v", err)
		return &ChatResult{Text: PickFallback(SourceError), Mood: MoodNeutral, Source: SourceError}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errText, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		detail := parseUpstreamError(errText)
		log.Printf("DeepSeek API 错误: status=%d detail=%s", resp.StatusCode, utils.TruncateRunes(detail, 200))

		// 余额不足单独归类，调用方据此切换到前端本地回复
		if resp.StatusCode == http.StatusPaymentRequired || strings.Contains(detail, "Insufficient Balance") {
			return nil, &UpstreamError{
				Status:  http.StatusPaymentRequired,
				Message: "DeepSeek API余额不足，请充值或更换API Key",
			}
		}
		return nil, &UpstreamError{
			Status:  resp.StatusCode,
			Message: utils.TruncateRunes(detail, 200),
		}
	}

	var data ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		log.Printf("解析响应失败: %v", err)
		return &ChatResult{Text: PickFallback(SourceError), Mood: MoodNeutral, Source: SourceError}, nil
	}

	text := ""
	if len(data.Choices) > 0 {
		text = data.Choices[0].Message.Content
	}
	if text == "" {
		text = PickFallback(SourceNoChoice)
	}

	return &ChatResult{
		Text:   text,
		Mood:   AnalyzeMood(userMessage, text),
		Source: SourceAPI,
	}, nil
}

// parseUpstreamError 尽力从错误响应里取出可读信息
func parseUpstreamError(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error.Message != "" {
			return parsed.Error.Message
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return string(body)
}
