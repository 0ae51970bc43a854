package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient Gemini 客户端，调用 generateContent REST 接口
type GeminiClient struct {
	provider string
	model    string
	apiKey   string
	baseURL  string
	client   *resty.Client
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64  `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	TopP            float64  `json:"topP,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"system_instruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// NewGeminiClient 创建新的 Gemini 客户端
func NewGeminiClient(cfg ClientConfig) *GeminiClient {
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(cfg.RetryCount)
	client.SetRetryWaitTime(1 * time.Second)
	client.SetRetryMaxWaitTime(5 * time.Second)

	return &GeminiClient{
		provider: "gemini",
		model:    model,
		apiKey:   cfg.APIKey,
		baseURL:  baseURL,
		client:   client,
	}
}

// Generate 生成文本
func (c *GeminiClient) Generate(prompt string, options GenerateOptions) (string, error) {
	return c.GenerateWithContext(context.Background(), prompt, options)
}

// GenerateWithContext 使用上下文生成文本
func (c *GeminiClient) GenerateWithContext(ctx context.Context, prompt string, options GenerateOptions) (string, error) {
	return c.ChatWithSystem(ctx, "", []Message{{Role: RoleUser, Content: prompt}}, options)
}

// Chat 聊天
func (c *GeminiClient) Chat(messages []Message, options GenerateOptions) (string, error) {
	return c.ChatWithContext(context.Background(), messages, options)
}

// ChatWithContext 使用上下文聊天，system 角色的消息合并为系统指令
func (c *GeminiClient) ChatWithContext(ctx context.Context, messages []Message, options GenerateOptions) (string, error) {
	var system []string
	rest := make([]Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		rest = append(rest, msg)
	}
	return c.ChatWithSystem(ctx, strings.Join(system, "\n"), rest, options)
}

// ChatWithSystem 携带 system_instruction 调用 generateContent
func (c *GeminiClient) ChatWithSystem(ctx context.Context, system string, messages []Message, options GenerateOptions) (string, error) {
	request := geminiRequest{
		Contents:         make([]geminiContent, 0, len(messages)),
		GenerationConfig: generationConfig(options),
	}
	if system != "" {
		request.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}
	for _, msg := range messages {
		request.Contents = append(request.Contents, geminiContent{
			Role:  geminiRole(msg.Role),
			Parts: []geminiPart{{Text: msg.Content}},
		})
	}

	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", c.apiKey).
		SetBody(request).
		Post(c.baseURL + "/models/" + c.model + ":generateContent")
	if err != nil {
		return "", fmt.Errorf("调用 Gemini API 失败: %w", err)
	}
	if response.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("Gemini API 返回错误 %d: %s", response.StatusCode(), response.String())
	}

	var result geminiResponse
	if err := json.Unmarshal(response.Body(), &result); err != nil {
		return "", fmt.Errorf("解析 Gemini 响应失败: %w", err)
	}
	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("Gemini API 没有返回结果")
	}
	parts := result.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return "", fmt.Errorf("Gemini API 没有返回文本")
	}
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// Model 返回模型名称
func (c *GeminiClient) Model() string {
	return c.model
}

// Provider 返回提供商名称
func (c *GeminiClient) Provider() string {
	return c.provider
}

// SetModel 设置模型
func (c *GeminiClient) SetModel(model string) {
	c.model = model
}

// SetAPIKey 设置 API Key
func (c *GeminiClient) SetAPIKey(apiKey string) {
	c.apiKey = apiKey
}

func geminiRole(role string) string {
	switch role {
	case RoleModel, RoleAssistant:
		return RoleModel
	default:
		return RoleUser
	}
}

func generationConfig(o GenerateOptions) *geminiGenerationConfig {
	if o.Temperature == 0 && o.MaxTokens == 0 && o.TopP == 0 && len(o.Stop) == 0 {
		return nil
	}
	return &geminiGenerationConfig{
		Temperature:     o.Temperature,
		MaxOutputTokens: o.MaxTokens,
		TopP:            o.TopP,
		StopSequences:   o.Stop,
	}
}
