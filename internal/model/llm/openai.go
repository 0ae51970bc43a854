// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

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

// OpenAIClient OpenAI 兼容客户端（Gemini 的 OpenAI 兼容端点、Qwen/DashScope 等）
type OpenAIClient struct {
	provider string
	model    string
	apiKey   string
	baseURL  string
	client   *resty.Client
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	TopP        float64         `json:"top_p,omitempty"`
	Stop        []string        `json:"stop,omitempty"`
}

// NewOpenAIClient 创建 OpenAI 兼容客户端；BaseURL 为空时用官方端点
func NewOpenAIClient(cfg ClientConfig) *OpenAIClient {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
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

	return &OpenAIClient{
		provider: "openai",
		model:    model,
		apiKey:   cfg.APIKey,
		baseURL:  baseURL,
		client:   client,
	}
}

// Generate 生成文本
func (c *OpenAIClient) Generate(prompt string, options GenerateOptions) (string, error) {
	return c.GenerateWithContext(context.Background(), prompt, options)
}

// GenerateWithContext 使用上下文生成文本
func (c *OpenAIClient) GenerateWithContext(ctx context.Context, prompt string, options GenerateOptions) (string, error) {
	return c.ChatWithContext(ctx, []Message{{Role: RoleUser, Content: prompt}}, options)
}

// Chat 聊天
func (c *OpenAIClient) Chat(messages []Message, options GenerateOptions) (string, error) {
	return c.ChatWithContext(context.Background(), messages, options)
}

// ChatWithSystem 系统指令作为首条 system 消息发送
func (c *OpenAIClient) ChatWithSystem(ctx context.Context, system string, messages []Message, options GenerateOptions) (string, error) {
	if system == "" {
		return c.ChatWithContext(ctx, messages, options)
	}
	all := make([]Message, 0, len(messages)+1)
	all = append(all, Message{Role: RoleSystem, Content: system})
	all = append(all, messages...)
	return c.ChatWithContext(ctx, all, options)
}

// ChatWithContext 使用上下文聊天
func (c *OpenAIClient) ChatWithContext(ctx context.Context, messages []Message, options GenerateOptions) (string, error) {
	request := openAIRequest{
		Model:       c.model,
		Messages:    make([]openAIMessage, len(messages)),
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
		TopP:        options.TopP,
		Stop:        options.Stop,
	}
	for i, msg := range messages {
		role := msg.Role
		if role == RoleModel {
			role = RoleAssistant
		}
		request.Messages[i] = openAIMessage{Role: role, Content: msg.Content}
	}

	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+c.apiKey).
		SetBody(request).
		Post(c.baseURL + "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("调用 OpenAI API 失败: %w", err)
	}
	if response.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("OpenAI API 返回错误 %d: %s", response.StatusCode(), response.String())
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(response.Body(), &result); err != nil {
		return "", fmt.Errorf("解析 OpenAI 响应失败: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("OpenAI API 没有返回结果")
	}
	return result.Choices[0].Message.Content, nil
}

// Model 返回模型名称
func (c *OpenAIClient) Model() string {
	return c.model
}

// Provider 返回提供商名称
func (c *OpenAIClient) Provider() string {
	return c.provider
}

// SetModel 设置模型
func (c *OpenAIClient) SetModel(model string) {
	c.model = model
}

// SetAPIKey 设置 API Key
func (c *OpenAIClient) SetAPIKey(apiKey string) {
	c.apiKey = apiKey
}
