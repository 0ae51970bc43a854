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
	"fmt"
	"strings"
	"time"

	"finance-assistant/internal/conversation"
	"finance-assistant/pkg/log"
	"finance-assistant/pkg/metrics"
	"finance-assistant/pkg/tracing"
)

// Sender 网关抽象：一次调用，失败时返回空字符串
type Sender interface {
	Send(ctx context.Context, history conversation.History, message, systemInstruction string) string
}

// Gateway 所有模型调用的唯一出口；不重试、不截断历史，失败只记录日志并返回 ""
type Gateway struct {
	client  Client
	options GenerateOptions
	timeout time.Duration
	logger  *log.Logger
}

// GatewayOption 网关选项
type GatewayOption func(*Gateway)

// WithTimeout 单次调用超时，<=0 表示不额外限制
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.timeout = d }
}

// WithGenerateOptions 生成参数
func WithGenerateOptions(o GenerateOptions) GatewayOption {
	return func(g *Gateway) { g.options = o }
}

// WithLogger 日志
func WithLogger(l *log.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = l }
}

// NewGateway 创建网关
func NewGateway(client Client, opts ...GatewayOption) *Gateway {
	g := &Gateway{client: client}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = log.OrDefault(g.logger)
	return g
}

// Send 以 history（旧到新）+ 新用户消息为内容序列，附带系统指令调用模型
func (g *Gateway) Send(ctx context.Context, history conversation.History, message, systemInstruction string) (out string) {
	provider, model := "unknown", ""
	if g.client != nil {
		provider, model = g.client.Provider(), g.client.Model()
	}
	ctx, span := tracing.StartLLMSpan(ctx, provider, model)
	defer span.End()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("llm backend panic: %v", r)
			tracing.RecordError(span, err)
			g.logger.ErrorContext(ctx, "llm 调用失败", "provider", provider, "error", err)
			metrics.LLMRequestsTotal.WithLabelValues(provider, "error").Inc()
			out = ""
		}
	}()

	if g.client == nil {
		g.logger.ErrorContext(ctx, "llm 客户端未配置")
		metrics.LLMRequestsTotal.WithLabelValues(provider, "error").Inc()
		return ""
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	messages := append(HistoryMessages(history), Message{Role: RoleUser, Content: message})
	text, err := g.client.ChatWithSystem(ctx, systemInstruction, messages, g.options)
	metrics.LLMRequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	if err != nil {
		tracing.RecordError(span, err)
		g.logger.ErrorContext(ctx, "llm 调用失败", "provider", provider, "model", model, "error", err)
		metrics.LLMRequestsTotal.WithLabelValues(provider, "error").Inc()
		return ""
	}
	metrics.LLMRequestsTotal.WithLabelValues(provider, "ok").Inc()
	return text
}

// HistoryMessages 历史转为消息序列，无文本的轮次跳过
func HistoryMessages(history conversation.History) []Message {
	out := make([]Message, 0, len(history)+1)
	for _, turn := range history {
		text := turn.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		role := turn.Role
		if role == "" {
			role = RoleUser
		}
		out = append(out, Message{Role: role, Content: text})
	}
	return out
}
