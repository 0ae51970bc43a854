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

package refiner

import (
	"context"
	"strings"

	"finance-assistant/internal/conversation"
	"finance-assistant/internal/model/llm"
	"finance-assistant/internal/prompts"
	"finance-assistant/pkg/log"
)

// Refiner 结合对话历史把用户消息改写为独立的检索查询
type Refiner struct {
	gateway llm.Sender
	logger  *log.Logger
}

// New 创建 Refiner
func New(gateway llm.Sender, logger *log.Logger) *Refiner {
	return &Refiner{gateway: gateway, logger: log.OrDefault(logger)}
}

// Refine 生成金融检索查询；模型无输出时退回原始查询
func (r *Refiner) Refine(ctx context.Context, history conversation.History, query string) string {
	return r.refine(ctx, prompts.RefineQuery, map[string]any{
		"history":    conversation.FormatHistory(history),
		"user_query": query,
	}, query)
}

// RefineNews 生成新闻检索查询
func (r *Refiner) RefineNews(ctx context.Context, history conversation.History, latest string) string {
	return r.refine(ctx, prompts.RefineNews, map[string]any{
		"history":        conversation.FormatHistory(history),
		"latest_message": latest,
	}, latest)
}

func (r *Refiner) refine(ctx context.Context, tmpl string, vars map[string]any, fallback string) string {
	fallback = strings.TrimSpace(fallback)
	text, err := prompts.Render(ctx, tmpl, vars)
	if err != nil {
		r.logger.ErrorContext(ctx, "渲染改写提示词失败", "error", err)
		return fallback
	}
	out := strings.TrimSpace(r.gateway.Send(ctx, nil, text, ""))
	if out == "" {
		r.logger.WarnContext(ctx, "查询改写无结果，使用原始查询")
		return fallback
	}
	return out
}
