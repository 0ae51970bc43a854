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

package handler

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"finance-assistant/internal/conversation"
	"finance-assistant/pkg/log"
)

// RecommendHandler 按用户偏好推荐股票
type RecommendHandler struct {
	refiner QueryRefiner
	agent   SearchAgent
	logger  *log.Logger
}

// NewRecommendHandler 创建推荐处理器
func NewRecommendHandler(refiner QueryRefiner, agent SearchAgent, logger *log.Logger) *RecommendHandler {
	return &RecommendHandler{refiner: refiner, agent: agent, logger: log.OrDefault(logger)}
}

// Handle 参数按键名排序后拼进 Agent 指令
func (h *RecommendHandler) Handle(ctx context.Context, history conversation.History, query string, params map[string]any) string {
	q := h.refiner.Refine(ctx, history, query)
	prefs := formatParams(params)
	if prefs == "" {
		return runAgent(ctx, h.agent, h.logger, "Recommend stocks: "+q)
	}
	return runAgent(ctx, h.agent, h.logger, fmt.Sprintf("Recommend stocks matching these preferences (%s): %s", prefs, q))
}

func formatParams(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		var v string
		switch x := params[k].(type) {
		case []any:
			items := make([]string, 0, len(x))
			for _, item := range x {
				items = append(items, fmt.Sprint(item))
			}
			v = strings.Join(items, ", ")
		default:
			v = fmt.Sprint(x)
		}
		parts = append(parts, k+": "+v)
	}
	return strings.Join(parts, ", ")
}
