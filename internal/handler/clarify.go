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
	"strings"

	"finance-assistant/internal/conversation"
	"finance-assistant/pkg/log"
)

// ClarifyHandler 概念、公司与公司对比类澄清
type ClarifyHandler struct {
	refiner  QueryRefiner
	glossary ConceptAnswerer
	agent    SearchAgent
	logger   *log.Logger
}

// NewClarifyHandler 创建澄清处理器；glossary 可为 nil，此时概念问题直接走搜索 Agent
func NewClarifyHandler(refiner QueryRefiner, glossary ConceptAnswerer, agent SearchAgent, logger *log.Logger) *ClarifyHandler {
	return &ClarifyHandler{refiner: refiner, glossary: glossary, agent: agent, logger: log.OrDefault(logger)}
}

// Concept 先查术语表，术语表答不上来再交给搜索 Agent
func (h *ClarifyHandler) Concept(ctx context.Context, history conversation.History, query string, params map[string]any) string {
	q := h.refiner.Refine(ctx, history, query)
	var answer string
	if h.glossary != nil {
		answer = strings.TrimSpace(h.glossary.Answer(ctx, q))
	}
	if isNo(answer) {
		h.logger.DebugContext(ctx, "术语表无答案，转搜索 Agent", "query", q)
		return h.runAgent(ctx, "Explain the financial concept: "+q)
	}
	return answer
}

// Company 公司相关问题
func (h *ClarifyHandler) Company(ctx context.Context, history conversation.History, query string, params map[string]any) string {
	q := h.refiner.Refine(ctx, history, query)
	if companies := CompaniesFromParams(params); companies != "" {
		return h.runAgent(ctx, fmt.Sprintf("Clarify about the %s: %s", companies, q))
	}
	return h.runAgent(ctx, "Clarify : "+q)
}

// Comparison 多公司对比
func (h *ClarifyHandler) Comparison(ctx context.Context, history conversation.History, query string, params map[string]any) string {
	q := h.refiner.Refine(ctx, history, query)
	if companies := CompaniesFromParams(params); companies != "" {
		return h.runAgent(ctx, fmt.Sprintf("Compare the %s on the basis of: %s", companies, q))
	}
	return h.runAgent(ctx, "Compare companies: "+q)
}

func (h *ClarifyHandler) runAgent(ctx context.Context, prompt string) string {
	return runAgent(ctx, h.agent, h.logger, prompt)
}

func runAgent(ctx context.Context, agent SearchAgent, logger *log.Logger, prompt string) string {
	if agent == nil {
		return UnavailableText
	}
	out, err := agent.Run(ctx, prompt)
	if err != nil {
		logger.ErrorContext(ctx, "搜索 Agent 调用失败", "error", err)
	}
	if out = strings.TrimSpace(out); out == "" {
		return UnavailableText
	}
	return out
}

// CompaniesFromParams company 字符串优先，其次 companies 列表以 ", " 拼接
func CompaniesFromParams(params map[string]any) string {
	if params == nil {
		return ""
	}
	if c, ok := params["company"].(string); ok && strings.TrimSpace(c) != "" {
		return strings.TrimSpace(c)
	}
	switch list := params["companies"].(type) {
	case []any:
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(list, ", ")
	case string:
		return strings.TrimSpace(list)
	}
	return ""
}

func isNo(answer string) bool {
	a := strings.TrimSpace(answer)
	return a == "" || strings.EqualFold(a, "no")
}
