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
	"strings"

	"finance-assistant/internal/conversation"
	"finance-assistant/internal/model/llm"
	"finance-assistant/internal/prompts"
	"finance-assistant/pkg/log"
)

// PersonaHandler 帮助与错误两种固定人设的单次回复
type PersonaHandler struct {
	gateway llm.Sender
	help    string
	errText string
	logger  *log.Logger
}

// NewPersonaHandler 创建人设处理器；instruction 为空时使用内置人设
func NewPersonaHandler(gateway llm.Sender, helpInstruction, errorInstruction string, logger *log.Logger) *PersonaHandler {
	if strings.TrimSpace(helpInstruction) == "" {
		helpInstruction = prompts.Help
	}
	if strings.TrimSpace(errorInstruction) == "" {
		errorInstruction = prompts.Error
	}
	return &PersonaHandler{gateway: gateway, help: helpInstruction, errText: errorInstruction, logger: log.OrDefault(logger)}
}

// Help 介绍平台能力，引导用户
func (h *PersonaHandler) Help(ctx context.Context, history conversation.History, message string, params map[string]any) string {
	return h.reply(ctx, history, message, h.help)
}

// Error 礼貌拒绝超出范围的请求并引导回金融话题
func (h *PersonaHandler) Error(ctx context.Context, history conversation.History, message string, params map[string]any) string {
	return h.reply(ctx, history, message, h.errText)
}

func (h *PersonaHandler) reply(ctx context.Context, history conversation.History, message, instruction string) string {
	out := strings.TrimSpace(h.gateway.Send(ctx, history, message, instruction))
	if out == "" {
		h.logger.WarnContext(ctx, "人设回复为空，使用兜底文本")
		return PersonaFallbackText
	}
	return out
}
