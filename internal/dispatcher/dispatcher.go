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

// Package dispatcher 将分类结果路由到唯一的处理器
package dispatcher

import (
	"context"
	"fmt"

	"finance-assistant/internal/classifier"
	"finance-assistant/internal/conversation"
	"finance-assistant/internal/handler"
	"finance-assistant/pkg/log"
	"finance-assistant/pkg/metrics"
	"finance-assistant/pkg/tracing"
)

// ReportHandler 报告意图处理
type ReportHandler interface {
	Handle(ctx context.Context, history conversation.History, query string, params map[string]any, summary conversation.Summary) (string, conversation.Summary)
}

// ClarifyHandler 三类澄清
type ClarifyHandler interface {
	Concept(ctx context.Context, history conversation.History, query string, params map[string]any) string
	Company(ctx context.Context, history conversation.History, query string, params map[string]any) string
	Comparison(ctx context.Context, history conversation.History, query string, params map[string]any) string
}

// TextHandler 单一入口、只返回文本的处理器（新闻、推荐）
type TextHandler interface {
	Handle(ctx context.Context, history conversation.History, query string, params map[string]any) string
}

// PersonaHandler 帮助与错误人设
type PersonaHandler interface {
	Help(ctx context.Context, history conversation.History, query string, params map[string]any) string
	Error(ctx context.Context, history conversation.History, query string, params map[string]any) string
}

// Handlers 各动作对应的处理器
type Handlers struct {
	Report    ReportHandler
	Clarify   ClarifyHandler
	Recommend TextHandler
	News      TextHandler
	Persona   PersonaHandler
}

// Dispatcher 纯路由：不修改参数，不做业务判断
type Dispatcher struct {
	h      Handlers
	logger *log.Logger
}

// New 创建 Dispatcher
func New(h Handlers, logger *log.Logger) *Dispatcher {
	return &Dispatcher{h: h, logger: log.OrDefault(logger)}
}

// Dispatch 调用恰好一个处理器；desc 为 nil 或动作未知时走 Help 兜底。
// 只有 report 会更新 summary，其余动作原样返回。
func (d *Dispatcher) Dispatch(ctx context.Context, history conversation.History, message string, desc *classifier.Descriptor, summary conversation.Summary) (reply string, out conversation.Summary) {
	action := classifier.ActionUnknown
	var params map[string]any
	if desc != nil {
		action = desc.Action
		params = desc.Parameters
	}
	ctx, span := tracing.StartDispatchSpan(ctx, action.String())
	defer span.End()
	metrics.ActionsTotal.WithLabelValues(action.String()).Inc()

	out = summary
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("handler panic: %v", r)
			tracing.RecordError(span, err)
			d.logger.ErrorContext(ctx, "处理器异常，转 Help 兜底", "action", action, "error", err)
			reply, out = d.fallback(ctx, history, message, params), summary
		}
	}()

	switch action {
	case classifier.ActionReport:
		return d.h.Report.Handle(ctx, history, message, params, summary)
	case classifier.ActionClarifyConcept:
		return d.h.Clarify.Concept(ctx, history, message, params), summary
	case classifier.ActionClarifyCompany:
		return d.h.Clarify.Company(ctx, history, message, params), summary
	case classifier.ActionClarifyComparison:
		return d.h.Clarify.Comparison(ctx, history, message, params), summary
	case classifier.ActionRecommend:
		return d.h.Recommend.Handle(ctx, history, message, params), summary
	case classifier.ActionNewsSummary:
		return d.h.News.Handle(ctx, history, message, params), summary
	case classifier.ActionError:
		return d.h.Persona.Error(ctx, history, message, params), summary
	case classifier.ActionHelp, classifier.ActionUnknown:
		return d.h.Persona.Help(ctx, history, message, params), summary
	default:
		return d.h.Persona.Help(ctx, history, message, params), summary
	}
}

// fallback Help 自身异常时返回固定文本
func (d *Dispatcher) fallback(ctx context.Context, history conversation.History, message string, params map[string]any) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(ctx, "Help 兜底异常", "error", fmt.Sprint(r))
			reply = handler.PersonaFallbackText
		}
	}()
	if d.h.Persona == nil {
		return handler.PersonaFallbackText
	}
	return d.h.Persona.Help(ctx, history, message, params)
}
