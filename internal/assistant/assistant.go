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

// Package assistant 串起单次请求：拆分历史、分类、分发
package assistant

import (
	"context"
	"time"

	"finance-assistant/internal/classifier"
	"finance-assistant/internal/conversation"
	"finance-assistant/internal/report"
	"finance-assistant/pkg/log"
)

// Classifier 意图分类
type Classifier interface {
	Classify(ctx context.Context, history conversation.History, latest string) (*classifier.Descriptor, bool)
}

// Dispatcher 动作分发
type Dispatcher interface {
	Dispatch(ctx context.Context, history conversation.History, message string, desc *classifier.Descriptor, summary conversation.Summary) (string, conversation.Summary)
}

// ReportGenerator 报告生成
type ReportGenerator interface {
	Generate(ctx context.Context, summary conversation.Summary) (*report.Report, error)
}

// Assistant 无状态，历史与 summary 均由调用方持有
type Assistant struct {
	classifier Classifier
	dispatcher Dispatcher
	reports    ReportGenerator
	logger     *log.Logger
}

// New 创建 Assistant
func New(c Classifier, d Dispatcher, reports ReportGenerator, logger *log.Logger) *Assistant {
	return &Assistant{classifier: c, dispatcher: d, reports: reports, logger: log.OrDefault(logger)}
}

// HandleQuery 最后一轮为当前用户消息，其余为历史；分类失败按缺省描述交给 Dispatcher
func (a *Assistant) HandleQuery(ctx context.Context, messages conversation.History, summary conversation.Summary) (string, conversation.Summary) {
	start := time.Now()
	history, latest := messages.SplitLatest()

	desc, ok := a.classifier.Classify(ctx, history, latest)
	if !ok {
		desc = nil
	}
	action := classifier.ActionUnknown
	if desc != nil {
		action = desc.Action
	}

	reply, out := a.dispatcher.Dispatch(ctx, history, latest, desc, summary)
	if out == nil {
		out = conversation.Summary{}
	}
	a.logger.InfoContext(ctx, "query handled",
		"action", action,
		"history_turns", len(history),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return reply, out
}

// GenerateReport 按累积的 summary 生成报告
func (a *Assistant) GenerateReport(ctx context.Context, summary conversation.Summary) (*report.Report, error) {
	if summary == nil {
		summary = conversation.Summary{}
	}
	return a.reports.Generate(ctx, summary)
}
