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
	"encoding/json"
	"strings"

	"finance-assistant/internal/conversation"
	"finance-assistant/internal/document"
	"finance-assistant/internal/model/llm"
	"finance-assistant/internal/parser"
	"finance-assistant/internal/prompts"
	"finance-assistant/internal/report"
	"finance-assistant/internal/search"
	"finance-assistant/internal/summarize"
	"finance-assistant/pkg/log"
)

const (
	// MaxReportQueries 报告检索查询的上限
	MaxReportQueries = 10
	// ReportSearchResults 每条报告查询的检索条数
	ReportSearchResults = 10
)

// ReportHandler 报告意图识别、参数累积与报告生成
type ReportHandler struct {
	gateway    llm.Sender
	clarify    *ClarifyHandler
	searcher   search.Searcher
	loader     document.Loader
	summarizer summarize.Summarizer
	publisher  ReportPublisher
	logger     *log.Logger
}

// ReportDeps 报告处理器依赖
type ReportDeps struct {
	Gateway    llm.Sender
	Clarify    *ClarifyHandler
	Searcher   search.Searcher
	Loader     document.Loader
	Summarizer summarize.Summarizer
	// Publisher 可为 nil，此时报告只返回不归档
	Publisher ReportPublisher
	Logger    *log.Logger
}

// NewReportHandler 创建报告处理器
func NewReportHandler(deps ReportDeps) *ReportHandler {
	return &ReportHandler{
		gateway:    deps.Gateway,
		clarify:    deps.Clarify,
		searcher:   deps.Searcher,
		loader:     deps.Loader,
		summarizer: deps.Summarizer,
		publisher:  deps.Publisher,
		logger:     log.OrDefault(deps.Logger),
	}
}

// Handle 判断是否明确要求生成报告，并把抽取到的要素合并进 summary
func (h *ReportHandler) Handle(ctx context.Context, history conversation.History, query string, params map[string]any, summary conversation.Summary) (string, conversation.Summary) {
	var parsed map[string]any
	msg, err := prompts.Render(ctx, prompts.IntentAndFactors, map[string]any{
		"history":    conversation.FormatHistory(history),
		"user_query": query,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "渲染报告意图提示词失败", "error", err)
	} else if obj, ok := parser.ParseObject(h.gateway.Send(ctx, nil, msg, "")); ok {
		parsed = obj
	} else {
		h.logger.WarnContext(ctx, "报告意图解析失败")
	}

	factors, _ := parsed["factors"].(map[string]any)
	intent, _ := parsed["intent"].(bool)

	var reply string
	switch company, _ := factors["company"].(string); {
	case intent && strings.TrimSpace(company) != "":
		reply = "Generating report for " + company + "..."
	case intent:
		if q, ok := parsed["question"].(string); ok && strings.TrimSpace(q) != "" {
			reply = q
		} else {
			reply = MissingCompanyText
		}
	default:
		reply = h.clarify.Company(ctx, history, query, params)
	}
	return reply, summary.Merge(factors)
}

// Generate 偏好概括 → 查询生成 → 检索 → 抓取 → map-reduce 摘要；仅在 ctx 取消时返回错误
func (h *ReportHandler) Generate(ctx context.Context, summary conversation.Summary) (*report.Report, error) {
	r := report.New(summary)

	raw, _ := json.Marshal(r.Factors)
	r.Preferences = h.call(ctx, prompts.UserPreferences, map[string]any{"query_summary": string(raw)})
	if r.Preferences == "" {
		r.Preferences = string(raw)
	}

	if list, ok := parser.StringList(h.call(ctx, prompts.SearchQueries, map[string]any{"user_preferences": r.Preferences})); ok {
		if len(list) > MaxReportQueries {
			list = list[:MaxReportQueries]
		}
		r.Queries = list
	} else {
		h.logger.WarnContext(ctx, "报告查询列表解析失败")
	}

	urls := searchURLs(ctx, h.searcher, h.logger, r.Queries, ReportSearchResults)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var texts []string
	if len(urls) > 0 {
		docs := h.loader.Load(ctx, urls)
		for _, d := range docs {
			r.Sources = append(r.Sources, d.URL)
		}
		texts = documentTexts(docs)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(texts) == 0 {
		r.Summary = report.NoInformationSummary
	} else {
		h.logger.InfoContext(ctx, "报告文档已加载", "report_id", r.ID, "queries", len(r.Queries), "documents", len(texts))
		r.Summary = strings.TrimSpace(h.summarizer.Summarize(ctx, texts, r.Preferences, summarize.ReportPrompts))
		if r.Summary == "" {
			r.Summary = SummaryUnavailableText
		}
	}

	if h.publisher != nil {
		h.publisher.Publish(ctx, r)
	}
	return r, nil
}

func (h *ReportHandler) call(ctx context.Context, tmpl string, vars map[string]any) string {
	msg, err := prompts.Render(ctx, tmpl, vars)
	if err != nil {
		h.logger.ErrorContext(ctx, "渲染报告提示词失败", "error", err)
		return ""
	}
	return strings.TrimSpace(h.gateway.Send(ctx, nil, msg, ""))
}
