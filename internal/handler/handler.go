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

// Package handler 实现各动作的处理器：概念/公司/对比澄清、报告、新闻摘要、推荐、帮助与错误
package handler

import (
	"context"

	"finance-assistant/internal/conversation"
	"finance-assistant/internal/report"
)

const (
	// UnavailableText 搜索 Agent 无结果时的回复
	UnavailableText = "Sorry, I couldn't find an answer to that right now. Please try again later."
	// PersonaFallbackText 帮助/错误人设无结果时的回复
	PersonaFallbackText = "Sorry, I couldn't provide help at the moment."
	// NoNewsText 新闻检索没有可用文章
	NoNewsText = "No relevant news articles found."
	// MissingCompanyText 报告意图成立但缺少公司名
	MissingCompanyText = "Please provide the company name to generate the report."
	// SummaryUnavailableText 有文档但摘要调用失败
	SummaryUnavailableText = "The report summary could not be generated at the moment."
)

// SearchAgent 带工具的检索 Agent，返回最终回答
type SearchAgent interface {
	Run(ctx context.Context, query string) (string, error)
}

// ConceptAnswerer 术语表问答；无答案时返回 "No" 或空
type ConceptAnswerer interface {
	Answer(ctx context.Context, query string) string
}

// QueryRefiner 结合历史改写查询
type QueryRefiner interface {
	Refine(ctx context.Context, history conversation.History, query string) string
	RefineNews(ctx context.Context, history conversation.History, latest string) string
}

// ReportPublisher 渲染并归档报告
type ReportPublisher interface {
	Publish(ctx context.Context, r *report.Report)
}
