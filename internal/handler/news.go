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
	"finance-assistant/internal/document"
	"finance-assistant/internal/search"
	"finance-assistant/internal/summarize"
	"finance-assistant/pkg/log"
)

// NewsSearchResults 新闻检索的结果条数
const NewsSearchResults = 10

// NewsHandler 检索新闻、抓取正文并做 map-reduce 摘要
type NewsHandler struct {
	refiner    QueryRefiner
	searcher   search.Searcher
	loader     document.Loader
	summarizer summarize.Summarizer
	logger     *log.Logger
}

// NewNewsHandler 创建新闻摘要处理器
func NewNewsHandler(refiner QueryRefiner, searcher search.Searcher, loader document.Loader, summarizer summarize.Summarizer, logger *log.Logger) *NewsHandler {
	return &NewsHandler{
		refiner:    refiner,
		searcher:   searcher,
		loader:     loader,
		summarizer: summarizer,
		logger:     log.OrDefault(logger),
	}
}

// Handle 没有可用文章时返回固定文本，不调用摘要
func (h *NewsHandler) Handle(ctx context.Context, history conversation.History, latest string, params map[string]any) string {
	q := h.refiner.RefineNews(ctx, history, latest)
	urls := searchURLs(ctx, h.searcher, h.logger, []string{q}, NewsSearchResults)
	if len(urls) == 0 {
		return NoNewsText
	}
	texts := documentTexts(h.loader.Load(ctx, urls))
	if len(texts) == 0 {
		return NoNewsText
	}
	h.logger.InfoContext(ctx, "新闻文档已加载", "urls", len(urls), "documents", len(texts))
	summary := strings.TrimSpace(h.summarizer.Summarize(ctx, texts, latest, summarize.NewsPrompts))
	if summary == "" {
		return UnavailableText
	}
	return summary
}
