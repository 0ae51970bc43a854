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

	"finance-assistant/internal/document"
	"finance-assistant/internal/search"
	"finance-assistant/pkg/log"
	"finance-assistant/pkg/tracing"
)

// searchURLs 依次执行查询并按出现顺序去重 URL；单条查询失败只记录日志
func searchURLs(ctx context.Context, searcher search.Searcher, logger *log.Logger, queries []string, k int) []string {
	if searcher == nil {
		return nil
	}
	var all []search.Result
	for _, q := range queries {
		if ctx.Err() != nil {
			break
		}
		spanCtx, span := tracing.StartToolSpan(ctx, "web_search")
		results, err := searcher.Search(spanCtx, q, k)
		if err != nil {
			tracing.RecordError(span, err)
			logger.WarnContext(ctx, "检索失败，跳过该查询", "query", q, "error", err)
		}
		span.End()
		all = append(all, results...)
	}
	return search.URLs(all)
}

func documentTexts(docs []document.Document) []string {
	texts := make([]string, 0, len(docs))
	for _, d := range docs {
		if c := strings.TrimSpace(d.Content); c != "" {
			texts = append(texts, c)
		}
	}
	return texts
}
