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

package document

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"

	"finance-assistant/pkg/config"
	"finance-assistant/pkg/log"
	"finance-assistant/pkg/metrics"
)

const (
	validateUserAgent = "Mozilla/5.0"
	defaultUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
)

// Document 抓取到的网页正文
type Document struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Loader 批量加载网页；失败的 URL 被丢弃，结果保持输入顺序
type Loader interface {
	Load(ctx context.Context, urls []string) []Document
}

// HTTPLoader 先以 GET 校验可达（200），再抓取并抽取正文
type HTTPLoader struct {
	validate    *resty.Client
	fetch       *resty.Client
	concurrency int
	logger      *log.Logger
}

// NewHTTPLoader 创建网页加载器
func NewHTTPLoader(cfg config.FetchConfig, logger *log.Logger) *HTTPLoader {
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	validate := resty.New().
		SetTimeout(parseDuration(cfg.ValidateTimeout, 5*time.Second)).
		SetHeader("User-Agent", validateUserAgent)
	fetch := resty.New().
		SetTimeout(parseDuration(cfg.FetchTimeout, 10*time.Second)).
		SetHeader("User-Agent", ua)
	return &HTTPLoader{
		validate:    validate,
		fetch:       fetch,
		concurrency: concurrency,
		logger:      log.OrDefault(logger),
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return fallback
}

// Load 并行加载，单个 URL 的失败不影响其他 URL
func (l *HTTPLoader) Load(ctx context.Context, urls []string) []Document {
	if len(urls) == 0 {
		return nil
	}
	results := make([]*Document, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, u := range urls {
		g.Go(func() error {
			doc, err := l.loadOne(gctx, u)
			if err != nil {
				metrics.DocumentFetchTotal.WithLabelValues("error").Inc()
				l.logger.WarnContext(gctx, "网页加载失败", "url", u, "error", err)
				return nil
			}
			metrics.DocumentFetchTotal.WithLabelValues("ok").Inc()
			results[i] = doc
			return nil
		})
	}
	_ = g.Wait()

	docs := make([]Document, 0, len(urls))
	for _, d := range results {
		if d != nil {
			docs = append(docs, *d)
		}
	}
	return docs
}

func (l *HTTPLoader) loadOne(ctx context.Context, url string) (*Document, error) {
	resp, err := l.validate.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("validate: status %d", resp.StatusCode())
	}

	resp, err = l.fetch.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch: status %d", resp.StatusCode())
	}
	var text string
	if strings.Contains(strings.ToLower(resp.Header().Get("Content-Type")), "html") {
		text, err = ExtractText(resp.String())
		if err != nil {
			return nil, err
		}
	} else {
		text = nonEmptyLines(resp.String())
	}
	if text == "" {
		return nil, fmt.Errorf("empty content")
	}
	return &Document{URL: url, Content: text}, nil
}
