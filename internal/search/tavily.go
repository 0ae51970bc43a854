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

package search

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"finance-assistant/pkg/config"
)

const defaultTavilyBaseURL = "https://api.tavily.com"

// Result 一条搜索结果
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Searcher 网页搜索，k 为最多返回的结果数
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]Result, error)
}

// TavilySearcher Tavily 搜索 API 客户端
type TavilySearcher struct {
	client     *resty.Client
	apiKey     string
	baseURL    string
	maxResults int
}

// NewTavilySearcher 创建 Tavily 搜索客户端
func NewTavilySearcher(cfg config.TavilyConfig) *TavilySearcher {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultTavilyBaseURL
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("Content-Type", "application/json")
	return &TavilySearcher{
		client:     client,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxResults: maxResults,
	}
}

type tavilyRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type tavilyResponse struct {
	Results []Result `json:"results"`
}

// Search 调用 /search；没有 URL 的结果被丢弃。k <= 0 时使用配置的 max_results
func (s *TavilySearcher) Search(ctx context.Context, query string, k int) ([]Result, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("tavily: api key 未配置")
	}
	if k <= 0 {
		k = s.maxResults
	}
	var out tavilyResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(tavilyRequest{APIKey: s.apiKey, Query: query, MaxResults: k, SearchDepth: "basic"}).
		SetResult(&out).
		Post(s.baseURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("tavily: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("tavily: status %d: %s", resp.StatusCode(), resp.String())
	}
	results := make([]Result, 0, len(out.Results))
	for _, r := range out.Results {
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		results = append(results, r)
	}
	return results, nil
}

// URLs 按出现顺序去重后的 URL 列表
func URLs(results []Result) []string {
	seen := make(map[string]struct{}, len(results))
	urls := make([]string, 0, len(results))
	for _, r := range results {
		if _, ok := seen[r.URL]; ok || r.URL == "" {
			continue
		}
		seen[r.URL] = struct{}{}
		urls = append(urls, r.URL)
	}
	return urls
}
