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

package builtin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"

	"finance-assistant/internal/tool"
)

const defaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"

// WebSearchResult 一条网页搜索结果
type WebSearchResult struct {
	Title   string
	Link    string
	Snippet string
}

// WebSearchTool 基于 DuckDuckGo HTML 端点的网页搜索，输出 [snippet: …, title: …, link: …] 行
type WebSearchTool struct {
	client     *resty.Client
	baseURL    string
	maxResults int
}

// NewWebSearchTool 创建 web_search 工具
func NewWebSearchTool(baseURL, userAgent string, maxResults int) *WebSearchTool {
	if baseURL == "" {
		baseURL = defaultDuckDuckGoURL
	}
	if maxResults <= 0 {
		maxResults = 4
	}
	if userAgent == "" {
		userAgent = "Mozilla/5.0"
	}
	client := resty.New()
	client.SetTimeout(10 * time.Second)
	client.SetHeader("User-Agent", userAgent)
	return &WebSearchTool{client: client, baseURL: baseURL, maxResults: maxResults}
}

// Name 实现 tool.Tool
func (t *WebSearchTool) Name() string { return "web_search" }

// Description 实现 tool.Tool
func (t *WebSearchTool) Description() string {
	return "Search the web for financial info. Input is a search query."
}

// Schema 实现 tool.Tool
func (t *WebSearchTool) Schema() tool.Schema {
	return tool.Schema{
		Type: "object",
		Properties: map[string]tool.SchemaProperty{
			"query": {Type: "string", Description: "search query"},
		},
		Required: []string{"query"},
	}
}

// Execute 实现 tool.Tool
func (t *WebSearchTool) Execute(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
	query := tool.InputString(input, "query")
	if query == "" {
		return tool.ToolResult{Err: "query 不能为空"}, nil
	}
	results, err := t.Search(ctx, query)
	if err != nil {
		return tool.ToolResult{Err: err.Error()}, nil
	}
	if len(results) == 0 {
		return tool.ToolResult{Content: "No good DuckDuckGo Search Result was found"}, nil
	}
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("[snippet: %s, title: %s, link: %s]", r.Snippet, r.Title, r.Link))
	}
	return tool.ToolResult{Content: strings.Join(lines, ", ")}, nil
}

// Search 查询并解析结果页
func (t *WebSearchTool) Search(ctx context.Context, query string) ([]WebSearchResult, error) {
	resp, err := t.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{"q": query}).
		Post(t.baseURL)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo search: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo search: status %d", resp.StatusCode())
	}
	doc, err := html.Parse(strings.NewReader(resp.String()))
	if err != nil {
		return nil, fmt.Errorf("parse duckduckgo html: %w", err)
	}
	return parseDuckDuckGo(doc, t.maxResults), nil
}

// parseDuckDuckGo 提取 result__a（标题与链接）和 result__snippet（摘要）
func parseDuckDuckGo(doc *html.Node, limit int) []WebSearchResult {
	var out []WebSearchResult
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if len(out) >= limit {
			return
		}
		if n.Type == html.ElementNode && hasClass(n, "result") && !hasClass(n, "result--ad") {
			var r WebSearchResult
			forEachElement(n, func(c *html.Node) {
				switch {
				case c.Data == "a" && hasClass(c, "result__a"):
					r.Title = collapseSpace(textContent(c))
					r.Link = resolveDuckDuckGoLink(attr(c, "href"))
				case hasClass(c, "result__snippet"):
					r.Snippet = collapseSpace(textContent(c))
				}
			})
			if r.Link != "" {
				out = append(out, r)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

// resolveDuckDuckGoLink 还原 //duckduckgo.com/l/?uddg=<url> 跳转链接
func resolveDuckDuckGoLink(href string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}

func forEachElement(n *html.Node, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			fn(c)
		}
		forEachElement(c, fn)
	}
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
