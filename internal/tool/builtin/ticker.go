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
	"time"

	"github.com/go-resty/resty/v2"

	"finance-assistant/internal/tool"
)

const defaultYahooSearchURL = "https://query2.finance.yahoo.com/v1/finance/search"

// TickerLookupTool 通过 Yahoo Finance 搜索接口把公司名解析为股票代码
type TickerLookupTool struct {
	client    *resty.Client
	searchURL string
}

// NewTickerLookupTool 创建 ticker_lookup 工具
func NewTickerLookupTool(searchURL string) *TickerLookupTool {
	if searchURL == "" {
		searchURL = defaultYahooSearchURL
	}
	client := resty.New()
	client.SetTimeout(10 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0")
	return &TickerLookupTool{client: client, searchURL: searchURL}
}

// Name 实现 tool.Tool
func (t *TickerLookupTool) Name() string { return "ticker_lookup" }

// Description 实现 tool.Tool
func (t *TickerLookupTool) Description() string {
	return "Find the stock ticker symbol for a company name using Yahoo Finance's search API. " +
		"For example, to find the ticker for 'Apple Inc.', use this tool and use the result with stock_info."
}

// Schema 实现 tool.Tool
func (t *TickerLookupTool) Schema() tool.Schema {
	return tool.Schema{
		Type: "object",
		Properties: map[string]tool.SchemaProperty{
			"company": {Type: "string", Description: "company name"},
		},
		Required: []string{"company"},
	}
}

// Execute 实现 tool.Tool；查询失败以 "Error: …" 文本返回给模型
func (t *TickerLookupTool) Execute(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
	return tool.ToolResult{Content: t.Lookup(ctx, tool.InputString(input, "company"))}, nil
}

// Lookup 返回第一个匹配的代码，无结果时为 "No ticker found"
func (t *TickerLookupTool) Lookup(ctx context.Context, company string) string {
	var result struct {
		Quotes []struct {
			Symbol string `json:"symbol"`
		} `json:"quotes"`
	}
	resp, err := t.client.R().
		SetContext(ctx).
		SetQueryParam("q", company).
		SetResult(&result).
		Get(t.searchURL)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Sprintf("Error: %d %s", resp.StatusCode(), http.StatusText(resp.StatusCode()))
	}
	if len(result.Quotes) == 0 {
		return "No ticker found"
	}
	if result.Quotes[0].Symbol == "" {
		return "Ticker not found"
	}
	return result.Quotes[0].Symbol
}
