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
	"regexp"
	"strconv"
	"strings"
	"time"

	"finance-assistant/internal/tool"
)

const dateLayout = "2006-01-02"

var (
	datePattern     = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)
	rangePattern    = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})\s*(to|-)\s*(\d{4}-\d{2}-\d{2})`)
	lastDaysPattern = regexp.MustCompile(`last\s+(\d+)\s+days`)
)

// stockField 字段名与候选 quote 键，按顺序匹配，第一个出现在查询中的字段生效
type stockField struct {
	name string
	keys []string
}

var stockFields = []stockField{
	{"price", []string{"regularMarketPrice", "currentPrice"}},
	{"market cap", []string{"marketCap"}},
	{"pe ratio", []string{"trailingPE", "forwardPE"}},
	{"open", []string{"regularMarketOpen"}},
	{"close", []string{"regularMarketPreviousClose", "previousClose"}},
	{"high", []string{"regularMarketDayHigh", "dayHigh"}},
	{"low", []string{"regularMarketDayLow", "dayLow"}},
	{"volume", []string{"volume"}},
	{"dividend yield", []string{"dividendYield"}},
	{"dividend", []string{"dividendRate"}},
	{"sector", []string{"sector"}},
	{"industry", []string{"industry"}},
	{"name", []string{"shortName", "longName"}},
	{"exchange", []string{"exchange"}},
	{"currency", []string{"currency"}},
	{"52 week high", []string{"fiftyTwoWeekHigh"}},
	{"52 week low", []string{"fiftyTwoWeekLow"}},
}

// StockInfoTool 行情查询，输入形如 "AAPL"、"AAPL price"、"AAPL close price for last 5 days"、
// "AAPL high and low for 2024-06-01 to 2024-06-30"
type StockInfoTool struct {
	data MarketData
}

// NewStockInfoTool 创建 stock_info 工具
func NewStockInfoTool(data MarketData) *StockInfoTool {
	return &StockInfoTool{data: data}
}

// Name 实现 tool.Tool
func (t *StockInfoTool) Name() string { return "stock_info" }

// Description 实现 tool.Tool
func (t *StockInfoTool) Description() string {
	return "Get stock price and financial info for a given ticker symbol. Supports queries like: " +
		"'AAPL' (summary), 'AAPL price', 'AAPL price on 2024-07-01', 'AAPL close price for last 5 days', " +
		"'AAPL volume on 2024-06-30', 'AAPL high and low for 2024-06-01 to 2024-06-30', 'AAPL market cap', 'AAPL pe ratio'. " +
		"Use it for prices, volume, open/close/high/low, market cap, PE ratio, dividend, sector, industry and historical prices."
}

// Schema 实现 tool.Tool
func (t *StockInfoTool) Schema() tool.Schema {
	return tool.Schema{
		Type: "object",
		Properties: map[string]tool.SchemaProperty{
			"query": {Type: "string", Description: "ticker followed by an optional field and date, date range or 'last N days'"},
		},
		Required: []string{"query"},
	}
}

// Execute 实现 tool.Tool；所有数据源错误以文本形式返回
func (t *StockInfoTool) Execute(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
	return tool.ToolResult{Content: t.Query(ctx, tool.InputString(input, "query"))}, nil
}

// Query 解析查询并格式化结果
func (t *StockInfoTool) Query(ctx context.Context, query string) string {
	parts := strings.Fields(query)
	if len(parts) == 0 {
		return "Please provide a ticker symbol."
	}
	ticker := strings.ToUpper(parts[0])
	rest := strings.ToLower(strings.Join(parts[1:], " "))

	if m := rangePattern.FindStringSubmatch(rest); m != nil {
		return t.rangeHistory(ctx, ticker, m[1], m[3])
	}
	if date := datePattern.FindString(rest); date != "" {
		return t.dayHistory(ctx, ticker, date)
	}
	if m := lastDaysPattern.FindStringSubmatch(rest); m != nil {
		n, _ := strconv.Atoi(m[1])
		return t.recentHistory(ctx, ticker, n)
	}

	info, err := t.data.Info(ctx, ticker)
	if err != nil {
		return fmt.Sprintf("Error fetching data for %s: %v", ticker, err)
	}
	if len(info) == 0 {
		return fmt.Sprintf("Could not retrieve data for %s. The service may be rate-limited or unavailable.", ticker)
	}
	if rest != "" {
		for _, f := range stockFields {
			if !strings.Contains(rest, f.name) {
				continue
			}
			for _, k := range f.keys {
				if v, ok := info[k]; ok && v != nil {
					return fmt.Sprintf("%s %s: %s", ticker, f.name, formatValue(v))
				}
			}
			return fmt.Sprintf("%s %s: N/A", ticker, f.name)
		}
	}
	return fmt.Sprintf("%s: %s | Price: %s | Market Cap: %s", ticker,
		infoValue(info, "longName"), infoValue(info, "regularMarketPrice"), infoValue(info, "marketCap"))
}

func (t *StockInfoTool) rangeHistory(ctx context.Context, ticker, startStr, endStr string) string {
	start, err1 := time.Parse(dateLayout, startStr)
	end, err2 := time.Parse(dateLayout, endStr)
	if err1 != nil || err2 != nil {
		return fmt.Sprintf("Error fetching historical data for %s: invalid date", ticker)
	}
	bars, err := t.data.History(ctx, ticker, start, end)
	if err != nil {
		return fmt.Sprintf("Error fetching historical data for %s: %v", ticker, err)
	}
	if len(bars) == 0 {
		return fmt.Sprintf("No data found for %s from %s to %s.", ticker, startStr, endStr)
	}
	return formatBars(bars)
}

func (t *StockInfoTool) dayHistory(ctx context.Context, ticker, date string) string {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return fmt.Sprintf("Error fetching data for %s on %s: %v", ticker, date, err)
	}
	bars, err := t.data.History(ctx, ticker, day, day.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Sprintf("Error fetching data for %s on %s: %v", ticker, date, err)
	}
	if len(bars) == 0 {
		return fmt.Sprintf("No data found for %s on %s.", ticker, date)
	}
	return fmt.Sprintf("%s on %s: %s", ticker, date, formatBar(bars[0]))
}

func (t *StockInfoTool) recentHistory(ctx context.Context, ticker string, n int) string {
	bars, err := t.data.RecentHistory(ctx, ticker, n)
	if err != nil {
		return fmt.Sprintf("Error fetching last %d days data for %s: %v", n, ticker, err)
	}
	if len(bars) == 0 {
		return fmt.Sprintf("No data found for %s for last %d days.", ticker, n)
	}
	return formatBars(bars)
}

func formatBars(bars []Bar) string {
	lines := make([]string, 0, len(bars))
	for _, b := range bars {
		lines = append(lines, b.Date.Format(dateLayout)+": "+formatBar(b))
	}
	return strings.Join(lines, "\n")
}

func formatBar(b Bar) string {
	return fmt.Sprintf("Open=%s, High=%s, Low=%s, Close=%s, Volume=%d",
		formatFloat(b.Open), formatFloat(b.High), formatFloat(b.Low), formatFloat(b.Close), b.Volume)
}

func infoValue(info map[string]any, key string) string {
	if v, ok := info[key]; ok && v != nil {
		return formatValue(v)
	}
	return "N/A"
}

func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return formatFloat(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
