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
	"finance-assistant/internal/tool/registry"
)

// Config 内置工具依赖
type Config struct {
	DuckDuckGoURL  string
	UserAgent      string
	YahooSearchURL string
	MaxResults     int
	// Market 为 nil 时使用 Yahoo chart 接口
	Market   MarketData
	ChartURL string
}

// RegisterBuiltin 注册搜索 Agent 使用的四个工具：web_search、ticker_lookup、stock_info、math
func RegisterBuiltin(reg *registry.Registry, cfg Config) {
	if reg == nil {
		return
	}
	market := cfg.Market
	if market == nil {
		market = NewYahooMarketData(cfg.ChartURL)
	}
	reg.Register(NewWebSearchTool(cfg.DuckDuckGoURL, cfg.UserAgent, cfg.MaxResults))
	reg.Register(NewTickerLookupTool(cfg.YahooSearchURL))
	reg.Register(NewStockInfoTool(market))
	reg.Register(NewMathTool())
}
