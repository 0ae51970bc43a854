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
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultYahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// Bar 一个交易日的行情
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// MarketData 行情数据源；Info 的键沿用 Yahoo quote 字段名（regularMarketPrice、marketCap 等）
type MarketData interface {
	Info(ctx context.Context, ticker string) (map[string]any, error)
	History(ctx context.Context, ticker string, start, end time.Time) ([]Bar, error)
	RecentHistory(ctx context.Context, ticker string, days int) ([]Bar, error)
}

// YahooMarketData 基于 Yahoo chart 接口的行情实现
type YahooMarketData struct {
	client   *resty.Client
	chartURL string
}

// NewYahooMarketData 创建 Yahoo 行情数据源
func NewYahooMarketData(chartURL string) *YahooMarketData {
	if chartURL == "" {
		chartURL = defaultYahooChartURL
	}
	client := resty.New()
	client.SetTimeout(10 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0")
	return &YahooMarketData{client: client, chartURL: strings.TrimRight(chartURL, "/")}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta       map[string]any `json:"meta"`
			Timestamp  []int64        `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (y *YahooMarketData) chart(ctx context.Context, ticker string, params map[string]string) (*chartResponse, error) {
	var out chartResponse
	resp, err := y.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&out).
		SetError(&out).
		Get(y.chartURL + "/" + url.PathEscape(ticker))
	if err != nil {
		return nil, err
	}
	if out.Chart.Error != nil {
		return nil, fmt.Errorf("%s: %s", out.Chart.Error.Code, out.Chart.Error.Description)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("yahoo chart: status %d", resp.StatusCode())
	}
	if len(out.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo chart: empty result")
	}
	return &out, nil
}

// Info 读取 meta 并映射为 quote 字段；chart 接口不含基本面数据，这些字段缺失
func (y *YahooMarketData) Info(ctx context.Context, ticker string) (map[string]any, error) {
	out, err := y.chart(ctx, ticker, map[string]string{"range": "1d", "interval": "1d"})
	if err != nil {
		return nil, err
	}
	res := out.Chart.Result[0]
	meta := res.Meta
	info := make(map[string]any, len(meta)+4)
	for k, v := range meta {
		info[k] = v
	}
	rename := map[string]string{
		"exchangeName":        "exchange",
		"regularMarketVolume": "volume",
		"chartPreviousClose":  "regularMarketPreviousClose",
	}
	for from, to := range rename {
		if v, ok := meta[from]; ok {
			if _, exists := info[to]; !exists {
				info[to] = v
			}
		}
	}
	if q := res.Indicators.Quote; len(q) > 0 && len(q[0].Open) > 0 {
		if v := q[0].Open[len(q[0].Open)-1]; v != nil {
			info["regularMarketOpen"] = *v
		}
	}
	return info, nil
}

// History 返回 [start, end) 区间的日线
func (y *YahooMarketData) History(ctx context.Context, ticker string, start, end time.Time) ([]Bar, error) {
	out, err := y.chart(ctx, ticker, map[string]string{
		"period1":  strconv.FormatInt(start.Unix(), 10),
		"period2":  strconv.FormatInt(end.Unix(), 10),
		"interval": "1d",
	})
	if err != nil {
		return nil, err
	}
	return toBars(out), nil
}

// RecentHistory 返回最近 days 天的日线
func (y *YahooMarketData) RecentHistory(ctx context.Context, ticker string, days int) ([]Bar, error) {
	out, err := y.chart(ctx, ticker, map[string]string{
		"range":    strconv.Itoa(days) + "d",
		"interval": "1d",
	})
	if err != nil {
		return nil, err
	}
	return toBars(out), nil
}

func toBars(out *chartResponse) []Bar {
	res := out.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return nil
	}
	q := res.Indicators.Quote[0]
	bars := make([]Bar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		c := at(q.Close, i)
		if c == nil {
			continue
		}
		bar := Bar{Date: time.Unix(ts, 0).UTC(), Close: *c}
		if v := at(q.Open, i); v != nil {
			bar.Open = *v
		}
		if v := at(q.High, i); v != nil {
			bar.High = *v
		}
		if v := at(q.Low, i); v != nil {
			bar.Low = *v
		}
		if v := at(q.Volume, i); v != nil {
			bar.Volume = int64(*v)
		}
		bars = append(bars, bar)
	}
	return bars
}

func at(s []*float64, i int) *float64 {
	if i < len(s) {
		return s[i]
	}
	return nil
}
