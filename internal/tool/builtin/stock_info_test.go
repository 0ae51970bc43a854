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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeMarket struct {
	info      map[string]any
	infoErr   error
	bars      []Bar
	histErr   error
	gotStart  time.Time
	gotEnd    time.Time
	gotDays   int
	gotTicker string
}

func (f *fakeMarket) Info(_ context.Context, ticker string) (map[string]any, error) {
	f.gotTicker = ticker
	return f.info, f.infoErr
}

func (f *fakeMarket) History(_ context.Context, ticker string, start, end time.Time) ([]Bar, error) {
	f.gotTicker, f.gotStart, f.gotEnd = ticker, start, end
	return f.bars, f.histErr
}

func (f *fakeMarket) RecentHistory(_ context.Context, ticker string, days int) ([]Bar, error) {
	f.gotTicker, f.gotDays = ticker, days
	return f.bars, f.histErr
}

var sampleInfo = map[string]any{
	"longName":             "Apple Inc.",
	"regularMarketPrice":   189.5,
	"marketCap":            2.95e12,
	"trailingPE":           nil,
	"forwardPE":            28.1,
	"regularMarketDayHigh": 190.25,
	"fiftyTwoWeekHigh":     199.62,
}

func TestStockInfo_Fields(t *testing.T) {
	m := &fakeMarket{info: sampleInfo}
	tool := NewStockInfoTool(m)
	ctx := context.Background()

	assert.Equal(t, "AAPL: Apple Inc. | Price: 189.5 | Market Cap: 2950000000000", tool.Query(ctx, "aapl"))
	assert.Equal(t, "AAPL", m.gotTicker)
	assert.Equal(t, "AAPL price: 189.5", tool.Query(ctx, "AAPL price"))
	assert.Equal(t, "AAPL pe ratio: 28.1", tool.Query(ctx, "AAPL PE ratio"))
	assert.Equal(t, "AAPL sector: N/A", tool.Query(ctx, "AAPL sector"))
	// "high" 排在 "52 week high" 之前，先被匹配
	assert.Equal(t, "AAPL high: 190.25", tool.Query(ctx, "AAPL 52 week high"))
	assert.Equal(t, "AAPL: Apple Inc. | Price: 189.5 | Market Cap: 2950000000000", tool.Query(ctx, "AAPL something else"))
}

func TestStockInfo_Errors(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "Please provide a ticker symbol.", NewStockInfoTool(&fakeMarket{}).Query(ctx, "  "))
	assert.Equal(t, "Could not retrieve data for TSLA. The service may be rate-limited or unavailable.",
		NewStockInfoTool(&fakeMarket{}).Query(ctx, "TSLA"))
	assert.Equal(t, "Error fetching data for TSLA: rate limited",
		NewStockInfoTool(&fakeMarket{infoErr: errors.New("rate limited")}).Query(ctx, "TSLA price"))
}

func TestStockInfo_History(t *testing.T) {
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	bars := []Bar{
		{Date: day, Open: 1.5, High: 2, Low: 1, Close: 1.75, Volume: 100},
		{Date: day.AddDate(0, 0, 1), Open: 2, High: 3, Low: 1.5, Close: 2.5, Volume: 200},
	}
	ctx := context.Background()

	m := &fakeMarket{bars: bars}
	out := NewStockInfoTool(m).Query(ctx, "AAPL high and low for 2024-06-01 to 2024-06-30")
	assert.Equal(t, "2024-06-03: Open=1.5, High=2, Low=1, Close=1.75, Volume=100\n2024-06-04: Open=2, High=3, Low=1.5, Close=2.5, Volume=200", out)
	assert.Equal(t, "2024-06-01", m.gotStart.Format(dateLayout))
	assert.Equal(t, "2024-06-30", m.gotEnd.Format(dateLayout))

	m = &fakeMarket{bars: bars[:1]}
	out = NewStockInfoTool(m).Query(ctx, "AAPL volume on 2024-06-03")
	assert.Equal(t, "AAPL on 2024-06-03: Open=1.5, High=2, Low=1, Close=1.75, Volume=100", out)
	assert.Equal(t, "2024-06-04", m.gotEnd.Format(dateLayout))

	m = &fakeMarket{bars: bars}
	NewStockInfoTool(m).Query(ctx, "AAPL close price for last 5 days")
	assert.Equal(t, 5, m.gotDays)

	assert.Equal(t, "No data found for AAPL for last 3 days.",
		NewStockInfoTool(&fakeMarket{}).Query(ctx, "AAPL last 3 days"))
	assert.Equal(t, "No data found for AAPL on 2024-06-01.",
		NewStockInfoTool(&fakeMarket{}).Query(ctx, "AAPL 2024-06-01"))
	assert.Equal(t, "No data found for AAPL from 2024-06-01 to 2024-06-02.",
		NewStockInfoTool(&fakeMarket{}).Query(ctx, "AAPL 2024-06-01 - 2024-06-02"))
	assert.Equal(t, "Error fetching last 2 days data for AAPL: down",
		NewStockInfoTool(&fakeMarket{histErr: errors.New("down")}).Query(ctx, "AAPL last 2 days"))
}
