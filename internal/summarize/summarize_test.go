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

package summarize

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-assistant/internal/conversation"
	"finance-assistant/internal/splitter"
)

var testPrompts = Prompts{Map: "MAP {text} | {query}", Reduce: "REDUCE {text} | {query}"}

type fakeSender struct {
	mu      sync.Mutex
	reply   func(message string) string
	maps    []string
	reduces []string
}

func (f *fakeSender) Send(_ context.Context, _ conversation.History, message, _ string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.HasPrefix(message, "MAP ") {
		f.maps = append(f.maps, message)
	} else {
		f.reduces = append(f.reduces, message)
	}
	return f.reply(message)
}

func newTestSummarizer(t *testing.T, sender *fakeSender, maxTokens, reduceTokens int) *MapReduce {
	t.Helper()
	m, err := New(context.Background(), sender, Config{
		Splitter:     splitter.NewTokenSplitter(splitter.Options{MaxTokens: maxTokens}),
		ReduceTokens: reduceTokens,
	}, nil)
	require.NoError(t, err)
	return m
}

func TestMapReduce_Summarize(t *testing.T) {
	sender := &fakeSender{reply: func(msg string) string {
		if strings.HasPrefix(msg, "MAP ") {
			return "sum(" + strings.Fields(msg)[1] + ")"
		}
		return " FINAL "
	}}
	m := newTestSummarizer(t, sender, 3, 1000)

	out := m.Summarize(context.Background(), []string{"alpha b c d", "   ", "omega"}, "apple news", testPrompts)
	assert.Equal(t, "FINAL", out)
	require.Len(t, sender.maps, 3)
	assert.Equal(t, "MAP alpha b c | apple news", sender.maps[0])
	require.Len(t, sender.reduces, 1)
	assert.Equal(t, "REDUCE sum(alpha)\n\nsum(d)\n\nsum(omega) | apple news", sender.reduces[0])
}

func TestMapReduce_EmptyMapOutput(t *testing.T) {
	sender := &fakeSender{reply: func(string) string { return "" }}
	m := newTestSummarizer(t, sender, 10, 1000)

	assert.Equal(t, "", m.Summarize(context.Background(), []string{"some text"}, "q", testPrompts))
	assert.Len(t, sender.maps, 1)
	assert.Empty(t, sender.reduces, "reduce must not run without map summaries")

	assert.Equal(t, "", m.Summarize(context.Background(), nil, "q", testPrompts))
}

func TestMapReduce_CollapsesLargeReduceInput(t *testing.T) {
	sender := &fakeSender{reply: func(msg string) string {
		if strings.HasPrefix(msg, "MAP ") {
			return "a b"
		}
		return "r"
	}}
	m := newTestSummarizer(t, sender, 1, 2)

	out := m.Summarize(context.Background(), []string{"x y z"}, "q", testPrompts)
	assert.Equal(t, "r", out)
	assert.Len(t, sender.maps, 3)
	// 3 次单条压缩，2 次两两合并，1 次最终合并
	assert.Len(t, sender.reduces, 6)
}

func TestBatchByTokens(t *testing.T) {
	batches := batchByTokens([]string{"a b", "c", "d e f g", "h"}, 3)
	assert.Equal(t, [][]string{{"a b", "c"}, {"d e f g"}, {"h"}}, batches)
}
