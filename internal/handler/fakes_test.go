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
	"errors"
	"strings"
	"sync"

	"finance-assistant/internal/conversation"
	"finance-assistant/internal/document"
	"finance-assistant/internal/report"
	"finance-assistant/internal/search"
	"finance-assistant/internal/summarize"
)

type sendCall struct {
	history conversation.History
	message string
	system  string
}

// routedSender 按消息中的关键片段返回固定回复
type routedSender struct {
	mu     sync.Mutex
	routes map[string]string
	calls  []sendCall
}

func (s *routedSender) Send(_ context.Context, h conversation.History, message, system string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, sendCall{history: h, message: message, system: system})
	for marker, out := range s.routes {
		if strings.Contains(message, marker) || strings.Contains(system, marker) {
			return out
		}
	}
	return ""
}

type echoRefiner struct {
	queries []string
	news    []string
}

func (r *echoRefiner) Refine(_ context.Context, _ conversation.History, query string) string {
	r.queries = append(r.queries, query)
	return query
}

func (r *echoRefiner) RefineNews(_ context.Context, _ conversation.History, latest string) string {
	r.news = append(r.news, latest)
	return "news: " + latest
}

type fakeAgent struct {
	out     string
	err     error
	prompts []string
}

func (a *fakeAgent) Run(_ context.Context, query string) (string, error) {
	a.prompts = append(a.prompts, query)
	return a.out, a.err
}

type fakeGlossary struct {
	answer  string
	queries []string
}

func (g *fakeGlossary) Answer(_ context.Context, query string) string {
	g.queries = append(g.queries, query)
	return g.answer
}

type fakeSearcher struct {
	results map[string][]search.Result
	fail    map[string]bool
	calls   []string
	ks      []int
}

func (s *fakeSearcher) Search(_ context.Context, query string, k int) ([]search.Result, error) {
	s.calls = append(s.calls, query)
	s.ks = append(s.ks, k)
	if s.fail[query] {
		return nil, errors.New("search backend down")
	}
	return s.results[query], nil
}

type fakeLoader struct {
	pages map[string]string
	got   []string
}

func (l *fakeLoader) Load(_ context.Context, urls []string) []document.Document {
	l.got = append(l.got, urls...)
	var docs []document.Document
	for _, u := range urls {
		if c, ok := l.pages[u]; ok {
			docs = append(docs, document.Document{URL: u, Content: c})
		}
	}
	return docs
}

type fakeSummarizer struct {
	out     string
	calls   int
	texts   []string
	query   string
	prompts summarize.Prompts
}

func (s *fakeSummarizer) Summarize(_ context.Context, texts []string, query string, p summarize.Prompts) string {
	s.calls++
	s.texts = texts
	s.query = query
	s.prompts = p
	return s.out
}

type fakePublisher struct {
	published []*report.Report
}

func (p *fakePublisher) Publish(_ context.Context, r *report.Report) {
	r.DownloadURL = "/api/download/" + r.FileName()
	p.published = append(p.published, r)
}
