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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-assistant/internal/conversation"
	"finance-assistant/internal/report"
	"finance-assistant/internal/search"
	"finance-assistant/internal/summarize"
)

const intentMarker = "To determine the user's intent"

func newReportHandler(sender *routedSender, agent *fakeAgent, searcher *fakeSearcher, loader *fakeLoader, sum *fakeSummarizer, pub ReportPublisher) *ReportHandler {
	if agent == nil {
		agent = &fakeAgent{}
	}
	return NewReportHandler(ReportDeps{
		Gateway:    sender,
		Clarify:    NewClarifyHandler(&echoRefiner{}, nil, agent, nil),
		Searcher:   searcher,
		Loader:     loader,
		Summarizer: sum,
		Publisher:  pub,
	})
}

func TestReportHandle_IntentWithCompany(t *testing.T) {
	sender := &routedSender{routes: map[string]string{
		intentMarker: "```json\n{\"intent\": true, \"factors\": {\"company\": \"Apple Inc.\", \"timeframe\": \"2025\"}, \"question\": \"Any focus areas?\"}\n```",
	}}
	h := newReportHandler(sender, nil, nil, nil, nil, nil)
	history := conversation.History{conversation.NewTurn("user", "hi"), conversation.NewTurn("model", "hello")}

	reply, summary := h.Handle(context.Background(), history, "Generate a report on Apple", nil, nil)

	assert.Equal(t, "Generating report for Apple Inc....", reply)
	assert.Equal(t, "Apple Inc.", summary["company"])
	assert.Equal(t, "2025", summary["timeframe"])
	require.Len(t, sender.calls, 1)
	assert.Contains(t, sender.calls[0].message, "User: hi")
	assert.Contains(t, sender.calls[0].message, "Generate a report on Apple")
}

func TestReportHandle_IntentWithoutCompany(t *testing.T) {
	sender := &routedSender{routes: map[string]string{
		intentMarker: `{"intent": true, "factors": {"timeframe": "2024"}, "question": "Which company should the report cover?"}`,
	}}
	h := newReportHandler(sender, nil, nil, nil, nil, nil)
	prior := conversation.Summary{"focusAreas": []any{"margins"}}

	reply, summary := h.Handle(context.Background(), nil, "make me a report", nil, prior)
	assert.Equal(t, "Which company should the report cover?", reply)
	assert.Equal(t, "2024", summary["timeframe"])
	assert.Equal(t, []any{"margins"}, summary["focusAreas"])

	sender.routes[intentMarker] = `{"intent": true, "factors": {}}`
	reply, _ = h.Handle(context.Background(), nil, "make me a report", nil, nil)
	assert.Equal(t, MissingCompanyText, reply)
}

func TestReportHandle_NoIntentClarifiesCompany(t *testing.T) {
	sender := &routedSender{routes: map[string]string{
		intentMarker: `{"intent": false, "factors": {"company": "Tesla"}}`,
	}}
	agent := &fakeAgent{out: "Tesla builds EVs."}
	h := newReportHandler(sender, agent, nil, nil, nil, nil)

	reply, summary := h.Handle(context.Background(), nil, "what about Tesla?", map[string]any{"company": "Tesla"}, nil)
	assert.Equal(t, "Tesla builds EVs.", reply)
	assert.Equal(t, "Clarify about the Tesla: what about Tesla?", agent.prompts[0])
	assert.Equal(t, "Tesla", summary["company"])
}

func TestReportHandle_UnparseableOutput(t *testing.T) {
	sender := &routedSender{routes: map[string]string{intentMarker: "I cannot comply"}}
	agent := &fakeAgent{out: "clarified"}
	h := newReportHandler(sender, agent, nil, nil, nil, nil)

	reply, summary := h.Handle(context.Background(), nil, "q", nil, nil)
	assert.Equal(t, "clarified", reply)
	assert.NotNil(t, summary)
	assert.Empty(t, summary)
}

func reportSender(queries string) *routedSender {
	return &routedSender{routes: map[string]string{
		"Summarize what the user wants":   "User wants a report on Apple Inc. for 2025.",
		"generate 7 to 10 highly focused": queries,
	}}
}

func TestReportGenerate(t *testing.T) {
	sender := reportSender("['Apple Inc. news 2025', 'Apple Inc. valuation', 'Apple Inc. risks']")
	searcher := &fakeSearcher{
		results: map[string][]search.Result{
			"Apple Inc. news 2025": {{URL: "https://a.example/1"}, {URL: "https://a.example/2"}},
			"Apple Inc. valuation": {{URL: "https://a.example/2"}, {URL: "https://a.example/3"}},
		},
		fail: map[string]bool{"Apple Inc. risks": true},
	}
	loader := &fakeLoader{pages: map[string]string{
		"https://a.example/1": "Apple revenue grew.",
		"https://a.example/3": "Analysts raise targets.",
	}}
	sum := &fakeSummarizer{out: "Apple is doing well."}
	pub := &fakePublisher{}
	h := newReportHandler(sender, nil, searcher, loader, sum, pub)

	r, err := h.Generate(context.Background(), conversation.Summary{"company": "Apple Inc.", "timeframe": "2025"})
	require.NoError(t, err)

	assert.Equal(t, "Apple Inc.", r.Company)
	assert.Equal(t, "User wants a report on Apple Inc. for 2025.", r.Preferences)
	assert.Equal(t, []string{"Apple Inc. news 2025", "Apple Inc. valuation", "Apple Inc. risks"}, r.Queries)
	assert.Equal(t, []string{"https://a.example/1", "https://a.example/2", "https://a.example/3"}, loader.got)
	assert.Equal(t, []string{"https://a.example/1", "https://a.example/3"}, r.Sources)
	assert.Equal(t, "Apple is doing well.", r.Summary)
	assert.Equal(t, []string{"Apple revenue grew.", "Analysts raise targets."}, sum.texts)
	assert.Equal(t, summarize.ReportPrompts, sum.prompts)
	assert.Equal(t, r.Preferences, sum.query)
	for _, k := range searcher.ks {
		assert.Equal(t, ReportSearchResults, k)
	}
	require.Len(t, pub.published, 1)
	assert.Equal(t, "/api/download/"+r.FileName(), r.DownloadURL)
	assert.Contains(t, sender.calls[0].message, `"company":"Apple Inc."`)
}

func TestReportGenerate_CapsQueries(t *testing.T) {
	list := "["
	for i := 0; i < 14; i++ {
		list += fmt.Sprintf("'q%d', ", i)
	}
	list += "42]"
	searcher := &fakeSearcher{}
	sum := &fakeSummarizer{}
	h := newReportHandler(reportSender(list), nil, searcher, &fakeLoader{}, sum, nil)

	r, err := h.Generate(context.Background(), conversation.Summary{"company": "X"})
	require.NoError(t, err)
	assert.Len(t, r.Queries, MaxReportQueries)
	assert.Equal(t, "q0", r.Queries[0])
	assert.Len(t, searcher.calls, MaxReportQueries)
}

func TestReportGenerate_NoDocuments(t *testing.T) {
	sum := &fakeSummarizer{out: "should not be used"}
	pub := &fakePublisher{}
	h := newReportHandler(reportSender("not a list"), nil, &fakeSearcher{}, &fakeLoader{}, sum, pub)

	r, err := h.Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, report.NoInformationSummary, r.Summary)
	assert.Empty(t, r.Queries)
	assert.Equal(t, 0, sum.calls)
	assert.Len(t, pub.published, 1)
}

func TestReportGenerate_EmptySummary(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]search.Result{"q": {{URL: "https://x.example"}}}}
	loader := &fakeLoader{pages: map[string]string{"https://x.example": "text"}}
	h := newReportHandler(reportSender("['q']"), nil, searcher, loader, &fakeSummarizer{}, nil)

	r, err := h.Generate(context.Background(), conversation.Summary{"company": "X"})
	require.NoError(t, err)
	assert.Equal(t, SummaryUnavailableText, r.Summary)
	assert.Empty(t, r.DownloadURL)
}

func TestReportGenerate_PreferencesFallback(t *testing.T) {
	sender := &routedSender{routes: map[string]string{}}
	h := newReportHandler(sender, nil, &fakeSearcher{}, &fakeLoader{}, &fakeSummarizer{}, nil)

	r, err := h.Generate(context.Background(), conversation.Summary{"company": "X"})
	require.NoError(t, err)
	assert.Equal(t, `{"company":"X"}`, r.Preferences)
}

func TestReportGenerate_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := newReportHandler(reportSender("['q']"), nil, &fakeSearcher{}, &fakeLoader{}, &fakeSummarizer{}, nil)
	_, err := h.Generate(ctx, conversation.Summary{"company": "X"})
	assert.ErrorIs(t, err, context.Canceled)
}
