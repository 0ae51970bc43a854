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

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-assistant/internal/api/http/middleware"
	"finance-assistant/internal/conversation"
	"finance-assistant/internal/report"
	"finance-assistant/internal/storage/metadata"
	"finance-assistant/internal/storage/object"
)

type fakeAssistant struct {
	messages  conversation.History
	summary   conversation.Summary
	reply     string
	out       conversation.Summary
	reportErr error
}

func (f *fakeAssistant) HandleQuery(_ context.Context, messages conversation.History, summary conversation.Summary) (string, conversation.Summary) {
	f.messages, f.summary = messages, summary
	return f.reply, f.out
}

func (f *fakeAssistant) GenerateReport(_ context.Context, summary conversation.Summary) (*report.Report, error) {
	f.summary = summary
	if f.reportErr != nil {
		return nil, f.reportErr
	}
	r := report.New(summary)
	r.Summary = "Apple is doing well."
	return r, nil
}

type testServer struct {
	h       *server.Hertz
	asst    *fakeAssistant
	catalog *metadata.MemoryStore
	objects *object.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	asst := &fakeAssistant{}
	catalog := metadata.NewMemoryStore()
	objects := object.NewMemoryStore()
	r := NewRouter(NewHandler(asst, catalog, objects), middleware.NewMiddleware(nil))
	return &testServer{h: r.Build(":0"), asst: asst, catalog: catalog, objects: objects}
}

func (s *testServer) do(method, path string, body []byte, headers ...ut.Header) *ut.ResponseRecorder {
	return perform(s.h, method, path, body, headers...)
}

func perform(h *server.Hertz, method, path string, body []byte, headers ...ut.Header) *ut.ResponseRecorder {
	return ut.PerformRequest(h.Engine, method, path, &ut.Body{Body: bytes.NewReader(body), Len: len(body)}, headers...)
}

var jsonHeader = ut.Header{Key: "Content-Type", Value: "application/json"}

func TestQuery(t *testing.T) {
	s := newTestServer(t)
	s.asst.reply = "Generating report for Apple Inc...."
	s.asst.out = conversation.Summary{"company": "Apple Inc."}

	body := []byte(`{"messages":[{"role":"user","parts":[{"text":"Hello"}]},{"role":"user","parts":[{"text":"Generate a report on Apple"}]}],"summary":{"timeframe":"2025"}}`)
	w := s.do("POST", "/api/query", body, jsonHeader)
	resp := w.Result()
	require.Equal(t, 200, resp.StatusCode(), string(resp.Body()))

	var got QueryResponse
	require.NoError(t, json.Unmarshal(resp.Body(), &got))
	assert.Equal(t, "Generating report for Apple Inc....", got.Message)
	assert.Equal(t, "Apple Inc.", got.Summary["company"])
	require.Len(t, s.asst.messages, 2)
	assert.Equal(t, "Generate a report on Apple", s.asst.messages[1].FirstText())
	assert.Equal(t, "2025", s.asst.summary["timeframe"])
}

func TestQuery_NilSummaryBecomesObject(t *testing.T) {
	s := newTestServer(t)
	s.asst.reply = "hi"
	w := s.do("POST", "/api/query", []byte(`{"messages":[{"role":"user","parts":[{"text":"hi"}]}]}`), jsonHeader)
	require.Equal(t, 200, w.Result().StatusCode())
	assert.Contains(t, string(w.Result().Body()), `"summary":{}`)
}

func TestQuery_BadRequests(t *testing.T) {
	s := newTestServer(t)
	for _, body := range []string{`{"messages":[]}`, `{}`, `not json`} {
		w := s.do("POST", "/api/query", []byte(body), jsonHeader)
		assert.Equal(t, 400, w.Result().StatusCode(), body)
		assert.Contains(t, string(w.Result().Body()), `"error"`, body)
	}
	assert.Nil(t, s.asst.messages)
}

func TestGenerateReport(t *testing.T) {
	s := newTestServer(t)
	w := s.do("POST", "/api/generate-report", []byte(`{"summary":{"company":"Apple Inc."}}`), jsonHeader)
	resp := w.Result()
	require.Equal(t, 200, resp.StatusCode(), string(resp.Body()))

	var got report.Report
	require.NoError(t, json.Unmarshal(resp.Body(), &got))
	assert.Equal(t, "Apple Inc.", got.Company)
	assert.Equal(t, "Apple is doing well.", got.Summary)
	assert.NotEmpty(t, got.ID)
}

func TestGenerateReport_Interrupted(t *testing.T) {
	s := newTestServer(t)
	s.asst.reportErr = context.Canceled
	w := s.do("POST", "/api/generate-report", []byte(`{"summary":{}}`), jsonHeader)
	assert.Equal(t, 503, w.Result().StatusCode())
}

func TestHistory(t *testing.T) {
	s := newTestServer(t)
	w := s.do("GET", "/api/history", nil)
	require.Equal(t, 200, w.Result().StatusCode())
	assert.JSONEq(t, `{"history":[]}`, string(w.Result().Body()))

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.catalog.Create(ctx, &metadata.ReportRecord{ID: "r1", Company: "Apple Inc.", CreatedAt: base}))
	require.NoError(t, s.catalog.Create(ctx, &metadata.ReportRecord{ID: "r2", Company: "Tesla", CreatedAt: base.Add(time.Hour)}))

	w = s.do("GET", "/api/history", nil)
	var got struct {
		History []metadata.ReportRecord `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Result().Body(), &got))
	require.Len(t, got.History, 2)
	assert.Equal(t, "r2", got.History[0].ID)
}

func TestDownload(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.objects.Put(context.Background(), "report-1.pdf", bytes.NewReader([]byte("%PDF-1.7")), 8, nil))

	w := s.do("GET", "/api/download/report-1.pdf", nil)
	resp := w.Result()
	require.Equal(t, 200, resp.StatusCode())
	assert.Equal(t, "%PDF-1.7", string(resp.Body()))
	assert.Equal(t, "application/pdf", string(resp.Header.ContentType()))
	assert.Contains(t, string(resp.Header.Peek("Content-Disposition")), "report-1.pdf")

	w = s.do("GET", "/api/download/missing.pdf", nil)
	assert.Equal(t, 404, w.Result().StatusCode())

	w = s.do("GET", "/api/download/..%5Csecret.txt", nil)
	assert.Equal(t, 400, w.Result().StatusCode())

	w = s.do("GET", "/api/download/.env", nil)
	assert.Equal(t, 400, w.Result().StatusCode())
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do("GET", "/", nil)
	assert.Equal(t, 200, w.Result().StatusCode())
	assert.Equal(t, "OK", string(w.Result().Body()))

	w = s.do("HEAD", "/", nil)
	assert.Equal(t, 200, w.Result().StatusCode())

	w = s.do("GET", "/api/health", nil)
	assert.Equal(t, 200, w.Result().StatusCode())
	assert.Contains(t, string(w.Result().Body()), `"status":"ok"`)
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t)
	s.do("GET", "/", nil)
	w := s.do("GET", "/metrics", nil)
	require.Equal(t, 200, w.Result().StatusCode())
	assert.Contains(t, string(w.Result().Body()), "finassist_http_request_duration_seconds")
}

func TestCORS(t *testing.T) {
	s := newTestServer(t)
	w := s.do("OPTIONS", "/api/query", nil,
		ut.Header{Key: "Origin", Value: "http://localhost:3000"},
		ut.Header{Key: "Access-Control-Request-Method", Value: "POST"},
	)
	resp := w.Result()
	assert.Less(t, resp.StatusCode(), 300)
	assert.Equal(t, "*", string(resp.Header.Peek("Access-Control-Allow-Origin")))
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	r := NewRouter(NewHandler(&fakeAssistant{}, nil, nil), middleware.NewMiddleware([]string{"https://app.example.com"}))
	h := r.Build(":0")
	w := perform(h, "GET", "/", nil, ut.Header{Key: "Origin", Value: "https://evil.example.com"})
	assert.Equal(t, 403, w.Result().StatusCode())

	w = perform(h, "GET", "/", nil, ut.Header{Key: "Origin", Value: "https://app.example.com"})
	assert.Equal(t, 200, w.Result().StatusCode())
	assert.Equal(t, "https://app.example.com", string(w.Result().Header.Peek("Access-Control-Allow-Origin")))
}

func TestNilStores(t *testing.T) {
	r := NewRouter(NewHandler(&fakeAssistant{reportErr: errors.New("x")}, nil, nil), middleware.NewMiddleware(nil))
	h := r.Build(":0")
	w := perform(h, "GET", "/api/history", nil)
	assert.JSONEq(t, `{"history":[]}`, string(w.Result().Body()))
	w = perform(h, "GET", "/api/download/a.pdf", nil)
	assert.Equal(t, 404, w.Result().StatusCode())
}
