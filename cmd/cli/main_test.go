package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeAPI 记录最近一次 /api/query 请求，回显消息条数
type fakeAPI struct {
	lastMessages int
	lastSummary  map[string]interface{}
}

func (f *fakeAPI) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/api/query", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []json.RawMessage      `json:"messages"`
			Summary  map[string]interface{} `json:"summary"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.lastMessages = len(req.Messages)
		f.lastSummary = req.Summary
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"Generating report for Apple Inc....","summary":{"company":"Apple Inc."}}`))
	})
	mux.HandleFunc("/api/generate-report", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"report-1","company":"Apple Inc.","summary":"Strong quarter.","download_url":"/api/download/report-1.pdf"}`))
	})
	mux.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"history":[{"id":"report-1","company":"Apple Inc."}]}`))
	})
	mux.HandleFunc("/api/download/report-1.pdf", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.7"))
	})
	return httptest.NewServer(mux)
}

func TestRunChat(t *testing.T) {
	api := &fakeAPI{}
	srv := api.server(t)
	defer srv.Close()

	in := strings.NewReader("Generate a report on Apple\n\nWhat about risks?\n/report\nexit\n")
	var out bytes.Buffer
	if err := runChat(newClient(srv.URL), in, &out); err != nil {
		t.Fatalf("runChat: %v", err)
	}
	// 第二轮提交：user, model, user
	if api.lastMessages != 3 {
		t.Fatalf("expected 3 messages on second turn, got %d", api.lastMessages)
	}
	if api.lastSummary["company"] != "Apple Inc." {
		t.Fatalf("summary not carried to next turn: %v", api.lastSummary)
	}
	s := out.String()
	for _, want := range []string{"Generating report for Apple Inc....", "Strong quarter.", "/api/download/report-1.pdf"} {
		if !strings.Contains(s, want) {
			t.Fatalf("output missing %q: %s", want, s)
		}
	}
}

func TestRunChat_ResetAndQueryFailure(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("/reset\nhello\nquit\n")
	if err := runChat(newClient("http://127.0.0.1:1"), in, &out); err != nil {
		t.Fatalf("runChat: %v", err)
	}
	if !strings.Contains(out.String(), "发送失败") {
		t.Fatalf("expected send failure, got: %s", out.String())
	}
}

func TestRun_HealthHistoryDownload(t *testing.T) {
	api := &fakeAPI{}
	srv := api.server(t)
	defer srv.Close()
	t.Setenv("FINASSIST_API_URL", srv.URL)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"health"}, nil, &stdout, &stderr); code != 0 {
		t.Fatalf("health exit %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), `"status": "ok"`) {
		t.Fatalf("unexpected health output: %s", stdout.String())
	}

	stdout.Reset()
	if code := run([]string{"history"}, nil, &stdout, &stderr); code != 0 {
		t.Fatalf("history exit %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "report-1") {
		t.Fatalf("unexpected history output: %s", stdout.String())
	}

	dir := t.TempDir()
	stdout.Reset()
	if code := run([]string{"download", "report-1.pdf", dir}, nil, &stdout, &stderr); code != 0 {
		t.Fatalf("download exit %d: %s", code, stderr.String())
	}
	data, err := os.ReadFile(filepath.Join(dir, "report-1.pdf"))
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != "%PDF-1.7" {
		t.Fatalf("unexpected file content: %q", data)
	}

	if code := run([]string{"download", "missing.pdf", dir}, nil, &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit 1 for missing file, got %d", code)
	}
}

func TestRun_UsageAndVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(nil, nil, &stdout, &stderr); code != 0 {
		t.Fatalf("expected 0 for no args, got %d", code)
	}
	if !strings.Contains(stdout.String(), "Usage: finassist") {
		t.Fatalf("usage not printed: %s", stdout.String())
	}
	stdout.Reset()
	if code := run([]string{"version"}, nil, &stdout, &stderr); code != 0 {
		t.Fatalf("version exit %d", code)
	}
	if strings.TrimSpace(stdout.String()) != version {
		t.Fatalf("unexpected version: %s", stdout.String())
	}
	if code := run([]string{"bogus"}, nil, &stdout, &stderr); code != 1 {
		t.Fatalf("expected 1 for unknown command, got %d", code)
	}
	if code := run([]string{"download"}, nil, &stdout, &stderr); code != 1 {
		t.Fatalf("expected 1 for download without filename, got %d", code)
	}
}

func TestRun_Report(t *testing.T) {
	api := &fakeAPI{}
	srv := api.server(t)
	defer srv.Close()
	t.Setenv("FINASSIST_API_URL", srv.URL)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"report", `{"company":"Apple Inc."}`}, nil, &stdout, &stderr); code != 0 {
		t.Fatalf("report exit %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), `"download_url": "/api/download/report-1.pdf"`) {
		t.Fatalf("unexpected report output: %s", stdout.String())
	}
	if code := run([]string{"report", "not-json"}, nil, &stdout, &stderr); code != 1 {
		t.Fatalf("expected 1 for invalid summary, got %d", code)
	}
}
