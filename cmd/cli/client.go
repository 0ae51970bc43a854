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

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"finance-assistant/internal/conversation"
	"finance-assistant/internal/report"
	"finance-assistant/internal/storage/metadata"
)

func apiBaseURL() string {
	if u := os.Getenv("FINASSIST_API_URL"); u != "" {
		return u
	}
	return "http://localhost:5000"
}

// apiClient finance-assistant HTTP API 客户端
type apiClient struct {
	http *resty.Client
}

func newClient(baseURL string) *apiClient {
	return &apiClient{http: resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5*time.Minute).
		SetHeader("Content-Type", "application/json")}
}

func (c *apiClient) health() (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := c.http.R().
		SetResult(&out).
		Get("/api/health")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET /api/health: %s", resp.String())
	}
	return out, nil
}

func (c *apiClient) query(messages conversation.History, summary conversation.Summary) (string, conversation.Summary, error) {
	var out struct {
		Message string               `json:"message"`
		Summary conversation.Summary `json:"summary"`
	}
	resp, err := c.http.R().
		SetBody(map[string]interface{}{"messages": messages, "summary": summary}).
		SetResult(&out).
		Post("/api/query")
	if err != nil {
		return "", nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", nil, fmt.Errorf("POST /api/query: %s", resp.String())
	}
	return out.Message, out.Summary, nil
}

func (c *apiClient) generateReport(summary conversation.Summary) (*report.Report, error) {
	var out report.Report
	resp, err := c.http.R().
		SetBody(map[string]interface{}{"summary": summary}).
		SetResult(&out).
		Post("/api/generate-report")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("POST /api/generate-report: %s", resp.String())
	}
	return &out, nil
}

func (c *apiClient) history() ([]metadata.ReportRecord, error) {
	var out struct {
		History []metadata.ReportRecord `json:"history"`
	}
	resp, err := c.http.R().
		SetResult(&out).
		Get("/api/history")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET /api/history: %s", resp.String())
	}
	return out.History, nil
}

func (c *apiClient) download(name string) ([]byte, error) {
	resp, err := c.http.R().
		SetPathParam("filename", name).
		Get("/api/download/{filename}")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET /api/download/%s: %s", name, resp.String())
	}
	return resp.Body(), nil
}

func prettyJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
