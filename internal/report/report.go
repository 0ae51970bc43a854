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

// Package report 定义金融报告结果，以及 PDF 渲染与归档发布
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"finance-assistant/internal/conversation"
)

// NoInformationSummary 没有可用文档时报告摘要的固定文本
const NoInformationSummary = "No relevant information found to generate the report."

// Report /api/generate-report 返回的报告
type Report struct {
	ID          string               `json:"id"`
	Company     string               `json:"company"`
	GeneratedAt time.Time            `json:"generated_at"`
	Preferences string               `json:"preferences"`
	Queries     []string             `json:"queries"`
	Sources     []string             `json:"sources"`
	Summary     string               `json:"summary"`
	Factors     conversation.Summary `json:"factors,omitempty"`
	DownloadURL string               `json:"download_url,omitempty"`
}

// New 以 Query Summary 为输入创建报告骨架，分配 ID 与生成时间
func New(factors conversation.Summary) *Report {
	if factors == nil {
		factors = conversation.Summary{}
	}
	company, _ := factors["company"].(string)
	return &Report{
		ID:          "report-" + uuid.NewString(),
		Company:     strings.TrimSpace(company),
		GeneratedAt: time.Now().UTC(),
		Queries:     []string{},
		Sources:     []string{},
		Factors:     factors,
	}
}

// FileName 报告 PDF 在对象存储中的文件名
func (r *Report) FileName() string {
	return r.ID + ".pdf"
}

// Title 报告标题
func (r *Report) Title() string {
	if r.Company == "" {
		return "Financial Report"
	}
	return "Financial Report: " + r.Company
}

// Section 渲染用的报告段落
type Section struct {
	Heading string
	Lines   []string
}

// Sections 按固定顺序组织报告内容，空段落省略
func (r *Report) Sections() []Section {
	var out []Section
	if len(r.Factors) > 0 {
		keys := make([]string, 0, len(r.Factors))
		for k := range r.Factors {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s: %s", k, formatFactor(r.Factors[k])))
		}
		out = append(out, Section{Heading: "Parameters", Lines: lines})
	}
	if p := strings.TrimSpace(r.Preferences); p != "" {
		out = append(out, Section{Heading: "User Preferences", Lines: splitLines(p)})
	}
	if s := strings.TrimSpace(r.Summary); s != "" {
		out = append(out, Section{Heading: "Summary", Lines: splitLines(s)})
	}
	if len(r.Sources) > 0 {
		out = append(out, Section{Heading: "Sources", Lines: append([]string(nil), r.Sources...)})
	}
	return out
}

func formatFactor(v any) string {
	switch x := v.(type) {
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(x, ", ")
	default:
		return fmt.Sprint(v)
	}
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
