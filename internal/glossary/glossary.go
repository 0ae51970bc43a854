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

package glossary

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	einoindexer "github.com/cloudwego/eino/components/indexer"
	einoretriever "github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"gopkg.in/yaml.v3"

	"finance-assistant/internal/model/llm"
	"finance-assistant/internal/prompts"
	"finance-assistant/pkg/log"
)

// Entry 术语条目
type Entry struct {
	Term       string `yaml:"term"`
	Definition string `yaml:"definition"`
}

// Text 入库文本 "term: definition"
func (e Entry) Text() string {
	return e.Term + ": " + e.Definition
}

// LoadEntries 读取 YAML 术语表，跳过术语或释义为空的条目
func LoadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read glossary %s: %w", path, err)
	}
	return ParseEntries(data)
}

// ParseEntries 解析 YAML 术语表
func ParseEntries(data []byte) ([]Entry, error) {
	var raw []Entry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse glossary: %w", err)
	}
	entries := make([]Entry, 0, len(raw))
	for _, e := range raw {
		e.Term = strings.TrimSpace(e.Term)
		e.Definition = strings.TrimSpace(e.Definition)
		if e.Term == "" || e.Definition == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func entryID(term string) string {
	return "term-" + strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(term), "-"), "-")
}

// Index 术语检索索引
type Index struct {
	indexer   einoindexer.Indexer
	retriever einoretriever.Retriever
	logger    *log.Logger
}

// NewIndex 创建索引
func NewIndex(indexer einoindexer.Indexer, retriever einoretriever.Retriever, logger *log.Logger) *Index {
	return &Index{indexer: indexer, retriever: retriever, logger: log.OrDefault(logger)}
}

// Build 写入全部条目，返回写入数量；同一术语重复构建时按 ID 覆盖
func (ix *Index) Build(ctx context.Context, entries []Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	docs := make([]*schema.Document, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, &schema.Document{
			ID:       entryID(e.Term),
			Content:  e.Text(),
			MetaData: map[string]any{"term": e.Term},
		})
	}
	ids, err := ix.indexer.Store(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("index glossary: %w", err)
	}
	ix.logger.Info("术语表索引完成", "entries", len(ids))
	return len(ids), nil
}

// Search 检索与查询最相关的 topK 条
func (ix *Index) Search(ctx context.Context, query string, topK int) ([]*schema.Document, error) {
	var opts []einoretriever.Option
	if topK > 0 {
		opts = append(opts, einoretriever.WithTopK(topK))
	}
	return ix.retriever.Retrieve(ctx, query, opts...)
}

// ConceptAnswerer 基于术语表回答概念问题；术语表中没有答案时模型回复 "No"
type ConceptAnswerer struct {
	index   *Index
	gateway llm.Sender
	topK    int
	logger  *log.Logger
}

// NewConceptAnswerer 创建概念问答器，topK 默认 4
func NewConceptAnswerer(index *Index, gateway llm.Sender, topK int, logger *log.Logger) *ConceptAnswerer {
	if topK <= 0 {
		topK = 4
	}
	return &ConceptAnswerer{index: index, gateway: gateway, topK: topK, logger: log.OrDefault(logger)}
}

// Answer 检索术语并作答；检索或渲染失败返回 ""
func (a *ConceptAnswerer) Answer(ctx context.Context, query string) string {
	if a == nil || a.index == nil {
		return ""
	}
	docs, err := a.index.Search(ctx, query, a.topK)
	if err != nil {
		a.logger.ErrorContext(ctx, "术语检索失败", "error", err)
		return ""
	}
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		if d != nil && strings.TrimSpace(d.Content) != "" {
			parts = append(parts, d.Content)
		}
	}
	question, err := prompts.Render(ctx, prompts.Concept, map[string]any{"query": query})
	if err != nil {
		a.logger.ErrorContext(ctx, "渲染概念提示词失败", "error", err)
		return ""
	}
	msg, err := prompts.Render(ctx, prompts.ConceptStuff, map[string]any{
		"context":  strings.Join(parts, "\n\n"),
		"question": question,
	})
	if err != nil {
		a.logger.ErrorContext(ctx, "渲染概念提示词失败", "error", err)
		return ""
	}
	return strings.TrimSpace(a.gateway.Send(ctx, nil, msg, ""))
}
