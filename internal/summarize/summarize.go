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
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"

	"finance-assistant/internal/model/llm"
	"finance-assistant/internal/prompts"
	"finance-assistant/internal/splitter"
	"finance-assistant/pkg/log"
)

const (
	nodeSplit  = "split"
	nodeMap    = "map"
	nodeReduce = "reduce"

	// GraphName 编译后图的名称，Eino Dev 中可见
	GraphName = "map_reduce_summarize"

	maxCollapseRounds = 4
)

// Prompts map 与 reduce 模板，均使用 {text} 与 {query}
type Prompts struct {
	Map    string
	Reduce string
}

// NewsPrompts 新闻摘要模板
var NewsPrompts = Prompts{Map: prompts.NewsMap, Reduce: prompts.NewsReduce}

// ReportPrompts 报告模板
var ReportPrompts = Prompts{Map: prompts.ReportMap, Reduce: prompts.ReportReduce}

// Input 图输入
type Input struct {
	Texts   []string
	Query   string
	Prompts Prompts
}

type mapInput struct {
	Chunks  []string
	Query   string
	Prompts Prompts
}

type reduceInput struct {
	Summaries []string
	Query     string
	Prompts   Prompts
}

// Summarizer 对一组文档做面向查询的摘要；失败或无内容时返回 ""
type Summarizer interface {
	Summarize(ctx context.Context, texts []string, query string, p Prompts) string
}

// MapReduce 基于 Eino compose 图 split → map → reduce 的摘要器
type MapReduce struct {
	gateway      llm.Sender
	splitter     splitter.Splitter
	reduceTokens int
	logger       *log.Logger
	runnable     compose.Runnable[Input, string]
}

// Config 摘要器配置
type Config struct {
	Splitter     splitter.Splitter
	ReduceTokens int
}

// New 创建并编译摘要图
func New(ctx context.Context, gateway llm.Sender, cfg Config, logger *log.Logger, opts ...compose.GraphCompileOption) (*MapReduce, error) {
	if cfg.Splitter == nil {
		cfg.Splitter = splitter.NewTokenSplitter(splitter.Options{MaxTokens: 2000, Overlap: 100})
	}
	if cfg.ReduceTokens <= 0 {
		cfg.ReduceTokens = 3000
	}
	m := &MapReduce{
		gateway:      gateway,
		splitter:     cfg.Splitter,
		reduceTokens: cfg.ReduceTokens,
		logger:       log.OrDefault(logger),
	}
	opts = append([]compose.GraphCompileOption{compose.WithGraphName(GraphName)}, opts...)
	runnable, err := m.Graph().Compile(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("compile summarize graph: %w", err)
	}
	m.runnable = runnable
	return m, nil
}

// Graph 构建未编译的摘要图
func (m *MapReduce) Graph() *compose.Graph[Input, string] {
	g := compose.NewGraph[Input, string]()
	_ = g.AddLambdaNode(nodeSplit, compose.InvokableLambda(m.split), compose.WithNodeName("split"))
	_ = g.AddLambdaNode(nodeMap, compose.InvokableLambda(m.mapChunks), compose.WithNodeName("map"))
	_ = g.AddLambdaNode(nodeReduce, compose.InvokableLambda(m.reduce), compose.WithNodeName("reduce"))
	_ = g.AddEdge(compose.START, nodeSplit)
	_ = g.AddEdge(nodeSplit, nodeMap)
	_ = g.AddEdge(nodeMap, nodeReduce)
	_ = g.AddEdge(nodeReduce, compose.END)
	return g
}

// Summarize 执行摘要图
func (m *MapReduce) Summarize(ctx context.Context, texts []string, query string, p Prompts) string {
	out, err := m.runnable.Invoke(ctx, Input{Texts: texts, Query: query, Prompts: p})
	if err != nil {
		m.logger.ErrorContext(ctx, "摘要图执行失败", "error", err)
		return ""
	}
	return strings.TrimSpace(out)
}

func (m *MapReduce) split(_ context.Context, in Input) (mapInput, error) {
	var chunks []string
	for _, text := range in.Texts {
		for _, c := range m.splitter.Split(text) {
			if strings.TrimSpace(c.Content) != "" {
				chunks = append(chunks, c.Content)
			}
		}
	}
	return mapInput{Chunks: chunks, Query: in.Query, Prompts: in.Prompts}, nil
}

func (m *MapReduce) mapChunks(ctx context.Context, in mapInput) (reduceInput, error) {
	summaries := make([]string, 0, len(in.Chunks))
	for _, chunk := range in.Chunks {
		if s := m.call(ctx, in.Prompts.Map, chunk, in.Query); s != "" {
			summaries = append(summaries, s)
		}
	}
	m.logger.DebugContext(ctx, "map 阶段完成", "chunks", len(in.Chunks), "summaries", len(summaries))
	return reduceInput{Summaries: summaries, Query: in.Query, Prompts: in.Prompts}, nil
}

func (m *MapReduce) reduce(ctx context.Context, in reduceInput) (string, error) {
	if len(in.Summaries) == 0 {
		return "", nil
	}
	summaries := m.collapse(ctx, in.Summaries, in.Query, in.Prompts.Reduce)
	return m.call(ctx, in.Prompts.Reduce, strings.Join(summaries, "\n\n"), in.Query), nil
}

// collapse 合并后的文本超过预算时分批 reduce，直到落入预算或达到轮数上限
func (m *MapReduce) collapse(ctx context.Context, summaries []string, query, tmpl string) []string {
	for round := 0; round < maxCollapseRounds && len(summaries) > 1; round++ {
		if splitter.CountTokens(strings.Join(summaries, "\n\n")) <= m.reduceTokens {
			return summaries
		}
		batches := batchByTokens(summaries, m.reduceTokens)
		if len(batches) == len(summaries) && round > 0 {
			break
		}
		next := make([]string, 0, len(batches))
		for _, b := range batches {
			if s := m.call(ctx, tmpl, strings.Join(b, "\n\n"), query); s != "" {
				next = append(next, s)
			}
		}
		if len(next) == 0 {
			return summaries
		}
		summaries = next
	}
	return summaries
}

// batchByTokens 顺序分组，每组 token 总数不超过 budget；单条超出预算的独立成组
func batchByTokens(items []string, budget int) [][]string {
	var batches [][]string
	var current []string
	total := 0
	for _, it := range items {
		n := splitter.CountTokens(it)
		if len(current) > 0 && total+n > budget {
			batches = append(batches, current)
			current, total = nil, 0
		}
		current = append(current, it)
		total += n
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

func (m *MapReduce) call(ctx context.Context, tmpl, text, query string) string {
	msg, err := prompts.Render(ctx, tmpl, map[string]any{"text": text, "query": query})
	if err != nil {
		m.logger.ErrorContext(ctx, "渲染摘要提示词失败", "error", err)
		return ""
	}
	return strings.TrimSpace(m.gateway.Send(ctx, nil, msg, ""))
}
