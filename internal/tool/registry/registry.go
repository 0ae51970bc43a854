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

package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"finance-assistant/internal/tool"
	"finance-assistant/pkg/metrics"
	"finance-assistant/pkg/tracing"
)

// Registry 工具注册表
type Registry struct {
	mu    sync.RWMutex
	tools map[string]tool.Tool
}

// New 创建空注册表
func New() *Registry {
	return &Registry{
		tools: make(map[string]tool.Tool),
	}
}

// Register 注册工具，同名覆盖
func (r *Registry) Register(t tool.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Get 按名称获取
func (r *Registry) Get(name string) (tool.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List 按名称排序返回全部工具
func (r *Registry) List() []tool.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]tool.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// Execute 调用指定工具并记录指标；未注册的工具写入 ToolResult.Err
func (r *Registry) Execute(ctx context.Context, name string, input map[string]any) tool.ToolResult {
	t, ok := r.Get(name)
	if !ok {
		metrics.ToolCallsTotal.WithLabelValues(name, "unknown").Inc()
		return tool.ToolResult{Err: fmt.Sprintf("tool %q not registered", name)}
	}
	ctx, span := tracing.StartToolSpan(ctx, name)
	defer span.End()

	result, err := t.Execute(ctx, input)
	if err != nil {
		tracing.RecordError(span, err)
		metrics.ToolCallsTotal.WithLabelValues(name, "error").Inc()
		return tool.ToolResult{Err: err.Error()}
	}
	status := "ok"
	if result.Err != "" {
		status = "error"
	}
	metrics.ToolCallsTotal.WithLabelValues(name, status).Inc()
	return result
}

// ToolSchemaForLLM 供模型使用的工具描述
type ToolSchemaForLLM struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  tool.Schema `json:"parameters"`
}

// SchemasForLLM 导出全部工具描述
func (r *Registry) SchemasForLLM() ([]byte, error) {
	tools := r.List()
	list := make([]ToolSchemaForLLM, 0, len(tools))
	for _, t := range tools {
		list = append(list, ToolSchemaForLLM{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema(),
		})
	}
	return json.Marshal(list)
}
