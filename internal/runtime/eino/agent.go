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

package eino

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"finance-assistant/pkg/log"
	"finance-assistant/pkg/tracing"
)

// SearchAgent 带工具的问答 Agent，返回最后一条非空的模型回答
type SearchAgent struct {
	engine *Engine
	logger *log.Logger
}

// NewSearchAgent 创建搜索 Agent
func NewSearchAgent(engine *Engine, logger *log.Logger) *SearchAgent {
	return &SearchAgent{engine: engine, logger: log.OrDefault(logger)}
}

// Run 执行一次查询；没有任何回答且过程中出错时返回该错误
func (a *SearchAgent) Run(ctx context.Context, query string) (string, error) {
	ctx, span := tracing.StartToolSpan(ctx, SearchAgentName)
	defer span.End()

	runner, err := a.engine.GetRunner(SearchAgentName)
	if err != nil {
		tracing.RecordError(span, err)
		return "", err
	}

	var answer string
	var lastErr error
	iter := runner.Query(ctx, query)
	for {
		event, ok := iter.Next()
		if !ok {
			break
		}
		if event.Err != nil {
			lastErr = event.Err
			a.logger.WarnContext(ctx, "search agent 事件错误", "error", event.Err)
			continue
		}
		if event.Output == nil || event.Output.MessageOutput == nil {
			continue
		}
		mv := event.Output.MessageOutput
		if mv.Role != schema.Assistant || mv.Message == nil {
			continue
		}
		if !isBlank(mv.Message.Content) {
			answer = strings.TrimSpace(mv.Message.Content)
		}
	}
	if answer == "" && lastErr != nil {
		tracing.RecordError(span, lastErr)
		return "", lastErr
	}
	return answer, nil
}
