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

package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"finance-assistant/internal/conversation"
	"finance-assistant/internal/model/llm"
	"finance-assistant/internal/parser"
	"finance-assistant/internal/prompts"
	"finance-assistant/pkg/log"
	"finance-assistant/pkg/tracing"
)

const descriptorSchema = `{
  "type": "object",
  "required": ["action"],
  "properties": {
    "action": {"type": "string"},
    "parameters": {"type": "object"}
  }
}`

// Classifier 调用模型把最新消息分类为 Descriptor
type Classifier struct {
	gateway     llm.Sender
	instruction string
	schema      *gojsonschema.Schema
	logger      *log.Logger
}

// New 创建分类器；instruction 为空时使用内置分类指令
func New(gateway llm.Sender, instruction string, logger *log.Logger) (*Classifier, error) {
	if strings.TrimSpace(instruction) == "" {
		instruction = prompts.Classify
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(descriptorSchema))
	if err != nil {
		return nil, fmt.Errorf("compile descriptor schema: %w", err)
	}
	return &Classifier{
		gateway:     gateway,
		instruction: instruction,
		schema:      schema,
		logger:      log.OrDefault(logger),
	}, nil
}

// Classify 返回 (descriptor, true)；模型无输出、无法解析或结构不符时返回 (nil, false)
func (c *Classifier) Classify(ctx context.Context, history conversation.History, latest string) (*Descriptor, bool) {
	ctx, span := tracing.StartClassifySpan(ctx, len(history))
	defer span.End()

	raw := c.gateway.Send(ctx, history, latest, c.instruction)
	if raw == "" {
		return nil, false
	}
	obj, ok := parser.ParseObject(raw)
	if !ok {
		c.logger.WarnContext(ctx, "分类结果无法解析", "raw", truncate(raw, 200))
		return nil, false
	}
	if err := c.validate(obj); err != nil {
		c.logger.WarnContext(ctx, "分类结果结构不符", "error", err)
		return nil, false
	}
	return toDescriptor(obj), true
}

func (c *Classifier) validate(obj map[string]any) error {
	result, err := c.schema.Validate(gojsonschema.NewGoLoader(obj))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("descriptor validation failed: %v", errs)
	}
	return nil
}

// toDescriptor 顶层 company 在 parameters 缺失该键时并入 parameters
func toDescriptor(obj map[string]any) *Descriptor {
	action, _ := obj["action"].(string)
	params, _ := obj["parameters"].(map[string]any)
	if params == nil {
		params = make(map[string]any)
	}
	if company, ok := obj["company"]; ok {
		if _, exists := params["company"]; !exists {
			params["company"] = company
		}
	}
	return &Descriptor{Action: ParseActionKind(action), Parameters: params}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
