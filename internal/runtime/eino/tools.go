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
	"encoding/json"
	"fmt"
	"log/slog"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"finance-assistant/internal/tool"
	"finance-assistant/internal/tool/registry"
)

// queryInput web_search / stock_info 入参
type queryInput struct {
	Query string `json:"query" jsonschema_description:"search query, or for stock_info a ticker followed by an optional field and date"`
}

// companyInput ticker_lookup 入参
type companyInput struct {
	Company string `json:"company" jsonschema_description:"company name, e.g. Apple Inc."`
}

// expressionInput math 入参
type expressionInput struct {
	Expression string `json:"expression" jsonschema_description:"arithmetic expression using + - * / % ** and parentheses"`
}

type unavailableTool struct {
	info      *schema.ToolInfo
	createErr error
}

func (u *unavailableTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return u.info, nil
}

func (u *unavailableTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...einotool.Option) (string, error) {
	return "", fmt.Errorf("tool %q unavailable: %w", u.info.Name, u.createErr)
}

func makeUnavailableTool(name, desc string, err error) einotool.InvokableTool {
	slog.Error("创建工具失败，降级为不可用占位工具", "tool", name, "error", err)
	return &unavailableTool{
		info: &schema.ToolInfo{
			Name: name,
			Desc: desc,
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"input": {
					Type:     schema.String,
					Desc:     "tool input",
					Required: false,
				},
			}),
		},
		createErr: err,
	}
}

func inferToolOrUnavailable[T any](name, desc string, fn func(context.Context, T) (string, error)) einotool.InvokableTool {
	t, err := utils.InferTool(name, desc, fn)
	if err != nil {
		return makeUnavailableTool(name, desc, err)
	}
	return t
}

// schemaTool 按 tool.Schema 直接声明参数的桥接工具，用于没有专用入参结构的注册工具
type schemaTool struct {
	reg  *registry.Registry
	info *schema.ToolInfo
}

func newSchemaTool(reg *registry.Registry, t tool.Tool) *schemaTool {
	s := t.Schema()
	params := make(map[string]*schema.ParameterInfo, len(s.Properties))
	required := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		required[r] = true
	}
	for name, p := range s.Properties {
		params[name] = &schema.ParameterInfo{
			Type:     schema.DataType(p.Type),
			Desc:     p.Description,
			Required: required[name],
		}
	}
	return &schemaTool{
		reg: reg,
		info: &schema.ToolInfo{
			Name:        t.Name(),
			Desc:        t.Description(),
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		},
	}
}

func (s *schemaTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return s.info, nil
}

func (s *schemaTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...einotool.Option) (string, error) {
	input := map[string]any{}
	if argumentsInJSON != "" {
		if err := json.Unmarshal([]byte(argumentsInJSON), &input); err != nil {
			return "", fmt.Errorf("tool %q: invalid arguments: %w", s.info.Name, err)
		}
	}
	return s.reg.Execute(ctx, s.info.Name, input).Text(), nil
}

// BridgeTool 把注册表中的工具包装为 Eino 工具；调用统一经过 registry.Execute
func BridgeTool(reg *registry.Registry, t tool.Tool) einotool.BaseTool {
	name, desc := t.Name(), t.Description()
	run := func(ctx context.Context, input map[string]any) (string, error) {
		return reg.Execute(ctx, name, input).Text(), nil
	}
	switch name {
	case "web_search", "stock_info":
		return inferToolOrUnavailable(name, desc, func(ctx context.Context, in queryInput) (string, error) {
			return run(ctx, map[string]any{"query": in.Query})
		})
	case "ticker_lookup":
		return inferToolOrUnavailable(name, desc, func(ctx context.Context, in companyInput) (string, error) {
			return run(ctx, map[string]any{"company": in.Company})
		})
	case "math":
		return inferToolOrUnavailable(name, desc, func(ctx context.Context, in expressionInput) (string, error) {
			return run(ctx, map[string]any{"expression": in.Expression})
		})
	default:
		return newSchemaTool(reg, t)
	}
}

// BridgeTools 桥接注册表中的全部工具
func BridgeTools(reg *registry.Registry) []einotool.BaseTool {
	if reg == nil {
		return nil
	}
	list := reg.List()
	tools := make([]einotool.BaseTool, 0, len(list))
	for _, t := range list {
		tools = append(tools, BridgeTool(reg, t))
	}
	return tools
}
