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

package prompts

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// Render 以 FString 规则渲染单条模板，缺少变量时返回错误
func Render(ctx context.Context, tmpl string, vars map[string]any) (string, error) {
	msgs, err := prompt.FromMessages(schema.FString, schema.UserMessage(tmpl)).Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	if len(msgs) == 0 {
		return "", fmt.Errorf("render prompt: empty result")
	}
	return msgs[0].Content, nil
}
