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

import "strings"

// ActionKind 分类结果的动作类型（封闭枚举）
type ActionKind string

const (
	ActionReport            ActionKind = "report"
	ActionClarifyConcept    ActionKind = "clarify_concept"
	ActionClarifyCompany    ActionKind = "clarify_company"
	ActionClarifyComparison ActionKind = "clarify_comparison"
	ActionRecommend         ActionKind = "recommend"
	ActionNewsSummary       ActionKind = "news_summary"
	ActionHelp              ActionKind = "help"
	ActionError             ActionKind = "error"
	// ActionUnknown 模型返回了不认识的动作
	ActionUnknown ActionKind = "unknown"
)

// AllActions 所有合法动作
var AllActions = []ActionKind{
	ActionReport,
	ActionClarifyConcept,
	ActionClarifyCompany,
	ActionClarifyComparison,
	ActionRecommend,
	ActionNewsSummary,
	ActionHelp,
	ActionError,
}

// ParseActionKind 解析动作名，大小写与首尾空白不敏感；未知返回 ActionUnknown
func ParseActionKind(s string) ActionKind {
	k := ActionKind(strings.ToLower(strings.TrimSpace(s)))
	for _, a := range AllActions {
		if a == k {
			return a
		}
	}
	return ActionUnknown
}

func (k ActionKind) String() string { return string(k) }

// Descriptor 分类结果：动作与参数，参数原样传给处理器
type Descriptor struct {
	Action     ActionKind     `json:"action"`
	Parameters map[string]any `json:"parameters"`
}
