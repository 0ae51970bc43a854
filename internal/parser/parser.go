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

// Package parser 从模型输出的非结构化文本中提取 JSON 对象或列表。
//
// 处理顺序固定：去除包裹标记 → 截取括号区间 → 严格解析 → 宽松修复（对象）或字面量解析（列表） → 放弃。
// 所有入口不返回 error，也不会 panic；解析失败以 ok=false 表示。
package parser

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fenceJSON      = regexp.MustCompile("(?is)```json(.*?)```")
	fencePython    = regexp.MustCompile("(?is)```python(.*?)```")
	fencePlain     = regexp.MustCompile("(?s)```(.*?)```")
	quoteJSON      = regexp.MustCompile(`(?is)'''json(.*?)'''`)
	quotePython    = regexp.MustCompile(`(?is)'''python(.*?)'''`)
	quotePlain     = regexp.MustCompile(`(?s)'''(.*?)'''`)
	hashJSON       = regexp.MustCompile(`(?i)#+\s*json\s*`)
	hashPython     = regexp.MustCompile(`(?i)#+\s*python\s*`)
	hashRun        = regexp.MustCompile(`#+`)
	trailingObject = regexp.MustCompile(`,\s*}`)
	trailingList   = regexp.MustCompile(`,\s*]`)
)

// ParseObject 提取第一个 {...} 区间并解析为 JSON 对象
func ParseObject(raw string) (obj map[string]any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			obj, ok = nil, false
		}
	}()

	cleaned := isolateSpan(stripObjectFences(raw), '{', '}')
	if obj, ok = decodeObject(cleaned); ok {
		return obj, true
	}
	return decodeObject(repairJSON(cleaned))
}

// ParseList 提取第一个 [...] 区间并解析为列表；JSON 失败时按 Python 列表字面量解析
func ParseList(raw string) (list []any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			list, ok = nil, false
		}
	}()

	cleaned := isolateSpan(stripListFences(raw), '[', ']')
	if list, ok = decodeList(cleaned); ok {
		return list, true
	}
	return evalListLiteral(cleaned)
}

// StringList 解析列表并仅保留非空字符串元素
func StringList(raw string) ([]string, bool) {
	list, ok := ParseList(raw)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, isStr := item.(string); isStr && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out, true
}

// stripObjectFences 去除 ```json、```、####、”'json、”' 等包裹
func stripObjectFences(s string) string {
	s = strings.TrimSpace(s)
	s = fenceJSON.ReplaceAllString(s, "${1}")
	s = fencePlain.ReplaceAllString(s, "${1}")
	s = hashJSON.ReplaceAllString(s, "")
	s = hashRun.ReplaceAllString(s, "")
	s = quoteJSON.ReplaceAllString(s, "${1}")
	s = quotePlain.ReplaceAllString(s, "${1}")
	return strings.TrimSpace(s)
}

// stripListFences 与 stripObjectFences 相同，但语言标记为 python
func stripListFences(s string) string {
	s = strings.TrimSpace(s)
	s = fencePython.ReplaceAllString(s, "${1}")
	s = fencePlain.ReplaceAllString(s, "${1}")
	s = quotePython.ReplaceAllString(s, "${1}")
	s = quotePlain.ReplaceAllString(s, "${1}")
	s = hashPython.ReplaceAllString(s, "")
	s = hashRun.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// isolateSpan 截取第一个 open 到最后一个 close 之间的内容（贪婪）；找不到时原样返回
func isolateSpan(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return s
	}
	end := strings.LastIndexByte(s, close)
	if end < start {
		return s
	}
	return s[start : end+1]
}

// repairJSON 单引号替换为双引号，并去掉 } 与 ] 前的多余逗号
func repairJSON(s string) string {
	s = strings.ReplaceAll(s, "'", `"`)
	s = trailingObject.ReplaceAllString(s, "}")
	return trailingList.ReplaceAllString(s, "]")
}

func decodeObject(s string) (map[string]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

func decodeList(s string) ([]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	list, ok := v.([]any)
	return list, ok
}
