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

// Package conversation 定义调用方持有的对话历史与报告参数汇总
package conversation

import (
	"strings"
)

// MaxHistoryTurns 构建对话记录时保留的最近轮数
const MaxHistoryTurns = 10

// Part 消息片段
type Part struct {
	Text string `json:"text"`
}

// Turn 一轮对话，Role 为 user 或 model
type Turn struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Text 拼接所有片段文本（空格分隔）
func (t Turn) Text() string {
	texts := make([]string, 0, len(t.Parts))
	for _, p := range t.Parts {
		texts = append(texts, p.Text)
	}
	return strings.Join(texts, " ")
}

// FirstText 返回第一个片段文本，无片段时为空
func (t Turn) FirstText() string {
	if len(t.Parts) == 0 {
		return ""
	}
	return t.Parts[0].Text
}

// History 按时间正序排列的对话历史
type History []Turn

// SplitLatest 拆出最新一轮消息文本与其之前的历史；空历史返回 ("", nil)
func (h History) SplitLatest() (History, string) {
	if len(h) == 0 {
		return nil, ""
	}
	return h[:len(h)-1], h[len(h)-1].FirstText()
}

// Recent 返回最近 n 轮，不改变顺序
func (h History) Recent(n int) History {
	if n <= 0 || len(h) <= n {
		return h
	}
	return h[len(h)-n:]
}

// FormatHistory 将历史格式化为 "Role: text" 的多行文本，仅保留最近 MaxHistoryTurns 轮
func FormatHistory(h History) string {
	recent := h.Recent(MaxHistoryTurns)
	lines := make([]string, 0, len(recent))
	for _, turn := range recent {
		lines = append(lines, capitalizeRole(turn.Role)+": "+turn.Text())
	}
	return strings.Join(lines, "\n")
}

func capitalizeRole(role string) string {
	if role == "" {
		role = "user"
	}
	return strings.ToUpper(role[:1]) + strings.ToLower(role[1:])
}

// NewTurn 构造单片段的对话轮次
func NewTurn(role, text string) Turn {
	return Turn{Role: role, Parts: []Part{{Text: text}}}
}
