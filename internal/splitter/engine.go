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

package splitter

import (
	"fmt"
	"strings"
)

// Chunk 切片
type Chunk struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	Index      int    `json:"index"`
	TokenCount int    `json:"token_count"`
	Splitter   string `json:"splitter"`
}

// Options 切片参数，单位为 token
type Options struct {
	MaxTokens int
	Overlap   int
}

func (o Options) normalize() Options {
	if o.MaxTokens <= 0 {
		o.MaxTokens = 512
	}
	if o.Overlap < 0 {
		o.Overlap = 0
	}
	if o.Overlap >= o.MaxTokens {
		o.Overlap = o.MaxTokens / 4
	}
	return o
}

// Splitter 切片器接口
type Splitter interface {
	Split(content string) []Chunk
	Name() string
}

// Engine 切片引擎，按名称选择切片器
type Engine struct {
	splitters map[string]Splitter
}

// NewEngine 创建切片引擎并注册 token 与 structural 切片器
func NewEngine(opts Options) *Engine {
	e := &Engine{splitters: make(map[string]Splitter)}
	e.AddSplitter("token", NewTokenSplitter(opts))
	e.AddSplitter("structural", NewStructuralSplitter(opts))
	return e
}

// AddSplitter 添加自定义切片器
func (e *Engine) AddSplitter(name string, s Splitter) {
	e.splitters[name] = s
}

// GetSplitter 获取切片器
func (e *Engine) GetSplitter(name string) (Splitter, error) {
	s, ok := e.splitters[name]
	if !ok {
		return nil, fmt.Errorf("splitter not found: %s", name)
	}
	return s, nil
}

// CountTokens 近似 token 数：按空白分词计数
func CountTokens(s string) int {
	return len(strings.Fields(s))
}
