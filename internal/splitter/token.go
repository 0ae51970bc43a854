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
	"strings"

	"github.com/google/uuid"
)

// TokenSplitter 按 token 窗口切片，相邻切片重叠 Overlap 个 token
type TokenSplitter struct {
	name string
	opts Options
}

// NewTokenSplitter 创建新的 Token 切片器
func NewTokenSplitter(opts Options) *TokenSplitter {
	return &TokenSplitter{
		name: "token_splitter",
		opts: opts.normalize(),
	}
}

// Name 返回切片器名称
func (s *TokenSplitter) Name() string {
	return s.name
}

// Split 执行 Token 切片
func (s *TokenSplitter) Split(content string) []Chunk {
	return s.splitTokens(strings.Fields(content), 0)
}

func (s *TokenSplitter) splitTokens(tokens []string, startIndex int) []Chunk {
	var chunks []Chunk
	var current []string
	index := startIndex

	for _, token := range tokens {
		if len(current)+1 > s.opts.MaxTokens {
			chunks = append(chunks, newChunk(strings.Join(current, " "), index, "token"))
			index++
			if s.opts.Overlap > 0 && len(current) > s.opts.Overlap {
				current = append([]string(nil), current[len(current)-s.opts.Overlap:]...)
			} else {
				current = nil
			}
		}
		current = append(current, token)
	}
	if len(current) > 0 {
		chunks = append(chunks, newChunk(strings.Join(current, " "), index, "token"))
	}
	return chunks
}

func newChunk(content string, index int, splitter string) Chunk {
	return Chunk{
		ID:         uuid.New().String(),
		Content:    content,
		Index:      index,
		TokenCount: CountTokens(content),
		Splitter:   splitter,
	}
}
