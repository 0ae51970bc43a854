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
)

// StructuralSplitter 按段落合并切片，超长段落退化为 token 窗口
type StructuralSplitter struct {
	name  string
	opts  Options
	token *TokenSplitter
}

// NewStructuralSplitter 创建新的结构切片器
func NewStructuralSplitter(opts Options) *StructuralSplitter {
	opts = opts.normalize()
	return &StructuralSplitter{
		name:  "structural_splitter",
		opts:  opts,
		token: NewTokenSplitter(opts),
	}
}

// Name 返回切片器名称
func (s *StructuralSplitter) Name() string {
	return s.name
}

// Split 执行结构切片
func (s *StructuralSplitter) Split(content string) []Chunk {
	return s.mergeAndSplit(splitByParagraph(content))
}

// splitByParagraph 以空行分段，段内换行折叠为空格
func splitByParagraph(content string) []string {
	var paragraphs []string
	var current strings.Builder
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(trimmed)
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}
	return paragraphs
}

func (s *StructuralSplitter) mergeAndSplit(paragraphs []string) []Chunk {
	var chunks []Chunk
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, newChunk(strings.Join(current, "\n\n"), len(chunks), "structural"))
		current, currentTokens = nil, 0
	}

	for _, p := range paragraphs {
		n := CountTokens(p)
		if n > s.opts.MaxTokens {
			flush()
			chunks = append(chunks, s.token.splitTokens(strings.Fields(p), len(chunks))...)
			continue
		}
		if currentTokens+n > s.opts.MaxTokens {
			flush()
		}
		current = append(current, p)
		currentTokens += n
	}
	flush()
	return chunks
}
