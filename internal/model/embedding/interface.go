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

package embedding

import (
	"context"
	"fmt"
	"time"

	einoembed "github.com/cloudwego/eino/components/embedding"
)

// Embedder 向量化接口，返回与 texts 一一对应的向量
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	Model() string
}

// Config 构造参数
type Config struct {
	Model   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewEmbedder 按提供商创建 Embedder
func NewEmbedder(provider string, cfg Config) (Embedder, error) {
	switch provider {
	case "gemini", "":
		return NewGeminiEmbedder(cfg), nil
	case "openai", "qwen":
		return NewOpenAIEmbedder(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}

// EinoAdapter 将 Embedder 适配为 eino/components/embedding.Embedder（EmbedStrings）
type EinoAdapter struct {
	embedder Embedder
}

// NewEinoAdapter 创建 Eino Embedder 适配器
func NewEinoAdapter(embedder Embedder) *EinoAdapter {
	return &EinoAdapter{embedder: embedder}
}

// EmbedStrings 实现 eino/components/embedding.Embedder，忽略 opts
func (a *EinoAdapter) EmbedStrings(ctx context.Context, texts []string, _ ...einoembed.Option) ([][]float64, error) {
	if a.embedder == nil || len(texts) == 0 {
		return nil, nil
	}
	return a.embedder.Embed(ctx, texts)
}

var _ einoembed.Embedder = (*EinoAdapter)(nil)
