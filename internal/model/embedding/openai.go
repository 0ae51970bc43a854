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
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// OpenAIEmbedder OpenAI 兼容的 /embeddings 客户端
type OpenAIEmbedder struct {
	model   string
	apiKey  string
	baseURL string
	client  *resty.Client
}

// NewOpenAIEmbedder 创建 OpenAI 兼容 Embedder
func NewOpenAIEmbedder(cfg Config) *OpenAIEmbedder {
	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(2)
	return &OpenAIEmbedder{model: model, apiKey: cfg.APIKey, baseURL: baseURL, client: client}
}

// Model 返回模型名称
func (e *OpenAIEmbedder) Model() string { return e.model }

// Embed 批量向量化，按返回的 index 还原顺序
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var result struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	resp, err := e.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+e.apiKey).
		SetBody(map[string]interface{}{"model": e.model, "input": texts}).
		SetResult(&result).
		Post(e.baseURL + "/embeddings")
	if err != nil {
		return nil, fmt.Errorf("调用 Embedding API 失败: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("Embedding API 返回错误 %d: %s", resp.StatusCode(), resp.String())
	}
	if len(result.Data) != len(texts) {
		return nil, fmt.Errorf("Embedding 返回 %d 个向量，期望 %d", len(result.Data), len(texts))
	}
	sort.Slice(result.Data, func(i, j int) bool { return result.Data[i].Index < result.Data[j].Index })
	out := make([][]float64, len(texts))
	for i, d := range result.Data {
		out[i] = d.Embedding
	}
	return out, nil
}
