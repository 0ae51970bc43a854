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

package app

import (
	"context"
	"fmt"
	"time"

	"finance-assistant/internal/model/embedding"
	"finance-assistant/internal/model/llm"
	"finance-assistant/pkg/config"
	"finance-assistant/pkg/secrets"
)

const defaultEmbeddingDimension = 768

// ResolveSecrets 将配置中的 vault:/secret: 引用替换为真实值
func ResolveSecrets(ctx context.Context, cfg *config.Config, store secrets.Store) error {
	if cfg == nil {
		return nil
	}
	resolveProviders := func(kind string, providers map[string]config.ProviderConfig) error {
		for name, pc := range providers {
			key, err := secrets.Resolve(ctx, store, pc.APIKey)
			if err != nil {
				return fmt.Errorf("%s provider %q api_key: %w", kind, name, err)
			}
			pc.APIKey = key
			providers[name] = pc
		}
		return nil
	}
	if err := resolveProviders("LLM", cfg.Model.LLM.Providers); err != nil {
		return err
	}
	if err := resolveProviders("Embedding", cfg.Model.Embedding.Providers); err != nil {
		return err
	}
	fields := []*string{
		&cfg.Search.Tavily.APIKey,
		&cfg.Storage.Metadata.DSN,
		&cfg.Report.LicenseKey,
	}
	for _, f := range fields {
		v, err := secrets.Resolve(ctx, store, *f)
		if err != nil {
			return err
		}
		*f = v
	}
	return nil
}

// NewLLMClientFromConfig 根据 model.defaults.llm 创建 LLM 客户端；配置了 rate_limits.llm 时包一层限流
func NewLLMClientFromConfig(cfg *config.Config) (llm.Client, error) {
	if cfg == nil || cfg.Model.Defaults.LLM == "" {
		return nil, fmt.Errorf("model.defaults.llm 未配置")
	}
	provider, pc, mi, err := config.ResolveModel(cfg.Model.LLM.Providers, cfg.Model.Defaults.LLM)
	if err != nil {
		return nil, err
	}
	if pc.APIKey == "" {
		return nil, fmt.Errorf("LLM provider %q 的 api_key 未配置", provider)
	}
	client, err := llm.NewClient(provider, llm.ClientConfig{
		Model:      mi.Name,
		APIKey:     pc.APIKey,
		BaseURL:    pc.BaseURL,
		Timeout:    parseDuration(cfg.Model.LLM.Timeout, 60*time.Second),
		RetryCount: 0,
	})
	if err != nil {
		return nil, err
	}
	if limiter := llm.NewLLMRateLimiterFromConfig(cfg.RateLimits); limiter != nil {
		return llm.NewRateLimitedClient(client, limiter), nil
	}
	return client, nil
}

// NewGatewayFromConfig 在 LLM 客户端之上创建 Gateway
func NewGatewayFromConfig(cfg *config.Config, opts ...llm.GatewayOption) (*llm.Gateway, error) {
	client, err := NewLLMClientFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	_, _, mi, _ := config.ResolveModel(cfg.Model.LLM.Providers, cfg.Model.Defaults.LLM)
	base := []llm.GatewayOption{
		llm.WithTimeout(parseDuration(cfg.Model.LLM.Timeout, 60*time.Second)),
		llm.WithGenerateOptions(llm.GenerateOptions{Temperature: mi.Temperature, MaxTokens: mi.MaxTokens}),
	}
	return llm.NewGateway(client, append(base, opts...)...), nil
}

// NewEmbedderFromConfig 根据 model.defaults.embedding 创建 Embedder 并返回向量维度；未配置时返回 nil
func NewEmbedderFromConfig(cfg *config.Config) (embedding.Embedder, int, error) {
	if cfg == nil || cfg.Model.Defaults.Embedding == "" {
		return nil, 0, nil
	}
	provider, pc, mi, err := config.ResolveModel(cfg.Model.Embedding.Providers, cfg.Model.Defaults.Embedding)
	if err != nil {
		return nil, 0, err
	}
	if pc.APIKey == "" {
		return nil, 0, fmt.Errorf("Embedding provider %q 的 api_key 未配置", provider)
	}
	e, err := embedding.NewEmbedder(provider, embedding.Config{
		Model:   mi.Name,
		APIKey:  pc.APIKey,
		BaseURL: pc.BaseURL,
		Timeout: 30 * time.Second,
	})
	if err != nil {
		return nil, 0, err
	}
	dimension := mi.Dimension
	if dimension <= 0 {
		dimension = defaultEmbeddingDimension
	}
	return e, dimension, nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
