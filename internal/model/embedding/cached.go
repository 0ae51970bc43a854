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
	"crypto/sha256"
	"encoding/hex"
	"time"

	"finance-assistant/internal/storage/cache"
	"finance-assistant/pkg/log"
)

// CachedEmbedder 先查缓存，仅对未命中的文本调用底层 Embedder
type CachedEmbedder struct {
	inner  Embedder
	store  cache.Store
	ttl    time.Duration
	logger *log.Logger
}

// NewCachedEmbedder 创建带缓存的 Embedder；store 为 nil 时直接透传
func NewCachedEmbedder(inner Embedder, store cache.Store, ttl time.Duration, logger *log.Logger) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, store: store, ttl: ttl, logger: log.OrDefault(logger)}
}

// Model 返回底层模型名称
func (c *CachedEmbedder) Model() string { return c.inner.Model() }

// Embed 实现 Embedder
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if c.store == nil || len(texts) == 0 {
		return c.inner.Embed(ctx, texts)
	}
	out := make([][]float64, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		var vec []float64
		if err := c.store.Get(ctx, c.cacheKey(text), &vec); err == nil && len(vec) > 0 {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, idx := range missIdx {
		if j >= len(vecs) {
			break
		}
		out[idx] = vecs[j]
		if err := c.store.Set(ctx, c.cacheKey(missTexts[j]), vecs[j], c.ttl); err != nil {
			c.logger.WarnContext(ctx, "写入向量缓存失败", "error", err)
		}
	}
	return out, nil
}

func (c *CachedEmbedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emb:" + c.inner.Model() + ":" + hex.EncodeToString(sum[:])
}
