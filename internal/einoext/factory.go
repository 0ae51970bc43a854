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

package einoext

import (
	"context"
	"fmt"

	redisindexer "github.com/cloudwego/eino-ext/components/indexer/redis"
	redisretriever "github.com/cloudwego/eino-ext/components/retriever/redis"
	einoembed "github.com/cloudwego/eino/components/embedding"
	einoindexer "github.com/cloudwego/eino/components/indexer"
	einoretriever "github.com/cloudwego/eino/components/retriever"
	"github.com/redis/go-redis/v9"

	"finance-assistant/internal/storage/vector"
	"finance-assistant/pkg/config"
)

const (
	defaultBatchSize  = 100
	defaultTopK       = 4
	defaultCollection = "glossary"
)

// Backend 一个集合的 Indexer 与 Retriever；redis 后端共享同一个连接
type Backend struct {
	Indexer   einoindexer.Indexer
	Retriever einoretriever.Retriever
	client    *redis.Client
}

// Close 释放 redis 连接
func (b *Backend) Close() error {
	if b == nil || b.client == nil {
		return nil
	}
	return b.client.Close()
}

// NewBackend 根据 VectorConfig 创建 Eino Indexer/Retriever（memory 用 vector.Store；redis 用 eino-ext）。
// dimension 仅 redis 建索引时使用
func NewBackend(ctx context.Context, cfg config.VectorConfig, store vector.Store, embedder einoembed.Embedder, topK, dimension int) (*Backend, error) {
	coll := cfg.Collection
	if coll == "" {
		coll = defaultCollection
	}
	if topK <= 0 {
		topK = defaultTopK
	}
	t := cfg.Type
	if t == "" {
		t = "memory"
	}
	switch t {
	case "memory":
		if store == nil {
			return nil, fmt.Errorf("vector type is memory but vector.Store is nil")
		}
		idx, err := NewMemoryIndexer(&MemoryIndexerConfig{Store: store, Collection: coll, BatchSize: defaultBatchSize, Embedding: embedder})
		if err != nil {
			return nil, err
		}
		ret, err := NewMemoryRetriever(&MemoryRetrieverConfig{Store: store, Collection: coll, TopK: topK, Embedding: embedder})
		if err != nil {
			return nil, err
		}
		return &Backend{Indexer: idx, Retriever: ret}, nil
	case "redis":
		opts, err := RedisOptionsFromVectorConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("redis options: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		if err := EnsureRedisIndex(ctx, client, coll, dimension); err != nil {
			_ = client.Close()
			return nil, err
		}
		idx, err := redisindexer.NewIndexer(ctx, &redisindexer.IndexerConfig{
			Client:    client,
			KeyPrefix: RedisKeyPrefix(coll),
			BatchSize: defaultBatchSize,
			Embedding: embedder,
		})
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis indexer: %w", err)
		}
		ret, err := redisretriever.NewRetriever(ctx, &redisretriever.RetrieverConfig{
			Client:      client,
			Index:       coll,
			VectorField: redisVectorField,
			TopK:        topK,
			Embedding:   embedder,
		})
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis retriever: %w", err)
		}
		return &Backend{Indexer: idx, Retriever: ret, client: client}, nil
	default:
		return nil, fmt.Errorf("unsupported vector type: %s", t)
	}
}
