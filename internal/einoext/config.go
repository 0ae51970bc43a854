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
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"finance-assistant/pkg/config"
)

const (
	redisContentField = "content"
	redisVectorField  = "vector_content"
)

// RedisOptionsFromVectorConfig 从 VectorConfig 构造 redis.Options（type=redis 时使用）
func RedisOptionsFromVectorConfig(cfg config.VectorConfig) (*redis.Options, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       0,
	}
	if cfg.Addr == "" {
		opts.Addr = "localhost:6379"
	}
	if cfg.DB != "" {
		db, err := strconv.Atoi(cfg.DB)
		if err != nil || db < 0 {
			return nil, fmt.Errorf("invalid redis db %q", cfg.DB)
		}
		opts.DB = db
	}
	// Redis Stack 向量检索需 Protocol 2、UnstableResp3 true
	opts.Protocol = 2
	opts.UnstableResp3 = true
	return opts, nil
}

// RedisKeyPrefix 集合对应的 hash key 前缀
func RedisKeyPrefix(collection string) string {
	return collection + ":"
}

// EnsureRedisIndex 在 Redis Stack 上创建 FT 向量索引，索引已存在时忽略
func EnsureRedisIndex(ctx context.Context, client *redis.Client, collection string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("redis vector index %s: dimension must be positive", collection)
	}
	err := client.FTCreate(ctx, collection,
		&redis.FTCreateOptions{OnHash: true, Prefix: []interface{}{RedisKeyPrefix(collection)}},
		&redis.FieldSchema{FieldName: redisContentField, FieldType: redis.SearchFieldTypeText},
		&redis.FieldSchema{
			FieldName: redisVectorField,
			FieldType: redis.SearchFieldTypeVector,
			VectorArgs: &redis.FTVectorArgs{
				FlatOptions: &redis.FTFlatOptions{Type: "FLOAT32", Dim: dimension, DistanceMetric: "COSINE"},
			},
		},
	).Err()
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "index already exists") {
		return fmt.Errorf("redis FT.CREATE %s: %w", collection, err)
	}
	return nil
}
