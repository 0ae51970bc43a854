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

package cache

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"finance-assistant/pkg/config"
)

// NewCache 按配置创建缓存：memory（默认）或 redis
func NewCache(cfg config.CacheConfig) (Store, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		if cfg.Addr == "" {
			return nil, fmt.Errorf("redis 缓存需要 addr")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		return NewRedisStore(client, "finassist:"), nil
	default:
		return nil, fmt.Errorf("不支持的缓存类型: %s", cfg.Type)
	}
}

// ParseTTL 解析 cache.ttl，空或非法时返回 fallback
func ParseTTL(cfg config.CacheConfig, fallback time.Duration) time.Duration {
	if cfg.TTL == "" {
		return fallback
	}
	d, err := time.ParseDuration(cfg.TTL)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
