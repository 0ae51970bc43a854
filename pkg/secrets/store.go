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

// Package secrets 解析 API Key 等敏感配置，支持 env、memory、vault 三种来源
package secrets

import (
	"context"
	"fmt"
	"strings"
)

// Store 密钥存储
type Store interface {
	// Get 获取 secret 值
	Get(ctx context.Context, key string) (string, error)
	// Set 设置 secret 值
	Set(ctx context.Context, key string, value string) error
	// Delete 删除 secret
	Delete(ctx context.Context, key string) error
}

// Config 密钥来源配置
type Config struct {
	Provider string // env | memory | vault
	Vault    VaultConfig
}

// NewStore 根据 Provider 创建 Store
func NewStore(config Config) (Store, error) {
	switch config.Provider {
	case "", "env":
		return NewEnvStore(), nil
	case "memory":
		return NewMemoryStore(), nil
	case "vault":
		return NewVaultStore(config.Vault)
	default:
		return nil, fmt.Errorf("unsupported secret provider: %s", config.Provider)
	}
}

// refPrefixes 配置值中的引用前缀，如 vault:gemini_api_key
var refPrefixes = []string{"vault:", "secret:"}

// Resolve 若 value 为 secret 引用则从 store 读取，否则原样返回
func Resolve(ctx context.Context, store Store, value string) (string, error) {
	for _, p := range refPrefixes {
		if strings.HasPrefix(value, p) {
			if store == nil {
				return "", fmt.Errorf("secret reference %q without secret store", value)
			}
			return store.Get(ctx, strings.TrimPrefix(value, p))
		}
	}
	return value, nil
}
