// Copyright 2026 fanjia1024
// Process-local secret stores

package secrets

import (
	"context"
	"fmt"
	"os"
	"sync"
)

type envStore struct{}

// NewEnvStore 基于进程环境变量的 Store
func NewEnvStore() Store {
	return envStore{}
}

func (envStore) Get(ctx context.Context, key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("environment variable not set: %s", key)
	}
	return value, nil
}

func (envStore) Set(ctx context.Context, key string, value string) error {
	return os.Setenv(key, value)
}

func (envStore) Delete(ctx context.Context, key string) error {
	return os.Unsetenv(key)
}

type memoryStore struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// NewMemoryStore 创建内存 secret store（测试与本地开发）
func NewMemoryStore() Store {
	return &memoryStore{secrets: make(map[string]string)}
}

func (m *memoryStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.secrets[key]
	if !ok {
		return "", fmt.Errorf("secret not found: %s", key)
	}
	return value, nil
}

func (m *memoryStore) Set(ctx context.Context, key string, value string) error {
	m.mu.Lock()
	m.secrets[key] = value
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.secrets, key)
	m.mu.Unlock()
	return nil
}
