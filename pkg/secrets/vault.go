// Copyright 2026 fanjia1024
// HashiCorp Vault secret store (KV v2)

package secrets

import (
	"context"
	"fmt"

	vault "github.com/hashicorp/vault/api"
)

// VaultConfig Vault 连接配置
type VaultConfig struct {
	Address    string // 如 http://vault:8200
	Token      string
	PathPrefix string // KV v2 挂载点，默认 secret
}

type vaultStore struct {
	client *vault.Client
	mount  string
}

// NewVaultStore 创建 Vault Store 并检查连通性
func NewVaultStore(config VaultConfig) (Store, error) {
	cfg := vault.DefaultConfig()
	if config.Address != "" {
		cfg.Address = config.Address
	}

	client, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if config.Token != "" {
		client.SetToken(config.Token)
	}
	if _, err := client.Sys().Health(); err != nil {
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}

	mount := config.PathPrefix
	if mount == "" {
		mount = "secret"
	}
	return &vaultStore{client: client, mount: mount}, nil
}

func (v *vaultStore) Get(ctx context.Context, key string) (string, error) {
	secret, err := v.client.KVv2(v.mount).Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to read secret from vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("secret not found: %s", key)
	}
	if s, ok := secret.Data["value"].(string); ok {
		return s, nil
	}
	for _, val := range secret.Data {
		if s, ok := val.(string); ok {
			return s, nil
		}
	}
	return "", fmt.Errorf("secret value not found: %s", key)
}

func (v *vaultStore) Set(ctx context.Context, key string, value string) error {
	if _, err := v.client.KVv2(v.mount).Put(ctx, key, map[string]interface{}{"value": value}); err != nil {
		return fmt.Errorf("failed to write secret to vault: %w", err)
	}
	return nil
}

func (v *vaultStore) Delete(ctx context.Context, key string) error {
	if err := v.client.KVv2(v.mount).Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete secret from vault: %w", err)
	}
	return nil
}
