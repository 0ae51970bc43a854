// Copyright 2026 fanjia1024
// Google service-account credential materialization

package secrets

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// GoogleCredentialsJSONEnv base64 编码的 service account JSON
	GoogleCredentialsJSONEnv = "GOOGLE_APPLICATION_CREDENTIALS_JSON"
	// GoogleCredentialsEnv Google SDK 读取的凭证文件路径
	GoogleCredentialsEnv  = "GOOGLE_APPLICATION_CREDENTIALS"
	googleCredentialsFile = "gemini-key.json"
)

// MaterializeGoogleCredentials 将 GOOGLE_APPLICATION_CREDENTIALS_JSON 解码写入 dir/gemini-key.json，
// 并设置 GOOGLE_APPLICATION_CREDENTIALS。未设置该变量时返回 "" 与 nil。
func MaterializeGoogleCredentials(dir string) (string, error) {
	encoded := os.Getenv(GoogleCredentialsJSONEnv)
	if encoded == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", GoogleCredentialsJSONEnv, err)
	}
	path := filepath.Join(dir, googleCredentialsFile)
	if err := os.WriteFile(path, raw, 0600); err != nil {
		return "", fmt.Errorf("write credentials file: %w", err)
	}
	if err := os.Setenv(GoogleCredentialsEnv, path); err != nil {
		return "", err
	}
	return path, nil
}
