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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-assistant/internal/conversation"
	"finance-assistant/pkg/config"
	"finance-assistant/pkg/secrets"
)

// fakeGemini 按 systemInstruction 返回分类结果或帮助文本
func fakeGemini(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SystemInstruction *struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"systemInstruction"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		text := "I can generate reports, explain concepts and summarize news."
		if req.SystemInstruction != nil && len(req.SystemInstruction.Parts) > 0 && req.SystemInstruction.Parts[0].Text == "CLASSIFY" {
			text = "```json\n{\"action\": \"help\", \"parameters\": {}}\n```"
		}
		resp := map[string]any{
			"candidates": []any{
				map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func testConfig(baseURL string) *config.Config {
	cfg := &config.Config{}
	cfg.Model.LLM.Providers = map[string]config.ProviderConfig{
		"gemini": {
			APIKey:  "secret:gemini_api_key",
			BaseURL: baseURL,
			Models:  map[string]config.ModelInfo{"flash": {Name: "gemini-test"}},
		},
	}
	cfg.Model.Defaults.LLM = "gemini.flash"
	cfg.Model.LLM.Timeout = "5s"
	cfg.Secrets.Provider = "env"
	cfg.Prompts.Classify = "CLASSIFY"
	cfg.Prompts.Help = "HELP"
	cfg.Summarize.Splitter = "token"
	cfg.Storage.Object.Type = "memory"
	return cfg
}

func TestNewBootstrap_HelpRoundTrip(t *testing.T) {
	srv := fakeGemini(t)
	defer srv.Close()
	t.Setenv("gemini_api_key", "k1")

	b, err := NewBootstrap(context.Background(), testConfig(srv.URL))
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, "k1", b.Config.Model.LLM.Providers["gemini"].APIKey)
	assert.Nil(t, b.Backend)
	assert.False(t, b.Glossary.Enabled())

	msg, summary := b.Assistant.HandleQuery(context.Background(), conversation.History{
		conversation.NewTurn("user", "What can you do?"),
	}, nil)
	assert.Equal(t, "I can generate reports, explain concepts and summarize news.", msg)
	assert.NotNil(t, summary)
}

func TestNewBootstrap_Errors(t *testing.T) {
	_, err := NewBootstrap(context.Background(), nil)
	assert.Error(t, err)

	cfg := testConfig("http://127.0.0.1:1")
	cfg.Model.Defaults.LLM = ""
	_, err = NewBootstrap(context.Background(), cfg)
	assert.Error(t, err)

	cfg = testConfig("http://127.0.0.1:1")
	cfg.Secrets.Provider = "memory"
	_, err = NewBootstrap(context.Background(), cfg)
	assert.Error(t, err, "unresolvable secret reference")

	cfg = testConfig("http://127.0.0.1:1")
	cfg.Model.LLM.Providers["gemini"] = config.ProviderConfig{APIKey: "k", Models: map[string]config.ModelInfo{"flash": {Name: "m"}}}
	cfg.Summarize.Splitter = "semantic"
	_, err = NewBootstrap(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewGatewayFromConfig_NoRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		hj, ok := w.(http.Hijacker)
		if !ok {
			return
		}
		if conn, _, err := hj.Hijack(); err == nil {
			_ = conn.Close()
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Model.LLM.Providers["gemini"] = config.ProviderConfig{
		APIKey:  "k",
		BaseURL: srv.URL,
		Models:  map[string]config.ModelInfo{"flash": {Name: "gemini-test"}},
	}
	gw, err := NewGatewayFromConfig(cfg)
	require.NoError(t, err)

	out := gw.Send(context.Background(), nil, "hi", "sys")
	assert.Empty(t, out)
	assert.Equal(t, int32(1), hits.Load())
}

func TestResolveSecrets(t *testing.T) {
	store := secrets.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "tavily", "tv-1"))
	require.NoError(t, store.Set(ctx, "emb", "e-1"))

	cfg := &config.Config{}
	cfg.Search.Tavily.APIKey = "vault:tavily"
	cfg.Report.LicenseKey = "plain"
	cfg.Model.Embedding.Providers = map[string]config.ProviderConfig{"gemini": {APIKey: "secret:emb"}}
	require.NoError(t, ResolveSecrets(ctx, cfg, store))
	assert.Equal(t, "tv-1", cfg.Search.Tavily.APIKey)
	assert.Equal(t, "plain", cfg.Report.LicenseKey)
	assert.Equal(t, "e-1", cfg.Model.Embedding.Providers["gemini"].APIKey)

	cfg.Storage.Metadata.DSN = "secret:missing"
	assert.Error(t, ResolveSecrets(ctx, cfg, store))
	assert.NoError(t, ResolveSecrets(ctx, nil, store))
}

func TestNewEmbedderFromConfig(t *testing.T) {
	e, dim, err := NewEmbedderFromConfig(&config.Config{})
	require.NoError(t, err)
	assert.Nil(t, e)
	assert.Zero(t, dim)

	cfg := &config.Config{}
	cfg.Model.Defaults.Embedding = "gemini.text"
	cfg.Model.Embedding.Providers = map[string]config.ProviderConfig{
		"gemini": {APIKey: "k", Models: map[string]config.ModelInfo{"text": {Name: "text-embedding-004"}}},
	}
	e, dim, err = NewEmbedderFromConfig(cfg)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, defaultEmbeddingDimension, dim)

	cfg.Model.Embedding.Providers["gemini"] = config.ProviderConfig{Models: cfg.Model.Embedding.Providers["gemini"].Models}
	_, _, err = NewEmbedderFromConfig(cfg)
	assert.Error(t, err)
}

func TestGlossaryService_Disabled(t *testing.T) {
	var s *GlossaryService
	assert.False(t, s.Enabled())
	_, err := NewGlossaryService(nil, filepath.Join(os.TempDir(), "g.yaml"), nil).Index(context.Background())
	assert.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, int64(5e9), int64(parseDuration("5s", 0)))
	assert.Equal(t, int64(7), int64(parseDuration("bad", 7)))
	assert.Equal(t, int64(7), int64(parseDuration("", 7)))
}
