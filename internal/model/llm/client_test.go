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

package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiClient_ChatWithSystem(t *testing.T) {
	var got geminiRequest
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello "},{"text":"there"}]}}]}`))
	}))
	defer srv.Close()

	c := NewGeminiClient(ClientConfig{Model: "gemini-test", APIKey: "k1", BaseURL: srv.URL})
	out, err := c.ChatWithSystem(context.Background(), "be brief", []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "what is EPS?"},
	}, GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", out)
	assert.Equal(t, "/models/gemini-test:generateContent", gotPath)
	assert.Equal(t, "k1", gotKey)

	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "be brief", got.SystemInstruction.Parts[0].Text)
	require.Len(t, got.Contents, 3)
	assert.Equal(t, "user", got.Contents[0].Role)
	assert.Equal(t, "model", got.Contents[1].Role)
	assert.Equal(t, "what is EPS?", got.Contents[2].Parts[0].Text)
	assert.Nil(t, got.GenerationConfig)
}

func TestGeminiClient_ChatWithContextExtractsSystem(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer srv.Close()

	c := NewGeminiClient(ClientConfig{BaseURL: srv.URL})
	_, err := c.ChatWithContext(context.Background(), []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "q"},
	}, GenerateOptions{Temperature: 0.2})
	require.NoError(t, err)
	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "sys", got.SystemInstruction.Parts[0].Text)
	assert.Len(t, got.Contents, 1)
	require.NotNil(t, got.GenerationConfig)
	assert.Equal(t, 0.2, got.GenerationConfig.Temperature)
}

func TestGeminiClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"boom"}`},
		{name: "no candidates", status: http.StatusOK, body: `{"candidates":[]}`},
		{name: "no parts", status: http.StatusOK, body: `{"candidates":[{"content":{"parts":[]}}]}`},
		{name: "bad json", status: http.StatusOK, body: `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewGeminiClient(ClientConfig{BaseURL: srv.URL})
			out, err := c.Generate("q", GenerateOptions{})
			assert.Error(t, err)
			assert.Empty(t, out)
		})
	}
}

func TestOpenAIClient_ChatWithSystem(t *testing.T) {
	var got openAIRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"answer"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(ClientConfig{Model: "m", APIKey: "secret", BaseURL: srv.URL + "/"})
	out, err := c.ChatWithSystem(context.Background(), "sys", []Message{
		{Role: RoleUser, Content: "a"},
		{Role: RoleModel, Content: "b"},
	}, GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "answer", out)
	assert.Equal(t, "Bearer secret", auth)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
}

func TestNewClient(t *testing.T) {
	c, err := NewClient("gemini", ClientConfig{})
	require.NoError(t, err)
	assert.Equal(t, "gemini", c.Provider())

	c, err = NewClient("qwen", ClientConfig{})
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Provider())

	_, err = NewClient("unknown", ClientConfig{})
	assert.Error(t, err)
}
