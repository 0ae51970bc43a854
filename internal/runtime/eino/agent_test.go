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

package eino

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-assistant/internal/tool/builtin"
	"finance-assistant/internal/tool/registry"
	"finance-assistant/pkg/config"
)

// scriptedModel 依次返回预设回复，并记录每次收到的消息
type scriptedModel struct {
	mu      sync.Mutex
	replies []*schema.Message
	inputs  [][]*schema.Message
}

func (m *scriptedModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, input)
	if len(m.replies) == 0 {
		return schema.AssistantMessage("", nil), nil
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return reply, nil
}

func (m *scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *scriptedModel) WithTools(_ []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

func TestSearchAgent_RunWithToolCall(t *testing.T) {
	reg := registry.New()
	reg.Register(builtin.NewMathTool())

	cm := &scriptedModel{replies: []*schema.Message{
		schema.AssistantMessage("", []schema.ToolCall{{
			ID:       "call-1",
			Type:     "function",
			Function: schema.FunctionCall{Name: "math", Arguments: `{"expression":"6*7"}`},
		}}),
		schema.AssistantMessage("  The answer is 42.  ", nil),
	}}
	engine := NewEngine(nil, reg, nil)
	engine.SetChatModel(cm)

	answer, err := NewSearchAgent(engine, nil).Run(context.Background(), "what is 6 times 7")
	require.NoError(t, err)
	assert.Equal(t, "The answer is 42.", answer)

	require.Len(t, cm.inputs, 2)
	var toolOutput string
	for _, m := range cm.inputs[1] {
		if m.Role == schema.Tool {
			toolOutput = m.Content
		}
	}
	assert.Equal(t, "42", toolOutput)
	assert.Contains(t, engine.Agents(), SearchAgentName)
}

func TestSearchAgent_NoModelConfigured(t *testing.T) {
	engine := NewEngine(&config.Config{}, nil, nil)
	_, err := NewSearchAgent(engine, nil).Run(context.Background(), "hi")
	assert.Error(t, err)
}

func TestEngine_CreateChatModel(t *testing.T) {
	cfg := &config.Config{}
	cfg.Model.Defaults.LLM = "gemini.flash"
	cfg.Model.LLM.Providers = map[string]config.ProviderConfig{
		"gemini": {Models: map[string]config.ModelInfo{"flash": {Name: "gemini-2.0-flash"}}},
	}
	_, err := NewEngine(cfg, nil, nil).CreateChatModel(context.Background())
	assert.ErrorContains(t, err, "api_key")

	cfg.Model.LLM.Providers["gemini"] = config.ProviderConfig{
		APIKey: "k",
		Models: map[string]config.ModelInfo{"flash": {Name: "gemini-2.0-flash"}},
	}
	cm, err := NewEngine(cfg, nil, nil).CreateChatModel(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, cm)

	cfg.Model.Defaults.Agent = "gemini.missing"
	_, err = NewEngine(cfg, nil, nil).CreateChatModel(context.Background())
	assert.Error(t, err)
}

func TestChatModelConfig_Timeout(t *testing.T) {
	pc := config.ProviderConfig{APIKey: "k"}
	mi := config.ModelInfo{Name: "gemini-2.0-flash", Temperature: 0.2}

	cfg := chatModelConfig("gemini", pc, mi, "15s")
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, defaultGeminiOpenAIURL, cfg.BaseURL)
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.2, *cfg.Temperature, 1e-6)

	for _, raw := range []string{"", "bogus", "-1s"} {
		assert.Equal(t, defaultChatTimeout, chatModelConfig("gemini", pc, mi, raw).Timeout, "timeout %q", raw)
	}

	pc.OpenAIBaseURL = "http://localhost:9000/v1"
	assert.Equal(t, "http://localhost:9000/v1", chatModelConfig("openai", pc, mi, "1m").BaseURL)
}

func TestEngine_GetRunnerUnknown(t *testing.T) {
	engine := NewEngine(nil, nil, nil)
	_, err := engine.GetRunner("unknown")
	assert.Error(t, err)
}
