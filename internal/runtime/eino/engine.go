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
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	"finance-assistant/internal/prompts"
	"finance-assistant/internal/tool/registry"
	"finance-assistant/pkg/config"
	"finance-assistant/pkg/log"
)

// SearchAgentName 搜索 Agent 的 Runner 名称
const SearchAgentName = "search_agent"

const (
	searchAgentDescription = "Answers financial questions with web search, ticker lookup, market data and math tools."
	defaultGeminiOpenAIURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	searchAgentMaxSteps    = 10
	defaultChatTimeout     = 60 * time.Second
)

// Engine eino 引擎实例，持有按名称懒创建的 Runner
type Engine struct {
	runners   map[string]*adk.Runner
	config    *config.Config
	registry  *registry.Registry
	chatModel model.ToolCallingChatModel
	logger    *log.Logger
	mu        sync.RWMutex
}

// NewEngine 创建新的 eino 引擎实例
func NewEngine(cfg *config.Config, reg *registry.Registry, logger *log.Logger) *Engine {
	if reg == nil {
		reg = registry.New()
	}
	return &Engine{
		runners:  make(map[string]*adk.Runner),
		config:   cfg,
		registry: reg,
		logger:   log.OrDefault(logger),
	}
}

// SetChatModel 注入 ChatModel，优先于配置创建
func (e *Engine) SetChatModel(cm model.ToolCallingChatModel) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chatModel = cm
}

// Registry 返回工具注册表
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// CreateChatModel 根据 model.defaults.agent（缺省为 model.defaults.llm）创建 OpenAI 兼容 ChatModel
func (e *Engine) CreateChatModel(ctx context.Context) (model.ToolCallingChatModel, error) {
	if e.config == nil {
		return nil, fmt.Errorf("agent chat model: config is nil")
	}
	key := e.config.Model.Defaults.Agent
	if key == "" {
		key = e.config.Model.Defaults.LLM
	}
	provider, pc, mi, err := config.ResolveModel(e.config.Model.LLM.Providers, key)
	if err != nil {
		return nil, fmt.Errorf("agent chat model: %w", err)
	}
	if pc.APIKey == "" {
		return nil, fmt.Errorf("LLM provider %q api_key not configured", provider)
	}
	chatModel, err := openai.NewChatModel(ctx, chatModelConfig(provider, pc, mi, e.config.Model.LLM.Timeout))
	if err != nil {
		return nil, fmt.Errorf("创建 OpenAI ChatModel 失败: %w", err)
	}
	return chatModel, nil
}

// chatModelConfig 组装 ChatModel 配置；timeout 取 model.llm.timeout，缺省 60s
func chatModelConfig(provider string, pc config.ProviderConfig, mi config.ModelInfo, timeout string) *openai.ChatModelConfig {
	baseURL := pc.OpenAIBaseURL
	if baseURL == "" && provider == "gemini" {
		baseURL = defaultGeminiOpenAIURL
	}
	cfg := &openai.ChatModelConfig{
		Model:   mi.Name,
		APIKey:  pc.APIKey,
		BaseURL: baseURL,
		Timeout: defaultChatTimeout,
	}
	if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
		cfg.Timeout = d
	}
	if mi.Temperature > 0 {
		temp := float32(mi.Temperature)
		cfg.Temperature = &temp
	}
	return cfg
}

// GetRunner 获取 Runner；search_agent 首次使用时创建
func (e *Engine) GetRunner(name string) (*adk.Runner, error) {
	e.mu.RLock()
	runner, exists := e.runners[name]
	e.mu.RUnlock()
	if exists {
		return runner, nil
	}
	return e.ensureRunner(name)
}

func (e *Engine) ensureRunner(name string) (*adk.Runner, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r, ok := e.runners[name]; ok {
		return r, nil
	}
	if name != SearchAgentName {
		return nil, fmt.Errorf("Runner %s not found", name)
	}
	runner, err := e.createSearchRunner(context.Background())
	if err != nil {
		return nil, err
	}
	e.runners[name] = runner
	return runner, nil
}

// createSearchRunner 创建搜索 Agent Runner（ChatModelAgent + 注册表中的工具）
func (e *Engine) createSearchRunner(ctx context.Context) (*adk.Runner, error) {
	chatModel := e.chatModel
	if chatModel == nil {
		cm, err := e.CreateChatModel(ctx)
		if err != nil {
			return nil, err
		}
		chatModel = cm
	}
	agent, err := adk.NewChatModelAgent(ctx, &adk.ChatModelAgentConfig{
		Name:        SearchAgentName,
		Description: searchAgentDescription,
		Instruction: prompts.Agent,
		Model:       chatModel,
		ToolsConfig: adk.ToolsConfig{
			ToolsNodeConfig: compose.ToolsNodeConfig{
				Tools: BridgeTools(e.registry),
			},
		},
		MaxIterations: searchAgentMaxSteps,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 ChatModelAgent 失败: %w", err)
	}
	e.logger.Info("search agent 已创建", "tools", len(e.registry.List()))
	return adk.NewRunner(ctx, adk.RunnerConfig{Agent: agent}), nil
}

// RegisterRunner 注册自定义 Runner
func (e *Engine) RegisterRunner(name string, runner *adk.Runner) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.runners[name]; exists {
		return fmt.Errorf("Runner %s 已存在", name)
	}
	e.runners[name] = runner
	e.logger.Info("Runner 注册成功", "name", name)
	return nil
}

// Agents 已创建的 Runner 名称
func (e *Engine) Agents() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.runners))
	for name := range e.runners {
		names = append(names, name)
	}
	return names
}

// Shutdown 关闭 eino 引擎
func (e *Engine) Shutdown() error {
	e.logger.Info("eino 引擎关闭成功")
	return nil
}

// isBlank 消息内容为空白
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
