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

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置结构体
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Model      ModelConfig      `mapstructure:"model"`
	Search     SearchConfig     `mapstructure:"search"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	Summarize  SummarizeConfig  `mapstructure:"summarize"`
	Glossary   GlossaryConfig   `mapstructure:"glossary"`
	Prompts    PromptsConfig    `mapstructure:"prompts"`
	Report     ReportConfig     `mapstructure:"report"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
	Log        LogConfig        `mapstructure:"log"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	RateLimits RateLimitsConfig `mapstructure:"rate_limits"`
}

// RateLimitsConfig 出站调用限流配置
type RateLimitsConfig struct {
	LLM map[string]LLMRateLimitConfig `mapstructure:"llm"`
}

// LLMRateLimitConfig 单个 LLM Provider 的限流配置
type LLMRateLimitConfig struct {
	TokensPerMinute   int     `mapstructure:"tokens_per_minute"`
	RequestsPerMinute float64 `mapstructure:"requests_per_minute"`
	MaxConcurrent     int     `mapstructure:"max_concurrent"`
}

// APIConfig API 服务配置
type APIConfig struct {
	Port    int        `mapstructure:"port"`
	Host    string     `mapstructure:"host"`
	Timeout string     `mapstructure:"timeout"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	Enable       bool     `mapstructure:"enable"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// ModelConfig 模型配置
type ModelConfig struct {
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Defaults  DefaultsConfig  `mapstructure:"defaults"`
}

// LLMConfig LLM 模型配置
type LLMConfig struct {
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Timeout   string                    `mapstructure:"timeout"` // 单次调用超时，如 "60s"
}

// EmbeddingConfig Embedding 模型配置
type EmbeddingConfig struct {
	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

// ProviderConfig 模型提供商配置
type ProviderConfig struct {
	APIKey string `mapstructure:"api_key"`
	// BaseURL 原生 REST 端点
	BaseURL string `mapstructure:"base_url"`
	// OpenAIBaseURL OpenAI 兼容端点，Agent 的 ChatModel 使用
	OpenAIBaseURL string               `mapstructure:"openai_base_url"`
	Models        map[string]ModelInfo `mapstructure:"models"`
}

// ModelInfo 模型信息
type ModelInfo struct {
	Name          string  `mapstructure:"name"`
	ContextWindow int     `mapstructure:"context_window"`
	Temperature   float64 `mapstructure:"temperature"`
	Dimension     int     `mapstructure:"dimension"`
	MaxTokens     int     `mapstructure:"max_tokens"`
}

// DefaultsConfig 默认模型，格式 provider.model_key
type DefaultsConfig struct {
	LLM       string `mapstructure:"llm"`
	Agent     string `mapstructure:"agent"`
	Embedding string `mapstructure:"embedding"`
}

// SearchConfig 搜索与行情数据源配置
type SearchConfig struct {
	Tavily     TavilyConfig `mapstructure:"tavily"`
	DuckDuckGo struct {
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"duckduckgo"`
	Yahoo YahooConfig `mapstructure:"yahoo"`
}

// TavilyConfig Tavily 搜索配置
type TavilyConfig struct {
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	MaxResults int    `mapstructure:"max_results"`
}

// YahooConfig Yahoo Finance 端点配置
type YahooConfig struct {
	SearchURL string `mapstructure:"search_url"`
	ChartURL  string `mapstructure:"chart_url"`
}

// FetchConfig 网页抓取配置
type FetchConfig struct {
	ValidateTimeout string `mapstructure:"validate_timeout"`
	FetchTimeout    string `mapstructure:"fetch_timeout"`
	Concurrency     int    `mapstructure:"concurrency"`
	UserAgent       string `mapstructure:"user_agent"`
}

// SummarizeConfig map-reduce 摘要配置
type SummarizeConfig struct {
	ChunkTokens  int    `mapstructure:"chunk_tokens"`
	ChunkOverlap int    `mapstructure:"chunk_overlap"`
	ReduceTokens int    `mapstructure:"reduce_tokens"`
	Splitter     string `mapstructure:"splitter"` // token | structural
}

// GlossaryConfig 金融术语表检索配置
type GlossaryConfig struct {
	Path       string `mapstructure:"path"`
	Collection string `mapstructure:"collection"`
	TopK       int    `mapstructure:"top_k"`
}

// PromptsConfig 系统提示词覆盖，留空使用内置默认值
type PromptsConfig struct {
	Classify string `mapstructure:"classify"`
	Help     string `mapstructure:"help"`
	Error    string `mapstructure:"error"`
}

// ReportConfig 报告生成配置
type ReportConfig struct {
	PDF          bool   `mapstructure:"pdf"`
	LicenseKey   string `mapstructure:"license_key"` // unidoc metered key
	DownloadPath string `mapstructure:"download_path"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	Metadata MetadataConfig `mapstructure:"metadata"`
	Vector   VectorConfig   `mapstructure:"vector"`
	Object   ObjectConfig   `mapstructure:"object"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

// MetadataConfig 报告目录存储配置
type MetadataConfig struct {
	Type     string `mapstructure:"type"` // memory | postgres
	DSN      string `mapstructure:"dsn"`
	PoolSize int    `mapstructure:"pool_size"`
}

// VectorConfig 向量存储配置（memory 为内置内存；redis 使用 eino-ext 对应组件）
type VectorConfig struct {
	Type       string `mapstructure:"type"`
	Addr       string `mapstructure:"addr"`
	DB         string `mapstructure:"db"`
	Collection string `mapstructure:"collection"`
	Password   string `mapstructure:"password"`
}

// ObjectConfig 报告文件存储配置
type ObjectConfig struct {
	Type string `mapstructure:"type"` // file | memory
	Root string `mapstructure:"root"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Type     string `mapstructure:"type"` // memory | redis
	Addr     string `mapstructure:"addr"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
	TTL      string `mapstructure:"ttl"`
}

// SecretsConfig 密钥来源配置
type SecretsConfig struct {
	Provider string      `mapstructure:"provider"` // env | memory | vault
	Vault    VaultConfig `mapstructure:"vault"`
}

// VaultConfig Vault 连接配置
type VaultConfig struct {
	Address    string `mapstructure:"address"`
	Token      string `mapstructure:"token"`
	PathPrefix string `mapstructure:"path_prefix"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// TracingConfig 链路追踪配置（OpenTelemetry）
type TracingConfig struct {
	Enable         bool   `mapstructure:"enable"`
	ServiceName    string `mapstructure:"service_name"`
	ExportEndpoint string `mapstructure:"export_endpoint"`
	Insecure       bool   `mapstructure:"insecure"`
}

// PrometheusConfig Prometheus 配置
type PrometheusConfig struct {
	Enable bool `mapstructure:"enable"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("无法读取配置文件: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}

	replaceEnvVars(&config)
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 5000)
	v.SetDefault("api.cors.enable", true)
	v.SetDefault("model.llm.timeout", "60s")
	v.SetDefault("search.tavily.base_url", "https://api.tavily.com")
	v.SetDefault("search.tavily.max_results", 10)
	v.SetDefault("search.duckduckgo.base_url", "https://html.duckduckgo.com/html/")
	v.SetDefault("search.yahoo.search_url", "https://query2.finance.yahoo.com/v1/finance/search")
	v.SetDefault("search.yahoo.chart_url", "https://query1.finance.yahoo.com/v8/finance/chart")
	v.SetDefault("fetch.validate_timeout", "5s")
	v.SetDefault("fetch.fetch_timeout", "10s")
	v.SetDefault("fetch.concurrency", 4)
	v.SetDefault("summarize.chunk_tokens", 2000)
	v.SetDefault("summarize.chunk_overlap", 100)
	v.SetDefault("summarize.reduce_tokens", 3000)
	v.SetDefault("summarize.splitter", "structural")
	v.SetDefault("glossary.collection", "glossary")
	v.SetDefault("glossary.top_k", 4)
	v.SetDefault("report.download_path", "/api/download/")
	v.SetDefault("storage.object.type", "file")
	v.SetDefault("storage.object.root", "static/reports")
	v.SetDefault("secrets.provider", "env")
	v.SetDefault("log.level", "info")
}

// replaceEnvVars 替换配置中形如 ${ENV} 的值
func replaceEnvVars(config *Config) {
	for provider, providerConfig := range config.Model.LLM.Providers {
		providerConfig.APIKey = expandEnv(providerConfig.APIKey)
		config.Model.LLM.Providers[provider] = providerConfig
	}
	for provider, providerConfig := range config.Model.Embedding.Providers {
		providerConfig.APIKey = expandEnv(providerConfig.APIKey)
		config.Model.Embedding.Providers[provider] = providerConfig
	}
	config.Search.Tavily.APIKey = expandEnv(config.Search.Tavily.APIKey)
	config.Storage.Metadata.DSN = expandEnv(config.Storage.Metadata.DSN)
	config.Secrets.Vault.Token = expandEnv(config.Secrets.Vault.Token)
	config.Report.LicenseKey = expandEnv(config.Report.LicenseKey)
}

func expandEnv(value string) string {
	if !strings.HasPrefix(value, "${") || !strings.HasSuffix(value, "}") {
		return value
	}
	envVar := strings.TrimSuffix(strings.TrimPrefix(value, "${"), "}")
	return os.Getenv(envVar)
}

// LoadAPIConfig 加载 API 配置；FINASSIST_CONFIG 可覆盖默认路径 configs/api.yaml
func LoadAPIConfig() (*Config, error) {
	path := os.Getenv("FINASSIST_CONFIG")
	if path == "" {
		path = "configs/api.yaml"
	}
	return LoadConfig(path)
}

// ParseDefaultKey 解析 provider.model_key
func ParseDefaultKey(key string) (provider, modelKey string, err error) {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("default key 格式应为 provider.model_key，如 gemini.flash，当前: %q", key)
	}
	return parts[0], parts[1], nil
}

// ResolveModel 根据 provider.model_key 找到提供商与模型配置
func ResolveModel(providers map[string]ProviderConfig, key string) (string, ProviderConfig, ModelInfo, error) {
	provider, modelKey, err := ParseDefaultKey(key)
	if err != nil {
		return "", ProviderConfig{}, ModelInfo{}, err
	}
	pc, ok := providers[provider]
	if !ok {
		return "", ProviderConfig{}, ModelInfo{}, fmt.Errorf("provider %q not configured", provider)
	}
	mi, ok := pc.Models[modelKey]
	if !ok {
		return "", ProviderConfig{}, ModelInfo{}, fmt.Errorf("model %q not configured in provider %q", modelKey, provider)
	}
	return provider, pc, mi, nil
}
