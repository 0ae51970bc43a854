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
	"fmt"
	"time"

	"finance-assistant/internal/assistant"
	"finance-assistant/internal/classifier"
	"finance-assistant/internal/dispatcher"
	"finance-assistant/internal/document"
	"finance-assistant/internal/einoext"
	"finance-assistant/internal/glossary"
	"finance-assistant/internal/handler"
	"finance-assistant/internal/model/embedding"
	"finance-assistant/internal/model/llm"
	"finance-assistant/internal/refiner"
	"finance-assistant/internal/report"
	"finance-assistant/internal/runtime/eino"
	"finance-assistant/internal/search"
	"finance-assistant/internal/splitter"
	"finance-assistant/internal/storage/cache"
	"finance-assistant/internal/storage/metadata"
	"finance-assistant/internal/storage/object"
	"finance-assistant/internal/storage/vector"
	"finance-assistant/internal/summarize"
	"finance-assistant/internal/tool/builtin"
	"finance-assistant/internal/tool/registry"
	"finance-assistant/pkg/config"
	"finance-assistant/pkg/log"
	"finance-assistant/pkg/secrets"
)

const (
	agentToolResults   = 5
	embeddingCacheTTL  = 24 * time.Hour
	defaultGlossaryTop = 4
	defaultSplitter    = "token"
)

// Bootstrap 统一初始化：供 api、cli、devops 复用，cmd 内只做进程级装配
type Bootstrap struct {
	Config     *config.Config
	Logger     *log.Logger
	Secrets    secrets.Store
	Gateway    *llm.Gateway
	Cache      cache.Store
	Backend    *einoext.Backend
	Glossary   *GlossaryService
	Engine     *eino.Engine
	Summarizer *summarize.MapReduce
	Objects    object.Store
	Catalog    metadata.Store
	Reports    *handler.ReportHandler
	Assistant  *assistant.Assistant
}

// NewBootstrap 根据配置创建全部组件（模型、检索、工具、处理器、存储）
func NewBootstrap(ctx context.Context, cfg *config.Config) (*Bootstrap, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	logger, err := log.NewLogger(&log.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	b := &Bootstrap{Config: cfg, Logger: logger}

	b.Secrets, err = secrets.NewStore(secrets.Config{
		Provider: cfg.Secrets.Provider,
		Vault: secrets.VaultConfig{
			Address:    cfg.Secrets.Vault.Address,
			Token:      cfg.Secrets.Vault.Token,
			PathPrefix: cfg.Secrets.Vault.PathPrefix,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("初始化密钥存储失败: %w", err)
	}
	if err := ResolveSecrets(ctx, cfg, b.Secrets); err != nil {
		return nil, fmt.Errorf("解析密钥失败: %w", err)
	}

	b.Gateway, err = NewGatewayFromConfig(cfg, llm.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("初始化 LLM 失败: %w", err)
	}

	b.Cache, err = cache.NewCache(cfg.Storage.Cache)
	if err != nil {
		return nil, fmt.Errorf("初始化缓存失败: %w", err)
	}

	concepts, err := b.initGlossary(ctx)
	if err != nil {
		b.Close()
		return nil, err
	}

	reg := registry.New()
	builtin.RegisterBuiltin(reg, builtin.Config{
		DuckDuckGoURL:  cfg.Search.DuckDuckGo.BaseURL,
		UserAgent:      cfg.Fetch.UserAgent,
		YahooSearchURL: cfg.Search.Yahoo.SearchURL,
		ChartURL:       cfg.Search.Yahoo.ChartURL,
		MaxResults:     agentToolResults,
	})
	b.Engine = eino.NewEngine(cfg, reg, logger)
	agent := eino.NewSearchAgent(b.Engine, logger)

	splitterName := cfg.Summarize.Splitter
	if splitterName == "" {
		splitterName = defaultSplitter
	}
	split, err := splitter.NewEngine(splitter.Options{
		MaxTokens: cfg.Summarize.ChunkTokens,
		Overlap:   cfg.Summarize.ChunkOverlap,
	}).GetSplitter(splitterName)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("初始化切片器失败: %w", err)
	}
	b.Summarizer, err = summarize.New(ctx, b.Gateway, summarize.Config{
		Splitter:     split,
		ReduceTokens: cfg.Summarize.ReduceTokens,
	}, logger)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("初始化摘要图失败: %w", err)
	}

	b.Objects, err = object.NewStore(cfg.Storage.Object)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("初始化报告文件存储失败: %w", err)
	}
	b.Catalog, err = metadata.NewStore(ctx, cfg.Storage.Metadata)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("初始化报告目录失败: %w", err)
	}
	var renderer report.Renderer
	if cfg.Report.PDF {
		pdf, err := report.NewPDFRenderer(cfg.Report.LicenseKey)
		if err != nil {
			logger.Warn("PDF 渲染不可用，报告只登记不产出文件", "error", err)
		} else {
			renderer = pdf
		}
	}
	publisher := report.NewPublisher(renderer, b.Objects, b.Catalog, cfg.Report.DownloadPath, logger)

	ref := refiner.New(b.Gateway, logger)
	searcher := search.NewTavilySearcher(cfg.Search.Tavily)
	loader := document.NewHTTPLoader(cfg.Fetch, logger)
	clarify := handler.NewClarifyHandler(ref, concepts, agent, logger)
	b.Reports = handler.NewReportHandler(handler.ReportDeps{
		Gateway:    b.Gateway,
		Clarify:    clarify,
		Searcher:   searcher,
		Loader:     loader,
		Summarizer: b.Summarizer,
		Publisher:  publisher,
		Logger:     logger,
	})

	cls, err := classifier.New(b.Gateway, cfg.Prompts.Classify, logger)
	if err != nil {
		b.Close()
		return nil, err
	}
	disp := dispatcher.New(dispatcher.Handlers{
		Report:    b.Reports,
		Clarify:   clarify,
		Recommend: handler.NewRecommendHandler(ref, agent, logger),
		News:      handler.NewNewsHandler(ref, searcher, loader, b.Summarizer, logger),
		Persona:   handler.NewPersonaHandler(b.Gateway, cfg.Prompts.Help, cfg.Prompts.Error, logger),
	}, logger)
	b.Assistant = assistant.New(cls, disp, b.Reports, logger)
	return b, nil
}

// initGlossary 装配术语表检索；未配置 Embedding 时返回 nil，概念问题直接走搜索 Agent
func (b *Bootstrap) initGlossary(ctx context.Context) (handler.ConceptAnswerer, error) {
	cfg := b.Config
	embedder, dimension, err := NewEmbedderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("初始化 Embedding 失败: %w", err)
	}
	if embedder == nil {
		b.Logger.Info("未配置 Embedding，术语表检索关闭")
		return nil, nil
	}
	cached := embedding.NewCachedEmbedder(embedder, b.Cache, cache.ParseTTL(cfg.Storage.Cache, embeddingCacheTTL), b.Logger)

	var store vector.Store
	if t := cfg.Storage.Vector.Type; t == "" || t == "memory" {
		store, err = vector.NewStore(cfg.Storage.Vector)
		if err != nil {
			return nil, fmt.Errorf("初始化向量存储失败: %w", err)
		}
	}
	vcfg := cfg.Storage.Vector
	if vcfg.Collection == "" {
		vcfg.Collection = cfg.Glossary.Collection
	}
	topK := cfg.Glossary.TopK
	if topK <= 0 {
		topK = defaultGlossaryTop
	}
	b.Backend, err = einoext.NewBackend(ctx, vcfg, store, embedding.NewEinoAdapter(cached), topK, dimension)
	if err != nil {
		return nil, fmt.Errorf("初始化检索后端失败: %w", err)
	}
	index := glossary.NewIndex(b.Backend.Indexer, b.Backend.Retriever, b.Logger)
	b.Glossary = NewGlossaryService(index, cfg.Glossary.Path, b.Logger)
	if b.Glossary.Enabled() {
		if _, err := b.Glossary.Index(ctx); err != nil {
			b.Logger.Warn("术语表加载失败，概念问题将走搜索 Agent", "path", cfg.Glossary.Path, "error", err)
		}
	}
	return glossary.NewConceptAnswerer(index, b.Gateway, topK, b.Logger), nil
}

// Close 释放外部连接
func (b *Bootstrap) Close() {
	if b == nil {
		return
	}
	if b.Engine != nil {
		_ = b.Engine.Shutdown()
	}
	if b.Backend != nil {
		_ = b.Backend.Close()
	}
	if b.Catalog != nil {
		_ = b.Catalog.Close()
	}
	if b.Objects != nil {
		_ = b.Objects.Close()
	}
	if b.Cache != nil {
		_ = b.Cache.Close()
	}
}
