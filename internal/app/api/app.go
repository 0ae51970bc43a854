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

package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzslog "github.com/hertz-contrib/logger/slog"
	"github.com/hertz-contrib/obs-opentelemetry/provider"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"

	"finance-assistant/internal/api/http"
	"finance-assistant/internal/api/http/middleware"
	"finance-assistant/internal/app"
	"finance-assistant/pkg/log"
)

// otelProviderShutdown 用于优雅关闭时关闭 OpenTelemetry provider
type otelProviderShutdown interface {
	Shutdown(ctx context.Context) error
}

// App API 应用（装配 HTTP Router、Handler、Middleware）
type App struct {
	bootstrap    *app.Bootstrap
	router       *http.Router
	hertz        *server.Hertz
	otelProvider otelProviderShutdown
	logOutput    io.Closer
}

// NewApp 创建 API 应用（由 cmd/api 调用）
func NewApp(bootstrap *app.Bootstrap) (*App, error) {
	if bootstrap == nil || bootstrap.Config == nil {
		return nil, fmt.Errorf("bootstrap is not initialized")
	}
	cfg := bootstrap.Config
	handler := http.NewHandler(bootstrap.Assistant, bootstrap.Catalog, bootstrap.Objects)

	mw := middleware.NewMiddleware(cfg.API.CORS.AllowOrigins)
	if !cfg.API.CORS.Enable {
		mw.DisableCORS()
	}
	router := http.NewRouter(handler, mw)
	router.Use(mw.Timeout(parseDuration(cfg.API.Timeout, 0)))
	return &App{bootstrap: bootstrap, router: router}, nil
}

// Addr 监听地址 host:port
func (a *App) Addr() string {
	cfg := a.bootstrap.Config
	port := cfg.API.Port
	if port <= 0 {
		port = 5000
	}
	return fmt.Sprintf("%s:%d", cfg.API.Host, port)
}

// Run 启动 HTTP 服务，addr 为空时使用配置中的 host:port
func (a *App) Run(addr string) error {
	if addr == "" {
		addr = a.Addr()
	}
	logger := a.bootstrap.Logger
	logger.Info("API 服务启动", "addr", addr)
	if err := a.setupHertzLogger(); err != nil {
		return err
	}
	a.hertz = a.build(addr)
	return a.hertz.Run()
}

// build 按配置决定是否启用链路追踪并创建 Hertz 实例
func (a *App) build(addr string) *server.Hertz {
	tracing := a.bootstrap.Config.Monitoring.Tracing
	if !tracing.Enable {
		return a.router.Build(addr)
	}
	serviceName := tracing.ServiceName
	if serviceName == "" {
		serviceName = "finance-assistant"
	}
	exportEndpoint := tracing.ExportEndpoint
	if exportEndpoint == "" {
		exportEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if exportEndpoint == "" {
		a.bootstrap.Logger.Warn("已开启链路追踪但未配置导出地址，跳过")
		return a.router.Build(addr)
	}
	opts := []provider.Option{
		provider.WithServiceName(serviceName),
		provider.WithExportEndpoint(exportEndpoint),
	}
	if tracing.Insecure {
		opts = append(opts, provider.WithInsecure())
	}
	a.otelProvider = provider.NewOpenTelemetryProvider(opts...)
	tracerOpt, cfg := hertztracing.NewServerTracer()
	a.router.Use(hertztracing.ServerMiddleware(cfg))
	a.bootstrap.Logger.Info("链路追踪已启用", "service_name", serviceName, "endpoint", exportEndpoint)
	return a.router.Build(addr, tracerOpt)
}

// setupHertzLogger 使用 Hertz slog 扩展，与 bootstrap 日志配置对齐
func (a *App) setupHertzLogger() error {
	logCfg := a.bootstrap.Config.Log
	var output io.Writer = os.Stdout
	if logCfg.File != "" {
		f, err := os.OpenFile(logCfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("打开日志文件失败: %w", err)
		}
		output = f
		a.logOutput = f
	}
	levelVar := &slog.LevelVar{}
	levelVar.Set(log.ParseLevel(&log.Config{Level: logCfg.Level}))
	hlog.SetLogger(hertzslog.NewLogger(
		hertzslog.WithOutput(output),
		hertzslog.WithLevel(levelVar),
	))
	return nil
}

// Shutdown 优雅关闭（传入 ctx 以支持超时，如 cmd 层 WithTimeout）
func (a *App) Shutdown(ctx context.Context) error {
	var firstErr error
	if a.hertz != nil {
		if err := a.hertz.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if a.otelProvider != nil {
		_ = a.otelProvider.Shutdown(ctx)
	}
	a.bootstrap.Close()
	if a.logOutput != nil {
		_ = a.logOutput.Close()
	}
	return firstErr
}

// parseDuration 解析时长字符串，无效或空时返回 defaultVal
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}
