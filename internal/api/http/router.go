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

package http

import (
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"

	"finance-assistant/internal/api/http/middleware"
)

// Router HTTP 路由器
type Router struct {
	handler    *Handler
	middleware *middleware.Middleware
	extra      []app.HandlerFunc
}

// NewRouter 创建新的 HTTP 路由器
func NewRouter(handler *Handler, middleware *middleware.Middleware) *Router {
	return &Router{
		handler:    handler,
		middleware: middleware,
	}
}

// Use 追加在内置中间件之前执行的中间件（如 otel 服务端追踪），需在 Build 之前调用
func (r *Router) Use(mw ...app.HandlerFunc) {
	r.extra = append(r.extra, mw...)
}

// Build 创建 Hertz 实例并注册路由；opts 用于追加 tracer 等服务端选项
func (r *Router) Build(addr string, opts ...config.Option) *server.Hertz {
	opts = append([]config.Option{server.WithHostPorts(addr)}, opts...)
	h := server.Default(opts...)
	r.Register(h)
	return h
}

// Register 在已有 Hertz 实例上注册中间件与路由
func (r *Router) Register(h *server.Hertz) {
	if len(r.extra) > 0 {
		h.Use(r.extra...)
	}
	h.Use(r.middleware.CORS(), r.middleware.AccessLog())

	h.GET("/", r.handler.Root)
	h.HEAD("/", r.handler.Root)
	h.GET("/metrics", r.handler.Metrics)

	api := h.Group("/api")
	{
		api.GET("/health", r.handler.HealthCheck)
		api.POST("/query", r.handler.Query)
		api.POST("/generate-report", r.handler.GenerateReport)
		api.GET("/history", r.handler.History)
		api.GET("/download/:filename", r.handler.Download)
	}
}
