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

package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/hertz-contrib/cors"

	"finance-assistant/pkg/metrics"
)

// Middleware 中间件管理器
type Middleware struct {
	allowOrigins []string
	corsDisabled bool
}

// NewMiddleware 创建中间件管理器；allowOrigins 为空或含 "*" 时放行所有来源
func NewMiddleware(allowOrigins []string) *Middleware {
	return &Middleware{allowOrigins: allowOrigins}
}

// DisableCORS 不再下发跨域响应头，浏览器只能同源访问
func (m *Middleware) DisableCORS() *Middleware {
	m.corsDisabled = true
	return m
}

// CORS 跨域
func (m *Middleware) CORS() app.HandlerFunc {
	if m.corsDisabled {
		return func(ctx context.Context, c *app.RequestContext) { c.Next(ctx) }
	}
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if allowAll(m.allowOrigins) {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = m.allowOrigins
	}
	return cors.New(cfg)
}

// AccessLog 访问日志与请求耗时指标
func (m *Middleware) AccessLog() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		c.Next(ctx)
		latency := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Response.StatusCode()
		metrics.HTTPRequestDuration.
			WithLabelValues(route, strconv.Itoa(status)).
			Observe(latency.Seconds())
		hlog.CtxInfof(ctx, "%s %s %d %s %s", c.Method(), c.Path(), status, latency, c.ClientIP())
	}
}

// Timeout 为每个请求的 context 设置截止时间，d<=0 时不限制
func (m *Middleware) Timeout(d time.Duration) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if d <= 0 {
			c.Next(ctx)
			return
		}
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		c.Next(ctx)
	}
}

func allowAll(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
