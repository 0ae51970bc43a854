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
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"finance-assistant/pkg/config"
)

// LLMLimitConfig 单个 Provider 的出站限流配置
type LLMLimitConfig struct {
	TokensPerMinute   int     // 每分钟 token 配额
	RequestsPerMinute float64 // 每分钟请求数
	MaxConcurrent     int     // 最大并发请求数
}

// LLMRateLimiter 按 Provider 维度限流，保护后端 API 配额：token budget + RPM + 并发
type LLMRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*llmLimiter
	defaults LLMLimitConfig
}

type llmLimiter struct {
	requestLimiter *rate.Limiter
	tokenLimiter   *rate.Limiter
	semaphore      chan struct{}
	config         LLMLimitConfig
}

// DefaultLimitConfig 未配置 Provider 时使用的限额
var DefaultLimitConfig = LLMLimitConfig{
	TokensPerMinute:   1000000,
	RequestsPerMinute: 60,
	MaxConcurrent:     8,
}

// NewLLMRateLimiter 创建限流器，defaults 为 nil 时使用 DefaultLimitConfig
func NewLLMRateLimiter(configs map[string]LLMLimitConfig, defaults *LLMLimitConfig) *LLMRateLimiter {
	l := &LLMRateLimiter{
		limiters: make(map[string]*llmLimiter),
		defaults: DefaultLimitConfig,
	}
	if defaults != nil {
		l.defaults = *defaults
	}
	for provider, cfg := range configs {
		l.limiters[provider] = newLLMLimiter(cfg)
	}
	return l
}

// NewLLMRateLimiterFromConfig 由 rate_limits.llm 配置创建；未配置任何 Provider 时返回 nil
func NewLLMRateLimiterFromConfig(cfg config.RateLimitsConfig) *LLMRateLimiter {
	if len(cfg.LLM) == 0 {
		return nil
	}
	configs := make(map[string]LLMLimitConfig, len(cfg.LLM))
	for provider, c := range cfg.LLM {
		configs[provider] = LLMLimitConfig{
			TokensPerMinute:   c.TokensPerMinute,
			RequestsPerMinute: c.RequestsPerMinute,
			MaxConcurrent:     c.MaxConcurrent,
		}
	}
	return NewLLMRateLimiter(configs, nil)
}

func newLLMLimiter(cfg LLMLimitConfig) *llmLimiter {
	limiter := &llmLimiter{config: cfg}

	if cfg.RequestsPerMinute > 0 {
		// burst = 2 秒的配额
		burst := int(cfg.RequestsPerMinute / 60.0 * 2)
		if burst < 1 {
			burst = 1
		}
		limiter.requestLimiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute/60.0), burst)
	}
	if cfg.TokensPerMinute > 0 {
		burst := cfg.TokensPerMinute / 60 * 2
		if burst < 1 {
			burst = 1
		}
		limiter.tokenLimiter = rate.NewLimiter(rate.Limit(float64(cfg.TokensPerMinute)/60.0), burst)
	}
	if cfg.MaxConcurrent > 0 {
		limiter.semaphore = make(chan struct{}, cfg.MaxConcurrent)
	}
	return limiter
}

func (l *LLMRateLimiter) get(provider string) *llmLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	limiter, ok := l.limiters[provider]
	if !ok {
		limiter = newLLMLimiter(l.defaults)
		l.limiters[provider] = limiter
	}
	return limiter
}

// Wait 阻塞直到获得执行许可；成功后必须调用 Release
func (l *LLMRateLimiter) Wait(ctx context.Context, provider string, estimatedTokens int) error {
	limiter := l.get(provider)

	if limiter.requestLimiter != nil {
		if err := limiter.requestLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("request rate limit wait failed: %w", err)
		}
	}
	if limiter.tokenLimiter != nil && estimatedTokens > 0 {
		n := estimatedTokens
		// 单次请求超过 burst 时按 burst 扣减，否则 WaitN 会直接报错
		if b := limiter.tokenLimiter.Burst(); n > b {
			n = b
		}
		if err := limiter.tokenLimiter.WaitN(ctx, n); err != nil {
			return fmt.Errorf("token budget wait failed: %w", err)
		}
	}
	if limiter.semaphore != nil {
		select {
		case limiter.semaphore <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Release 释放并发 slot
func (l *LLMRateLimiter) Release(provider string) {
	limiter := l.get(provider)
	if limiter.semaphore == nil {
		return
	}
	select {
	case <-limiter.semaphore:
	default:
	}
}

// Allow 非阻塞检查；返回 true 时同样需要 Release
func (l *LLMRateLimiter) Allow(provider string, estimatedTokens int) bool {
	limiter := l.get(provider)
	if limiter.requestLimiter != nil && !limiter.requestLimiter.Allow() {
		return false
	}
	if limiter.tokenLimiter != nil && estimatedTokens > 0 && !limiter.tokenLimiter.AllowN(time.Now(), estimatedTokens) {
		return false
	}
	if limiter.semaphore != nil {
		select {
		case limiter.semaphore <- struct{}{}:
		default:
			return false
		}
	}
	return true
}

// Stats 返回 Provider 当前的限流状态
func (l *LLMRateLimiter) Stats(provider string) map[string]interface{} {
	limiter := l.get(provider)
	stats := map[string]interface{}{
		"requests_per_minute": limiter.config.RequestsPerMinute,
		"tokens_per_minute":   limiter.config.TokensPerMinute,
		"max_concurrent":      limiter.config.MaxConcurrent,
	}
	if limiter.semaphore != nil {
		stats["current_concurrent"] = len(limiter.semaphore)
		stats["available_slots"] = cap(limiter.semaphore) - len(limiter.semaphore)
	}
	return stats
}
