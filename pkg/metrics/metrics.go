package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// 全局 Registry，供 API 注册与暴露
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		HTTPRequestDuration,
		LLMRequestsTotal, LLMRequestDuration,
		ActionsTotal, ToolCallsTotal,
		DocumentFetchTotal, RateLimitWaitSeconds,
	)
}

// HTTPRequestDuration HTTP 请求耗时（秒）
var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "finassist_http_request_duration_seconds",
		Help:    "HTTP 请求耗时（秒）",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	},
	[]string{"route", "status"},
)

// LLMRequestsTotal LLM 调用次数
var LLMRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "finassist_llm_requests_total",
		Help: "LLM 调用次数（按结果）",
	},
	[]string{"provider", "status"}, // ok | error | empty
)

// LLMRequestDuration LLM 调用耗时（秒）
var LLMRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "finassist_llm_request_duration_seconds",
		Help:    "LLM 调用耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"provider"},
)

// ActionsTotal 分类得到的动作次数
var ActionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "finassist_actions_total",
		Help: "按动作类型统计的分发次数",
	},
	[]string{"action"},
)

// ToolCallsTotal 工具调用次数
var ToolCallsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "finassist_tool_calls_total",
		Help: "工具调用次数（按结果）",
	},
	[]string{"tool", "status"},
)

// DocumentFetchTotal 网页抓取次数
var DocumentFetchTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "finassist_document_fetch_total",
		Help: "网页校验与抓取次数（按结果）",
	},
	[]string{"status"}, // ok | invalid | error
)

// RateLimitWaitSeconds 限流等待耗时
var RateLimitWaitSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "finassist_rate_limit_wait_seconds",
		Help:    "出站调用在限流器上的等待耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"kind", "provider"},
)

// WritePrometheus 将 Prometheus 文本格式写入 w（供 Hertz 等复用）
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
