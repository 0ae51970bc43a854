// Package tracing 封装 OpenTelemetry 初始化与业务 span 辅助函数
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "finance-assistant"

// OTelConfig OpenTelemetry 配置
type OTelConfig struct {
	ServiceName    string
	ExportEndpoint string
	Insecure       bool
}

// InitTracer 初始化 OpenTelemetry tracer
func InitTracer(config OTelConfig) (*sdktrace.TracerProvider, error) {
	ctx := context.Background()

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(config.ExportEndpoint),
	}
	if config.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
	if err != nil {
		return nil, err
	}

	serviceName := config.ServiceName
	if serviceName == "" {
		serviceName = tracerName
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	return tp, nil
}

// StartClassifySpan 开始意图分类 span
func StartClassifySpan(ctx context.Context, historyLen int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "assistant.classify",
		trace.WithAttributes(
			attribute.Int("history.length", historyLen),
		),
	)
}

// StartDispatchSpan 开始动作分发 span
func StartDispatchSpan(ctx context.Context, action string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "assistant.dispatch",
		trace.WithAttributes(
			attribute.String("action", action),
		),
	)
}

// StartLLMSpan 开始 LLM 调用 span
func StartLLMSpan(ctx context.Context, provider, model string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "llm.generate",
		trace.WithAttributes(
			attribute.String("llm.provider", provider),
			attribute.String("llm.model", model),
		),
	)
}

// StartToolSpan 开始工具调用 span
func StartToolSpan(ctx context.Context, toolName string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "tool.invoke",
		trace.WithAttributes(
			attribute.String("tool.name", toolName),
		),
	)
}

// RecordError 在 span 上记录错误
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
