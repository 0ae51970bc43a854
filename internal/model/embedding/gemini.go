package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// GeminiEmbedder 调用 batchEmbedContents 的 Gemini 向量化客户端
type GeminiEmbedder struct {
	model   string
	apiKey  string
	baseURL string
	client  *resty.Client
}

type geminiEmbedRequest struct {
	Requests []geminiEmbedItem `json:"requests"`
}

type geminiEmbedItem struct {
	Model   string `json:"model"`
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
}

// NewGeminiEmbedder 创建 Gemini Embedder
func NewGeminiEmbedder(cfg Config) *GeminiEmbedder {
	model := cfg.Model
	if model == "" {
		model = "text-embedding-004"
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(2)
	client.SetRetryWaitTime(500 * time.Millisecond)

	return &GeminiEmbedder{model: model, apiKey: cfg.APIKey, baseURL: baseURL, client: client}
}

// Model 返回模型名称
func (e *GeminiEmbedder) Model() string { return e.model }

// Embed 批量向量化
func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	modelRef := "models/" + e.model
	req := geminiEmbedRequest{Requests: make([]geminiEmbedItem, len(texts))}
	for i, text := range texts {
		item := geminiEmbedItem{Model: modelRef}
		item.Content.Parts = []struct {
			Text string `json:"text"`
		}{{Text: text}}
		req.Requests[i] = item
	}

	var result struct {
		Embeddings []struct {
			Values []float64 `json:"values"`
		} `json:"embeddings"`
	}
	resp, err := e.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", e.apiKey).
		SetBody(req).
		SetResult(&result).
		Post(e.baseURL + "/" + modelRef + ":batchEmbedContents")
	if err != nil {
		return nil, fmt.Errorf("调用 Gemini Embedding API 失败: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("Gemini Embedding API 返回错误 %d: %s", resp.StatusCode(), resp.String())
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("Gemini Embedding 返回 %d 个向量，期望 %d", len(result.Embeddings), len(texts))
	}
	out := make([][]float64, len(texts))
	for i, emb := range result.Embeddings {
		out[i] = emb.Values
	}
	return out, nil
}
