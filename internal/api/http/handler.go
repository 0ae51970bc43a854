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
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"finance-assistant/internal/conversation"
	"finance-assistant/internal/report"
	"finance-assistant/internal/storage/metadata"
	"finance-assistant/internal/storage/object"
	apperrors "finance-assistant/pkg/errors"
	"finance-assistant/pkg/metrics"
)

// Assistant HTTP 层依赖的问答与报告能力
type Assistant interface {
	HandleQuery(ctx context.Context, messages conversation.History, summary conversation.Summary) (string, conversation.Summary)
	GenerateReport(ctx context.Context, summary conversation.Summary) (*report.Report, error)
}

// Handler HTTP 处理器
type Handler struct {
	assistant Assistant
	catalog   metadata.Store
	objects   object.Store
}

// NewHandler 创建新的 HTTP 处理器；catalog 与 objects 可为 nil
func NewHandler(assistant Assistant, catalog metadata.Store, objects object.Store) *Handler {
	return &Handler{assistant: assistant, catalog: catalog, objects: objects}
}

// QueryRequest POST /api/query 请求体
type QueryRequest struct {
	Messages conversation.History `json:"messages"`
	Summary  conversation.Summary `json:"summary"`
}

// QueryResponse POST /api/query 响应体
type QueryResponse struct {
	Message string               `json:"message"`
	Summary conversation.Summary `json:"summary"`
}

// ReportRequest POST /api/generate-report 请求体
type ReportRequest struct {
	Summary conversation.Summary `json:"summary"`
}

// Root 存活探测
// GET|HEAD /
func (h *Handler) Root(c context.Context, ctx *app.RequestContext) {
	ctx.String(consts.StatusOK, "OK")
}

// HealthCheck 健康检查
// GET /api/health
func (h *Handler) HealthCheck(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"service":   "finance-assistant",
	})
}

// Query 分类并处理最新一条消息
// POST /api/query
func (h *Handler) Query(c context.Context, ctx *app.RequestContext) {
	var req QueryRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Messages) == 0 {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "messages must be a non-empty list"})
		return
	}
	message, summary := h.assistant.HandleQuery(c, req.Messages, req.Summary)
	if summary == nil {
		summary = conversation.Summary{}
	}
	ctx.JSON(consts.StatusOK, QueryResponse{Message: message, Summary: summary})
}

// GenerateReport 按累积 summary 生成报告
// POST /api/generate-report
func (h *Handler) GenerateReport(c context.Context, ctx *app.RequestContext) {
	var req ReportRequest
	if len(ctx.Request.Body()) > 0 {
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}
	r, err := h.assistant.GenerateReport(c, req.Summary)
	if err != nil {
		hlog.CtxErrorf(c, "generate report failed: %v", err)
		ctx.JSON(consts.StatusServiceUnavailable, map[string]string{"error": "report generation was interrupted"})
		return
	}
	ctx.JSON(consts.StatusOK, r)
}

// History 已生成报告列表，新的在前
// GET /api/history
func (h *Handler) History(c context.Context, ctx *app.RequestContext) {
	records := []*metadata.ReportRecord{}
	if h.catalog != nil {
		list, err := h.catalog.List(c, nil, &metadata.Pagination{Limit: 100})
		if err != nil {
			hlog.CtxErrorf(c, "list report history failed: %v", err)
			ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "failed to load history"})
			return
		}
		records = append(records, list...)
	}
	ctx.JSON(consts.StatusOK, map[string]interface{}{"history": records})
}

// Download 下载报告文件
// GET /api/download/:filename
func (h *Handler) Download(c context.Context, ctx *app.RequestContext) {
	name := ctx.Param("filename")
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "invalid filename"})
		return
	}
	if h.objects == nil {
		ctx.JSON(consts.StatusNotFound, map[string]string{"error": "file not found"})
		return
	}
	rc, err := h.objects.Get(c, name)
	switch {
	case errors.Is(err, apperrors.ErrInvalidArg):
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "invalid filename"})
		return
	case errors.Is(err, apperrors.ErrNotFound):
		ctx.JSON(consts.StatusNotFound, map[string]string{"error": "file not found"})
		return
	case err != nil:
		hlog.CtxErrorf(c, "open report %s failed: %v", name, err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "failed to read file"})
		return
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		hlog.CtxErrorf(c, "read report %s failed: %v", name, err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "failed to read file"})
		return
	}
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ctx.Header("Content-Disposition", "attachment; filename="+name)
	ctx.Data(consts.StatusOK, contentType, data)
}

// Metrics Prometheus 文本格式
// GET /metrics
func (h *Handler) Metrics(c context.Context, ctx *app.RequestContext) {
	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		hlog.CtxErrorf(c, "write metrics failed: %v", err)
		ctx.String(consts.StatusInternalServerError, err.Error())
		return
	}
	ctx.Data(consts.StatusOK, "text/plain; version=0.0.4; charset=utf-8", buf.Bytes())
}
