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

package report

import (
	"bytes"
	"context"
	"strings"

	"finance-assistant/internal/storage/metadata"
	"finance-assistant/internal/storage/object"
	"finance-assistant/pkg/log"
)

// Publisher 渲染报告文件写入对象存储，并在报告目录中登记
type Publisher struct {
	renderer     Renderer
	objects      object.Store
	catalog      metadata.Store
	downloadPath string
	logger       *log.Logger
}

// NewPublisher 创建发布器；renderer 或 objects 为 nil 时只登记目录不产出文件
func NewPublisher(renderer Renderer, objects object.Store, catalog metadata.Store, downloadPath string, logger *log.Logger) *Publisher {
	if downloadPath == "" {
		downloadPath = "/api/download/"
	}
	if !strings.HasSuffix(downloadPath, "/") {
		downloadPath += "/"
	}
	return &Publisher{
		renderer:     renderer,
		objects:      objects,
		catalog:      catalog,
		downloadPath: downloadPath,
		logger:       log.OrDefault(logger),
	}
}

// Publish 失败只记录日志，DownloadURL 保持为空
func (p *Publisher) Publish(ctx context.Context, r *Report) {
	if p == nil || r == nil {
		return
	}
	fileName := ""
	if p.renderer != nil && p.objects != nil {
		var buf bytes.Buffer
		if err := p.renderer.Render(ctx, r, &buf); err != nil {
			p.logger.Warn("报告渲染失败", "report_id", r.ID, "error", err)
		} else if err := p.objects.Put(ctx, r.FileName(), &buf, int64(buf.Len()), map[string]string{
			"company":      r.Company,
			"content-type": "application/pdf",
		}); err != nil {
			p.logger.Warn("报告文件写入失败", "report_id", r.ID, "error", err)
		} else {
			fileName = r.FileName()
			r.DownloadURL = p.downloadPath + fileName
		}
	}
	if p.catalog == nil {
		return
	}
	rec := &metadata.ReportRecord{
		ID:        r.ID,
		Company:   r.Company,
		FileName:  fileName,
		Summary:   r.Summary,
		CreatedAt: r.GeneratedAt,
	}
	if err := p.catalog.Create(ctx, rec); err != nil {
		p.logger.Warn("报告目录登记失败", "report_id", r.ID, "error", err)
	}
}
