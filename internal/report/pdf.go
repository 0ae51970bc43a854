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
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/creator"
	"github.com/unidoc/unipdf/v3/model"
)

// Renderer 将报告渲染为可下载文件
type Renderer interface {
	Render(ctx context.Context, r *Report, w io.Writer) error
}

var licenseOnce sync.Once
var licenseErr error

// PDFRenderer 基于 unipdf creator 的 PDF 渲染
type PDFRenderer struct {
	regular *model.PdfFont
	bold    *model.PdfFont
}

// NewPDFRenderer 设置 unidoc metered key 并加载标准字体；key 为空时按未授权模式运行
func NewPDFRenderer(licenseKey string) (*PDFRenderer, error) {
	if licenseKey != "" {
		licenseOnce.Do(func() {
			licenseErr = license.SetMeteredKey(licenseKey)
		})
		if licenseErr != nil {
			return nil, fmt.Errorf("设置 unidoc license failed: %w", licenseErr)
		}
	}
	regular, err := model.NewStandard14Font(model.HelveticaName)
	if err != nil {
		return nil, fmt.Errorf("加载字体failed: %w", err)
	}
	bold, err := model.NewStandard14Font(model.HelveticaBoldName)
	if err != nil {
		return nil, fmt.Errorf("加载字体failed: %w", err)
	}
	return &PDFRenderer{regular: regular, bold: bold}, nil
}

// Render 写出 PDF：标题、生成时间，然后逐段输出
func (p *PDFRenderer) Render(ctx context.Context, r *Report, w io.Writer) error {
	if r == nil {
		return fmt.Errorf("report is nil")
	}
	c := creator.New()
	c.SetPageMargins(50, 50, 60, 60)
	c.NewPage()

	title := c.NewParagraph(r.Title())
	title.SetFont(p.bold)
	title.SetFontSize(18)
	title.SetMargins(0, 0, 0, 6)
	if err := c.Draw(title); err != nil {
		return fmt.Errorf("绘制标题failed: %w", err)
	}

	stamp := c.NewParagraph("Generated " + r.GeneratedAt.Format("2006-01-02 15:04 MST"))
	stamp.SetFont(p.regular)
	stamp.SetFontSize(9)
	stamp.SetMargins(0, 0, 0, 14)
	if err := c.Draw(stamp); err != nil {
		return fmt.Errorf("绘制时间failed: %w", err)
	}

	for _, sec := range r.Sections() {
		if err := ctx.Err(); err != nil {
			return err
		}
		heading := c.NewParagraph(sec.Heading)
		heading.SetFont(p.bold)
		heading.SetFontSize(13)
		heading.SetMargins(0, 0, 10, 4)
		if err := c.Draw(heading); err != nil {
			return fmt.Errorf("绘制段落 %s failed: %w", sec.Heading, err)
		}
		for _, line := range sec.Lines {
			para := c.NewParagraph(line)
			para.SetFont(p.regular)
			para.SetFontSize(10)
			para.SetLineHeight(1.2)
			para.SetMargins(0, 0, 2, 2)
			if err := c.Draw(para); err != nil {
				return fmt.Errorf("绘制段落 %s failed: %w", sec.Heading, err)
			}
		}
	}
	return c.Write(w)
}
