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
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"finance-assistant/internal/conversation"
	"finance-assistant/internal/storage/metadata"
	"finance-assistant/internal/storage/object"
)

func TestNew(t *testing.T) {
	r := New(conversation.Summary{"company": " Apple Inc. ", "timeframe": "2025"})
	assert.True(t, strings.HasPrefix(r.ID, "report-"))
	assert.Equal(t, "Apple Inc.", r.Company)
	assert.Equal(t, r.ID+".pdf", r.FileName())
	assert.Equal(t, "Financial Report: Apple Inc.", r.Title())
	assert.False(t, r.GeneratedAt.IsZero())
	assert.NotNil(t, r.Queries)
	assert.NotNil(t, r.Sources)

	empty := New(nil)
	assert.Equal(t, "", empty.Company)
	assert.Equal(t, "Financial Report", empty.Title())
	assert.NotEqual(t, r.ID, empty.ID)
}

func TestSections(t *testing.T) {
	r := New(conversation.Summary{
		"company":    "Tesla",
		"focusAreas": []any{"margins", "deliveries"},
	})
	r.Preferences = "Wants Tesla.\n\nFocus on margins."
	r.Summary = "Revenue grew."
	r.Sources = []string{"https://a.example/1"}

	secs := r.Sections()
	require.Len(t, secs, 4)
	assert.Equal(t, "Parameters", secs[0].Heading)
	assert.Equal(t, []string{"company: Tesla", "focusAreas: margins, deliveries"}, secs[0].Lines)
	assert.Equal(t, []string{"Wants Tesla.", "Focus on margins."}, secs[1].Lines)
	assert.Equal(t, "Summary", secs[2].Heading)
	assert.Equal(t, "Sources", secs[3].Heading)

	bare := &Report{Summary: NoInformationSummary}
	secs = bare.Sections()
	require.Len(t, secs, 1)
	assert.Equal(t, []string{NoInformationSummary}, secs[0].Lines)
}

// pdfText 读取 PDF 全部页面文本，用于校验渲染结果
func pdfText(t *testing.T, data []byte) string {
	t.Helper()
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	require.NoError(t, err)
	numPages, err := reader.GetNumPages()
	require.NoError(t, err)
	var buf strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		require.NoError(t, err)
		ex, err := extractor.New(page)
		require.NoError(t, err)
		text, err := ex.ExtractText()
		require.NoError(t, err)
		buf.WriteString(text)
		buf.WriteString("\n")
	}
	return buf.String()
}

func TestPDFRenderer_Render(t *testing.T) {
	key := os.Getenv("UNIDOC_LICENSE_API_KEY")
	if key == "" {
		t.Skip("UNIDOC_LICENSE_API_KEY not set, skipping PDF rendering")
	}
	renderer, err := NewPDFRenderer(key)
	require.NoError(t, err)

	r := New(conversation.Summary{"company": "Apple Inc."})
	r.Summary = "Services revenue reached a record."
	r.Sources = []string{"https://news.example/apple"}

	var buf bytes.Buffer
	require.NoError(t, renderer.Render(context.Background(), r, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))

	text := pdfText(t, buf.Bytes())
	assert.Contains(t, text, "Financial Report: Apple Inc.")
	assert.Contains(t, text, "Services revenue reached a record.")
}

type fakeRenderer struct {
	err error
}

func (f fakeRenderer) Render(ctx context.Context, r *Report, w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, "%PDF-fake "+r.Company)
	return err
}

func TestPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	objects := object.NewMemoryStore()
	catalog := metadata.NewMemoryStore()
	p := NewPublisher(fakeRenderer{}, objects, catalog, "/api/download", nil)

	r := New(conversation.Summary{"company": "Apple Inc."})
	r.Summary = "ok"
	p.Publish(ctx, r)

	assert.Equal(t, "/api/download/"+r.FileName(), r.DownloadURL)
	rc, err := objects.Get(ctx, r.FileName())
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "%PDF-fake Apple Inc.", string(data))

	rec, err := catalog.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", rec.Company)
	assert.Equal(t, r.FileName(), rec.FileName)
	assert.Equal(t, "ok", rec.Summary)
}

func TestPublisher_RenderFailureKeepsCatalog(t *testing.T) {
	ctx := context.Background()
	objects := object.NewMemoryStore()
	catalog := metadata.NewMemoryStore()
	p := NewPublisher(fakeRenderer{err: errors.New("unlicensed")}, objects, catalog, "", nil)

	r := New(conversation.Summary{"company": "Tesla"})
	p.Publish(ctx, r)

	assert.Empty(t, r.DownloadURL)
	list, _ := objects.List(ctx, "")
	assert.Empty(t, list)
	rec, err := catalog.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, rec.FileName)
}

func TestPublisher_NilStores(t *testing.T) {
	r := New(nil)
	NewPublisher(nil, nil, nil, "", nil).Publish(context.Background(), r)
	assert.Empty(t, r.DownloadURL)
	var p *Publisher
	p.Publish(context.Background(), r)
}
