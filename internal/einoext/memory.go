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

package einoext

import (
	"context"
	"fmt"

	einoembed "github.com/cloudwego/eino/components/embedding"
	einoindexer "github.com/cloudwego/eino/components/indexer"
	einoretriever "github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	"finance-assistant/internal/storage/vector"
)

// MemoryIndexer 基于 vector.Store 实现的 Eino indexer.Indexer
type MemoryIndexer struct {
	store      vector.Store
	collection string
	batchSize  int
	embedder   einoembed.Embedder
}

// MemoryIndexerConfig MemoryIndexer 构造参数
type MemoryIndexerConfig struct {
	Store      vector.Store
	Collection string
	BatchSize  int
	// Embedding 默认的向量化组件，可被 indexer.WithEmbedding 覆盖
	Embedding einoembed.Embedder
}

// NewMemoryIndexer 创建基于 vector.Store 的 Eino Indexer
func NewMemoryIndexer(cfg *MemoryIndexerConfig) (*MemoryIndexer, error) {
	if cfg == nil || cfg.Store == nil {
		return nil, fmt.Errorf("MemoryIndexer 需要 vector.Store")
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	collection := cfg.Collection
	if collection == "" {
		collection = defaultCollection
	}
	return &MemoryIndexer{
		store:      cfg.Store,
		collection: collection,
		batchSize:  batchSize,
		embedder:   cfg.Embedding,
	}, nil
}

// Store 实现 indexer.Indexer；没有向量的文档先批量向量化
func (m *MemoryIndexer) Store(ctx context.Context, docs []*schema.Document, opts ...einoindexer.Option) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	options := einoindexer.GetCommonOptions(&einoindexer.Options{Embedding: m.embedder}, opts...)
	collection := m.collection
	if len(options.SubIndexes) > 0 && options.SubIndexes[0] != "" {
		collection = options.SubIndexes[0]
	}
	if err := m.store.EnsureCollection(ctx, collection, 0); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for start := 0; start < len(docs); start += m.batchSize {
		end := start + m.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := make([]*schema.Document, 0, end-start)
		for _, d := range docs[start:end] {
			if d != nil {
				batch = append(batch, d)
			}
		}
		if err := embedMissing(ctx, options.Embedding, batch); err != nil {
			return nil, err
		}
		records := make([]vector.Record, 0, len(batch))
		for _, d := range batch {
			records = append(records, vector.Record{
				ID:       d.ID,
				Content:  d.Content,
				Values:   d.DenseVector(),
				Metadata: stringMeta(d.MetaData),
			})
			ids = append(ids, d.ID)
		}
		if err := m.store.Upsert(ctx, collection, records); err != nil {
			return nil, fmt.Errorf("vector store upsert: %w", err)
		}
	}
	return ids, nil
}

func embedMissing(ctx context.Context, embedder einoembed.Embedder, docs []*schema.Document) error {
	var pending []*schema.Document
	var texts []string
	for _, d := range docs {
		if len(d.DenseVector()) == 0 {
			pending = append(pending, d)
			texts = append(texts, d.Content)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	if embedder == nil {
		return fmt.Errorf("doc %s has no vector and no Embedding configured", pending[0].ID)
	}
	vecs, err := embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return fmt.Errorf("indexer embedding: %w", err)
	}
	if len(vecs) != len(pending) {
		return fmt.Errorf("indexer embedding: got %d vectors for %d docs", len(vecs), len(pending))
	}
	for i, d := range pending {
		d.WithDenseVector(vecs[i])
	}
	return nil
}

func stringMeta(meta map[string]any) map[string]string {
	if len(meta) == 0 {
		return nil
	}
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// MemoryRetriever 基于 vector.Store 实现的 Eino retriever.Retriever
type MemoryRetriever struct {
	store      vector.Store
	collection string
	topK       int
	threshold  float64
	embedder   einoembed.Embedder
}

// MemoryRetrieverConfig MemoryRetriever 构造参数
type MemoryRetrieverConfig struct {
	Store      vector.Store
	Collection string
	TopK       int
	Threshold  float64
	Embedding  einoembed.Embedder
}

// NewMemoryRetriever 创建基于 vector.Store 的 Eino Retriever
func NewMemoryRetriever(cfg *MemoryRetrieverConfig) (*MemoryRetriever, error) {
	if cfg == nil || cfg.Store == nil {
		return nil, fmt.Errorf("MemoryRetriever 需要 vector.Store")
	}
	collection := cfg.Collection
	if collection == "" {
		collection = defaultCollection
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	return &MemoryRetriever{
		store:      cfg.Store,
		collection: collection,
		topK:       topK,
		threshold:  cfg.Threshold,
		embedder:   cfg.Embedding,
	}, nil
}

// Retrieve 实现 retriever.Retriever
func (m *MemoryRetriever) Retrieve(ctx context.Context, query string, opts ...einoretriever.Option) ([]*schema.Document, error) {
	options := einoretriever.GetCommonOptions(&einoretriever.Options{Embedding: m.embedder}, opts...)
	collection := m.collection
	if options.Index != nil && *options.Index != "" {
		collection = *options.Index
	}
	topK := m.topK
	if options.TopK != nil && *options.TopK > 0 {
		topK = *options.TopK
	}
	threshold := m.threshold
	if options.ScoreThreshold != nil {
		threshold = *options.ScoreThreshold
	}
	if options.Embedding == nil {
		return nil, fmt.Errorf("retriever 需要 Embedding 对 query 做向量化")
	}
	vecs, err := options.Embedding.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("retriever embedding: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embedding returned empty")
	}

	matches, err := m.store.Search(ctx, collection, vecs[0], topK, threshold)
	if err != nil {
		return nil, fmt.Errorf("vector store search: %w", err)
	}
	docs := make([]*schema.Document, 0, len(matches))
	for _, match := range matches {
		meta := make(map[string]any, len(match.Metadata))
		for k, v := range match.Metadata {
			meta[k] = v
		}
		d := &schema.Document{ID: match.ID, Content: match.Content, MetaData: meta}
		d.WithScore(match.Score)
		docs = append(docs, d)
	}
	return docs, nil
}

var (
	_ einoindexer.Indexer     = (*MemoryIndexer)(nil)
	_ einoretriever.Retriever = (*MemoryRetriever)(nil)
)
