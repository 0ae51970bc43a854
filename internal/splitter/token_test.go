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

package splitter

import (
	"strings"
	"testing"
)

func TestTokenSplitter_Split_ShortContent(t *testing.T) {
	s := NewTokenSplitter(Options{})
	chunks := s.Split("hello world")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for short text, got %d", len(chunks))
	}
	if chunks[0].Content != "hello world" {
		t.Errorf("chunk content: %q", chunks[0].Content)
	}
	if chunks[0].TokenCount != 2 {
		t.Errorf("token count: %d", chunks[0].TokenCount)
	}
}

func TestTokenSplitter_Split_WithOverlap(t *testing.T) {
	s := NewTokenSplitter(Options{MaxTokens: 3, Overlap: 1})
	chunks := s.Split("a b c d e f g")
	want := []string{"a b c", "c d e", "e f g"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %+v", len(want), len(chunks), chunks)
	}
	for i, c := range chunks {
		if c.Content != want[i] {
			t.Errorf("chunk %d: got %q want %q", i, c.Content, want[i])
		}
		if c.Index != i {
			t.Errorf("chunk %d index: %d", i, c.Index)
		}
	}
}

func TestTokenSplitter_Split_EmptyContent(t *testing.T) {
	if chunks := NewTokenSplitter(Options{}).Split("   "); len(chunks) != 0 {
		t.Errorf("empty content should yield 0 chunks, got %d", len(chunks))
	}
}

func TestOptions_OverlapClamped(t *testing.T) {
	o := Options{MaxTokens: 4, Overlap: 10}.normalize()
	if o.Overlap >= o.MaxTokens {
		t.Fatalf("overlap should be below max tokens: %+v", o)
	}
}

func TestStructuralSplitter_MergesParagraphs(t *testing.T) {
	s := NewStructuralSplitter(Options{MaxTokens: 5})
	content := "one two\nthree\n\nfour five\n\nsix seven eight nine ten eleven twelve"
	chunks := s.Split(content)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].Content != "one two three\n\nfour five" {
		t.Errorf("chunk 0: %q", chunks[0].Content)
	}
	if chunks[1].Content != "six seven eight nine ten" || chunks[2].Content != "eleven twelve" {
		t.Errorf("long paragraph chunks: %q, %q", chunks[1].Content, chunks[2].Content)
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d index %d", i, c.Index)
		}
	}
}

func TestEngine_GetSplitter(t *testing.T) {
	e := NewEngine(Options{MaxTokens: 10})
	for _, name := range []string{"token", "structural"} {
		s, err := e.GetSplitter(name)
		if err != nil {
			t.Fatalf("GetSplitter(%q): %v", name, err)
		}
		if !strings.HasSuffix(s.Name(), "_splitter") {
			t.Errorf("unexpected name %q", s.Name())
		}
	}
	if _, err := e.GetSplitter("semantic"); err == nil {
		t.Fatal("expected error for unknown splitter")
	}
}
