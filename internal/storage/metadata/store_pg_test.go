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

package metadata

import (
	"context"
	"os"
	"testing"
	"time"
)

func testReportsDSN(t *testing.T) string {
	dsn := os.Getenv("TEST_REPORTS_DSN")
	if dsn == "" {
		t.Skip("TEST_REPORTS_DSN not set, skipping Postgres report catalog tests")
	}
	return dsn
}

func TestStorePg_CreateListGet(t *testing.T) {
	ctx := context.Background()
	store, err := NewStorePg(ctx, testReportsDSN(t), 2)
	if err != nil {
		t.Fatalf("NewStorePg: %v", err)
	}
	defer store.Close()
	_, _ = store.pool.Exec(ctx, `DELETE FROM reports`)

	now := time.Now().UTC().Truncate(time.Millisecond)
	if err := store.Create(ctx, &ReportRecord{ID: "a", Company: "Apple Inc.", CreatedAt: now}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Create(ctx, &ReportRecord{ID: "b", Company: "Tesla", CreatedAt: now.Add(time.Second)}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Create(ctx, &ReportRecord{ID: "a"}); err == nil {
		t.Error("duplicate Create should error")
	}
	list, err := store.List(ctx, nil, nil)
	if err != nil || len(list) != 2 || list[0].ID != "b" {
		t.Fatalf("List: %v %v", ids(list), err)
	}
	got, err := store.Get(ctx, "a")
	if err != nil || got.Company != "Apple Inc." {
		t.Errorf("Get: %+v %v", got, err)
	}
	n, err := store.Count(ctx, &Filter{Company: "tesla"})
	if err != nil || n != 1 {
		t.Errorf("Count: %d %v", n, err)
	}
}
