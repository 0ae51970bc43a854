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
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "finance-assistant/pkg/errors"
)

const reportsDDL = `CREATE TABLE IF NOT EXISTS reports (
	id         TEXT PRIMARY KEY,
	company    TEXT NOT NULL DEFAULT '',
	file_name  TEXT NOT NULL DEFAULT '',
	summary    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// StorePg Postgres 实现的报告目录
type StorePg struct {
	pool *pgxpool.Pool
}

// NewStorePg 连接 Postgres 并确保 reports 表存在
func NewStorePg(ctx context.Context, dsn string, poolSize int) (*StorePg, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if poolSize > 0 {
		config.MaxConns = int32(poolSize)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, reportsDDL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create reports table: %w", err)
	}
	return &StorePg{pool: pool}, nil
}

// Close 关闭连接池
func (s *StorePg) Close() error {
	s.pool.Close()
	return nil
}

func (s *StorePg) Create(ctx context.Context, rec *ReportRecord) error {
	if rec == nil || rec.ID == "" {
		return apperrors.Wrap(apperrors.ErrInvalidArg, "report record id is required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO reports (id, company, file_name, summary, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.Company, rec.FileName, rec.Summary, rec.CreatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Wrapf(apperrors.ErrInvalidArg, "report %s already exists", rec.ID)
	}
	return nil
}

func (s *StorePg) Get(ctx context.Context, id string) (*ReportRecord, error) {
	var rec ReportRecord
	err := s.pool.QueryRow(ctx,
		`SELECT id, company, file_name, summary, created_at FROM reports WHERE id = $1`,
		id).Scan(&rec.ID, &rec.Company, &rec.FileName, &rec.Summary, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Wrapf(apperrors.ErrNotFound, "report %s", id)
		}
		return nil, err
	}
	return &rec, nil
}

func (s *StorePg) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Wrapf(apperrors.ErrNotFound, "report %s", id)
	}
	return nil
}

func (s *StorePg) List(ctx context.Context, filter *Filter, pagination *Pagination) ([]*ReportRecord, error) {
	company := ""
	if filter != nil {
		company = filter.Company
	}
	offset, limit := 0, 1000
	if pagination != nil {
		offset = pagination.Offset
		if pagination.Limit > 0 {
			limit = pagination.Limit
		}
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, company, file_name, summary, created_at FROM reports
		 WHERE $1 = '' OR lower(company) = lower($1)
		 ORDER BY created_at DESC, id ASC
		 OFFSET $2 LIMIT $3`,
		company, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*ReportRecord{}
	for rows.Next() {
		var rec ReportRecord
		if err := rows.Scan(&rec.ID, &rec.Company, &rec.FileName, &rec.Summary, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (s *StorePg) Count(ctx context.Context, filter *Filter) (int64, error) {
	company := ""
	if filter != nil {
		company = filter.Company
	}
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM reports WHERE $1 = '' OR lower(company) = lower($1)`,
		company).Scan(&n)
	return n, err
}
