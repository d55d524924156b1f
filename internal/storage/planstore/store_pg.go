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

package planstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"trip-planner/internal/orchestrator"
	pkgerrors "trip-planner/pkg/errors"
)

// StorePg Postgres 实现的行程存储。
// 表结构：itinerary_plans(id text primary key, destination text, created_at timestamptz, plan jsonb)
type StorePg struct {
	pool *pgxpool.Pool
}

// NewStorePg 创建基于 PostgreSQL 的行程存储
func NewStorePg(ctx context.Context, dsn string) (*StorePg, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &StorePg{pool: pool}, nil
}

// Close 关闭连接池
func (s *StorePg) Close() {
	s.pool.Close()
}

// Save 保存行程
func (s *StorePg) Save(ctx context.Context, plan *orchestrator.ItineraryPlan) error {
	if plan == nil || plan.ID == "" {
		return pkgerrors.ErrInvalidArg
	}
	data, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now()
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO itinerary_plans (id, destination, created_at, plan)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET plan = EXCLUDED.plan`,
		plan.ID, plan.Destination, plan.CreatedAt, data)
	return err
}

// Get 按 ID 读取行程
func (s *StorePg) Get(ctx context.Context, id string) (*orchestrator.ItineraryPlan, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT plan FROM itinerary_plans WHERE id = $1`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pkgerrors.Wrapf(pkgerrors.ErrNotFound, "plan %s", id)
		}
		return nil, err
	}
	var plan orchestrator.ItineraryPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// List 按创建时间倒序列出行程
func (s *StorePg) List(ctx context.Context, limit int) ([]*orchestrator.ItineraryPlan, error) {
	q := `SELECT plan FROM itinerary_plans ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*orchestrator.ItineraryPlan
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var plan orchestrator.ItineraryPlan
		if err := json.Unmarshal(data, &plan); err != nil {
			return nil, err
		}
		out = append(out, &plan)
	}
	return out, rows.Err()
}
