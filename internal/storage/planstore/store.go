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
	"sort"
	"sync"

	"trip-planner/internal/orchestrator"
	"trip-planner/pkg/errors"
)

// Store 持久化生成的行程
type Store interface {
	Save(ctx context.Context, plan *orchestrator.ItineraryPlan) error
	Get(ctx context.Context, id string) (*orchestrator.ItineraryPlan, error)
	List(ctx context.Context, limit int) ([]*orchestrator.ItineraryPlan, error)
	Close()
}

// MemoryStore 内存实现，用于测试与最小装配
type MemoryStore struct {
	mu    sync.RWMutex
	plans map[string]*orchestrator.ItineraryPlan
}

// NewMemoryStore 创建内存行程存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{plans: make(map[string]*orchestrator.ItineraryPlan)}
}

// Save 保存行程
func (s *MemoryStore) Save(ctx context.Context, plan *orchestrator.ItineraryPlan) error {
	if plan == nil || plan.ID == "" {
		return errors.ErrInvalidArg
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.ID] = plan
	return nil
}

// Get 按 ID 读取行程
func (s *MemoryStore) Get(ctx context.Context, id string) (*orchestrator.ItineraryPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plan, ok := s.plans[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "plan %s", id)
	}
	return plan, nil
}

// List 按创建时间倒序列出行程
func (s *MemoryStore) List(ctx context.Context, limit int) ([]*orchestrator.ItineraryPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*orchestrator.ItineraryPlan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close 实现 Store
func (s *MemoryStore) Close() {}
