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

package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"trip-planner/internal/storage/cache"
	"trip-planner/pkg/metrics"
)

// CachedClient 带响应缓存的 LLM 客户端装饰器。
// 相同 provider/model/参数/消息序列的请求直接命中缓存，不再调用上游。
type CachedClient struct {
	inner Client
	store cache.Store
	ttl   time.Duration
}

// NewCachedClient 创建带缓存的 LLM 客户端；ttl<=0 时默认 2 小时
func NewCachedClient(inner Client, store cache.Store, ttl time.Duration) *CachedClient {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &CachedClient{inner: inner, store: store, ttl: ttl}
}

// Chat 聊天
func (c *CachedClient) Chat(messages []Message, options GenerateOptions) (string, error) {
	return c.ChatWithContext(context.Background(), messages, options)
}

// ChatWithContext 使用上下文聊天，优先读缓存
func (c *CachedClient) ChatWithContext(ctx context.Context, messages []Message, options GenerateOptions) (string, error) {
	key := c.cacheKey(messages, options)

	var cached string
	if err := c.store.Get(ctx, key, &cached); err == nil {
		metrics.CacheHitTotal.WithLabelValues("llm", "hit").Inc()
		return cached, nil
	}
	metrics.CacheHitTotal.WithLabelValues("llm", "miss").Inc()

	reply, err := c.inner.ChatWithContext(ctx, messages, options)
	if err != nil {
		return "", err
	}

	// 写缓存失败不影响本次结果
	_ = c.store.Set(ctx, key, reply, c.ttl)
	return reply, nil
}

// Model 返回模型名称
func (c *CachedClient) Model() string {
	return c.inner.Model()
}

// Provider 返回提供商名称
func (c *CachedClient) Provider() string {
	return c.inner.Provider()
}

// cacheKey 由 provider/model/生成参数/消息序列哈希而来
func (c *CachedClient) cacheKey(messages []Message, options GenerateOptions) string {
	payload := struct {
		Provider string          `json:"provider"`
		Model    string          `json:"model"`
		Options  GenerateOptions `json:"options"`
		Messages []Message       `json:"messages"`
	}{
		Provider: c.inner.Provider(),
		Model:    c.inner.Model(),
		Options:  options,
		Messages: messages,
	}
	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return "llm:chat:" + hex.EncodeToString(sum[:])
}
