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

package app

import (
	"context"
	"fmt"

	"trip-planner/internal/storage/cache"
	"trip-planner/internal/storage/planstore"
	"trip-planner/pkg/config"
	"trip-planner/pkg/log"
	"trip-planner/pkg/secrets"
)

// Bootstrap 统一初始化：日志、Secret、缓存、行程存储，供 api 复用
type Bootstrap struct {
	Config  *config.Config
	Logger  *log.Logger
	Secrets secrets.Store
	Cache   cache.Store
	Plans   planstore.Store
}

// NewBootstrap 根据配置创建 Bootstrap
func NewBootstrap(cfg *config.Config) (*Bootstrap, error) {
	logCfg := &log.Config{}
	if cfg != nil {
		logCfg.Level = cfg.Log.Level
		logCfg.Format = cfg.Log.Format
		logCfg.File = cfg.Log.File
	}
	logger, err := log.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("初始化日志failed: %w", err)
	}

	secretStore, err := secrets.NewStore(secrets.Config{
		Provider: cfg.Secrets.Provider,
		Config:   cfg.Secrets.Config,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 Secret Store failed: %w", err)
	}

	var cacheStore cache.Store
	if cfg.Storage.Cache.Type == "redis" && cfg.Storage.Cache.Addr != "" {
		cacheStore, err = cache.NewRedisStore(context.Background(), cache.RedisConfig{
			Addr:     cfg.Storage.Cache.Addr,
			DB:       cfg.Storage.Cache.DB,
			Password: cfg.Storage.Cache.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("初始化 Redis 缓存failed: %w", err)
		}
		logger.Info("缓存使用 Redis 后端", "addr", cfg.Storage.Cache.Addr)
	} else {
		cacheStore = cache.NewMemoryStore()
	}

	var plans planstore.Store
	if cfg.Storage.Plans.Type == "postgres" && cfg.Storage.Plans.DSN != "" {
		plans, err = planstore.NewStorePg(context.Background(), cfg.Storage.Plans.DSN)
		if err != nil {
			return nil, fmt.Errorf("初始化行程存储(postgres)failed: %w", err)
		}
		logger.Info("行程存储使用 PostgreSQL 后端")
	} else {
		plans = planstore.NewMemoryStore()
	}

	return &Bootstrap{
		Config:  cfg,
		Logger:  logger,
		Secrets: secretStore,
		Cache:   cacheStore,
		Plans:   plans,
	}, nil
}

// ResolveSecret 先取配置值，空则回落 Secret Store
func (b *Bootstrap) ResolveSecret(ctx context.Context, configValue, secretKey string) string {
	if configValue != "" {
		return configValue
	}
	if b.Secrets == nil {
		return ""
	}
	v, err := b.Secrets.Get(ctx, secretKey)
	if err != nil {
		return ""
	}
	return v
}

// Close 释放 Bootstrap 持有的资源
func (b *Bootstrap) Close() {
	if b.Plans != nil {
		b.Plans.Close()
	}
	if b.Cache != nil {
		_ = b.Cache.Close()
	}
}
