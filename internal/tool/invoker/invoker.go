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

package invoker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"trip-planner/internal/tool"
	"trip-planner/internal/tool/registry"
	"trip-planner/pkg/log"
	"trip-planner/pkg/metrics"
	"trip-planner/pkg/tracing"
)

const defaultTimeout = 10 * time.Second

// Invoker 工具调用协议层：查找、入参校验、限时执行。
// 所有失败以 ToolResult 带回（ErrKind 标注类别），不向上抛错中断规划循环。
type Invoker struct {
	reg            *registry.Registry
	defaultTimeout time.Duration
	perTool        map[string]time.Duration
	logger         *log.Logger
}

// Option Invoker 配置项
type Option func(*Invoker)

// WithDefaultTimeout 设置默认执行超时
func WithDefaultTimeout(d time.Duration) Option {
	return func(i *Invoker) {
		if d > 0 {
			i.defaultTimeout = d
		}
	}
}

// WithToolTimeout 设置单个工具的执行超时
func WithToolTimeout(name string, d time.Duration) Option {
	return func(i *Invoker) {
		if d > 0 {
			i.perTool[name] = d
		}
	}
}

// New 创建 Invoker
func New(reg *registry.Registry, logger *log.Logger, opts ...Option) *Invoker {
	inv := &Invoker{
		reg:            reg,
		defaultTimeout: defaultTimeout,
		perTool:        make(map[string]time.Duration),
		logger:         logger,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Invoke 执行一次工具调用。allowed 非 nil 时限定可调用的工具集。
// 校验不通过的调用不会触达工具实现。
func (i *Invoker) Invoke(ctx context.Context, call tool.ToolCall, allowed []string) tool.ToolResult {
	ctx, span := tracing.StartToolSpan(ctx, call.Name)
	defer span.End()

	if allowed != nil && !contains(allowed, call.Name) {
		metrics.ToolFailTotal.WithLabelValues(call.Name, tool.KindForbidden).Inc()
		return tool.Failure(tool.KindForbidden, fmt.Sprintf("工具 %s 不在允许列表中", call.Name))
	}

	t, ok := i.reg.Get(call.Name)
	if !ok {
		metrics.ToolFailTotal.WithLabelValues(call.Name, tool.KindUnknownTool).Inc()
		return tool.Failure(tool.KindUnknownTool, fmt.Sprintf("未注册的工具: %s", call.Name))
	}

	if err := t.Schema().Validate(call.Input); err != nil {
		metrics.ToolFailTotal.WithLabelValues(call.Name, tool.KindValidation).Inc()
		return tool.Failure(tool.KindValidation, err.Error())
	}

	timeout := i.defaultTimeout
	if d, ok := i.perTool[call.Name]; ok {
		timeout = d
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	result := i.execute(execCtx, t, call.Input)
	metrics.ToolDuration.WithLabelValues(call.Name).Observe(time.Since(start).Seconds())

	// 成功结果按声明的输出结构校验：上游返回畸形数据按执行失败处理
	if !result.Failed() {
		if err := validateOutput(t.OutputSchema(), result.Content); err != nil {
			result = tool.Failure(tool.KindExecution, fmt.Sprintf("工具 %s 输出不符合声明结构: %v", call.Name, err))
		}
	}

	if result.Failed() {
		if result.ErrKind == "" {
			result.ErrKind = tool.KindExecution
		}
		metrics.ToolFailTotal.WithLabelValues(call.Name, result.ErrKind).Inc()
		if i.logger != nil {
			i.logger.Warn("工具调用失败", "tool", call.Name, "kind", result.ErrKind, "err", result.Err)
		}
	}
	return result
}

type execOutcome struct {
	result tool.ToolResult
	err    error
}

// execute 在独立 goroutine 中运行工具，超时后不再等待其返回
func (i *Invoker) execute(ctx context.Context, t tool.Tool, input map[string]any) tool.ToolResult {
	done := make(chan execOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- execOutcome{err: fmt.Errorf("工具 panic: %v", r)}
			}
		}()
		res, err := t.Execute(ctx, input)
		done <- execOutcome{result: res, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return tool.Failure(tool.KindExecution, out.err.Error())
		}
		return out.result
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return tool.Failure(tool.KindTimeout, fmt.Sprintf("工具 %s 执行超时", t.Name()))
		}
		return tool.Failure(tool.KindExecution, ctx.Err().Error())
	}
}

// validateOutput 按输出 Schema 校验成功结果；Schema 为空时跳过
func validateOutput(schema tool.Schema, content string) error {
	if schema.Empty() {
		return nil
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return fmt.Errorf("结果不是 JSON 对象: %w", err)
	}
	return schema.Validate(payload)
}

func contains(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}
