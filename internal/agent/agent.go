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

package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"trip-planner/internal/tool"
	"trip-planner/pkg/log"
	"trip-planner/pkg/metrics"
	"trip-planner/pkg/tracing"
)

// 终止原因
const (
	CauseSuccess          = "success"
	CauseStepLimit        = "step_limit"
	CauseReasoningFailure = "reasoning_failure"
	CauseCancelled        = "cancelled"
)

var (
	// ErrStepLimit 步数预算耗尽仍未产出最终回答
	ErrStepLimit = errors.New("step limit exceeded")
	// ErrReasoningFailure 连续纠偏重试后 LLM 输出仍不可用
	ErrReasoningFailure = errors.New("reasoning failure")
)

// Invoker 工具调用协议层
type Invoker interface {
	Invoke(ctx context.Context, call tool.ToolCall, allowed []string) tool.ToolResult
}

// Role Agent 角色配置
type Role struct {
	Name         string
	SystemPrompt string
	AllowedTools []string
	OutputSchema tool.Schema // 最终回答的结构校验；Properties 为空时不校验
}

// Result Agent 运行结果
type Result struct {
	Output map[string]any // OutputSchema 非空时的结构化回答
	Raw    string         // 最终回答原文
	Steps  int
	Cause  string
}

// Agent 角色化的规划循环：每次 LLM 交互计一步，步数与纠偏重试均有预算。
// 工具失败以结果形式回到对话中，由 LLM 决定换工具还是改参数重试。
type Agent struct {
	role       Role
	adapter    *Adapter
	invoker    Invoker
	schemas    []byte // 允许工具的 Schema JSON，注入 system prompt
	logger     *log.Logger
	maxSteps   int
	maxRetries int
	maxContext int
}

// Option Agent 配置项
type Option func(*Agent)

// WithMaxSteps 设置最大步数
func WithMaxSteps(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxSteps = n
		}
	}
}

// WithMaxRetries 设置纠偏重试次数
func WithMaxRetries(n int) Option {
	return func(a *Agent) {
		if n >= 0 {
			a.maxRetries = n
		}
	}
}

// WithMaxContext 设置会话消息容量
func WithMaxContext(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxContext = n
		}
	}
}

// New 创建 Agent
func New(role Role, adapter *Adapter, invoker Invoker, schemas []byte, logger *log.Logger, opts ...Option) *Agent {
	a := &Agent{
		role:       role,
		adapter:    adapter,
		invoker:    invoker,
		schemas:    schemas,
		logger:     logger,
		maxSteps:   12,
		maxRetries: 2,
		maxContext: 50,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run 执行任务直到产出最终回答或预算耗尽
func (a *Agent) Run(ctx context.Context, task string) (*Result, error) {
	ctx, span := tracing.StartAgentSpan(ctx, a.role.Name)
	defer span.End()

	conv := NewConversation(a.systemPrompt(), task, a.maxContext)

	steps := 0
	retries := 0
	defer func() {
		metrics.AgentSteps.WithLabelValues(a.role.Name).Observe(float64(steps))
	}()

	for {
		if err := ctx.Err(); err != nil {
			return a.finish(&Result{Steps: steps, Cause: CauseCancelled}, err)
		}

		// 每次 LLM 交互无条件计一步，纠偏重试也不例外
		steps++
		if steps > a.maxSteps {
			return a.finish(&Result{Steps: steps - 1, Cause: CauseStepLimit},
				fmt.Errorf("角色 %s 用完 %d 步仍未完成: %w", a.role.Name, a.maxSteps, ErrStepLimit))
		}

		decision, err := a.adapter.Decide(ctx, conv.Messages())
		if err != nil {
			if ctx.Err() != nil {
				return a.finish(&Result{Steps: steps, Cause: CauseCancelled}, ctx.Err())
			}
			retries++
			if retries > a.maxRetries {
				return a.finish(&Result{Steps: steps, Cause: CauseReasoningFailure},
					fmt.Errorf("角色 %s: %v: %w", a.role.Name, err, ErrReasoningFailure))
			}
			continue
		}

		switch decision.Kind {
		case DecisionMalformed:
			retries++
			if retries > a.maxRetries {
				return a.finish(&Result{Steps: steps, Cause: CauseReasoningFailure},
					fmt.Errorf("角色 %s 输出连续 %d 次无法解析: %w", a.role.Name, retries, ErrReasoningFailure))
			}
			if a.logger != nil {
				a.logger.Warn("LLM 输出无法解析，纠偏重试", "role", a.role.Name, "reason", decision.Reason)
			}
			conv.AppendAssistant(decision.Raw)
			conv.AppendUser("上一条输出无法解析（" + decision.Reason + "）。请仅输出一个合法 JSON 对象：要么 {\"tool\":...,\"input\":...}，要么 {\"final_answer\":...}。")

		case DecisionToolCall:
			retries = 0
			callJSON, _ := json.Marshal(decision.Call.Input)
			conv.AppendToolCall(decision.Call.Name, string(callJSON))

			result := a.invoker.Invoke(ctx, decision.Call, a.role.AllowedTools)
			content := result.Content
			if result.Failed() {
				content = fmt.Sprintf(`{"error_kind":%q,"error":%q}`, result.ErrKind, result.Err)
			}
			if err := conv.AppendToolResult(decision.Call.Name, content); err != nil {
				return a.finish(&Result{Steps: steps, Cause: CauseReasoningFailure}, err)
			}

		case DecisionFinal:
			output, verr := a.validateFinal(decision.Final)
			if verr != nil {
				retries++
				if retries > a.maxRetries {
					return a.finish(&Result{Steps: steps, Cause: CauseReasoningFailure},
						fmt.Errorf("角色 %s 最终回答不符合输出要求: %v: %w", a.role.Name, verr, ErrReasoningFailure))
				}
				conv.AppendAssistant(decision.Raw)
				conv.AppendUser("最终回答不符合输出要求（" + verr.Error() + "）。请按要求的 JSON 结构重新输出 final_answer。")
				continue
			}
			return a.finish(&Result{Output: output, Raw: decision.Final, Steps: steps, Cause: CauseSuccess}, nil)
		}
	}
}

// finish 上报终止原因
func (a *Agent) finish(res *Result, err error) (*Result, error) {
	metrics.AgentTerminal.WithLabelValues(a.role.Name, res.Cause).Inc()
	if a.logger != nil && err != nil {
		a.logger.Warn("Agent 终止", "role", a.role.Name, "cause", res.Cause, "steps", res.Steps, "err", err)
	}
	return res, err
}

// validateFinal 按 OutputSchema 校验最终回答
func (a *Agent) validateFinal(final string) (map[string]any, error) {
	if len(a.role.OutputSchema.Properties) == 0 {
		return nil, nil
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(final), &output); err != nil {
		return nil, fmt.Errorf("final_answer 不是 JSON 对象: %w", err)
	}
	if err := a.role.OutputSchema.Validate(output); err != nil {
		return nil, err
	}
	return output, nil
}

// systemPrompt 拼装角色提示与工具调用协议说明
func (a *Agent) systemPrompt() string {
	toolsDesc := string(a.schemas)
	if toolsDesc == "" {
		toolsDesc = "[]"
	}
	return a.role.SystemPrompt + `

可用工具（JSON）：` + toolsDesc + `

每轮仅输出一个合法 JSON 对象，不要其他文字：
- 若需调用工具：{"tool":"工具名","input":{...}}
- 若可给出最终回答：{"final_answer":...}
只输出一种，不要同时写 tool 和 final_answer。`
}
