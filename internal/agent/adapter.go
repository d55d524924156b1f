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
	"fmt"
	"strings"

	"trip-planner/internal/model/llm"
	"trip-planner/internal/tool"
)

// DecisionKind 单步决策类别
type DecisionKind int

const (
	DecisionMalformed DecisionKind = iota
	DecisionToolCall
	DecisionFinal
)

// Decision LLM 单步决策：要么调用工具，要么给出最终回答。
// 无法解析的输出标记为 Malformed，原文保留在 Raw 供纠偏重试使用。
type Decision struct {
	Kind   DecisionKind
	Call   tool.ToolCall
	Final  string
	Raw    string
	Reason string // Malformed 时的原因
}

// Adapter 把对话上下文交给 LLM 并解析其输出为结构化决策
type Adapter struct {
	client llm.Client
	opts   llm.GenerateOptions
}

// NewAdapter 创建决策适配器
func NewAdapter(client llm.Client, opts llm.GenerateOptions) *Adapter {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 2048
	}
	return &Adapter{client: client, opts: opts}
}

// Decide 调用 LLM 产出下一步决策。返回 error 仅表示传输层失败；
// 输出不可解析时返回 Malformed 决策，由调用方决定是否纠偏重试。
func (a *Adapter) Decide(ctx context.Context, messages []llm.Message) (Decision, error) {
	reply, err := a.client.ChatWithContext(ctx, messages, a.opts)
	if err != nil {
		return Decision{}, fmt.Errorf("LLM 调用失败: %w", err)
	}
	return ParseDecision(reply), nil
}

// ParseDecision 解析 LLM 回复为决策。
// 期望格式：{"tool":"工具名","input":{...}} 或 {"final_answer":"..."}。
func ParseDecision(reply string) Decision {
	raw := reply
	reply = strings.TrimSpace(reply)
	// 尝试从回复中提取 JSON（可能被 markdown 包裹）
	if idx := strings.Index(reply, "{"); idx >= 0 {
		if end := strings.LastIndex(reply, "}"); end > idx {
			reply = reply[idx : end+1]
		}
	}

	var parsed struct {
		Tool  string          `json:"tool"`
		Input map[string]any  `json:"input"`
		Final json.RawMessage `json:"final_answer"`
	}
	if err := json.Unmarshal([]byte(reply), &parsed); err != nil {
		return Decision{Kind: DecisionMalformed, Raw: raw, Reason: "输出不是合法 JSON: " + err.Error()}
	}

	hasTool := parsed.Tool != ""
	hasFinal := len(parsed.Final) > 0 && string(parsed.Final) != "null"

	switch {
	case hasTool && hasFinal:
		return Decision{Kind: DecisionMalformed, Raw: raw, Reason: "tool 与 final_answer 同时出现"}
	case hasTool:
		input := parsed.Input
		if input == nil {
			input = map[string]any{}
		}
		return Decision{Kind: DecisionToolCall, Call: tool.ToolCall{Name: parsed.Tool, Input: input}, Raw: raw}
	case hasFinal:
		// final_answer 可能是字符串，也可能直接是结构化对象
		var s string
		if err := json.Unmarshal(parsed.Final, &s); err == nil {
			return Decision{Kind: DecisionFinal, Final: s, Raw: raw}
		}
		return Decision{Kind: DecisionFinal, Final: string(parsed.Final), Raw: raw}
	default:
		return Decision{Kind: DecisionMalformed, Raw: raw, Reason: "缺少 tool 或 final_answer"}
	}
}
