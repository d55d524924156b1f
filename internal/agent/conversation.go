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
	"errors"
	"fmt"

	"trip-planner/internal/model/llm"
)

// ErrUnpairedResult 工具结果没有对应的未应答调用
var ErrUnpairedResult = errors.New("unpaired tool result")

// 消息类别
const (
	kindPlain      = "plain"
	kindToolCall   = "tool_call"
	kindToolResult = "tool_result"
)

// ConvMessage 对话中的单条消息
type ConvMessage struct {
	Role    string
	Content string
	Kind    string
	Tool    string // 工具调用/结果消息对应的工具名
}

// Conversation 会话上下文：只追加，工具调用与结果成对出现。
// 超出容量时从最老的调用/结果对开始淘汰，开头的 system 与用户消息永不淘汰。
type Conversation struct {
	msgs    []ConvMessage
	maxSize int
	pending bool // 最后一条是否为未应答的工具调用
}

// NewConversation 创建会话；maxSize<=0 时默认 50 条
func NewConversation(systemPrompt, userTask string, maxSize int) *Conversation {
	if maxSize <= 0 {
		maxSize = 50
	}
	return &Conversation{
		msgs: []ConvMessage{
			{Role: "system", Content: systemPrompt, Kind: kindPlain},
			{Role: "user", Content: userTask, Kind: kindPlain},
		},
		maxSize: maxSize,
	}
}

// AppendAssistant 追加普通 assistant 消息
func (c *Conversation) AppendAssistant(content string) {
	c.msgs = append(c.msgs, ConvMessage{Role: "assistant", Content: content, Kind: kindPlain})
	c.truncate()
}

// AppendUser 追加普通 user 消息（纠偏提示等）
func (c *Conversation) AppendUser(content string) {
	c.msgs = append(c.msgs, ConvMessage{Role: "user", Content: content, Kind: kindPlain})
	c.truncate()
}

// AppendToolCall 追加工具调用消息
func (c *Conversation) AppendToolCall(toolName, callJSON string) {
	c.msgs = append(c.msgs, ConvMessage{Role: "assistant", Content: callJSON, Kind: kindToolCall, Tool: toolName})
	c.pending = true
}

// AppendToolResult 追加工具结果；没有未应答的调用时报错
func (c *Conversation) AppendToolResult(toolName, resultContent string) error {
	if !c.pending {
		return fmt.Errorf("工具 %s: %w", toolName, ErrUnpairedResult)
	}
	last := c.msgs[len(c.msgs)-1]
	if last.Kind != kindToolCall || last.Tool != toolName {
		return fmt.Errorf("工具 %s: %w", toolName, ErrUnpairedResult)
	}
	c.msgs = append(c.msgs, ConvMessage{Role: "user", Content: resultContent, Kind: kindToolResult, Tool: toolName})
	c.pending = false
	c.truncate()
	return nil
}

// Len 当前消息条数
func (c *Conversation) Len() int {
	return len(c.msgs)
}

// Messages 导出为 LLM 消息序列
func (c *Conversation) Messages() []llm.Message {
	out := make([]llm.Message, 0, len(c.msgs))
	for _, m := range c.msgs {
		content := m.Content
		switch m.Kind {
		case kindToolCall:
			content = "调用工具 " + m.Tool + ": " + m.Content
		case kindToolResult:
			content = "工具 " + m.Tool + " 结果: " + m.Content
		}
		out = append(out, llm.Message{Role: m.Role, Content: content})
	}
	return out
}

// truncate 淘汰最老的调用/结果对，直到容量满足。
// 下标 0/1（system 与初始 user）受保护；不存在完整对时退化为淘汰最老的普通消息。
func (c *Conversation) truncate() {
	for len(c.msgs) > c.maxSize {
		evicted := false
		for i := 2; i < len(c.msgs)-1; i++ {
			if c.msgs[i].Kind == kindToolCall && c.msgs[i+1].Kind == kindToolResult {
				c.msgs = append(c.msgs[:i], c.msgs[i+2:]...)
				evicted = true
				break
			}
		}
		if evicted {
			continue
		}
		// 无完整对可淘汰：移除最老的普通非保护消息
		removed := false
		for i := 2; i < len(c.msgs); i++ {
			if c.msgs[i].Kind == kindPlain {
				c.msgs = append(c.msgs[:i], c.msgs[i+1:]...)
				removed = true
				break
			}
		}
		if !removed {
			return
		}
	}
}
