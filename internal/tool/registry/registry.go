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

package registry

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"trip-planner/internal/tool"
)

// Registry 工具注册表：注册、发现、供 LLM 使用的 Schema 列表。
// Freeze 之后注册表只读，规划期间的并发读取不再加写锁竞争。
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]tool.Tool
	frozen bool
}

// New 创建新的 ToolRegistry
func New() *Registry {
	return &Registry{
		tools: make(map[string]tool.Tool),
	}
}

// Register 注册工具；同名重复注册报错
func (r *Registry) Register(t tool.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("注册工具 %s: %w", t.Name(), tool.ErrRegistryFrozen)
	}
	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("注册工具 %s: %w", t.Name(), tool.ErrDuplicateTool)
	}
	r.tools[t.Name()] = t
	return nil
}

// Freeze 冻结注册表，之后 Register 一律失败
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Get 按名称获取工具
func (r *Registry) Get(name string) (tool.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List 返回所有已注册工具（按名称排序）
func (r *Registry) List() []tool.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	list := make([]tool.Tool, 0, len(names))
	for _, name := range names {
		list = append(list, r.tools[name])
	}
	return list
}

// ToolSchemaForLLM 单个工具供 LLM 使用的描述（name, description, parameters）
type ToolSchemaForLLM struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  tool.Schema `json:"parameters"`
}

// SchemasForLLM 返回所有工具的 Schema 列表（JSON 序列化供 Planner/LLM 使用）
func (r *Registry) SchemasForLLM() ([]byte, error) {
	return r.SchemasFor(nil)
}

// SchemasFor 返回指定工具集的 Schema 列表；names 为 nil 时返回全部
func (r *Registry) SchemasFor(names []string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	selected := r.tools
	if names != nil {
		selected = make(map[string]tool.Tool, len(names))
		for _, name := range names {
			if t, ok := r.tools[name]; ok {
				selected[name] = t
			}
		}
	}

	sorted := make([]string, 0, len(selected))
	for name := range selected {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	list := make([]ToolSchemaForLLM, 0, len(sorted))
	for _, name := range sorted {
		t := selected[name]
		list = append(list, ToolSchemaForLLM{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema(),
		})
	}
	return json.Marshal(list)
}
