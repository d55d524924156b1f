package tool

import (
	"context"
	"errors"
	"fmt"
)

// 注册与调用过程的哨兵错误
var (
	ErrUnknownTool    = errors.New("unknown tool")
	ErrDuplicateTool  = errors.New("duplicate tool")
	ErrRegistryFrozen = errors.New("registry frozen")
)

// 工具调用失败类别（写入 ToolResult.ErrKind）
const (
	KindValidation  = "validation"
	KindTimeout     = "timeout"
	KindExecution   = "execution"
	KindUnknownTool = "unknown_tool"
	KindForbidden   = "forbidden"
)

// Schema 表示工具的 JSON Schema（供 LLM function-calling 使用）
type Schema struct {
	Type        string                    `json:"type,omitempty"`
	Description string                    `json:"description,omitempty"`
	Properties  map[string]SchemaProperty `json:"properties,omitempty"`
	Required    []string                  `json:"required,omitempty"`
}

// SchemaProperty 表示 Schema 中单个属性的描述
type SchemaProperty struct {
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// ValidationError 输入未通过 Schema 校验
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("字段 %s 校验失败: %s", e.Field, e.Reason)
}

// Validate 按 Schema 校验输入：必填字段存在、类型匹配、枚举取值合法。
// 未在 Properties 中声明的字段视为非法。
func (s Schema) Validate(input map[string]any) error {
	for _, name := range s.Required {
		if _, ok := input[name]; !ok {
			return &ValidationError{Field: name, Reason: "缺少必填字段"}
		}
	}
	for name, value := range input {
		prop, declared := s.Properties[name]
		if !declared {
			return &ValidationError{Field: name, Reason: "未声明的字段"}
		}
		if err := prop.check(name, value); err != nil {
			return err
		}
	}
	return nil
}

func (p SchemaProperty) check(name string, value any) error {
	if value == nil {
		return &ValidationError{Field: name, Reason: "取值为空"}
	}
	switch p.Type {
	case "string":
		s, ok := value.(string)
		if !ok {
			return &ValidationError{Field: name, Reason: "期望 string 类型"}
		}
		if len(p.Enum) > 0 {
			for _, e := range p.Enum {
				if s == e {
					return nil
				}
			}
			return &ValidationError{Field: name, Reason: fmt.Sprintf("取值 %q 不在枚举 %v 中", s, p.Enum)}
		}
	case "number":
		switch value.(type) {
		case float64, float32, int, int32, int64:
		default:
			return &ValidationError{Field: name, Reason: "期望 number 类型"}
		}
	case "integer":
		switch v := value.(type) {
		case int, int32, int64:
		case float64:
			if v != float64(int64(v)) {
				return &ValidationError{Field: name, Reason: "期望 integer 类型"}
			}
		default:
			return &ValidationError{Field: name, Reason: "期望 integer 类型"}
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return &ValidationError{Field: name, Reason: "期望 boolean 类型"}
		}
	case "array":
		if _, ok := value.([]any); !ok {
			return &ValidationError{Field: name, Reason: "期望 array 类型"}
		}
	case "object":
		if _, ok := value.(map[string]any); !ok {
			return &ValidationError{Field: name, Reason: "期望 object 类型"}
		}
	}
	return nil
}

// ToolCall 一次工具调用请求
type ToolCall struct {
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// ToolResult 工具执行结果。调用失败时 ErrKind/Err 置位，调用方据此决定重试或继续。
type ToolResult struct {
	Content string `json:"content"`
	ErrKind string `json:"error_kind,omitempty"`
	Err     string `json:"error,omitempty"`
}

// Failed 判断调用是否失败
func (r ToolResult) Failed() bool {
	return r.Err != "" || r.ErrKind != ""
}

// Failure 构造失败结果
func Failure(kind, msg string) ToolResult {
	return ToolResult{ErrKind: kind, Err: msg}
}

// Empty 判断 Schema 是否为空（空 Schema 不做校验）
func (s Schema) Empty() bool {
	return len(s.Properties) == 0 && len(s.Required) == 0
}

// Tool Runtime 级工具接口。Schema 描述入参，OutputSchema 描述成功结果的结构，
// 两者均供调用层校验；OutputSchema 为空时跳过结果校验。
type Tool interface {
	Name() string
	Description() string
	Schema() Schema
	OutputSchema() Schema
	Execute(ctx context.Context, input map[string]any) (ToolResult, error)
}
