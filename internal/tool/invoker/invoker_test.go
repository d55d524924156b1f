package invoker

import (
	"context"
	"errors"
	"testing"
	"time"

	"trip-planner/internal/tool"
	"trip-planner/internal/tool/registry"
)

type recordingTool struct {
	name      string
	executed  bool
	delay     time.Duration
	result    tool.ToolResult
	err       error
	outSchema tool.Schema
}

func (r *recordingTool) Name() string              { return r.name }
func (r *recordingTool) Description() string       { return "测试工具" }
func (r *recordingTool) OutputSchema() tool.Schema { return r.outSchema }
func (r *recordingTool) Schema() tool.Schema {
	return tool.Schema{Type: "object", Properties: map[string]tool.SchemaProperty{
		"city": {Type: "string"},
	}, Required: []string{"city"}}
}
func (r *recordingTool) Execute(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
	r.executed = true
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return tool.ToolResult{}, ctx.Err()
		}
	}
	return r.result, r.err
}

func newInvoker(t *testing.T, tools ...tool.Tool) (*Invoker, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	for _, tl := range tools {
		if err := reg.Register(tl); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	reg.Freeze()
	return New(reg, nil), reg
}

func TestInvoke_Success(t *testing.T) {
	rt := &recordingTool{name: "poi.search", result: tool.ToolResult{Content: `{"pois":[]}`}}
	inv, _ := newInvoker(t, rt)

	res := inv.Invoke(context.Background(), tool.ToolCall{
		Name:  "poi.search",
		Input: map[string]any{"city": "北京"},
	}, nil)
	if res.Failed() {
		t.Fatalf("Invoke: %+v", res)
	}
	if res.Content != `{"pois":[]}` {
		t.Errorf("Content = %q", res.Content)
	}
}

func TestInvoke_UnknownTool(t *testing.T) {
	inv, _ := newInvoker(t)
	res := inv.Invoke(context.Background(), tool.ToolCall{Name: "no.such", Input: map[string]any{}}, nil)
	if res.ErrKind != tool.KindUnknownTool {
		t.Errorf("ErrKind = %q, want unknown_tool", res.ErrKind)
	}
}

func TestInvoke_ValidationNeverReachesTool(t *testing.T) {
	rt := &recordingTool{name: "poi.search"}
	inv, _ := newInvoker(t, rt)

	res := inv.Invoke(context.Background(), tool.ToolCall{
		Name:  "poi.search",
		Input: map[string]any{"city": 42},
	}, nil)
	if res.ErrKind != tool.KindValidation {
		t.Fatalf("ErrKind = %q, want validation", res.ErrKind)
	}
	if rt.executed {
		t.Error("tool executed despite failed validation")
	}
}

func TestInvoke_Forbidden(t *testing.T) {
	rt := &recordingTool{name: "hotel.search"}
	inv, _ := newInvoker(t, rt)

	res := inv.Invoke(context.Background(), tool.ToolCall{
		Name:  "hotel.search",
		Input: map[string]any{"city": "北京"},
	}, []string{"poi.search", "weather.query"})
	if res.ErrKind != tool.KindForbidden {
		t.Fatalf("ErrKind = %q, want forbidden", res.ErrKind)
	}
	if rt.executed {
		t.Error("tool executed despite allowlist rejection")
	}
}

func TestInvoke_Timeout(t *testing.T) {
	rt := &recordingTool{name: "poi.search", delay: time.Second}
	_, reg := newInvoker(t, rt)
	inv := New(reg, nil, WithToolTimeout("poi.search", 20*time.Millisecond))

	start := time.Now()
	res := inv.Invoke(context.Background(), tool.ToolCall{
		Name:  "poi.search",
		Input: map[string]any{"city": "北京"},
	}, nil)
	if res.ErrKind != tool.KindTimeout {
		t.Fatalf("ErrKind = %q, want timeout", res.ErrKind)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("invoke blocked for %v after timeout", elapsed)
	}
}

func TestInvoke_ExecutionError(t *testing.T) {
	rt := &recordingTool{name: "poi.search", err: errors.New("上游不可用")}
	inv, _ := newInvoker(t, rt)

	res := inv.Invoke(context.Background(), tool.ToolCall{
		Name:  "poi.search",
		Input: map[string]any{"city": "北京"},
	}, nil)
	if res.ErrKind != tool.KindExecution {
		t.Errorf("ErrKind = %q, want execution", res.ErrKind)
	}
}

func TestInvoke_OutputSchemaMismatch(t *testing.T) {
	rt := &recordingTool{
		name:   "poi.search",
		result: tool.ToolResult{Content: `{"pois":"not-an-array"}`},
		outSchema: tool.Schema{Type: "object", Properties: map[string]tool.SchemaProperty{
			"pois": {Type: "array"},
		}, Required: []string{"pois"}},
	}
	inv, _ := newInvoker(t, rt)

	res := inv.Invoke(context.Background(), tool.ToolCall{
		Name:  "poi.search",
		Input: map[string]any{"city": "北京"},
	}, nil)
	if res.ErrKind != tool.KindExecution {
		t.Errorf("ErrKind = %q, want execution", res.ErrKind)
	}
}

func TestInvoke_PanicRecovered(t *testing.T) {
	inv, _ := newInvoker(t, &panicTool{})
	res := inv.Invoke(context.Background(), tool.ToolCall{
		Name:  "panic.tool",
		Input: map[string]any{"city": "北京"},
	}, nil)
	if res.ErrKind != tool.KindExecution {
		t.Errorf("ErrKind = %q, want execution", res.ErrKind)
	}
}

type panicTool struct{}

func (p *panicTool) Name() string              { return "panic.tool" }
func (p *panicTool) Description() string       { return "测试工具" }
func (p *panicTool) OutputSchema() tool.Schema { return tool.Schema{} }
func (p *panicTool) Schema() tool.Schema {
	return tool.Schema{Type: "object", Properties: map[string]tool.SchemaProperty{
		"city": {Type: "string"},
	}}
}
func (p *panicTool) Execute(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
	panic("boom")
}
