package agent

import (
	"context"
	"errors"
	"testing"

	"trip-planner/internal/model/llm"
	"trip-planner/internal/tool"
)

// scriptedClient 按脚本依次返回回复
type scriptedClient struct {
	replies []string
	calls   int
}

func (s *scriptedClient) Chat(messages []llm.Message, options llm.GenerateOptions) (string, error) {
	return s.ChatWithContext(context.Background(), messages, options)
}

func (s *scriptedClient) ChatWithContext(ctx context.Context, messages []llm.Message, options llm.GenerateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	reply := s.replies[s.calls%len(s.replies)]
	s.calls++
	return reply, nil
}

func (s *scriptedClient) Model() string    { return "test-model" }
func (s *scriptedClient) Provider() string { return "test" }

// fakeInvoker 记录调用并按表返回结果
type fakeInvoker struct {
	calls   []tool.ToolCall
	results map[string]tool.ToolResult
}

func (f *fakeInvoker) Invoke(ctx context.Context, call tool.ToolCall, allowed []string) tool.ToolResult {
	if allowed != nil {
		found := false
		for _, name := range allowed {
			if name == call.Name {
				found = true
				break
			}
		}
		if !found {
			return tool.Failure(tool.KindForbidden, "工具 "+call.Name+" 不在允许列表中")
		}
	}
	f.calls = append(f.calls, call)
	if r, ok := f.results[call.Name]; ok {
		return r
	}
	return tool.ToolResult{Content: "{}"}
}

func testRole() Role {
	return Role{
		Name:         "attraction",
		SystemPrompt: "你是景点调研助手。",
		AllowedTools: []string{"poi.search"},
		OutputSchema: tool.Schema{
			Type: "object",
			Properties: map[string]tool.SchemaProperty{
				"attractions": {Type: "array"},
			},
			Required: []string{"attractions"},
		},
	}
}

func newTestAgent(client llm.Client, inv Invoker, opts ...Option) *Agent {
	adapter := NewAdapter(client, llm.GenerateOptions{})
	return New(testRole(), adapter, inv, []byte(`[]`), nil, opts...)
}

func TestAgentRun_ToolThenFinal(t *testing.T) {
	client := &scriptedClient{replies: []string{
		`{"tool":"poi.search","input":{"city":"北京","keywords":"博物馆"}}`,
		`{"final_answer":{"attractions":[{"name":"故宫"}]}}`,
	}}
	inv := &fakeInvoker{results: map[string]tool.ToolResult{
		"poi.search": {Content: `{"pois":[{"name":"故宫"}]}`},
	}}

	res, err := newTestAgent(client, inv).Run(context.Background(), "调研北京景点")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Cause != CauseSuccess {
		t.Errorf("Cause = %q", res.Cause)
	}
	if res.Steps != 2 {
		t.Errorf("Steps = %d, want 2", res.Steps)
	}
	if len(inv.calls) != 1 || inv.calls[0].Name != "poi.search" {
		t.Errorf("invoker calls = %+v", inv.calls)
	}
	if _, ok := res.Output["attractions"]; !ok {
		t.Errorf("Output = %v", res.Output)
	}
}

func TestAgentRun_MalformedExhaustsRetries(t *testing.T) {
	client := &scriptedClient{replies: []string{"我觉得故宫不错"}}
	a := newTestAgent(client, &fakeInvoker{}, WithMaxRetries(2))

	res, err := a.Run(context.Background(), "调研北京景点")
	if !errors.Is(err, ErrReasoningFailure) {
		t.Fatalf("err = %v, want ErrReasoningFailure", err)
	}
	if res.Cause != CauseReasoningFailure {
		t.Errorf("Cause = %q", res.Cause)
	}
	// 首次 + 2 次纠偏，恰好用完预算
	if client.calls != 3 {
		t.Errorf("LLM calls = %d, want 3", client.calls)
	}
	if res.Steps != 3 {
		t.Errorf("Steps = %d, want 3 (retries count as steps)", res.Steps)
	}
}

func TestAgentRun_ForbiddenToolStaysInBand(t *testing.T) {
	client := &scriptedClient{replies: []string{
		`{"tool":"hotel.search","input":{"city":"北京","tier":"comfort"}}`,
		`{"final_answer":{"attractions":[]}}`,
	}}
	inv := &fakeInvoker{}

	res, err := newTestAgent(client, inv).Run(context.Background(), "调研北京景点")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Cause != CauseSuccess {
		t.Errorf("Cause = %q", res.Cause)
	}
	// 越权调用不触达工具实现
	if len(inv.calls) != 0 {
		t.Errorf("invoker calls = %+v, want none", inv.calls)
	}
}

func TestAgentRun_StepLimit(t *testing.T) {
	client := &scriptedClient{replies: []string{
		`{"tool":"poi.search","input":{"city":"北京","keywords":"景点"}}`,
	}}
	a := newTestAgent(client, &fakeInvoker{}, WithMaxSteps(4))

	res, err := a.Run(context.Background(), "调研北京景点")
	if !errors.Is(err, ErrStepLimit) {
		t.Fatalf("err = %v, want ErrStepLimit", err)
	}
	if res.Cause != CauseStepLimit {
		t.Errorf("Cause = %q", res.Cause)
	}
	if res.Steps != 4 {
		t.Errorf("Steps = %d, want 4", res.Steps)
	}
}

func TestAgentRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &scriptedClient{replies: []string{`{"final_answer":{"attractions":[]}}`}}
	res, err := newTestAgent(client, &fakeInvoker{}).Run(ctx, "调研北京景点")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if res.Cause != CauseCancelled {
		t.Errorf("Cause = %q", res.Cause)
	}
}

func TestAgentRun_FinalSchemaMismatchRetries(t *testing.T) {
	client := &scriptedClient{replies: []string{
		`{"final_answer":{"summary":"没有景点字段"}}`,
		`{"final_answer":{"attractions":[{"name":"颐和园"}]}}`,
	}}

	res, err := newTestAgent(client, &fakeInvoker{}, WithMaxRetries(2)).Run(context.Background(), "调研北京景点")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Cause != CauseSuccess {
		t.Errorf("Cause = %q", res.Cause)
	}
	if res.Steps != 2 {
		t.Errorf("Steps = %d, want 2", res.Steps)
	}
}
