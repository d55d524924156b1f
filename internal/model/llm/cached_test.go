package llm

import (
	"context"
	"testing"
	"time"

	"trip-planner/internal/storage/cache"
)

type fakeClient struct {
	calls   int
	replies []string
}

func (f *fakeClient) Chat(messages []Message, options GenerateOptions) (string, error) {
	return f.ChatWithContext(context.Background(), messages, options)
}

func (f *fakeClient) ChatWithContext(ctx context.Context, messages []Message, options GenerateOptions) (string, error) {
	reply := f.replies[f.calls%len(f.replies)]
	f.calls++
	return reply, nil
}

func (f *fakeClient) Model() string    { return "test-model" }
func (f *fakeClient) Provider() string { return "test" }

func TestCachedClient_HitSkipsUpstream(t *testing.T) {
	inner := &fakeClient{replies: []string{"第一次", "第二次"}}
	c := NewCachedClient(inner, cache.NewMemoryStore(), time.Minute)

	msgs := []Message{{Role: "user", Content: "北京五日游"}}
	opts := GenerateOptions{Temperature: 0.7, MaxTokens: 1024}

	first, err := c.ChatWithContext(context.Background(), msgs, opts)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := c.ChatWithContext(context.Background(), msgs, opts)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first != second {
		t.Errorf("cached reply mismatch: %q vs %q", first, second)
	}
	if inner.calls != 1 {
		t.Errorf("upstream calls = %d, want 1", inner.calls)
	}
}

func TestCachedClient_KeyVariesWithOptions(t *testing.T) {
	inner := &fakeClient{replies: []string{"a", "b"}}
	c := NewCachedClient(inner, cache.NewMemoryStore(), time.Minute)

	msgs := []Message{{Role: "user", Content: "上海三日游"}}

	_, _ = c.ChatWithContext(context.Background(), msgs, GenerateOptions{Temperature: 0.2})
	_, _ = c.ChatWithContext(context.Background(), msgs, GenerateOptions{Temperature: 0.9})
	if inner.calls != 2 {
		t.Errorf("upstream calls = %d, want 2 (options differ)", inner.calls)
	}
}
