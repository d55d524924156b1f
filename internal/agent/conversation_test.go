package agent

import (
	"errors"
	"fmt"
	"testing"
)

func TestConversation_PairingEnforced(t *testing.T) {
	c := NewConversation("你是行程助手", "规划北京五日游", 50)

	err := c.AppendToolResult("poi.search", `{"pois":[]}`)
	if !errors.Is(err, ErrUnpairedResult) {
		t.Fatalf("result without call = %v, want ErrUnpairedResult", err)
	}

	c.AppendToolCall("poi.search", `{"city":"北京"}`)
	if err := c.AppendToolResult("poi.search", `{"pois":[]}`); err != nil {
		t.Fatalf("paired result: %v", err)
	}

	// 同一调用不能应答两次
	if err := c.AppendToolResult("poi.search", `{}`); !errors.Is(err, ErrUnpairedResult) {
		t.Errorf("double result = %v, want ErrUnpairedResult", err)
	}
}

func TestConversation_ResultToolMustMatchCall(t *testing.T) {
	c := NewConversation("你是行程助手", "规划北京五日游", 50)
	c.AppendToolCall("poi.search", `{"city":"北京"}`)
	if err := c.AppendToolResult("weather.query", `{}`); !errors.Is(err, ErrUnpairedResult) {
		t.Errorf("mismatched tool = %v, want ErrUnpairedResult", err)
	}
}

func TestConversation_TruncateEvictsOldestPairs(t *testing.T) {
	c := NewConversation("你是行程助手", "规划北京五日游", 6)

	for i := 0; i < 5; i++ {
		c.AppendToolCall("poi.search", fmt.Sprintf(`{"seq":%d}`, i))
		if err := c.AppendToolResult("poi.search", fmt.Sprintf(`{"result":%d}`, i)); err != nil {
			t.Fatalf("pair %d: %v", i, err)
		}
	}

	if c.Len() > 6 {
		t.Fatalf("Len = %d, want <= 6", c.Len())
	}

	msgs := c.Messages()
	// 开头两条永不淘汰
	if msgs[0].Role != "system" || msgs[1].Content != "规划北京五日游" {
		t.Fatalf("protected head lost: %+v", msgs[:2])
	}
	// 最老的对被淘汰，最新的对保留
	for _, m := range msgs {
		if m.Content == `调用工具 poi.search: {"seq":0}` {
			t.Error("oldest pair should be evicted")
		}
	}
	last := msgs[len(msgs)-1]
	if last.Content != `工具 poi.search 结果: {"result":4}` {
		t.Errorf("newest result lost: %q", last.Content)
	}
}

func TestConversation_TruncateNeverSplitsPair(t *testing.T) {
	c := NewConversation("你是行程助手", "规划北京五日游", 4)
	for i := 0; i < 4; i++ {
		c.AppendToolCall("poi.search", fmt.Sprintf(`{"seq":%d}`, i))
		_ = c.AppendToolResult("poi.search", fmt.Sprintf(`{"result":%d}`, i))
	}

	msgs := c.Messages()
	// 除开头两条外，剩余消息必须成对出现（先调用后结果）
	for i := 2; i < len(msgs); i += 2 {
		if i+1 >= len(msgs) {
			t.Fatalf("dangling message at %d: %q", i, msgs[i].Content)
		}
	}
}
