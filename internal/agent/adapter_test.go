package agent

import (
	"testing"
)

func TestParseDecision_ToolCall(t *testing.T) {
	d := ParseDecision(`{"tool":"poi.search","input":{"city":"北京","keywords":"博物馆"}}`)
	if d.Kind != DecisionToolCall {
		t.Fatalf("Kind = %v, want tool call", d.Kind)
	}
	if d.Call.Name != "poi.search" {
		t.Errorf("Name = %q", d.Call.Name)
	}
	if d.Call.Input["city"] != "北京" {
		t.Errorf("Input = %v", d.Call.Input)
	}
}

func TestParseDecision_FinalString(t *testing.T) {
	d := ParseDecision(`{"final_answer":"行程已完成"}`)
	if d.Kind != DecisionFinal {
		t.Fatalf("Kind = %v, want final", d.Kind)
	}
	if d.Final != "行程已完成" {
		t.Errorf("Final = %q", d.Final)
	}
}

func TestParseDecision_FinalObject(t *testing.T) {
	d := ParseDecision(`{"final_answer":{"summary":"五日游","days":[]}}`)
	if d.Kind != DecisionFinal {
		t.Fatalf("Kind = %v, want final", d.Kind)
	}
	if d.Final != `{"summary":"五日游","days":[]}` {
		t.Errorf("Final = %q", d.Final)
	}
}

func TestParseDecision_MarkdownWrapped(t *testing.T) {
	d := ParseDecision("好的，下一步：\n```json\n{\"tool\":\"weather.query\",\"input\":{\"city\":\"北京\"}}\n```")
	if d.Kind != DecisionToolCall {
		t.Fatalf("Kind = %v, want tool call", d.Kind)
	}
	if d.Call.Name != "weather.query" {
		t.Errorf("Name = %q", d.Call.Name)
	}
}

func TestParseDecision_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":        "明天天气晴",
		"both fields":     `{"tool":"poi.search","input":{},"final_answer":"done"}`,
		"neither field":   `{"thought":"让我想想"}`,
		"empty tool name": `{"tool":"","input":{}}`,
	}
	for name, in := range cases {
		if d := ParseDecision(in); d.Kind != DecisionMalformed {
			t.Errorf("%s: Kind = %v, want malformed", name, d.Kind)
		}
	}
}

func TestParseDecision_MissingInputDefaultsEmpty(t *testing.T) {
	d := ParseDecision(`{"tool":"weather.query"}`)
	if d.Kind != DecisionToolCall {
		t.Fatalf("Kind = %v, want tool call", d.Kind)
	}
	if d.Call.Input == nil {
		t.Error("Input should default to empty map")
	}
}
