package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"trip-planner/internal/agent"
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

type noopInvoker struct{}

func (noopInvoker) Invoke(ctx context.Context, call tool.ToolCall, allowed []string) tool.ToolResult {
	return tool.ToolResult{Content: "{}"}
}

func newScriptedAgent(role agent.Role, replies ...string) *agent.Agent {
	adapter := agent.NewAdapter(&scriptedClient{replies: replies}, llm.GenerateOptions{})
	return agent.New(role, adapter, noopInvoker{}, []byte(`[]`), nil, agent.WithMaxRetries(1), agent.WithMaxSteps(6))
}

// daysJSON 构造 n 天的合法行程 JSON
func daysJSON(n int) string {
	var days []string
	for i := 1; i <= n; i++ {
		days = append(days, fmt.Sprintf(
			`{"day":%d,"activities":[{"name":"景点%d-1","start":"09:00","end":"11:30"},{"name":"景点%d-2","start":"13:00","end":"17:00"}]}`,
			i, i, i))
	}
	return "[" + strings.Join(days, ",") + "]"
}

func itineraryFinal(n int) string {
	return fmt.Sprintf(`{"final_answer":{"days":%s,"summary":"行程总览"}}`, daysJSON(n))
}

func goodAgents(days int) (attraction, weather, lodging, itinerary *agent.Agent) {
	attraction = newScriptedAgent(agent.AttractionRole(),
		`{"final_answer":{"attractions":[{"name":"故宫"},{"name":"颐和园"}],"summary":"经典景点"}}`)
	weather = newScriptedAgent(agent.WeatherRole(),
		`{"final_answer":{"forecast":[],"summary":"晴为主，适合户外"}}`)
	lodging = newScriptedAgent(agent.LodgingRole(),
		`{"final_answer":{"hotel":{"name":"王府井酒店"},"tier":"comfort"}}`)
	itinerary = newScriptedAgent(agent.ItineraryRole(), itineraryFinal(days))
	return
}

func beijingRequest() TripRequest {
	return TripRequest{Destination: "北京", StartDate: "2026-05-01", Days: 5, Tier: TierComfort}
}

func TestPlan_FullSuccess(t *testing.T) {
	attraction, weather, lodging, itinerary := goodAgents(5)
	o := New(attraction, weather, lodging, itinerary, nil)

	plan, err := o.Plan(context.Background(), beijingRequest())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Days) != 5 {
		t.Errorf("Days = %d, want 5", len(plan.Days))
	}
	if plan.WeatherSummary == "" {
		t.Error("WeatherSummary empty")
	}
	if plan.Lodging["name"] != "王府井酒店" {
		t.Errorf("Lodging = %v", plan.Lodging)
	}
	if len(plan.FacetNotes) != 0 {
		t.Errorf("FacetNotes = %v, want empty", plan.FacetNotes)
	}
	if plan.ID == "" {
		t.Error("ID empty")
	}
}

func TestPlan_OptionalFacetFailureMarked(t *testing.T) {
	attraction, _, lodging, itinerary := goodAgents(5)
	// weather 持续输出垃圾，重试耗尽后失败
	weather := newScriptedAgent(agent.WeatherRole(), "今天天气很好")

	o := New(attraction, weather, lodging, itinerary, nil)
	plan, err := o.Plan(context.Background(), beijingRequest())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Days) != 5 {
		t.Errorf("Days = %d, want 5", len(plan.Days))
	}
	note, ok := plan.FacetNotes[FacetWeather]
	if !ok || note == "" {
		t.Errorf("FacetNotes = %v, want weather marker", plan.FacetNotes)
	}
	if plan.WeatherSummary != "" {
		t.Errorf("WeatherSummary = %q, want empty", plan.WeatherSummary)
	}
}

func TestPlan_RequiredFacetFailure(t *testing.T) {
	attraction, weather, _, itinerary := goodAgents(5)
	lodging := newScriptedAgent(agent.LodgingRole(), "找不到酒店")

	o := New(attraction, weather, lodging, itinerary, nil,
		WithRequiredFacets([]string{FacetAttractions, FacetLodging}))

	_, err := o.Plan(context.Background(), beijingRequest())
	var pe *PlanningError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want PlanningError", err)
	}
	if pe.Facet != FacetLodging {
		t.Errorf("Facet = %q, want lodging", pe.Facet)
	}
	if !errors.Is(err, agent.ErrReasoningFailure) {
		t.Errorf("cause = %v, want ErrReasoningFailure", pe.Cause)
	}
}

func TestPlan_DayCountMismatch(t *testing.T) {
	attraction, weather, lodging, _ := goodAgents(5)
	itinerary := newScriptedAgent(agent.ItineraryRole(), itineraryFinal(3))

	o := New(attraction, weather, lodging, itinerary, nil)
	_, err := o.Plan(context.Background(), beijingRequest())
	if !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("err = %v, want ErrInvariantViolation", err)
	}
}

func TestPlan_OverlappingActivities(t *testing.T) {
	attraction, weather, lodging, _ := goodAgents(1)
	itinerary := newScriptedAgent(agent.ItineraryRole(),
		`{"final_answer":{"days":[{"day":1,"activities":[{"name":"故宫","start":"09:00","end":"12:00"},{"name":"景山","start":"11:00","end":"13:00"}]}]}}`)

	o := New(attraction, weather, lodging, itinerary, nil)
	req := beijingRequest()
	req.Days = 1
	_, err := o.Plan(context.Background(), req)
	if !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("err = %v, want ErrInvariantViolation", err)
	}
}

func TestPlan_Cancelled(t *testing.T) {
	attraction, weather, lodging, itinerary := goodAgents(5)
	o := New(attraction, weather, lodging, itinerary, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Plan(ctx, beijingRequest())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestPlan_StructurallyIdempotent(t *testing.T) {
	req := beijingRequest()

	run := func() *ItineraryPlan {
		attraction, weather, lodging, itinerary := goodAgents(5)
		o := New(attraction, weather, lodging, itinerary, nil)
		plan, err := o.Plan(context.Background(), req)
		if err != nil {
			t.Fatalf("Plan: %v", err)
		}
		return plan
	}

	p1, p2 := run(), run()
	d1, _ := json.Marshal(p1.Days)
	d2, _ := json.Marshal(p2.Days)
	if string(d1) != string(d2) {
		t.Errorf("days differ:\n%s\n%s", d1, d2)
	}
}

func TestTripRequest_Validate(t *testing.T) {
	cases := []struct {
		name    string
		req     TripRequest
		wantErr bool
	}{
		{"ok", TripRequest{Destination: "北京", Days: 5}, false},
		{"empty destination", TripRequest{Days: 5}, true},
		{"zero days", TripRequest{Destination: "北京"}, true},
		{"too many days", TripRequest{Destination: "北京", Days: 31}, true},
		{"bad tier", TripRequest{Destination: "北京", Days: 3, Tier: "deluxe"}, true},
		{"bad date", TripRequest{Destination: "北京", Days: 3, StartDate: "05/01/2026"}, true},
	}
	for _, tc := range cases {
		err := tc.req.Validate()
		if (err != nil) != tc.wantErr {
			t.Errorf("%s: err = %v", tc.name, err)
		}
	}
	// 默认档位回填
	req := TripRequest{Destination: "北京", Days: 5}
	_ = req.Validate()
	if req.Tier != TierComfort {
		t.Errorf("Tier = %q, want comfort", req.Tier)
	}
}
