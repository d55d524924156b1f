package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// 全局 Registry，供 API 注册与暴露
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		PlanDuration, PlanTotal,
		AgentSteps, AgentTerminal,
		ToolDuration, ToolFailTotal,
		LLMCallTotal, CacheHitTotal,
	)
}

// PlanDuration 整次行程规划耗时（秒）
var PlanDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "tripplan_plan_duration_seconds",
		Help:    "行程规划耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
)

// PlanTotal 规划总数（按状态）
var PlanTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tripplan_plan_total",
		Help: "规划总数（按状态）",
	},
	[]string{"status"}, // completed | failed | cancelled
)

// AgentSteps 单次 Agent 循环步数
var AgentSteps = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "tripplan_agent_steps",
		Help:    "单次 Agent 循环步数",
		Buckets: []float64{1, 2, 4, 8, 12, 16, 24, 32},
	},
	[]string{"role"},
)

// AgentTerminal Agent 终态总数（按角色与终止原因）
var AgentTerminal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tripplan_agent_terminal_total",
		Help: "Agent 终态总数",
	},
	[]string{"role", "cause"},
)

// ToolDuration 工具调用耗时（秒）
var ToolDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "tripplan_tool_duration_seconds",
		Help:    "工具调用耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"tool"},
)

// ToolFailTotal 工具调用失败总数（按失败类型）
var ToolFailTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tripplan_tool_fail_total",
		Help: "工具调用失败总数",
	},
	[]string{"tool", "kind"},
)

// LLMCallTotal LLM 调用总数（按 provider 与结果）
var LLMCallTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tripplan_llm_call_total",
		Help: "LLM 调用总数",
	},
	[]string{"provider", "status"}, // ok | error
)

// CacheHitTotal 外部服务缓存命中/未命中
var CacheHitTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tripplan_cache_total",
		Help: "外部服务缓存命中统计",
	},
	[]string{"cache", "result"}, // hit | miss
)

// WritePrometheus 将 Prometheus 文本格式写入 w（供 Hertz 复用）
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
