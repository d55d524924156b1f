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

package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"trip-planner/internal/agent"
	"trip-planner/pkg/log"
	"trip-planner/pkg/metrics"
	"trip-planner/pkg/tracing"
)

// 调研面
const (
	FacetAttractions = "attractions"
	FacetWeather     = "weather"
	FacetLodging     = "lodging"
)

// PlanningError 必需调研面缺失导致的规划失败
type PlanningError struct {
	Facet string
	Cause error
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("缺少必需的 %s 信息，无法生成行程: %v", e.Facet, e.Cause)
}

func (e *PlanningError) Unwrap() error { return e.Cause }

// facetResult 单个调研面的产出
type facetResult struct {
	facet  string
	output map[string]any
	err    error
}

// Orchestrator 多智能体行程编排：三个调研 Agent 并发执行，
// 全部返回后由综合 Agent 产出逐日行程并做结构校验。
type Orchestrator struct {
	attraction *agent.Agent
	weather    *agent.Agent
	lodging    *agent.Agent
	itinerary  *agent.Agent
	required   map[string]bool
	logger     *log.Logger
}

// Option Orchestrator 配置项
type Option func(*Orchestrator)

// WithRequiredFacets 设置必需调研面；未列出的面失败时仅做标记
func WithRequiredFacets(facets []string) Option {
	return func(o *Orchestrator) {
		o.required = make(map[string]bool, len(facets))
		for _, f := range facets {
			o.required[f] = true
		}
	}
}

// New 创建编排器。默认仅 attractions 为必需面。
func New(attraction, weather, lodging, itinerary *agent.Agent, logger *log.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		attraction: attraction,
		weather:    weather,
		lodging:    lodging,
		itinerary:  itinerary,
		required:   map[string]bool{FacetAttractions: true},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Plan 执行完整规划流程
func (o *Orchestrator) Plan(ctx context.Context, req TripRequest) (*ItineraryPlan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	planID := uuid.New().String()
	ctx, span := tracing.StartPlanSpan(ctx, planID, req.Destination)
	defer span.End()

	start := time.Now()
	plan, err := o.plan(ctx, planID, req)
	metrics.PlanDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.PlanTotal.WithLabelValues("completed").Inc()
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		metrics.PlanTotal.WithLabelValues("cancelled").Inc()
	default:
		metrics.PlanTotal.WithLabelValues("failed").Inc()
	}
	return plan, err
}

func (o *Orchestrator) plan(ctx context.Context, planID string, req TripRequest) (*ItineraryPlan, error) {
	facets := []struct {
		name string
		ag   *agent.Agent
		task string
	}{
		{FacetAttractions, o.attraction, attractionTask(req)},
		{FacetWeather, o.weather, weatherTask(req)},
		{FacetLodging, o.lodging, lodgingTask(req)},
	}

	results := make([]facetResult, len(facets))
	var wg sync.WaitGroup
	for i, f := range facets {
		wg.Add(1)
		go func(i int, name string, ag *agent.Agent, task string) {
			defer wg.Done()
			res, err := ag.Run(ctx, task)
			fr := facetResult{facet: name, err: err}
			if err == nil && res != nil {
				fr.output = res.Output
			}
			results[i] = fr
		}(i, f.name, f.ag, f.task)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	notes := make(map[string]string)
	outputs := make(map[string]map[string]any)
	for _, fr := range results {
		if fr.err != nil {
			if o.required[fr.facet] {
				return nil, &PlanningError{Facet: fr.facet, Cause: fr.err}
			}
			notes[fr.facet] = "信息不可用: " + fr.err.Error()
			if o.logger != nil {
				o.logger.Warn("可选调研面失败，继续规划", "plan_id", planID, "facet", fr.facet, "err", fr.err)
			}
			continue
		}
		outputs[fr.facet] = fr.output
	}

	synth, err := o.itinerary.Run(ctx, synthesisTask(req, outputs, notes))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("行程综合失败: %w", err)
	}

	plan, err := buildPlan(planID, req, synth.Output, outputs, notes)
	if err != nil {
		return nil, err
	}
	if err := plan.checkInvariants(req); err != nil {
		return nil, err
	}
	return plan, nil
}

// buildPlan 把综合 Agent 的结构化输出装配为 ItineraryPlan
func buildPlan(planID string, req TripRequest, synthOutput map[string]any, outputs map[string]map[string]any, notes map[string]string) (*ItineraryPlan, error) {
	daysRaw, err := json.Marshal(synthOutput["days"])
	if err != nil {
		return nil, fmt.Errorf("行程 days 无法序列化: %w", ErrInvariantViolation)
	}
	var days []DayPlan
	if err := json.Unmarshal(daysRaw, &days); err != nil {
		return nil, fmt.Errorf("行程 days 结构非法: %w", ErrInvariantViolation)
	}

	plan := &ItineraryPlan{
		ID:          planID,
		Destination: req.Destination,
		StartDate:   req.StartDate,
		Days:        days,
		CreatedAt:   time.Now(),
	}
	if s, ok := synthOutput["summary"].(string); ok {
		plan.Summary = s
	}
	if lodging, ok := outputs[FacetLodging]; ok {
		if hotel, ok := lodging["hotel"].(map[string]any); ok {
			plan.Lodging = hotel
		}
	}
	if weather, ok := outputs[FacetWeather]; ok {
		if s, ok := weather["summary"].(string); ok {
			plan.WeatherSummary = s
		}
	}
	if len(notes) > 0 {
		plan.FacetNotes = notes
	}
	return plan, nil
}

func attractionTask(req TripRequest) string {
	task := fmt.Sprintf("调研 %s 的景点，行程共 %d 天。", req.Destination, req.Days)
	if len(req.Preferences) > 0 {
		task += "出行偏好：" + strings.Join(req.Preferences, "、") + "。"
	}
	return task
}

func weatherTask(req TripRequest) string {
	task := fmt.Sprintf("查询 %s 的天气预报", req.Destination)
	if req.StartDate != "" {
		task += fmt.Sprintf("，行程从 %s 开始，共 %d 天", req.StartDate, req.Days)
	}
	return task + "。"
}

func lodgingTask(req TripRequest) string {
	return fmt.Sprintf("在 %s 按 %s 档位推荐酒店，行程共 %d 天。", req.Destination, req.Tier, req.Days)
}

// synthesisTask 汇总调研产出构建综合任务
func synthesisTask(req TripRequest, outputs map[string]map[string]any, notes map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "为 %s 规划 %d 天行程", req.Destination, req.Days)
	if req.StartDate != "" {
		fmt.Fprintf(&b, "，%s 出发", req.StartDate)
	}
	b.WriteString("。\n\n调研结果：\n")
	for _, facet := range []string{FacetAttractions, FacetWeather, FacetLodging} {
		if out, ok := outputs[facet]; ok {
			raw, _ := json.Marshal(out)
			fmt.Fprintf(&b, "[%s] %s\n", facet, raw)
		} else if note, ok := notes[facet]; ok {
			fmt.Fprintf(&b, "[%s] %s\n", facet, note)
		}
	}
	fmt.Fprintf(&b, "\n输出 final_answer：{\"days\":[{\"day\":1,\"date\":\"YYYY-MM-DD\",\"activities\":[{\"name\":...,\"start\":\"HH:MM\",\"end\":\"HH:MM\"}]}],\"summary\":...}，days 必须恰好 %d 项。", req.Days)
	return b.String()
}
