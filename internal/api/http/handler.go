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

package http

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"trip-planner/internal/orchestrator"
	"trip-planner/internal/storage/planstore"
	pkgerrors "trip-planner/pkg/errors"
	"trip-planner/pkg/log"
	"trip-planner/pkg/metrics"
)

// Planner 行程规划入口
type Planner interface {
	Plan(ctx context.Context, req orchestrator.TripRequest) (*orchestrator.ItineraryPlan, error)
}

// Handler HTTP 处理器
type Handler struct {
	planner Planner
	plans   planstore.Store
	logger  *log.Logger
}

// NewHandler 创建新的 HTTP 处理器
func NewHandler(planner Planner, plans planstore.Store, logger *log.Logger) *Handler {
	return &Handler{
		planner: planner,
		plans:   plans,
		logger:  logger,
	}
}

// HealthCheck 健康检查
// GET /api/health
func (h *Handler) HealthCheck(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"service":   "trip-planner",
	})
}

// PlanTrip 规划行程
// POST /api/trips/plan
func (h *Handler) PlanTrip(c context.Context, ctx *app.RequestContext) {
	var req orchestrator.TripRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{
			"error": "invalid request",
		})
		return
	}
	if err := req.Validate(); err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}

	plan, err := h.planner.Plan(c, req)
	if err != nil {
		h.writePlanError(c, ctx, err)
		return
	}

	if h.plans != nil {
		if err := h.plans.Save(c, plan); err != nil {
			hlog.CtxErrorf(c, "保存行程 %s 失败: %v", plan.ID, err)
		}
	}

	ctx.JSON(consts.StatusOK, plan)
}

// writePlanError 把规划错误映射为 HTTP 状态码
func (h *Handler) writePlanError(c context.Context, ctx *app.RequestContext, err error) {
	var pe *orchestrator.PlanningError
	switch {
	case errors.As(err, &pe):
		ctx.JSON(consts.StatusUnprocessableEntity, map[string]string{
			"error": err.Error(),
			"facet": pe.Facet,
		})
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		ctx.JSON(consts.StatusRequestTimeout, map[string]string{
			"error": "规划已取消",
		})
	default:
		hlog.CtxErrorf(c, "规划失败: %v", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	}
}

// GetPlan 按 ID 获取行程
// GET /api/trips/:id
func (h *Handler) GetPlan(c context.Context, ctx *app.RequestContext) {
	id := ctx.Param("id")
	if id == "" {
		ctx.JSON(consts.StatusBadRequest, map[string]string{
			"error": "id is required",
		})
		return
	}

	plan, err := h.plans.Get(c, id)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			ctx.JSON(consts.StatusNotFound, map[string]string{
				"error": "行程不存在",
			})
			return
		}
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
		return
	}

	ctx.JSON(consts.StatusOK, plan)
}

// ListPlans 列出最近的行程
// GET /api/trips
func (h *Handler) ListPlans(c context.Context, ctx *app.RequestContext) {
	plans, err := h.plans.List(c, 20)
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{
		"plans": plans,
		"total": len(plans),
	})
}

// SystemMetrics 导出 Prometheus 指标
// GET /api/system/metrics
func (h *Handler) SystemMetrics(c context.Context, ctx *app.RequestContext) {
	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
		return
	}
	ctx.Data(consts.StatusOK, "text/plain; version=0.0.4; charset=utf-8", buf.Bytes())
}
