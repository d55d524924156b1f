package http

import (
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"
)

// Router HTTP 路由器
type Router struct {
	handler *Handler
}

// NewRouter 创建新的 HTTP 路由器
func NewRouter(handler *Handler) *Router {
	return &Router{handler: handler}
}

// Build 构建 Hertz 服务并挂载路由
func (r *Router) Build(addr string, opts ...config.Option) *server.Hertz {
	opts = append(opts, server.WithHostPorts(addr))
	h := server.Default(opts...)

	api := h.Group("/api")

	// 健康检查
	api.GET("/health", r.handler.HealthCheck)

	// 行程规划
	trips := api.Group("/trips")
	{
		trips.POST("/plan", r.handler.PlanTrip)
		trips.GET("/:id", r.handler.GetPlan)
		trips.GET("", r.handler.ListPlans)
	}

	// 系统管理
	system := api.Group("/system")
	{
		system.GET("/metrics", r.handler.SystemMetrics)
	}

	return h
}
