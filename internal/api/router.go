package api

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "go-data-sentinel/docs"
	"go-data-sentinel/internal/api/handler"
	"go-data-sentinel/pkg/router"
)

func RegisterRoutes(r *router.Router, h *handler.Handler) {
	r.GET("/healthz", h.Health)
	r.GET("/api/v1/runs", h.ListRuns)
	// More specific routes first
	r.GET("/api/v1/runs/*/events", h.GetRunEvents)
	r.GET("/api/v1/runs/*/reports", h.GetRunReports)
	// Generic run route last
	r.GET("/api/v1/runs/*", h.GetRun)

	r.Handle("GET", "/metrics", promhttp.Handler())
	r.Handle("GET", "/swagger/*", httpSwagger.WrapHandler)
}
