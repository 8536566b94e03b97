package handler

import (
	"context"

	"market-pulse/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// DashboardStore is the state the HTTP surface reads and refreshes.
type DashboardStore interface {
	Snapshot() domain.Dashboard
	Refresh(ctx context.Context) domain.Dashboard
	EnsureLoaded(ctx context.Context)
}

type Handler struct {
	tracer trace.Tracer
	store  DashboardStore
}

func New(tracer trace.Tracer, store DashboardStore) *Handler {
	return &Handler{
		tracer: tracer,
		store:  store,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)

	api := r.Group("/api")
	api.GET("/dashboard", h.GetDashboard)
	api.POST("/refresh", h.Refresh)
	api.GET("/stats", h.GetStats)
	api.GET("/tvl", h.GetTVL)
	api.GET("/fear-greed", h.GetFearGreed)
	api.GET("/trending", h.GetTrending)
	api.GET("/projects/recent", h.GetRecentProjects)
}
