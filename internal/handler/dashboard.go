package handler

import (
	"net/http"

	"market-pulse/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetDashboard godoc
// @Summary      Get the dashboard state
// @Description  Returns the last published dashboard. The first call triggers the initial refresh.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  domain.Dashboard
// @Router       /api/dashboard [get]
func (h *Handler) GetDashboard(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-dashboard")
	defer span.End()

	h.store.EnsureLoaded(ctx)
	d := h.store.Snapshot()
	span.SetAttributes(attribute.Bool("dashboard.loading", d.Loading))

	c.JSON(http.StatusOK, d)
}

// Refresh godoc
// @Summary      Refresh the dashboard
// @Description  Runs one refresh cycle and returns the resulting state. A failed cycle is reported in the error field, not as an HTTP error.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  domain.Dashboard
// @Router       /api/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.refresh")
	defer span.End()

	d := h.store.Refresh(ctx)
	span.SetAttributes(
		attribute.String("cycle.id", d.CycleID),
		attribute.Bool("dashboard.failed", d.Error != nil),
	)

	c.JSON(http.StatusOK, d)
}

// GetStats godoc
// @Summary      Get market stats
// @Description  Returns the market stats card, or 404 before the first successful refresh
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  domain.MarketStats
// @Failure      404  {object}  map[string]string
// @Router       /api/stats [get]
func (h *Handler) GetStats(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-stats")
	defer span.End()

	d := h.store.Snapshot()
	if d.Stats == nil {
		notLoaded(c, d)
		return
	}
	c.JSON(http.StatusOK, d.Stats)
}

// GetTVL godoc
// @Summary      Get DeFi TVL
// @Description  Returns total value locked with daily and weekly changes
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  domain.TVLSnapshot
// @Failure      404  {object}  map[string]string
// @Router       /api/tvl [get]
func (h *Handler) GetTVL(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-tvl")
	defer span.End()

	d := h.store.Snapshot()
	if d.TVL == nil {
		notLoaded(c, d)
		return
	}
	c.JSON(http.StatusOK, d.TVL)
}

// GetFearGreed godoc
// @Summary      Get the Fear & Greed index
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  domain.FearGreedSnapshot
// @Failure      404  {object}  map[string]string
// @Router       /api/fear-greed [get]
func (h *Handler) GetFearGreed(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-fear-greed")
	defer span.End()

	d := h.store.Snapshot()
	if d.FearGreed == nil {
		notLoaded(c, d)
		return
	}
	c.JSON(http.StatusOK, d.FearGreed)
}

// GetTrending godoc
// @Summary      Get trending tokens
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/trending [get]
func (h *Handler) GetTrending(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-trending")
	defer span.End()

	d := h.store.Snapshot()
	span.SetAttributes(attribute.Int("trending.count", len(d.Trending)))
	c.JSON(http.StatusOK, gin.H{"trending": d.Trending})
}

// GetRecentProjects godoc
// @Summary      Get recently added projects
// @Description  Returns the top coins by market cap, shown as the recently added table
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/projects/recent [get]
func (h *Handler) GetRecentProjects(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-recent-projects")
	defer span.End()

	d := h.store.Snapshot()
	c.JSON(http.StatusOK, gin.H{"projects": d.RecentProjects})
}

func notLoaded(c *gin.Context, d domain.Dashboard) {
	body := gin.H{"error": "no data yet", "loading": d.Loading}
	if d.Error != nil {
		body["error"] = *d.Error
	}
	c.JSON(http.StatusNotFound, body)
}
