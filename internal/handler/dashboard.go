package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fleett/fleett-api/internal/repository"
)

// DashboardHandler serves the widget endpoints behind the public and
// admin dashboards.
type DashboardHandler struct {
	Reports *repository.ReportRepo
}

func NewDashboardHandler(r *repository.ReportRepo) *DashboardHandler {
	return &DashboardHandler{Reports: r}
}

// Stats returns the headline fleet counts.
func (h *DashboardHandler) Stats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	counts, err := h.Reports.CountDashboard(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, counts)
}

// RevenueAndCost returns total revenue next to total maintenance cost.
func (h *DashboardHandler) RevenueAndCost(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	revenue, err := h.Reports.TotalRevenue(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	cost, err := h.Reports.TotalMaintenanceCost(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total_revenue_cents":          revenue,
		"total_maintenance_cost_cents": cost,
	})
}

// Metrics is the admin variant of Stats.
func (h *DashboardHandler) Metrics(c echo.Context) error {
	return h.Stats(c)
}

// Financial returns revenue, maintenance cost and net profit.
func (h *DashboardHandler) Financial(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	revenue, err := h.Reports.TotalRevenue(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	cost, err := h.Reports.TotalMaintenanceCost(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total_revenue_cents":          revenue,
		"total_maintenance_cost_cents": cost,
		"net_profit_cents":             revenue - cost,
	})
}

// RecentActivity returns the five most recent events across rentals,
// maintenance, customers and vehicles.
func (h *DashboardHandler) RecentActivity(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	feed, err := h.Reports.RecentActivity(ctx, 5)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, feed)
}
