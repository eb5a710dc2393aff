package router

import (
	"github.com/labstack/echo/v4"

	"github.com/fleett/fleett-api/internal/handler"
	"github.com/fleett/fleett-api/internal/middleware"
	"github.com/fleett/fleett-api/internal/model"
)

// RegisterReports registers the aggregation endpoints. Distribution
// and ranking reports are public (with the supplied caching/limiting
// middleware); revenue figures require authentication.
func RegisterReports(e *echo.Echo, h *handler.ReportHandler, jwtSecret string, public ...echo.MiddlewareFunc) {
	g := e.Group("/api/reports")
	g.GET("/vehicle-category-distribution", h.CategoryDistribution, public...)
	g.GET("/vehicle-status-distribution", h.StatusDistribution, public...)
	g.GET("/most-least-rented-model", h.MostLeastRentedModel, public...)
	g.GET("/rental-count-per-vehicle", h.RentalCountPerVehicle, public...)

	auth := middleware.JWTAuth(jwtSecret)
	g.GET("/monthly-revenue", h.MonthlyRevenue, auth)
	g.GET("/monthly-maintenance-cost", h.MonthlyMaintenanceCost, auth)
	g.GET("/total-revenue", h.TotalRevenue, auth)
}

// RegisterDashboards registers the widget endpoints. The headline
// stats are public; financials require authentication and the admin
// dashboard requires the ADMIN role.
func RegisterDashboards(e *echo.Echo, h *handler.DashboardHandler, jwtSecret string, public ...echo.MiddlewareFunc) {
	e.GET("/api/dashboard/stats", h.Stats, public...)
	e.GET("/api/dashboard/revenue-and-cost", h.RevenueAndCost, middleware.JWTAuth(jwtSecret))

	admin := e.Group("/api/admin/dashboard")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.GET("/metrics", h.Metrics)
	admin.GET("/financial", h.Financial)
	admin.GET("/recent-activity", h.RecentActivity)
}
