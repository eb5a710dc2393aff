package router

import (
	"github.com/labstack/echo/v4"

	"github.com/fleett/fleett-api/internal/handler"
	"github.com/fleett/fleett-api/internal/middleware"
)

// RegisterCustomers registers the customer CRUD endpoints. All of them
// require authentication; customer data is not public.
func RegisterCustomers(e *echo.Echo, h *handler.CustomerHandler, jwtSecret string) {
	g := e.Group("/api/customers")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// RegisterVehicles registers fleet endpoints. Browsing the fleet is
// public (with the caching/limiting middleware the caller supplies);
// mutating it requires authentication.
func RegisterVehicles(e *echo.Echo, h *handler.VehicleHandler, jwtSecret string, public ...echo.MiddlewareFunc) {
	g := e.Group("/api/vehicles")
	g.GET("", h.List, public...)
	g.GET("/:id", h.Get, public...)
	g.GET("/:id/anomaly-score", h.AnomalyScore, public...)

	auth := middleware.JWTAuth(jwtSecret)
	g.POST("", h.Create, auth)
	g.PUT("/:id", h.Update, auth)
	g.DELETE("/:id", h.Delete, auth)
}

// RegisterRentals registers the rental lifecycle endpoints, all behind
// authentication.
func RegisterRentals(e *echo.Echo, h *handler.RentalHandler, jwtSecret string) {
	g := e.Group("/api/rentals")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.GET("", h.List)
	g.GET("/customer/:customerId", h.ListByCustomer)
	g.POST("/rent", h.Rent)
	g.POST("/return/:id", h.Return)
	g.DELETE("/cancel/:id", h.Cancel)
}

// RegisterMaintenance registers the maintenance lifecycle endpoints,
// all behind authentication.
func RegisterMaintenance(e *echo.Echo, h *handler.MaintenanceHandler, jwtSecret string) {
	g := e.Group("/api/maintenance")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.GET("", h.List)
	g.POST("/schedule/:vehicleId", h.Schedule)
	g.PUT("/update/:id", h.Complete)
	g.DELETE("/:id", h.Delete)
}
