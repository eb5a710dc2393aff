package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fleett/fleett-api/internal/repository"
)

// ReportHandler serves the read-only aggregation endpoints.
type ReportHandler struct {
	Reports *repository.ReportRepo
}

func NewReportHandler(r *repository.ReportRepo) *ReportHandler {
	return &ReportHandler{Reports: r}
}

// MonthlyRevenue returns rental revenue per YYYY-MM month.
func (h *ReportHandler) MonthlyRevenue(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	sums, err := h.Reports.MonthlyRevenue(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, sums)
}

// MonthlyMaintenanceCost returns maintenance spend per YYYY-MM month.
func (h *ReportHandler) MonthlyMaintenanceCost(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	sums, err := h.Reports.MonthlyMaintenanceCost(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, sums)
}

// TotalRevenue returns the all-time rental revenue sum.
func (h *ReportHandler) TotalRevenue(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	total, err := h.Reports.TotalRevenue(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"total_revenue_cents": total})
}

// CategoryDistribution returns vehicle counts per fuel category.
func (h *ReportHandler) CategoryDistribution(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	dist, err := h.Reports.CategoryDistribution(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, dist)
}

// StatusDistribution returns vehicle counts per status.
func (h *ReportHandler) StatusDistribution(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	dist, err := h.Reports.StatusDistribution(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, dist)
}

// MostLeastRentedModel returns the most and least rented vehicle model
// with their rental counts. With no rentals at all the response is an
// empty object.
func (h *ReportHandler) MostLeastRentedModel(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	counts, err := h.Reports.ModelRentCounts(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if len(counts) == 0 {
		return c.JSON(http.StatusOK, echo.Map{})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"most_rented":  counts[0],
		"least_rented": counts[len(counts)-1],
	})
}

// RentalCountPerVehicle returns rental counts keyed by vehicle id.
func (h *ReportHandler) RentalCountPerVehicle(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	counts, err := h.Reports.RentalCountPerVehicle(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, counts)
}
