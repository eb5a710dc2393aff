package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fleett/fleett-api/internal/model"
	"github.com/fleett/fleett-api/internal/repository"
)

// VehicleHandler serves the fleet browse and management endpoints.
type VehicleHandler struct {
	Vehicles    *repository.VehicleRepo
	Rentals     *repository.RentalRepo
	Maintenance *repository.MaintenanceRepo
}

func NewVehicleHandler(v *repository.VehicleRepo, r *repository.RentalRepo, m *repository.MaintenanceRepo) *VehicleHandler {
	return &VehicleHandler{Vehicles: v, Rentals: r, Maintenance: m}
}

type vehicleReq struct {
	Make               string `json:"make"`
	Model              string `json:"model"`
	Year               uint16 `json:"year"`
	Category           string `json:"category"`
	RegistrationNumber string `json:"registration_number"`
	PricePerDayCents   int64  `json:"price_per_day_cents"`
	Status             string `json:"status"`
}

func (r *vehicleReq) validate() string {
	r.Make = strings.TrimSpace(r.Make)
	r.Model = strings.TrimSpace(r.Model)
	r.Category = strings.ToUpper(strings.TrimSpace(r.Category))
	r.RegistrationNumber = strings.ToUpper(strings.TrimSpace(r.RegistrationNumber))
	r.Status = strings.ToUpper(strings.TrimSpace(r.Status))
	if r.Make == "" || r.Model == "" {
		return "make/model required"
	}
	if r.Year < 1900 || r.Year > uint16(time.Now().Year()+1) {
		return "invalid year"
	}
	if r.RegistrationNumber == "" {
		return "registration_number required"
	}
	if r.PricePerDayCents <= 0 {
		return "price_per_day_cents must be positive"
	}
	if r.Status != "" && !model.ValidVehicleStatus(r.Status) {
		return "invalid status"
	}
	return ""
}

// vehicleDetail is the detail response: the vehicle plus its full
// rental and maintenance history.
type vehicleDetail struct {
	model.Vehicle
	Rentals     []model.Rental      `json:"rentals"`
	Maintenance []model.Maintenance `json:"maintenance_records"`
}

// List returns the whole fleet. Optional ?status= and ?category=
// filters are applied in memory; the fleet is small.
func (h *VehicleHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	vehicles, err := h.Vehicles.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))
	category := strings.ToUpper(strings.TrimSpace(c.QueryParam("category")))
	if status == "" && category == "" {
		return c.JSON(http.StatusOK, vehicles)
	}
	filtered := make([]model.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if status != "" && v.Status != status {
			continue
		}
		if category != "" && strings.ToUpper(v.Category) != category {
			continue
		}
		filtered = append(filtered, v)
	}
	return c.JSON(http.StatusOK, filtered)
}

// Get returns one vehicle together with its rental and maintenance
// history.
func (h *VehicleHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	v, err := h.Vehicles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrVehicleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	rentals, err := h.Rentals.ListByVehicle(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	maint, err := h.Maintenance.ListByVehicle(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, vehicleDetail{Vehicle: v, Rentals: rentals, Maintenance: maint})
}

// AnomalyScore reports how a vehicle's daily price compares to its
// category average. A score well above 1 means the vehicle is priced
// far above its peers.
func (h *VehicleHandler) AnomalyScore(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	v, err := h.Vehicles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrVehicleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	avg, err := h.Vehicles.CategoryAveragePrice(ctx, v.Category)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"vehicle_id":          v.ID,
		"category":            v.Category,
		"price_per_day_cents": v.PricePerDayCents,
		"category_avg_cents":  avg,
		"anomaly_score":       repository.AnomalyScore(v, avg),
	})
}

// Create adds a vehicle to the fleet.
func (h *VehicleHandler) Create(c echo.Context) error {
	var req vehicleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	v := model.Vehicle{
		Make: req.Make, Model: req.Model, Year: req.Year, Category: req.Category,
		RegistrationNumber: req.RegistrationNumber, PricePerDayCents: req.PricePerDayCents,
		Status: req.Status,
	}
	if err := h.Vehicles.Create(ctx, &v); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") { // duplicate registration
			return c.JSON(http.StatusConflict, echo.Map{"error": "registration number already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create vehicle failed"})
	}
	created, err := h.Vehicles.GetByID(ctx, v.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusCreated, created)
}

// Update rewrites a vehicle's descriptive fields. Status is deliberately
// not updatable here; it only moves through the rental and maintenance
// lifecycles.
func (h *VehicleHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req vehicleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	v := model.Vehicle{
		ID: id, Make: req.Make, Model: req.Model, Year: req.Year, Category: req.Category,
		RegistrationNumber: req.RegistrationNumber, PricePerDayCents: req.PricePerDayCents,
	}
	if err := h.Vehicles.Update(ctx, &v); err != nil {
		switch {
		case errors.Is(err, repository.ErrVehicleNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		case strings.Contains(strings.ToLower(err.Error()), "1062"):
			return c.JSON(http.StatusConflict, echo.Map{"error": "registration number already exists"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update vehicle failed"})
		}
	}
	updated, err := h.Vehicles.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete removes a vehicle. The open-record check and the delete run in
// one transaction so a rental booked in between cannot orphan itself.
func (h *VehicleHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	tx, err := h.Vehicles.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := h.Vehicles.GetByIDTx(ctx, tx, id); err != nil {
		if errors.Is(err, repository.ErrVehicleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	open, err := h.Vehicles.CountOpenRecordsTx(ctx, tx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if open > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "vehicle has open rental or maintenance records"})
	}
	if err := h.Vehicles.DeleteTx(ctx, tx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrVehicleNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		case strings.Contains(strings.ToLower(err.Error()), "1451"): // FK: history rows remain
			return c.JSON(http.StatusConflict, echo.Map{"error": "vehicle has rental or maintenance history"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete vehicle failed"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true
	return c.NoContent(http.StatusNoContent)
}
