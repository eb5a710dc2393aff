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

// MaintenanceHandler serves the maintenance lifecycle. Same
// transactional shape as rentals: record write plus guarded vehicle
// status write, all or nothing.
type MaintenanceHandler struct {
	Maintenance *repository.MaintenanceRepo
	Vehicles    *repository.VehicleRepo
	Rentals     *repository.RentalRepo
}

func NewMaintenanceHandler(m *repository.MaintenanceRepo, v *repository.VehicleRepo, r *repository.RentalRepo) *MaintenanceHandler {
	return &MaintenanceHandler{Maintenance: m, Vehicles: v, Rentals: r}
}

type scheduleReq struct {
	Description   string `json:"description"`
	CostCents     int64  `json:"cost_cents"`
	ScheduledDate string `json:"scheduled_date"`
}

type completeReq struct {
	Description   string `json:"description"`
	CostCents     *int64 `json:"cost_cents"`
	CompletedDate string `json:"completed_date"`
}

// List returns all maintenance records expanded with their vehicle. An
// optional ?status= filter narrows the result.
func (h *MaintenanceHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	records, err := h.Maintenance.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))
	if status == "" {
		return c.JSON(http.StatusOK, records)
	}
	filtered := make([]repository.MaintenanceDetail, 0, len(records))
	for _, r := range records {
		if r.Status == status {
			filtered = append(filtered, r)
		}
	}
	return c.JSON(http.StatusOK, filtered)
}

// Schedule opens a maintenance record for a vehicle. A rented vehicle
// cannot be serviced: the active-rental count and the AVAILABLE check
// run in the same transaction as the insert, so a booking racing this
// call loses cleanly on one side or the other.
func (h *MaintenanceHandler) Schedule(c echo.Context) error {
	vehicleID, ok := parseID(c, "vehicleId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vehicle id"})
	}
	var req scheduleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "description required"})
	}
	if req.CostCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cost_cents must not be negative"})
	}
	scheduledDate := time.Now().UTC()
	if s := strings.TrimSpace(req.ScheduledDate); s != "" {
		t, err := parseDate(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid scheduled_date"})
		}
		scheduledDate = t
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

	vehicle, err := h.Vehicles.GetByIDTx(ctx, tx, vehicleID)
	if err != nil {
		if errors.Is(err, repository.ErrVehicleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	active, err := h.Rentals.CountActiveForVehicleTx(ctx, tx, vehicle.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if active > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "vehicle is currently rented"})
	}

	if err := h.Vehicles.ChangeStatusTx(ctx, tx, vehicle.ID, model.VehicleAvailable, model.VehicleMaintenance); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "vehicle is not available"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update vehicle failed"})
	}

	rec := model.Maintenance{
		VehicleID:     vehicle.ID,
		Description:   req.Description,
		CostCents:     req.CostCents,
		ScheduledDate: scheduledDate,
		Status:        model.MaintenanceScheduled,
	}
	if err := h.Maintenance.CreateTx(ctx, tx, &rec); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create maintenance failed"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true
	return c.JSON(http.StatusCreated, rec)
}

// Complete closes an open maintenance record, optionally overriding the
// description, cost and completion date, and re-derives the vehicle
// status from the records still claiming it.
func (h *MaintenanceHandler) Complete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req completeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
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

	rec, err := h.Maintenance.GetByIDTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMaintenanceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "maintenance record not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if rec.Status == model.MaintenanceCompleted {
		return c.JSON(http.StatusConflict, echo.Map{"error": "maintenance already completed"})
	}

	if d := strings.TrimSpace(req.Description); d != "" {
		rec.Description = d
	}
	if req.CostCents != nil {
		if *req.CostCents < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "cost_cents must not be negative"})
		}
		rec.CostCents = *req.CostCents
	}
	completedAt := time.Now().UTC()
	if s := strings.TrimSpace(req.CompletedDate); s != "" {
		t, err := parseDate(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid completed_date"})
		}
		completedAt = t
	}
	rec.CompletedDate = &completedAt
	rec.Status = model.MaintenanceCompleted

	if err := h.Maintenance.CompleteTx(ctx, tx, &rec); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update maintenance failed"})
	}

	next, err := h.Vehicles.ResolveStatusTx(ctx, tx, rec.VehicleID, 0, rec.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Vehicles.SetStatusTx(ctx, tx, rec.VehicleID, next); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update vehicle failed"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true
	return c.JSON(http.StatusOK, rec)
}

// Delete removes a maintenance record. Deleting an open record releases
// its claim, so the vehicle status is re-derived inside the same
// transaction.
func (h *MaintenanceHandler) Delete(c echo.Context) error {
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

	rec, err := h.Maintenance.GetByIDTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMaintenanceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "maintenance record not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if err := h.Maintenance.DeleteTx(ctx, tx, rec.ID); err != nil {
		if errors.Is(err, repository.ErrMaintenanceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "maintenance record not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete maintenance failed"})
	}

	next, err := h.Vehicles.ResolveStatusTx(ctx, tx, rec.VehicleID, 0, rec.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Vehicles.SetStatusTx(ctx, tx, rec.VehicleID, next); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update vehicle failed"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true
	return c.NoContent(http.StatusNoContent)
}
