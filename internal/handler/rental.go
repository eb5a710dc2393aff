package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fleett/fleett-api/internal/model"
	"github.com/fleett/fleett-api/internal/queue"
	"github.com/fleett/fleett-api/internal/repository"
	queue_publisher "github.com/fleett/fleett-api/internal/service"
)

// RentalHandler serves the rental lifecycle. Every mutation here pairs
// a rental write with a guarded vehicle status write inside one
// transaction: if either side fails, the whole operation rolls back and
// the database keeps a consistent view of which records claim which
// vehicles.
type RentalHandler struct {
	Rentals     *repository.RentalRepo
	Vehicles    *repository.VehicleRepo
	Customers   *repository.CustomerRepo
	Maintenance *repository.MaintenanceRepo
}

func NewRentalHandler(r *repository.RentalRepo, v *repository.VehicleRepo, c *repository.CustomerRepo, m *repository.MaintenanceRepo) *RentalHandler {
	return &RentalHandler{Rentals: r, Vehicles: v, Customers: c, Maintenance: m}
}

type rentReq struct {
	CustomerID     uint64 `json:"customer_id"`
	VehicleID      uint64 `json:"vehicle_id"`
	RentalDate     string `json:"rental_date"`
	ReturnDate     string `json:"return_date"`
	TotalCostCents int64  `json:"total_cost_cents"`
}

// List returns all rentals expanded with customer and vehicle. An
// optional ?status= filter narrows the result; PENDING and OVERDUE are
// accepted for older clients even though no code path assigns them.
func (h *RentalHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	rentals, err := h.Rentals.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))
	if status == "" {
		return c.JSON(http.StatusOK, rentals)
	}
	filtered := make([]repository.RentalDetail, 0, len(rentals))
	for _, r := range rentals {
		if r.Status == status {
			filtered = append(filtered, r)
		}
	}
	return c.JSON(http.StatusOK, filtered)
}

// ListByCustomer returns one customer's rentals expanded with customer
// and vehicle, newest first.
func (h *RentalHandler) ListByCustomer(c echo.Context) error {
	id, ok := parseID(c, "customerId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Customers.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	rentals, err := h.Rentals.ListByCustomer(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, rentals)
}

// Rent books a vehicle for a customer. The booking succeeds only if the
// vehicle is AVAILABLE at commit time: the status transition is a
// conditional update inside the same transaction as the rental insert,
// so two concurrent bookings of one vehicle cannot both go through.
func (h *RentalHandler) Rent(c echo.Context) error {
	var req rentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.CustomerID == 0 || req.VehicleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer_id/vehicle_id required"})
	}
	if req.TotalCostCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_cost_cents must not be negative"})
	}
	rentalDate := time.Now().UTC()
	if s := strings.TrimSpace(req.RentalDate); s != "" {
		t, err := parseDate(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid rental_date"})
		}
		rentalDate = t
	}
	var returnDate *time.Time
	if s := strings.TrimSpace(req.ReturnDate); s != "" {
		t, err := parseDate(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid return_date"})
		}
		if t.Before(rentalDate) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "return_date before rental_date"})
		}
		returnDate = &t
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

	exists, err := h.Customers.ExistsTx(ctx, tx, req.CustomerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !exists {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
	}

	vehicle, err := h.Vehicles.GetByIDTx(ctx, tx, req.VehicleID)
	if err != nil {
		if errors.Is(err, repository.ErrVehicleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if err := h.Vehicles.ChangeStatusTx(ctx, tx, vehicle.ID, model.VehicleAvailable, model.VehicleRented); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "vehicle is not available"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update vehicle failed"})
	}

	rental := model.Rental{
		CustomerID:     req.CustomerID,
		VehicleID:      vehicle.ID,
		RentalDate:     rentalDate,
		ReturnDate:     returnDate,
		TotalCostCents: req.TotalCostCents,
		Status:         model.RentalActive,
	}
	if err := h.Rentals.CreateTx(ctx, tx, &rental); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create rental failed"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	// Publish after commit, best effort. A broker outage must not fail
	// a booking that is already durable.
	customer, cerr := h.Customers.GetByID(ctx, rental.CustomerID)
	ev := queue.RentalBookedEvent{
		RentalID:       rental.ID,
		CustomerID:     rental.CustomerID,
		VehicleID:      vehicle.ID,
		Make:           vehicle.Make,
		Model:          vehicle.Model,
		Registration:   vehicle.RegistrationNumber,
		RentalDate:     rental.RentalDate.Format(time.RFC3339),
		TotalCostCents: rental.TotalCostCents,
	}
	if cerr == nil {
		ev.CustomerName = customer.Name
	}
	if rental.ReturnDate != nil {
		ev.ReturnDate = rental.ReturnDate.Format(time.RFC3339)
	}
	go func() {
		pctx, pcancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pcancel()
		_ = queue_publisher.PublishRentalBooked(pctx, ev)
	}()

	return c.JSON(http.StatusCreated, rental)
}

// Return closes an active rental. The vehicle's next status is derived
// from whatever records still claim it, so returning a car that was
// meanwhile scheduled for service parks it in MAINTENANCE, not
// AVAILABLE.
func (h *RentalHandler) Return(c echo.Context) error {
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

	rental, err := h.Rentals.GetByIDTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRentalNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "rental not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if rental.Status != model.RentalActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "rental is not active"})
	}

	now := time.Now().UTC()
	if err := h.Rentals.MarkReturnedTx(ctx, tx, rental.ID, now); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update rental failed"})
	}

	next, err := h.Vehicles.ResolveStatusTx(ctx, tx, rental.VehicleID, rental.ID, 0)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Vehicles.SetStatusTx(ctx, tx, rental.VehicleID, next); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update vehicle failed"})
	}

	updated, err := h.Rentals.GetByIDTx(ctx, tx, rental.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true
	return c.JSON(http.StatusOK, updated)
}

// Cancel hard-deletes a rental and re-derives the vehicle status. The
// delete matches zero rows on a repeat call, so cancelling twice yields
// 404 and the vehicle is never freed twice.
func (h *RentalHandler) Cancel(c echo.Context) error {
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

	rental, err := h.Rentals.GetByIDTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRentalNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "rental not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if err := h.Rentals.DeleteTx(ctx, tx, rental.ID); err != nil {
		if errors.Is(err, repository.ErrRentalNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "rental not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete rental failed"})
	}

	next, err := h.Vehicles.ResolveStatusTx(ctx, tx, rental.VehicleID, rental.ID, 0)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Vehicles.SetStatusTx(ctx, tx, rental.VehicleID, next); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update vehicle failed"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true
	return c.NoContent(http.StatusNoContent)
}
