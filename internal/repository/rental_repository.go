package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fleett/fleett-api/internal/model"
)

// RentalRepo provides CRUD operations for rentals. Lifecycle mutations
// are transactional because every one of them pairs with a vehicle
// status write; the caller owns the transaction and must commit or roll
// back. Timestamp fields are stored in UTC.
type RentalRepo struct {
	db *sql.DB
}

// NewRentalRepo returns a new RentalRepo bound to the given database.
func NewRentalRepo(db *sql.DB) *RentalRepo { return &RentalRepo{db: db} }

const rentalColumns = `id, customer_id, vehicle_id, rental_date, return_date, total_cost_cents, status, created_at, updated_at`

// CreateTx inserts a new rental within an existing transaction and
// populates the generated ID and timestamps on the provided record.
func (r *RentalRepo) CreateTx(ctx context.Context, tx *sql.Tx, rec *model.Rental) error {
	const q = `INSERT INTO rentals (customer_id, vehicle_id, rental_date, return_date, total_cost_cents, status) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, rec.CustomerID, rec.VehicleID,
		rec.RentalDate, rec.ReturnDate, rec.TotalCostCents, rec.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	const sel = `SELECT ` + rentalColumns + ` FROM rentals WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, rec.ID).Scan(
		&rec.ID, &rec.CustomerID, &rec.VehicleID, &rec.RentalDate, &rec.ReturnDate,
		&rec.TotalCostCents, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt,
	)
}

// GetByIDTx loads a rental inside a transaction. Returns
// ErrRentalNotFound when no row matches.
func (r *RentalRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Rental, error) {
	const q = `SELECT ` + rentalColumns + ` FROM rentals WHERE id = ?`
	var rec model.Rental
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&rec.ID, &rec.CustomerID, &rec.VehicleID, &rec.RentalDate, &rec.ReturnDate,
		&rec.TotalCostCents, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Rental{}, ErrRentalNotFound
	}
	return rec, err
}

// MarkReturnedTx flips a rental to RETURNED. When the stored return
// date is null it is stamped with the provided time so history never
// carries an open-ended returned rental.
func (r *RentalRepo) MarkReturnedTx(ctx context.Context, tx *sql.Tx, id uint64, returnedAt time.Time) error {
	const q = `UPDATE rentals SET status = 'RETURNED', return_date = COALESCE(return_date, ?) WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, returnedAt, id)
	return err
}

// DeleteTx hard-deletes a rental. The second delete of the same id
// returns ErrRentalNotFound, which makes cancellation idempotent at the
// API level (404, no double free of the vehicle).
func (r *RentalRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM rentals WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRentalNotFound
	}
	return nil
}

// CountActiveForVehicleTx counts ACTIVE rentals claiming a vehicle.
// Used by the maintenance scheduler to reject servicing a rented
// vehicle.
func (r *RentalRepo) CountActiveForVehicleTx(ctx context.Context, tx *sql.Tx, vehicleID uint64) (int, error) {
	var n int
	const q = `SELECT COUNT(*) FROM rentals WHERE vehicle_id = ? AND status = 'ACTIVE'`
	err := tx.QueryRowContext(ctx, q, vehicleID).Scan(&n)
	return n, err
}

// RentalDetail is a rental expanded with its customer and vehicle, the
// shape list endpoints return to the frontend.
type RentalDetail struct {
	model.Rental
	Customer model.Customer `json:"customer"`
	Vehicle  model.Vehicle  `json:"vehicle"`
}

const rentalDetailQuery = `SELECT r.id, r.customer_id, r.vehicle_id, r.rental_date, r.return_date, r.total_cost_cents, r.status, r.created_at, r.updated_at,
       c.id, c.name, c.email, c.phone, c.address, c.created_at, c.updated_at,
       v.id, v.make, v.model, v.year, v.category, v.registration_number, v.price_per_day_cents, v.status, v.created_at, v.updated_at
FROM rentals r
JOIN customers c ON c.id = r.customer_id
JOIN vehicles v ON v.id = r.vehicle_id`

func scanRentalDetails(rows *sql.Rows) ([]RentalDetail, error) {
	defer rows.Close()
	out := make([]RentalDetail, 0)
	for rows.Next() {
		var d RentalDetail
		if err := rows.Scan(
			&d.ID, &d.CustomerID, &d.VehicleID, &d.RentalDate, &d.ReturnDate,
			&d.TotalCostCents, &d.Status, &d.CreatedAt, &d.UpdatedAt,
			&d.Customer.ID, &d.Customer.Name, &d.Customer.Email, &d.Customer.Phone,
			&d.Customer.Address, &d.Customer.CreatedAt, &d.Customer.UpdatedAt,
			&d.Vehicle.ID, &d.Vehicle.Make, &d.Vehicle.Model, &d.Vehicle.Year,
			&d.Vehicle.Category, &d.Vehicle.RegistrationNumber, &d.Vehicle.PricePerDayCents,
			&d.Vehicle.Status, &d.Vehicle.CreatedAt, &d.Vehicle.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// List returns all rentals expanded with customer and vehicle, newest
// first.
func (r *RentalRepo) List(ctx context.Context) ([]RentalDetail, error) {
	rows, err := r.db.QueryContext(ctx, rentalDetailQuery+` ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, err
	}
	return scanRentalDetails(rows)
}

// ListByCustomer returns one customer's rentals expanded with customer
// and vehicle, newest first.
func (r *RentalRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]RentalDetail, error) {
	rows, err := r.db.QueryContext(ctx, rentalDetailQuery+` WHERE r.customer_id = ? ORDER BY r.created_at DESC`, customerID)
	if err != nil {
		return nil, err
	}
	return scanRentalDetails(rows)
}

// ListByVehicle returns the plain rental history of one vehicle, used
// by the vehicle detail endpoint.
func (r *RentalRepo) ListByVehicle(ctx context.Context, vehicleID uint64) ([]model.Rental, error) {
	const q = `SELECT ` + rentalColumns + ` FROM rentals WHERE vehicle_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Rental, 0)
	for rows.Next() {
		var rec model.Rental
		if err := rows.Scan(
			&rec.ID, &rec.CustomerID, &rec.VehicleID, &rec.RentalDate, &rec.ReturnDate,
			&rec.TotalCostCents, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
