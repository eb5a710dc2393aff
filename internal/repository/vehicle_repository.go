package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fleett/fleett-api/internal/model"
)

// VehicleRepo encapsulates persistence for vehicles, including the
// guarded status transitions that keep a vehicle's status consistent
// with its open rental/maintenance records. Status is never written
// unconditionally from a lifecycle handler: transitions out of
// AVAILABLE go through ChangeStatusTx (compare-and-set on the status
// column) and reverts go through ResolveStatusTx + SetStatusTx so the
// new value is derived from the records that still claim the vehicle.
type VehicleRepo struct {
	db *sql.DB
}

// NewVehicleRepo returns a new VehicleRepo bound to the given database.
func NewVehicleRepo(db *sql.DB) *VehicleRepo { return &VehicleRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions
// that span vehicles and their related records.
func (r *VehicleRepo) DB() *sql.DB { return r.db }

const vehicleColumns = `id, make, model, year, category, registration_number, price_per_day_cents, status, created_at, updated_at`

func scanVehicle(row *sql.Row) (model.Vehicle, error) {
	var v model.Vehicle
	err := row.Scan(&v.ID, &v.Make, &v.Model, &v.Year, &v.Category,
		&v.RegistrationNumber, &v.PricePerDayCents, &v.Status, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

// Create inserts a vehicle and populates its generated ID. New vehicles
// start AVAILABLE unless the caller provides a valid status.
func (r *VehicleRepo) Create(ctx context.Context, v *model.Vehicle) error {
	if !model.ValidVehicleStatus(v.Status) {
		v.Status = model.VehicleAvailable
	}
	const q = `INSERT INTO vehicles (make, model, year, category, registration_number, price_per_day_cents, status) VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, v.Make, v.Model, v.Year, v.Category,
		v.RegistrationNumber, v.PricePerDayCents, v.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	return nil
}

// GetByID fetches a single vehicle. Returns ErrVehicleNotFound when no
// row matches.
func (r *VehicleRepo) GetByID(ctx context.Context, id uint64) (model.Vehicle, error) {
	const q = `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = ?`
	v, err := scanVehicle(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Vehicle{}, ErrVehicleNotFound
	}
	return v, err
}

// GetByIDTx is GetByID within an existing transaction.
func (r *VehicleRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Vehicle, error) {
	const q = `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = ?`
	v, err := scanVehicle(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Vehicle{}, ErrVehicleNotFound
	}
	return v, err
}

// List returns all vehicles ordered by id.
func (r *VehicleRepo) List(ctx context.Context) ([]model.Vehicle, error) {
	const q = `SELECT ` + vehicleColumns + ` FROM vehicles ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Vehicle, 0)
	for rows.Next() {
		var v model.Vehicle
		if err := rows.Scan(&v.ID, &v.Make, &v.Model, &v.Year, &v.Category,
			&v.RegistrationNumber, &v.PricePerDayCents, &v.Status, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Update rewrites the descriptive fields of a vehicle. Status is not
// updated here; status belongs to the lifecycle transitions below.
func (r *VehicleRepo) Update(ctx context.Context, v *model.Vehicle) error {
	const q = `UPDATE vehicles SET make = ?, model = ?, year = ?, category = ?, registration_number = ?, price_per_day_cents = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, v.Make, v.Model, v.Year, v.Category,
		v.RegistrationNumber, v.PricePerDayCents, v.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Row may exist with identical values; distinguish via lookup.
		if _, err := r.GetByID(ctx, v.ID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteTx removes a vehicle within a transaction. The caller is
// responsible for verifying no open records claim it first.
func (r *VehicleRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM vehicles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVehicleNotFound
	}
	return nil
}

// ChangeStatusTx performs a guarded status transition: the UPDATE only
// matches when the vehicle is currently in the expected prior state.
// Zero matched rows means either the vehicle is missing or another
// workflow won the race; the caller distinguishes the two by having
// loaded the vehicle earlier in the same transaction, so here it is
// reported as ErrStatusConflict.
func (r *VehicleRepo) ChangeStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to string) error {
	const q = `UPDATE vehicles SET status = ? WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, to, id, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStatusConflict
	}
	return nil
}

// SetStatusTx writes a status that was derived by ResolveStatusTx. It
// must only be called with the result of a resolve performed in the
// same transaction.
func (r *VehicleRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx, `UPDATE vehicles SET status = ? WHERE id = ?`, status, id)
	return err
}

// ResolveStatusTx re-derives a vehicle's status from the open records
// that still reference it, excluding the record currently being closed
// (pass 0 to exclude nothing). An open maintenance record wins
// MAINTENANCE, else an active rental wins RENTED, else the vehicle is
// AVAILABLE. Reverts must go through this instead of blindly writing
// AVAILABLE so that e.g. returning a rental does not clear a
// maintenance claim that arrived in the meantime.
func (r *VehicleRepo) ResolveStatusTx(ctx context.Context, tx *sql.Tx, vehicleID, excludeRentalID, excludeMaintenanceID uint64) (string, error) {
	var openMaintenance int
	const mq = `SELECT COUNT(*) FROM maintenance_records WHERE vehicle_id = ? AND status = 'SCHEDULED' AND id <> ?`
	if err := tx.QueryRowContext(ctx, mq, vehicleID, excludeMaintenanceID).Scan(&openMaintenance); err != nil {
		return "", err
	}
	if openMaintenance > 0 {
		return model.VehicleMaintenance, nil
	}
	var activeRentals int
	const rq = `SELECT COUNT(*) FROM rentals WHERE vehicle_id = ? AND status = 'ACTIVE' AND id <> ?`
	if err := tx.QueryRowContext(ctx, rq, vehicleID, excludeRentalID).Scan(&activeRentals); err != nil {
		return "", err
	}
	if activeRentals > 0 {
		return model.VehicleRented, nil
	}
	return model.VehicleAvailable, nil
}

// CountOpenRecordsTx counts open rentals plus open maintenance records
// for a vehicle. Used before deleting a vehicle.
func (r *VehicleRepo) CountOpenRecordsTx(ctx context.Context, tx *sql.Tx, vehicleID uint64) (int, error) {
	var open int
	const q = `SELECT
        (SELECT COUNT(*) FROM rentals WHERE vehicle_id = ? AND status = 'ACTIVE') +
        (SELECT COUNT(*) FROM maintenance_records WHERE vehicle_id = ? AND status = 'SCHEDULED')`
	err := tx.QueryRowContext(ctx, q, vehicleID, vehicleID).Scan(&open)
	return open, err
}

// CategoryAveragePrice returns the average daily price across all
// vehicles in a category. Zero with no error when the category is
// empty.
func (r *VehicleRepo) CategoryAveragePrice(ctx context.Context, category string) (float64, error) {
	var avg sql.NullFloat64
	const q = `SELECT AVG(price_per_day_cents) FROM vehicles WHERE category = ?`
	if err := r.db.QueryRowContext(ctx, q, category).Scan(&avg); err != nil {
		return 0, err
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}
