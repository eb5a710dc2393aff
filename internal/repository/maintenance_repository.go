package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fleett/fleett-api/internal/model"
)

// MaintenanceRepo provides CRUD operations for maintenance records.
// Like rentals, every lifecycle mutation pairs with a vehicle status
// write and therefore runs inside a caller-owned transaction.
type MaintenanceRepo struct {
	db *sql.DB
}

// NewMaintenanceRepo returns a new MaintenanceRepo bound to the given
// database.
func NewMaintenanceRepo(db *sql.DB) *MaintenanceRepo { return &MaintenanceRepo{db: db} }

const maintenanceColumns = `id, vehicle_id, description, cost_cents, scheduled_date, completed_date, status, created_at, updated_at`

// CreateTx inserts a new maintenance record within an existing
// transaction and populates the generated ID and timestamps.
func (r *MaintenanceRepo) CreateTx(ctx context.Context, tx *sql.Tx, rec *model.Maintenance) error {
	const q = `INSERT INTO maintenance_records (vehicle_id, description, cost_cents, scheduled_date, status) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, rec.VehicleID, rec.Description, rec.CostCents,
		rec.ScheduledDate, rec.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	const sel = `SELECT ` + maintenanceColumns + ` FROM maintenance_records WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, rec.ID).Scan(
		&rec.ID, &rec.VehicleID, &rec.Description, &rec.CostCents, &rec.ScheduledDate,
		&rec.CompletedDate, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt,
	)
}

// GetByIDTx loads a maintenance record inside a transaction. Returns
// ErrMaintenanceNotFound when no row matches.
func (r *MaintenanceRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Maintenance, error) {
	const q = `SELECT ` + maintenanceColumns + ` FROM maintenance_records WHERE id = ?`
	var rec model.Maintenance
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&rec.ID, &rec.VehicleID, &rec.Description, &rec.CostCents, &rec.ScheduledDate,
		&rec.CompletedDate, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Maintenance{}, ErrMaintenanceNotFound
	}
	return rec, err
}

// CompleteTx marks a record COMPLETED, writing the completed date and
// any description/cost overrides the caller applied to rec.
func (r *MaintenanceRepo) CompleteTx(ctx context.Context, tx *sql.Tx, rec *model.Maintenance) error {
	const q = `UPDATE maintenance_records SET status = 'COMPLETED', completed_date = ?, description = ?, cost_cents = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, rec.CompletedDate, rec.Description, rec.CostCents, rec.ID)
	return err
}

// DeleteTx hard-deletes a maintenance record.
func (r *MaintenanceRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM maintenance_records WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMaintenanceNotFound
	}
	return nil
}

// MaintenanceDetail is a maintenance record expanded with its vehicle.
type MaintenanceDetail struct {
	model.Maintenance
	Vehicle model.Vehicle `json:"vehicle"`
}

// List returns all maintenance records expanded with their vehicle,
// newest first.
func (r *MaintenanceRepo) List(ctx context.Context) ([]MaintenanceDetail, error) {
	const q = `SELECT m.id, m.vehicle_id, m.description, m.cost_cents, m.scheduled_date, m.completed_date, m.status, m.created_at, m.updated_at,
       v.id, v.make, v.model, v.year, v.category, v.registration_number, v.price_per_day_cents, v.status, v.created_at, v.updated_at
FROM maintenance_records m
JOIN vehicles v ON v.id = m.vehicle_id
ORDER BY m.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]MaintenanceDetail, 0)
	for rows.Next() {
		var d MaintenanceDetail
		if err := rows.Scan(
			&d.ID, &d.VehicleID, &d.Description, &d.CostCents, &d.ScheduledDate,
			&d.CompletedDate, &d.Status, &d.CreatedAt, &d.UpdatedAt,
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

// ListByVehicle returns the plain maintenance history of one vehicle,
// used by the vehicle detail endpoint.
func (r *MaintenanceRepo) ListByVehicle(ctx context.Context, vehicleID uint64) ([]model.Maintenance, error) {
	const q = `SELECT ` + maintenanceColumns + ` FROM maintenance_records WHERE vehicle_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Maintenance, 0)
	for rows.Next() {
		var rec model.Maintenance
		if err := rows.Scan(
			&rec.ID, &rec.VehicleID, &rec.Description, &rec.CostCents, &rec.ScheduledDate,
			&rec.CompletedDate, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
