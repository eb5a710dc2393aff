package repository

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"time"

	"github.com/fleett/fleett-api/internal/model"
)

// ReportRepo serves the read-only aggregation endpoints: monthly sums,
// distributions, rankings and the dashboard widgets. It never mutates
// anything. Monthly sums are reduced in Go over fetched rows rather
// than grouped in SQL because months are keyed by whichever of
// updated_at/created_at is set, per record.
type ReportRepo struct {
	db *sql.DB
}

// NewReportRepo returns a new ReportRepo bound to the given database.
func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{db: db} }

// MonthKey formats a time as the YYYY-MM bucket used by the monthly
// report maps.
func MonthKey(t time.Time) string { return t.UTC().Format("2006-01") }

// SumByMonth folds (timestamp, cents) pairs into a month-keyed map.
type monthEntry struct {
	At    time.Time
	Cents int64
}

func sumByMonth(entries []monthEntry) map[string]int64 {
	out := make(map[string]int64, len(entries))
	for _, e := range entries {
		out[MonthKey(e.At)] += e.Cents
	}
	return out
}

func (r *ReportRepo) monthlySum(ctx context.Context, q string) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]monthEntry, 0)
	for rows.Next() {
		var e monthEntry
		if err := rows.Scan(&e.Cents, &e.At); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sumByMonth(entries), nil
}

// MonthlyRevenue returns rental revenue summed per YYYY-MM month,
// bucketed by each rental's last-update time.
func (r *ReportRepo) MonthlyRevenue(ctx context.Context) (map[string]int64, error) {
	const q = `SELECT total_cost_cents, COALESCE(updated_at, created_at) FROM rentals WHERE total_cost_cents > 0`
	return r.monthlySum(ctx, q)
}

// MonthlyMaintenanceCost returns maintenance spend summed per YYYY-MM
// month.
func (r *ReportRepo) MonthlyMaintenanceCost(ctx context.Context) (map[string]int64, error) {
	const q = `SELECT cost_cents, COALESCE(updated_at, created_at) FROM maintenance_records WHERE cost_cents > 0`
	return r.monthlySum(ctx, q)
}

// TotalRevenue sums all rental revenue.
func (r *ReportRepo) TotalRevenue(ctx context.Context) (int64, error) {
	var total int64
	const q = `SELECT COALESCE(SUM(total_cost_cents), 0) FROM rentals`
	err := r.db.QueryRowContext(ctx, q).Scan(&total)
	return total, err
}

// TotalMaintenanceCost sums all maintenance spend.
func (r *ReportRepo) TotalMaintenanceCost(ctx context.Context) (int64, error) {
	var total int64
	const q = `SELECT COALESCE(SUM(cost_cents), 0) FROM maintenance_records`
	err := r.db.QueryRowContext(ctx, q).Scan(&total)
	return total, err
}

func (r *ReportRepo) distribution(ctx context.Context, q string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var key sql.NullString
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		k := "UNKNOWN"
		if key.Valid && key.String != "" {
			k = key.String
		}
		out[k] = count
	}
	return out, rows.Err()
}

// CategoryDistribution counts vehicles per fuel category.
func (r *ReportRepo) CategoryDistribution(ctx context.Context) (map[string]int, error) {
	const q = `SELECT category, COUNT(*) FROM vehicles GROUP BY category`
	return r.distribution(ctx, q)
}

// StatusDistribution counts vehicles per status.
func (r *ReportRepo) StatusDistribution(ctx context.Context) (map[string]int, error) {
	const q = `SELECT status, COUNT(*) FROM vehicles GROUP BY status`
	return r.distribution(ctx, q)
}

// ModelCount pairs a vehicle model with how many rentals it has.
type ModelCount struct {
	Model string `json:"model"`
	Count int    `json:"count"`
}

// ModelRentCounts returns rental counts per vehicle model, most rented
// first. Empty slice when no rentals exist.
func (r *ReportRepo) ModelRentCounts(ctx context.Context) ([]ModelCount, error) {
	const q = `SELECT v.model, COUNT(*) AS rentals
FROM rentals r
JOIN vehicles v ON v.id = r.vehicle_id
GROUP BY v.model
ORDER BY rentals DESC, v.model`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ModelCount, 0)
	for rows.Next() {
		var mc ModelCount
		if err := rows.Scan(&mc.Model, &mc.Count); err != nil {
			return nil, err
		}
		out = append(out, mc)
	}
	return out, rows.Err()
}

// RentalCountPerVehicle returns rental counts keyed by vehicle id
// (stringified, matching the wire shape the frontend expects).
func (r *ReportRepo) RentalCountPerVehicle(ctx context.Context) (map[string]int, error) {
	const q = `SELECT vehicle_id, COUNT(*) FROM rentals GROUP BY vehicle_id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var vehicleID uint64
		var count int
		if err := rows.Scan(&vehicleID, &count); err != nil {
			return nil, err
		}
		out[strconv.FormatUint(vehicleID, 10)] = count
	}
	return out, rows.Err()
}

// DashboardCounts carries the headline widget numbers. Vehicles in
// maintenance are counted by the canonical MAINTENANCE status literal.
type DashboardCounts struct {
	TotalVehicles         int `json:"total_vehicles"`
	TotalCustomers        int `json:"total_customers"`
	ActiveRentals         int `json:"active_rentals"`
	VehiclesInMaintenance int `json:"vehicles_in_maintenance"`
}

// CountDashboard gathers the four dashboard counts.
func (r *ReportRepo) CountDashboard(ctx context.Context) (DashboardCounts, error) {
	var c DashboardCounts
	steps := []struct {
		q    string
		dest *int
	}{
		{`SELECT COUNT(*) FROM vehicles`, &c.TotalVehicles},
		{`SELECT COUNT(*) FROM customers`, &c.TotalCustomers},
		{`SELECT COUNT(*) FROM rentals WHERE status = 'ACTIVE'`, &c.ActiveRentals},
		{`SELECT COUNT(*) FROM vehicles WHERE status = 'MAINTENANCE'`, &c.VehiclesInMaintenance},
	}
	for _, s := range steps {
		if err := r.db.QueryRowContext(ctx, s.q).Scan(s.dest); err != nil {
			return DashboardCounts{}, err
		}
	}
	return c, nil
}

// Activity is one entry in the admin recent-activity feed. Type is one
// of RENTAL, MAINTENANCE, CUSTOMER, VEHICLE; the optional fields are
// populated per type.
type Activity struct {
	Type   string    `json:"type"`
	ID     uint64    `json:"id"`
	Date   time.Time `json:"date"`
	Status string    `json:"status,omitempty"`
	Name   string    `json:"name,omitempty"`
	Email  string    `json:"email,omitempty"`
	Make   string    `json:"make,omitempty"`
	Model  string    `json:"model,omitempty"`
}

// RecentActivity merges the latest rentals, maintenance records,
// customers and vehicles into a single feed sorted by recency, capped
// at limit entries. Each source contributes at most limit rows, so the
// merge sees at most 4*limit candidates.
func (r *ReportRepo) RecentActivity(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 5
	}
	out := make([]Activity, 0, 4*limit)

	collect := func(q, typ string, scan func(*sql.Rows) (Activity, error)) error {
		rows, err := r.db.QueryContext(ctx, q, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			a, err := scan(rows)
			if err != nil {
				return err
			}
			a.Type = typ
			out = append(out, a)
		}
		return rows.Err()
	}

	if err := collect(
		`SELECT id, status, COALESCE(updated_at, created_at) FROM rentals ORDER BY updated_at DESC LIMIT ?`,
		"RENTAL",
		func(rows *sql.Rows) (Activity, error) {
			var a Activity
			err := rows.Scan(&a.ID, &a.Status, &a.Date)
			return a, err
		}); err != nil {
		return nil, err
	}
	if err := collect(
		`SELECT id, status, COALESCE(updated_at, created_at) FROM maintenance_records ORDER BY updated_at DESC LIMIT ?`,
		"MAINTENANCE",
		func(rows *sql.Rows) (Activity, error) {
			var a Activity
			err := rows.Scan(&a.ID, &a.Status, &a.Date)
			return a, err
		}); err != nil {
		return nil, err
	}
	if err := collect(
		`SELECT id, name, email, COALESCE(updated_at, created_at) FROM customers ORDER BY updated_at DESC LIMIT ?`,
		"CUSTOMER",
		func(rows *sql.Rows) (Activity, error) {
			var a Activity
			err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Date)
			return a, err
		}); err != nil {
		return nil, err
	}
	if err := collect(
		`SELECT id, make, model, status, COALESCE(updated_at, created_at) FROM vehicles ORDER BY updated_at DESC LIMIT ?`,
		"VEHICLE",
		func(rows *sql.Rows) (Activity, error) {
			var a Activity
			err := rows.Scan(&a.ID, &a.Make, &a.Model, &a.Status, &a.Date)
			return a, err
		}); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AnomalyScore computes price / categoryAveragePrice for a vehicle.
// When the category average is unknown or zero the score defaults to 1.
func AnomalyScore(v model.Vehicle, categoryAvg float64) float64 {
	if categoryAvg <= 0 {
		return 1
	}
	return float64(v.PricePerDayCents) / categoryAvg
}
