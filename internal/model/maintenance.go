package model

import "time"

// Maintenance status literals. A SCHEDULED record is "open" and claims
// its vehicle; COMPLETED records are history.
const (
	MaintenanceScheduled = "SCHEDULED"
	MaintenanceCompleted = "COMPLETED"
)

// Maintenance mirrors the `maintenance_records` table.
//
// Fields:
//  ID            – primary key identifier.
//  VehicleID     – vehicle being serviced.
//  Description   – free-form description of the work.
//  CostCents     – service cost in cents.
//  ScheduledDate – when the work is planned.
//  CompletedDate – when the work finished (nullable while open).
//  Status        – SCHEDULED or COMPLETED.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Maintenance struct {
	ID            uint64     `json:"id"`
	VehicleID     uint64     `json:"vehicle_id"`
	Description   string     `json:"description"`
	CostCents     int64      `json:"cost_cents"`
	ScheduledDate time.Time  `json:"scheduled_date"`
	CompletedDate *time.Time `json:"completed_date"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
