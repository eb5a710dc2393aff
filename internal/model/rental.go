package model

import "time"

// Rental status literals. Only ACTIVE and RETURNED are ever written by
// the lifecycle handlers; PENDING and OVERDUE are accepted in list
// filters for compatibility with older clients but no code path assigns
// them.
const (
	RentalActive   = "ACTIVE"
	RentalReturned = "RETURNED"
	RentalPending  = "PENDING"
	RentalOverdue  = "OVERDUE"
)

// Rental mirrors the `rentals` table. A rental references one customer
// and one vehicle; while its status is ACTIVE it claims the vehicle.
//
// Fields:
//  ID             – primary key identifier.
//  CustomerID     – renting customer.
//  VehicleID      – rented vehicle.
//  RentalDate     – start of the rental period.
//  ReturnDate     – end of the rental period (nullable while unknown).
//  TotalCostCents – agreed total price in cents.
//  Status         – ACTIVE or RETURNED.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Rental struct {
	ID             uint64     `json:"id"`
	CustomerID     uint64     `json:"customer_id"`
	VehicleID      uint64     `json:"vehicle_id"`
	RentalDate     time.Time  `json:"rental_date"`
	ReturnDate     *time.Time `json:"return_date"`
	TotalCostCents int64      `json:"total_cost_cents"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
