package model

import "time"

// Vehicle status literals. Status is the single piece of shared mutable
// state in the system: rentals and maintenance records flip it in
// lockstep with their own lifecycle, always through a guarded
// conditional update (see repository.VehicleRepo).
const (
	VehicleAvailable   = "AVAILABLE"
	VehicleRented      = "RENTED"
	VehicleMaintenance = "MAINTENANCE"
)

// Vehicle mirrors the `vehicles` table. Prices are stored in cents to
// avoid floating point money.
//
// Fields:
//  ID                 – primary key identifier.
//  Make               – manufacturer (e.g. Bentley).
//  Model              – model name.
//  Year               – model year.
//  Category           – fuel category (PETROL, DIESEL, HYBRID, ELECTRIC).
//  RegistrationNumber – unique plate/registration.
//  PricePerDayCents   – daily rental price in cents.
//  Status             – one of the Vehicle* constants above.
//  CreatedAt          – creation timestamp.
//  UpdatedAt          – last update timestamp.
type Vehicle struct {
	ID                 uint64    `json:"id"`
	Make               string    `json:"make"`
	Model              string    `json:"model"`
	Year               uint16    `json:"year"`
	Category           string    `json:"category"`
	RegistrationNumber string    `json:"registration_number"`
	PricePerDayCents   int64     `json:"price_per_day_cents"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ValidVehicleStatus reports whether s is one of the three vehicle
// status literals.
func ValidVehicleStatus(s string) bool {
	switch s {
	case VehicleAvailable, VehicleRented, VehicleMaintenance:
		return true
	}
	return false
}
