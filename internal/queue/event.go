// Package queue defines message payloads exchanged over the message broker.
package queue

// RentalBookedEvent is published when a rental is successfully booked.
// It carries enough information for downstream consumers to log, notify
// or feed analytics without querying the primary database.
type RentalBookedEvent struct {
	EventID        string `json:"event_id"`
	RentalID       uint64 `json:"rental_id"`
	CustomerID     uint64 `json:"customer_id"`
	CustomerName   string `json:"customer_name"`
	VehicleID      uint64 `json:"vehicle_id"`
	Make           string `json:"make"`
	Model          string `json:"model"`
	Registration   string `json:"registration"`
	RentalDate     string `json:"rental_date"`
	ReturnDate     string `json:"return_date,omitempty"`
	TotalCostCents int64  `json:"total_cost_cents"`
	BookedAt       string `json:"booked_at"`
}
