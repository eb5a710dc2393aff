// Package repository implements the data access layer on top of
// database/sql. This file defines sentinel error values shared across
// repositories so handlers can map failures to HTTP statuses without
// inspecting SQL errors.
package repository

import "errors"

// ErrVehicleNotFound is returned when a vehicle reference does not
// resolve. Handlers translate this into 404.
var ErrVehicleNotFound = errors.New("vehicle not found")

// ErrCustomerNotFound is returned when a customer reference does not
// resolve. Handlers translate this into 404.
var ErrCustomerNotFound = errors.New("customer not found")

// ErrRentalNotFound is returned when a rental reference does not
// resolve, including the second delete of an already-cancelled rental.
var ErrRentalNotFound = errors.New("rental not found")

// ErrMaintenanceNotFound is returned when a maintenance record
// reference does not resolve.
var ErrMaintenanceNotFound = errors.New("maintenance record not found")

// ErrStatusConflict is returned when a guarded vehicle status
// transition matches zero rows, i.e. the vehicle was not in the
// expected prior state. Handlers translate this into 409 and roll the
// surrounding transaction back, so a lost race never writes anything.
var ErrStatusConflict = errors.New("vehicle status conflict")

// ErrConflict is returned when an operation cannot proceed because of
// dependent records, such as deleting a vehicle that still has an open
// rental or maintenance record. Handlers translate this into 409.
var ErrConflict = errors.New("conflict")
