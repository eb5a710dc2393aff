package model

import "testing"

func TestValidVehicleStatus(t *testing.T) {
	for _, s := range []string{VehicleAvailable, VehicleRented, VehicleMaintenance} {
		if !ValidVehicleStatus(s) {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	for _, s := range []string{"", "available", "UNDER_MAINTENANCE", "SOLD"} {
		if ValidVehicleStatus(s) {
			t.Fatalf("expected %q to be invalid", s)
		}
	}
}
