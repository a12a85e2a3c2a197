package tests

import (
	"context"
	"errors"
	"testing"

	"ridehail/internal/domain"
	"ridehail/internal/service"
)

func TestCompleteRideSettles(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 100)
	e.seedDriver("driver-1", domain.VehicleEconomy, 12.97, 77.59)
	e.seedAdmin("platform")
	e.seedRide("ride-1", "rider-1", "driver-1", domain.RideStatusInProgress, 80)

	ride, err := e.rides.CompleteRide(context.Background(), "driver-1", "ride-1", nil)
	if err != nil {
		t.Fatalf("CompleteRide: %v", err)
	}

	if ride.Status != domain.RideStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", ride.Status)
	}
	if ride.FinalFare == nil || *ride.FinalFare != 80 {
		t.Errorf("final fare = %v, want 80 (the estimate)", ride.FinalFare)
	}
	if ride.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}

	// 80 fare, 10% fee: rider pays 80, driver gets 72, platform keeps 8.
	if got := e.store.User("rider-1").WalletBalance; got != 20 {
		t.Errorf("rider balance = %v, want 20", got)
	}
	if got := e.store.User("driver-1").WalletBalance; got != 72 {
		t.Errorf("driver balance = %v, want 72", got)
	}
	if got := e.store.User("platform").WalletBalance; got != 8 {
		t.Errorf("platform balance = %v, want 8", got)
	}

	profile := e.store.Driver("driver-1")
	if profile.TotalRides != 1 {
		t.Errorf("total rides = %d, want 1", profile.TotalRides)
	}
	if !profile.IsAvailable {
		t.Error("driver not freed after completion")
	}
}

func TestCompleteRideFareOverride(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 200)
	e.seedDriver("driver-1", domain.VehicleEconomy, 12.97, 77.59)
	e.seedAdmin("platform")
	e.seedRide("ride-1", "rider-1", "driver-1", domain.RideStatusInProgress, 80)

	override := 100.0
	ride, err := e.rides.CompleteRide(context.Background(), "driver-1", "ride-1", &override)
	if err != nil {
		t.Fatalf("CompleteRide: %v", err)
	}
	if *ride.FinalFare != 100 {
		t.Errorf("final fare = %v, want 100", *ride.FinalFare)
	}
	if got := e.store.User("driver-1").WalletBalance; got != 90 {
		t.Errorf("driver balance = %v, want 90", got)
	}

	negative := -1.0
	e.seedRide("ride-2", "rider-1", "driver-1", domain.RideStatusInProgress, 80)
	if _, err := e.rides.CompleteRide(context.Background(), "driver-1", "ride-2", &negative); !errors.Is(err, service.ErrInvalidFare) {
		t.Errorf("negative override error = %v, want ErrInvalidFare", err)
	}
}

func TestCompleteRideZeroFareOverride(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 200)
	e.seedDriver("driver-1", domain.VehicleEconomy, 12.97, 77.59)
	e.seedAdmin("platform")
	e.seedRide("ride-1", "rider-1", "driver-1", domain.RideStatusInProgress, 80)

	zero := 0.0
	ride, err := e.rides.CompleteRide(context.Background(), "driver-1", "ride-1", &zero)
	if err != nil {
		t.Fatalf("CompleteRide: %v", err)
	}

	if ride.Status != domain.RideStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", ride.Status)
	}
	if *ride.FinalFare != 0 {
		t.Errorf("final fare = %v, want 0", *ride.FinalFare)
	}
	if got := e.store.User("rider-1").WalletBalance; got != 200 {
		t.Errorf("rider balance = %v, want 200", got)
	}
	if got := len(e.store.TransactionsFor("rider-1")); got != 0 {
		t.Errorf("rider entries = %d, want 0", got)
	}
	if got := e.store.Driver("driver-1").TotalRides; got != 1 {
		t.Errorf("total rides = %d, want 1", got)
	}
	if got := e.store.Driver("driver-1").IsAvailable; !got {
		t.Error("driver not freed after completion")
	}
}

func TestCompleteRideInsufficientFunds(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 30)
	e.seedDriver("driver-1", domain.VehicleEconomy, 12.97, 77.59)
	e.seedAdmin("platform")
	e.seedRide("ride-1", "rider-1", "driver-1", domain.RideStatusInProgress, 80)

	_, err := e.rides.CompleteRide(context.Background(), "driver-1", "ride-1", nil)
	if !errors.Is(err, service.ErrInsufficientFunds) {
		t.Fatalf("CompleteRide error = %v, want ErrInsufficientFunds", err)
	}

	// Everything rolled back: ride still in progress, no money moved, no
	// stats bumped.
	ride := e.store.Ride("ride-1")
	if ride.Status != domain.RideStatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", ride.Status)
	}
	if ride.FinalFare != nil {
		t.Errorf("final fare = %v, want unset", *ride.FinalFare)
	}
	if got := e.store.User("rider-1").WalletBalance; got != 30 {
		t.Errorf("rider balance = %v, want 30", got)
	}
	if got := e.store.User("driver-1").WalletBalance; got != 0 {
		t.Errorf("driver balance = %v, want 0", got)
	}
	if got := e.store.Driver("driver-1").TotalRides; got != 0 {
		t.Errorf("total rides = %d, want 0", got)
	}
	if entries := e.store.TransactionsFor("rider-1"); len(entries) != 0 {
		t.Errorf("ledger entries = %d, want 0", len(entries))
	}

	// Topping up lets the same completion go through.
	if _, err := e.ledger.Credit(context.Background(), "rider-1", 100, "wallet top-up"); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if _, err := e.rides.CompleteRide(context.Background(), "driver-1", "ride-1", nil); err != nil {
		t.Fatalf("CompleteRide after top-up: %v", err)
	}
	if got := e.store.Ride("ride-1").Status; got != domain.RideStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", got)
	}
}

func TestCompleteRideTwice(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 500)
	e.seedDriver("driver-1", domain.VehicleEconomy, 12.97, 77.59)
	e.seedAdmin("platform")
	e.seedRide("ride-1", "rider-1", "driver-1", domain.RideStatusInProgress, 80)

	if _, err := e.rides.CompleteRide(context.Background(), "driver-1", "ride-1", nil); err != nil {
		t.Fatalf("CompleteRide: %v", err)
	}
	_, err := e.rides.CompleteRide(context.Background(), "driver-1", "ride-1", nil)
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("second complete error = %v, want ErrInvalidTransition", err)
	}

	// Money moved exactly once.
	if got := e.store.User("rider-1").WalletBalance; got != 420 {
		t.Errorf("rider balance = %v, want 420", got)
	}
	if got := e.store.Driver("driver-1").TotalRides; got != 1 {
		t.Errorf("total rides = %d, want 1", got)
	}
}

func TestCompleteRideWrongDriver(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 500)
	e.seedDriver("driver-1", domain.VehicleEconomy, 12.97, 77.59)
	e.seedDriver("driver-2", domain.VehicleEconomy, 12.98, 77.60)
	e.seedAdmin("platform")
	e.seedRide("ride-1", "rider-1", "driver-1", domain.RideStatusInProgress, 80)

	_, err := e.rides.CompleteRide(context.Background(), "driver-2", "ride-1", nil)
	if !errors.Is(err, service.ErrPermissionDenied) {
		t.Errorf("error = %v, want ErrPermissionDenied", err)
	}
}

func TestCompleteRideWithoutPlatformAccount(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 500)
	e.seedDriver("driver-1", domain.VehicleEconomy, 12.97, 77.59)
	e.seedRide("ride-1", "rider-1", "driver-1", domain.RideStatusInProgress, 80)

	_, err := e.rides.CompleteRide(context.Background(), "driver-1", "ride-1", nil)
	if !errors.Is(err, service.ErrNoPlatformAccount) {
		t.Fatalf("error = %v, want ErrNoPlatformAccount", err)
	}
	if got := e.store.Ride("ride-1").Status; got != domain.RideStatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS after rollback", got)
	}
}

func TestSettlementFeeRounding(t *testing.T) {
	settlement := service.NewSettlementService(0.10)

	testCases := []struct {
		fare float64
		want float64
	}{
		{80, 8},
		{99.99, 10},   // 9.999 rounds to 10.00
		{33.33, 3.33}, // 3.333 rounds to 3.33
		{0, 0},
	}
	for _, tc := range testCases {
		if got := settlement.Fee(tc.fare); got != tc.want {
			t.Errorf("Fee(%v) = %v, want %v", tc.fare, got, tc.want)
		}
	}
}
