package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/service"
)

func TestFindCandidateNearestWins(t *testing.T) {
	e := newEnv(t)
	e.seedDriver("far-driver", domain.VehicleEconomy, 13.00, 77.62)
	e.seedDriver("near-driver", domain.VehicleEconomy, 12.972, 77.595)

	candidate, err := e.match.FindCandidate(context.Background(), 12.9716, 77.5946, domain.VehicleEconomy)
	if err != nil {
		t.Fatalf("FindCandidate: %v", err)
	}
	if candidate == nil {
		t.Fatal("no candidate, want near-driver")
	}
	if candidate.Profile.UserID != "near-driver" {
		t.Errorf("candidate = %s, want near-driver", candidate.Profile.UserID)
	}
}

func TestFindCandidateClassFilter(t *testing.T) {
	e := newEnv(t)
	// The economy driver is nearer but cannot serve an SUV request.
	e.seedDriver("economy-driver", domain.VehicleEconomy, 12.972, 77.595)
	e.seedDriver("suv-driver", domain.VehicleSUV, 12.99, 77.61)

	candidate, err := e.match.FindCandidate(context.Background(), 12.9716, 77.5946, domain.VehicleSUV)
	if err != nil {
		t.Fatalf("FindCandidate: %v", err)
	}
	if candidate == nil || candidate.Profile.UserID != "suv-driver" {
		t.Fatalf("candidate = %+v, want suv-driver", candidate)
	}

	// A premium driver serves economy requests too.
	e2 := newEnv(t)
	e2.seedDriver("premium-driver", domain.VehiclePremium, 12.972, 77.595)
	candidate, err = e2.match.FindCandidate(context.Background(), 12.9716, 77.5946, domain.VehicleEconomy)
	if err != nil {
		t.Fatalf("FindCandidate: %v", err)
	}
	if candidate == nil || candidate.Profile.UserID != "premium-driver" {
		t.Fatalf("candidate = %+v, want premium-driver", candidate)
	}
}

func TestFindCandidateSkipsUnavailable(t *testing.T) {
	e := newEnv(t)
	busy := e.seedDriver("busy-driver", domain.VehicleEconomy, 12.972, 77.595)
	busy.IsAvailable = false
	e.store.AddDriver(busy)
	e.seedDriver("free-driver", domain.VehicleEconomy, 12.99, 77.61)

	candidate, err := e.match.FindCandidate(context.Background(), 12.9716, 77.5946, domain.VehicleEconomy)
	if err != nil {
		t.Fatalf("FindCandidate: %v", err)
	}
	if candidate == nil || candidate.Profile.UserID != "free-driver" {
		t.Fatalf("candidate = %+v, want free-driver", candidate)
	}
}

func TestFindCandidateSkipsDriversWithActiveRide(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 100)
	e.seedDriver("active-driver", domain.VehicleEconomy, 12.972, 77.595)
	e.seedDriver("idle-driver", domain.VehicleEconomy, 12.99, 77.61)
	e.seedRide("ride-1", "rider-1", "active-driver", domain.RideStatusInProgress, 80)

	candidate, err := e.match.FindCandidate(context.Background(), 12.9716, 77.5946, domain.VehicleEconomy)
	if err != nil {
		t.Fatalf("FindCandidate: %v", err)
	}
	if candidate == nil || candidate.Profile.UserID != "idle-driver" {
		t.Fatalf("candidate = %+v, want idle-driver", candidate)
	}
}

func TestFindCandidateTieBreakByLowestID(t *testing.T) {
	e := newEnv(t)
	// Identical positions, so equal distance; the lower id wins.
	e.seedDriver("driver-b", domain.VehicleEconomy, 12.972, 77.595)
	e.seedDriver("driver-a", domain.VehicleEconomy, 12.972, 77.595)

	for i := 0; i < 5; i++ {
		candidate, err := e.match.FindCandidate(context.Background(), 12.9716, 77.5946, domain.VehicleEconomy)
		if err != nil {
			t.Fatalf("FindCandidate: %v", err)
		}
		if candidate == nil || candidate.Profile.UserID != "driver-a" {
			t.Fatalf("candidate = %+v, want driver-a every time", candidate)
		}
	}
}

func TestFindCandidateNobodyInRange(t *testing.T) {
	e := newEnv(t)
	// Roughly 12 km away, outside the 5 km radius.
	e.seedDriver("far-driver", domain.VehicleEconomy, 13.08, 77.60)

	candidate, err := e.match.FindCandidate(context.Background(), 12.9716, 77.5946, domain.VehicleEconomy)
	if err != nil {
		t.Fatalf("FindCandidate: %v", err)
	}
	if candidate != nil {
		t.Errorf("candidate = %+v, want nil", candidate)
	}
}

func TestFindCandidateDoesNotMutate(t *testing.T) {
	e := newEnv(t)
	e.seedDriver("driver-1", domain.VehicleEconomy, 12.972, 77.595)

	if _, err := e.match.FindCandidate(context.Background(), 12.9716, 77.5946, domain.VehicleEconomy); err != nil {
		t.Fatalf("FindCandidate: %v", err)
	}

	profile := e.store.Driver("driver-1")
	if !profile.IsAvailable {
		t.Error("matching flipped driver availability")
	}
	if e.store.BeginCallCount != 0 {
		t.Errorf("matching opened %d transactions, want 0", e.store.BeginCallCount)
	}
}

func TestFindCandidateValidation(t *testing.T) {
	e := newEnv(t)

	if _, err := e.match.FindCandidate(context.Background(), 120, 77.59, domain.VehicleEconomy); !errors.Is(err, service.ErrInvalidPickupLocation) {
		t.Errorf("bad coords error = %v, want ErrInvalidPickupLocation", err)
	}
	if _, err := e.match.FindCandidate(context.Background(), 12.97, 77.59, "SCOOTER"); !errors.Is(err, service.ErrInvalidVehicleType) {
		t.Errorf("bad type error = %v, want ErrInvalidVehicleType", err)
	}
}

func TestAutoAssign(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 100)
	e.seedDriver("driver-1", domain.VehicleEconomy, 12.972, 77.595)
	e.seedRide("ride-1", "rider-1", "", domain.RideStatusPending, 80)

	ride, err := e.rides.AutoAssign(context.Background(), "ride-1")
	if err != nil {
		t.Fatalf("AutoAssign: %v", err)
	}
	if ride.Status != domain.RideStatusAccepted || ride.DriverID != "driver-1" {
		t.Errorf("ride = %+v, want ACCEPTED by driver-1", ride)
	}
}

func TestAutoAssignRideAlreadyBeingMatched(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 100)
	e.seedDriver("driver-1", domain.VehicleEconomy, 12.972, 77.595)
	e.seedRide("ride-1", "rider-1", "", domain.RideStatusPending, 80)

	locked, err := e.locks.AcquireRideLock(context.Background(), "ride-1", time.Second)
	if err != nil || !locked {
		t.Fatalf("AcquireRideLock = %v, %v", locked, err)
	}

	if _, err := e.rides.AutoAssign(context.Background(), "ride-1"); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("error = %v, want ErrInvalidTransition", err)
	}
	if got := e.store.Ride("ride-1").Status; got != domain.RideStatusPending {
		t.Errorf("status = %s, want PENDING untouched", got)
	}

	if err := e.locks.ReleaseRideLock(context.Background(), "ride-1"); err != nil {
		t.Fatalf("ReleaseRideLock: %v", err)
	}
	ride, err := e.rides.AutoAssign(context.Background(), "ride-1")
	if err != nil {
		t.Fatalf("AutoAssign after release: %v", err)
	}
	if ride.DriverID != "driver-1" {
		t.Errorf("driver id = %q, want driver-1", ride.DriverID)
	}
}

func TestAutoAssignNoDriver(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 100)
	e.seedRide("ride-1", "rider-1", "", domain.RideStatusPending, 80)

	_, err := e.rides.AutoAssign(context.Background(), "ride-1")
	if !errors.Is(err, service.ErrNoDriverAvailable) {
		t.Errorf("error = %v, want ErrNoDriverAvailable", err)
	}
	if got := e.store.Ride("ride-1").Status; got != domain.RideStatusPending {
		t.Errorf("status = %s, want PENDING untouched", got)
	}
}
