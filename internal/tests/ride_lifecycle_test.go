package tests

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ridehail/internal/domain"
	"ridehail/internal/service"
)

func TestCreateRide(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 500)

	ride, err := e.rides.CreateRide(context.Background(), "rider-1", service.CreateRideInput{
		PickupLat:      12.9716,
		PickupLng:      77.5946,
		DestinationLat: 12.9352,
		DestinationLng: 77.6245,
		VehicleType:    domain.VehicleEconomy,
	})
	if err != nil {
		t.Fatalf("CreateRide: %v", err)
	}

	if ride.Status != domain.RideStatusPending {
		t.Errorf("status = %s, want PENDING", ride.Status)
	}
	if ride.DriverID != "" {
		t.Errorf("driver id = %q, want empty", ride.DriverID)
	}
	if ride.DistanceKm <= 0 {
		t.Errorf("distance = %v, want > 0", ride.DistanceKm)
	}
	if ride.EstimatedFare < 50 {
		t.Errorf("estimated fare = %v, want at least the base fare", ride.EstimatedFare)
	}
	if ride.DurationMinutes < 1 {
		t.Errorf("duration = %d, want at least 1", ride.DurationMinutes)
	}
	if e.store.Ride(ride.ID).CreatedAt.IsZero() {
		t.Error("stored ride has a zero created_at")
	}
}

func TestCreateRideValidation(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 500)

	testCases := []struct {
		name    string
		input   service.CreateRideInput
		wantErr error
	}{
		{
			"bad pickup",
			service.CreateRideInput{PickupLat: 120, PickupLng: 0, DestinationLat: 12.9, DestinationLng: 77.6, VehicleType: domain.VehicleEconomy},
			service.ErrInvalidPickupLocation,
		},
		{
			"bad destination",
			service.CreateRideInput{PickupLat: 12.9, PickupLng: 77.6, DestinationLat: 0, DestinationLng: 200, VehicleType: domain.VehicleEconomy},
			service.ErrInvalidDestinationLocation,
		},
		{
			"bad vehicle type",
			service.CreateRideInput{PickupLat: 12.9, PickupLng: 77.6, DestinationLat: 12.8, DestinationLng: 77.7, VehicleType: "SCOOTER"},
			service.ErrInvalidVehicleType,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.rides.CreateRide(context.Background(), "rider-1", tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestAcceptRide(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 500)
	e.seedDriver("driver-1", domain.VehicleEconomy, 12.97, 77.59)
	e.seedRide("ride-1", "rider-1", "", domain.RideStatusPending, 100)

	ride, err := e.rides.AcceptRide(context.Background(), "driver-1", "ride-1")
	if err != nil {
		t.Fatalf("AcceptRide: %v", err)
	}

	if ride.Status != domain.RideStatusAccepted {
		t.Errorf("status = %s, want ACCEPTED", ride.Status)
	}
	if ride.DriverID != "driver-1" {
		t.Errorf("driver id = %s, want driver-1", ride.DriverID)
	}
	if e.store.Driver("driver-1").IsAvailable {
		t.Error("driver still available after accepting")
	}

	// Both parties get a ride_update once the transition committed.
	if events := e.notifier.EventsFor("rider-1"); len(events) != 1 || events[0].Event != "ride_update" {
		t.Errorf("rider events = %+v, want one ride_update", events)
	}
	if events := e.notifier.EventsFor("driver-1"); len(events) != 1 {
		t.Errorf("driver events = %+v, want one ride_update", events)
	}
}

func TestAcceptRideInvalidStates(t *testing.T) {
	for _, status := range []domain.RideStatus{
		domain.RideStatusAccepted,
		domain.RideStatusInProgress,
		domain.RideStatusCompleted,
		domain.RideStatusCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			e := newEnv(t)
			e.seedRider("rider-1", 500)
			e.seedDriver("driver-1", domain.VehicleEconomy, 12.97, 77.59)
			e.seedRide("ride-1", "rider-1", "", status, 100)

			_, err := e.rides.AcceptRide(context.Background(), "driver-1", "ride-1")
			if !errors.Is(err, service.ErrInvalidTransition) {
				t.Errorf("error = %v, want ErrInvalidTransition", err)
			}
		})
	}
}

func TestAcceptRideVehicleClass(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 500)
	e.seedDriver("economy-driver", domain.VehicleEconomy, 12.97, 77.59)
	e.seedDriver("premium-driver", domain.VehiclePremium, 12.97, 77.59)

	suvRide := e.seedRide("ride-1", "rider-1", "", domain.RideStatusPending, 100)
	suvRide.VehicleType = domain.VehicleSUV
	e.store.AddRide(suvRide)

	// An economy driver cannot serve an SUV request.
	if _, err := e.rides.AcceptRide(context.Background(), "economy-driver", "ride-1"); !errors.Is(err, service.ErrPermissionDenied) {
		t.Errorf("economy accept error = %v, want ErrPermissionDenied", err)
	}

	// A premium driver serves any lower class.
	if _, err := e.rides.AcceptRide(context.Background(), "premium-driver", "ride-1"); err != nil {
		t.Errorf("premium accept error = %v, want nil", err)
	}
}

func TestAcceptRideDriverAlreadyBusy(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 500)
	e.seedDriver("driver-1", domain.VehicleEconomy, 12.97, 77.59)
	e.seedRide("ride-1", "rider-1", "driver-1", domain.RideStatusAccepted, 100)
	e.seedRide("ride-2", "rider-1", "", domain.RideStatusPending, 100)

	_, err := e.rides.AcceptRide(context.Background(), "driver-1", "ride-2")
	if !errors.Is(err, service.ErrDriverHasActiveRide) {
		t.Errorf("error = %v, want ErrDriverHasActiveRide", err)
	}
}

func TestAcceptRideDriverWentOffline(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 500)
	e.seedDriver("driver-1", domain.VehicleEconomy, 12.97, 77.59)
	e.seedRide("ride-1", "rider-1", "", domain.RideStatusPending, 100)

	// The driver toggles offline after the profile read but before the
	// assignment transaction runs.
	e.locks.AcquireHook = func() {
		profile := e.store.Driver("driver-1")
		profile.IsAvailable = false
		e.store.AddDriver(profile)
	}

	_, err := e.rides.AcceptRide(context.Background(), "driver-1", "ride-1")
	if !errors.Is(err, service.ErrDriverNotAvailable) {
		t.Errorf("error = %v, want ErrDriverNotAvailable", err)
	}
	if got := e.store.Ride("ride-1").Status; got != domain.RideStatusPending {
		t.Errorf("status = %s, want PENDING", got)
	}
	if got := e.store.Ride("ride-1").DriverID; got != "" {
		t.Errorf("driver id = %q, want empty", got)
	}
}

func TestConcurrentAcceptOneWins(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 500)
	e.seedDriver("driver-1", domain.VehicleEconomy, 12.97, 77.59)
	e.seedDriver("driver-2", domain.VehicleEconomy, 12.98, 77.60)
	e.seedRide("ride-1", "rider-1", "", domain.RideStatusPending, 100)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, driverID := range []string{"driver-1", "driver-2"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := e.rides.AcceptRide(context.Background(), id, "ride-1")
			results <- err
		}(driverID)
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, service.ErrInvalidTransition):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Errorf("wins = %d conflicts = %d, want exactly one of each", wins, conflicts)
	}

	ride := e.store.Ride("ride-1")
	if ride.Status != domain.RideStatusAccepted || ride.DriverID == "" {
		t.Errorf("ride = %+v, want ACCEPTED with a driver", ride)
	}
}

func TestStartRide(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 500)
	e.seedDriver("driver-1", domain.VehicleEconomy, 12.97, 77.59)
	e.seedRide("ride-1", "rider-1", "driver-1", domain.RideStatusAccepted, 100)

	ride, err := e.rides.StartRide(context.Background(), "driver-1", "ride-1")
	if err != nil {
		t.Fatalf("StartRide: %v", err)
	}
	if ride.Status != domain.RideStatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", ride.Status)
	}
	if ride.StartedAt == nil {
		t.Error("StartedAt not set")
	}
}

func TestStartRideWrongDriver(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 500)
	e.seedDriver("driver-1", domain.VehicleEconomy, 12.97, 77.59)
	e.seedDriver("driver-2", domain.VehicleEconomy, 12.98, 77.60)
	e.seedRide("ride-1", "rider-1", "driver-1", domain.RideStatusAccepted, 100)

	_, err := e.rides.StartRide(context.Background(), "driver-2", "ride-1")
	if !errors.Is(err, service.ErrPermissionDenied) {
		t.Errorf("error = %v, want ErrPermissionDenied", err)
	}
	if got := e.store.Ride("ride-1").Status; got != domain.RideStatusAccepted {
		t.Errorf("status = %s, want ACCEPTED untouched", got)
	}
}

func TestStartRideFromPending(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 500)
	e.seedDriver("driver-1", domain.VehicleEconomy, 12.97, 77.59)
	e.seedRide("ride-1", "rider-1", "driver-1", domain.RideStatusPending, 100)

	_, err := e.rides.StartRide(context.Background(), "driver-1", "ride-1")
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("error = %v, want ErrInvalidTransition", err)
	}
}

func TestCancelRideByRider(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 500)
	e.seedRide("ride-1", "rider-1", "", domain.RideStatusPending, 100)

	ride, err := e.rides.CancelRide(context.Background(), "rider-1", domain.RoleRider, "ride-1", "changed plans")
	if err != nil {
		t.Fatalf("CancelRide: %v", err)
	}
	if ride.Status != domain.RideStatusCancelled {
		t.Errorf("status = %s, want CANCELLED", ride.Status)
	}
	if ride.CancelReason != "changed plans" {
		t.Errorf("reason = %q, want %q", ride.CancelReason, "changed plans")
	}
	if ride.CancelledAt == nil {
		t.Error("CancelledAt not set")
	}
}

func TestCancelAcceptedRideFreesDriver(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 500)
	e.seedDriver("driver-1", domain.VehicleEconomy, 12.97, 77.59)
	e.seedRide("ride-1", "rider-1", "", domain.RideStatusPending, 100)

	if _, err := e.rides.AcceptRide(context.Background(), "driver-1", "ride-1"); err != nil {
		t.Fatalf("AcceptRide: %v", err)
	}
	if e.store.Driver("driver-1").IsAvailable {
		t.Fatal("driver should be busy after accepting")
	}

	if _, err := e.rides.CancelRide(context.Background(), "rider-1", domain.RoleRider, "ride-1", ""); err != nil {
		t.Fatalf("CancelRide: %v", err)
	}
	if !e.store.Driver("driver-1").IsAvailable {
		t.Error("driver not freed after cancellation")
	}
}

func TestCancelRideInProgress(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 500)
	e.seedDriver("driver-1", domain.VehicleEconomy, 12.97, 77.59)
	e.seedRide("ride-1", "rider-1", "driver-1", domain.RideStatusInProgress, 100)

	_, err := e.rides.CancelRide(context.Background(), "rider-1", domain.RoleRider, "ride-1", "")
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("error = %v, want ErrInvalidTransition", err)
	}
}

func TestCancelRideByStranger(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 500)
	e.seedRider("rider-2", 500)
	e.seedRide("ride-1", "rider-1", "", domain.RideStatusPending, 100)

	_, err := e.rides.CancelRide(context.Background(), "rider-2", domain.RoleRider, "ride-1", "")
	if !errors.Is(err, service.ErrPermissionDenied) {
		t.Errorf("error = %v, want ErrPermissionDenied", err)
	}
}

func TestRateRide(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 500)
	e.seedDriver("driver-1", domain.VehicleEconomy, 12.97, 77.59)
	e.seedRide("ride-1", "rider-1", "driver-1", domain.RideStatusCompleted, 100)

	ride, err := e.rides.RateRide(context.Background(), "rider-1", "ride-1", 4, "smooth trip")
	if err != nil {
		t.Fatalf("RateRide: %v", err)
	}
	if ride.Rating == nil || *ride.Rating != 4 {
		t.Errorf("rating = %v, want 4", ride.Rating)
	}
	if got := e.store.Driver("driver-1").Rating; got != 4 {
		t.Errorf("driver aggregate = %v, want 4", got)
	}

	// Second rated ride moves the aggregate to the exact mean.
	e.seedRide("ride-2", "rider-1", "driver-1", domain.RideStatusCompleted, 100)
	if _, err := e.rides.RateRide(context.Background(), "rider-1", "ride-2", 5, ""); err != nil {
		t.Fatalf("RateRide: %v", err)
	}
	if got := e.store.Driver("driver-1").Rating; got != 4.5 {
		t.Errorf("driver aggregate = %v, want 4.5", got)
	}
}

func TestRateRideOnlyOnce(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 500)
	e.seedDriver("driver-1", domain.VehicleEconomy, 12.97, 77.59)
	e.seedRide("ride-1", "rider-1", "driver-1", domain.RideStatusCompleted, 100)

	if _, err := e.rides.RateRide(context.Background(), "rider-1", "ride-1", 5, ""); err != nil {
		t.Fatalf("RateRide: %v", err)
	}
	_, err := e.rides.RateRide(context.Background(), "rider-1", "ride-1", 1, "")
	if !errors.Is(err, service.ErrRideAlreadyRated) {
		t.Errorf("error = %v, want ErrRideAlreadyRated", err)
	}
	if got := e.store.Driver("driver-1").Rating; got != 5 {
		t.Errorf("driver aggregate = %v, want 5 unchanged", got)
	}
}

func TestRateRideValidation(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 500)
	e.seedRider("rider-2", 500)
	e.seedDriver("driver-1", domain.VehicleEconomy, 12.97, 77.59)
	e.seedRide("ride-1", "rider-1", "driver-1", domain.RideStatusCompleted, 100)
	e.seedRide("ride-2", "rider-1", "driver-1", domain.RideStatusInProgress, 100)

	if _, err := e.rides.RateRide(context.Background(), "rider-1", "ride-1", 0, ""); !errors.Is(err, service.ErrInvalidRating) {
		t.Errorf("rating 0 error = %v, want ErrInvalidRating", err)
	}
	if _, err := e.rides.RateRide(context.Background(), "rider-1", "ride-1", 6, ""); !errors.Is(err, service.ErrInvalidRating) {
		t.Errorf("rating 6 error = %v, want ErrInvalidRating", err)
	}
	if _, err := e.rides.RateRide(context.Background(), "rider-2", "ride-1", 3, ""); !errors.Is(err, service.ErrPermissionDenied) {
		t.Errorf("stranger rating error = %v, want ErrPermissionDenied", err)
	}
	if _, err := e.rides.RateRide(context.Background(), "rider-1", "ride-2", 3, ""); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("in-progress rating error = %v, want ErrInvalidTransition", err)
	}
}

func TestListAvailableRidesFiltersByClass(t *testing.T) {
	e := newEnv(t)
	e.seedRider("rider-1", 500)
	e.seedDriver("driver-1", domain.VehicleSUV, 12.97, 77.59)

	economy := e.seedRide("ride-1", "rider-1", "", domain.RideStatusPending, 100)
	economy.VehicleType = domain.VehicleEconomy
	e.store.AddRide(economy)

	premium := e.seedRide("ride-2", "rider-1", "", domain.RideStatusPending, 100)
	premium.VehicleType = domain.VehiclePremium
	e.store.AddRide(premium)

	rides, err := e.rides.ListAvailableRides(context.Background(), "driver-1")
	if err != nil {
		t.Fatalf("ListAvailableRides: %v", err)
	}
	if len(rides) != 1 || rides[0].ID != "ride-1" {
		t.Errorf("available = %+v, want only the economy ride", rides)
	}
}
