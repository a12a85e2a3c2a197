package tests

import (
	"context"
	"testing"

	"ridehail/internal/config"
	"ridehail/internal/domain"
	"ridehail/internal/service"
)

// testPricing is the rate catalog used across tests.
func testPricing() config.PricingConfig {
	return config.PricingConfig{
		Rates: map[domain.VehicleType]config.VehicleRate{
			domain.VehicleEconomy: {BaseFare: 50, PerKm: 12},
			domain.VehicleSUV:     {BaseFare: 80, PerKm: 18},
			domain.VehiclePremium: {BaseFare: 120, PerKm: 25},
		},
		MinimumFare:    30,
		PlatformFee:    0.10,
		SearchRadiusKm: 5,
		AvgSpeedKmh:    30,
	}
}

// env bundles the in-memory stores and services under test.
type env struct {
	store     *MockStore
	locks     *MockLockStore
	locations *MockLocationStore
	notifier  *MockNotifier

	fares   *service.FareService
	ledger  *service.LedgerService
	match   *service.MatchingService
	rides   *service.RideService
	drivers *service.DriverService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	pricing := testPricing()
	store := NewMockStore()
	locks := NewMockLockStore()
	locations := NewMockLocationStore()
	notifier := NewMockNotifier()

	fares := service.NewFareService(pricing)
	ledger := service.NewLedgerService(store)
	settlement := service.NewSettlementService(pricing.PlatformFee)
	match := service.NewMatchingService(store, locations, pricing.SearchRadiusKm)
	rides := service.NewRideService(store, locks, fares, settlement, match, notifier)
	drivers := service.NewDriverService(store, locations, notifier)

	return &env{
		store:     store,
		locks:     locks,
		locations: locations,
		notifier:  notifier,
		fares:     fares,
		ledger:    ledger,
		match:     match,
		rides:     rides,
		drivers:   drivers,
	}
}

func (e *env) seedRider(id string, balance float64) *domain.User {
	user := &domain.User{
		ID:            id,
		Email:         id + "@example.com",
		Name:          "Rider " + id,
		Role:          domain.RoleRider,
		WalletBalance: balance,
		IsActive:      true,
	}
	e.store.AddUser(user)
	return user
}

func (e *env) seedDriver(id string, vehicleType domain.VehicleType, lat, lng float64) *domain.DriverProfile {
	user := &domain.User{
		ID:       id,
		Email:    id + "@example.com",
		Name:     "Driver " + id,
		Role:     domain.RoleDriver,
		IsActive: true,
	}
	e.store.AddUser(user)

	profile := &domain.DriverProfile{
		ID:          "profile-" + id,
		UserID:      id,
		VehicleType: vehicleType,
		IsAvailable: true,
	}
	e.store.AddDriver(profile)
	_ = e.locations.UpdateLocation(context.Background(), id, lat, lng)
	return profile
}

func (e *env) seedAdmin(id string) *domain.User {
	user := &domain.User{
		ID:       id,
		Email:    id + "@example.com",
		Name:     "Platform",
		Role:     domain.RoleAdmin,
		IsActive: true,
	}
	e.store.AddUser(user)
	return user
}

// seedRide seeds a ride in the given status with sensible defaults.
func (e *env) seedRide(id, riderID, driverID string, status domain.RideStatus, estimatedFare float64) *domain.Ride {
	ride := &domain.Ride{
		ID:             id,
		RiderID:        riderID,
		DriverID:       driverID,
		PickupLat:      12.9716,
		PickupLng:      77.5946,
		DestinationLat: 12.9352,
		DestinationLng: 77.6245,
		VehicleType:    domain.VehicleEconomy,
		Status:         status,
		EstimatedFare:  estimatedFare,
	}
	e.store.AddRide(ride)
	return ride
}
