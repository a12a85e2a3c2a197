package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"ridehail/internal/domain"
	"ridehail/internal/redis"
	"ridehail/internal/repository"
)

// MatchingService finds the nearest available driver for a ride request.
// It only reads state; assignment happens in RideService.
type MatchingService struct {
	store         repository.Store
	locationStore redis.LocationStoreInterface
	radiusKm      float64
}

// NewMatchingService creates a new MatchingService.
func NewMatchingService(store repository.Store, locationStore redis.LocationStoreInterface, radiusKm float64) *MatchingService {
	if radiusKm <= 0 {
		radiusKm = 5
	}
	return &MatchingService{
		store:         store,
		locationStore: locationStore,
		radiusKm:      radiusKm,
	}
}

// Candidate is a driver eligible for a ride request.
type Candidate struct {
	Profile    *domain.DriverProfile
	DistanceKm float64
}

// FindCandidate returns the best driver for the ride: the nearest available
// driver whose vehicle class can serve the requested one, with ties at equal
// distance broken by the lowest driver id. A nil candidate with a nil error
// means nobody qualified.
func (s *MatchingService) FindCandidate(ctx context.Context, pickupLat, pickupLng float64, vehicleType domain.VehicleType) (*Candidate, error) {
	if !validCoordinates(pickupLat, pickupLng) {
		return nil, ErrInvalidPickupLocation
	}
	if !domain.ValidVehicleType(vehicleType) {
		return nil, ErrInvalidVehicleType
	}

	locations, err := s.locationStore.FindNearbyDrivers(ctx, pickupLat, pickupLng, s.radiusKm)
	if err != nil {
		return nil, fmt.Errorf("find nearby drivers: %w", err)
	}
	if len(locations) == 0 {
		return nil, nil
	}

	// Redis returns results ordered by distance. Re-sort with an id
	// tie-break so equal distances resolve the same way every time.
	sort.SliceStable(locations, func(i, j int) bool {
		if locations[i].DistanceKm != locations[j].DistanceKm {
			return locations[i].DistanceKm < locations[j].DistanceKm
		}
		return locations[i].DriverID < locations[j].DriverID
	})

	for _, loc := range locations {
		profile, err := s.eligibleDriver(ctx, loc.DriverID, vehicleType)
		if err != nil {
			return nil, err
		}
		if profile == nil {
			continue
		}
		return &Candidate{Profile: profile, DistanceKm: loc.DistanceKm}, nil
	}
	return nil, nil
}

// eligibleDriver returns the driver's profile when the driver is available,
// can serve the requested class, and has no active ride. Returns nil when
// the driver does not qualify.
func (s *MatchingService) eligibleDriver(ctx context.Context, driverUserID string, vehicleType domain.VehicleType) (*domain.DriverProfile, error) {
	profile, err := s.store.Drivers().GetByUserID(ctx, driverUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !profile.IsAvailable {
		return nil, nil
	}
	if !profile.CanServe(vehicleType) {
		return nil, nil
	}

	active, err := s.store.Rides().GetActiveByDriver(ctx, driverUserID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, nil
	}
	return profile, nil
}
