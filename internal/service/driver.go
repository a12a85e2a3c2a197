package service

import (
	"context"
	"errors"
	"fmt"

	"ridehail/internal/domain"
	"ridehail/internal/redis"
	"ridehail/internal/repository"
)

// DriverService manages driver availability and live location.
type DriverService struct {
	store         repository.Store
	locationStore redis.LocationStoreInterface
	notifier      Notifier
}

// NewDriverService creates a new DriverService.
func NewDriverService(store repository.Store, locationStore redis.LocationStoreInterface, notifier Notifier) *DriverService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &DriverService{
		store:         store,
		locationStore: locationStore,
		notifier:      notifier,
	}
}

// GetProfile returns the driver profile for the given user.
func (s *DriverService) GetProfile(ctx context.Context, userID string) (*domain.DriverProfile, error) {
	if userID == "" {
		return nil, ErrInvalidDriverID
	}
	profile, err := s.store.Drivers().GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDriverProfileRequired
		}
		return nil, err
	}
	return profile, nil
}

// UpdateLocation records the driver's position in the geo index and the
// profile row. While the driver has an active ride, the rider gets a live
// location event.
func (s *DriverService) UpdateLocation(ctx context.Context, userID string, lat, lng float64) error {
	if !validCoordinates(lat, lng) {
		return ErrInvalidLocation
	}
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return err
	}

	if err := s.locationStore.UpdateLocation(ctx, userID, lat, lng); err != nil {
		return fmt.Errorf("update geo index: %w", err)
	}
	if err := s.store.Drivers().UpdateLocation(ctx, userID, lat, lng); err != nil {
		return fmt.Errorf("update driver location: %w", err)
	}

	active, err := s.store.Rides().GetActiveByDriver(ctx, userID)
	if err != nil {
		return err
	}
	if active != nil {
		s.notifier.NotifyUser(active.RiderID, "driver_location", map[string]interface{}{
			"ride_id": active.ID,
			"lat":     lat,
			"lng":     lng,
		})
	}
	return nil
}

// SetAvailability flips the driver's availability. A driver going offline
// leaves the geo index so matching stops seeing them. A driver with an
// active ride cannot go available again through this call.
func (s *DriverService) SetAvailability(ctx context.Context, userID string, available bool) (*domain.DriverProfile, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if available {
		active, err := s.store.Rides().GetActiveByDriver(ctx, userID)
		if err != nil {
			return nil, err
		}
		if active != nil {
			return nil, ErrDriverHasActiveRide
		}
	}

	if err := s.store.Drivers().UpdateAvailability(ctx, userID, available); err != nil {
		return nil, fmt.Errorf("update driver availability: %w", err)
	}
	if !available {
		if err := s.locationStore.RemoveLocation(ctx, userID); err != nil {
			return nil, fmt.Errorf("remove from geo index: %w", err)
		}
	}

	profile.IsAvailable = available
	return profile, nil
}
