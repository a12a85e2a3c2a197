package repository

import (
	"context"

	"ridehail/internal/domain"
)

// DriverProfileRepository defines the persistence operations for driver
// profiles. Profiles are keyed by the owning user's id.
type DriverProfileRepository interface {
	// Create adds a new driver profile.
	Create(ctx context.Context, profile *domain.DriverProfile) error

	// GetByUserID retrieves the profile owned by the given user.
	GetByUserID(ctx context.Context, userID string) (*domain.DriverProfile, error)

	// GetForUpdate retrieves a profile and holds a row lock on it for the
	// remainder of the enclosing unit of work.
	GetForUpdate(ctx context.Context, userID string) (*domain.DriverProfile, error)

	// UpdateAvailability flips the driver's availability flag.
	UpdateAvailability(ctx context.Context, userID string, available bool) error

	// UpdateLocation records the driver's last known position.
	UpdateLocation(ctx context.Context, userID string, lat, lng float64) error

	// UpdateStats sets the aggregate rating and completed ride count.
	UpdateStats(ctx context.Context, userID string, rating float64, totalRides int) error
}
