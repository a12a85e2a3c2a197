package repository

import (
	"context"

	"ridehail/internal/domain"
)

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// GetForUpdate retrieves a ride and holds a row lock on it for the
	// remainder of the enclosing unit of work. Every state transition goes
	// through this lock so only one transition commits at a time per ride.
	GetForUpdate(ctx context.Context, id string) (*domain.Ride, error)

	// Update rewrites an existing ride.
	Update(ctx context.Context, ride *domain.Ride) error

	// ListByRider retrieves a rider's rides, newest first. A non-empty
	// status filters by it.
	ListByRider(ctx context.Context, riderID string, status domain.RideStatus) ([]*domain.Ride, error)

	// ListByDriver retrieves a driver's rides, newest first. A non-empty
	// status filters by it.
	ListByDriver(ctx context.Context, driverID string, status domain.RideStatus) ([]*domain.Ride, error)

	// ListPending retrieves unassigned PENDING rides that are due (no
	// scheduled time, or a scheduled time at or before now), oldest first.
	ListPending(ctx context.Context) ([]*domain.Ride, error)

	// GetActiveByDriver retrieves the driver's ACCEPTED or IN_PROGRESS
	// ride. Returns nil, nil when the driver has no active ride.
	GetActiveByDriver(ctx context.Context, driverID string) (*domain.Ride, error)

	// AverageRatingByDriver returns the mean of all ratings given to the
	// driver's completed rides, and the number of rated rides. A driver
	// with no rated rides yields (0, 0).
	AverageRatingByDriver(ctx context.Context, driverID string) (float64, int, error)
}
