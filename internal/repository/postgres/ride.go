package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

const rideColumns = `id, rider_id, driver_id, pickup_address, pickup_lat, pickup_lng, destination_address, destination_lat, destination_lng, vehicle_type, status, distance_km, duration_minutes, estimated_fare, final_fare, rating, feedback, scheduled_time, created_at, started_at, completed_at, cancelled_at, cancel_reason`

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.RiderID,
		nullString(ride.DriverID),
		ride.PickupAddress,
		ride.PickupLat,
		ride.PickupLng,
		ride.DestinationAddress,
		ride.DestinationLat,
		ride.DestinationLng,
		ride.VehicleType,
		ride.Status,
		ride.DistanceKm,
		ride.DurationMinutes,
		ride.EstimatedFare,
		nullFloat(ride.FinalFare),
		nullInt(ride.Rating),
		nullString(ride.Feedback),
		nullTime(ride.ScheduledTime),
		ride.CreatedAt,
		nullTime(ride.StartedAt),
		nullTime(ride.CompletedAt),
		nullTime(ride.CancelledAt),
		nullString(ride.CancelReason),
	)
	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`
	return scanRide(r.q.QueryRowContext(ctx, query, id))
}

// GetForUpdate retrieves a ride under a row lock. Transitions hold this lock
// until commit so at most one transition applies per ride at a time.
func (r *RideRepository) GetForUpdate(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1 FOR UPDATE`
	return scanRide(r.q.QueryRowContext(ctx, query, id))
}

// Update rewrites an existing ride.
func (r *RideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	query := `
		UPDATE rides
		SET driver_id = $1, status = $2, distance_km = $3, duration_minutes = $4,
		    estimated_fare = $5, final_fare = $6, rating = $7, feedback = $8,
		    started_at = $9, completed_at = $10, cancelled_at = $11, cancel_reason = $12
		WHERE id = $13
	`

	result, err := r.q.ExecContext(ctx, query,
		nullString(ride.DriverID),
		ride.Status,
		ride.DistanceKm,
		ride.DurationMinutes,
		ride.EstimatedFare,
		nullFloat(ride.FinalFare),
		nullInt(ride.Rating),
		nullString(ride.Feedback),
		nullTime(ride.StartedAt),
		nullTime(ride.CompletedAt),
		nullTime(ride.CancelledAt),
		nullString(ride.CancelReason),
		ride.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// ListByRider retrieves a rider's rides, newest first.
func (r *RideRepository) ListByRider(ctx context.Context, riderID string, status domain.RideStatus) ([]*domain.Ride, error) {
	return r.list(ctx, `rider_id`, riderID, status)
}

// ListByDriver retrieves a driver's rides, newest first.
func (r *RideRepository) ListByDriver(ctx context.Context, driverID string, status domain.RideStatus) ([]*domain.Ride, error) {
	return r.list(ctx, `driver_id`, driverID, status)
}

func (r *RideRepository) list(ctx context.Context, column, id string, status domain.RideStatus) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE ` + column + ` = $1`
	args := []any{id}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT 100`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRides(rows)
}

// ListPending retrieves unassigned PENDING rides that are due, oldest first.
func (r *RideRepository) ListPending(ctx context.Context) ([]*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + ` FROM rides
		WHERE status = $1 AND (scheduled_time IS NULL OR scheduled_time <= NOW())
		ORDER BY created_at ASC LIMIT 100
	`

	rows, err := r.q.QueryContext(ctx, query, domain.RideStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRides(rows)
}

// GetActiveByDriver retrieves the driver's ACCEPTED or IN_PROGRESS ride.
// Returns nil, nil when the driver has no active ride.
func (r *RideRepository) GetActiveByDriver(ctx context.Context, driverID string) (*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + ` FROM rides
		WHERE driver_id = $1 AND status IN ($2, $3)
		ORDER BY created_at DESC LIMIT 1
	`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, driverID, domain.RideStatusAccepted, domain.RideStatusInProgress))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return ride, err
}

// AverageRatingByDriver computes the mean of all ratings given to the
// driver's rides and the count of rated rides.
func (r *RideRepository) AverageRatingByDriver(ctx context.Context, driverID string) (float64, int, error) {
	query := `SELECT COALESCE(AVG(rating), 0), COUNT(rating) FROM rides WHERE driver_id = $1 AND rating IS NOT NULL`

	var avg float64
	var count int
	if err := r.q.QueryRowContext(ctx, query, driverID).Scan(&avg, &count); err != nil {
		return 0, 0, err
	}
	return avg, count, nil
}

func scanRides(rows *sql.Rows) ([]*domain.Ride, error) {
	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRideRow(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row *sql.Row) (*domain.Ride, error) {
	ride, err := scanRideRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return ride, err
}

func scanRideRow(row rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	var driverID, feedback, cancelReason sql.NullString
	var finalFare sql.NullFloat64
	var rating sql.NullInt64
	var scheduledTime, startedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&ride.ID,
		&ride.RiderID,
		&driverID,
		&ride.PickupAddress,
		&ride.PickupLat,
		&ride.PickupLng,
		&ride.DestinationAddress,
		&ride.DestinationLat,
		&ride.DestinationLng,
		&ride.VehicleType,
		&ride.Status,
		&ride.DistanceKm,
		&ride.DurationMinutes,
		&ride.EstimatedFare,
		&finalFare,
		&rating,
		&feedback,
		&scheduledTime,
		&ride.CreatedAt,
		&startedAt,
		&completedAt,
		&cancelledAt,
		&cancelReason,
	)
	if err != nil {
		return nil, err
	}

	ride.DriverID = driverID.String
	ride.Feedback = feedback.String
	ride.CancelReason = cancelReason.String
	if finalFare.Valid {
		ride.FinalFare = &finalFare.Float64
	}
	if rating.Valid {
		v := int(rating.Int64)
		ride.Rating = &v
	}
	if scheduledTime.Valid {
		ride.ScheduledTime = &scheduledTime.Time
	}
	if startedAt.Valid {
		ride.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		ride.CompletedAt = &completedAt.Time
	}
	if cancelledAt.Valid {
		ride.CancelledAt = &cancelledAt.Time
	}
	return &ride, nil
}
