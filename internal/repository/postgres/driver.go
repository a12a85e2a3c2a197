package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

const driverColumns = `id, user_id, license_number, vehicle_type, vehicle_model, vehicle_plate, city, rating, total_rides, is_available, current_lat, current_lng`

// DriverProfileRepository is a PostgreSQL implementation of
// repository.DriverProfileRepository.
type DriverProfileRepository struct {
	q Querier
}

// Create adds a new driver profile.
func (r *DriverProfileRepository) Create(ctx context.Context, profile *domain.DriverProfile) error {
	query := `
		INSERT INTO driver_profiles (id, user_id, license_number, vehicle_type, vehicle_model, vehicle_plate, city, rating, total_rides, is_available, current_lat, current_lng)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.q.ExecContext(ctx, query,
		profile.ID,
		profile.UserID,
		profile.LicenseNumber,
		profile.VehicleType,
		profile.VehicleModel,
		profile.VehiclePlate,
		profile.City,
		profile.Rating,
		profile.TotalRides,
		profile.IsAvailable,
		nullFloat(profile.CurrentLat),
		nullFloat(profile.CurrentLng),
	)
	return err
}

// GetByUserID retrieves the profile owned by the given user.
func (r *DriverProfileRepository) GetByUserID(ctx context.Context, userID string) (*domain.DriverProfile, error) {
	query := `SELECT ` + driverColumns + ` FROM driver_profiles WHERE user_id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, userID))
}

// GetForUpdate retrieves a profile under a row lock.
func (r *DriverProfileRepository) GetForUpdate(ctx context.Context, userID string) (*domain.DriverProfile, error) {
	query := `SELECT ` + driverColumns + ` FROM driver_profiles WHERE user_id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRowContext(ctx, query, userID))
}

// UpdateAvailability flips the driver's availability flag.
func (r *DriverProfileRepository) UpdateAvailability(ctx context.Context, userID string, available bool) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE driver_profiles SET is_available = $1 WHERE user_id = $2`, available, userID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// UpdateLocation records the driver's last known position.
func (r *DriverProfileRepository) UpdateLocation(ctx context.Context, userID string, lat, lng float64) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE driver_profiles SET current_lat = $1, current_lng = $2 WHERE user_id = $3`, lat, lng, userID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// UpdateStats sets the aggregate rating and completed ride count.
func (r *DriverProfileRepository) UpdateStats(ctx context.Context, userID string, rating float64, totalRides int) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE driver_profiles SET rating = $1, total_rides = $2 WHERE user_id = $3`, rating, totalRides, userID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *DriverProfileRepository) scanOne(row *sql.Row) (*domain.DriverProfile, error) {
	var profile domain.DriverProfile
	var lat, lng sql.NullFloat64
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.LicenseNumber,
		&profile.VehicleType,
		&profile.VehicleModel,
		&profile.VehiclePlate,
		&profile.City,
		&profile.Rating,
		&profile.TotalRides,
		&profile.IsAvailable,
		&lat,
		&lng,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lat.Valid {
		profile.CurrentLat = &lat.Float64
	}
	if lng.Valid {
		profile.CurrentLng = &lng.Float64
	}
	return &profile, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
