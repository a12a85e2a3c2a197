package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ridehail/internal/domain"
	"ridehail/internal/redis"
	"ridehail/internal/repository"
)

const (
	driverLockTTL = 10 * time.Second
	rideLockTTL   = 10 * time.Second
)

// Notifier delivers real-time events to connected users. Implementations
// must not block; delivery is best effort and never affects the outcome of
// the operation that triggered it.
type Notifier interface {
	NotifyUser(userID, event string, data interface{})
	BroadcastAll(event string, data interface{})
}

// noopNotifier is used when no hub is wired in.
type noopNotifier struct{}

func (noopNotifier) NotifyUser(string, string, interface{}) {}
func (noopNotifier) BroadcastAll(string, interface{})       {}

// RideService owns the ride lifecycle. Every state transition runs in a
// transaction that locks the ride row first, so concurrent transitions on
// the same ride serialize and exactly one wins. Notifications go out only
// after the transaction commits.
type RideService struct {
	store      repository.Store
	lockStore  redis.LockStoreInterface
	fare       *FareService
	settlement *SettlementService
	matching   *MatchingService
	notifier   Notifier
}

// NewRideService creates a new RideService. A nil notifier disables
// real-time events.
func NewRideService(
	store repository.Store,
	lockStore redis.LockStoreInterface,
	fare *FareService,
	settlement *SettlementService,
	matching *MatchingService,
	notifier Notifier,
) *RideService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &RideService{
		store:      store,
		lockStore:  lockStore,
		fare:       fare,
		settlement: settlement,
		matching:   matching,
		notifier:   notifier,
	}
}

// CreateRideInput contains the parameters for requesting a ride.
type CreateRideInput struct {
	PickupAddress      string
	PickupLat          float64
	PickupLng          float64
	DestinationAddress string
	DestinationLat     float64
	DestinationLng     float64
	VehicleType        domain.VehicleType
	ScheduledTime      *time.Time
}

// CreateRide creates a PENDING ride with an estimated fare and duration.
func (s *RideService) CreateRide(ctx context.Context, riderID string, input CreateRideInput) (*domain.Ride, error) {
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}
	if !validCoordinates(input.PickupLat, input.PickupLng) {
		return nil, ErrInvalidPickupLocation
	}
	if !validCoordinates(input.DestinationLat, input.DestinationLng) {
		return nil, ErrInvalidDestinationLocation
	}
	if !domain.ValidVehicleType(input.VehicleType) {
		return nil, ErrInvalidVehicleType
	}

	distanceKm := Haversine(input.PickupLat, input.PickupLng, input.DestinationLat, input.DestinationLng)
	estimate, err := s.fare.Estimate(input.VehicleType, distanceKm)
	if err != nil {
		return nil, err
	}

	ride := &domain.Ride{
		ID:                 uuid.New().String(),
		RiderID:            riderID,
		PickupAddress:      input.PickupAddress,
		PickupLat:          input.PickupLat,
		PickupLng:          input.PickupLng,
		DestinationAddress: input.DestinationAddress,
		DestinationLat:     input.DestinationLat,
		DestinationLng:     input.DestinationLng,
		VehicleType:        input.VehicleType,
		Status:             domain.RideStatusPending,
		DistanceKm:         distanceKm,
		DurationMinutes:    s.fare.EstimateDuration(distanceKm),
		EstimatedFare:      estimate,
		ScheduledTime:      input.ScheduledTime,
		CreatedAt:          time.Now().UTC(),
	}

	if err := s.store.Rides().Create(ctx, ride); err != nil {
		return nil, fmt.Errorf("create ride: %w", err)
	}
	return ride, nil
}

// GetRide returns the ride if the actor is a party to it or an admin.
func (s *RideService) GetRide(ctx context.Context, actorID string, role domain.Role, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	ride, err := s.store.Rides().GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleAdmin && ride.RiderID != actorID && ride.DriverID != actorID {
		return nil, ErrPermissionDenied
	}
	return ride, nil
}

// ListRides returns the actor's rides, newest first, optionally filtered by
// status. Riders see rides they requested, drivers rides they served.
func (s *RideService) ListRides(ctx context.Context, actorID string, role domain.Role, status domain.RideStatus) ([]*domain.Ride, error) {
	if actorID == "" {
		return nil, ErrInvalidUserID
	}
	if role == domain.RoleDriver {
		return s.store.Rides().ListByDriver(ctx, actorID, status)
	}
	return s.store.Rides().ListByRider(ctx, actorID, status)
}

// ListAvailableRides returns due PENDING rides the driver's vehicle class
// can serve, oldest first.
func (s *RideService) ListAvailableRides(ctx context.Context, driverUserID string) ([]*domain.Ride, error) {
	profile, err := s.driverProfile(ctx, driverUserID)
	if err != nil {
		return nil, err
	}

	pending, err := s.store.Rides().ListPending(ctx)
	if err != nil {
		return nil, err
	}

	rides := make([]*domain.Ride, 0, len(pending))
	for _, ride := range pending {
		if profile.CanServe(ride.VehicleType) {
			rides = append(rides, ride)
		}
	}
	return rides, nil
}

// AcceptRide assigns the driver to a PENDING ride. The Redis driver lock
// keeps one driver from accepting two rides at once; the ride row lock
// keeps two drivers from winning the same ride.
func (s *RideService) AcceptRide(ctx context.Context, driverUserID, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	profile, err := s.driverProfile(ctx, driverUserID)
	if err != nil {
		return nil, err
	}

	locked, err := s.lockStore.AcquireDriverLock(ctx, driverUserID, driverLockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire driver lock: %w", err)
	}
	if !locked {
		return nil, ErrDriverHasActiveRide
	}
	defer s.lockStore.ReleaseDriverLock(ctx, driverUserID)

	ride, err := s.assignDriver(ctx, profile.UserID, rideID)
	if err != nil {
		return nil, err
	}

	s.notifyRideUpdate(ride)
	return ride, nil
}

// AutoAssign matches the nearest eligible driver to a PENDING ride and
// assigns them. Returns ErrNoDriverAvailable when nobody qualifies.
func (s *RideService) AutoAssign(ctx context.Context, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	ride, err := s.store.Rides().GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != domain.RideStatusPending {
		return nil, ErrInvalidTransition
	}

	// Only one matching pass runs per ride at a time.
	locked, err := s.lockStore.AcquireRideLock(ctx, rideID, rideLockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire ride lock: %w", err)
	}
	if !locked {
		return nil, ErrInvalidTransition
	}
	defer s.lockStore.ReleaseRideLock(ctx, rideID)

	candidate, err := s.matching.FindCandidate(ctx, ride.PickupLat, ride.PickupLng, ride.VehicleType)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, ErrNoDriverAvailable
	}

	driverUserID := candidate.Profile.UserID

	locked, err = s.lockStore.AcquireDriverLock(ctx, driverUserID, driverLockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire driver lock: %w", err)
	}
	if !locked {
		return nil, ErrNoDriverAvailable
	}
	defer s.lockStore.ReleaseDriverLock(ctx, driverUserID)

	assigned, err := s.assignDriver(ctx, driverUserID, rideID)
	if err != nil {
		return nil, err
	}

	s.notifyRideUpdate(assigned)
	return assigned, nil
}

// assignDriver moves the ride to ACCEPTED under the ride row lock and marks
// the driver busy. The driver row is re-read under its own lock so a driver
// who went offline after the caller's read is never assigned.
func (s *RideService) assignDriver(ctx context.Context, driverUserID, rideID string) (*domain.Ride, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	ride, err := tx.Rides().GetForUpdate(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !ride.Status.CanTransitionTo(domain.RideStatusAccepted) {
		return nil, ErrInvalidTransition
	}

	profile, err := tx.Drivers().GetForUpdate(ctx, driverUserID)
	if err != nil {
		return nil, err
	}
	if !profile.CanServe(ride.VehicleType) {
		return nil, ErrPermissionDenied
	}
	if !profile.IsAvailable {
		return nil, ErrDriverNotAvailable
	}

	active, err := tx.Rides().GetActiveByDriver(ctx, profile.UserID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, ErrDriverHasActiveRide
	}

	ride.DriverID = profile.UserID
	ride.Status = domain.RideStatusAccepted
	if err := tx.Rides().Update(ctx, ride); err != nil {
		return nil, fmt.Errorf("update ride: %w", err)
	}
	if err := tx.Drivers().UpdateAvailability(ctx, profile.UserID, false); err != nil {
		return nil, fmt.Errorf("update driver availability: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return ride, nil
}

// StartRide moves the ride to IN_PROGRESS. Only the assigned driver may
// start it.
func (s *RideService) StartRide(ctx context.Context, driverUserID, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if driverUserID == "" {
		return nil, ErrInvalidDriverID
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	ride, err := tx.Rides().GetForUpdate(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.DriverID != driverUserID {
		return nil, ErrPermissionDenied
	}
	if !ride.Status.CanTransitionTo(domain.RideStatusInProgress) {
		return nil, ErrInvalidTransition
	}

	now := time.Now().UTC()
	ride.Status = domain.RideStatusInProgress
	ride.StartedAt = &now
	if err := tx.Rides().Update(ctx, ride); err != nil {
		return nil, fmt.Errorf("update ride: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.notifyRideUpdate(ride)
	return ride, nil
}

// CompleteRide moves the ride to COMPLETED and settles payment in the same
// transaction. When the rider cannot cover the fare the whole transaction
// rolls back and the ride stays IN_PROGRESS.
func (s *RideService) CompleteRide(ctx context.Context, driverUserID, rideID string, fareOverride *float64) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if driverUserID == "" {
		return nil, ErrInvalidDriverID
	}
	if fareOverride != nil && *fareOverride < 0 {
		return nil, ErrInvalidFare
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	ride, err := tx.Rides().GetForUpdate(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.DriverID != driverUserID {
		return nil, ErrPermissionDenied
	}
	if !ride.Status.CanTransitionTo(domain.RideStatusCompleted) {
		return nil, ErrInvalidTransition
	}

	fare := ride.EstimatedFare
	if fareOverride != nil {
		fare = *fareOverride
	}

	now := time.Now().UTC()
	ride.Status = domain.RideStatusCompleted
	ride.FinalFare = &fare
	ride.CompletedAt = &now
	if err := tx.Rides().Update(ctx, ride); err != nil {
		return nil, fmt.Errorf("update ride: %w", err)
	}

	if err := s.settlement.SettleTx(ctx, tx, ride, fare); err != nil {
		return nil, err
	}

	if err := tx.Drivers().UpdateAvailability(ctx, driverUserID, true); err != nil {
		return nil, fmt.Errorf("update driver availability: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.notifyRideUpdate(ride)
	return ride, nil
}

// CancelRide cancels a PENDING or ACCEPTED ride. The rider, the assigned
// driver, or an admin may cancel. Cancelling an accepted ride frees the
// driver.
func (s *RideService) CancelRide(ctx context.Context, actorID string, role domain.Role, rideID, reason string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if actorID == "" {
		return nil, ErrInvalidUserID
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	ride, err := tx.Rides().GetForUpdate(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleAdmin && ride.RiderID != actorID && ride.DriverID != actorID {
		return nil, ErrPermissionDenied
	}
	if !ride.Status.CanTransitionTo(domain.RideStatusCancelled) {
		return nil, ErrInvalidTransition
	}

	assignedDriver := ride.DriverID

	now := time.Now().UTC()
	ride.Status = domain.RideStatusCancelled
	ride.CancelledAt = &now
	ride.CancelReason = reason
	if err := tx.Rides().Update(ctx, ride); err != nil {
		return nil, fmt.Errorf("update ride: %w", err)
	}

	if assignedDriver != "" {
		if err := tx.Drivers().UpdateAvailability(ctx, assignedDriver, true); err != nil {
			return nil, fmt.Errorf("update driver availability: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.notifyRideUpdate(ride)
	return ride, nil
}

// RateRide records the rider's rating for a completed ride and refreshes the
// driver's aggregate rating. A ride can be rated once.
func (s *RideService) RateRide(ctx context.Context, riderID, rideID string, rating int, feedback string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	ride, err := tx.Rides().GetForUpdate(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.RiderID != riderID {
		return nil, ErrPermissionDenied
	}
	if ride.Status != domain.RideStatusCompleted {
		return nil, ErrInvalidTransition
	}
	if ride.Rating != nil {
		return nil, ErrRideAlreadyRated
	}

	ride.Rating = &rating
	ride.Feedback = feedback
	if err := tx.Rides().Update(ctx, ride); err != nil {
		return nil, fmt.Errorf("update ride: %w", err)
	}

	avg, _, err := tx.Rides().AverageRatingByDriver(ctx, ride.DriverID)
	if err != nil {
		return nil, err
	}
	profile, err := tx.Drivers().GetByUserID(ctx, ride.DriverID)
	if err != nil {
		return nil, err
	}
	if err := tx.Drivers().UpdateStats(ctx, profile.UserID, avg, profile.TotalRides); err != nil {
		return nil, fmt.Errorf("update driver stats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.notifier.NotifyUser(ride.DriverID, "ride_rated", map[string]interface{}{
		"ride_id": ride.ID,
		"rating":  rating,
	})
	return ride, nil
}

func (s *RideService) driverProfile(ctx context.Context, driverUserID string) (*domain.DriverProfile, error) {
	if driverUserID == "" {
		return nil, ErrInvalidDriverID
	}
	profile, err := s.store.Drivers().GetByUserID(ctx, driverUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDriverProfileRequired
		}
		return nil, err
	}
	return profile, nil
}

// notifyRideUpdate pushes the ride's new state to both parties after commit.
func (s *RideService) notifyRideUpdate(ride *domain.Ride) {
	payload := map[string]interface{}{
		"ride_id": ride.ID,
		"status":  string(ride.Status),
	}
	if ride.DriverID != "" {
		payload["driver_id"] = ride.DriverID
	}
	if ride.FinalFare != nil {
		payload["final_fare"] = *ride.FinalFare
	}
	if ride.CancelReason != "" {
		payload["reason"] = ride.CancelReason
	}

	s.notifier.NotifyUser(ride.RiderID, "ride_update", payload)
	if ride.DriverID != "" {
		s.notifier.NotifyUser(ride.DriverID, "ride_update", payload)
	}
}
