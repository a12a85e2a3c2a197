package domain

import "time"

// RideStatus represents the current status of a ride.
//
// Allowed transitions:
//
//	PENDING  -> ACCEPTED, CANCELLED
//	ACCEPTED -> IN_PROGRESS, CANCELLED
//	IN_PROGRESS -> COMPLETED
//
// COMPLETED and CANCELLED are terminal. A ride in progress must complete.
type RideStatus string

const (
	RideStatusPending    RideStatus = "PENDING"
	RideStatusAccepted   RideStatus = "ACCEPTED"
	RideStatusInProgress RideStatus = "IN_PROGRESS"
	RideStatusCompleted  RideStatus = "COMPLETED"
	RideStatusCancelled  RideStatus = "CANCELLED"
)

// CanTransitionTo reports whether the state machine permits moving from s to
// next. It encodes permitted edges only; actor permission checks live in the
// ride service.
func (s RideStatus) CanTransitionTo(next RideStatus) bool {
	switch s {
	case RideStatusPending:
		return next == RideStatusAccepted || next == RideStatusCancelled
	case RideStatusAccepted:
		return next == RideStatusInProgress || next == RideStatusCancelled
	case RideStatusInProgress:
		return next == RideStatusCompleted
	default:
		return false
	}
}

// Terminal reports whether the status is terminal.
func (s RideStatus) Terminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// Ride represents a single trip request from creation through cancellation
// or completion. DriverID is empty until a driver is assigned. FinalFare is
// set exactly when the ride completes.
type Ride struct {
	ID                 string
	RiderID            string
	DriverID           string
	PickupAddress      string
	PickupLat          float64
	PickupLng          float64
	DestinationAddress string
	DestinationLat     float64
	DestinationLng     float64
	VehicleType        VehicleType
	Status             RideStatus
	DistanceKm         float64
	DurationMinutes    int
	EstimatedFare      float64
	FinalFare          *float64
	Rating             *int
	Feedback           string
	ScheduledTime      *time.Time
	CreatedAt          time.Time
	StartedAt          *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	CancelReason       string
}
