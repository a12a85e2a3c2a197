package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
	"ridehail/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidRiderID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidRideID),
		errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidPickupLocation),
		errors.Is(err, service.ErrInvalidDestinationLocation),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidVehicleType),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrInvalidFare):
		return http.StatusBadRequest

	// Authentication errors
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Payment errors
	case errors.Is(err, service.ErrInsufficientFunds):
		return http.StatusPaymentRequired

	// Permission errors
	case errors.Is(err, service.ErrPermissionDenied),
		errors.Is(err, service.ErrDriverProfileRequired):
		return http.StatusForbidden

	// Conflict errors
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrDriverHasActiveRide),
		errors.Is(err, service.ErrDriverNotAvailable),
		errors.Is(err, service.ErrRideAlreadyRated),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict

	// Service unavailable
	case errors.Is(err, service.ErrNoDriverAvailable):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID                 string   `json:"id"`
	RiderID            string   `json:"rider_id"`
	DriverID           string   `json:"driver_id,omitempty"`
	PickupAddress      string   `json:"pickup_address"`
	PickupLat          float64  `json:"pickup_lat"`
	PickupLng          float64  `json:"pickup_lng"`
	DestinationAddress string   `json:"destination_address"`
	DestinationLat     float64  `json:"destination_lat"`
	DestinationLng     float64  `json:"destination_lng"`
	VehicleType        string   `json:"vehicle_type"`
	Status             string   `json:"status"`
	DistanceKm         float64  `json:"distance_km"`
	DurationMinutes    int      `json:"duration_minutes"`
	EstimatedFare      float64  `json:"estimated_fare"`
	FinalFare          *float64 `json:"final_fare,omitempty"`
	Rating             *int     `json:"rating,omitempty"`
	Feedback           string   `json:"feedback,omitempty"`
	ScheduledTime      string   `json:"scheduled_time,omitempty"`
	CreatedAt          string   `json:"created_at"`
	StartedAt          string   `json:"started_at,omitempty"`
	CompletedAt        string   `json:"completed_at,omitempty"`
	CancelledAt        string   `json:"cancelled_at,omitempty"`
	CancelReason       string   `json:"cancel_reason,omitempty"`
}

func toRideResponse(ride *domain.Ride) RideResponse {
	return RideResponse{
		ID:                 ride.ID,
		RiderID:            ride.RiderID,
		DriverID:           ride.DriverID,
		PickupAddress:      ride.PickupAddress,
		PickupLat:          ride.PickupLat,
		PickupLng:          ride.PickupLng,
		DestinationAddress: ride.DestinationAddress,
		DestinationLat:     ride.DestinationLat,
		DestinationLng:     ride.DestinationLng,
		VehicleType:        string(ride.VehicleType),
		Status:             string(ride.Status),
		DistanceKm:         ride.DistanceKm,
		DurationMinutes:    ride.DurationMinutes,
		EstimatedFare:      ride.EstimatedFare,
		FinalFare:          ride.FinalFare,
		Rating:             ride.Rating,
		Feedback:           ride.Feedback,
		ScheduledTime:      formatTime(ride.ScheduledTime),
		CreatedAt:          ride.CreatedAt.UTC().Format(time.RFC3339),
		StartedAt:          formatTime(ride.StartedAt),
		CompletedAt:        formatTime(ride.CompletedAt),
		CancelledAt:        formatTime(ride.CancelledAt),
		CancelReason:       ride.CancelReason,
	}
}

func toRideResponses(rides []*domain.Ride) []RideResponse {
	out := make([]RideResponse, 0, len(rides))
	for _, ride := range rides {
		out = append(out, toRideResponse(ride))
	}
	return out
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
