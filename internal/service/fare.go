package service

import (
	"math"

	"ridehail/internal/config"
	"ridehail/internal/domain"
)

const earthRadiusKm = 6371.0

// FareService computes fare estimates from the configured rate catalog.
type FareService struct {
	pricing config.PricingConfig
}

// NewFareService creates a new FareService.
func NewFareService(pricing config.PricingConfig) *FareService {
	return &FareService{pricing: pricing}
}

// Estimate returns the estimated fare for a trip of the given distance and
// vehicle type, clamped to the configured minimum fare.
func (s *FareService) Estimate(vehicleType domain.VehicleType, distanceKm float64) (float64, error) {
	rate, ok := s.pricing.Rates[vehicleType]
	if !ok {
		return 0, ErrInvalidVehicleType
	}
	fare := rate.BaseFare + rate.PerKm*distanceKm
	if fare < s.pricing.MinimumFare {
		fare = s.pricing.MinimumFare
	}
	return math.Round(fare*100) / 100, nil
}

// EstimateDuration returns the estimated trip duration in whole minutes,
// based on the configured average speed. Always at least 1 minute.
func (s *FareService) EstimateDuration(distanceKm float64) int {
	if s.pricing.AvgSpeedKmh <= 0 {
		return 1
	}
	minutes := int(math.Ceil(distanceKm / s.pricing.AvgSpeedKmh * 60))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// Haversine returns the great-circle distance in kilometers between two points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// validCoordinates reports whether lat/lng form a valid geographic point.
func validCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
