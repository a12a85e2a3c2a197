package tests

import (
	"errors"
	"math"
	"testing"

	"ridehail/internal/domain"
	"ridehail/internal/service"
)

func TestFareEstimate(t *testing.T) {
	fares := service.NewFareService(testPricing())

	testCases := []struct {
		name        string
		vehicleType domain.VehicleType
		distanceKm  float64
		want        float64
	}{
		{"economy base plus per km", domain.VehicleEconomy, 10, 170},     // 50 + 12*10
		{"suv base plus per km", domain.VehicleSUV, 5, 170},              // 80 + 18*5
		{"premium base plus per km", domain.VehiclePremium, 2, 170},      // 120 + 25*2
		{"zero distance yields base fare", domain.VehicleEconomy, 0, 50}, // base > minimum
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := fares.Estimate(tc.vehicleType, tc.distanceKm)
			if err != nil {
				t.Fatalf("Estimate: %v", err)
			}
			if got != tc.want {
				t.Errorf("Estimate = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFareEstimateMinimumClamp(t *testing.T) {
	pricing := testPricing()
	pricing.MinimumFare = 100
	fares := service.NewFareService(pricing)

	got, err := fares.Estimate(domain.VehicleEconomy, 1)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if got != 100 {
		t.Errorf("Estimate = %v, want minimum fare 100", got)
	}
}

func TestFareEstimateUnknownVehicleType(t *testing.T) {
	fares := service.NewFareService(testPricing())

	_, err := fares.Estimate(domain.VehicleType("HELICOPTER"), 3)
	if !errors.Is(err, service.ErrInvalidVehicleType) {
		t.Errorf("Estimate error = %v, want ErrInvalidVehicleType", err)
	}
}

func TestEstimateDuration(t *testing.T) {
	fares := service.NewFareService(testPricing())

	// 15 km at 30 km/h is 30 minutes.
	if got := fares.EstimateDuration(15); got != 30 {
		t.Errorf("EstimateDuration(15) = %d, want 30", got)
	}

	// Very short trips still take at least a minute.
	if got := fares.EstimateDuration(0.01); got != 1 {
		t.Errorf("EstimateDuration(0.01) = %d, want 1", got)
	}
}

func TestHaversine(t *testing.T) {
	// Bangalore city center to Electronic City, roughly 17-18 km.
	dist := service.Haversine(12.9716, 77.5946, 12.8452, 77.6602)
	if dist < 15 || dist > 20 {
		t.Errorf("Haversine = %v km, expected between 15 and 20", dist)
	}

	// Same point is zero.
	if d := service.Haversine(12.9716, 77.5946, 12.9716, 77.5946); math.Abs(d) > 1e-9 {
		t.Errorf("Haversine same point = %v, want 0", d)
	}
}
