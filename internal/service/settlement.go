package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// SettlementService moves money for a completed ride. The rider pays the
// final fare, the platform keeps its fee, and the driver receives the rest.
type SettlementService struct {
	feeRate float64
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(feeRate float64) *SettlementService {
	return &SettlementService{feeRate: feeRate}
}

// Fee returns the platform fee for the given fare, rounded to cents.
func (s *SettlementService) Fee(fare float64) float64 {
	return math.Round(fare*s.feeRate*100) / 100
}

// SettleTx settles the ride inside the caller's open transaction. The driver
// on the ride must already be assigned. On ErrInsufficientFunds the caller is
// expected to roll back, leaving the ride unsettled.
func (s *SettlementService) SettleTx(ctx context.Context, tx repository.Repositories, ride *domain.Ride, fare float64) error {
	if ride.DriverID == "" {
		return ErrInvalidDriverID
	}

	platform, err := tx.Users().GetPlatformAccount(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoPlatformAccount
		}
		return fmt.Errorf("load platform account: %w", err)
	}

	fee := s.Fee(fare)
	description := fmt.Sprintf("ride %s fare", ride.ID)

	if err := TransferWithFeeTx(ctx, tx, ride.RiderID, ride.DriverID, fare, fee, platform.ID, description); err != nil {
		return err
	}

	// One completed ride per settlement, counted exactly once.
	profile, err := tx.Drivers().GetByUserID(ctx, ride.DriverID)
	if err != nil {
		return fmt.Errorf("load driver profile: %w", err)
	}
	if err := tx.Drivers().UpdateStats(ctx, profile.UserID, profile.Rating, profile.TotalRides+1); err != nil {
		return fmt.Errorf("update driver stats: %w", err)
	}
	return nil
}
