package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ridehail/internal/auth"
	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// Wallet top-ups are capped per request.
const maxTopUpAmount = 1000

// UserService handles registration, login, and wallet operations.
type UserService struct {
	store  repository.Store
	ledger *LedgerService
	tokens *auth.TokenIssuer
}

// NewUserService creates a new UserService.
func NewUserService(store repository.Store, ledger *LedgerService, tokens *auth.TokenIssuer) *UserService {
	return &UserService{
		store:  store,
		ledger: ledger,
		tokens: tokens,
	}
}

// RegisterInput contains the parameters for creating an account. The driver
// fields are required when Role is DRIVER and ignored otherwise.
type RegisterInput struct {
	Email         string
	Password      string
	Name          string
	Phone         string
	Role          domain.Role
	LicenseNumber string
	VehicleType   domain.VehicleType
	VehicleModel  string
	VehiclePlate  string
	City          string
}

// Register creates a user and, for drivers, the driver profile alongside it.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" || input.Name == "" {
		return nil, ErrInvalidCredentials
	}
	if input.Role != domain.RoleRider && input.Role != domain.RoleDriver {
		return nil, ErrPermissionDenied
	}
	if input.Role == domain.RoleDriver && !domain.ValidVehicleType(input.VehicleType) {
		return nil, ErrInvalidVehicleType
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         input.Name,
		Phone:        input.Phone,
		PasswordHash: string(hash),
		Role:         input.Role,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := tx.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if input.Role == domain.RoleDriver {
		profile := &domain.DriverProfile{
			ID:            uuid.New().String(),
			UserID:        user.ID,
			LicenseNumber: input.LicenseNumber,
			VehicleType:   input.VehicleType,
			VehicleModel:  input.VehicleModel,
			VehiclePlate:  input.VehiclePlate,
			City:          input.City,
		}
		if err := tx.Drivers().Create(ctx, profile); err != nil {
			return nil, fmt.Errorf("create driver profile: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return user, nil
}

// Login verifies the credentials and issues a signed token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !user.IsActive {
		return "", nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

// GetUser returns a user by id.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, ErrInvalidUserID
	}
	return s.store.Users().GetByID(ctx, id)
}

// TopUpWallet credits the user's wallet. Amounts must be positive and at
// most the per-request cap.
func (s *UserService) TopUpWallet(ctx context.Context, userID string, amount float64) (*domain.Transaction, error) {
	if amount <= 0 || amount > maxTopUpAmount {
		return nil, ErrInvalidAmount
	}
	return s.ledger.Credit(ctx, userID, amount, "wallet top-up")
}

// WalletBalance returns the user's current balance.
func (s *UserService) WalletBalance(ctx context.Context, userID string) (float64, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.WalletBalance, nil
}

// Transactions returns the user's most recent ledger entries, newest first.
func (s *UserService) Transactions(ctx context.Context, userID string, limit int) ([]*domain.Transaction, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.store.Transactions().ListByUser(ctx, userID, limit)
}

// PlatformRevenue returns the balance accumulated in the platform account.
// Admin only.
func (s *UserService) PlatformRevenue(ctx context.Context, role domain.Role) (float64, error) {
	if role != domain.RoleAdmin {
		return 0, ErrPermissionDenied
	}
	platform, err := s.store.Users().GetPlatformAccount(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrNoPlatformAccount
		}
		return 0, err
	}
	return platform.WalletBalance, nil
}
