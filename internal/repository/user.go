package repository

import (
	"context"

	"ridehail/internal/domain"
)

// UserRepository defines the persistence operations for users and their
// wallet balances.
type UserRepository interface {
	// Create adds a new user. Returns ErrDuplicate if the email is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetForUpdate retrieves a user and holds a row lock on it for the
	// remainder of the enclosing unit of work. Ledger operations use it to
	// serialize concurrent balance changes on the same user.
	GetForUpdate(ctx context.Context, id string) (*domain.User, error)

	// GetPlatformAccount retrieves the ADMIN user whose wallet accumulates
	// platform fees.
	GetPlatformAccount(ctx context.Context) (*domain.User, error)

	// UpdateWalletBalance sets the stored balance of a user.
	UpdateWalletBalance(ctx context.Context, id string, balance float64) error
}
