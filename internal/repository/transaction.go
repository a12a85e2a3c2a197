package repository

import (
	"context"

	"ridehail/internal/domain"
)

// TransactionRepository defines the persistence operations for ledger
// entries. Entries are append-only; there is no update or delete.
type TransactionRepository interface {
	// Create appends a ledger entry.
	Create(ctx context.Context, txn *domain.Transaction) error

	// ListByUser retrieves a user's ledger entries, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Transaction, error)
}
