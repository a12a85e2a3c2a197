package repository

import "context"

// Repositories bundles access to all entity repositories bound to the same
// underlying querier (a plain connection pool or an open transaction).
type Repositories interface {
	Users() UserRepository
	Drivers() DriverProfileRepository
	Rides() RideRepository
	Transactions() TransactionRepository
}

// Tx is an open unit of work. All reads and writes through its repositories
// commit or roll back together; no partial mutation survives a rollback.
type Tx interface {
	Repositories

	Commit() error
	Rollback() error
}

// Store is the persistence entry point. Repository methods obtained directly
// from the Store auto-commit; Begin opens a Tx for multi-row atomic work such
// as ride transitions and ledger transfers.
type Store interface {
	Repositories

	Begin(ctx context.Context) (Tx, error)
}
