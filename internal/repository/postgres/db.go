package postgres

import (
	"context"
	"database/sql"

	"ridehail/internal/repository"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)

	_ repository.Store = (*Store)(nil)
	_ repository.Tx    = (*Tx)(nil)
)

// Store implements repository.Store on top of a PostgreSQL pool.
type Store struct {
	db *sql.DB
	repos
}

// NewStore creates a new PostgreSQL-backed store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, repos: newRepos(db)}
}

// Begin opens a unit of work. Row locks taken via GetForUpdate inside it are
// held until Commit or Rollback.
func (s *Store) Begin(ctx context.Context) (repository.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, repos: newRepos(tx)}, nil
}

// Tx implements repository.Tx over a *sql.Tx.
type Tx struct {
	tx *sql.Tx
	repos
}

func (t *Tx) Commit() error   { return t.tx.Commit() }
func (t *Tx) Rollback() error { return t.tx.Rollback() }

// repos binds the entity repositories to one querier.
type repos struct {
	users        *UserRepository
	drivers      *DriverProfileRepository
	rides        *RideRepository
	transactions *TransactionRepository
}

func newRepos(q Querier) repos {
	return repos{
		users:        &UserRepository{q: q},
		drivers:      &DriverProfileRepository{q: q},
		rides:        &RideRepository{q: q},
		transactions: &TransactionRepository{q: q},
	}
}

func (r repos) Users() repository.UserRepository { return r.users }

func (r repos) Drivers() repository.DriverProfileRepository { return r.drivers }

func (r repos) Rides() repository.RideRepository { return r.rides }

func (r repos) Transactions() repository.TransactionRepository { return r.transactions }
