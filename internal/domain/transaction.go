package domain

import "time"

// TransactionType tags a ledger entry.
type TransactionType string

const (
	TransactionCredit TransactionType = "CREDIT"
	TransactionDebit  TransactionType = "DEBIT"
	TransactionFee    TransactionType = "FEE"
)

// Transaction is one immutable ledger entry. Amount is signed: positive for
// credits, negative for debits. Entries are append-only; the owning user's
// wallet balance is updated in the same unit of work that appends the entry.
type Transaction struct {
	ID          string
	UserID      string
	Amount      float64
	Type        TransactionType
	Description string
	CreatedAt   time.Time
}
