package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// LedgerService applies wallet movements atomically and records every
// movement as an append-only transaction row.
type LedgerService struct {
	store repository.Store
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(store repository.Store) *LedgerService {
	return &LedgerService{store: store}
}

// Credit adds amount to the user's wallet in its own transaction.
func (s *LedgerService) Credit(ctx context.Context, userID string, amount float64, description string) (*domain.Transaction, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	txn, err := creditTx(ctx, tx, userID, amount, description)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return txn, nil
}

// Debit removes amount from the user's wallet in its own transaction.
// Returns ErrInsufficientFunds when the balance would go negative.
func (s *LedgerService) Debit(ctx context.Context, userID string, amount float64, description string) (*domain.Transaction, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	txn, err := debitTx(ctx, tx, userID, amount, description)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return txn, nil
}

// TransferWithFee moves gross from payer to payee, diverting fee to the fee
// recipient, all in its own transaction. The payee receives gross minus fee.
func (s *LedgerService) TransferWithFee(ctx context.Context, payerID, payeeID string, gross, fee float64, feeRecipientID, description string) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := TransferWithFeeTx(ctx, tx, payerID, payeeID, gross, fee, feeRecipientID, description); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// TransferWithFeeTx performs the transfer inside an already open transaction,
// so callers can bundle it with other state changes. All touched wallet rows
// are locked in ascending user id order to keep concurrent transfers from
// deadlocking each other. A zero gross moves nothing and writes no entries.
func TransferWithFeeTx(ctx context.Context, tx repository.Repositories, payerID, payeeID string, gross, fee float64, feeRecipientID, description string) error {
	if payerID == "" || payeeID == "" || feeRecipientID == "" {
		return ErrInvalidUserID
	}
	if gross < 0 || fee < 0 || fee > gross {
		return ErrInvalidAmount
	}
	if gross == 0 {
		return nil
	}

	users, err := lockUsers(ctx, tx, payerID, payeeID, feeRecipientID)
	if err != nil {
		return err
	}

	payer := users[payerID]
	if payer.WalletBalance < gross {
		return ErrInsufficientFunds
	}

	net := gross - fee

	if err := applyMovement(ctx, tx, users[payerID], -gross, domain.TransactionDebit, description); err != nil {
		return err
	}
	if err := applyMovement(ctx, tx, users[payeeID], net, domain.TransactionCredit, description); err != nil {
		return err
	}
	if fee > 0 {
		if err := applyMovement(ctx, tx, users[feeRecipientID], fee, domain.TransactionFee, description); err != nil {
			return err
		}
	}
	return nil
}

func creditTx(ctx context.Context, tx repository.Repositories, userID string, amount float64, description string) (*domain.Transaction, error) {
	user, err := tx.Users().GetForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return applyMovementReturning(ctx, tx, user, amount, domain.TransactionCredit, description)
}

func debitTx(ctx context.Context, tx repository.Repositories, userID string, amount float64, description string) (*domain.Transaction, error) {
	user, err := tx.Users().GetForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.WalletBalance < amount {
		return nil, ErrInsufficientFunds
	}
	return applyMovementReturning(ctx, tx, user, -amount, domain.TransactionDebit, description)
}

// lockUsers locks the wallet rows for the given user ids in ascending id
// order and returns them keyed by id. Duplicate ids are locked once.
func lockUsers(ctx context.Context, tx repository.Repositories, ids ...string) (map[string]*domain.User, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	sort.Strings(unique)

	users := make(map[string]*domain.User, len(unique))
	for _, id := range unique {
		user, err := tx.Users().GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		users[id] = user
	}
	return users, nil
}

func applyMovement(ctx context.Context, tx repository.Repositories, user *domain.User, delta float64, txnType domain.TransactionType, description string) error {
	_, err := applyMovementReturning(ctx, tx, user, delta, txnType, description)
	return err
}

func applyMovementReturning(ctx context.Context, tx repository.Repositories, user *domain.User, delta float64, txnType domain.TransactionType, description string) (*domain.Transaction, error) {
	user.WalletBalance += delta
	if err := tx.Users().UpdateWalletBalance(ctx, user.ID, user.WalletBalance); err != nil {
		return nil, fmt.Errorf("update wallet balance: %w", err)
	}

	txn := &domain.Transaction{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		Amount:      delta,
		Type:        txnType,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := tx.Transactions().Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}
	return txn, nil
}
