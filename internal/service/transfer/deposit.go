package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidobi/bank-ledger/internal/domain"
	"github.com/davidobi/bank-ledger/internal/logging"
)

type DepositRequest struct {
	AccountID   uuid.UUID
	Amount      decimal.Decimal
	Description string
}

// Deposit credits an account with a single positive entry. No balance check
// is needed: a deposit cannot cause an overdraft.
func (s *Service) Deposit(ctx context.Context, req DepositRequest) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	if req.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("Deposit: %w", domain.ErrInvalidAmount)
	}

	account, err := s.accounts.GetByID(ctx, req.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Deposit: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	if err := s.verifyAccountUsable(account, "account"); err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Deposit: begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:          uuid.New(),
		Type:        domain.TransactionTypeDeposit,
		Description: req.Description,
		Status:      domain.TransactionStatusCompleted,
		CreatedAt:   now,
	}

	if err := s.transactions.Create(ctx, tx, txn); err != nil {
		return nil, fmt.Errorf("Deposit: create transaction: %w", err)
	}

	entry := &domain.LedgerEntry{
		ID:            uuid.New(),
		AccountID:     req.AccountID,
		TransactionID: txn.ID,
		Amount:        req.Amount,
		CreatedAt:     now,
	}
	if err := s.ledger.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("Deposit: create entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Deposit: commit: %w", err)
	}

	log.Info("deposit completed",
		"transaction_id", txn.ID,
		"account_id", req.AccountID,
		"amount", req.Amount,
	)

	return txn, nil
}
