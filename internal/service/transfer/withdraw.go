package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidobi/bank-ledger/internal/domain"
	"github.com/davidobi/bank-ledger/internal/logging"
)

type WithdrawRequest struct {
	AccountID   uuid.UUID
	Amount      decimal.Decimal
	Description string
}

// Withdraw is the debit leg of a transfer with no destination: it runs the
// same lock-then-check-then-write sequence against a single account.
func (s *Service) Withdraw(ctx context.Context, req WithdrawRequest) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	if req.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("Withdraw: %w", domain.ErrInvalidAmount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: begin tx: %w", err)
	}
	defer tx.Rollback()

	locked, err := lockAccountsInOrder(ctx, tx, s.accounts, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}
	account := locked[req.AccountID]

	if err := s.verifyAccountUsable(account, "account"); err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	balance, err := s.ledger.SumByAccountTx(ctx, tx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}
	if balance.LessThan(req.Amount) {
		return nil, fmt.Errorf("Withdraw: %w", domain.ErrInsufficientFunds)
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:          uuid.New(),
		Type:        domain.TransactionTypeWithdrawal,
		Description: req.Description,
		Status:      domain.TransactionStatusCompleted,
		CreatedAt:   now,
	}

	if err := s.transactions.Create(ctx, tx, txn); err != nil {
		return nil, fmt.Errorf("Withdraw: create transaction: %w", err)
	}

	entry := &domain.LedgerEntry{
		ID:            uuid.New(),
		AccountID:     req.AccountID,
		TransactionID: txn.ID,
		Amount:        req.Amount.Neg(),
		CreatedAt:     now,
	}
	if err := s.ledger.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("Withdraw: create entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Withdraw: commit: %w", err)
	}

	log.Info("withdrawal completed",
		"transaction_id", txn.ID,
		"account_id", req.AccountID,
		"amount", req.Amount,
	)

	return txn, nil
}
