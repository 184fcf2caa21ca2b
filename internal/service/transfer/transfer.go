package transfer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidobi/bank-ledger/internal/domain"
	"github.com/davidobi/bank-ledger/internal/logging"
)

type TransferRequest struct {
	SourceAccountID      uuid.UUID
	DestinationAccountID uuid.UUID
	Amount               decimal.Decimal
	Description          string
}

// Transfer moves funds between two accounts as one atomic unit of work: both
// rows are locked in ascending UUID order, the source balance is summed under
// the lock, and on acceptance a balanced pair of entries is written. Any
// failure rolls back with zero durable effect.
func (s *Service) Transfer(ctx context.Context, req TransferRequest) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	if err := s.validateTransfer(req); err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Transfer: begin tx: %w", err)
	}
	defer tx.Rollback()

	locked, err := lockAccountsInOrder(ctx, tx, s.accounts, req.SourceAccountID, req.DestinationAccountID)
	if err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	source, destination := locked[req.SourceAccountID], locked[req.DestinationAccountID]

	if err := s.verifyAccountUsable(source, "source"); err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	if err := s.verifyAccountUsable(destination, "destination"); err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}

	if s.policy.EnforceCurrencyMatch && source.Currency != destination.Currency {
		return nil, fmt.Errorf("Transfer: %w", domain.ErrCurrencyMismatch)
	}

	balance, err := s.ledger.SumByAccountTx(ctx, tx, req.SourceAccountID)
	if err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	if balance.LessThan(req.Amount) {
		return nil, fmt.Errorf("Transfer: %w", domain.ErrInsufficientFunds)
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:          uuid.New(),
		Type:        domain.TransactionTypeTransfer,
		Description: req.Description,
		Status:      domain.TransactionStatusCompleted,
		CreatedAt:   now,
	}

	if err := s.transactions.Create(ctx, tx, txn); err != nil {
		return nil, fmt.Errorf("Transfer: create transaction: %w", err)
	}

	if err := s.writeTransferEntries(ctx, tx, txn, req, now); err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Transfer: commit: %w", err)
	}

	log.Info("transfer completed",
		"transaction_id", txn.ID,
		"source_account", req.SourceAccountID,
		"destination_account", req.DestinationAccountID,
		"amount", req.Amount,
	)

	return txn, nil
}

func (s *Service) validateTransfer(req TransferRequest) error {
	if req.Amount.Sign() <= 0 {
		return fmt.Errorf("validateTransfer: %w", domain.ErrInvalidAmount)
	}
	if s.policy.RejectSelfTransfer && req.SourceAccountID == req.DestinationAccountID {
		return fmt.Errorf("validateTransfer: %w", domain.ErrSelfTransfer)
	}
	return nil
}

// writeTransferEntries appends the debit/credit pair. The two amounts sum to
// exactly zero.
func (s *Service) writeTransferEntries(ctx context.Context, tx *sql.Tx, txn *domain.Transaction, req TransferRequest, now time.Time) error {
	debit := &domain.LedgerEntry{
		ID:            uuid.New(),
		AccountID:     req.SourceAccountID,
		TransactionID: txn.ID,
		Amount:        req.Amount.Neg(),
		CreatedAt:     now,
	}
	if err := s.ledger.Create(ctx, tx, debit); err != nil {
		return fmt.Errorf("writeTransferEntries: debit: %w", err)
	}

	credit := &domain.LedgerEntry{
		ID:            uuid.New(),
		AccountID:     req.DestinationAccountID,
		TransactionID: txn.ID,
		Amount:        req.Amount,
		CreatedAt:     now,
	}
	if err := s.ledger.Create(ctx, tx, credit); err != nil {
		return fmt.Errorf("writeTransferEntries: credit: %w", err)
	}

	return nil
}
