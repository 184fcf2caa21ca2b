// Package transfer implements the fund-movement engine: deposits,
// withdrawals, and transfers, each executed as one atomic unit of work
// against the ledger store. Balances are derived from ledger entries under
// the account row lock, never read from a stored column, so a successful
// commit is the only thing that can change what a concurrent mover observes.
package transfer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidobi/bank-ledger/internal/domain"
)

type accountRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error)
}

type transactionRepo interface {
	Create(ctx context.Context, tx *sql.Tx, txn *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
}

type ledgerRepo interface {
	Create(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error
	SumByAccountTx(ctx context.Context, tx *sql.Tx, accountID uuid.UUID) (decimal.Decimal, error)
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]domain.LedgerEntry, error)
}

// Policy holds the configurable validation hooks. The core protocol works
// with everything off; the toggles exist because the intended rules for
// self-transfers, currency mixing, and non-active accounts are open product
// questions.
type Policy struct {
	RejectSelfTransfer   bool
	EnforceCurrencyMatch bool
	EnforceAccountStatus bool
}

type Service struct {
	accounts     accountRepo
	transactions transactionRepo
	ledger       ledgerRepo
	db           *sql.DB
	policy       Policy
}

func NewService(accounts accountRepo, transactions transactionRepo, ledger ledgerRepo, db *sql.DB, policy Policy) *Service {
	return &Service{
		accounts:     accounts,
		transactions: transactions,
		ledger:       ledger,
		db:           db,
		policy:       policy,
	}
}

func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, []domain.LedgerEntry, error) {
	txn, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("GetTransaction: %w", err)
	}

	entries, err := s.ledger.GetByTransactionID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("GetTransaction: %w", err)
	}
	return txn, entries, nil
}

func (s *Service) verifyAccountUsable(acct *domain.Account, role string) error {
	if !s.policy.EnforceAccountStatus {
		return nil
	}
	if acct.Status == domain.AccountStatusFrozen {
		return fmt.Errorf("%s: %w", role, domain.ErrAccountFrozen)
	}
	if acct.Status != domain.AccountStatusActive {
		return fmt.Errorf("%s: %w", role, domain.ErrAccountClosed)
	}
	return nil
}

// lockAccountsInOrder acquires exclusive row locks in ascending UUID order
// regardless of request order. Two opposite-direction transfers between the
// same pair of accounts therefore contend on the same first lock instead of
// deadlocking. Duplicate ids are locked once.
func lockAccountsInOrder(ctx context.Context, tx *sql.Tx, accounts accountRepo, ids ...uuid.UUID) (map[uuid.UUID]*domain.Account, error) {
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	result := make(map[uuid.UUID]*domain.Account, len(ids))
	for _, id := range sorted {
		if _, ok := result[id]; ok {
			continue
		}
		acct, err := accounts.GetForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("lockAccountsInOrder: %w", domain.ErrAccountNotFound)
			}
			return nil, fmt.Errorf("lockAccountsInOrder: %w", err)
		}
		result[id] = acct
	}
	return result, nil
}
