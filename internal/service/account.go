package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidobi/bank-ledger/internal/domain"
	"github.com/davidobi/bank-ledger/internal/logging"
)

type AccountService struct {
	accounts accountRepository
	ledger   ledgerRepository
}

func NewAccountService(accounts accountRepository, ledger ledgerRepository) *AccountService {
	return &AccountService{accounts: accounts, ledger: ledger}
}

func (s *AccountService) CreateAccount(ctx context.Context, ownerID, accountType, currency string) (*domain.Account, error) {
	log := logging.FromContext(ctx)

	if currency == "" {
		currency = domain.DefaultCurrency
	}

	account := &domain.Account{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		AccountType: accountType,
		Currency:    currency,
		Status:      domain.AccountStatusActive,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	log.Info("account created",
		"account_id", account.ID,
		"owner_id", ownerID,
		"currency", currency,
	)

	return account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	return account, nil
}

// GetBalance sums all committed entries for the account. The balance is never
// stored, so repeated reads with no intervening writes return identical
// values.
func (s *AccountService) GetBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	if _, err := s.accounts.GetByID(ctx, id); err != nil {
		return decimal.Zero, fmt.Errorf("GetBalance: %w", err)
	}

	balance, err := s.ledger.SumByAccount(ctx, id)
	if err != nil {
		return decimal.Zero, fmt.Errorf("GetBalance: %w", err)
	}
	return balance, nil
}

func (s *AccountService) ListEntries(ctx context.Context, id uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	if _, err := s.accounts.GetByID(ctx, id); err != nil {
		return nil, 0, fmt.Errorf("ListEntries: %w", err)
	}

	entries, total, err := s.ledger.ListByAccount(ctx, id, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ListEntries: %w", err)
	}
	return entries, total, nil
}

// UpdateStatus applies an administrative lifecycle transition. Fund movement
// never changes account status.
func (s *AccountService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AccountStatus) (*domain.Account, error) {
	log := logging.FromContext(ctx)

	if !status.IsValid() {
		return nil, fmt.Errorf("UpdateStatus: %w", domain.ErrInvalidStatus)
	}

	if err := s.accounts.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("UpdateStatus: %w", err)
	}

	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("UpdateStatus: %w", err)
	}

	log.Info("account status updated", "account_id", id, "status", status)
	return account, nil
}
