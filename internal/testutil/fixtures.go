package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidobi/bank-ledger/internal/domain"
)

func SeedAccount(t *testing.T, db *sql.DB, ownerID, accountType, currency string) *domain.Account {
	t.Helper()

	a := &domain.Account{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		AccountType: accountType,
		Currency:    currency,
		Status:      domain.AccountStatusActive,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO accounts (id, owner_id, account_type, currency, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.OwnerID, a.AccountType, a.Currency, a.Status, a.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed account for %s: %v", ownerID, err)
	}
	return a
}

func SetAccountStatus(t *testing.T, db *sql.DB, accountID uuid.UUID, status domain.AccountStatus) {
	t.Helper()

	if _, err := db.Exec(`UPDATE accounts SET status = $1 WHERE id = $2`, status, accountID); err != nil {
		t.Fatalf("set account status %s: %v", accountID, err)
	}
}

// SeedDeposit writes a completed deposit transaction with one positive entry,
// bypassing the engine, so tests can establish a starting balance.
func SeedDeposit(t *testing.T, db *sql.DB, accountID uuid.UUID, amount decimal.Decimal) uuid.UUID {
	t.Helper()

	txnID := uuid.New()
	now := time.Now().UTC()

	_, err := db.Exec(
		`INSERT INTO transactions (id, type, description, status, created_at)
		 VALUES ($1, 'deposit', 'seed deposit', 'completed', $2)`,
		txnID, now,
	)
	if err != nil {
		t.Fatalf("seed deposit transaction: %v", err)
	}

	_, err = db.Exec(
		`INSERT INTO ledger_entries (id, account_id, transaction_id, amount, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), accountID, txnID, amount, now,
	)
	if err != nil {
		t.Fatalf("seed deposit entry: %v", err)
	}
	return txnID
}

// GetBalance recomputes the balance the same way the engine does: a signed
// sum over the account's entries.
func GetBalance(t *testing.T, db *sql.DB, accountID uuid.UUID) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE account_id = $1`,
		accountID,
	).Scan(&balance)
	if err != nil {
		t.Fatalf("get balance %s: %v", accountID, err)
	}
	return balance
}

func CountEntries(t *testing.T, db *sql.DB, accountID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM ledger_entries WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		t.Fatalf("count entries for account %s: %v", accountID, err)
	}
	return count
}

func CountTransactions(t *testing.T, db *sql.DB) int {
	t.Helper()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	return count
}
