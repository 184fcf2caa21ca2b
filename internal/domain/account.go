package domain

import (
	"time"

	"github.com/google/uuid"
)

type AccountStatus string

const (
	AccountStatusActive AccountStatus = "active"
	AccountStatusFrozen AccountStatus = "frozen"
	AccountStatusClosed AccountStatus = "closed"
)

func (s AccountStatus) IsValid() bool {
	switch s {
	case AccountStatusActive, AccountStatusFrozen, AccountStatusClosed:
		return true
	}
	return false
}

const DefaultCurrency = "USD"

// Account identifies a fund container. It carries no balance column: the
// balance is always derived by summing the account's ledger entries.
type Account struct {
	ID          uuid.UUID
	OwnerID     string
	AccountType string
	Currency    string
	Status      AccountStatus
	CreatedAt   time.Time
}
