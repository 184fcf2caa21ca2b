package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntry is an immutable signed monetary movement against one account.
// Entries are append-only: no update, no delete. A transfer writes a pair of
// entries whose amounts sum to zero; a deposit or withdrawal writes one.
type LedgerEntry struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	TransactionID uuid.UUID
	Amount        decimal.Decimal
	CreatedAt     time.Time
}
