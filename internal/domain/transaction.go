package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeTransfer   TransactionType = "transfer"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction groups the ledger entries written by one logical operation.
// It is created and finalized inside the same unit of work as its entries
// and never mutated afterwards.
type Transaction struct {
	ID          uuid.UUID
	Type        TransactionType
	Description string
	Status      TransactionStatus
	CreatedAt   time.Time
}
