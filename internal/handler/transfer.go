package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidobi/bank-ledger/internal/domain"
	"github.com/davidobi/bank-ledger/internal/logging"
	"github.com/davidobi/bank-ledger/internal/service/transfer"
)

type transferService interface {
	Deposit(ctx context.Context, req transfer.DepositRequest) (*domain.Transaction, error)
	Withdraw(ctx context.Context, req transfer.WithdrawRequest) (*domain.Transaction, error)
	Transfer(ctx context.Context, req transfer.TransferRequest) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, []domain.LedgerEntry, error)
}

type TransferHandler struct {
	transfers transferService
}

func NewTransferHandler(transfers transferService) *TransferHandler {
	return &TransferHandler{transfers: transfers}
}

type movementRequest struct {
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

func (r movementRequest) Validate() []FieldError {
	var errs []FieldError
	if _, err := uuid.Parse(r.AccountID); err != nil {
		errs = append(errs, FieldError{Field: "account_id", Message: "must be a valid UUID"})
	}
	if r.Amount.Sign() <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	return errs
}

type createTransferRequest struct {
	SourceAccountID      string          `json:"source_account_id"`
	DestinationAccountID string          `json:"destination_account_id"`
	Amount               decimal.Decimal `json:"amount"`
	Description          string          `json:"description"`
}

func (r createTransferRequest) Validate() []FieldError {
	var errs []FieldError
	if _, err := uuid.Parse(r.SourceAccountID); err != nil {
		errs = append(errs, FieldError{Field: "source_account_id", Message: "must be a valid UUID"})
	}
	if _, err := uuid.Parse(r.DestinationAccountID); err != nil {
		errs = append(errs, FieldError{Field: "destination_account_id", Message: "must be a valid UUID"})
	}
	if r.Amount.Sign() <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	return errs
}

type transactionDTO struct {
	ID          uuid.UUID        `json:"id"`
	Type        string           `json:"type"`
	Description string           `json:"description"`
	Status      string           `json:"status"`
	Entries     []ledgerEntryDTO `json:"entries,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

func toTransactionDTO(t *domain.Transaction, entries []domain.LedgerEntry) transactionDTO {
	dto := transactionDTO{
		ID:          t.ID,
		Type:        string(t.Type),
		Description: t.Description,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
	}
	for i := range entries {
		dto.Entries = append(dto.Entries, toLedgerEntryDTO(&entries[i]))
	}
	return dto
}

func (h *TransferHandler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req movementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	txn, err := h.transfers.Deposit(r.Context(), transfer.DepositRequest{
		AccountID:   uuid.MustParse(req.AccountID),
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		log.Warn("deposit failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/transactions/%s", txn.ID))
	RespondSuccess(w, http.StatusCreated, toTransactionDTO(txn, nil))
}

func (h *TransferHandler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req movementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	txn, err := h.transfers.Withdraw(r.Context(), transfer.WithdrawRequest{
		AccountID:   uuid.MustParse(req.AccountID),
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		log.Warn("withdrawal failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/transactions/%s", txn.ID))
	RespondSuccess(w, http.StatusCreated, toTransactionDTO(txn, nil))
}

func (h *TransferHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req createTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	txn, err := h.transfers.Transfer(r.Context(), transfer.TransferRequest{
		SourceAccountID:      uuid.MustParse(req.SourceAccountID),
		DestinationAccountID: uuid.MustParse(req.DestinationAccountID),
		Amount:               req.Amount,
		Description:          req.Description,
	})
	if err != nil {
		log.Warn("transfer failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/transactions/%s", txn.ID))
	RespondSuccess(w, http.StatusCreated, toTransactionDTO(txn, nil))
}

func (h *TransferHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	txn, entries, err := h.transfers.GetTransaction(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("transaction lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTO(txn, entries))
}
