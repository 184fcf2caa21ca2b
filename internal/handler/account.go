package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidobi/bank-ledger/internal/domain"
	"github.com/davidobi/bank-ledger/internal/logging"
)

type accountService interface {
	CreateAccount(ctx context.Context, ownerID, accountType, currency string) (*domain.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)
	ListEntries(ctx context.Context, id uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AccountStatus) (*domain.Account, error)
}

type AccountHandler struct {
	accounts accountService
}

func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type createAccountRequest struct {
	OwnerID     string `json:"owner_id"`
	AccountType string `json:"account_type"`
	Currency    string `json:"currency"`
}

func (r createAccountRequest) Validate() []FieldError {
	var errs []FieldError
	if r.OwnerID == "" {
		errs = append(errs, FieldError{Field: "owner_id", Message: "required"})
	}
	if r.AccountType == "" {
		errs = append(errs, FieldError{Field: "account_type", Message: "required"})
	}
	return errs
}

type accountDTO struct {
	ID          uuid.UUID        `json:"id"`
	OwnerID     string           `json:"owner_id"`
	AccountType string           `json:"account_type"`
	Currency    string           `json:"currency"`
	Status      string           `json:"status"`
	Balance     *decimal.Decimal `json:"balance,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

func toAccountDTO(a *domain.Account, balance *decimal.Decimal) accountDTO {
	return accountDTO{
		ID:          a.ID,
		OwnerID:     a.OwnerID,
		AccountType: a.AccountType,
		Currency:    a.Currency,
		Status:      string(a.Status),
		Balance:     balance,
		CreatedAt:   a.CreatedAt,
	}
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	account, err := h.accounts.CreateAccount(r.Context(), req.OwnerID, req.AccountType, req.Currency)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toAccountDTO(account, nil))
}

// Get returns the account with its balance computed on demand from committed
// ledger entries.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := accountIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	balance, err := h.accounts.GetBalance(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to compute balance", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toAccountDTO(account, &balance))
}

type ledgerEntryDTO struct {
	ID            uuid.UUID       `json:"id"`
	AccountID     uuid.UUID       `json:"account_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toLedgerEntryDTO(e *domain.LedgerEntry) ledgerEntryDTO {
	return ledgerEntryDTO{
		ID:            e.ID,
		AccountID:     e.AccountID,
		TransactionID: e.TransactionID,
		Amount:        e.Amount,
		CreatedAt:     e.CreatedAt,
	}
}

func (h *AccountHandler) ListLedger(w http.ResponseWriter, r *http.Request) {
	id, appErr := accountIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	limit, offset := paginationParams(r)

	entries, total, err := h.accounts.ListEntries(r.Context(), id, limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]ledgerEntryDTO, len(entries))
	for i := range entries {
		dtos[i] = toLedgerEntryDTO(&entries[i])
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"entries": dtos,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *AccountHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, appErr := accountIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	status := domain.AccountStatus(req.Status)
	if !status.IsValid() {
		RespondValidationError(w, []FieldError{{Field: "status", Message: "must be active, frozen, or closed"}})
		return
	}

	account, err := h.accounts.UpdateStatus(r.Context(), id, status)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to update account status", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toAccountDTO(account, nil))
}

func accountIDFromPath(r *http.Request) (uuid.UUID, *AppError) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, ErrResourceNotFound
	}
	return id, nil
}

func paginationParams(r *http.Request) (limit, offset int) {
	limit, offset = 50, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
