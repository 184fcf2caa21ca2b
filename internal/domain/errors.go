package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrSelfTransfer      = errors.New("cannot transfer to same account")
	ErrCurrencyMismatch  = errors.New("currency mismatch")
	ErrAccountFrozen     = errors.New("account frozen")
	ErrAccountClosed     = errors.New("account closed")
	ErrInvalidStatus     = errors.New("invalid account status")
	ErrInvalidRequest    = errors.New("invalid request")
)
