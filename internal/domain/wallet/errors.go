package wallet

import "errors"

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrAccountNotFound     = errors.New("wallet account not found")
	ErrInsufficientFunds   = errors.New("insufficient wallet balance")
	ErrDuplicateReference  = errors.New("reference already used with a different operation")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidTransition   = errors.New("transaction status is terminal")
	ErrAlreadySettled      = errors.New("transaction already settled")
)
