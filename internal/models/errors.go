package models

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrConflict            = errors.New("conflict")
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)

var (
	ErrInvalidAmount        = fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	ErrAmountPrecision      = fmt.Errorf("%w: amount must have at most 2 decimal places and at most 13 integer digits", ErrValidation)
	ErrInvalidReference     = fmt.Errorf("%w: referenced account does not exist", ErrValidation)
	ErrImmutableTransaction = fmt.Errorf("%w: only the status of a transaction can change", ErrValidation)

	ErrUserNotFound        = fmt.Errorf("user %w", ErrNotFound)
	ErrChildNotFound       = fmt.Errorf("child %w", ErrNotFound)
	ErrInvestmentNotFound  = fmt.Errorf("investment %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrGoalNotFound        = fmt.Errorf("goal %w", ErrNotFound)
	ErrContractNotFound    = fmt.Errorf("contract %w", ErrNotFound)
	ErrNFTNotFound         = fmt.Errorf("nft %w", ErrNotFound)
	ErrChainTxNotFound     = fmt.Errorf("blockchain transaction %w", ErrNotFound)
	ErrGasPriceNotFound    = fmt.Errorf("gas price %w", ErrNotFound)

	ErrEmailTaken       = fmt.Errorf("%w: email already exists", ErrConflict)
	ErrUsernameTaken    = fmt.Errorf("%w: username already exists", ErrConflict)
	ErrDuplicateHash    = fmt.Errorf("%w: transaction hash already recorded", ErrConflict)
	ErrNotTransferable  = fmt.Errorf("%w: child has not reached unlock age", ErrConflict)
	ErrNoActiveWallet   = fmt.Errorf("%w: no wallet connected", ErrConflict)
	ErrInvalidStateMove = fmt.Errorf("%w: operation not allowed in current status", ErrConflict)
)
