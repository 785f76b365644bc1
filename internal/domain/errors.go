package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	ErrInvalidAmount = errors.New("amount must be greater than zero")
	ErrMissingSide   = errors.New("transaction must reference both accounts")
	ErrSelfTransfer  = errors.New("cannot transact with the same account")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidMethod = errors.New("invalid transaction method")

	ErrCommitConflict    = errors.New("ledger mutated concurrently during commit")
	ErrRecalcInProgress  = errors.New("a recalculation pass is already running")
	ErrNoEligibleMembers = errors.New("no active members eligible for distribution")
	ErrRoundingOverflow  = errors.New("rounding remainder exceeds distributable units")
)
