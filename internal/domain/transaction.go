package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeDeposit       TransactionType = "DEPOSIT"
	TransactionTypeWithdraw      TransactionType = "WITHDRAW"
	TransactionTypeLoan          TransactionType = "LOAN"
	TransactionTypeRepayment     TransactionType = "REPAYMENT"
	TransactionTypeReturn        TransactionType = "RETURN"
	TransactionTypeOffset        TransactionType = "OFFSET"
	TransactionTypeProfitShare   TransactionType = "PROFIT_SHARE"
	TransactionTypeFundsTransfer TransactionType = "FUNDS_TRANSFER"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdraw, TransactionTypeLoan,
		TransactionTypeRepayment, TransactionTypeReturn, TransactionTypeOffset,
		TransactionTypeProfitShare, TransactionTypeFundsTransfer:
		return true
	}
	return false
}

type TransactionMethod string

const (
	MethodCash         TransactionMethod = "CASH"
	MethodUPI          TransactionMethod = "UPI"
	MethodBankTransfer TransactionMethod = "BANK_TRANSFER"
	MethodAdjustment   TransactionMethod = "ADJUSTMENT"
)

func (m TransactionMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodUPI, MethodBankTransfer, MethodAdjustment:
		return true
	}
	return false
}

// Transaction is one settled money movement in the append-only ledger.
// Amount is in minor currency units (paise) and must be positive. OccurredAt
// is event time and may be backdated; Seq is the insertion sequence assigned
// by the store and breaks ties between transactions with equal OccurredAt.
// Settled transactions are never edited in place, only deleted and recreated.
type Transaction struct {
	ID         uuid.UUID
	FromID     uuid.UUID
	ToID       uuid.UUID
	Amount     int64
	Type       TransactionType
	Method     TransactionMethod
	Note       string
	OccurredAt time.Time
	Seq        int64
	CreatedAt  time.Time
	CreatedBy  string
}

// Touches reports whether the transaction moves money into or out of the
// given account.
func (t *Transaction) Touches(accountID uuid.UUID) bool {
	return t.FromID == accountID || t.ToID == accountID
}
