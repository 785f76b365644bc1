package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type AnomalyKind string

const (
	AnomalyOrphanRepayment      AnomalyKind = "ORPHAN_REPAYMENT"
	AnomalyOverlappingLoans     AnomalyKind = "OVERLAPPING_LOANS"
	AnomalyMalformedTransaction AnomalyKind = "MALFORMED_TRANSACTION"
	AnomalyRoundingOverflow     AnomalyKind = "ROUNDING_OVERFLOW"
)

// Anomaly records a consistency problem found while replaying the ledger.
// Anomalies never abort a recalculation pass: the affected account is flagged
// for manual review and every other account is computed normally.
type Anomaly struct {
	AccountID     uuid.UUID
	TransactionID *uuid.UUID
	Kind          AnomalyKind
	Detail        string
}

func (a Anomaly) String() string {
	if a.TransactionID != nil {
		return fmt.Sprintf("%s account=%s tx=%s: %s", a.Kind, a.AccountID, *a.TransactionID, a.Detail)
	}
	return fmt.Sprintf("%s account=%s: %s", a.Kind, a.AccountID, a.Detail)
}
