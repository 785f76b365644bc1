package passbook

import (
	"time"

	"github.com/google/uuid"
	"github.com/iam-hussain/peacock-app-sub002/internal/domain"
	"github.com/shopspring/decimal"
)

// Accrue computes elapsed whole months and simple interest for every loan
// episode in the history: rate x principal x elapsed-months, where elapsed
// stops at the repayment date for closed episodes and at asOf for open ones.
// The input slice is not mutated.
//
// The monthly rate is a business parameter supplied by configuration.
//
// Episodes may only follow one another; more than one open episode is a data
// error and is reported, never silently merged.
func Accrue(accountID uuid.UUID, history []domain.LoanEntry, asOf time.Time, monthlyRate decimal.Decimal) ([]domain.LoanEntry, int64, []domain.Anomaly) {
	if len(history) == 0 {
		return nil, 0, nil
	}

	updated := make([]domain.LoanEntry, len(history))
	copy(updated, history)

	var anomalies []domain.Anomaly
	var total int64
	open := 0

	for i := range updated {
		entry := &updated[i]
		if entry.Active {
			open++
		}

		end := asOf
		if entry.EndAt != nil {
			end = *entry.EndAt
		}
		entry.Months = domain.MonthsBetween(entry.StartAt, end)

		interest := monthlyRate.
			Mul(decimal.NewFromInt(entry.Principal)).
			Mul(decimal.NewFromInt(int64(entry.Months))).
			Round(0)
		entry.Interest = interest.IntPart()
		total += entry.Interest
	}

	if open > 1 {
		anomalies = append(anomalies, domain.Anomaly{
			AccountID: accountID,
			Kind:      domain.AnomalyOverlappingLoans,
			Detail:    "multiple loan episodes open at once",
		})
	}

	return updated, total, anomalies
}
