package recalc

import (
	"time"

	"github.com/google/uuid"
	"github.com/iam-hussain/peacock-app-sub002/internal/domain"
)

// buildSummaries rebuilds the month-by-month snapshot series from scratch:
// one Summary per calendar month from the first transaction through asOf.
// Summaries are never updated incrementally; the whole series replaces the
// previous one on commit.
func buildSummaries(accounts []domain.Account, txs []domain.Transaction, asOf time.Time) []domain.Summary {
	if len(txs) == 0 {
		return nil
	}

	var clubID uuid.UUID
	for i := range accounts {
		if accounts[i].Kind == domain.AccountKindClub {
			clubID = accounts[i].ID
			break
		}
	}
	if clubID == uuid.Nil {
		return nil
	}

	first := monthStart(txs[0].OccurredAt)
	for i := range txs {
		if m := monthStart(txs[i].OccurredAt); m.Before(first) {
			first = m
		}
	}

	var summaries []domain.Summary
	var deposits, clubIn, clubOut, loansOut int64
	cursor := 0

	// txs are pre-sorted by (OccurredAt, Seq); walk them once, cutting a
	// snapshot at each month boundary.
	sorted := txs
	for month := first; !month.After(asOf); month = month.AddDate(0, 1, 0) {
		monthEnd := month.AddDate(0, 1, 0)

		for cursor < len(sorted) && sorted[cursor].OccurredAt.Before(monthEnd) {
			t := &sorted[cursor]
			cursor++

			if t.ToID == clubID {
				clubIn += t.Amount
			}
			if t.FromID == clubID {
				clubOut += t.Amount
			}

			switch t.Type {
			case domain.TransactionTypeDeposit:
				if t.ToID == clubID {
					deposits += t.Amount
				}
			case domain.TransactionTypeLoan:
				if t.FromID == clubID {
					loansOut += t.Amount
				}
			case domain.TransactionTypeRepayment:
				if t.ToID == clubID {
					loansOut -= t.Amount
				}
			}
		}

		balance := clubIn - clubOut
		summaries = append(summaries, domain.Summary{
			ID:            uuid.New(),
			Month:         month.Format("2006-01"),
			MemberCount:   countMembers(accounts, monthEnd),
			TotalDeposits: deposits,
			TotalBalance:  balance,
			NetValue:      balance + loansOut,
			GeneratedAt:   asOf,
		})
	}

	return summaries
}

func countMembers(accounts []domain.Account, before time.Time) int {
	n := 0
	for i := range accounts {
		a := &accounts[i]
		if a.Kind != domain.AccountKindMember {
			continue
		}
		if a.StartAt.Before(before) && (a.EndAt == nil || a.EndAt.After(before)) {
			n++
		}
	}
	return n
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
