package passbook

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/iam-hussain/peacock-app-sub002/internal/domain"
	"github.com/shopspring/decimal"
)

// Tenure carries the account metadata the aggregator needs beyond the log
// itself: when the member joined and, if deactivated, when they left.
type Tenure struct {
	StartAt time.Time
	EndAt   *time.Time
}

// Params are the business parameters of a recalculation pass. They are
// injected from configuration so two passes with the same ledger and the
// same params produce identical passbooks.
type Params struct {
	AsOf              time.Time
	MonthlyRate       decimal.Decimal
	ClubStartedAt     time.Time
	MonthlyOffsetUnit int64
}

// SortTransactions orders the slice by (OccurredAt ascending, Seq ascending).
// OccurredAt can collide for same-day and backfilled entries, so the stable
// insertion-sequence tie-break is what keeps replay deterministic.
func SortTransactions(txs []domain.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].OccurredAt.Equal(txs[j].OccurredAt) {
			return txs[i].Seq < txs[j].Seq
		}
		return txs[i].OccurredAt.Before(txs[j].OccurredAt)
	})
}

// Aggregate replays the pre-sorted transactions touching one account into a
// freshly zeroed passbook. Effects are pure additions to the accumulator;
// nothing outside the returned passbook is mutated.
//
// A malformed transaction (missing side, non-positive amount, self-transfer)
// aborts only this account: Aggregate returns a nil passbook and the anomaly,
// and the caller keeps the previously committed state for the account while
// the rest of the pass proceeds.
func Aggregate(accountID uuid.UUID, kind domain.AccountKind, tenure Tenure, txs []domain.Transaction, p Params) (*domain.Passbook, []domain.Anomaly) {
	pb := &domain.Passbook{
		AccountID:      accountID,
		Kind:           kind,
		RecalculatedAt: p.AsOf,
	}

	var anomalies []domain.Anomaly
	var firstDeposit *time.Time

	for i := range txs {
		t := &txs[i]
		if !t.Touches(accountID) {
			continue
		}
		if a, bad := malformed(accountID, t); bad {
			return nil, append(anomalies, a)
		}
		anomalies = apply(pb, t, anomalies)

		if t.Type == domain.TransactionTypeDeposit && t.FromID == accountID && firstDeposit == nil {
			at := t.OccurredAt
			firstDeposit = &at
		}
	}

	finalize(pb, tenure, firstDeposit, p)

	updated, _, loanAnoms := Accrue(accountID, pb.LoanHistory, p.AsOf, p.MonthlyRate)
	pb.LoanHistory = updated
	anomalies = append(anomalies, loanAnoms...)

	if len(anomalies) > 0 {
		pb.NeedsReview = true
		pb.ReviewNote = anomalies[0].String()
	}

	return pb, anomalies
}

func malformed(accountID uuid.UUID, t *domain.Transaction) (domain.Anomaly, bool) {
	var reason string
	switch {
	case t.Amount <= 0:
		reason = "non-positive amount"
	case t.FromID == uuid.Nil || t.ToID == uuid.Nil:
		reason = "missing transaction side"
	case t.FromID == t.ToID:
		reason = "self-transfer"
	case !t.Type.IsValid():
		reason = fmt.Sprintf("unknown transaction type %q", t.Type)
	default:
		return domain.Anomaly{}, false
	}
	id := t.ID
	return domain.Anomaly{
		AccountID:     accountID,
		TransactionID: &id,
		Kind:          domain.AnomalyMalformedTransaction,
		Detail:        reason,
	}, true
}

// apply mutates the accumulator for one transaction. The switch over the
// transaction type is exhaustive; malformed() has already rejected unknown
// types before we get here.
func apply(pb *domain.Passbook, t *domain.Transaction, anomalies []domain.Anomaly) []domain.Anomaly {
	inbound := t.ToID == pb.AccountID

	if pb.Kind == domain.AccountKindClub {
		// The treasury sees every movement as plain liquidity in or out;
		// fund and balance are derived in finalize.
		if inbound {
			pb.In += t.Amount
		} else {
			pb.Out += t.Amount
		}
		return anomalies
	}

	switch t.Type {
	case domain.TransactionTypeDeposit:
		pb.In += t.Amount
		if pb.Kind == domain.AccountKindVendor && inbound {
			pb.TotalInvestment += t.Amount
		}

	case domain.TransactionTypeWithdraw:
		pb.Out += t.Amount
		if pb.Kind == domain.AccountKindVendor && !inbound {
			pb.TotalReturns += t.Amount
		}

	case domain.TransactionTypeLoan:
		if inbound {
			anomalies = openLoan(pb, t, anomalies)
		} else {
			pb.In += t.Amount
		}

	case domain.TransactionTypeRepayment:
		if !inbound {
			anomalies = repayLoan(pb, t, anomalies)
		} else {
			pb.Out += t.Amount
		}

	case domain.TransactionTypeReturn:
		if inbound {
			pb.Returns += t.Amount
		} else {
			pb.Out += t.Amount
			if pb.Kind == domain.AccountKindVendor {
				pb.TotalReturns += t.Amount
			}
		}

	case domain.TransactionTypeOffset:
		if inbound {
			pb.Offset += t.Amount
		} else {
			pb.OffsetIn += t.Amount
		}

	case domain.TransactionTypeProfitShare:
		if inbound {
			pb.Returns += t.Amount
		} else {
			pb.Out += t.Amount
		}

	case domain.TransactionTypeFundsTransfer:
		if inbound {
			pb.In += t.Amount
			if pb.Kind == domain.AccountKindVendor {
				pb.TotalInvestment += t.Amount
			}
		} else {
			pb.Out += t.Amount
		}
	}

	return anomalies
}

func openLoan(pb *domain.Passbook, t *domain.Transaction, anomalies []domain.Anomaly) []domain.Anomaly {
	for i := range pb.LoanHistory {
		if pb.LoanHistory[i].Active {
			id := t.ID
			anomalies = append(anomalies, domain.Anomaly{
				AccountID:     pb.AccountID,
				TransactionID: &id,
				Kind:          domain.AnomalyOverlappingLoans,
				Detail:        "loan disbursed while a prior episode is still open",
			})
			break
		}
	}

	pb.LoanHistory = append(pb.LoanHistory, domain.LoanEntry{
		Principal: t.Amount,
		StartAt:   t.OccurredAt,
		Active:    true,
	})
	pb.Out += t.Amount
	return anomalies
}

func repayLoan(pb *domain.Passbook, t *domain.Transaction, anomalies []domain.Anomaly) []domain.Anomaly {
	pb.In += t.Amount

	for i := len(pb.LoanHistory) - 1; i >= 0; i-- {
		entry := &pb.LoanHistory[i]
		if !entry.Active {
			continue
		}
		entry.Repaid += t.Amount
		if entry.Repaid >= entry.Principal {
			at := t.OccurredAt
			entry.EndAt = &at
			entry.Active = false
		}
		return anomalies
	}

	// Repayment with no open loan: record it but flag the account for
	// manual review rather than failing the replay.
	id := t.ID
	return append(anomalies, domain.Anomaly{
		AccountID:     pb.AccountID,
		TransactionID: &id,
		Kind:          domain.AnomalyOrphanRepayment,
		Detail:        "repayment recorded with no open loan episode",
	})
}

func finalize(pb *domain.Passbook, tenure Tenure, firstDeposit *time.Time, p Params) {
	switch pb.Kind {
	case domain.AccountKindClub:
		pb.Fund = pb.In
		pb.Balance = pb.In - pb.Out

	case domain.AccountKindMember:
		if p.MonthlyOffsetUnit > 0 {
			if tenure.StartAt.After(p.ClubStartedAt) {
				pb.JoiningOffset = int64(domain.MonthsBetween(p.ClubStartedAt, tenure.StartAt)) * p.MonthlyOffsetUnit
			}
			if firstDeposit != nil {
				pb.DelayOffset = int64(domain.MonthsBetween(tenure.StartAt, *firstDeposit)) * p.MonthlyOffsetUnit
			}
		}

	case domain.AccountKindVendor:
		// Profit is a pure function of the vendor's own replay, so every
		// pass derives it; only the split across share links is a
		// whole-ledger concern.
		pb.TotalProfit = pb.TotalReturns - pb.TotalInvestment
		if pb.TotalProfit < 0 {
			pb.TotalProfit = 0
		}

	case domain.AccountKindSystem:
		// Nothing derived beyond the replayed totals.
	}
}
