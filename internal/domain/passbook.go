package domain

import (
	"time"

	"github.com/google/uuid"
)

// LoanEntry is one loan episode in an account's loan history: a disbursement,
// the repayments applied against it, and the interest accrued over its open
// months. Episodes must not overlap; a new loan may only start once the
// previous episode is closed.
type LoanEntry struct {
	Principal int64      `json:"principal"`
	Repaid    int64      `json:"repaid"`
	StartAt   time.Time  `json:"startAt"`
	EndAt     *time.Time `json:"endAt,omitempty"`
	Months    int        `json:"months"`
	Interest  int64      `json:"interest"`
	Active    bool       `json:"active"`
}

// Outstanding is the unrepaid principal of the episode.
func (e *LoanEntry) Outstanding() int64 {
	if rem := e.Principal - e.Repaid; rem > 0 {
		return rem
	}
	return 0
}

// Passbook is the materialized ledger aggregate owned by one account. Every
// field is a pure function of the transaction log up to a point in time plus
// the account's tenure metadata and profit-share links: replaying the same
// log slice twice must produce identical passbooks. Passbooks are written
// only by the recalculation orchestrator, never by handlers.
type Passbook struct {
	AccountID uuid.UUID
	Kind      AccountKind

	In      int64
	Out     int64
	Returns int64

	// DistributedReturns is the member's computed cut of club returns and
	// vendor profit. It is a whole-ledger figure written only by full
	// passes; Returns above is the replayed effect of the member's own
	// RETURN/PROFIT_SHARE entries. Keeping them separate lets a targeted
	// replay rebuild Returns without erasing distribution credits.
	DistributedReturns int64

	Offset        int64
	OffsetIn      int64
	JoiningOffset int64
	DelayOffset   int64

	// Club treasury only.
	Fund    int64
	Balance int64

	LoanHistory []LoanEntry

	// Vendor accounts only.
	TotalInvestment int64
	TotalReturns    int64
	TotalProfit     int64

	NeedsReview    bool
	ReviewNote     string
	RecalculatedAt time.Time
}

// NetBalance is the account's contribution to club value: everything paid in
// or allocated, minus everything taken out.
func (p *Passbook) NetBalance() int64 {
	return p.In + p.OffsetIn + p.Returns + p.DistributedReturns + p.Offset - p.Out
}

// OutstandingLoan sums the unrepaid principal across all loan episodes.
func (p *Passbook) OutstandingLoan() int64 {
	var total int64
	for i := range p.LoanHistory {
		total += p.LoanHistory[i].Outstanding()
	}
	return total
}
