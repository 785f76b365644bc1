package domain

import (
	"time"

	"github.com/google/uuid"
)

// Summary is a monthly snapshot of club-wide aggregates. Summaries are
// destroyed and rebuilt wholesale on every recalculation pass, never edited.
type Summary struct {
	ID            uuid.UUID
	Month         string // YYYY-MM
	MemberCount   int
	TotalDeposits int64
	TotalBalance  int64
	NetValue      int64
	GeneratedAt   time.Time
}
