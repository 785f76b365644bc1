package passbook

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/iam-hussain/peacock-app-sub002/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccrue(t *testing.T) {
	start := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)
	closedAt := start.AddDate(0, 4, 0)
	rate := decimal.NewFromFloat(0.01)

	tests := []struct {
		name         string
		history      []domain.LoanEntry
		asOf         time.Time
		wantTotal    int64
		wantInterest []int64
		wantMonths   []int
		wantAnomaly  bool
	}{
		{
			name:    "empty history",
			history: nil,
			asOf:    start.AddDate(1, 0, 0),
		},
		{
			name: "open loan accrues to asOf",
			history: []domain.LoanEntry{
				{Principal: 100_000, StartAt: start, Active: true},
			},
			asOf:         start.AddDate(0, 10, 0),
			wantTotal:    10_000,
			wantInterest: []int64{10_000},
			wantMonths:   []int{10},
		},
		{
			name: "closed loan accrues to repayment date",
			history: []domain.LoanEntry{
				{Principal: 100_000, Repaid: 100_000, StartAt: start, EndAt: &closedAt},
			},
			asOf:         start.AddDate(2, 0, 0),
			wantTotal:    4_000,
			wantInterest: []int64{4_000},
			wantMonths:   []int{4},
		},
		{
			name: "under one month accrues nothing",
			history: []domain.LoanEntry{
				{Principal: 100_000, StartAt: start, Active: true},
			},
			asOf:         start.AddDate(0, 0, 20),
			wantTotal:    0,
			wantInterest: []int64{0},
			wantMonths:   []int{0},
		},
		{
			name: "sequential episodes both accrue",
			history: []domain.LoanEntry{
				{Principal: 50_000, Repaid: 50_000, StartAt: start, EndAt: &closedAt},
				{Principal: 80_000, StartAt: closedAt, Active: true},
			},
			asOf:         closedAt.AddDate(0, 3, 0),
			wantTotal:    2_000 + 2_400,
			wantInterest: []int64{2_000, 2_400},
			wantMonths:   []int{4, 3},
		},
		{
			name: "overlapping open episodes reported",
			history: []domain.LoanEntry{
				{Principal: 50_000, StartAt: start, Active: true},
				{Principal: 80_000, StartAt: start.AddDate(0, 1, 0), Active: true},
			},
			asOf:        start.AddDate(0, 2, 0),
			wantTotal:   1_000 + 800,
			wantMonths:  []int{2, 1},
			wantAnomaly: true,
		},
	}

	accountID := uuid.New()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			updated, total, anomalies := Accrue(accountID, tc.history, tc.asOf, rate)

			assert.Equal(t, tc.wantTotal, total)
			require.Len(t, updated, len(tc.history))
			for i, months := range tc.wantMonths {
				assert.Equal(t, months, updated[i].Months, "entry %d months", i)
			}
			for i, interest := range tc.wantInterest {
				assert.Equal(t, interest, updated[i].Interest, "entry %d interest", i)
			}

			if tc.wantAnomaly {
				require.Len(t, anomalies, 1)
				assert.Equal(t, domain.AnomalyOverlappingLoans, anomalies[0].Kind)
			} else {
				assert.Empty(t, anomalies)
			}
		})
	}
}

func TestAccrueDoesNotMutateInput(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	history := []domain.LoanEntry{{Principal: 10_000, StartAt: start, Active: true}}

	_, _, _ = Accrue(uuid.New(), history, start.AddDate(0, 6, 0), decimal.NewFromFloat(0.01))

	assert.Equal(t, 0, history[0].Months)
	assert.Equal(t, int64(0), history[0].Interest)
}
