package passbook

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iam-hussain/peacock-app-sub002/internal/domain"
	"github.com/shopspring/decimal"
)

// MemberStake is one member's claim on a returns distribution: their tenure
// window and how much they have deposited so far.
type MemberStake struct {
	AccountID uuid.UUID
	StartAt   time.Time
	EndAt     *time.Time
	Deposits  int64
	Active    bool
}

// DistributeReturns allocates the club's returns pool across active members
// in proportion to month-weighted deposits: weight = deposits x tenure
// months (at least one month, so a member who joined this month still earns
// on day one). Later joiners therefore receive a pro-rated share rather than
// an equal split.
//
// The allocations always sum to total exactly; the rounding remainder goes
// to the accounts with the largest fractional shares. Members inactive at
// distribution time are excluded from the weight pool but keep whatever was
// allocated to them in earlier passes.
func DistributeReturns(total int64, members []MemberStake, asOf time.Time) (map[uuid.UUID]int64, error) {
	if total < 0 {
		return nil, fmt.Errorf("DistributeReturns: %w", domain.ErrInvalidAmount)
	}

	stakes := make([]stake, 0, len(members))
	for _, m := range members {
		if !m.Active || m.Deposits <= 0 {
			continue
		}

		end := asOf
		if m.EndAt != nil && m.EndAt.Before(asOf) {
			end = *m.EndAt
		}
		months := domain.MonthsBetween(m.StartAt, end)
		if months < 1 {
			months = 1
		}

		stakes = append(stakes, stake{
			id:     m.AccountID,
			weight: decimal.NewFromInt(m.Deposits).Mul(decimal.NewFromInt(int64(months))),
		})
	}

	if len(stakes) == 0 {
		if total == 0 {
			return map[uuid.UUID]int64{}, nil
		}
		return nil, fmt.Errorf("DistributeReturns: %w", domain.ErrNoEligibleMembers)
	}

	alloc, err := allocate(total, stakes)
	if err != nil {
		return nil, fmt.Errorf("DistributeReturns: %w", err)
	}
	return alloc, nil
}
