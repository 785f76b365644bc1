package passbook

import (
	"sort"

	"github.com/google/uuid"
	"github.com/iam-hussain/peacock-app-sub002/internal/domain"
	"github.com/shopspring/decimal"
)

type stake struct {
	id     uuid.UUID
	weight decimal.Decimal
}

// allocate splits total across the stakes in proportion to their weights so
// that the allocations sum to total exactly. Each stake first receives the
// floor of its exact share; the leftover minor units are then handed out one
// at a time by descending fractional remainder, with ascending id as the
// tie-break, so the result is deterministic.
func allocate(total int64, stakes []stake) (map[uuid.UUID]int64, error) {
	result := make(map[uuid.UUID]int64, len(stakes))
	if total == 0 || len(stakes) == 0 {
		for _, s := range stakes {
			result[s.id] = 0
		}
		return result, nil
	}
	if total < 0 {
		return nil, domain.ErrInvalidAmount
	}

	totalWeight := decimal.Zero
	for _, s := range stakes {
		totalWeight = totalWeight.Add(s.weight)
	}
	if !totalWeight.IsPositive() {
		return nil, domain.ErrNoEligibleMembers
	}

	sorted := make([]stake, len(stakes))
	copy(sorted, stakes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].id.String() < sorted[j].id.String()
	})

	type fraction struct {
		id  uuid.UUID
		rem decimal.Decimal
	}

	totalDec := decimal.NewFromInt(total)
	fractions := make([]fraction, 0, len(sorted))
	var allocated int64

	for _, s := range sorted {
		exact := totalDec.Mul(s.weight).Div(totalWeight)
		floor := exact.Floor()
		result[s.id] = floor.IntPart()
		allocated += floor.IntPart()
		fractions = append(fractions, fraction{id: s.id, rem: exact.Sub(floor)})
	}

	sort.SliceStable(fractions, func(i, j int) bool {
		if fractions[i].rem.Equal(fractions[j].rem) {
			return fractions[i].id.String() < fractions[j].id.String()
		}
		return fractions[i].rem.GreaterThan(fractions[j].rem)
	})

	remainder := total - allocated
	for i := 0; remainder > 0 && i < len(fractions); i++ {
		result[fractions[i].id]++
		remainder--
	}
	if remainder != 0 {
		return nil, domain.ErrRoundingOverflow
	}

	return result, nil
}
