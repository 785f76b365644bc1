package passbook

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/iam-hussain/peacock-app-sub002/internal/domain"
	"github.com/shopspring/decimal"
)

// VendorCalc computes total profit for every vendor passbook in the update
// set and splits it across that vendor's active profit-share links by
// weight. Profit is floored at zero: a vendor whose investment exceeds its
// returns propagates no negative shares, and its linked members all receive
// zero.
//
// Vendor ids absent from the update set, or whose passbook is not of vendor
// kind, are skipped silently. That is a defensive filter for callers passing
// mixed id sets, not a failure condition.
//
// The returned map is each member's combined cut across vendors; the caller
// folds it into the member passbooks.
func VendorCalc(updates map[uuid.UUID]*domain.Passbook, vendorIDs []uuid.UUID, shares []domain.VendorProfitShare) (map[uuid.UUID]int64, error) {
	linksByVendor := make(map[uuid.UUID][]domain.VendorProfitShare)
	for _, s := range shares {
		if s.Active {
			linksByVendor[s.VendorID] = append(linksByVendor[s.VendorID], s)
		}
	}

	memberCuts := make(map[uuid.UUID]int64)

	for _, vendorID := range vendorIDs {
		pb, ok := updates[vendorID]
		if !ok || pb.Kind != domain.AccountKindVendor {
			continue
		}

		profit := pb.TotalReturns - pb.TotalInvestment
		if profit < 0 {
			profit = 0
		}
		pb.TotalProfit = profit

		links := linksByVendor[vendorID]
		if len(links) == 0 {
			continue
		}

		stakes := make([]stake, 0, len(links))
		for _, l := range links {
			stakes = append(stakes, stake{
				id:     l.MemberID,
				weight: decimal.NewFromInt(l.Weight),
			})
		}

		alloc, err := allocate(profit, stakes)
		if err != nil {
			return nil, fmt.Errorf("VendorCalc: vendor %s: %w", vendorID, err)
		}
		for memberID, cut := range alloc {
			memberCuts[memberID] += cut
		}
	}

	return memberCuts, nil
}
