package campaign

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// ResolveTier walks the tier table in ascending index order and returns the
// highest tier whose threshold the running total has crossed, along with that
// tier's coiin pool. A tier with a blank threshold ends the scan; a tier whose
// threshold is crossed but whose pool is blank is passed over without becoming
// the current tier. A total below every threshold still lands on the first
// tier: campaigns never pay out below tier one.
func ResolveTier(total decimal.Decimal, alg Algorithm) (int, decimal.Decimal) {
	indexes, err := sortedTierIndexes(alg.Tiers)
	if err != nil || len(indexes) == 0 {
		return 0, decimal.Zero
	}

	current := 0
	pool := decimal.Zero
	for _, idx := range indexes {
		tier := alg.Tiers[strconv.Itoa(idx)]
		if !tier.Threshold.Valid || total.LessThan(tier.Threshold.Decimal) {
			break
		}
		if !tier.TotalCoiins.Valid {
			continue
		}
		current = idx
		pool = tier.TotalCoiins.Decimal
	}

	if current == 0 {
		first := alg.Tiers[strconv.Itoa(indexes[0])]
		return indexes[0], first.TotalCoiins.Decimal
	}
	return current, pool
}
