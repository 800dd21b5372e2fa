package quality

import (
	"math"

	"github.com/shopspring/decimal"
)

type Stats struct {
	Average decimal.Decimal
	StdDev  decimal.Decimal
}

// Calculate returns the mean and population standard deviation of values.
// The second return is false when there is nothing to measure.
func Calculate(values []decimal.Decimal) (Stats, bool) {
	if len(values) == 0 {
		return Stats{}, false
	}

	n := decimal.NewFromInt(int64(len(values)))
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	avg := sum.Div(n)

	sq := decimal.Zero
	for _, v := range values {
		diff := v.Sub(avg)
		sq = sq.Add(diff.Mul(diff))
	}
	variance := sq.Div(n)

	return Stats{
		Average: avg,
		StdDev:  decimal.NewFromFloat(math.Sqrt(variance.InexactFloat64())),
	}, true
}

// TierForMetric places one participant's ratio on the campaign distribution.
// No ratio, no population, or a flat population all collapse to tier zero.
func TierForMetric(r Ratio, st Stats, ok bool) int {
	if !r.Valid || !ok || st.StdDev.IsZero() {
		return 0
	}
	z := r.Value.Sub(st.Average).InexactFloat64() / st.StdDev.InexactFloat64()
	return tierForZ(z)
}

func tierForZ(z float64) int {
	switch {
	case z < -2 || z > 2:
		return 1
	case z < -1:
		return 2
	case z < 1:
		return 3
	default:
		return 4
	}
}
