package campaign

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func nd(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(s), Valid: true}
}

var blank = decimal.NullDecimal{}

func testAlgorithm(tiers map[string]Tier) Algorithm {
	return Algorithm{
		PointValues: PointValues{
			Click:      dec("14"),
			View:       dec("10"),
			Submission: dec("201"),
		},
		Tiers: tiers,
	}
}

func TestResolveTierBelowFirstThreshold(t *testing.T) {
	alg := testAlgorithm(map[string]Tier{
		"1": {Threshold: nd("100"), TotalCoiins: nd("1000")},
		"2": {Threshold: nd("500"), TotalCoiins: nd("5000")},
	})

	tier, pool := ResolveTier(dec("10"), alg)
	require.Equal(t, 1, tier)
	require.True(t, pool.Equal(dec("1000")))
}

func TestResolveTierAscendingScan(t *testing.T) {
	alg := testAlgorithm(map[string]Tier{
		"1": {Threshold: nd("0"), TotalCoiins: nd("1000")},
		"2": {Threshold: nd("500"), TotalCoiins: nd("5000")},
		"3": {Threshold: nd("2000"), TotalCoiins: nd("20000")},
	})

	tier, pool := ResolveTier(dec("700"), alg)
	require.Equal(t, 2, tier)
	require.True(t, pool.Equal(dec("5000")))

	tier, pool = ResolveTier(dec("2000"), alg)
	require.Equal(t, 3, tier)
	require.True(t, pool.Equal(dec("20000")))
}

func TestResolveTierBlankThresholdStopsScan(t *testing.T) {
	alg := testAlgorithm(map[string]Tier{
		"1": {Threshold: nd("0"), TotalCoiins: nd("1000")},
		"2": {Threshold: nd("500"), TotalCoiins: nd("5000")},
		"3": {Threshold: blank, TotalCoiins: nd("20000")},
		"4": {Threshold: nd("100"), TotalCoiins: nd("50000")},
	})

	tier, pool := ResolveTier(dec("999999"), alg)
	require.Equal(t, 2, tier)
	require.True(t, pool.Equal(dec("5000")))
}

func TestResolveTierBlankPoolSkipped(t *testing.T) {
	alg := testAlgorithm(map[string]Tier{
		"1": {Threshold: nd("0"), TotalCoiins: nd("1000")},
		"2": {Threshold: nd("500"), TotalCoiins: blank},
		"3": {Threshold: nd("2000"), TotalCoiins: nd("20000")},
	})

	// Crossed tier 2 but it has no pool: the current tier stays at 1.
	tier, pool := ResolveTier(dec("700"), alg)
	require.Equal(t, 1, tier)
	require.True(t, pool.Equal(dec("1000")))

	// Crossing tier 3 passes over the gap entirely.
	tier, pool = ResolveTier(dec("2500"), alg)
	require.Equal(t, 3, tier)
	require.True(t, pool.Equal(dec("20000")))
}

func TestResolveTierExhaustedScan(t *testing.T) {
	alg := testAlgorithm(map[string]Tier{
		"1": {Threshold: nd("0"), TotalCoiins: nd("1000")},
		"2": {Threshold: nd("500"), TotalCoiins: nd("5000")},
	})

	tier, pool := ResolveTier(dec("1000000"), alg)
	require.Equal(t, 2, tier)
	require.True(t, pool.Equal(dec("5000")))
}

func TestAlgorithmValidateRejectsDescendingThresholds(t *testing.T) {
	alg := testAlgorithm(map[string]Tier{
		"1": {Threshold: nd("500"), TotalCoiins: nd("1000")},
		"2": {Threshold: nd("100"), TotalCoiins: nd("5000")},
	})
	require.Error(t, alg.Validate())
}

func TestAlgorithmValidateAllowsBlankGaps(t *testing.T) {
	alg := testAlgorithm(map[string]Tier{
		"1": {Threshold: nd("0"), TotalCoiins: nd("1000")},
		"2": {Threshold: blank, TotalCoiins: blank},
		"3": {Threshold: nd("2000"), TotalCoiins: nd("20000")},
	})
	require.NoError(t, alg.Validate())
}

func TestAlgorithmValidateRequiresDefinedFirstTier(t *testing.T) {
	alg := testAlgorithm(map[string]Tier{
		"1": {Threshold: blank, TotalCoiins: nd("1000")},
		"2": {Threshold: nd("100"), TotalCoiins: nd("5000")},
	})
	require.Error(t, alg.Validate())
}

func TestAlgorithmValidateRejectsNegativeWeights(t *testing.T) {
	alg := Algorithm{
		PointValues: PointValues{Click: dec("-1")},
		Tiers: map[string]Tier{
			"1": {Threshold: nd("0"), TotalCoiins: nd("1000")},
		},
	}
	require.Error(t, alg.Validate())
}

func TestAlgorithmValidateRejectsNonNumericTierKey(t *testing.T) {
	alg := testAlgorithm(map[string]Tier{
		"first": {Threshold: nd("0"), TotalCoiins: nd("1000")},
	})
	require.Error(t, alg.Validate())
}

func TestWeightedPayout(t *testing.T) {
	alg := testAlgorithm(map[string]Tier{
		"1": {Threshold: nd("0"), TotalCoiins: nd("1000")},
	})

	// 3*14 + 2*10 + 1*201
	total := alg.WeightedPayout(3, 2, 1)
	require.True(t, total.Equal(dec("263")))
}
