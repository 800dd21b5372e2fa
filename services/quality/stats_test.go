package quality

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

func decs(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		out = append(out, dec(v))
	}
	return out
}

func TestCalculatePopulationStats(t *testing.T) {
	st, ok := Calculate(decs("2", "4", "4", "4", "5", "5", "7", "9"))
	require.True(t, ok)
	require.True(t, st.Average.Equal(dec("5")))
	require.True(t, st.StdDev.Equal(dec("2")))
}

func TestCalculateEmptyPopulation(t *testing.T) {
	_, ok := Calculate(nil)
	require.False(t, ok)
}

func TestCalculateSingleValue(t *testing.T) {
	st, ok := Calculate(decs("3.5"))
	require.True(t, ok)
	require.True(t, st.Average.Equal(dec("3.5")))
	require.True(t, st.StdDev.IsZero())
}

func TestTierForMetricBands(t *testing.T) {
	st := Stats{Average: dec("0"), StdDev: dec("1")}

	cases := []struct {
		value string
		want  int
	}{
		{"2", 4},       // z = 2 sits at the top of the band
		{"2.0001", 1},  // just past it is an outlier
		{"-2", 2},      // z = -2 is the bottom of the low band
		{"-2.0001", 1}, // past it is an outlier
		{"1", 4},
		{"0.99", 3},
		{"-1", 3},
		{"-1.5", 2},
		{"0", 3},
		{"-5", 1},
		{"5", 1},
	}
	for _, tc := range cases {
		got := TierForMetric(Ratio{Value: dec(tc.value), Valid: true}, st, true)
		require.Equalf(t, tc.want, got, "value %s", tc.value)
	}
}

func TestTierForMetricNoSignal(t *testing.T) {
	st := Stats{Average: dec("1"), StdDev: dec("1")}

	// Invalid ratio, missing population, and a flat population all score zero.
	require.Equal(t, 0, TierForMetric(Ratio{}, st, true))
	require.Equal(t, 0, TierForMetric(Ratio{Value: dec("1"), Valid: true}, Stats{}, false))
	require.Equal(t, 0, TierForMetric(Ratio{Value: dec("1"), Valid: true}, Stats{Average: dec("1")}, true))
}

func TestComputeRatesNoReach(t *testing.T) {
	rates := ComputeRates(RateInputs{
		PotentialEngagement: decimal.Zero,
		TotalLikes:          10,
		ClickCount:          5,
		ViewCount:           2,
	})

	// No reach: the reach-based ratios carry no signal instead of dividing
	// by zero, while the click-based conversion rates still compute.
	require.False(t, rates.Likes.Valid)
	require.False(t, rates.Clicks.Valid)
	require.True(t, rates.Views.Valid)
	require.True(t, rates.Views.Value.Equal(dec("0.4")))
}

func TestComputeRatesNoClicks(t *testing.T) {
	rates := ComputeRates(RateInputs{
		PotentialEngagement: dec("100"),
		TotalLikes:          20,
		ViewCount:           3,
	})

	require.True(t, rates.Likes.Valid)
	require.True(t, rates.Likes.Value.Equal(dec("0.2")))
	require.False(t, rates.Views.Valid)
	require.False(t, rates.Submissions.Valid)
}

func TestComputeRatesFullSnapshot(t *testing.T) {
	rates := ComputeRates(RateInputs{
		PotentialEngagement: dec("1000"),
		TotalLikes:          50,
		TotalShares:         10,
		TotalComments:       5,
		ClickCount:          100,
		ViewCount:           40,
		SubmissionCount:     10,
	})

	require.True(t, rates.Clicks.Value.Equal(dec("0.1")))
	require.True(t, rates.Likes.Value.Equal(dec("0.05")))
	require.True(t, rates.Shares.Value.Equal(dec("0.01")))
	require.True(t, rates.Comments.Value.Equal(dec("0.005")))
	require.True(t, rates.Views.Value.Equal(dec("0.4")))
	require.True(t, rates.Submissions.Value.Equal(dec("0.1")))
}
