package quality

import (
	"github.com/shopspring/decimal"
)

// Ratio is an engagement rate that may carry no signal at all: a participant
// with no posts or no followers has nothing to divide by, and such ratios are
// excluded from the campaign population rather than treated as zero.
type Ratio struct {
	Value decimal.Decimal
	Valid bool
}

func ratioOf(numerator int64, denominator decimal.Decimal) Ratio {
	if !denominator.IsPositive() {
		return Ratio{}
	}
	return Ratio{Value: decimal.NewFromInt(numerator).Div(denominator), Valid: true}
}

// RateInputs is a participant's raw engagement snapshot. PotentialEngagement
// is the participant's reach: for every platform they posted on during the
// campaign, post count times follower count, summed across platforms. The
// like, share, and comment totals span all of the user's posts platform-wide,
// not just this campaign.
type RateInputs struct {
	PotentialEngagement decimal.Decimal
	TotalLikes          int64
	TotalShares         int64
	TotalComments       int64
	ClickCount          int64
	ViewCount           int64
	SubmissionCount     int64
}

type Rates struct {
	Clicks      Ratio
	Views       Ratio
	Submissions Ratio
	Likes       Ratio
	Shares      Ratio
	Comments    Ratio
}

// ComputeRates turns the raw snapshot into the six scored ratios. Likes,
// shares, comments, and clicks are measured against reach; views and
// submissions are conversion rates measured against clicks.
func ComputeRates(in RateInputs) Rates {
	clicks := decimal.NewFromInt(in.ClickCount)
	return Rates{
		Clicks:      ratioOf(in.ClickCount, in.PotentialEngagement),
		Views:       ratioOf(in.ViewCount, clicks),
		Submissions: ratioOf(in.SubmissionCount, clicks),
		Likes:       ratioOf(in.TotalLikes, in.PotentialEngagement),
		Shares:      ratioOf(in.TotalShares, in.PotentialEngagement),
		Comments:    ratioOf(in.TotalComments, in.PotentialEngagement),
	}
}
