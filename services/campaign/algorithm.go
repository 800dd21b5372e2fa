package campaign

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"engage-controlplane/pkg/errutil"
)

type ActionType string

const (
	ActionClick      ActionType = "click"
	ActionView       ActionType = "view"
	ActionSubmission ActionType = "submission"
)

// PointValues are the per-action weights of a campaign's scoring algorithm.
// Likes and Shares weights exist on the wire for social scoring experiments
// but do not feed the participation score.
type PointValues struct {
	Click      decimal.Decimal `json:"click"`
	View       decimal.Decimal `json:"view"`
	Submission decimal.Decimal `json:"submission"`
	Likes      decimal.Decimal `json:"likes"`
	Shares     decimal.Decimal `json:"shares"`
}

func (pv PointValues) ForAction(action ActionType) (decimal.Decimal, bool) {
	switch action {
	case ActionClick:
		return pv.Click, true
	case ActionView:
		return pv.View, true
	case ActionSubmission:
		return pv.Submission, true
	}
	return decimal.Zero, false
}

// Tier is one row of the unlock table. A null threshold or totalCoiins marks
// the field as unset; a tier is usable for payout only when both are set.
type Tier struct {
	Threshold   decimal.NullDecimal `json:"threshold"`
	TotalCoiins decimal.NullDecimal `json:"totalCoiins"`
}

func (t Tier) defined() bool {
	return t.Threshold.Valid && t.TotalCoiins.Valid
}

type Algorithm struct {
	PointValues PointValues     `json:"pointValues"`
	Tiers       map[string]Tier `json:"tiers"`
}

// WeightedPayout is a participant's raw reward value: counters times weights.
func (a Algorithm) WeightedPayout(clicks, views, submissions int64) decimal.Decimal {
	total := a.PointValues.Click.Mul(decimal.NewFromInt(clicks))
	total = total.Add(a.PointValues.View.Mul(decimal.NewFromInt(views)))
	return total.Add(a.PointValues.Submission.Mul(decimal.NewFromInt(submissions)))
}

// Validate rejects algorithms the tier resolver cannot interpret safely:
// non-numeric tier keys, an undefined first tier, negative weights or pools,
// and defined thresholds that decrease as the tier index grows.
func (a Algorithm) Validate() error {
	for _, w := range []decimal.Decimal{
		a.PointValues.Click, a.PointValues.View, a.PointValues.Submission,
		a.PointValues.Likes, a.PointValues.Shares,
	} {
		if w.IsNegative() {
			return errutil.ValidationFailed("point values must not be negative")
		}
	}

	if len(a.Tiers) == 0 {
		return errutil.ValidationFailed("algorithm requires at least one tier")
	}

	indexes, err := sortedTierIndexes(a.Tiers)
	if err != nil {
		return err
	}

	first := a.Tiers[strconv.Itoa(indexes[0])]
	if !first.defined() {
		return errutil.ValidationFailed(fmt.Sprintf("tier %d must define threshold and totalCoiins", indexes[0]))
	}

	prev := decimal.NullDecimal{}
	for _, idx := range indexes {
		tier := a.Tiers[strconv.Itoa(idx)]
		if tier.Threshold.Valid && tier.Threshold.Decimal.IsNegative() {
			return errutil.ValidationFailed(fmt.Sprintf("tier %d threshold must not be negative", idx))
		}
		if tier.TotalCoiins.Valid && tier.TotalCoiins.Decimal.IsNegative() {
			return errutil.ValidationFailed(fmt.Sprintf("tier %d totalCoiins must not be negative", idx))
		}
		if tier.Threshold.Valid {
			if prev.Valid && tier.Threshold.Decimal.LessThan(prev.Decimal) {
				return errutil.ValidationFailed(fmt.Sprintf("tier %d threshold is lower than a preceding tier", idx))
			}
			prev = tier.Threshold
		}
	}
	return nil
}

func sortedTierIndexes(tiers map[string]Tier) ([]int, error) {
	indexes := make([]int, 0, len(tiers))
	for key := range tiers {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 1 {
			return nil, errutil.ValidationFailed(fmt.Sprintf("tier key %q is not a positive integer", key))
		}
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	return indexes, nil
}
