package reward

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"engage-controlplane/pkg/db/option"
	"engage-controlplane/pkg/errutil"
	"engage-controlplane/pkg/lock"
	"engage-controlplane/pkg/rediskey"
	"engage-controlplane/services/campaign"
	"engage-controlplane/services/wallet"
)

// payoutScale is the decimal precision credited amounts are rounded to.
const payoutScale = 8

type DistributionResult struct {
	ReceiptID      string                     `json:"receiptId"`
	CampaignID     string                     `json:"campaignId"`
	Payouts        map[string]decimal.Decimal `json:"payouts"`
	RejectedIDs    []string                   `json:"rejectedIds"`
	TotalDelivered decimal.Decimal            `json:"totalDelivered"`
}

// DistributeRewards pays every accepted participant their weighted reward
// value, splitting the value forfeited by rejected participants evenly across
// the accepted ones. All wallet credits commit in a single transaction under
// a per-campaign advisory lock, so a concurrent call for the same campaign is
// turned away instead of paying twice.
func (s *Service) DistributeRewards(ctx context.Context, campaignID string, rejectedIDs []string) (*DistributionResult, error) {
	span := trace.SpanFromContext(ctx)
	opts := []zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("campaign_id", campaignID),
	}

	lease, err := s.locks.Acquire(ctx, rediskey.BuildDistributionKey(campaignID), s.cfg.Engine.DistributionLockTTL)
	if err != nil {
		if err == lock.ErrHeld {
			return nil, errutil.Conflict("a distribution for this campaign is already in flight")
		}
		return nil, errutil.Internal("failed to acquire distribution lock", errutil.WithErr(err))
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			zap.L().With(opts...).Warn("failed to release distribution lock", zap.Error(err))
		}
	}()

	c, err := s.campaigns.FindOne(ctx, &campaign.Campaign{ID: campaignID})
	if err != nil {
		return nil, errutil.Internal("failed to query campaign", errutil.WithErr(err))
	}
	if c == nil {
		return nil, errutil.NotFound("campaign not found")
	}

	alg, err := c.ParseAlgorithm()
	if err != nil {
		return nil, errutil.Internal("failed to decode algorithm", errutil.WithErr(err))
	}

	parts, err := s.participants.Find(ctx, &campaign.Participant{CampaignID: campaignID}, option.WithSortBy(option.QuerySortBy{SortBy: "id", OrderBy: "ASC"}))
	if err != nil {
		return nil, errutil.Internal("failed to query participants", errutil.WithErr(err))
	}

	rejected := make(map[string]bool, len(rejectedIDs))
	for _, id := range rejectedIDs {
		rejected[id] = true
	}

	var accepted []*campaign.Participant
	totalForfeited := decimal.Zero
	for _, p := range parts {
		if rejected[p.ID] {
			totalForfeited = totalForfeited.Add(alg.WeightedPayout(p.ClickCount, p.ViewCount, p.SubmissionCount))
			continue
		}
		accepted = append(accepted, p)
	}

	share := decimal.Zero
	if len(accepted) > 0 && totalForfeited.IsPositive() {
		share = totalForfeited.Div(decimal.NewFromInt(int64(len(accepted))))
	}

	payouts := make(map[string]decimal.Decimal, len(accepted))
	for _, p := range accepted {
		raw := alg.WeightedPayout(p.ClickCount, p.ViewCount, p.SubmissionCount)
		payouts[p.ID] = raw.Add(share).Round(payoutScale)
	}

	receiptID := uuid.NewString()
	if err := s.creditPayouts(ctx, receiptID, c.ID, accepted, payouts); err != nil {
		zap.L().With(opts...).Error("distribution rolled back", zap.Error(err))
		return nil, err
	}

	record, err := s.wallets.RecordPayout(ctx, receiptID, c.ID, payouts, rejectedIDs)
	if err != nil {
		// Credits are already committed; surface the receipt failure rather
		// than pretending the distribution did not happen.
		zap.L().With(opts...).Error("failed to record payout receipt", zap.Error(err))
		return nil, err
	}

	zap.L().With(opts...).Info("distribution complete",
		zap.String("receipt_id", record.ID),
		zap.Int("accepted", len(accepted)),
		zap.Int("rejected", len(rejectedIDs)),
	)

	return &DistributionResult{
		ReceiptID:      record.ID,
		CampaignID:     c.ID,
		Payouts:        payouts,
		RejectedIDs:    rejectedIDs,
		TotalDelivered: record.TotalDelivered,
	}, nil
}

// ProportionalTierPayout is the share of a tier's coiin pool a participant
// earns: their points over the campaign total, times the pool. A campaign
// with no points pays nothing to anyone.
func ProportionalTierPayout(points, total, pool decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return points.Div(total).Mul(pool)
}

// DistributeTierPool pays the campaign's current tier pool out proportionally
// to participation scores, under the same lock and transaction discipline as
// DistributeRewards.
func (s *Service) DistributeTierPool(ctx context.Context, campaignID string) (*DistributionResult, error) {
	lease, err := s.locks.Acquire(ctx, rediskey.BuildDistributionKey(campaignID), s.cfg.Engine.DistributionLockTTL)
	if err != nil {
		if err == lock.ErrHeld {
			return nil, errutil.Conflict("a distribution for this campaign is already in flight")
		}
		return nil, errutil.Internal("failed to acquire distribution lock", errutil.WithErr(err))
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			zap.L().Warn("failed to release distribution lock", zap.String("campaign_id", campaignID), zap.Error(err))
		}
	}()

	c, err := s.campaigns.FindOne(ctx, &campaign.Campaign{ID: campaignID})
	if err != nil {
		return nil, errutil.Internal("failed to query campaign", errutil.WithErr(err))
	}
	if c == nil {
		return nil, errutil.NotFound("campaign not found")
	}

	alg, err := c.ParseAlgorithm()
	if err != nil {
		return nil, errutil.Internal("failed to decode algorithm", errutil.WithErr(err))
	}

	parts, err := s.participants.Find(ctx, &campaign.Participant{CampaignID: campaignID}, option.WithSortBy(option.QuerySortBy{SortBy: "id", OrderBy: "ASC"}))
	if err != nil {
		return nil, errutil.Internal("failed to query participants", errutil.WithErr(err))
	}

	_, pool := campaign.ResolveTier(c.TotalParticipationScore, alg)

	payouts := make(map[string]decimal.Decimal, len(parts))
	for _, p := range parts {
		payouts[p.ID] = ProportionalTierPayout(p.ParticipationScore, c.TotalParticipationScore, pool).Round(payoutScale)
	}

	receiptID := uuid.NewString()
	if err := s.creditPayouts(ctx, receiptID, c.ID, parts, payouts); err != nil {
		return nil, err
	}

	record, err := s.wallets.RecordPayout(ctx, receiptID, c.ID, payouts, nil)
	if err != nil {
		return nil, err
	}

	return &DistributionResult{
		ReceiptID:      record.ID,
		CampaignID:     c.ID,
		Payouts:        payouts,
		RejectedIDs:    nil,
		TotalDelivered: record.TotalDelivered,
	}, nil
}

// creditPayouts lands every non-zero payout on its owner's wallet inside one
// transaction. Any missing wallet or ledger failure rolls the whole batch
// back, leaving no partial distribution behind.
func (s *Service) creditPayouts(ctx context.Context, receiptID, campaignID string, recipients []*campaign.Participant, payouts map[string]decimal.Decimal) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range recipients {
			amount := payouts[p.ID]
			if !amount.IsPositive() {
				continue
			}

			w, err := s.wallets.GetWalletForOwner(ctx, wallet.OwnerTypeUser, p.UserID)
			if err != nil {
				return err
			}

			_, err = s.wallets.CreditInTx(ctx, tx, wallet.MovementInput{
				WalletID:    w.ID,
				Amount:      amount,
				ReferenceID: fmt.Sprintf("payout:%s:participant:%s", receiptID, p.ID),
				Description: "campaign reward distribution",
				Metadata: map[string]string{
					"campaign_id":    campaignID,
					"participant_id": p.ID,
					"receipt_id":     receiptID,
				},
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}
