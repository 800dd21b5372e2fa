package reward

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"engage-controlplane/pkg/db/option"
	"engage-controlplane/pkg/errutil"
	"engage-controlplane/services/campaign"
)

// auditFlagThreshold flags a participant whose payout exceeds this fraction
// of the campaign's total reward value. The comparison is strict: holding
// exactly the threshold share does not flag.
var auditFlagThreshold = decimal.NewFromFloat(0.15)

type ParticipantAudit struct {
	ParticipantID    string          `json:"participantId"`
	UserID           string          `json:"userId"`
	ClickPayout      decimal.Decimal `json:"clickPayout"`
	ViewPayout       decimal.Decimal `json:"viewPayout"`
	SubmissionPayout decimal.Decimal `json:"submissionPayout"`
	TotalPayout      decimal.Decimal `json:"totalPayout"`
	Flagged          bool            `json:"flagged"`
}

type AuditReport struct {
	CampaignID        string             `json:"campaignId"`
	TotalClicks       int64              `json:"totalClicks"`
	TotalViews        int64              `json:"totalViews"`
	TotalSubmissions  int64              `json:"totalSubmissions"`
	TotalRewardPayout decimal.Decimal    `json:"totalRewardPayout"`
	Participants      []ParticipantAudit `json:"participants"`
	FlaggedCount      int                `json:"flaggedCount"`
}

// GenerateAuditReport summarizes a campaign's engagement and marks
// participants holding an outsized share of the reward value. Participants
// are ordered by ID so repeated runs over unchanged data produce identical
// reports.
func (s *Service) GenerateAuditReport(ctx context.Context, campaignID string) (*AuditReport, error) {
	span := trace.SpanFromContext(ctx)
	opts := []zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("campaign_id", campaignID),
	}

	c, err := s.campaigns.FindOne(ctx, &campaign.Campaign{ID: campaignID})
	if err != nil {
		return nil, errutil.Internal("failed to query campaign", errutil.WithErr(err))
	}
	if c == nil {
		return nil, errutil.NotFound("campaign not found")
	}

	alg, err := c.ParseAlgorithm()
	if err != nil {
		zap.L().With(opts...).Error("failed to decode algorithm", zap.Error(err))
		return nil, errutil.Internal("failed to decode algorithm", errutil.WithErr(err))
	}

	parts, err := s.participants.Find(ctx, &campaign.Participant{CampaignID: campaignID}, option.WithSortBy(option.QuerySortBy{SortBy: "id", OrderBy: "ASC"}))
	if err != nil {
		return nil, errutil.Internal("failed to query participants", errutil.WithErr(err))
	}

	report := &AuditReport{
		CampaignID:        c.ID,
		TotalRewardPayout: c.TotalParticipationScore,
		Participants:      make([]ParticipantAudit, 0, len(parts)),
	}
	flagLine := report.TotalRewardPayout.Mul(auditFlagThreshold)

	for _, p := range parts {
		report.TotalClicks += p.ClickCount
		report.TotalViews += p.ViewCount
		report.TotalSubmissions += p.SubmissionCount

		entry := ParticipantAudit{
			ParticipantID:    p.ID,
			UserID:           p.UserID,
			ClickPayout:      alg.PointValues.Click.Mul(decimal.NewFromInt(p.ClickCount)),
			ViewPayout:       alg.PointValues.View.Mul(decimal.NewFromInt(p.ViewCount)),
			SubmissionPayout: alg.PointValues.Submission.Mul(decimal.NewFromInt(p.SubmissionCount)),
		}
		entry.TotalPayout = entry.ClickPayout.Add(entry.ViewPayout).Add(entry.SubmissionPayout)
		entry.Flagged = entry.TotalPayout.GreaterThan(flagLine)
		if entry.Flagged {
			report.FlaggedCount++
		}
		report.Participants = append(report.Participants, entry)
	}

	return report, nil
}
