package reward

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"engage-controlplane/services/campaign"
)

func (e *testEnv) createFlatCampaign(t *testing.T) *campaign.Campaign {
	t.Helper()

	// One point per click keeps the concentration math easy to read.
	c, err := e.campaigns.CreateCampaign(context.Background(), campaign.CreateCampaignInput{
		OrgID:      "org-1",
		Name:       "audit run",
		CoiinTotal: dec("1000"),
		Algorithm: campaign.Algorithm{
			PointValues: campaign.PointValues{
				Click:      dec("1"),
				View:       dec("1"),
				Submission: dec("1"),
			},
			Tiers: map[string]campaign.Tier{
				"1": {Threshold: nullDec("0"), TotalCoiins: nullDec("1000")},
			},
		},
	})
	require.NoError(t, err)
	return c
}

func TestAuditReportTotalsEngagement(t *testing.T) {
	env := newTestEnv(t)
	c := env.createFlatCampaign(t)

	p1 := env.join(t, c.ID, "user-1")
	p2 := env.join(t, c.ID, "user-2")
	env.track(t, p1.ID, campaign.ActionClick, 3)
	env.track(t, p1.ID, campaign.ActionView, 2)
	env.track(t, p2.ID, campaign.ActionSubmission, 1)

	report, err := env.rewards.GenerateAuditReport(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), report.TotalClicks)
	require.Equal(t, int64(2), report.TotalViews)
	require.Equal(t, int64(1), report.TotalSubmissions)
	require.True(t, report.TotalRewardPayout.Equal(dec("6")))
	require.Len(t, report.Participants, 2)
}

func TestAuditReportFlagsConcentration(t *testing.T) {
	env := newTestEnv(t)
	c := env.createFlatCampaign(t)

	p1 := env.join(t, c.ID, "user-1")
	p2 := env.join(t, c.ID, "user-2")
	p3 := env.join(t, c.ID, "user-3")

	// Total 20 points; the 15% line sits at 3.
	env.track(t, p1.ID, campaign.ActionClick, 16)
	env.track(t, p2.ID, campaign.ActionClick, 3)
	env.track(t, p3.ID, campaign.ActionClick, 1)

	report, err := env.rewards.GenerateAuditReport(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, 1, report.FlaggedCount)

	byID := make(map[string]ParticipantAudit, len(report.Participants))
	for _, entry := range report.Participants {
		byID[entry.ParticipantID] = entry
	}
	require.True(t, byID[p1.ID].Flagged)
	// Exactly 15% is not over the line.
	require.False(t, byID[p2.ID].Flagged)
	require.False(t, byID[p3.ID].Flagged)
}

func TestAuditReportEmptyCampaign(t *testing.T) {
	env := newTestEnv(t)
	c := env.createFlatCampaign(t)

	report, err := env.rewards.GenerateAuditReport(context.Background(), c.ID)
	require.NoError(t, err)
	require.Empty(t, report.Participants)
	require.Zero(t, report.FlaggedCount)
	require.True(t, report.TotalRewardPayout.IsZero())
}

func TestAuditReportUnknownCampaign(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.rewards.GenerateAuditReport(context.Background(), "missing")
	require.Error(t, err)
}

func TestAuditReportDeterministicOrder(t *testing.T) {
	env := newTestEnv(t)
	c := env.createFlatCampaign(t)

	env.join(t, c.ID, "user-1")
	env.join(t, c.ID, "user-2")
	env.join(t, c.ID, "user-3")

	first, err := env.rewards.GenerateAuditReport(context.Background(), c.ID)
	require.NoError(t, err)
	second, err := env.rewards.GenerateAuditReport(context.Background(), c.ID)
	require.NoError(t, err)

	require.Equal(t, len(first.Participants), len(second.Participants))
	for i := range first.Participants {
		require.Equal(t, first.Participants[i].ParticipantID, second.Participants[i].ParticipantID)
	}
}
