package quality

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"engage-controlplane/pkg/config"
	"engage-controlplane/services/campaign"
	"engage-controlplane/services/testutil"
	"engage-controlplane/services/wallet"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type testEnv struct {
	campaigns *campaign.Service
	quality   *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t,
		&campaign.Campaign{}, &campaign.Participant{}, &campaign.SocialPost{}, &campaign.SocialLink{},
		&wallet.Wallet{}, &wallet.LedgerEntry{}, &wallet.PayoutRecord{},
		&QualityScore{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Engine.ScorePassParallelism = 2

	wallets := wallet.NewService(wallet.ServiceParams{DB: db, Node: node})
	campaigns := campaign.NewService(campaign.ServiceParams{DB: db, Node: node, Wallets: wallets})
	quality := NewService(ServiceParams{DB: db, Node: node, Config: cfg})

	return &testEnv{campaigns: campaigns, quality: quality}
}

func (e *testEnv) createCampaign(t *testing.T) *campaign.Campaign {
	t.Helper()

	c, err := e.campaigns.CreateCampaign(context.Background(), campaign.CreateCampaignInput{
		OrgID:      "org-1",
		Name:       "quality run",
		CoiinTotal: dec("1000"),
		Algorithm: campaign.Algorithm{
			PointValues: campaign.PointValues{
				Click:      dec("1"),
				View:       dec("1"),
				Submission: dec("1"),
			},
			Tiers: map[string]campaign.Tier{
				"1": {Threshold: decimal.NullDecimal{Decimal: dec("0"), Valid: true}, TotalCoiins: decimal.NullDecimal{Decimal: dec("1000"), Valid: true}},
			},
		},
	})
	require.NoError(t, err)
	return c
}

func (e *testEnv) join(t *testing.T, campaignID, userID string) *campaign.Participant {
	t.Helper()
	p, err := e.campaigns.JoinCampaign(context.Background(), campaignID, campaign.JoinCampaignInput{UserID: userID})
	require.NoError(t, err)
	return p
}

func TestRunScorePassWritesScoresForEveryParticipant(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCampaign(t)

	p1 := env.join(t, c.ID, "user-1")
	p2 := env.join(t, c.ID, "user-2")
	p3 := env.join(t, c.ID, "user-3")

	for _, p := range []*campaign.Participant{p1, p2, p3} {
		_, err := env.campaigns.TrackAction(context.Background(), p.ID, campaign.ActionClick)
		require.NoError(t, err)
	}

	_, err := env.campaigns.UpsertSocialLink(context.Background(), "user-1", "twitter", 1000)
	require.NoError(t, err)
	_, err = env.campaigns.RecordSocialPost(context.Background(), p1.ID, campaign.SocialPostInput{Platform: "twitter", Likes: 50, Shares: 10})
	require.NoError(t, err)

	require.NoError(t, env.quality.RunScorePass(context.Background()))

	scores, err := env.quality.ListCampaignScores(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, scores, 3)

	for _, score := range scores {
		for _, tier := range []int{score.Clicks, score.Views, score.Submissions, score.Likes, score.Shares, score.Comments} {
			require.GreaterOrEqual(t, tier, 0)
			require.LessOrEqual(t, tier, 4)
		}
	}
}

func TestScorePassNoSignalScoresZero(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCampaign(t)

	// No posts and no links anywhere: every reach-based metric has an empty
	// population and every tier collapses to zero.
	p := env.join(t, c.ID, "user-1")
	_, err := env.campaigns.TrackAction(context.Background(), p.ID, campaign.ActionClick)
	require.NoError(t, err)

	require.NoError(t, env.quality.RunScorePass(context.Background()))

	score, err := env.quality.GetParticipantScore(context.Background(), p.ID)
	require.NoError(t, err)
	require.Zero(t, score.Clicks)
	require.Zero(t, score.Likes)
	require.Zero(t, score.Shares)
	require.Zero(t, score.Comments)
}

func TestScorePassFlatPopulationScoresZero(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCampaign(t)

	// Two participants with identical behavior: the population has no spread,
	// so no tier can be assigned.
	for _, user := range []string{"user-1", "user-2"} {
		p := env.join(t, c.ID, user)
		_, err := env.campaigns.TrackAction(context.Background(), p.ID, campaign.ActionClick)
		require.NoError(t, err)
		_, err = env.campaigns.UpsertSocialLink(context.Background(), user, "twitter", 100)
		require.NoError(t, err)
		_, err = env.campaigns.RecordSocialPost(context.Background(), p.ID, campaign.SocialPostInput{Platform: "twitter", Likes: 10})
		require.NoError(t, err)
	}

	require.NoError(t, env.quality.RunScorePass(context.Background()))

	scores, err := env.quality.ListCampaignScores(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	for _, score := range scores {
		require.Zero(t, score.Clicks)
		require.Zero(t, score.Likes)
	}
}

func TestScorePassIsRepeatable(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCampaign(t)

	p := env.join(t, c.ID, "user-1")
	_, err := env.campaigns.TrackAction(context.Background(), p.ID, campaign.ActionClick)
	require.NoError(t, err)

	require.NoError(t, env.quality.RunScorePass(context.Background()))
	require.NoError(t, env.quality.RunScorePass(context.Background()))

	// Rescoring updates the same row instead of accumulating duplicates.
	scores, err := env.quality.ListCampaignScores(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, scores, 1)
}

func TestScorePassPrunesDeletedCampaigns(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCampaign(t)

	p := env.join(t, c.ID, "user-1")
	_, err := env.campaigns.TrackAction(context.Background(), p.ID, campaign.ActionClick)
	require.NoError(t, err)

	require.NoError(t, env.quality.RunScorePass(context.Background()))
	require.NoError(t, env.campaigns.DeleteCampaign(context.Background(), c.ID))
	require.NoError(t, env.quality.RunScorePass(context.Background()))

	scores, err := env.quality.ListCampaignScores(context.Background(), c.ID)
	require.NoError(t, err)
	require.Empty(t, scores)
}

func TestScoreCampaignUnknownCampaign(t *testing.T) {
	env := newTestEnv(t)

	err := env.quality.ScoreCampaign(context.Background(), "missing")
	require.Error(t, err)
}
