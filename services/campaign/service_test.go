package campaign

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"engage-controlplane/pkg/errutil"
	"engage-controlplane/services/testutil"
	"engage-controlplane/services/wallet"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t,
		&Campaign{}, &Participant{}, &SocialPost{}, &SocialLink{},
		&wallet.Wallet{}, &wallet.LedgerEntry{}, &wallet.PayoutRecord{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	wallets := wallet.NewService(wallet.ServiceParams{DB: db, Node: node})
	return NewService(ServiceParams{DB: db, Node: node, Wallets: wallets})
}

func createTestCampaign(t *testing.T, svc *Service) *Campaign {
	t.Helper()

	c, err := svc.CreateCampaign(context.Background(), CreateCampaignInput{
		OrgID:      "org-1",
		Name:       "spring launch",
		CoiinTotal: dec("10000"),
		Algorithm: testAlgorithm(map[string]Tier{
			"1": {Threshold: nd("0"), TotalCoiins: nd("1000")},
			"2": {Threshold: nd("500"), TotalCoiins: nd("5000")},
		}),
	})
	require.NoError(t, err)
	return c
}

func TestCreateCampaignRejectsInvalidAlgorithm(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateCampaign(context.Background(), CreateCampaignInput{
		OrgID: "org-1",
		Name:  "bad tiers",
		Algorithm: testAlgorithm(map[string]Tier{
			"1": {Threshold: nd("500"), TotalCoiins: nd("1000")},
			"2": {Threshold: nd("100"), TotalCoiins: nd("5000")},
		}),
	})
	require.Error(t, err)

	base, ok := err.(errutil.BaseError)
	require.True(t, ok)
	require.Equal(t, errutil.StatusValidationFailed, base.Code)
}

func TestJoinCampaignEnsuresWallet(t *testing.T) {
	svc := newTestService(t)
	c := createTestCampaign(t, svc)

	p, err := svc.JoinCampaign(context.Background(), c.ID, JoinCampaignInput{UserID: "user-1", Email: "u1@example.com"})
	require.NoError(t, err)
	require.Equal(t, c.ID, p.CampaignID)
	require.True(t, p.ParticipationScore.IsZero())

	w, err := svc.wallets.GetWalletForOwner(context.Background(), wallet.OwnerTypeUser, "user-1")
	require.NoError(t, err)
	require.True(t, w.Balance.IsZero())
}

func TestJoinCampaignTwiceConflicts(t *testing.T) {
	svc := newTestService(t)
	c := createTestCampaign(t, svc)

	_, err := svc.JoinCampaign(context.Background(), c.ID, JoinCampaignInput{UserID: "user-1"})
	require.NoError(t, err)

	_, err = svc.JoinCampaign(context.Background(), c.ID, JoinCampaignInput{UserID: "user-1"})
	require.Error(t, err)

	base, ok := err.(errutil.BaseError)
	require.True(t, ok)
	require.Equal(t, errutil.StatusConflict, base.Code)
}

func TestTrackActionUpdatesBothTotals(t *testing.T) {
	svc := newTestService(t)
	c := createTestCampaign(t, svc)

	p, err := svc.JoinCampaign(context.Background(), c.ID, JoinCampaignInput{UserID: "user-1"})
	require.NoError(t, err)

	_, err = svc.TrackAction(context.Background(), p.ID, ActionClick)
	require.NoError(t, err)
	_, err = svc.TrackAction(context.Background(), p.ID, ActionClick)
	require.NoError(t, err)
	updated, err := svc.TrackAction(context.Background(), p.ID, ActionSubmission)
	require.NoError(t, err)

	require.Equal(t, int64(2), updated.ClickCount)
	require.Equal(t, int64(1), updated.SubmissionCount)
	require.True(t, updated.ParticipationScore.Equal(dec("229"))) // 2*14 + 201

	fresh, err := svc.GetCampaign(context.Background(), c.ID)
	require.NoError(t, err)
	require.True(t, fresh.TotalParticipationScore.Equal(updated.ParticipationScore))
}

func TestTrackActionUnknownTypeFails(t *testing.T) {
	svc := newTestService(t)
	c := createTestCampaign(t, svc)

	p, err := svc.JoinCampaign(context.Background(), c.ID, JoinCampaignInput{UserID: "user-1"})
	require.NoError(t, err)

	_, err = svc.TrackAction(context.Background(), p.ID, ActionType("retweet"))
	require.Error(t, err)

	fresh, err := svc.GetCampaign(context.Background(), c.ID)
	require.NoError(t, err)
	require.True(t, fresh.TotalParticipationScore.IsZero())
}

func TestCampaignTotalMatchesParticipantSum(t *testing.T) {
	svc := newTestService(t)
	c := createTestCampaign(t, svc)

	p1, err := svc.JoinCampaign(context.Background(), c.ID, JoinCampaignInput{UserID: "user-1"})
	require.NoError(t, err)
	p2, err := svc.JoinCampaign(context.Background(), c.ID, JoinCampaignInput{UserID: "user-2"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = svc.TrackAction(context.Background(), p1.ID, ActionView)
		require.NoError(t, err)
	}
	_, err = svc.TrackAction(context.Background(), p2.ID, ActionClick)
	require.NoError(t, err)

	parts, err := svc.ListParticipants(context.Background(), c.ID)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, p := range parts {
		sum = sum.Add(p.ParticipationScore)
	}

	fresh, err := svc.GetCampaign(context.Background(), c.ID)
	require.NoError(t, err)
	require.True(t, fresh.TotalParticipationScore.Equal(sum))
}

func TestWithdrawParticipantRemovesPosts(t *testing.T) {
	svc := newTestService(t)
	c := createTestCampaign(t, svc)

	p, err := svc.JoinCampaign(context.Background(), c.ID, JoinCampaignInput{UserID: "user-1"})
	require.NoError(t, err)

	_, err = svc.RecordSocialPost(context.Background(), p.ID, SocialPostInput{Platform: "twitter", Likes: 5})
	require.NoError(t, err)

	require.NoError(t, svc.WithdrawParticipant(context.Background(), c.ID, p.ID))

	_, err = svc.GetParticipant(context.Background(), p.ID)
	require.Error(t, err)

	posts, err := svc.posts.Find(context.Background(), &SocialPost{ParticipantID: p.ID})
	require.NoError(t, err)
	require.Empty(t, posts)
}

func TestGetCampaignTierTracksRunningTotal(t *testing.T) {
	svc := newTestService(t)
	c := createTestCampaign(t, svc)

	p, err := svc.JoinCampaign(context.Background(), c.ID, JoinCampaignInput{UserID: "user-1"})
	require.NoError(t, err)

	status, err := svc.GetCampaignTier(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, 1, status.CurrentTier)

	// Three submissions push the total to 603, past the tier-2 threshold.
	for i := 0; i < 3; i++ {
		_, err = svc.TrackAction(context.Background(), p.ID, ActionSubmission)
		require.NoError(t, err)
	}

	status, err = svc.GetCampaignTier(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, 2, status.CurrentTier)
	require.True(t, status.TierPool.Equal(dec("5000")))
}

func TestUpsertSocialLinkRefreshesFollowerCount(t *testing.T) {
	svc := newTestService(t)

	link, err := svc.UpsertSocialLink(context.Background(), "user-1", "twitter", 100)
	require.NoError(t, err)

	again, err := svc.UpsertSocialLink(context.Background(), "user-1", "twitter", 250)
	require.NoError(t, err)
	require.Equal(t, link.ID, again.ID)
	require.Equal(t, int64(250), again.FollowerCount)
}
