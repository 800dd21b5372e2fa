package quality

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"engage-controlplane/pkg/config"
	"engage-controlplane/pkg/db/option"
	"engage-controlplane/pkg/errutil"
	"engage-controlplane/pkg/repository"
	"engage-controlplane/services/campaign"
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	cfg  *config.Config

	campaigns    repository.Repository[campaign.Campaign]
	participants repository.Repository[campaign.Participant]
	posts        repository.Repository[campaign.SocialPost]
	links        repository.Repository[campaign.SocialLink]
	scores       repository.Repository[QualityScore]
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Config *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
		cfg:  p.Config,

		campaigns:    repository.ProvideStore[campaign.Campaign](p.DB),
		participants: repository.ProvideStore[campaign.Participant](p.DB),
		posts:        repository.ProvideStore[campaign.SocialPost](p.DB),
		links:        repository.ProvideStore[campaign.SocialLink](p.DB),
		scores:       repository.ProvideStore[QualityScore](p.DB),
	}
}

// scorePass holds the social data loaded once per scoring job. Users post
// across campaigns, so loading per campaign would refetch the same rows; the
// maps are built before any campaign is scored and read concurrently after.
type scorePass struct {
	postsByUser map[string][]*campaign.SocialPost
	linksByUser map[string]map[string]int64
}

func (s *Service) buildScorePass(ctx context.Context) (*scorePass, error) {
	posts, err := s.posts.Find(ctx, &campaign.SocialPost{})
	if err != nil {
		return nil, err
	}
	links, err := s.links.Find(ctx, &campaign.SocialLink{})
	if err != nil {
		return nil, err
	}

	pass := &scorePass{
		postsByUser: make(map[string][]*campaign.SocialPost),
		linksByUser: make(map[string]map[string]int64),
	}
	for _, post := range posts {
		pass.postsByUser[post.UserID] = append(pass.postsByUser[post.UserID], post)
	}
	for _, link := range links {
		byPlatform, ok := pass.linksByUser[link.UserID]
		if !ok {
			byPlatform = make(map[string]int64)
			pass.linksByUser[link.UserID] = byPlatform
		}
		byPlatform[link.Platform] = link.FollowerCount
	}
	return pass, nil
}

func (pass *scorePass) rateInputs(p *campaign.Participant) RateInputs {
	postsPerPlatform := make(map[string]int64)
	var likes, shares, comments int64
	for _, post := range pass.postsByUser[p.UserID] {
		likes += post.Likes
		shares += post.Shares
		comments += post.Comments
		if post.CampaignID == p.CampaignID {
			postsPerPlatform[post.Platform]++
		}
	}

	potential := decimal.Zero
	for platform, count := range postsPerPlatform {
		followers := pass.linksByUser[p.UserID][platform]
		potential = potential.Add(decimal.NewFromInt(count).Mul(decimal.NewFromInt(followers)))
	}

	return RateInputs{
		PotentialEngagement: potential,
		TotalLikes:          likes,
		TotalShares:         shares,
		TotalComments:       comments,
		ClickCount:          p.ClickCount,
		ViewCount:           p.ViewCount,
		SubmissionCount:     p.SubmissionCount,
	}
}

// RunScorePass rescores every campaign. Campaigns are independent, so they
// run concurrently up to the configured parallelism; a campaign that fails to
// score is logged and skipped rather than sinking the whole pass.
func (s *Service) RunScorePass(ctx context.Context) error {
	start := time.Now()

	if err := s.db.WithContext(ctx).
		Where("campaign_id NOT IN (?)", s.db.Model(&campaign.Campaign{}).Select("id")).
		Delete(&QualityScore{}).Error; err != nil {
		return errutil.Internal("failed to prune stale quality scores", errutil.WithErr(err))
	}

	campaigns, err := s.campaigns.Find(ctx, &campaign.Campaign{})
	if err != nil {
		return errutil.Internal("failed to query campaigns", errutil.WithErr(err))
	}

	pass, err := s.buildScorePass(ctx)
	if err != nil {
		return errutil.Internal("failed to load social data", errutil.WithErr(err))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Engine.ScorePassParallelism)
	for _, c := range campaigns {
		g.Go(func() error {
			if err := s.scoreCampaign(ctx, pass, *c); err != nil {
				zap.L().Error("failed to score campaign",
					zap.String("campaign_id", c.ID),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	zap.L().Info("score pass complete",
		zap.Int("campaigns", len(campaigns)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// ScoreCampaign rescores a single campaign on demand.
func (s *Service) ScoreCampaign(ctx context.Context, campaignID string) error {
	c, err := s.campaigns.FindOne(ctx, &campaign.Campaign{ID: campaignID})
	if err != nil {
		return errutil.Internal("failed to query campaign", errutil.WithErr(err))
	}
	if c == nil {
		return errutil.NotFound("campaign not found")
	}

	pass, err := s.buildScorePass(ctx)
	if err != nil {
		return errutil.Internal("failed to load social data", errutil.WithErr(err))
	}
	return s.scoreCampaign(ctx, pass, *c)
}

type metricRates struct {
	participant *campaign.Participant
	rates       Rates
}

func (s *Service) scoreCampaign(ctx context.Context, pass *scorePass, c campaign.Campaign) error {
	parts, err := s.participants.Find(ctx, &campaign.Participant{CampaignID: c.ID}, option.WithSortBy(option.QuerySortBy{SortBy: "id", OrderBy: "ASC"}))
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		return nil
	}

	snapshots := make([]metricRates, 0, len(parts))
	var clickPop, viewPop, subPop, likePop, sharePop, commentPop []decimal.Decimal
	for _, p := range parts {
		rates := ComputeRates(pass.rateInputs(p))
		snapshots = append(snapshots, metricRates{participant: p, rates: rates})

		clickPop = appendValid(clickPop, rates.Clicks)
		viewPop = appendValid(viewPop, rates.Views)
		subPop = appendValid(subPop, rates.Submissions)
		likePop = appendValid(likePop, rates.Likes)
		sharePop = appendValid(sharePop, rates.Shares)
		commentPop = appendValid(commentPop, rates.Comments)
	}

	clickStats, clickOK := Calculate(clickPop)
	viewStats, viewOK := Calculate(viewPop)
	subStats, subOK := Calculate(subPop)
	likeStats, likeOK := Calculate(likePop)
	shareStats, shareOK := Calculate(sharePop)
	commentStats, commentOK := Calculate(commentPop)

	now := time.Now()
	for _, snap := range snapshots {
		score := QualityScore{
			ParticipantID: snap.participant.ID,
			CampaignID:    c.ID,
			Clicks:        TierForMetric(snap.rates.Clicks, clickStats, clickOK),
			Views:         TierForMetric(snap.rates.Views, viewStats, viewOK),
			Submissions:   TierForMetric(snap.rates.Submissions, subStats, subOK),
			Likes:         TierForMetric(snap.rates.Likes, likeStats, likeOK),
			Shares:        TierForMetric(snap.rates.Shares, shareStats, shareOK),
			Comments:      TierForMetric(snap.rates.Comments, commentStats, commentOK),
			ScoredAt:      now,
		}
		if err := s.upsertScore(ctx, score); err != nil {
			return err
		}
	}
	return nil
}

func appendValid(pop []decimal.Decimal, r Ratio) []decimal.Decimal {
	if !r.Valid {
		return pop
	}
	return append(pop, r.Value)
}

func (s *Service) upsertScore(ctx context.Context, score QualityScore) error {
	existing, err := s.scores.FindOne(ctx, &QualityScore{ParticipantID: score.ParticipantID})
	if err != nil {
		return err
	}
	if existing == nil {
		score.ID = s.node.Generate().String()
		return s.scores.Create(ctx, &score)
	}

	// Tiers can legitimately drop back to zero; a struct update would skip
	// those fields, so the update is spelled out as a map.
	return s.scores.Update(ctx, existing.ID, map[string]interface{}{
		"campaign_id": score.CampaignID,
		"clicks":      score.Clicks,
		"views":       score.Views,
		"submissions": score.Submissions,
		"likes":       score.Likes,
		"shares":      score.Shares,
		"comments":    score.Comments,
		"scored_at":   score.ScoredAt,
	})
}

// GetParticipantScore returns the participant's latest quality tiers.
func (s *Service) GetParticipantScore(ctx context.Context, participantID string) (*QualityScore, error) {
	score, err := s.scores.FindOne(ctx, &QualityScore{ParticipantID: participantID})
	if err != nil {
		return nil, errutil.Internal("failed to query quality score", errutil.WithErr(err))
	}
	if score == nil {
		return nil, errutil.NotFound("quality score not found")
	}
	return score, nil
}

// ListCampaignScores returns every participant score for a campaign.
func (s *Service) ListCampaignScores(ctx context.Context, campaignID string) ([]*QualityScore, error) {
	items, err := s.scores.Find(ctx, &QualityScore{CampaignID: campaignID}, option.WithSortBy(option.QuerySortBy{SortBy: "participant_id", OrderBy: "ASC"}))
	if err != nil {
		return nil, errutil.Internal("failed to query quality scores", errutil.WithErr(err))
	}
	return items, nil
}
