package campaign

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"engage-controlplane/pkg/db/option"
	"engage-controlplane/pkg/errutil"
	"engage-controlplane/pkg/repository"
	"engage-controlplane/pkg/sequence"
	"engage-controlplane/services/wallet"
)

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	wallets  *wallet.Service
	sequence sequence.Generator

	campaigns    repository.Repository[Campaign]
	participants repository.Repository[Participant]
	posts        repository.Repository[SocialPost]
	links        repository.Repository[SocialLink]
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Wallets  *wallet.Service
	Sequence sequence.Generator `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		wallets:  p.Wallets,
		sequence: p.Sequence,

		campaigns:    repository.ProvideStore[Campaign](p.DB),
		participants: repository.ProvideStore[Participant](p.DB),
		posts:        repository.ProvideStore[SocialPost](p.DB),
		links:        repository.ProvideStore[SocialLink](p.DB),
	}
}

type CreateCampaignInput struct {
	OrgID       string
	Name        string
	Description string
	CoiinTotal  decimal.Decimal
	Algorithm   Algorithm
}

func (s *Service) CreateCampaign(ctx context.Context, in CreateCampaignInput) (*Campaign, error) {
	span := trace.SpanFromContext(ctx)
	opts := []zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("org_id", in.OrgID),
	}

	if in.Name == "" {
		return nil, errutil.BadRequest("name is required")
	}
	if in.CoiinTotal.IsNegative() {
		return nil, errutil.BadRequest("coiinTotal must not be negative")
	}
	if err := in.Algorithm.Validate(); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(in.Algorithm)
	if err != nil {
		return nil, errutil.Internal("failed to encode algorithm", errutil.WithErr(err))
	}

	code := ""
	if s.sequence != nil {
		code, err = s.sequence.NextCampaignCode(ctx, in.OrgID)
		if err != nil {
			zap.L().With(opts...).Warn("failed to issue campaign code", zap.Error(err))
			code = ""
		}
	}

	c := &Campaign{
		ID:                      s.node.Generate().String(),
		Code:                    code,
		OrgID:                   in.OrgID,
		Name:                    in.Name,
		Description:             in.Description,
		Status:                  CampaignStatusActive,
		CoiinTotal:              in.CoiinTotal,
		TotalParticipationScore: decimal.Zero,
		Algorithm:               datatypes.JSON(raw),
	}
	if err := s.campaigns.Create(ctx, c); err != nil {
		zap.L().With(opts...).Error("failed to create campaign", zap.Error(err))
		return nil, errutil.Internal("failed to create campaign", errutil.WithErr(err))
	}
	return c, nil
}

func (s *Service) GetCampaign(ctx context.Context, id string) (*Campaign, error) {
	c, err := s.campaigns.FindOne(ctx, &Campaign{ID: id})
	if err != nil {
		return nil, errutil.Internal("failed to query campaign", errutil.WithErr(err))
	}
	if c == nil {
		return nil, errutil.NotFound("campaign not found")
	}
	return c, nil
}

func (s *Service) ListCampaigns(ctx context.Context, orgID string) ([]*Campaign, error) {
	filter := &Campaign{}
	if orgID != "" {
		filter.OrgID = orgID
	}
	items, err := s.campaigns.Find(ctx, filter, option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "DESC"}))
	if err != nil {
		return nil, errutil.Internal("failed to query campaigns", errutil.WithErr(err))
	}
	return items, nil
}

type UpdateCampaignInput struct {
	Name        *string
	Description *string
	Status      *CampaignStatus
	Algorithm   *Algorithm
}

func (s *Service) UpdateCampaign(ctx context.Context, id string, in UpdateCampaignInput) (*Campaign, error) {
	c, err := s.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.Status != nil {
		switch *in.Status {
		case CampaignStatusDraft, CampaignStatusActive, CampaignStatusClosed:
			c.Status = *in.Status
		default:
			return nil, errutil.BadRequest("unknown campaign status")
		}
	}
	if in.Algorithm != nil {
		if err := in.Algorithm.Validate(); err != nil {
			return nil, err
		}
		raw, err := json.Marshal(in.Algorithm)
		if err != nil {
			return nil, errutil.Internal("failed to encode algorithm", errutil.WithErr(err))
		}
		c.Algorithm = datatypes.JSON(raw)
	}

	if err := s.campaigns.Update(ctx, c.ID, c); err != nil {
		return nil, errutil.Internal("failed to update campaign", errutil.WithErr(err))
	}
	return c, nil
}

// DeleteCampaign removes the campaign together with its participants and
// posts in one transaction. Wallet ledger entries are untouched: credited
// value survives its campaign.
func (s *Service) DeleteCampaign(ctx context.Context, id string) error {
	if _, err := s.GetCampaign(ctx, id); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("campaign_id = ?", id).Delete(&SocialPost{}).Error; err != nil {
			return err
		}
		if err := tx.Where("campaign_id = ?", id).Delete(&Participant{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&Campaign{}).Error
	})
	if err != nil {
		zap.L().Error("failed to delete campaign", zap.String("campaign_id", id), zap.Error(err))
		return errutil.Internal("failed to delete campaign", errutil.WithErr(err))
	}
	return nil
}

type JoinCampaignInput struct {
	UserID string
	Email  string
}

// JoinCampaign enrolls a user and guarantees a wallet exists before any
// distribution can target them.
func (s *Service) JoinCampaign(ctx context.Context, campaignID string, in JoinCampaignInput) (*Participant, error) {
	if in.UserID == "" {
		return nil, errutil.BadRequest("userId is required")
	}

	c, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Status == CampaignStatusClosed {
		return nil, errutil.UnprocessableEntity("campaign is closed")
	}

	exist, err := s.participants.FindOne(ctx, &Participant{CampaignID: campaignID, UserID: in.UserID})
	if err != nil {
		return nil, errutil.Internal("failed to query participant", errutil.WithErr(err))
	}
	if exist != nil {
		return nil, errutil.Conflict("user already joined this campaign")
	}

	if _, err := s.wallets.EnsureWallet(ctx, wallet.OwnerTypeUser, in.UserID); err != nil {
		return nil, err
	}

	p := &Participant{
		ID:                 s.node.Generate().String(),
		CampaignID:         campaignID,
		UserID:             in.UserID,
		Email:              in.Email,
		ParticipationScore: decimal.Zero,
	}
	if err := s.participants.Create(ctx, p); err != nil {
		return nil, errutil.Internal("failed to create participant", errutil.WithErr(err))
	}
	return p, nil
}

func (s *Service) GetParticipant(ctx context.Context, id string) (*Participant, error) {
	p, err := s.participants.FindOne(ctx, &Participant{ID: id})
	if err != nil {
		return nil, errutil.Internal("failed to query participant", errutil.WithErr(err))
	}
	if p == nil {
		return nil, errutil.NotFound("participant not found")
	}
	return p, nil
}

func (s *Service) ListParticipants(ctx context.Context, campaignID string) ([]*Participant, error) {
	items, err := s.participants.Find(ctx, &Participant{CampaignID: campaignID}, option.WithSortBy(option.QuerySortBy{SortBy: "id", OrderBy: "ASC"}))
	if err != nil {
		return nil, errutil.Internal("failed to query participants", errutil.WithErr(err))
	}
	return items, nil
}

// WithdrawParticipant drops the participant and their posts. The campaign's
// running total keeps the withdrawn score: the total only ever grows, so the
// forfeited contribution simply stops being attributable.
func (s *Service) WithdrawParticipant(ctx context.Context, campaignID, participantID string) error {
	p, err := s.GetParticipant(ctx, participantID)
	if err != nil {
		return err
	}
	if p.CampaignID != campaignID {
		return errutil.NotFound("participant not found in this campaign")
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("participant_id = ?", participantID).Delete(&SocialPost{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", participantID).Delete(&Participant{}).Error
	})
	if err != nil {
		return errutil.Internal("failed to withdraw participant", errutil.WithErr(err))
	}
	return nil
}

// TrackAction applies one action's weight to the participant and the campaign
// inside a single transaction, so the two running totals never drift apart.
func (s *Service) TrackAction(ctx context.Context, participantID string, action ActionType) (*Participant, error) {
	span := trace.SpanFromContext(ctx)
	opts := []zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("participant_id", participantID),
		zap.String("action", string(action)),
	}

	var updated *Participant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p Participant
		if err := option.LockingUpdate(tx).Where("id = ?", participantID).First(&p).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errutil.NotFound("participant not found")
			}
			return err
		}

		var c Campaign
		if err := option.LockingUpdate(tx).Where("id = ?", p.CampaignID).First(&c).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errutil.NotFound("campaign not found")
			}
			return err
		}
		if c.Status != CampaignStatusActive {
			return errutil.UnprocessableEntity("campaign is not active")
		}

		alg, err := c.ParseAlgorithm()
		if err != nil {
			return errutil.Internal("failed to decode algorithm", errutil.WithErr(err))
		}
		weight, ok := alg.PointValues.ForAction(action)
		if !ok {
			return errutil.BadRequest("unknown action type")
		}

		switch action {
		case ActionClick:
			p.ClickCount++
		case ActionView:
			p.ViewCount++
		case ActionSubmission:
			p.SubmissionCount++
		}
		p.ParticipationScore = p.ParticipationScore.Add(weight)
		p.UpdatedAt = time.Now()

		if err := tx.Model(&Participant{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"click_count":         p.ClickCount,
			"view_count":          p.ViewCount,
			"submission_count":    p.SubmissionCount,
			"participation_score": p.ParticipationScore,
			"updated_at":          p.UpdatedAt,
		}).Error; err != nil {
			return err
		}

		if err := tx.Model(&Campaign{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
			"total_participation_score": c.TotalParticipationScore.Add(weight),
			"updated_at":                time.Now(),
		}).Error; err != nil {
			return err
		}

		updated = &p
		return nil
	})
	if err != nil {
		if _, ok := err.(errutil.BaseError); !ok {
			zap.L().With(opts...).Error("failed to track action", zap.Error(err))
			return nil, errutil.Internal("failed to track action", errutil.WithErr(err))
		}
		return nil, err
	}
	return updated, nil
}

type SocialPostInput struct {
	Platform string
	Likes    int64
	Shares   int64
	Comments int64
}

func (s *Service) RecordSocialPost(ctx context.Context, participantID string, in SocialPostInput) (*SocialPost, error) {
	if in.Platform == "" {
		return nil, errutil.BadRequest("platform is required")
	}
	if in.Likes < 0 || in.Shares < 0 || in.Comments < 0 {
		return nil, errutil.BadRequest("engagement counts must not be negative")
	}

	p, err := s.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}

	post := &SocialPost{
		ID:            s.node.Generate().String(),
		ParticipantID: p.ID,
		CampaignID:    p.CampaignID,
		UserID:        p.UserID,
		Platform:      in.Platform,
		Likes:         in.Likes,
		Shares:        in.Shares,
		Comments:      in.Comments,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, errutil.Internal("failed to create social post", errutil.WithErr(err))
	}
	return post, nil
}

// UpsertSocialLink records or refreshes a user's follower count on a platform.
func (s *Service) UpsertSocialLink(ctx context.Context, userID, platform string, followerCount int64) (*SocialLink, error) {
	if userID == "" || platform == "" {
		return nil, errutil.BadRequest("userId and platform are required")
	}
	if followerCount < 0 {
		return nil, errutil.BadRequest("followerCount must not be negative")
	}

	link, err := s.links.FindOne(ctx, &SocialLink{UserID: userID, Platform: platform})
	if err != nil {
		return nil, errutil.Internal("failed to query social link", errutil.WithErr(err))
	}
	if link == nil {
		link = &SocialLink{
			ID:            s.node.Generate().String(),
			UserID:        userID,
			Platform:      platform,
			FollowerCount: followerCount,
		}
		if err := s.links.Create(ctx, link); err != nil {
			return nil, errutil.Internal("failed to create social link", errutil.WithErr(err))
		}
		return link, nil
	}

	link.FollowerCount = followerCount
	if err := s.links.Update(ctx, link.ID, map[string]interface{}{"follower_count": followerCount}); err != nil {
		return nil, errutil.Internal("failed to update social link", errutil.WithErr(err))
	}
	return link, nil
}

type TierStatus struct {
	CampaignID   string          `json:"campaignId"`
	CurrentTier  int             `json:"currentTier"`
	CurrentTotal decimal.Decimal `json:"currentTotal"`
	TierPool     decimal.Decimal `json:"tierPool"`
}

// GetCampaignTier reports which tier the campaign's running total has unlocked.
func (s *Service) GetCampaignTier(ctx context.Context, campaignID string) (*TierStatus, error) {
	c, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	alg, err := c.ParseAlgorithm()
	if err != nil {
		return nil, errutil.Internal("failed to decode algorithm", errutil.WithErr(err))
	}

	tier, pool := ResolveTier(c.TotalParticipationScore, alg)
	return &TierStatus{
		CampaignID:   c.ID,
		CurrentTier:  tier,
		CurrentTotal: c.TotalParticipationScore,
		TierPool:     pool,
	}, nil
}
