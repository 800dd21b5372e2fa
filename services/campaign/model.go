package campaign

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type CampaignStatus string

const (
	CampaignStatusDraft  CampaignStatus = "DRAFT"
	CampaignStatusActive CampaignStatus = "ACTIVE"
	CampaignStatusClosed CampaignStatus = "CLOSED"
)

// Campaign is a funded participation campaign. TotalParticipationScore is the
// cumulative point total across every tracked action and only ever grows.
type Campaign struct {
	ID                      string          `gorm:"column:id;primaryKey;type:char(26)"`
	Code                    string          `gorm:"column:code;index"`
	OrgID                   string          `gorm:"column:org_id;index;not null"`
	Name                    string          `gorm:"column:name;type:varchar(255);not null"`
	Description             string          `gorm:"column:description;type:text"`
	Status                  CampaignStatus  `gorm:"column:status;type:varchar(20);not null;default:'DRAFT'"`
	CoiinTotal              decimal.Decimal `gorm:"column:coiin_total;type:decimal(32,12)"`
	TotalParticipationScore decimal.Decimal `gorm:"column:total_participation_score;type:decimal(32,12)"`
	Algorithm               datatypes.JSON  `gorm:"column:algorithm;type:jsonb"`
	CreatedAt               time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Campaign) ParseAlgorithm() (Algorithm, error) {
	var alg Algorithm
	if err := json.Unmarshal(c.Algorithm, &alg); err != nil {
		return Algorithm{}, err
	}
	return alg, nil
}

// Participant ties a user to a campaign. ParticipationScore is the
// participant's own cumulative point total; its sum across a campaign equals
// the campaign's TotalParticipationScore.
type Participant struct {
	ID                 string          `gorm:"column:id;primaryKey;type:char(26)"`
	CampaignID         string          `gorm:"column:campaign_id;index;not null"`
	UserID             string          `gorm:"column:user_id;index;not null"`
	Email              string          `gorm:"column:email"`
	ClickCount         int64           `gorm:"column:click_count;not null;default:0"`
	ViewCount          int64           `gorm:"column:view_count;not null;default:0"`
	SubmissionCount    int64           `gorm:"column:submission_count;not null;default:0"`
	ParticipationScore decimal.Decimal `gorm:"column:participation_score;type:decimal(32,12)"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// SocialPost carries engagement counts used only by the quality scorer, not by
// the participation score.
type SocialPost struct {
	ID            string    `gorm:"column:id;primaryKey;type:char(26)"`
	ParticipantID string    `gorm:"column:participant_id;index;not null"`
	CampaignID    string    `gorm:"column:campaign_id;index;not null"`
	UserID        string    `gorm:"column:user_id;index;not null"`
	Platform      string    `gorm:"column:platform;type:varchar(30);not null"`
	Likes         int64     `gorm:"column:likes;not null;default:0"`
	Shares        int64     `gorm:"column:shares;not null;default:0"`
	Comments      int64     `gorm:"column:comments;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

// SocialLink records a user's follower count on a platform; it is the reach
// denominator for engagement ratios.
type SocialLink struct {
	ID            string    `gorm:"column:id;primaryKey;type:char(26)"`
	UserID        string    `gorm:"column:user_id;index;not null"`
	Platform      string    `gorm:"column:platform;type:varchar(30);not null"`
	FollowerCount int64     `gorm:"column:follower_count;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
