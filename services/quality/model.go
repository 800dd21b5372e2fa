package quality

import (
	"time"
)

// QualityScore holds a participant's latest per-metric quality tiers. Tiers
// run 0 to 4: zero means no signal, one means statistical outlier, four means
// the metric sits comfortably above the campaign average.
type QualityScore struct {
	ID            string    `gorm:"column:id;primaryKey;type:char(26)"`
	ParticipantID string    `gorm:"column:participant_id;uniqueIndex;not null"`
	CampaignID    string    `gorm:"column:campaign_id;index;not null"`
	Clicks        int       `gorm:"column:clicks;not null;default:0"`
	Views         int       `gorm:"column:views;not null;default:0"`
	Submissions   int       `gorm:"column:submissions;not null;default:0"`
	Likes         int       `gorm:"column:likes;not null;default:0"`
	Shares        int       `gorm:"column:shares;not null;default:0"`
	Comments      int       `gorm:"column:comments;not null;default:0"`
	ScoredAt      time.Time `gorm:"column:scored_at"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
