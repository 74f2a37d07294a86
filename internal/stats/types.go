package stats

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateFormat is the calendar-day key format for daily stats.
const DateFormat = "2006-01-02"

// DailyStats is the derived per-campaign snapshot for one calendar day.
// It is a cache, not a source of truth: every field is recomputable from
// the send counters, post counters, and booking collaborator, and the
// aggregator may recompute a row any number of times. At most one row
// exists per (campaign, date); the database enforces that.
type DailyStats struct {
	ID         uuid.UUID `json:"id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	StatDate   string    `json:"date"`

	Reach       int             `json:"reach"`
	Conversions int             `json:"conversions"`
	Revenue     decimal.Decimal `json:"revenue"`

	EmailSent      int `json:"email_sent"`
	EmailDelivered int `json:"email_delivered"`
	EmailOpens     int `json:"email_opens"`
	EmailClicks    int `json:"email_clicks"`
	EmailBounces   int `json:"email_bounces"`

	SocialImpressions int `json:"social_impressions"`
	SocialClicks      int `json:"social_clicks"`
	SocialEngagements int `json:"social_engagements"`

	UpdatedAt time.Time `json:"updated_at"`
}
