package social

import (
	"time"

	"github.com/google/uuid"
)

// Social post statuses
const (
	StatusDraft  = "draft"
	StatusQueued = "queued"
	StatusPosted = "posted"
	StatusFailed = "failed"
)

// Supported platforms
const (
	PlatformFacebook  = "facebook"
	PlatformTwitter   = "twitter"
	PlatformInstagram = "instagram"
)

var validPlatforms = map[string]bool{
	PlatformFacebook:  true,
	PlatformTwitter:   true,
	PlatformInstagram: true,
}

// Post is one outbound social post. Unlike email, a post is a single
// atomic unit: it publishes exactly once and the counters the network
// returned at publish time are stored verbatim, never accumulated.
//
// Lifecycle: Draft -> Queued -> Posted or Failed.
type Post struct {
	ID           uuid.UUID  `json:"id"`
	CampaignID   uuid.UUID  `json:"campaign_id"`
	Platform     string     `json:"platform"`
	Content      string     `json:"content"`
	LinkURL      string     `json:"link_url,omitempty"`
	ImageURL     string     `json:"image_url,omitempty"`
	ScheduledAt  *time.Time `json:"scheduled_at,omitempty"`
	Status       string     `json:"status"`
	ExternalID   string     `json:"external_id,omitempty"`
	Impressions  int        `json:"impressions"`
	Clicks       int        `json:"clicks"`
	Likes        int        `json:"likes"`
	Shares       int        `json:"shares"`
	Comments     int        `json:"comments"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Editable reports whether operator edits are still allowed.
func (p *Post) Editable() bool {
	return p.Status == StatusDraft
}
