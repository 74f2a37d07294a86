package email

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventra/campaign-engine/internal/campaign"
)

// Email send statuses
const (
	StatusDraft   = "draft"
	StatusQueued  = "queued"
	StatusSending = "sending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Send is one outbound email job. It carries its own copy of the
// targeting segment, taken when the job is created; editing the parent
// campaign's segment afterwards does not change this job's audience.
//
// Lifecycle: Draft -> Queued -> Sending -> Sent or Failed. Only Draft
// jobs may be edited or deleted. Sent and Failed are terminal except for
// the open/click/bounce counters, which keep accumulating from tracking.
type Send struct {
	ID              uuid.UUID        `json:"id"`
	CampaignID      uuid.UUID        `json:"campaign_id"`
	Subject         string           `json:"subject"`
	BodyHTML        string           `json:"body_html"`
	FromAddress     string           `json:"from_address"`
	Segment         campaign.Segment `json:"segment"`
	Provider        string           `json:"provider"`
	TrackingEnabled bool             `json:"tracking_enabled"`
	Status          string           `json:"status"`
	ScheduledAt     *time.Time       `json:"scheduled_at,omitempty"`
	NextBatchAt     *time.Time       `json:"next_batch_at,omitempty"`
	RecipientCount  int              `json:"recipient_count"`
	ProcessedCount  int              `json:"processed_count"`
	SentCount       int              `json:"sent_count"`
	DeliveredCount  int              `json:"delivered_count"`
	OpenCount       int              `json:"open_count"`
	ClickCount      int              `json:"click_count"`
	BounceCount     int              `json:"bounce_count"`
	ErrorMessage    string           `json:"error_message,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Editable reports whether operator edits are still allowed.
func (s *Send) Editable() bool {
	return s.Status == StatusDraft
}
