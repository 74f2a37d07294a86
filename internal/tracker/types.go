package tracker

import (
	"time"

	"github.com/google/uuid"
)

// Engagement event types
const (
	EventSent      = "sent"
	EventDelivered = "delivered"
	EventOpen      = "open"
	EventClick     = "click"
	EventBounce    = "bounce"
)

// Event is a single engagement occurrence. Events are append-only; they
// are never updated or deleted, and they outlive the campaign they refer
// to so historical reporting stays intact.
type Event struct {
	ID           uuid.UUID  `json:"id"`
	CampaignID   uuid.UUID  `json:"campaign_id"`
	EmailSendID  *uuid.UUID `json:"email_send_id,omitempty"`
	SocialPostID *uuid.UUID `json:"social_post_id,omitempty"`
	RecipientID  *uuid.UUID `json:"recipient_id,omitempty"`
	EventType    string     `json:"event_type"`
	LinkURL      string     `json:"link_url,omitempty"`
	IPAddress    string     `json:"ip_address,omitempty"`
	UserAgent    string     `json:"user_agent,omitempty"`
	OccurredAt   time.Time  `json:"occurred_at"`
}
