package tracker

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Columns on email_sends that may be bumped by engagement activity.
var sendCounterColumns = map[string]bool{
	"sent_count":      true,
	"delivered_count": true,
	"open_count":      true,
	"click_count":     true,
	"bounce_count":    true,
}

// Store persists engagement events and bumps the cumulative counters on
// email sends. It carries its own queries against those tables so the
// tracking path stays independent of the delivery engine.
type Store struct {
	db *sql.DB
}

// NewStore creates a tracker store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// InsertEvent appends an engagement event. The caller supplies the
// campaign id.
func (s *Store) InsertEvent(ctx context.Context, e *Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO engagement_events (id, campaign_id, email_send_id, social_post_id, recipient_id, event_type, link_url, ip_address, user_agent, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.CampaignID, e.EmailSendID, e.SocialPostID, e.RecipientID,
		e.EventType, e.LinkURL, e.IPAddress, e.UserAgent, e.OccurredAt)
	if err != nil {
		return fmt.Errorf("failed to insert engagement event: %w", err)
	}
	return nil
}

// InsertSendEvent appends an engagement event for an email send, resolving
// the campaign id from the send row. Inserting for an unknown send is a
// no-op rather than an error; the tracked asset may have been deleted.
func (s *Store) InsertSendEvent(ctx context.Context, e *Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.EmailSendID == nil {
		return fmt.Errorf("send event requires an email send id")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO engagement_events (id, campaign_id, email_send_id, recipient_id, event_type, link_url, ip_address, user_agent, occurred_at)
		SELECT $1, es.campaign_id, es.id, $3, $4, $5, $6, $7, $8
		FROM email_sends es
		WHERE es.id = $2`,
		e.ID, *e.EmailSendID, e.RecipientID,
		e.EventType, e.LinkURL, e.IPAddress, e.UserAgent, e.OccurredAt)
	if err != nil {
		return fmt.Errorf("failed to insert engagement event: %w", err)
	}
	return nil
}

// IncrementSendCounter bumps one of the cumulative engagement counters on
// an email send.
func (s *Store) IncrementSendCounter(ctx context.Context, sendID uuid.UUID, column string, delta int) error {
	if !sendCounterColumns[column] {
		return fmt.Errorf("invalid counter column: %s", column)
	}
	query := fmt.Sprintf(`UPDATE email_sends SET %s = %s + $1, updated_at = NOW() WHERE id = $2`, column, column)
	_, err := s.db.ExecContext(ctx, query, delta, sendID)
	if err != nil {
		return fmt.Errorf("failed to update send counter: %w", err)
	}
	return nil
}
