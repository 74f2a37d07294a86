package email

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Store provides database operations for email sends
type Store struct {
	db *sql.DB
}

// NewStore creates a new email send store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const sendColumns = `id, campaign_id, subject, body_html, from_address,
	seg_status, seg_interests, seg_locations, seg_min_age, seg_max_age,
	provider, tracking_enabled, status, scheduled_at, next_batch_at,
	recipient_count, processed_count,
	sent_count, delivered_count, open_count, click_count, bounce_count,
	error_message, created_at, updated_at`

func scanSend(row interface{ Scan(...interface{}) error }) (*Send, error) {
	s := &Send{}
	var interests, locations pq.StringArray
	err := row.Scan(&s.ID, &s.CampaignID, &s.Subject, &s.BodyHTML, &s.FromAddress,
		&s.Segment.Status, &interests, &locations, &s.Segment.MinAge, &s.Segment.MaxAge,
		&s.Provider, &s.TrackingEnabled, &s.Status, &s.ScheduledAt, &s.NextBatchAt,
		&s.RecipientCount, &s.ProcessedCount,
		&s.SentCount, &s.DeliveredCount, &s.OpenCount, &s.ClickCount, &s.BounceCount,
		&s.ErrorMessage, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Segment.Interests = interests
	s.Segment.Locations = locations
	return s, nil
}

// Create inserts a new email send
func (st *Store) Create(ctx context.Context, s *Send) error {
	s.CreatedAt = time.Now()
	s.UpdatedAt = time.Now()

	query := `INSERT INTO email_sends (id, campaign_id, subject, body_html, from_address,
		seg_status, seg_interests, seg_locations, seg_min_age, seg_max_age,
		provider, tracking_enabled, status, scheduled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := st.db.ExecContext(ctx, query, s.ID, s.CampaignID, s.Subject, s.BodyHTML, s.FromAddress,
		s.Segment.Status, pq.Array(s.Segment.Interests), pq.Array(s.Segment.Locations),
		s.Segment.MinAge, s.Segment.MaxAge, s.Provider, s.TrackingEnabled, s.Status,
		s.ScheduledAt, s.CreatedAt, s.UpdatedAt)
	return err
}

// Get retrieves an email send by ID
func (st *Store) Get(ctx context.Context, id uuid.UUID) (*Send, error) {
	query := `SELECT ` + sendColumns + ` FROM email_sends WHERE id = $1`
	s, err := scanSend(st.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// ListByCampaign retrieves all email sends for a campaign, newest first
func (st *Store) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*Send, error) {
	query := `SELECT ` + sendColumns + ` FROM email_sends WHERE campaign_id = $1 ORDER BY created_at DESC`

	rows, err := st.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sends []*Send
	for rows.Next() {
		s, err := scanSend(rows)
		if err != nil {
			return nil, err
		}
		sends = append(sends, s)
	}
	return sends, rows.Err()
}

// Update rewrites the fields an operator may edit on a draft
func (st *Store) Update(ctx context.Context, s *Send) error {
	s.UpdatedAt = time.Now()

	query := `UPDATE email_sends SET subject = $1, body_html = $2, from_address = $3,
		seg_status = $4, seg_interests = $5, seg_locations = $6, seg_min_age = $7, seg_max_age = $8,
		provider = $9, tracking_enabled = $10, updated_at = $11
		WHERE id = $12`

	_, err := st.db.ExecContext(ctx, query, s.Subject, s.BodyHTML, s.FromAddress,
		s.Segment.Status, pq.Array(s.Segment.Interests), pq.Array(s.Segment.Locations),
		s.Segment.MinAge, s.Segment.MaxAge, s.Provider, s.TrackingEnabled, s.UpdatedAt, s.ID)
	return err
}

// Delete removes an email send
func (st *Store) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := st.db.ExecContext(ctx, `DELETE FROM email_sends WHERE id = $1`, id)
	return err
}

// MarkQueued transitions a draft to queued with its audience size snapshot
func (st *Store) MarkQueued(ctx context.Context, id uuid.UUID, recipientCount int, scheduledAt *time.Time) error {
	_, err := st.db.ExecContext(ctx, `
		UPDATE email_sends
		SET status = $1, recipient_count = $2, scheduled_at = $3, error_message = '', updated_at = NOW()
		WHERE id = $4`,
		StatusQueued, recipientCount, scheduledAt, id)
	return err
}

// ListDue returns the sends the scheduler should process this tick:
// queued sends whose schedule time has arrived, and in-flight sends whose
// next-batch gate has elapsed.
func (st *Store) ListDue(ctx context.Context, now time.Time) ([]*Send, error) {
	query := `SELECT ` + sendColumns + ` FROM email_sends
		WHERE (status = $1 AND (scheduled_at IS NULL OR scheduled_at <= $3))
		   OR (status = $2 AND next_batch_at IS NOT NULL AND next_batch_at <= $3)
		ORDER BY created_at`

	rows, err := st.db.QueryContext(ctx, query, StatusQueued, StatusSending, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sends []*Send
	for rows.Next() {
		s, err := scanSend(rows)
		if err != nil {
			return nil, err
		}
		sends = append(sends, s)
	}
	return sends, rows.Err()
}

// Claim atomically moves a due send into sending and clears its gate. The
// conditional update is what keeps two overlapping ticks from dispatching
// the same batch twice; only one claim can win.
func (st *Store) Claim(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	res, err := st.db.ExecContext(ctx, `
		UPDATE email_sends
		SET status = $1, next_batch_at = NULL, updated_at = NOW()
		WHERE id = $2
		  AND (status = $3 OR (status = $1 AND next_batch_at IS NOT NULL AND next_batch_at <= $4))`,
		StatusSending, id, StatusQueued, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ApplyBatch folds one dispatched batch into the send: counters are
// cumulative additions, never overwrites. nextBatchAt is nil when the
// send is complete, otherwise the gate for the following batch.
func (st *Store) ApplyBatch(ctx context.Context, id uuid.UUID, processed, sent, delivered, bounced int, status string, nextBatchAt *time.Time) error {
	_, err := st.db.ExecContext(ctx, `
		UPDATE email_sends
		SET processed_count = processed_count + $1,
		    sent_count = sent_count + $2,
		    delivered_count = delivered_count + $3,
		    bounce_count = bounce_count + $4,
		    status = $5,
		    next_batch_at = $6,
		    updated_at = NOW()
		WHERE id = $7`,
		processed, sent, delivered, bounced, status, nextBatchAt, id)
	return err
}

// MarkFailed records a provider failure. Partial progress stays in place.
func (st *Store) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	_, err := st.db.ExecContext(ctx, `
		UPDATE email_sends
		SET status = $1, error_message = $2, next_batch_at = NULL, updated_at = NOW()
		WHERE id = $3`,
		StatusFailed, message, id)
	return err
}

// Requeue puts a stuck or failed send back in the queue. Counters and
// processed progress are kept so dispatch resumes where it stopped.
func (st *Store) Requeue(ctx context.Context, id uuid.UUID) error {
	_, err := st.db.ExecContext(ctx, `
		UPDATE email_sends
		SET status = $1, next_batch_at = NULL, error_message = '', updated_at = NOW()
		WHERE id = $2 AND status IN ($3, $4)`,
		StatusQueued, id, StatusSending, StatusFailed)
	return err
}

// EmailTotals sums the cumulative counters across a campaign's sends.
func (st *Store) EmailTotals(ctx context.Context, campaignID uuid.UUID) (sent, delivered, opens, clicks, bounces int, err error) {
	err = st.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(sent_count), 0), COALESCE(SUM(delivered_count), 0),
		       COALESCE(SUM(open_count), 0), COALESCE(SUM(click_count), 0),
		       COALESCE(SUM(bounce_count), 0)
		FROM email_sends
		WHERE campaign_id = $1`, campaignID).
		Scan(&sent, &delivered, &opens, &clicks, &bounces)
	return
}
