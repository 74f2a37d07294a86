package campaign

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Store provides database operations for campaigns
type Store struct {
	db *sql.DB
}

// NewStore creates a new campaign store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const campaignColumns = `id, owner_id, name, event_id, start_at, end_at, budget, code,
	seg_status, seg_interests, seg_locations, seg_min_age, seg_max_age,
	status, created_at, updated_at`

func scanCampaign(row interface{ Scan(...interface{}) error }) (*Campaign, error) {
	c := &Campaign{}
	var interests, locations pq.StringArray
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.EventID, &c.StartAt, &c.EndAt,
		&c.Budget, &c.Code, &c.Segment.Status, &interests, &locations,
		&c.Segment.MinAge, &c.Segment.MaxAge, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Segment.Interests = interests
	c.Segment.Locations = locations
	return c, nil
}

// Create inserts a new campaign
func (s *Store) Create(ctx context.Context, c *Campaign) error {
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()

	query := `INSERT INTO campaigns (id, owner_id, name, event_id, start_at, end_at, budget, code,
		seg_status, seg_interests, seg_locations, seg_min_age, seg_max_age, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := s.db.ExecContext(ctx, query, c.ID, c.OwnerID, c.Name, c.EventID, c.StartAt, c.EndAt,
		c.Budget, c.Code, c.Segment.Status, pq.Array(c.Segment.Interests), pq.Array(c.Segment.Locations),
		c.Segment.MinAge, c.Segment.MaxAge, c.Status, c.CreatedAt, c.UpdatedAt)
	return err
}

// Get retrieves a campaign by ID
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	c, err := scanCampaign(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// List retrieves campaigns owned by an operator, newest first
func (s *Store) List(ctx context.Context, ownerID uuid.UUID, limit int) ([]*Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE owner_id = $1 ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []*Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// ListByStatus retrieves campaigns in any of the given statuses. Used by
// the scheduler to pick which campaigns get a stats recompute.
func (s *Store) ListByStatus(ctx context.Context, statuses ...string) ([]*Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE status = ANY($1) ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(statuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []*Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// Update rewrites the mutable campaign fields
func (s *Store) Update(ctx context.Context, c *Campaign) error {
	c.UpdatedAt = time.Now()

	query := `UPDATE campaigns SET name = $1, event_id = $2, start_at = $3, end_at = $4,
		budget = $5, seg_status = $6, seg_interests = $7, seg_locations = $8,
		seg_min_age = $9, seg_max_age = $10, status = $11, updated_at = $12
		WHERE id = $13`

	_, err := s.db.ExecContext(ctx, query, c.Name, c.EventID, c.StartAt, c.EndAt, c.Budget,
		c.Segment.Status, pq.Array(c.Segment.Interests), pq.Array(c.Segment.Locations),
		c.Segment.MinAge, c.Segment.MaxAge, c.Status, c.UpdatedAt, c.ID)
	return err
}

// UpdateStatus updates only the campaign status
func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE campaigns SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	return err
}

// Delete removes a campaign and cascades to its email jobs, social posts,
// and daily stats inside one transaction. There is no database-level
// cascade; this is the delete operation's own responsibility.
// Engagement events are append-only and intentionally left in place.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM daily_stats WHERE campaign_id = $1`,
		`DELETE FROM social_posts WHERE campaign_id = $1`,
		`DELETE FROM email_sends WHERE campaign_id = $1`,
		`DELETE FROM campaigns WHERE id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("cascade delete: %w", err)
		}
	}
	return tx.Commit()
}
