package social

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Store provides database operations for social posts
type Store struct {
	db *sql.DB
}

// NewStore creates a new social post store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const postColumns = `id, campaign_id, platform, content, link_url, image_url,
	scheduled_at, status, external_id,
	impressions, clicks, likes, shares, comments,
	error_message, created_at, updated_at`

func scanPost(row interface{ Scan(...interface{}) error }) (*Post, error) {
	p := &Post{}
	err := row.Scan(&p.ID, &p.CampaignID, &p.Platform, &p.Content, &p.LinkURL, &p.ImageURL,
		&p.ScheduledAt, &p.Status, &p.ExternalID,
		&p.Impressions, &p.Clicks, &p.Likes, &p.Shares, &p.Comments,
		&p.ErrorMessage, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a new social post
func (s *Store) Create(ctx context.Context, p *Post) error {
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()

	query := `INSERT INTO social_posts (id, campaign_id, platform, content, link_url, image_url,
		scheduled_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.db.ExecContext(ctx, query, p.ID, p.CampaignID, p.Platform, p.Content,
		p.LinkURL, p.ImageURL, p.ScheduledAt, p.Status, p.CreatedAt, p.UpdatedAt)
	return err
}

// Get retrieves a social post by ID
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Post, error) {
	query := `SELECT ` + postColumns + ` FROM social_posts WHERE id = $1`
	p, err := scanPost(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// ListByCampaign retrieves all posts for a campaign, newest first
func (s *Store) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*Post, error) {
	query := `SELECT ` + postColumns + ` FROM social_posts WHERE campaign_id = $1 ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// Update rewrites the fields an operator may edit on a draft
func (s *Store) Update(ctx context.Context, p *Post) error {
	p.UpdatedAt = time.Now()

	query := `UPDATE social_posts SET platform = $1, content = $2, link_url = $3,
		image_url = $4, updated_at = $5 WHERE id = $6`

	_, err := s.db.ExecContext(ctx, query, p.Platform, p.Content, p.LinkURL,
		p.ImageURL, p.UpdatedAt, p.ID)
	return err
}

// Delete removes a social post
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM social_posts WHERE id = $1`, id)
	return err
}

// MarkQueued transitions a draft to queued for the given publish time
func (s *Store) MarkQueued(ctx context.Context, id uuid.UUID, scheduledAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE social_posts
		SET status = $1, scheduled_at = $2, error_message = '', updated_at = NOW()
		WHERE id = $3`,
		StatusQueued, scheduledAt, id)
	return err
}

// ListDue returns queued posts whose publish time has arrived
func (s *Store) ListDue(ctx context.Context, now time.Time) ([]*Post, error) {
	query := `SELECT ` + postColumns + ` FROM social_posts
		WHERE status = $1 AND scheduled_at IS NOT NULL AND scheduled_at <= $2
		ORDER BY scheduled_at`

	rows, err := s.db.QueryContext(ctx, query, StatusQueued, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// MarkPosted stores the publish outcome. Conditional on the post still
// being queued so a duplicate dispatch cannot overwrite the first result.
func (s *Store) MarkPosted(ctx context.Context, id uuid.UUID, externalID string, impressions, clicks, likes, shares, comments int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE social_posts
		SET status = $1, external_id = $2,
		    impressions = $3, clicks = $4, likes = $5, shares = $6, comments = $7,
		    updated_at = NOW()
		WHERE id = $8 AND status = $9`,
		StatusPosted, externalID, impressions, clicks, likes, shares, comments, id, StatusQueued)
	return err
}

// MarkFailed records a publish failure
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE social_posts
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4`,
		StatusFailed, message, id, StatusQueued)
	return err
}
