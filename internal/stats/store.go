package stats

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Store provides database operations for daily stats
type Store struct {
	db *sql.DB
}

// NewStore creates a new stats store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const statsColumns = `id, campaign_id, stat_date, reach, conversions, revenue,
	email_sent, email_delivered, email_opens, email_clicks, email_bounces,
	social_impressions, social_clicks, social_engagements, updated_at`

func scanStats(row interface{ Scan(...interface{}) error }) (*DailyStats, error) {
	d := &DailyStats{}
	var statDate time.Time
	err := row.Scan(&d.ID, &d.CampaignID, &statDate, &d.Reach, &d.Conversions, &d.Revenue,
		&d.EmailSent, &d.EmailDelivered, &d.EmailOpens, &d.EmailClicks, &d.EmailBounces,
		&d.SocialImpressions, &d.SocialClicks, &d.SocialEngagements, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.StatDate = statDate.Format(DateFormat)
	return d, nil
}

// Upsert writes a daily snapshot. The unique index on
// (campaign_id, stat_date) plus ON CONFLICT makes this idempotent and
// safe to run concurrently for the same key; last writer wins on the
// recomputed values and no second row can appear.
func (s *Store) Upsert(ctx context.Context, d *DailyStats) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.UpdatedAt = time.Now()

	query := `INSERT INTO daily_stats (id, campaign_id, stat_date, reach, conversions, revenue,
		email_sent, email_delivered, email_opens, email_clicks, email_bounces,
		social_impressions, social_clicks, social_engagements, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (campaign_id, stat_date) DO UPDATE SET
			reach = EXCLUDED.reach,
			conversions = EXCLUDED.conversions,
			revenue = EXCLUDED.revenue,
			email_sent = EXCLUDED.email_sent,
			email_delivered = EXCLUDED.email_delivered,
			email_opens = EXCLUDED.email_opens,
			email_clicks = EXCLUDED.email_clicks,
			email_bounces = EXCLUDED.email_bounces,
			social_impressions = EXCLUDED.social_impressions,
			social_clicks = EXCLUDED.social_clicks,
			social_engagements = EXCLUDED.social_engagements,
			updated_at = EXCLUDED.updated_at`

	_, err := s.db.ExecContext(ctx, query, d.ID, d.CampaignID, d.StatDate,
		d.Reach, d.Conversions, d.Revenue,
		d.EmailSent, d.EmailDelivered, d.EmailOpens, d.EmailClicks, d.EmailBounces,
		d.SocialImpressions, d.SocialClicks, d.SocialEngagements, d.UpdatedAt)
	return err
}

// Get retrieves one day's snapshot for a campaign
func (s *Store) Get(ctx context.Context, campaignID uuid.UUID, date string) (*DailyStats, error) {
	query := `SELECT ` + statsColumns + ` FROM daily_stats WHERE campaign_id = $1 AND stat_date = $2`
	d, err := scanStats(s.db.QueryRowContext(ctx, query, campaignID, date))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

// ListRange retrieves a campaign's snapshots for [from, to], oldest first
func (s *Store) ListRange(ctx context.Context, campaignID uuid.UUID, from, to string) ([]*DailyStats, error) {
	query := `SELECT ` + statsColumns + ` FROM daily_stats
		WHERE campaign_id = $1 AND stat_date >= $2 AND stat_date <= $3
		ORDER BY stat_date`

	rows, err := s.db.QueryContext(ctx, query, campaignID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []*DailyStats
	for rows.Next() {
		d, err := scanStats(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, d)
	}
	return all, rows.Err()
}

// SocialTotals sums the snapshot counters across a campaign's posted
// posts. Engagements fold likes, shares, and comments together.
func (s *Store) SocialTotals(ctx context.Context, campaignID uuid.UUID) (impressions, clicks, engagements int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(impressions), 0), COALESCE(SUM(clicks), 0),
		       COALESCE(SUM(likes + shares + comments), 0)
		FROM social_posts
		WHERE campaign_id = $1 AND status = 'posted'`, campaignID).
		Scan(&impressions, &clicks, &engagements)
	return
}
