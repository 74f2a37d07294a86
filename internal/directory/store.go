package directory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/eventra/campaign-engine/internal/campaign"
)

// Recipient is an attendee resolved from the platform user directory.
type Recipient struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// Store reads the platform's user and booking tables. Campaigns never
// write to these tables; they are owned by the booking service.
type Store struct {
	db *sql.DB
}

// NewStore creates a directory store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ResolveRecipients returns the users matched by a segment, ordered by id
// so that repeated resolutions paginate consistently. All segment filters
// are conjunctive; an empty segment matches every active user.
func (s *Store) ResolveRecipients(ctx context.Context, seg campaign.Segment) ([]Recipient, error) {
	var (
		conds []string
		args  []interface{}
	)

	conds = append(conds, "u.status = 'active'")

	if len(seg.Interests) > 0 {
		args = append(args, pq.Array(seg.Interests))
		conds = append(conds, fmt.Sprintf("u.interests && $%d", len(args)))
	}
	if len(seg.Locations) > 0 {
		args = append(args, pq.Array(seg.Locations))
		conds = append(conds, fmt.Sprintf("u.city = ANY($%d)", len(args)))
	}
	if seg.MinAge > 0 {
		args = append(args, seg.MinAge)
		conds = append(conds, fmt.Sprintf("u.age >= $%d", len(args)))
	}
	if seg.MaxAge > 0 {
		args = append(args, seg.MaxAge)
		conds = append(conds, fmt.Sprintf("u.age <= $%d", len(args)))
	}

	switch seg.Status {
	case campaign.SegmentChecked:
		conds = append(conds, "EXISTS (SELECT 1 FROM bookings b WHERE b.user_id = u.id AND b.checked_in)")
	case campaign.SegmentNotChecked:
		conds = append(conds, "EXISTS (SELECT 1 FROM bookings b WHERE b.user_id = u.id)")
		conds = append(conds, "NOT EXISTS (SELECT 1 FROM bookings b WHERE b.user_id = u.id AND b.checked_in)")
	}

	query := fmt.Sprintf(`
		SELECT u.id, u.email
		FROM users u
		WHERE %s
		ORDER BY u.id`, strings.Join(conds, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipients: %w", err)
	}
	defer rows.Close()

	var recipients []Recipient
	for rows.Next() {
		var rec Recipient
		if err := rows.Scan(&rec.ID, &rec.Email); err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

// CountConversions counts bookings made with a campaign's attribution code
// inside [from, to).
func (s *Store) CountConversions(ctx context.Context, code string, from, to time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM bookings
		WHERE promo_code = $1 AND created_at >= $2 AND created_at < $3`,
		code, from, to).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count conversions: %w", err)
	}
	return count, nil
}

// SumRevenue totals the amount paid on bookings attributed to a campaign's
// code inside [from, to).
func (s *Store) SumRevenue(ctx context.Context, code string, from, to time.Time) (decimal.Decimal, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_paid), 0)
		FROM bookings
		WHERE promo_code = $1 AND created_at >= $2 AND created_at < $3`,
		code, from, to).Scan(&raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum revenue: %w", err)
	}
	revenue, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse revenue: %w", err)
	}
	return revenue, nil
}
