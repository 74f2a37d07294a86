package directory

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventra/campaign-engine/internal/campaign"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func recipientRows(n int) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "email"})
	for i := 0; i < n; i++ {
		rows.AddRow(uuid.New(), "user@example.com")
	}
	return rows
}

func TestResolveRecipientsEmptySegment(t *testing.T) {
	store, mock := newMockStore(t)

	// No filters beyond the active-user guard, ordered for stable batching.
	mock.ExpectQuery(`SELECT u\.id, u\.email\s+FROM users u\s+WHERE u\.status = 'active'\s+ORDER BY u\.id`).
		WillReturnRows(recipientRows(3))

	recipients, err := store.ResolveRecipients(context.Background(), campaign.Segment{})
	require.NoError(t, err)
	assert.Len(t, recipients, 3)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveRecipientsNotChecked(t *testing.T) {
	store, mock := newMockStore(t)

	// not_checked is a set difference: any booking, minus any checked-in
	// booking. Users with no bookings at all must not match.
	mock.ExpectQuery(`EXISTS \(SELECT 1 FROM bookings b WHERE b\.user_id = u\.id\)\s+AND NOT EXISTS \(SELECT 1 FROM bookings b WHERE b\.user_id = u\.id AND b\.checked_in\)`).
		WillReturnRows(recipientRows(2))

	recipients, err := store.ResolveRecipients(context.Background(), campaign.Segment{Status: campaign.SegmentNotChecked})
	require.NoError(t, err)
	assert.Len(t, recipients, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveRecipientsConjunctiveFilters(t *testing.T) {
	store, mock := newMockStore(t)

	seg := campaign.Segment{
		Status:    campaign.SegmentChecked,
		Interests: []string{"music", "food"},
		Locations: []string{"Berlin", "Hamburg"},
		MinAge:    21,
		MaxAge:    45,
	}

	mock.ExpectQuery(`u\.interests && \$1.+u\.city = ANY\(\$2\).+u\.age >= \$3.+u\.age <= \$4.+b\.checked_in`).
		WillReturnRows(recipientRows(1))

	recipients, err := store.ResolveRecipients(context.Background(), seg)
	require.NoError(t, err)
	assert.Len(t, recipients, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountConversions(t *testing.T) {
	store, mock := newMockStore(t)
	from := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	mock.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM bookings\s+WHERE promo_code = \$1`).
		WithArgs("cmp-ab12cd34", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := store.CountConversions(context.Background(), "cmp-ab12cd34", from, to)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSumRevenue(t *testing.T) {
	store, mock := newMockStore(t)
	from := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount_paid\), 0\)`).
		WithArgs("cmp-ab12cd34", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("7500.00"))

	revenue, err := store.SumRevenue(context.Background(), "cmp-ab12cd34", from, to)
	require.NoError(t, err)
	assert.Equal(t, "7500", revenue.String())
}
