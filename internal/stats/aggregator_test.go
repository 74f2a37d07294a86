package stats

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventra/campaign-engine/internal/campaign"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type statsKey struct {
	campaignID uuid.UUID
	statDate   string
}

type fakeStatsStore struct {
	rows        map[statsKey]*DailyStats
	upserts     int
	impressions int
	clicks      int
	engagements int
}

func newFakeStatsStore() *fakeStatsStore {
	return &fakeStatsStore{rows: make(map[statsKey]*DailyStats)}
}

func (f *fakeStatsStore) Upsert(_ context.Context, d *DailyStats) error {
	f.upserts++
	copied := *d
	f.rows[statsKey{d.CampaignID, d.StatDate}] = &copied
	return nil
}

func (f *fakeStatsStore) SocialTotals(context.Context, uuid.UUID) (int, int, int, error) {
	return f.impressions, f.clicks, f.engagements, nil
}

type fakeEmailTotals struct {
	sent, delivered, opens, clicks, bounces int
	err                                     error
}

func (f *fakeEmailTotals) EmailTotals(context.Context, uuid.UUID) (int, int, int, int, int, error) {
	return f.sent, f.delivered, f.opens, f.clicks, f.bounces, f.err
}

type booking struct {
	code    string
	amount  decimal.Decimal
	created time.Time
}

type fakeBookings struct {
	bookings []booking
}

func (f *fakeBookings) CountConversions(_ context.Context, code string, from, to time.Time) (int, error) {
	n := 0
	for _, b := range f.bookings {
		if b.code == code && !b.created.Before(from) && b.created.Before(to) {
			n++
		}
	}
	return n, nil
}

func (f *fakeBookings) SumRevenue(_ context.Context, code string, from, to time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, b := range f.bookings {
		if b.code == code && !b.created.Before(from) && b.created.Before(to) {
			sum = sum.Add(b.amount)
		}
	}
	return sum, nil
}

type fakeCampaignSource struct {
	campaigns []*campaign.Campaign
}

func (f *fakeCampaignSource) ListByStatus(_ context.Context, statuses ...string) ([]*campaign.Campaign, error) {
	var out []*campaign.Campaign
	for _, c := range f.campaigns {
		for _, s := range statuses {
			if c.Status == s {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func TestRecompute(t *testing.T) {
	day := time.Date(2026, 6, 10, 15, 30, 0, 0, time.UTC)
	c := &campaign.Campaign{
		ID:     uuid.New(),
		Name:   "Summer Fest",
		Code:   "cmp-ab12cd34",
		Status: campaign.StatusActive,
	}

	store := newFakeStatsStore()
	store.impressions = 800
	store.clicks = 40
	store.engagements = 32

	email := &fakeEmailTotals{sent: 120, delivered: 115, opens: 60, clicks: 18, bounces: 5}
	bookings := &fakeBookings{bookings: []booking{
		{code: "cmp-ab12cd34", amount: decimal.NewFromInt(2500), created: day},
		{code: "cmp-ab12cd34", amount: decimal.NewFromInt(2500), created: day.Add(2 * time.Hour)},
		{code: "cmp-ab12cd34", amount: decimal.NewFromInt(2500), created: day.Add(-15 * time.Hour)},
		// Outside the day window, and a foreign code: both excluded.
		{code: "cmp-ab12cd34", amount: decimal.NewFromInt(900), created: day.Add(24 * time.Hour)},
		{code: "cmp-other", amount: decimal.NewFromInt(900), created: day},
	}}

	agg := NewAggregator(store, email, bookings, &fakeCampaignSource{}, fixedClock{day})
	d, err := agg.Recompute(context.Background(), c, day)
	require.NoError(t, err)

	assert.Equal(t, "2026-06-10", d.StatDate)
	assert.Equal(t, 915, d.Reach)
	assert.Equal(t, 3, d.Conversions)
	assert.True(t, d.Revenue.Equal(decimal.NewFromInt(7500)), "revenue = %s", d.Revenue)
	assert.Equal(t, 120, d.EmailSent)
	assert.Equal(t, 115, d.EmailDelivered)
	assert.Equal(t, 60, d.EmailOpens)
	assert.Equal(t, 18, d.EmailClicks)
	assert.Equal(t, 5, d.EmailBounces)
	assert.Equal(t, 800, d.SocialImpressions)
	assert.Equal(t, 40, d.SocialClicks)
	assert.Equal(t, 32, d.SocialEngagements)
}

func TestRecomputeIdempotent(t *testing.T) {
	day := time.Date(2026, 6, 10, 8, 0, 0, 0, time.UTC)
	c := &campaign.Campaign{ID: uuid.New(), Code: "cmp-ab12cd34", Status: campaign.StatusActive}

	store := newFakeStatsStore()
	email := &fakeEmailTotals{sent: 50, delivered: 48}
	agg := NewAggregator(store, email, &fakeBookings{}, &fakeCampaignSource{}, fixedClock{day})

	first, err := agg.Recompute(context.Background(), c, day)
	require.NoError(t, err)
	second, err := agg.Recompute(context.Background(), c, day.Add(10*time.Hour))
	require.NoError(t, err)

	// Both runs land on the same keyed row with identical content.
	assert.Equal(t, 2, store.upserts)
	assert.Len(t, store.rows, 1)
	assert.Equal(t, first.StatDate, second.StatDate)
	assert.Equal(t, first.Reach, second.Reach)
	assert.Equal(t, first.Conversions, second.Conversions)
}

func TestRecomputeAllSkipsFailures(t *testing.T) {
	day := time.Date(2026, 6, 10, 8, 0, 0, 0, time.UTC)
	healthy := &campaign.Campaign{ID: uuid.New(), Code: "cmp-aaaa0001", Status: campaign.StatusActive}
	done := &campaign.Campaign{ID: uuid.New(), Code: "cmp-aaaa0002", Status: campaign.StatusCompleted}
	paused := &campaign.Campaign{ID: uuid.New(), Code: "cmp-aaaa0003", Status: campaign.StatusPaused}

	store := newFakeStatsStore()
	email := &fakeEmailTotals{sent: 10, delivered: 10}
	agg := NewAggregator(store, email, &fakeBookings{}, &fakeCampaignSource{
		campaigns: []*campaign.Campaign{healthy, done, paused},
	}, fixedClock{day})

	agg.RecomputeAll(context.Background())

	// Active and completed campaigns get a row; paused ones do not.
	assert.Len(t, store.rows, 2)
	_, ok := store.rows[statsKey{paused.ID, "2026-06-10"}]
	assert.False(t, ok)
}

func TestRecomputeAllIsolatesErrors(t *testing.T) {
	day := time.Date(2026, 6, 10, 8, 0, 0, 0, time.UTC)
	broken := &campaign.Campaign{ID: uuid.New(), Code: "cmp-aaaa0001", Status: campaign.StatusActive}
	healthy := &campaign.Campaign{ID: uuid.New(), Code: "cmp-aaaa0002", Status: campaign.StatusActive}

	store := newFakeStatsStore()
	email := &failingEmailTotals{failFor: broken.ID, inner: &fakeEmailTotals{sent: 10, delivered: 10}}
	agg := NewAggregator(store, email, &fakeBookings{}, &fakeCampaignSource{
		campaigns: []*campaign.Campaign{broken, healthy},
	}, fixedClock{day})

	agg.RecomputeAll(context.Background())

	assert.Len(t, store.rows, 1)
	_, ok := store.rows[statsKey{healthy.ID, "2026-06-10"}]
	assert.True(t, ok)
}

type failingEmailTotals struct {
	failFor uuid.UUID
	inner   *fakeEmailTotals
}

func (f *failingEmailTotals) EmailTotals(ctx context.Context, campaignID uuid.UUID) (int, int, int, int, int, error) {
	if campaignID == f.failFor {
		return 0, 0, 0, 0, 0, fmt.Errorf("query timeout")
	}
	return f.inner.EmailTotals(ctx, campaignID)
}
