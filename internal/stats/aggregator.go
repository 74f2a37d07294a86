package stats

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eventra/campaign-engine/internal/campaign"
	"github.com/eventra/campaign-engine/internal/pkg/logger"
)

// StatsStore is the persistence surface the aggregator writes to.
type StatsStore interface {
	Upsert(ctx context.Context, d *DailyStats) error
	SocialTotals(ctx context.Context, campaignID uuid.UUID) (impressions, clicks, engagements int, err error)
}

// EmailTotalsSource sums the cumulative email counters for a campaign.
// *email.Store implements it.
type EmailTotalsSource interface {
	EmailTotals(ctx context.Context, campaignID uuid.UUID) (sent, delivered, opens, clicks, bounces int, err error)
}

// BookingSource is the booking collaborator, consulted only for
// conversion and revenue counts keyed by a campaign's attribution code.
type BookingSource interface {
	CountConversions(ctx context.Context, code string, from, to time.Time) (int, error)
	SumRevenue(ctx context.Context, code string, from, to time.Time) (decimal.Decimal, error)
}

// CampaignSource lists the campaigns due a recompute.
type CampaignSource interface {
	ListByStatus(ctx context.Context, statuses ...string) ([]*campaign.Campaign, error)
}

// Aggregator recomputes daily snapshots. Recomputation reads the current
// cumulative counters and the day's bookings from scratch every time; no
// state from a prior run is consulted, which is what makes reruns safe.
type Aggregator struct {
	stats     StatsStore
	email     EmailTotalsSource
	bookings  BookingSource
	campaigns CampaignSource
	clock     campaign.Clock
}

// NewAggregator creates a stats aggregator.
func NewAggregator(stats StatsStore, email EmailTotalsSource, bookings BookingSource, campaigns CampaignSource, clock campaign.Clock) *Aggregator {
	if clock == nil {
		clock = campaign.SystemClock{}
	}
	return &Aggregator{
		stats:     stats,
		email:     email,
		bookings:  bookings,
		campaigns: campaigns,
		clock:     clock,
	}
}

// Recompute rebuilds one campaign's snapshot for the calendar day
// containing `day` (UTC). Reach is email delivered plus social
// impressions; conversions and revenue come from bookings carrying the
// campaign's attribution code inside that day.
func (a *Aggregator) Recompute(ctx context.Context, c *campaign.Campaign, day time.Time) (*DailyStats, error) {
	day = day.UTC()
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	sent, delivered, opens, clicks, bounces, err := a.email.EmailTotals(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	impressions, socialClicks, engagements, err := a.stats.SocialTotals(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	conversions, err := a.bookings.CountConversions(ctx, c.Code, from, to)
	if err != nil {
		return nil, err
	}
	revenue, err := a.bookings.SumRevenue(ctx, c.Code, from, to)
	if err != nil {
		return nil, err
	}

	d := &DailyStats{
		CampaignID:        c.ID,
		StatDate:          from.Format(DateFormat),
		Reach:             delivered + impressions,
		Conversions:       conversions,
		Revenue:           revenue,
		EmailSent:         sent,
		EmailDelivered:    delivered,
		EmailOpens:        opens,
		EmailClicks:       clicks,
		EmailBounces:      bounces,
		SocialImpressions: impressions,
		SocialClicks:      socialClicks,
		SocialEngagements: engagements,
	}

	if err := a.stats.Upsert(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// RecomputeAll rebuilds today's snapshot for every active and completed
// campaign. A failure on one campaign is logged and skipped; the next
// scheduled recompute self-heals since the computation is stateless.
func (a *Aggregator) RecomputeAll(ctx context.Context) {
	campaigns, err := a.campaigns.ListByStatus(ctx, campaign.StatusActive, campaign.StatusCompleted)
	if err != nil {
		logger.Error("failed to list campaigns for stats recompute", "error", err.Error())
		return
	}

	now := a.clock.Now()
	for _, c := range campaigns {
		if _, err := a.Recompute(ctx, c, now); err != nil {
			logger.Error("stats recompute failed",
				"campaign_id", c.ID.String(),
				"error", err.Error())
		}
	}
}
