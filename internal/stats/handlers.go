package stats

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eventra/campaign-engine/internal/campaign"
	"github.com/eventra/campaign-engine/internal/pkg/errs"
	"github.com/eventra/campaign-engine/internal/pkg/httputil"
)

// CampaignGetter looks up campaigns for ownership checks.
type CampaignGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error)
}

// Handlers provides the reporting endpoints.
type Handlers struct {
	store      *Store
	aggregator *Aggregator
	campaigns  CampaignGetter
}

// NewHandlers creates stats handlers.
func NewHandlers(store *Store, aggregator *Aggregator, campaigns CampaignGetter) *Handlers {
	return &Handlers{store: store, aggregator: aggregator, campaigns: campaigns}
}

// Routes mounts the stats endpoints on a router.
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/campaigns/{campaignId}/stats", h.HandleDaily)
	r.Get("/campaigns/{campaignId}/stats/summary", h.HandleSummary)
	r.Post("/campaigns/{campaignId}/stats/recompute", h.HandleRecompute)
}

func (h *Handlers) ownedCampaign(r *http.Request) (*campaign.Campaign, error) {
	id, err := uuid.Parse(chi.URLParam(r, "campaignId"))
	if err != nil {
		return nil, errs.Validationf("invalid campaign ID")
	}
	ownerID, _ := uuid.Parse(r.Header.Get("X-Operator-ID"))

	c, err := h.campaigns.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errs.NotFound("campaign", id.String())
	}
	if c.OwnerID != ownerID {
		return nil, errs.Permissionf("campaign %s is not owned by caller", id)
	}
	return c, nil
}

// HandleDaily returns the day-by-day snapshots for a date range,
// defaulting to the last 30 days.
func (h *Handlers) HandleDaily(w http.ResponseWriter, r *http.Request) {
	c, err := h.ownedCampaign(r)
	if err != nil {
		httputil.FromError(w, err)
		return
	}

	to := time.Now().UTC().Format(DateFormat)
	from := time.Now().UTC().AddDate(0, 0, -30).Format(DateFormat)
	if v := r.URL.Query().Get("from"); v != "" {
		from = v
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to = v
	}

	daily, err := h.store.ListRange(r.Context(), c.ID, from, to)
	if err != nil {
		httputil.FromError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"campaign_id": c.ID,
		"from":        from,
		"to":          to,
		"daily":       daily,
	})
}

// HandleSummary folds a campaign's daily rows into one aggregate view.
func (h *Handlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	c, err := h.ownedCampaign(r)
	if err != nil {
		httputil.FromError(w, err)
		return
	}

	daily, err := h.store.ListRange(r.Context(), c.ID,
		c.StartAt.UTC().Format(DateFormat), time.Now().UTC().Format(DateFormat))
	if err != nil {
		httputil.FromError(w, err)
		return
	}

	summary := struct {
		CampaignID  uuid.UUID       `json:"campaign_id"`
		Days        int             `json:"days"`
		Conversions int             `json:"conversions"`
		Revenue     decimal.Decimal `json:"revenue"`
		Latest      *DailyStats     `json:"latest,omitempty"`
	}{CampaignID: c.ID, Revenue: decimal.Zero}

	// Conversions and revenue are per-day figures and sum across days;
	// the counter-derived fields are cumulative already, so the latest
	// row carries them.
	for _, d := range daily {
		summary.Conversions += d.Conversions
		summary.Revenue = summary.Revenue.Add(d.Revenue)
	}
	summary.Days = len(daily)
	if len(daily) > 0 {
		summary.Latest = daily[len(daily)-1]
	}

	httputil.OK(w, summary)
}

// HandleRecompute forces a recompute of today's snapshot.
func (h *Handlers) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	c, err := h.ownedCampaign(r)
	if err != nil {
		httputil.FromError(w, err)
		return
	}

	d, err := h.aggregator.Recompute(r.Context(), c, time.Now().UTC())
	if err != nil {
		httputil.FromError(w, err)
		return
	}
	httputil.OK(w, d)
}
