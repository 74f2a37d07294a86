package campaign

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eventra/campaign-engine/internal/pkg/errs"
	"github.com/eventra/campaign-engine/internal/pkg/logger"
)

var (
	errNegativeAge      = errs.Validationf("segment age bounds must not be negative")
	errInvertedAgeRange = errs.Validationf("segment min age exceeds max age")
)

func errInvalidSegmentStatus(s string) error {
	return errs.Validationf("unknown segment status filter %q", s)
}

// Clock abstracts wall-clock time so lifecycle rules are testable.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the real time.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// statusForDates derives the date-driven status. Paused is never
// produced here: it is only entered through an explicit pause.
func statusForDates(now, start, end time.Time) string {
	if now.After(end) {
		return StatusCompleted
	}
	if !now.Before(start) {
		return StatusActive
	}
	return StatusScheduled
}

// Manager owns campaign status transitions. Status is recomputed only on
// explicit create/update/pause/activate calls, never in the background,
// so a campaign whose end date passes untouched keeps its last status
// until the next operator action.
type Manager struct {
	store *Store
	clock Clock
}

// NewManager creates a campaign lifecycle manager.
func NewManager(store *Store, clock Clock) *Manager {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Manager{store: store, clock: clock}
}

// CreateParams carries the operator-supplied fields for a new campaign.
type CreateParams struct {
	Name    string
	EventID *uuid.UUID
	StartAt time.Time
	EndAt   time.Time
	Budget  decimal.Decimal
	Segment Segment
}

// Create validates and persists a new campaign. A freshly created
// campaign is Active when its window has opened and Scheduled otherwise.
func (m *Manager) Create(ctx context.Context, ownerID uuid.UUID, p CreateParams, c *Campaign) error {
	if strings.TrimSpace(p.Name) == "" {
		return errs.Validationf("campaign name is required")
	}
	if !p.EndAt.After(p.StartAt) {
		return errs.Validationf("campaign end must be after start")
	}
	if err := p.Segment.Validate(); err != nil {
		return err
	}

	now := m.clock.Now()
	c.ID = uuid.New()
	c.OwnerID = ownerID
	c.Name = p.Name
	c.EventID = p.EventID
	c.StartAt = p.StartAt
	c.EndAt = p.EndAt
	c.Budget = p.Budget
	c.Segment = p.Segment
	c.Code = newAttributionCode()
	if now.Before(p.StartAt) {
		c.Status = StatusScheduled
	} else {
		c.Status = StatusActive
	}

	if err := m.store.Create(ctx, c); err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	logger.Info("campaign created", "campaign_id", c.ID, "status", c.Status, "code", c.Code)
	return nil
}

// Update applies field edits and recomputes the date-driven status.
// A paused campaign keeps its fields editable but stays Paused; only an
// explicit activate leaves that state.
func (m *Manager) Update(ctx context.Context, ownerID, id uuid.UUID, p CreateParams) (*Campaign, error) {
	c, err := m.ownedCampaign(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !p.EndAt.After(p.StartAt) {
		return nil, errs.Validationf("campaign end must be after start")
	}
	if err := p.Segment.Validate(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(p.Name) != "" {
		c.Name = p.Name
	}
	c.EventID = p.EventID
	c.StartAt = p.StartAt
	c.EndAt = p.EndAt
	c.Budget = p.Budget
	c.Segment = p.Segment
	if c.Status != StatusPaused {
		c.Status = statusForDates(m.clock.Now(), c.StartAt, c.EndAt)
	}

	if err := m.store.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update campaign: %w", err)
	}
	return c, nil
}

// Pause moves an Active or Scheduled campaign into Paused.
func (m *Manager) Pause(ctx context.Context, ownerID, id uuid.UUID) (*Campaign, error) {
	c, err := m.ownedCampaign(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusActive && c.Status != StatusScheduled {
		return nil, errs.Validationf("cannot pause campaign in status %q", c.Status)
	}
	c.Status = StatusPaused
	if err := m.store.UpdateStatus(ctx, c.ID, StatusPaused); err != nil {
		return nil, fmt.Errorf("pause campaign: %w", err)
	}
	logger.Info("campaign paused", "campaign_id", c.ID)
	return c, nil
}

// Activate leaves Paused and recomputes the date-driven status, which
// may land on Scheduled, Active, or Completed depending on the window.
func (m *Manager) Activate(ctx context.Context, ownerID, id uuid.UUID) (*Campaign, error) {
	c, err := m.ownedCampaign(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusPaused {
		return nil, errs.Validationf("cannot activate campaign in status %q", c.Status)
	}
	c.Status = statusForDates(m.clock.Now(), c.StartAt, c.EndAt)
	if err := m.store.UpdateStatus(ctx, c.ID, c.Status); err != nil {
		return nil, fmt.Errorf("activate campaign: %w", err)
	}
	logger.Info("campaign activated", "campaign_id", c.ID, "status", c.Status)
	return c, nil
}

// Delete removes a campaign together with its email jobs, social posts,
// and daily stats. Engagement events are an append-only audit trail and
// deliberately survive the campaign.
func (m *Manager) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := m.ownedCampaign(ctx, ownerID, id); err != nil {
		return err
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	logger.Info("campaign deleted", "campaign_id", id)
	return nil
}

// Get returns a campaign after checking ownership.
func (m *Manager) Get(ctx context.Context, ownerID, id uuid.UUID) (*Campaign, error) {
	return m.ownedCampaign(ctx, ownerID, id)
}

func (m *Manager) ownedCampaign(ctx context.Context, ownerID, id uuid.UUID) (*Campaign, error) {
	c, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	if c == nil {
		return nil, errs.NotFound("campaign", id.String())
	}
	if c.OwnerID != ownerID {
		return nil, errs.Permissionf("campaign %s does not belong to caller", id)
	}
	return c, nil
}

// newAttributionCode returns a short unique code like "cmp-9f3a21c0"
// used to attribute bookings back to the campaign.
func newAttributionCode() string {
	id := uuid.New().String()
	return "cmp-" + strings.ReplaceAll(id, "-", "")[:8]
}
