package email

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/eventra/campaign-engine/internal/campaign"
	"github.com/eventra/campaign-engine/internal/directory"
	"github.com/eventra/campaign-engine/internal/pkg/errs"
	"github.com/eventra/campaign-engine/internal/pkg/logger"
	"github.com/eventra/campaign-engine/internal/provider"
	"github.com/eventra/campaign-engine/internal/tracker"
)

// SendStore is the persistence surface the engine needs. *Store
// implements it; tests substitute an in-memory fake.
type SendStore interface {
	Create(ctx context.Context, s *Send) error
	Get(ctx context.Context, id uuid.UUID) (*Send, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*Send, error)
	Update(ctx context.Context, s *Send) error
	Delete(ctx context.Context, id uuid.UUID) error
	MarkQueued(ctx context.Context, id uuid.UUID, recipientCount int, scheduledAt *time.Time) error
	Claim(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	ApplyBatch(ctx context.Context, id uuid.UUID, processed, sent, delivered, bounced int, status string, nextBatchAt *time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
	Requeue(ctx context.Context, id uuid.UUID) error
}

// CampaignStore looks up parent campaigns.
type CampaignStore interface {
	Get(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error)
}

// RecipientResolver resolves a segment into concrete recipients.
type RecipientResolver interface {
	ResolveRecipients(ctx context.Context, seg campaign.Segment) ([]directory.Recipient, error)
}

// EventRecorder appends engagement events.
type EventRecorder interface {
	InsertEvent(ctx context.Context, e *tracker.Event) error
}

// ProviderSource resolves an email provider by name.
type ProviderSource interface {
	Email(name string) (provider.EmailProvider, error)
}

// Engine owns the email send lifecycle: draft CRUD, queueing, and the
// batched dispatch the scheduler drives.
type Engine struct {
	sends      SendStore
	campaigns  CampaignStore
	directory  RecipientResolver
	providers  ProviderSource
	events     EventRecorder
	clock      campaign.Clock
	batchSize  int
	batchDelay time.Duration
}

// NewEngine creates an email delivery engine.
func NewEngine(sends SendStore, campaigns CampaignStore, dir RecipientResolver, providers ProviderSource, events EventRecorder, clock campaign.Clock, batchSize int, batchDelay time.Duration) *Engine {
	if clock == nil {
		clock = campaign.SystemClock{}
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	if batchDelay <= 0 {
		batchDelay = 5 * time.Minute
	}
	return &Engine{
		sends:      sends,
		campaigns:  campaigns,
		directory:  dir,
		providers:  providers,
		events:     events,
		clock:      clock,
		batchSize:  batchSize,
		batchDelay: batchDelay,
	}
}

// DraftParams carries the operator-editable fields of an email send.
type DraftParams struct {
	Subject         string           `json:"subject"`
	BodyHTML        string           `json:"body_html"`
	FromAddress     string           `json:"from_address"`
	Segment         campaign.Segment `json:"segment"`
	Provider        string           `json:"provider"`
	TrackingEnabled bool             `json:"tracking_enabled"`
}

func (e *Engine) validateDraft(p DraftParams) error {
	if p.Subject == "" {
		return errs.Validationf("subject is required")
	}
	if p.FromAddress == "" {
		return errs.Validationf("from address is required")
	}
	if err := p.Segment.Validate(); err != nil {
		return err
	}
	if _, err := e.providers.Email(p.Provider); err != nil {
		return err
	}
	return nil
}

// CreateDraft creates a new draft send under a campaign the caller owns.
// The segment is copied onto the send; later campaign edits do not
// change it.
func (e *Engine) CreateDraft(ctx context.Context, ownerID, campaignID uuid.UUID, p DraftParams) (*Send, error) {
	if _, err := e.ownedCampaign(ctx, ownerID, campaignID); err != nil {
		return nil, err
	}
	if err := e.validateDraft(p); err != nil {
		return nil, err
	}

	s := &Send{
		ID:              uuid.New(),
		CampaignID:      campaignID,
		Subject:         p.Subject,
		BodyHTML:        p.BodyHTML,
		FromAddress:     p.FromAddress,
		Segment:         p.Segment,
		Provider:        p.Provider,
		TrackingEnabled: p.TrackingEnabled,
		Status:          StatusDraft,
	}
	if err := e.sends.Create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Update edits a draft send. Anything past Draft is immutable to the
// operator.
func (e *Engine) Update(ctx context.Context, ownerID, sendID uuid.UUID, p DraftParams) (*Send, error) {
	s, err := e.ownedSend(ctx, ownerID, sendID)
	if err != nil {
		return nil, err
	}
	if !s.Editable() {
		return nil, errs.Validationf("only draft email sends can be edited")
	}
	if err := e.validateDraft(p); err != nil {
		return nil, err
	}

	s.Subject = p.Subject
	s.BodyHTML = p.BodyHTML
	s.FromAddress = p.FromAddress
	s.Segment = p.Segment
	s.Provider = p.Provider
	s.TrackingEnabled = p.TrackingEnabled
	if err := e.sends.Update(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Delete removes a draft send.
func (e *Engine) Delete(ctx context.Context, ownerID, sendID uuid.UUID) error {
	s, err := e.ownedSend(ctx, ownerID, sendID)
	if err != nil {
		return err
	}
	if !s.Editable() {
		return errs.Validationf("only draft email sends can be deleted")
	}
	return e.sends.Delete(ctx, sendID)
}

// Get returns one send under a campaign the caller owns.
func (e *Engine) Get(ctx context.Context, ownerID, sendID uuid.UUID) (*Send, error) {
	return e.ownedSend(ctx, ownerID, sendID)
}

// ListByCampaign returns a campaign's sends.
func (e *Engine) ListByCampaign(ctx context.Context, ownerID, campaignID uuid.UUID) ([]*Send, error) {
	if _, err := e.ownedCampaign(ctx, ownerID, campaignID); err != nil {
		return nil, err
	}
	return e.sends.ListByCampaign(ctx, campaignID)
}

// Queue transitions a draft to queued. The segment is resolved up front
// so an audience of zero is rejected to the caller instead of failing
// silently later; the stored count is a snapshot for progress display,
// dispatch re-resolves live each batch.
func (e *Engine) Queue(ctx context.Context, ownerID, sendID uuid.UUID, scheduledAt *time.Time) (*Send, error) {
	s, err := e.ownedSend(ctx, ownerID, sendID)
	if err != nil {
		return nil, err
	}
	if s.Status != StatusDraft {
		return nil, errs.Validationf("only draft email sends can be queued")
	}

	recipients, err := e.directory.ResolveRecipients(ctx, s.Segment)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, errs.Validationf("segment resolves to no recipients")
	}

	if err := e.sends.MarkQueued(ctx, sendID, len(recipients), scheduledAt); err != nil {
		return nil, err
	}
	return e.sends.Get(ctx, sendID)
}

// Requeue puts a send stuck in sending, or failed, back in the queue.
// This is the manual recovery path after a crash mid-batch; progress and
// counters are kept so dispatch resumes where it stopped.
func (e *Engine) Requeue(ctx context.Context, ownerID, sendID uuid.UUID) (*Send, error) {
	s, err := e.ownedSend(ctx, ownerID, sendID)
	if err != nil {
		return nil, err
	}
	if s.Status != StatusSending && s.Status != StatusFailed {
		return nil, errs.Validationf("only sending or failed email sends can be requeued")
	}
	if err := e.sends.Requeue(ctx, sendID); err != nil {
		return nil, err
	}
	return e.sends.Get(ctx, sendID)
}

// ProcessSend dispatches the next batch of a due send. Called by the
// scheduler; never by an operator request. Provider failures end the send
// as failed with the stored message rather than propagating, per the
// post-queue error policy.
func (e *Engine) ProcessSend(ctx context.Context, sendID uuid.UUID) error {
	now := e.clock.Now()

	claimed, err := e.sends.Claim(ctx, sendID, now)
	if err != nil {
		return err
	}
	if !claimed {
		// Another tick got here first, or the send moved on.
		return nil
	}

	s, err := e.sends.Get(ctx, sendID)
	if err != nil || s == nil {
		return err
	}

	// Live resolution each batch so opt-outs and profile changes are
	// respected at the moment of dispatch.
	recipients, err := e.directory.ResolveRecipients(ctx, s.Segment)
	if err != nil {
		retry := now.Add(e.batchDelay)
		if applyErr := e.sends.ApplyBatch(ctx, sendID, 0, 0, 0, 0, StatusSending, &retry); applyErr != nil {
			logger.Error("failed to reschedule send after resolver error", "send_id", sendID.String(), "error", applyErr.Error())
		}
		return err
	}

	if s.ProcessedCount >= len(recipients) {
		return e.sends.ApplyBatch(ctx, sendID, 0, 0, 0, 0, StatusSent, nil)
	}

	end := s.ProcessedCount + e.batchSize
	if end > len(recipients) {
		end = len(recipients)
	}
	batch := recipients[s.ProcessedCount:end]

	prov, err := e.providers.Email(s.Provider)
	if err != nil {
		return e.fail(ctx, s, err.Error())
	}

	html, err := e.renderContent(ctx, s, prov)
	if err != nil {
		return e.fail(ctx, s, err.Error())
	}

	emails := make([]string, len(batch))
	for i, r := range batch {
		emails[i] = r.Email
	}

	result, err := prov.Send(ctx, s.FromAddress, emails, s.Subject, html, s.CampaignID)
	if err != nil {
		return e.fail(ctx, s, err.Error())
	}

	e.recordSentEvents(ctx, s, batch, now)

	bounced := result.Sent - result.Delivered
	if bounced < 0 {
		bounced = 0
	}

	status := StatusSending
	var nextBatchAt *time.Time
	if end >= len(recipients) {
		status = StatusSent
	} else {
		next := now.Add(e.batchDelay)
		nextBatchAt = &next
	}

	if err := e.sends.ApplyBatch(ctx, sendID, len(batch), result.Sent, result.Delivered, bounced, status, nextBatchAt); err != nil {
		return err
	}

	logger.Info("dispatched email batch",
		"send_id", sendID.String(),
		"campaign_id", s.CampaignID.String(),
		"batch", len(batch),
		"processed", end,
		"total", len(recipients),
		"status", status)
	return nil
}

func (e *Engine) renderContent(ctx context.Context, s *Send, prov provider.EmailProvider) (string, error) {
	bindings := map[string]interface{}{}
	if c, err := e.campaigns.Get(ctx, s.CampaignID); err == nil && c != nil {
		bindings["campaign_name"] = c.Name
		bindings["attribution_code"] = c.Code
	}

	html, err := Render(s.BodyHTML, bindings)
	if err != nil {
		return "", err
	}
	if s.TrackingEnabled {
		html = InjectTracking(html, s.ID, prov)
	}
	return html, nil
}

// recordSentEvents appends one sent event per dispatched recipient. A
// recipient whose id is unknown gets a null reference; event failures are
// logged and never stop the batch.
func (e *Engine) recordSentEvents(ctx context.Context, s *Send, batch []directory.Recipient, now time.Time) {
	for _, r := range batch {
		var recipientID *uuid.UUID
		if r.ID != uuid.Nil {
			id := r.ID
			recipientID = &id
		}
		sendID := s.ID
		ev := &tracker.Event{
			CampaignID:  s.CampaignID,
			EmailSendID: &sendID,
			RecipientID: recipientID,
			EventType:   tracker.EventSent,
			OccurredAt:  now,
		}
		if err := e.events.InsertEvent(ctx, ev); err != nil {
			logger.Error("failed to record sent event",
				"send_id", s.ID.String(),
				"recipient", logger.RedactEmail(r.Email),
				"error", err.Error())
		}
	}
}

func (e *Engine) fail(ctx context.Context, s *Send, message string) error {
	logger.Error("email send failed",
		"send_id", s.ID.String(),
		"campaign_id", s.CampaignID.String(),
		"error", message)
	return e.sends.MarkFailed(ctx, s.ID, message)
}

func (e *Engine) ownedCampaign(ctx context.Context, ownerID, campaignID uuid.UUID) (*campaign.Campaign, error) {
	c, err := e.campaigns.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errs.NotFound("campaign", campaignID.String())
	}
	if c.OwnerID != ownerID {
		return nil, errs.Permissionf("campaign %s is not owned by caller", campaignID)
	}
	return c, nil
}

func (e *Engine) ownedSend(ctx context.Context, ownerID, sendID uuid.UUID) (*Send, error) {
	s, err := e.sends.Get(ctx, sendID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errs.NotFound("email send", sendID.String())
	}
	if _, err := e.ownedCampaign(ctx, ownerID, s.CampaignID); err != nil {
		return nil, err
	}
	return s, nil
}
