package social

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/eventra/campaign-engine/internal/campaign"
	"github.com/eventra/campaign-engine/internal/pkg/errs"
	"github.com/eventra/campaign-engine/internal/pkg/logger"
	"github.com/eventra/campaign-engine/internal/provider"
)

// PostStore is the persistence surface the engine needs. *Store
// implements it; tests substitute an in-memory fake.
type PostStore interface {
	Create(ctx context.Context, p *Post) error
	Get(ctx context.Context, id uuid.UUID) (*Post, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*Post, error)
	Update(ctx context.Context, p *Post) error
	Delete(ctx context.Context, id uuid.UUID) error
	MarkQueued(ctx context.Context, id uuid.UUID, scheduledAt time.Time) error
	MarkPosted(ctx context.Context, id uuid.UUID, externalID string, impressions, clicks, likes, shares, comments int) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
}

// CampaignStore looks up parent campaigns.
type CampaignStore interface {
	Get(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error)
}

// ProviderSource resolves a social provider by name.
type ProviderSource interface {
	Social(name string) (provider.SocialProvider, error)
}

// Engine owns the social post lifecycle: draft CRUD, scheduling, and the
// one-shot publish the scheduler drives.
type Engine struct {
	posts        PostStore
	campaigns    CampaignStore
	providers    ProviderSource
	providerName string
	clock        campaign.Clock
}

// NewEngine creates a social publishing engine.
func NewEngine(posts PostStore, campaigns CampaignStore, providers ProviderSource, providerName string, clock campaign.Clock) *Engine {
	if clock == nil {
		clock = campaign.SystemClock{}
	}
	return &Engine{
		posts:        posts,
		campaigns:    campaigns,
		providers:    providers,
		providerName: providerName,
		clock:        clock,
	}
}

// DraftParams carries the operator-editable fields of a social post.
type DraftParams struct {
	Platform string `json:"platform"`
	Content  string `json:"content"`
	LinkURL  string `json:"link_url"`
	ImageURL string `json:"image_url"`
}

func validateDraft(p DraftParams) error {
	if !validPlatforms[p.Platform] {
		return errs.Validationf("unknown platform: %s", p.Platform)
	}
	if p.Content == "" {
		return errs.Validationf("content is required")
	}
	return nil
}

// CreateDraft creates a new draft post under a campaign the caller owns.
func (e *Engine) CreateDraft(ctx context.Context, ownerID, campaignID uuid.UUID, p DraftParams) (*Post, error) {
	if _, err := e.ownedCampaign(ctx, ownerID, campaignID); err != nil {
		return nil, err
	}
	if err := validateDraft(p); err != nil {
		return nil, err
	}

	post := &Post{
		ID:         uuid.New(),
		CampaignID: campaignID,
		Platform:   p.Platform,
		Content:    p.Content,
		LinkURL:    p.LinkURL,
		ImageURL:   p.ImageURL,
		Status:     StatusDraft,
	}
	if err := e.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Update edits a draft post.
func (e *Engine) Update(ctx context.Context, ownerID, postID uuid.UUID, p DraftParams) (*Post, error) {
	post, err := e.ownedPost(ctx, ownerID, postID)
	if err != nil {
		return nil, err
	}
	if !post.Editable() {
		return nil, errs.Validationf("only draft posts can be edited")
	}
	if err := validateDraft(p); err != nil {
		return nil, err
	}

	post.Platform = p.Platform
	post.Content = p.Content
	post.LinkURL = p.LinkURL
	post.ImageURL = p.ImageURL
	if err := e.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Delete removes a draft post.
func (e *Engine) Delete(ctx context.Context, ownerID, postID uuid.UUID) error {
	post, err := e.ownedPost(ctx, ownerID, postID)
	if err != nil {
		return err
	}
	if !post.Editable() {
		return errs.Validationf("only draft posts can be deleted")
	}
	return e.posts.Delete(ctx, postID)
}

// Get returns one post under a campaign the caller owns.
func (e *Engine) Get(ctx context.Context, ownerID, postID uuid.UUID) (*Post, error) {
	return e.ownedPost(ctx, ownerID, postID)
}

// ListByCampaign returns a campaign's posts.
func (e *Engine) ListByCampaign(ctx context.Context, ownerID, campaignID uuid.UUID) ([]*Post, error) {
	if _, err := e.ownedCampaign(ctx, ownerID, campaignID); err != nil {
		return nil, err
	}
	return e.posts.ListByCampaign(ctx, campaignID)
}

// Schedule queues a draft for publishing. The parent campaign must be
// Active right now, not merely Scheduled. A publish time already in the
// past is clamped forward one minute rather than rejected.
func (e *Engine) Schedule(ctx context.Context, ownerID, postID uuid.UUID, at time.Time) (*Post, error) {
	post, err := e.ownedPost(ctx, ownerID, postID)
	if err != nil {
		return nil, err
	}
	if post.Status != StatusDraft {
		return nil, errs.Validationf("only draft posts can be scheduled")
	}

	c, err := e.ownedCampaign(ctx, ownerID, post.CampaignID)
	if err != nil {
		return nil, err
	}
	if c.Status != campaign.StatusActive {
		return nil, errs.Validationf("campaign must be active to schedule posts, current status: %s", c.Status)
	}

	now := e.clock.Now()
	if !at.After(now) {
		at = now.Add(time.Minute)
	}

	if err := e.posts.MarkQueued(ctx, postID, at); err != nil {
		return nil, err
	}
	return e.posts.Get(ctx, postID)
}

// PublishPost performs the one-shot dispatch of a due post. Called by the
// scheduler. The network's counters are stored verbatim; failures end the
// post as failed with the stored message.
func (e *Engine) PublishPost(ctx context.Context, postID uuid.UUID) error {
	post, err := e.posts.Get(ctx, postID)
	if err != nil || post == nil {
		return err
	}
	if post.Status != StatusQueued {
		return nil
	}

	prov, err := e.providers.Social(e.providerName)
	if err != nil {
		return e.fail(ctx, post, err.Error())
	}

	result, err := prov.Publish(ctx, post.Platform, post.Content, post.ImageURL, post.LinkURL)
	if err != nil {
		return e.fail(ctx, post, err.Error())
	}

	if err := e.posts.MarkPosted(ctx, postID, result.ExternalID,
		result.Impressions, result.Clicks, result.Likes, result.Shares, result.Comments); err != nil {
		return err
	}

	logger.Info("published social post",
		"post_id", postID.String(),
		"campaign_id", post.CampaignID.String(),
		"platform", post.Platform,
		"impressions", result.Impressions)
	return nil
}

func (e *Engine) fail(ctx context.Context, post *Post, message string) error {
	logger.Error("social post failed",
		"post_id", post.ID.String(),
		"campaign_id", post.CampaignID.String(),
		"platform", post.Platform,
		"error", message)
	return e.posts.MarkFailed(ctx, post.ID, message)
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

func (e *Engine) ownedPost(ctx context.Context, ownerID, postID uuid.UUID) (*Post, error) {
	post, err := e.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, errs.NotFound("social post", postID.String())
	}
	if _, err := e.ownedCampaign(ctx, ownerID, post.CampaignID); err != nil {
		return nil, err
	}
	return post, nil
}
