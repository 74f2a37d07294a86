package social

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventra/campaign-engine/internal/campaign"
	"github.com/eventra/campaign-engine/internal/pkg/errs"
	"github.com/eventra/campaign-engine/internal/provider"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type fakePostStore struct {
	posts map[uuid.UUID]*Post
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{posts: make(map[uuid.UUID]*Post)}
}

func (f *fakePostStore) Create(_ context.Context, p *Post) error {
	f.posts[p.ID] = p
	return nil
}

func (f *fakePostStore) Get(_ context.Context, id uuid.UUID) (*Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (f *fakePostStore) ListByCampaign(_ context.Context, campaignID uuid.UUID) ([]*Post, error) {
	var out []*Post
	for _, p := range f.posts {
		if p.CampaignID == campaignID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePostStore) Update(_ context.Context, p *Post) error {
	stored := f.posts[p.ID]
	*stored = *p
	return nil
}

func (f *fakePostStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.posts, id)
	return nil
}

func (f *fakePostStore) MarkQueued(_ context.Context, id uuid.UUID, scheduledAt time.Time) error {
	p := f.posts[id]
	p.Status = StatusQueued
	p.ScheduledAt = &scheduledAt
	p.ErrorMessage = ""
	return nil
}

func (f *fakePostStore) MarkPosted(_ context.Context, id uuid.UUID, externalID string, impressions, clicks, likes, shares, comments int) error {
	p := f.posts[id]
	if p.Status != StatusQueued {
		return nil
	}
	p.Status = StatusPosted
	p.ExternalID = externalID
	p.Impressions = impressions
	p.Clicks = clicks
	p.Likes = likes
	p.Shares = shares
	p.Comments = comments
	return nil
}

func (f *fakePostStore) MarkFailed(_ context.Context, id uuid.UUID, message string) error {
	p := f.posts[id]
	if p.Status != StatusQueued {
		return nil
	}
	p.Status = StatusFailed
	p.ErrorMessage = message
	return nil
}

type fakeCampaigns struct {
	campaigns map[uuid.UUID]*campaign.Campaign
}

func (f *fakeCampaigns) Get(_ context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	return f.campaigns[id], nil
}

type fakeSocialProvider struct {
	result *provider.PostResult
	err    error
	calls  int
}

func (f *fakeSocialProvider) Name() string { return "gateway" }

func (f *fakeSocialProvider) Publish(context.Context, string, string, string, string) (*provider.PostResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeProviderSource struct {
	provider *fakeSocialProvider
}

func (f *fakeProviderSource) Social(name string) (provider.SocialProvider, error) {
	if name != "gateway" {
		return nil, errs.Validationf("unknown social provider: %s", name)
	}
	return f.provider, nil
}

type socialFixture struct {
	engine   *Engine
	store    *fakePostStore
	provider *fakeSocialProvider
	clock    fixedClock
	ownerID  uuid.UUID
	campaign *campaign.Campaign
}

func newSocialFixture(t *testing.T, campaignStatus string) *socialFixture {
	t.Helper()

	ownerID := uuid.New()
	c := &campaign.Campaign{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Name:    "Summer Fest",
		Status:  campaignStatus,
	}
	store := newFakePostStore()
	prov := &fakeSocialProvider{result: &provider.PostResult{
		ExternalID:  "fb_123",
		Impressions: 800,
		Clicks:      40,
		Likes:       25,
		Shares:      5,
		Comments:    2,
	}}
	clock := fixedClock{now: time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)}

	engine := NewEngine(store,
		&fakeCampaigns{campaigns: map[uuid.UUID]*campaign.Campaign{c.ID: c}},
		&fakeProviderSource{provider: prov}, "gateway", clock)

	return &socialFixture{engine: engine, store: store, provider: prov, clock: clock, ownerID: ownerID, campaign: c}
}

func (fx *socialFixture) draft(t *testing.T) *Post {
	t.Helper()
	p, err := fx.engine.CreateDraft(context.Background(), fx.ownerID, fx.campaign.ID, DraftParams{
		Platform: PlatformFacebook,
		Content:  "Doors open at noon!",
		LinkURL:  "https://eventra.io/events/1",
	})
	require.NoError(t, err)
	return p
}

func TestScheduleRequiresActiveCampaign(t *testing.T) {
	fx := newSocialFixture(t, campaign.StatusScheduled)
	p := fx.draft(t)

	_, err := fx.engine.Schedule(context.Background(), fx.ownerID, p.ID, fx.clock.Now().Add(time.Hour))
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.Contains(t, err.Error(), "must be active")

	got, _ := fx.engine.Get(context.Background(), fx.ownerID, p.ID)
	assert.Equal(t, StatusDraft, got.Status)
}

func TestSchedulePastTimeClampedForward(t *testing.T) {
	fx := newSocialFixture(t, campaign.StatusActive)
	p := fx.draft(t)

	got, err := fx.engine.Schedule(context.Background(), fx.ownerID, p.ID, fx.clock.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, got.Status)
	require.NotNil(t, got.ScheduledAt)
	assert.Equal(t, fx.clock.Now().Add(time.Minute), *got.ScheduledAt)
}

func TestScheduleFutureTimeKept(t *testing.T) {
	fx := newSocialFixture(t, campaign.StatusActive)
	p := fx.draft(t)

	at := fx.clock.Now().Add(3 * time.Hour)
	got, err := fx.engine.Schedule(context.Background(), fx.ownerID, p.ID, at)
	require.NoError(t, err)
	require.NotNil(t, got.ScheduledAt)
	assert.Equal(t, at, *got.ScheduledAt)
}

func TestPublishStoresNetworkCounters(t *testing.T) {
	fx := newSocialFixture(t, campaign.StatusActive)
	ctx := context.Background()
	p := fx.draft(t)
	_, err := fx.engine.Schedule(ctx, fx.ownerID, p.ID, fx.clock.Now())
	require.NoError(t, err)

	require.NoError(t, fx.engine.PublishPost(ctx, p.ID))

	got, _ := fx.engine.Get(ctx, fx.ownerID, p.ID)
	assert.Equal(t, StatusPosted, got.Status)
	assert.Equal(t, "fb_123", got.ExternalID)
	assert.Equal(t, 800, got.Impressions)
	assert.Equal(t, 40, got.Clicks)
	assert.Equal(t, 25, got.Likes)
	assert.Equal(t, 5, got.Shares)
	assert.Equal(t, 2, got.Comments)
}

func TestPublishOnlyOnce(t *testing.T) {
	fx := newSocialFixture(t, campaign.StatusActive)
	ctx := context.Background()
	p := fx.draft(t)
	_, err := fx.engine.Schedule(ctx, fx.ownerID, p.ID, fx.clock.Now())
	require.NoError(t, err)

	require.NoError(t, fx.engine.PublishPost(ctx, p.ID))
	require.NoError(t, fx.engine.PublishPost(ctx, p.ID))
	assert.Equal(t, 1, fx.provider.calls)
}

func TestPublishFailureRecordsMessage(t *testing.T) {
	fx := newSocialFixture(t, campaign.StatusActive)
	fx.provider.err = fmt.Errorf("gateway error: status 503")
	ctx := context.Background()
	p := fx.draft(t)
	_, err := fx.engine.Schedule(ctx, fx.ownerID, p.ID, fx.clock.Now())
	require.NoError(t, err)

	require.NoError(t, fx.engine.PublishPost(ctx, p.ID))

	got, _ := fx.engine.Get(ctx, fx.ownerID, p.ID)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "gateway error: status 503", got.ErrorMessage)
}

func TestDraftValidation(t *testing.T) {
	fx := newSocialFixture(t, campaign.StatusActive)
	ctx := context.Background()

	_, err := fx.engine.CreateDraft(ctx, fx.ownerID, fx.campaign.ID, DraftParams{
		Platform: "myspace", Content: "hi",
	})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))

	_, err = fx.engine.CreateDraft(ctx, fx.ownerID, fx.campaign.ID, DraftParams{
		Platform: PlatformTwitter,
	})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestEditRejectedAfterDraft(t *testing.T) {
	fx := newSocialFixture(t, campaign.StatusActive)
	ctx := context.Background()
	p := fx.draft(t)
	_, err := fx.engine.Schedule(ctx, fx.ownerID, p.ID, fx.clock.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = fx.engine.Update(ctx, fx.ownerID, p.ID, DraftParams{
		Platform: PlatformFacebook, Content: "edited",
	})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))

	err = fx.engine.Delete(ctx, fx.ownerID, p.ID)
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}
