// Package provider holds the delivery integrations behind the campaign
// engine. Channel engines pick a provider from the registry by name; the
// engines never know which concrete integration is behind it.
package provider

import (
	"context"

	"github.com/google/uuid"

	"github.com/eventra/campaign-engine/internal/pkg/errs"
	"github.com/eventra/campaign-engine/internal/tracker"
)

// SendResult reports the outcome of one email batch. Sent is the number
// of recipients attempted, Delivered the number the provider accepted.
type SendResult struct {
	Sent      int `json:"sent"`
	Delivered int `json:"delivered"`
}

// PostResult carries the engagement counters a social network returned
// for a published post. The counters are stored verbatim.
type PostResult struct {
	ExternalID  string `json:"external_id,omitempty"`
	Impressions int    `json:"impressions"`
	Clicks      int    `json:"clicks"`
	Likes       int    `json:"likes"`
	Shares      int    `json:"shares"`
	Comments    int    `json:"comments"`
}

// EmailProvider delivers one batch of an email send and produces the
// tracking markup embedded in outgoing content.
type EmailProvider interface {
	Name() string
	Send(ctx context.Context, from string, recipients []string, subject, html string, campaignID uuid.UUID) (*SendResult, error)
	TrackingPixelMarkup(sendID uuid.UUID) string
	TrackingRedirectURL(sendID uuid.UUID, destination string) string
}

// SocialProvider publishes a post to a social platform.
type SocialProvider interface {
	Name() string
	Publish(ctx context.Context, platform, content, imageURL, linkURL string) (*PostResult, error)
}

// Tracking gives a provider the signed tracking URL builders. Embedded by
// every email provider so tracked content is identical across them.
type Tracking struct {
	links *tracker.Links
}

// NewTracking wraps a link builder for embedding in providers.
func NewTracking(links *tracker.Links) Tracking {
	return Tracking{links: links}
}

// TrackingPixelMarkup returns the open-tracking pixel fragment for a send.
func (t Tracking) TrackingPixelMarkup(sendID uuid.UUID) string {
	return t.links.PixelMarkup(sendID)
}

// TrackingRedirectURL returns a tracked click URL for a send.
func (t Tracking) TrackingRedirectURL(sendID uuid.UUID, destination string) string {
	return t.links.RedirectURL(sendID, destination)
}

// Registry maps provider names to integrations. Providers are registered
// once at startup; lookups after that are read-only and need no locking.
type Registry struct {
	email  map[string]EmailProvider
	social map[string]SocialProvider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		email:  make(map[string]EmailProvider),
		social: make(map[string]SocialProvider),
	}
}

// RegisterEmail adds an email provider under its name.
func (r *Registry) RegisterEmail(p EmailProvider) {
	r.email[p.Name()] = p
}

// RegisterSocial adds a social provider under its name.
func (r *Registry) RegisterSocial(p SocialProvider) {
	r.social[p.Name()] = p
}

// Email returns the email provider with the given name.
func (r *Registry) Email(name string) (EmailProvider, error) {
	p, ok := r.email[name]
	if !ok {
		return nil, errs.Validationf("unknown email provider: %s", name)
	}
	return p, nil
}

// Social returns the social provider with the given name.
func (r *Registry) Social(name string) (SocialProvider, error) {
	p, ok := r.social[name]
	if !ok {
		return nil, errs.Validationf("unknown social provider: %s", name)
	}
	return p, nil
}

// EmailNames lists the registered email providers.
func (r *Registry) EmailNames() []string {
	names := make([]string, 0, len(r.email))
	for name := range r.email {
		names = append(names, name)
	}
	return names
}
