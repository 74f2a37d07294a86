package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	appconfig "github.com/eventra/campaign-engine/internal/config"
	"github.com/eventra/campaign-engine/internal/pkg/httpretry"
)

// RelayProvider sends email through the platform's HTTP mail relay, a
// transmissions-style JSON API that accepts a whole batch in one call.
type RelayProvider struct {
	Tracking
	baseURL    string
	apiKey     string
	httpClient httpretry.HTTPDoer
}

// NewRelayProvider creates a relay-backed email provider.
func NewRelayProvider(cfg appconfig.RelayConfig, tracking Tracking) *RelayProvider {
	return &RelayProvider{
		Tracking:   tracking,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpretry.NewRetryClient(&http.Client{Timeout: cfg.Timeout()}, 3),
	}
}

// Name implements EmailProvider.
func (p *RelayProvider) Name() string { return "relay" }

// Send submits the batch as a single transmission.
func (p *RelayProvider) Send(ctx context.Context, from string, recipients []string, subject, html string, campaignID uuid.UUID) (*SendResult, error) {
	addresses := make([]map[string]interface{}, 0, len(recipients))
	for _, to := range recipients {
		addresses = append(addresses, map[string]interface{}{
			"address": map[string]string{"email": to},
		})
	}

	payload := map[string]interface{}{
		"campaign_id": campaignID.String(),
		"recipients":  addresses,
		"content": map[string]interface{}{
			"from":    map[string]string{"email": from},
			"subject": subject,
			"html":    html,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/api/v1/transmissions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relay request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("relay error: status %d", resp.StatusCode)
	}

	var result struct {
		Results struct {
			TotalAccepted int `json:"total_accepted_recipients"`
			TotalRejected int `json:"total_rejected_recipients"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("relay response: %w", err)
	}

	return &SendResult{
		Sent:      len(recipients),
		Delivered: result.Results.TotalAccepted,
	}, nil
}
