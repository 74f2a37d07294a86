package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	appconfig "github.com/eventra/campaign-engine/internal/config"
	"github.com/eventra/campaign-engine/internal/pkg/httpretry"
)

// GatewayProvider publishes posts through the platform's social gateway,
// which holds the per-network credentials and returns whatever counters
// the network reported at publish time.
type GatewayProvider struct {
	baseURL    string
	apiKey     string
	httpClient httpretry.HTTPDoer
}

// NewGatewayProvider creates a gateway-backed social provider.
func NewGatewayProvider(cfg appconfig.SocialConfig) *GatewayProvider {
	return &GatewayProvider{
		baseURL:    strings.TrimRight(cfg.GatewayURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpretry.NewRetryClient(&http.Client{Timeout: cfg.Timeout()}, 3),
	}
}

// Name implements SocialProvider.
func (p *GatewayProvider) Name() string { return "gateway" }

// Publish submits the post and returns the network's counters verbatim.
func (p *GatewayProvider) Publish(ctx context.Context, platform, content, imageURL, linkURL string) (*PostResult, error) {
	payload := map[string]string{
		"platform":  platform,
		"content":   content,
		"image_url": imageURL,
		"link_url":  linkURL,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/v1/posts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("social gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("social gateway error: status %d", resp.StatusCode)
	}

	var result PostResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("social gateway response: %w", err)
	}
	return &result, nil
}
