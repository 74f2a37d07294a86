package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/eventra/campaign-engine/internal/config"
	"github.com/eventra/campaign-engine/internal/pkg/errs"
	"github.com/eventra/campaign-engine/internal/tracker"
)

func testTracking() Tracking {
	return NewTracking(tracker.NewLinks("https://track.eventra.io", "test-signing-key"))
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	relay := NewRelayProvider(appconfig.RelayConfig{BaseURL: "http://relay", TimeoutSeconds: 5}, testTracking())
	gateway := NewGatewayProvider(appconfig.SocialConfig{GatewayURL: "http://gateway", TimeoutSeconds: 5})
	r.RegisterEmail(relay)
	r.RegisterSocial(gateway)

	got, err := r.Email("relay")
	require.NoError(t, err)
	assert.Same(t, relay, got)

	gotSocial, err := r.Social("gateway")
	require.NoError(t, err)
	assert.Same(t, gateway, gotSocial)

	assert.Equal(t, []string{"relay"}, r.EmailNames())
}

func TestRegistryUnknownProvider(t *testing.T) {
	r := NewRegistry()

	_, err := r.Email("mailgun")
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))

	_, err = r.Social("linkedin")
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestRelaySend(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/transmissions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": map[string]int{
				"total_accepted_recipients": 2,
				"total_rejected_recipients": 1,
			},
		})
	}))
	defer srv.Close()

	p := NewRelayProvider(appconfig.RelayConfig{BaseURL: srv.URL, APIKey: "rk_test", TimeoutSeconds: 5}, testTracking())
	result, err := p.Send(context.Background(), "events@eventra.io",
		[]string{"a@example.com", "b@example.com", "c@example.com"},
		"Tickets on sale", "<p>hi</p>", uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Sent)
	assert.Equal(t, 2, result.Delivered)
	assert.Equal(t, "rk_test", gotAuth)

	content := gotPayload["content"].(map[string]interface{})
	assert.Equal(t, "Tickets on sale", content["subject"])
	assert.Len(t, gotPayload["recipients"], 3)
}

func TestRelaySendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	p := NewRelayProvider(appconfig.RelayConfig{BaseURL: srv.URL, TimeoutSeconds: 5}, testTracking())
	_, err := p.Send(context.Background(), "events@eventra.io", []string{"a@example.com"}, "s", "<p>hi</p>", uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")
}

func TestGatewayPublish(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/posts", r.URL.Path)
		require.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "facebook", payload["platform"])

		json.NewEncoder(w).Encode(PostResult{
			ExternalID:  "fb_987",
			Impressions: 800,
			Clicks:      40,
			Likes:       25,
			Shares:      5,
			Comments:    2,
		})
	}))
	defer srv.Close()

	p := NewGatewayProvider(appconfig.SocialConfig{GatewayURL: srv.URL, APIKey: "sk_test", TimeoutSeconds: 5})
	result, err := p.Publish(context.Background(), "facebook", "Doors open at noon!", "", "https://eventra.io/events/1")
	require.NoError(t, err)

	assert.Equal(t, "fb_987", result.ExternalID)
	assert.Equal(t, 800, result.Impressions)
	assert.Equal(t, 2, result.Comments)
}

func TestTrackingMarkup(t *testing.T) {
	tr := testTracking()
	sendID := uuid.New()

	assert.Contains(t, tr.TrackingPixelMarkup(sendID), "/track/open/")
	assert.Contains(t, tr.TrackingRedirectURL(sendID, "https://eventra.io"), "/track/click/")
}
