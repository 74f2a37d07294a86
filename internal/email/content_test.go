package email

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTracking struct{}

func (fakeTracking) TrackingPixelMarkup(sendID uuid.UUID) string {
	return fmt.Sprintf(`<img src="https://track.test/track/open/%s/sig" />`, sendID)
}

func (fakeTracking) TrackingRedirectURL(sendID uuid.UUID, destination string) string {
	return fmt.Sprintf("https://track.test/track/click/%s/sig?d=%s", sendID, destination)
}

func TestRender(t *testing.T) {
	out, err := Render("Hello {{ campaign_name }}, use code {{ attribution_code }}!", map[string]interface{}{
		"campaign_name":    "Summer Fest",
		"attribution_code": "cmp-ab12cd34",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello Summer Fest, use code cmp-ab12cd34!", out)
}

func TestRenderPlainPassthrough(t *testing.T) {
	out, err := Render("<p>No placeholders here</p>", nil)
	require.NoError(t, err)
	assert.Equal(t, "<p>No placeholders here</p>", out)
}

func TestInjectTrackingPixelBeforeBody(t *testing.T) {
	sendID := uuid.New()
	html := `<html><body><p>Hi</p></body></html>`

	out := InjectTracking(html, sendID, fakeTracking{})
	pixel := fakeTracking{}.TrackingPixelMarkup(sendID)
	assert.Equal(t, `<html><body><p>Hi</p>`+pixel+`</body></html>`, out)
}

func TestInjectTrackingPixelAppendedWithoutBody(t *testing.T) {
	sendID := uuid.New()
	html := `<p>Fragment only</p>`

	out := InjectTracking(html, sendID, fakeTracking{})
	assert.True(t, strings.HasPrefix(out, html))
	assert.Contains(t, out, fmt.Sprintf("/track/open/%s/", sendID))
}

func TestInjectTrackingRewritesLinks(t *testing.T) {
	sendID := uuid.New()
	html := `<body><a href="https://eventra.io/events/1" class="btn" target="_blank">Tickets</a></body>`

	out := InjectTracking(html, sendID, fakeTracking{})
	assert.NotContains(t, out, `href="https://eventra.io/events/1"`)
	assert.Contains(t, out, fmt.Sprintf(`href="https://track.test/track/click/%s/sig?d=https://eventra.io/events/1"`, sendID))
	// Other attributes survive the rewrite untouched.
	assert.Contains(t, out, `class="btn" target="_blank"`)
}

func TestInjectTrackingSkipsTrackedLinks(t *testing.T) {
	sendID := uuid.New()
	already := `<a href="https://track.test/track/click/abc/sig">x</a>`

	out := InjectTracking("<body>"+already+"</body>", sendID, fakeTracking{})
	assert.Contains(t, out, already)
}
