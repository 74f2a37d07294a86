package email

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/osteele/liquid"
)

var liquidEngine = liquid.NewEngine()

// Render expands Liquid placeholders in a template body against the
// campaign bindings ({{ campaign_name }}, {{ attribution_code }} and so
// on). A template with no placeholders passes through unchanged.
func Render(template string, bindings map[string]interface{}) (string, error) {
	out, err := liquidEngine.ParseAndRenderString(template, bindings)
	if err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return out, nil
}

// TrackingBuilder produces the markup embedded in tracked email content.
// Every email provider satisfies this.
type TrackingBuilder interface {
	TrackingPixelMarkup(sendID uuid.UUID) string
	TrackingRedirectURL(sendID uuid.UUID, destination string) string
}

var hrefPattern = regexp.MustCompile(`href="(https?://[^"]*)"`)

// InjectTracking rewrites rendered HTML for engagement measurement: the
// open pixel goes immediately before </body> when present, otherwise at
// the end, and every absolute link is rewritten through the tracking
// redirect. Attributes other than href are untouched, and links already
// pointing at the tracking endpoints are skipped.
func InjectTracking(html string, sendID uuid.UUID, t TrackingBuilder) string {
	html = hrefPattern.ReplaceAllStringFunc(html, func(match string) string {
		destination := hrefPattern.FindStringSubmatch(match)[1]
		if strings.Contains(destination, "/track/") {
			return match
		}
		return fmt.Sprintf(`href="%s"`, t.TrackingRedirectURL(sendID, destination))
	})

	pixel := t.TrackingPixelMarkup(sendID)
	if idx := strings.LastIndex(html, "</body>"); idx != -1 {
		return html[:idx] + pixel + html[idx:]
	}
	return html + pixel
}
