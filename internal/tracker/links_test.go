package tracker

import (
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPixelURLRoundTrip(t *testing.T) {
	links := NewLinks("https://track.eventra.io", "test-key")
	sendID := uuid.New()

	pixelURL := links.PixelURL(sendID)
	require.True(t, strings.HasPrefix(pixelURL, "https://track.eventra.io/track/open/"))

	parts := strings.Split(strings.TrimPrefix(pixelURL, "https://track.eventra.io/track/open/"), "/")
	require.Len(t, parts, 2)

	decoded, err := links.DecodeOpen(parts[0], parts[1])
	require.NoError(t, err)
	assert.Equal(t, sendID, decoded)
}

func TestRedirectURLRoundTrip(t *testing.T) {
	links := NewLinks("https://track.eventra.io", "test-key")
	sendID := uuid.New()
	destination := "https://eventra.io/events/summer-fest?utm=email"

	clickURL := links.RedirectURL(sendID, destination)
	parts := strings.Split(strings.TrimPrefix(clickURL, "https://track.eventra.io/track/click/"), "/")
	require.Len(t, parts, 2)

	decodedID, decodedDest, err := links.DecodeClick(parts[0], parts[1])
	require.NoError(t, err)
	assert.Equal(t, sendID, decodedID)
	assert.Equal(t, destination, decodedDest)
}

func TestDecodeRejectsTamperedSignature(t *testing.T) {
	links := NewLinks("https://track.eventra.io", "test-key")
	sendID := uuid.New()

	pixelURL := links.PixelURL(sendID)
	parts := strings.Split(strings.TrimPrefix(pixelURL, "https://track.eventra.io/track/open/"), "/")

	_, err := links.DecodeOpen(parts[0], "0000000000000000")
	assert.Error(t, err)

	// A different signing key must not verify either.
	other := NewLinks("https://track.eventra.io", "other-key")
	_, err = other.DecodeOpen(parts[0], parts[1])
	assert.Error(t, err)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	links := NewLinks("https://track.eventra.io", "test-key")

	_, err := links.DecodeOpen("not-base64!!!", "sig")
	assert.Error(t, err)

	_, _, err = links.DecodeClick("bm90LWEtdXVpZA==", "sig")
	assert.Error(t, err)
}

func TestPixelMarkup(t *testing.T) {
	links := NewLinks("https://track.eventra.io", "test-key")
	sendID := uuid.New()

	markup := links.PixelMarkup(sendID)
	assert.Contains(t, markup, `<img src="`)
	assert.Contains(t, markup, links.PixelURL(sendID))
	assert.Contains(t, markup, `width="1" height="1"`)

	_, err := url.Parse(links.PixelURL(sendID))
	assert.NoError(t, err)
}
