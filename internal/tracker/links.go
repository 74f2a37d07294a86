package tracker

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Links builds and verifies signed tracking URLs. The payload is the
// email send id (plus the destination URL for clicks), base64-encoded and
// signed so the redirect endpoint cannot be used as an open proxy.
type Links struct {
	baseURL    string
	signingKey []byte
}

// NewLinks creates a link builder. baseURL is the externally reachable
// root of the tracking endpoints, without a trailing slash.
func NewLinks(baseURL, signingKey string) *Links {
	return &Links{
		baseURL:    strings.TrimRight(baseURL, "/"),
		signingKey: []byte(signingKey),
	}
}

// PixelURL returns the open-tracking pixel URL for an email send.
func (l *Links) PixelURL(sendID uuid.UUID) string {
	data := sendID.String()
	encoded := base64.URLEncoding.EncodeToString([]byte(data))
	return fmt.Sprintf("%s/track/open/%s/%s", l.baseURL, encoded, l.sign(data))
}

// RedirectURL returns a tracked click URL that redirects to destination.
func (l *Links) RedirectURL(sendID uuid.UUID, destination string) string {
	data := fmt.Sprintf("%s|%s", sendID, destination)
	encoded := base64.URLEncoding.EncodeToString([]byte(data))
	return fmt.Sprintf("%s/track/click/%s/%s", l.baseURL, encoded, l.sign(data))
}

// PixelMarkup returns the HTML fragment carrying the open pixel.
func (l *Links) PixelMarkup(sendID uuid.UUID) string {
	return fmt.Sprintf(`<img src="%s" width="1" height="1" style="display:none" alt="" />`, l.PixelURL(sendID))
}

// DecodeOpen validates and unpacks an open-tracking payload.
func (l *Links) DecodeOpen(encoded, signature string) (uuid.UUID, error) {
	data, err := l.decode(encoded, signature)
	if err != nil {
		return uuid.Nil, err
	}
	sendID, err := uuid.Parse(data)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid data format")
	}
	return sendID, nil
}

// DecodeClick validates and unpacks a click-tracking payload, returning
// the email send id and the original destination URL.
func (l *Links) DecodeClick(encoded, signature string) (uuid.UUID, string, error) {
	data, err := l.decode(encoded, signature)
	if err != nil {
		return uuid.Nil, "", err
	}
	parts := strings.SplitN(data, "|", 2)
	if len(parts) != 2 {
		return uuid.Nil, "", fmt.Errorf("invalid data format")
	}
	sendID, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid data format")
	}
	return sendID, parts[1], nil
}

func (l *Links) decode(encoded, signature string) (string, error) {
	decoded, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid encoding")
	}
	data := string(decoded)
	if !l.verify(data, signature) {
		return "", fmt.Errorf("invalid signature")
	}
	return data, nil
}

func (l *Links) sign(data string) string {
	h := hmac.New(sha256.New, l.signingKey)
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func (l *Links) verify(data, signature string) bool {
	expected := l.sign(data)
	return hmac.Equal([]byte(expected), []byte(signature))
}
