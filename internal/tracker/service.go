package tracker

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eventra/campaign-engine/internal/pkg/logger"
)

var botPatterns = []string{
	"bot", "crawler", "spider", "slurp", "googlebot", "bingbot",
	"yahoo", "baidu", "yandex", "preview", "proxy", "scanner",
}

// IsBot reports whether a user agent looks like automated traffic.
// Mailbox providers prefetch pixels and links; counting those as opens
// inflates engagement.
func IsBot(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, pattern := range botPatterns {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}

// Service records opens and clicks. Persistence failures are logged and
// swallowed; the caller always serves the pixel or redirect regardless.
type Service struct {
	store *Store
}

// NewService creates a tracking service.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// RecordOpen persists an open event and bumps the send's open counter.
func (s *Service) RecordOpen(ctx context.Context, sendID uuid.UUID, recipientID *uuid.UUID, ip, userAgent string) {
	e := &Event{
		EmailSendID: &sendID,
		RecipientID: recipientID,
		EventType:   EventOpen,
		IPAddress:   ip,
		UserAgent:   userAgent,
		OccurredAt:  time.Now().UTC(),
	}
	if err := s.store.InsertSendEvent(ctx, e); err != nil {
		logger.Error("failed to record open event", "send_id", sendID.String(), "error", err.Error())
		return
	}
	if err := s.store.IncrementSendCounter(ctx, sendID, "open_count", 1); err != nil {
		logger.Error("failed to bump open counter", "send_id", sendID.String(), "error", err.Error())
	}
}

// RecordClick persists a click event and bumps the send's click counter.
func (s *Service) RecordClick(ctx context.Context, sendID uuid.UUID, recipientID *uuid.UUID, linkURL, ip, userAgent string) {
	e := &Event{
		EmailSendID: &sendID,
		RecipientID: recipientID,
		EventType:   EventClick,
		LinkURL:     linkURL,
		IPAddress:   ip,
		UserAgent:   userAgent,
		OccurredAt:  time.Now().UTC(),
	}
	if err := s.store.InsertSendEvent(ctx, e); err != nil {
		logger.Error("failed to record click event", "send_id", sendID.String(), "error", err.Error())
		return
	}
	if err := s.store.IncrementSendCounter(ctx, sendID, "click_count", 1); err != nil {
		logger.Error("failed to bump click counter", "send_id", sendID.String(), "error", err.Error())
	}
}
