package tracker

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// 1x1 transparent GIF
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00,
	0x80, 0x00, 0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x2c,
	0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02,
	0x02, 0x44, 0x01, 0x00, 0x3b,
}

// Handler serves the public tracking endpoints. These routes are
// unauthenticated; validity comes from the HMAC signature on the payload.
type Handler struct {
	links   *Links
	service *Service
}

// NewHandler creates a tracking handler.
func NewHandler(links *Links, service *Service) *Handler {
	return &Handler{links: links, service: service}
}

// Routes mounts the tracking endpoints on a router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/track/open/{data}/{sig}", h.HandleOpen)
	r.Get("/track/click/{data}/{sig}", h.HandleClick)
}

// HandleOpen records an open and serves the pixel. The pixel is served on
// every outcome, including bad payloads and storage failures, so broken
// tracking never shows up as a broken image in a recipient's inbox.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	sendID, err := h.links.DecodeOpen(chi.URLParam(r, "data"), chi.URLParam(r, "sig"))
	if err != nil {
		h.servePixel(w)
		return
	}

	if !IsBot(r.UserAgent()) {
		h.service.RecordOpen(r.Context(), sendID, recipientParam(r), realIP(r), r.UserAgent())
	}
	h.servePixel(w)
}

// HandleClick records a click and redirects to the original destination.
// Recipients reach their link even when recording fails; only an invalid
// payload gets an error, since the destination cannot be trusted then.
func (h *Handler) HandleClick(w http.ResponseWriter, r *http.Request) {
	sendID, destination, err := h.links.DecodeClick(chi.URLParam(r, "data"), chi.URLParam(r, "sig"))
	if err != nil {
		http.Error(w, "bad link", http.StatusBadRequest)
		return
	}

	if !IsBot(r.UserAgent()) {
		h.service.RecordClick(r.Context(), sendID, recipientParam(r), destination, realIP(r), r.UserAgent())
	}
	http.Redirect(w, r, destination, http.StatusTemporaryRedirect)
}

func (h *Handler) servePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Write(pixelGIF)
}

// recipientParam reads the optional recipient id from the query string.
func recipientParam(r *http.Request) *uuid.UUID {
	raw := r.URL.Query().Get("r")
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
