package email

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/eventra/campaign-engine/internal/pkg/httputil"
)

// Handlers provides the HTTP surface for email send management.
type Handlers struct {
	engine *Engine
}

// NewHandlers creates email handlers.
func NewHandlers(engine *Engine) *Handlers {
	return &Handlers{engine: engine}
}

// Routes mounts the email endpoints on a router.
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/campaigns/{campaignId}/emails", h.HandleList)
	r.Post("/campaigns/{campaignId}/emails", h.HandleCreate)
	r.Get("/emails/{sendId}", h.HandleGet)
	r.Put("/emails/{sendId}", h.HandleUpdate)
	r.Delete("/emails/{sendId}", h.HandleDelete)
	r.Post("/emails/{sendId}/queue", h.HandleQueue)
	r.Post("/emails/{sendId}/requeue", h.HandleRequeue)
}

func operatorID(r *http.Request) uuid.UUID {
	id, _ := uuid.Parse(r.Header.Get("X-Operator-ID"))
	return id
}

func sendID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "sendId"))
}

// HandleCreate creates a draft send under a campaign.
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	campaignID, err := uuid.Parse(chi.URLParam(r, "campaignId"))
	if err != nil {
		httputil.BadRequest(w, "invalid campaign ID")
		return
	}

	var p DraftParams
	if !httputil.Decode(w, r, &p) {
		return
	}

	s, err := h.engine.CreateDraft(r.Context(), operatorID(r), campaignID, p)
	if err != nil {
		httputil.FromError(w, err)
		return
	}
	httputil.Created(w, s)
}

// HandleList returns a campaign's sends.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	campaignID, err := uuid.Parse(chi.URLParam(r, "campaignId"))
	if err != nil {
		httputil.BadRequest(w, "invalid campaign ID")
		return
	}

	sends, err := h.engine.ListByCampaign(r.Context(), operatorID(r), campaignID)
	if err != nil {
		httputil.FromError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"emails": sends,
		"total":  len(sends),
	})
}

// HandleGet returns one send.
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := sendID(r)
	if err != nil {
		httputil.BadRequest(w, "invalid email send ID")
		return
	}

	s, err := h.engine.Get(r.Context(), operatorID(r), id)
	if err != nil {
		httputil.FromError(w, err)
		return
	}
	httputil.OK(w, s)
}

// HandleUpdate edits a draft send.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := sendID(r)
	if err != nil {
		httputil.BadRequest(w, "invalid email send ID")
		return
	}

	var p DraftParams
	if !httputil.Decode(w, r, &p) {
		return
	}

	s, err := h.engine.Update(r.Context(), operatorID(r), id, p)
	if err != nil {
		httputil.FromError(w, err)
		return
	}
	httputil.OK(w, s)
}

// HandleDelete removes a draft send.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := sendID(r)
	if err != nil {
		httputil.BadRequest(w, "invalid email send ID")
		return
	}

	if err := h.engine.Delete(r.Context(), operatorID(r), id); err != nil {
		httputil.FromError(w, err)
		return
	}
	httputil.NoContent(w)
}

// HandleQueue queues a draft for dispatch, optionally at a future time.
func (h *Handlers) HandleQueue(w http.ResponseWriter, r *http.Request) {
	id, err := sendID(r)
	if err != nil {
		httputil.BadRequest(w, "invalid email send ID")
		return
	}

	var req struct {
		ScheduledAt *time.Time `json:"scheduled_at"`
	}
	if r.ContentLength > 0 && !httputil.Decode(w, r, &req) {
		return
	}

	s, err := h.engine.Queue(r.Context(), operatorID(r), id, req.ScheduledAt)
	if err != nil {
		httputil.FromError(w, err)
		return
	}
	httputil.OK(w, s)
}

// HandleRequeue puts a stuck or failed send back in the queue.
func (h *Handlers) HandleRequeue(w http.ResponseWriter, r *http.Request) {
	id, err := sendID(r)
	if err != nil {
		httputil.BadRequest(w, "invalid email send ID")
		return
	}

	s, err := h.engine.Requeue(r.Context(), operatorID(r), id)
	if err != nil {
		httputil.FromError(w, err)
		return
	}
	httputil.OK(w, s)
}
