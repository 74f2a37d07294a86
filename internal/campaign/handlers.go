package campaign

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eventra/campaign-engine/internal/pkg/httputil"
)

// Handlers provides the HTTP surface for campaign CRUD and lifecycle
// actions. The operator identity comes from the X-Operator-ID header set
// by the identity layer in front of this service.
type Handlers struct {
	manager  *Manager
	validate *validator.Validate
}

// NewHandlers creates campaign handlers.
func NewHandlers(manager *Manager) *Handlers {
	return &Handlers{manager: manager, validate: validator.New()}
}

// Routes mounts the campaign endpoints on a router.
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/campaigns", h.HandleList)
	r.Post("/campaigns", h.HandleCreate)
	r.Get("/campaigns/{campaignId}", h.HandleGet)
	r.Put("/campaigns/{campaignId}", h.HandleUpdate)
	r.Delete("/campaigns/{campaignId}", h.HandleDelete)
	r.Post("/campaigns/{campaignId}/pause", h.HandlePause)
	r.Post("/campaigns/{campaignId}/activate", h.HandleActivate)
}

// OperatorID extracts the calling operator's id from the request.
func OperatorID(r *http.Request) uuid.UUID {
	id, _ := uuid.Parse(r.Header.Get("X-Operator-ID"))
	return id
}

func campaignID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "campaignId"))
}

type campaignRequest struct {
	Name    string          `json:"name" validate:"required"`
	EventID *uuid.UUID      `json:"event_id"`
	StartAt time.Time       `json:"start_at" validate:"required"`
	EndAt   time.Time       `json:"end_at" validate:"required"`
	Budget  decimal.Decimal `json:"budget"`
	Segment Segment         `json:"segment"`
}

func (req campaignRequest) params() CreateParams {
	return CreateParams{
		Name:    req.Name,
		EventID: req.EventID,
		StartAt: req.StartAt,
		EndAt:   req.EndAt,
		Budget:  req.Budget,
		Segment: req.Segment,
	}
}

// HandleCreate creates a new campaign.
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ownerID := OperatorID(r)
	if ownerID == uuid.Nil {
		httputil.Error(w, http.StatusUnauthorized, "operator not identified")
		return
	}

	var req campaignRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	var c Campaign
	if err := h.manager.Create(r.Context(), ownerID, req.params(), &c); err != nil {
		httputil.FromError(w, err)
		return
	}
	httputil.Created(w, c)
}

// HandleList returns the caller's campaigns.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	ownerID := OperatorID(r)
	if ownerID == uuid.Nil {
		httputil.Error(w, http.StatusUnauthorized, "operator not identified")
		return
	}

	campaigns, err := h.manager.store.List(r.Context(), ownerID, 0)
	if err != nil {
		httputil.FromError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"campaigns": campaigns,
		"total":     len(campaigns),
	})
}

// HandleGet returns a single campaign.
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		httputil.BadRequest(w, "invalid campaign ID")
		return
	}

	c, err := h.manager.Get(r.Context(), OperatorID(r), id)
	if err != nil {
		httputil.FromError(w, err)
		return
	}
	httputil.OK(w, c)
}

// HandleUpdate applies operator edits and recomputes status.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		httputil.BadRequest(w, "invalid campaign ID")
		return
	}

	var req campaignRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	c, err := h.manager.Update(r.Context(), OperatorID(r), id, req.params())
	if err != nil {
		httputil.FromError(w, err)
		return
	}
	httputil.OK(w, c)
}

// HandleDelete removes a campaign and its children.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		httputil.BadRequest(w, "invalid campaign ID")
		return
	}

	if err := h.manager.Delete(r.Context(), OperatorID(r), id); err != nil {
		httputil.FromError(w, err)
		return
	}
	httputil.NoContent(w)
}

// HandlePause pauses an Active or Scheduled campaign.
func (h *Handlers) HandlePause(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		httputil.BadRequest(w, "invalid campaign ID")
		return
	}

	c, err := h.manager.Pause(r.Context(), OperatorID(r), id)
	if err != nil {
		httputil.FromError(w, err)
		return
	}
	httputil.OK(w, c)
}

// HandleActivate resumes a Paused campaign.
func (h *Handlers) HandleActivate(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		httputil.BadRequest(w, "invalid campaign ID")
		return
	}

	c, err := h.manager.Activate(r.Context(), OperatorID(r), id)
	if err != nil {
		httputil.FromError(w, err)
		return
	}
	httputil.OK(w, c)
}
