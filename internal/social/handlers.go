package social

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/eventra/campaign-engine/internal/pkg/httputil"
)

// Handlers provides the HTTP surface for social post management.
type Handlers struct {
	engine *Engine
}

// NewHandlers creates social handlers.
func NewHandlers(engine *Engine) *Handlers {
	return &Handlers{engine: engine}
}

// Routes mounts the social endpoints on a router.
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/campaigns/{campaignId}/posts", h.HandleList)
	r.Post("/campaigns/{campaignId}/posts", h.HandleCreate)
	r.Get("/posts/{postId}", h.HandleGet)
	r.Put("/posts/{postId}", h.HandleUpdate)
	r.Delete("/posts/{postId}", h.HandleDelete)
	r.Post("/posts/{postId}/schedule", h.HandleSchedule)
}

func operatorID(r *http.Request) uuid.UUID {
	id, _ := uuid.Parse(r.Header.Get("X-Operator-ID"))
	return id
}

func postID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "postId"))
}

// HandleCreate creates a draft post under a campaign.
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

	post, err := h.engine.CreateDraft(r.Context(), operatorID(r), campaignID, p)
	if err != nil {
		httputil.FromError(w, err)
		return
	}
	httputil.Created(w, post)
}

// HandleList returns a campaign's posts.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	campaignID, err := uuid.Parse(chi.URLParam(r, "campaignId"))
	if err != nil {
		httputil.BadRequest(w, "invalid campaign ID")
		return
	}

	posts, err := h.engine.ListByCampaign(r.Context(), operatorID(r), campaignID)
	if err != nil {
		httputil.FromError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"posts": posts,
		"total": len(posts),
	})
}

// HandleGet returns one post.
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		httputil.BadRequest(w, "invalid post ID")
		return
	}

	post, err := h.engine.Get(r.Context(), operatorID(r), id)
	if err != nil {
		httputil.FromError(w, err)
		return
	}
	httputil.OK(w, post)
}

// HandleUpdate edits a draft post.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		httputil.BadRequest(w, "invalid post ID")
		return
	}

	var p DraftParams
	if !httputil.Decode(w, r, &p) {
		return
	}

	post, err := h.engine.Update(r.Context(), operatorID(r), id, p)
	if err != nil {
		httputil.FromError(w, err)
		return
	}
	httputil.OK(w, post)
}

// HandleDelete removes a draft post.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		httputil.BadRequest(w, "invalid post ID")
		return
	}

	if err := h.engine.Delete(r.Context(), operatorID(r), id); err != nil {
		httputil.FromError(w, err)
		return
	}
	httputil.NoContent(w)
}

// HandleSchedule queues a draft post for publishing.
func (h *Handlers) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		httputil.BadRequest(w, "invalid post ID")
		return
	}

	var req struct {
		ScheduledAt time.Time `json:"scheduled_at"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}

	post, err := h.engine.Schedule(r.Context(), operatorID(r), id, req.ScheduledAt)
	if err != nil {
		httputil.FromError(w, err)
		return
	}
	httputil.OK(w, post)
}
