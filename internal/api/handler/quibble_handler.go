package handler

import (
	"encoding/json"
	"net/http"

	"quibble/internal/api/middleware"
	"quibble/internal/app/service"
	"quibble/internal/common"

	"github.com/go-chi/chi/v5"
)

type QuibbleHandler struct {
	quibbleService *service.QuibbleService
	gate           *middleware.Authenticator
}

func NewQuibbleHandler(quibbleService *service.QuibbleService, gate *middleware.Authenticator) *QuibbleHandler {
	return &QuibbleHandler{quibbleService: quibbleService, gate: gate}
}

// RegisterDiscussionRoutes mounts the per-discussion quibble routes; it is
// called from the discussion handler under /{discussionID}.
func (h *QuibbleHandler) RegisterDiscussionRoutes(r chi.Router) {
	r.With(h.gate.Allow).Get("/quibbles", h.list)
	r.With(h.gate.Require).Post("/quibbles", h.post)
}

// RegisterRoutes mounts the routes addressing a quibble directly.
func (h *QuibbleHandler) RegisterRoutes(r chi.Router) {
	r.Use(h.gate.Require)
	r.Delete("/{quibbleID}", h.delete)
	r.Post("/{quibbleID}/condemn", h.condemn)
}

func (h *QuibbleHandler) list(w http.ResponseWriter, r *http.Request) {
	quibbles, err := h.quibbleService.ListByDiscussion(r.Context(), chi.URLParam(r, "discussionID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, quibbles)
}

func (h *QuibbleHandler) post(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload")
		return
	}

	actor, _ := middleware.GetIdentity(r.Context())
	quibble, err := h.quibbleService.Post(r.Context(), actor, chi.URLParam(r, "discussionID"), req.Body)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, quibble)
}

func (h *QuibbleHandler) delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetIdentity(r.Context())
	if err := h.quibbleService.Delete(r.Context(), actor, chi.URLParam(r, "quibbleID")); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *QuibbleHandler) condemn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		// Reason is optional; an empty body is fine.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	actor, _ := middleware.GetIdentity(r.Context())
	err := h.quibbleService.Condemn(r.Context(), actor, chi.URLParam(r, "quibbleID"), req.Reason)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, map[string]bool{"condemned": true})
}
