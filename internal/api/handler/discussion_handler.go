package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"quibble/internal/api/middleware"
	"quibble/internal/app/service"
	"quibble/internal/common"

	"github.com/go-chi/chi/v5"
)

type DiscussionHandler struct {
	discussionService *service.DiscussionService
	quibbleHandler    *QuibbleHandler
	gate              *middleware.Authenticator
}

func NewDiscussionHandler(discussionService *service.DiscussionService, quibbleHandler *QuibbleHandler, gate *middleware.Authenticator) *DiscussionHandler {
	return &DiscussionHandler{discussionService: discussionService, quibbleHandler: quibbleHandler, gate: gate}
}

func (h *DiscussionHandler) RegisterRoutes(r chi.Router) {
	r.With(h.gate.Allow).Get("/", h.list)
	r.With(h.gate.Require).Post("/", h.create)
	r.With(h.gate.Allow).Get("/slug/{slug}", h.getBySlug)
	r.Route("/{discussionID}", func(r chi.Router) {
		r.With(h.gate.Require).Delete("/", h.delete)
		r.With(h.gate.Require).Post("/votes", h.vote)
		h.quibbleHandler.RegisterDiscussionRoutes(r)
	})
}

func (h *DiscussionHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	discussions, err := h.discussionService.List(r.Context(), limit, offset)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, discussions)
}

func (h *DiscussionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateDiscussionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload")
		return
	}

	actor, _ := middleware.GetIdentity(r.Context())
	discussion, err := h.discussionService.Create(r.Context(), actor, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, discussion)
}

func (h *DiscussionHandler) getBySlug(w http.ResponseWriter, r *http.Request) {
	discussion, err := h.discussionService.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, discussion)
}

func (h *DiscussionHandler) delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetIdentity(r.Context())
	if err := h.discussionService.Delete(r.Context(), actor, chi.URLParam(r, "discussionID")); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DiscussionHandler) vote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChoiceID string `json:"choice_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload")
		return
	}

	actor, _ := middleware.GetIdentity(r.Context())
	err := h.discussionService.Vote(r.Context(), actor, chi.URLParam(r, "discussionID"), req.ChoiceID)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, map[string]bool{"voted": true})
}
