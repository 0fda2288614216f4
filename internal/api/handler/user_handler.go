package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"quibble/internal/api/middleware"
	"quibble/internal/app/service"
	"quibble/internal/common"
	"quibble/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	userService *service.UserService
	gate        *middleware.Authenticator
}

func NewUserHandler(userService *service.UserService, gate *middleware.Authenticator) *UserHandler {
	return &UserHandler{userService: userService, gate: gate}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Use(h.gate.Require)
	r.Get("/{userID}", h.get)
	r.Patch("/{userID}/username", h.changeUsername)
	r.Patch("/{userID}/access-level", h.setAccessLevel)
}

func (h *UserHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id")
		return
	}

	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) changeUsername(w http.ResponseWriter, r *http.Request) {
	targetID, err := userIDParam(r)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id")
		return
	}
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload")
		return
	}

	actor, _ := middleware.GetIdentity(r.Context())
	user, err := h.userService.ChangeUsername(r.Context(), actor, targetID, req.Username)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) setAccessLevel(w http.ResponseWriter, r *http.Request) {
	targetID, err := userIDParam(r)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id")
		return
	}
	var req struct {
		AccessLevel model.AccessLevel `json:"access_level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload")
		return
	}

	actor, _ := middleware.GetIdentity(r.Context())
	user, err := h.userService.SetAccessLevel(r.Context(), actor, targetID, req.AccessLevel)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func userIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
}
