package handler

import (
	"encoding/json"
	"net/http"

	"quibble/internal/api/middleware"
	"quibble/internal/app/service"
	"quibble/internal/common"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService *service.AuthService
	gate        *middleware.Authenticator
	secure      bool
}

func NewAuthHandler(authService *service.AuthService, gate *middleware.Authenticator, secure bool) *AuthHandler {
	return &AuthHandler{authService: authService, gate: gate, secure: secure}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/signup", h.signup)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.With(h.gate.Require).Get("/session", h.session)
	r.With(h.gate.Require).Get("/me", h.me)
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload")
		return
	}

	resp, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	h.setSessionCookies(w, resp.Tokens)
	common.RespondWithJSON(w, http.StatusCreated, resp.User)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload")
		return
	}

	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	h.setSessionCookies(w, resp.Tokens)
	common.RespondWithJSON(w, http.StatusOK, resp.User)
}

// logout only discards the client-side credentials; there is no server-side
// session state to tear down.
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSessionCookies(w, h.secure)
	common.RespondWithJSON(w, http.StatusOK, map[string]bool{"logged_out": true})
}

// session is the probe endpoint: the strict gate has already done the work.
func (h *AuthHandler) session(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		common.RespondWithDomainError(w, common.ErrNotLoggedIn)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"active":     true,
		"expires_at": id.ExpiresAt,
	})
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		common.RespondWithDomainError(w, common.ErrNotLoggedIn)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, id)
}

func (h *AuthHandler) setSessionCookies(w http.ResponseWriter, tokens service.TokenPair) {
	http.SetCookie(w, middleware.AccessCookie(tokens.AccessToken, tokens.AccessExpiry, h.secure))
	http.SetCookie(w, middleware.RefreshCookie(tokens.RefreshToken, tokens.RefreshExpiry, h.secure))
}
