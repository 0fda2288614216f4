package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"quibble/internal/app/service"
	"quibble/internal/common"
	"quibble/internal/domain/model"
)

type contextKey string

const IdentityCtxKey contextKey = "identity"

// Credential carrier cookie names.
const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"
)

// Authenticator is the request gate: it extracts the credential cookies,
// resolves them through the session core, and attaches the identity to the
// request context. Strict routes are rejected with 401 before the handler
// runs; soft routes always reach the handler and treat identity as optional.
type Authenticator struct {
	sessions *service.AuthService
	secure   bool
}

func NewAuthenticator(sessions *service.AuthService, secure bool) *Authenticator {
	return &Authenticator{sessions: sessions, secure: secure}
}

// Require is the strict gate.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return a.gate(next, true)
}

// Allow is the soft gate.
func (a *Authenticator) Allow(next http.Handler) http.Handler {
	return a.gate(next, false)
}

func (a *Authenticator) gate(next http.Handler, strict bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := a.sessions.Resolve(r.Context(), credentialsFromRequest(r))
		if err != nil {
			// A rejected refresh credential ends the session on the client
			// too, in both modes.
			if errors.Is(err, common.ErrLoginEnded) {
				ClearSessionCookies(w, a.secure)
			}
			if strict {
				common.RespondWithDomainError(w, err)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		if sess.Renewed {
			http.SetCookie(w, AccessCookie(sess.NewAccessToken, sess.NewAccessExpiry, a.secure))
		}
		ctx := context.WithValue(r.Context(), IdentityCtxKey, sess.Identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func credentialsFromRequest(r *http.Request) service.Credentials {
	var creds service.Credentials
	if c, err := r.Cookie(AccessCookieName); err == nil {
		creds.AccessToken = c.Value
	}
	if c, err := r.Cookie(RefreshCookieName); err == nil {
		creds.RefreshToken = c.Value
		creds.RefreshPresented = true
	}
	return creds
}

// GetIdentity reads the authenticated identity from the request context.
func GetIdentity(ctx context.Context) (*model.Identity, bool) {
	id, ok := ctx.Value(IdentityCtxKey).(*model.Identity)
	return id, ok
}

func AccessCookie(token string, expires time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     AccessCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		SameSite: http.SameSiteStrictMode,
		Secure:   secure,
	}
}

func RefreshCookie(token string, expires time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		SameSite: http.SameSiteStrictMode,
		Secure:   secure,
		HttpOnly: true, // never readable from client-side code
	}
}

// ClearSessionCookies expires both credential carriers.
func ClearSessionCookies(w http.ResponseWriter, secure bool) {
	expired := time.Unix(0, 0)
	access := AccessCookie("", expired, secure)
	access.MaxAge = -1
	refresh := RefreshCookie("", expired, secure)
	refresh.MaxAge = -1
	http.SetCookie(w, access)
	http.SetCookie(w, refresh)
}
