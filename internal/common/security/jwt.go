package security

import (
	"encoding/json"
	"errors"
	"time"

	"quibble/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claim kind marker, so a refresh token can never pass as an access token.
const (
	typAccess  = "access"
	typRefresh = "refresh"
)

// AccessClaims is the payload of a short-lived access token.
type AccessClaims struct {
	UserID      int64
	Username    string
	AccessLevel model.AccessLevel
	ExpiresAt   time.Time
}

// RefreshClaims is the payload of a long-lived refresh token. It carries only
// the subject; username and access level are re-read from the store on renewal.
type RefreshClaims struct {
	UserID    int64
	ExpiresAt time.Time
}

// TokenCodec signs and verifies session claims with a process-wide secret.
// Rotating the secret invalidates every outstanding token.
type TokenCodec struct {
	auth       *jwtauth.JWTAuth
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenCodec(secret []byte, accessTTL, refreshTTL time.Duration) *TokenCodec {
	return &TokenCodec{
		auth:       jwtauth.New("HS256", secret, nil),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (c *TokenCodec) IssueAccess(user *model.User) (string, time.Time, error) {
	expiry := time.Now().Add(c.accessTTL)
	claims := jwt.MapClaims{
		"typ":          typAccess,
		"user_id":      user.ID,
		"username":     user.Username,
		"access_level": int(user.AccessLevel),
	}
	jwtauth.SetExpiry(claims, expiry)
	jwtauth.SetIssuedNow(claims)
	_, tokenString, err := c.auth.Encode(claims)
	return tokenString, expiry, err
}

func (c *TokenCodec) IssueRefresh(userID int64) (string, time.Time, error) {
	expiry := time.Now().Add(c.refreshTTL)
	claims := jwt.MapClaims{
		"typ":     typRefresh,
		"user_id": userID,
	}
	jwtauth.SetExpiry(claims, expiry)
	jwtauth.SetIssuedNow(claims)
	_, tokenString, err := c.auth.Encode(claims)
	return tokenString, expiry, err
}

func (c *TokenCodec) VerifyAccess(tokenString string) (*AccessClaims, error) {
	token, err := jwtauth.VerifyToken(c.auth, tokenString)
	if err != nil {
		return nil, translateTokenError(err)
	}

	private := token.PrivateClaims()
	if private["typ"] != typAccess {
		return nil, ErrTokenInvalid
	}
	userID, ok := claimInt64(private["user_id"])
	if !ok {
		return nil, ErrTokenInvalid
	}
	username, ok := private["username"].(string)
	if !ok || username == "" {
		return nil, ErrTokenInvalid
	}
	level, ok := claimInt64(private["access_level"])
	if !ok || !model.AccessLevel(level).Valid() {
		return nil, ErrTokenInvalid
	}

	return &AccessClaims{
		UserID:      userID,
		Username:    username,
		AccessLevel: model.AccessLevel(level),
		ExpiresAt:   token.Expiration(),
	}, nil
}

func (c *TokenCodec) VerifyRefresh(tokenString string) (*RefreshClaims, error) {
	token, err := jwtauth.VerifyToken(c.auth, tokenString)
	if err != nil {
		return nil, translateTokenError(err)
	}

	private := token.PrivateClaims()
	if private["typ"] != typRefresh {
		return nil, ErrTokenInvalid
	}
	userID, ok := claimInt64(private["user_id"])
	if !ok {
		return nil, ErrTokenInvalid
	}

	return &RefreshClaims{UserID: userID, ExpiresAt: token.Expiration()}, nil
}

func translateTokenError(err error) error {
	if errors.Is(err, jwtauth.ErrExpired) {
		return ErrTokenExpired
	}
	return ErrTokenInvalid
}

// claimInt64 normalizes the numeric representations a decoded JWT claim can
// arrive in.
func claimInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}
