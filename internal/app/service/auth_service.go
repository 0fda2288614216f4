package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quibble/internal/common"
	"quibble/internal/common/security"
	"quibble/internal/domain/model"
	"quibble/internal/domain/repository"
)

// AuthService issues sessions on signup/login and resolves incoming request
// credentials into an identity, silently renewing expired access tokens from
// the refresh token.
type AuthService struct {
	userRepo repository.UserRepository
	codec    *security.TokenCodec
}

func NewAuthService(userRepo repository.UserRepository, codec *security.TokenCodec) *AuthService {
	return &AuthService{userRepo: userRepo, codec: codec}
}

type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenPair struct {
	AccessToken   string
	AccessExpiry  time.Time
	RefreshToken  string
	RefreshExpiry time.Time
}

type AuthResponse struct {
	User   *model.User
	Tokens TokenPair
}

// Credentials is the raw token material extracted from one request.
// RefreshPresented records whether the refresh carrier existed at all, which
// decides the failure terminal (never-logged-in vs session-ended).
type Credentials struct {
	AccessToken      string
	RefreshToken     string
	RefreshPresented bool
}

// Session is the outcome of a successful resolution. When Renewed is set the
// caller must hand NewAccessToken back to the client as the fresh credential.
type Session struct {
	Identity        *model.Identity
	NewAccessToken  string
	NewAccessExpiry time.Time
	Renewed         bool
}

func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if len(req.Username) < 3 || len(req.Username) > 32 {
		return nil, fmt.Errorf("username must be 3-32 characters: %w", common.ErrValidation)
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters: %w", common.ErrValidation)
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     req.Username,
		PasswordHash: hash,
		AccessLevel:  model.LevelUser, // Default level
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.authResponse(user)
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}

	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrBadCredentials // Generic message for security
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !security.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, common.ErrBadCredentials
	}

	return s.authResponse(user)
}

func (s *AuthService) authResponse(user *model.User) (*AuthResponse, error) {
	access, accessExpiry, err := s.codec.IssueAccess(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, refreshExpiry, err := s.codec.IssueRefresh(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}
	user.PasswordHash = ""
	return &AuthResponse{
		User: user,
		Tokens: TokenPair{
			AccessToken:   access,
			AccessExpiry:  accessExpiry,
			RefreshToken:  refresh,
			RefreshExpiry: refreshExpiry,
		},
	}, nil
}

// Resolve turns request credentials into a Session. The access token is
// checked first; the store is consulted only on the renewal path. Renewal
// mints the new access claim from the store's current username and access
// level, so role changes take effect when the old claim expires.
//
// Failure terminals: ErrLoginEnded when a refresh credential was presented
// but rejected (including the subject user no longer existing), ErrNotLoggedIn
// when none was presented. A store fault other than not-found is returned
// as-is.
func (s *AuthService) Resolve(ctx context.Context, creds Credentials) (*Session, error) {
	if creds.AccessToken != "" {
		if claims, err := s.codec.VerifyAccess(creds.AccessToken); err == nil {
			return &Session{Identity: &model.Identity{
				UserID:      claims.UserID,
				Username:    claims.Username,
				AccessLevel: claims.AccessLevel,
				ExpiresAt:   claims.ExpiresAt,
			}}, nil
		}
	}

	if !creds.RefreshPresented {
		return nil, common.ErrNotLoggedIn
	}

	refresh, err := s.codec.VerifyRefresh(creds.RefreshToken)
	if err != nil {
		return nil, common.ErrLoginEnded
	}

	user, err := s.userRepo.FindByID(ctx, refresh.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Subject vanished since the refresh token was minted.
			return nil, common.ErrLoginEnded
		}
		return nil, err
	}

	token, expiry, err := s.codec.IssueAccess(user)
	if err != nil {
		return nil, fmt.Errorf("failed to renew access token: %w", err)
	}
	return &Session{
		Identity: &model.Identity{
			UserID:      user.ID,
			Username:    user.Username,
			AccessLevel: user.AccessLevel,
			ExpiresAt:   expiry,
		},
		NewAccessToken:  token,
		NewAccessExpiry: expiry,
		Renewed:         true,
	}, nil
}
