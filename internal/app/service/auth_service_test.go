package service

import (
	"context"
	"testing"
	"time"

	"quibble/internal/common"
	"quibble/internal/common/security"
	"quibble/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

// stubUserRepo is an in-memory UserRepository. Lookups return copies, the way
// the pg repository materializes a fresh row each call.
type stubUserRepo struct {
	users         map[int64]*model.User
	nextID        int64
	findByIDCalls int
}

func newStubUserRepo(users ...*model.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[int64]*model.User), nextID: 1000}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *stubUserRepo) Create(ctx context.Context, user *model.User) error {
	for _, u := range r.users {
		if u.Username == user.Username {
			return common.ErrConflict
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.JoinedAt = time.Now()
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *stubUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *stubUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	r.findByIDCalls++
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *stubUserRepo) UpdateUsername(ctx context.Context, id int64, username string) error {
	u, ok := r.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.Username = username
	return nil
}

func (r *stubUserRepo) UpdateAccessLevel(ctx context.Context, id int64, level model.AccessLevel) error {
	u, ok := r.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.AccessLevel = level
	return nil
}

func newCodec() *security.TokenCodec {
	return security.NewTokenCodec(testSecret, 15*time.Minute, 24*time.Hour)
}

// expiredAccessToken signs an already-expired access token with the shared
// secret.
func expiredAccessToken(t *testing.T, user *model.User) string {
	t.Helper()
	codec := security.NewTokenCodec(testSecret, -time.Minute, 24*time.Hour)
	token, _, err := codec.IssueAccess(user)
	require.NoError(t, err)
	return token
}

func expiredRefreshToken(t *testing.T, userID int64) string {
	t.Helper()
	codec := security.NewTokenCodec(testSecret, 15*time.Minute, -time.Minute)
	token, _, err := codec.IssueRefresh(userID)
	require.NoError(t, err)
	return token
}

func storedUser() *model.User {
	return &model.User{
		ID:          42,
		Username:    "alice",
		AccessLevel: model.LevelUser,
		JoinedAt:    time.Now().Add(-24 * time.Hour),
	}
}

func TestResolveValidAccessTokenSkipsStore(t *testing.T) {
	repo := newStubUserRepo(storedUser())
	svc := NewAuthService(repo, newCodec())

	token, _, err := newCodec().IssueAccess(storedUser())
	require.NoError(t, err)

	sess, err := svc.Resolve(context.Background(), Credentials{AccessToken: token})
	require.NoError(t, err)
	assert.False(t, sess.Renewed)
	assert.Equal(t, int64(42), sess.Identity.UserID)
	assert.Equal(t, "alice", sess.Identity.Username)
	assert.Equal(t, model.LevelUser, sess.Identity.AccessLevel)
	// The hot path never consults the credential store.
	assert.Zero(t, repo.findByIDCalls)
}

func TestResolveRenewsFromRefreshToken(t *testing.T) {
	user := storedUser()
	repo := newStubUserRepo(user)
	codec := newCodec()
	svc := NewAuthService(repo, codec)

	// The stale claim says level 1; the store has since promoted alice.
	stale := expiredAccessToken(t, storedUser())
	user.AccessLevel = model.LevelAdmin
	user.Username = "alice-renamed"

	refresh, _, err := codec.IssueRefresh(42)
	require.NoError(t, err)

	sess, err := svc.Resolve(context.Background(), Credentials{
		AccessToken:      stale,
		RefreshToken:     refresh,
		RefreshPresented: true,
	})
	require.NoError(t, err)
	assert.True(t, sess.Renewed)
	assert.NotEmpty(t, sess.NewAccessToken)

	// Identity reflects the store's current values, not the stale claim.
	assert.Equal(t, model.LevelAdmin, sess.Identity.AccessLevel)
	assert.Equal(t, "alice-renamed", sess.Identity.Username)

	// The renewed credential verifies and carries the same values.
	claims, err := codec.VerifyAccess(sess.NewAccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.LevelAdmin, claims.AccessLevel)
	assert.Equal(t, "alice-renamed", claims.Username)
}

func TestResolveNoCredentials(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), newCodec())

	_, err := svc.Resolve(context.Background(), Credentials{})
	assert.ErrorIs(t, err, common.ErrNotLoggedIn)
}

func TestResolveExpiredAccessWithoutRefresh(t *testing.T) {
	repo := newStubUserRepo(storedUser())
	svc := NewAuthService(repo, newCodec())

	_, err := svc.Resolve(context.Background(), Credentials{
		AccessToken: expiredAccessToken(t, storedUser()),
	})
	assert.ErrorIs(t, err, common.ErrNotLoggedIn)
	assert.Zero(t, repo.findByIDCalls)
}

func TestResolveExpiredRefresh(t *testing.T) {
	repo := newStubUserRepo(storedUser())
	svc := NewAuthService(repo, newCodec())

	_, err := svc.Resolve(context.Background(), Credentials{
		AccessToken:      expiredAccessToken(t, storedUser()),
		RefreshToken:     expiredRefreshToken(t, 42),
		RefreshPresented: true,
	})
	assert.ErrorIs(t, err, common.ErrLoginEnded)
	// Verification failed before any store lookup.
	assert.Zero(t, repo.findByIDCalls)
}

func TestResolveRefreshForVanishedUser(t *testing.T) {
	repo := newStubUserRepo() // empty store
	codec := newCodec()
	svc := NewAuthService(repo, codec)

	refresh, _, err := codec.IssueRefresh(42)
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), Credentials{
		RefreshToken:     refresh,
		RefreshPresented: true,
	})
	assert.ErrorIs(t, err, common.ErrLoginEnded)
}

func TestSignupAndLogin(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo, newCodec())
	ctx := context.Background()

	resp, err := svc.Signup(ctx, SignupRequest{Username: "bob", Password: "hunter2hunter2"})
	require.NoError(t, err)
	assert.Equal(t, model.LevelUser, resp.User.AccessLevel)
	assert.Empty(t, resp.User.PasswordHash)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)

	login, err := svc.Login(ctx, LoginRequest{Username: "bob", Password: "hunter2hunter2"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = svc.Login(ctx, LoginRequest{Username: "bob", Password: "wrong-password"})
	assert.ErrorIs(t, err, common.ErrBadCredentials)

	_, err = svc.Login(ctx, LoginRequest{Username: "nobody", Password: "hunter2hunter2"})
	assert.ErrorIs(t, err, common.ErrBadCredentials)
}

func TestSignupValidation(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), newCodec())
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupRequest{Username: "ab", Password: "longenough"})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Signup(ctx, SignupRequest{Username: "valid-name", Password: "short"})
	assert.ErrorIs(t, err, common.ErrValidation)
}
