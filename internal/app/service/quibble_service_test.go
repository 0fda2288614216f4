package service

import (
	"context"
	"strings"
	"testing"

	"quibble/internal/common"
	"quibble/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQuibbleRepo struct {
	quibbles      map[string]*model.Quibble
	condemnations map[string]map[int64]bool
}

func newStubQuibbleRepo() *stubQuibbleRepo {
	return &stubQuibbleRepo{
		quibbles:      make(map[string]*model.Quibble),
		condemnations: make(map[string]map[int64]bool),
	}
}

func (r *stubQuibbleRepo) Create(ctx context.Context, q *model.Quibble) error {
	copied := *q
	r.quibbles[q.ID] = &copied
	return nil
}

func (r *stubQuibbleRepo) FindByID(ctx context.Context, id string) (*model.Quibble, error) {
	q, ok := r.quibbles[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *q
	return &copied, nil
}

func (r *stubQuibbleRepo) ListByDiscussion(ctx context.Context, discussionID string) ([]model.Quibble, error) {
	var out []model.Quibble
	for _, q := range r.quibbles {
		if q.DiscussionID == discussionID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (r *stubQuibbleRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.quibbles[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.quibbles, id)
	return nil
}

func (r *stubQuibbleRepo) InsertCondemnation(ctx context.Context, c *model.Condemnation) error {
	if _, ok := r.quibbles[c.QuibbleID]; !ok {
		return common.ErrNotFound
	}
	byUser, ok := r.condemnations[c.QuibbleID]
	if !ok {
		byUser = make(map[int64]bool)
		r.condemnations[c.QuibbleID] = byUser
	}
	if byUser[c.UserID] {
		return common.ErrConflict
	}
	byUser[c.UserID] = true
	return nil
}

func TestPostQuibble(t *testing.T) {
	repo := newStubQuibbleRepo()
	svc := NewQuibbleService(repo)
	ctx := context.Background()

	q, err := svc.Post(ctx, identity(1, model.LevelUser), "disc-1", "  first!  ")
	require.NoError(t, err)
	assert.Equal(t, "first!", q.Body)
	assert.Equal(t, "actor", q.AuthorName)

	_, err = svc.Post(ctx, identity(1, model.LevelUser), "disc-1", "   ")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Post(ctx, identity(1, model.LevelUser), "disc-1", strings.Repeat("x", model.MaxQuibbleLength+1))
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestDeleteQuibbleAuthorOrModerator(t *testing.T) {
	repo := newStubQuibbleRepo()
	svc := NewQuibbleService(repo)
	ctx := context.Background()

	q, err := svc.Post(ctx, identity(1, model.LevelUser), "disc-1", "delete me")
	require.NoError(t, err)

	// A stranger without moderator level may not delete it.
	err = svc.Delete(ctx, identity(2, model.LevelUser), q.ID)
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	// The author may.
	require.NoError(t, svc.Delete(ctx, identity(1, model.LevelUser), q.ID))

	q, err = svc.Post(ctx, identity(1, model.LevelUser), "disc-1", "again")
	require.NoError(t, err)

	// So may a moderator.
	require.NoError(t, svc.Delete(ctx, identity(2, model.LevelModerator), q.ID))
}

func TestCondemnQuibbleOncePerUser(t *testing.T) {
	repo := newStubQuibbleRepo()
	svc := NewQuibbleService(repo)
	ctx := context.Background()

	q, err := svc.Post(ctx, identity(1, model.LevelUser), "disc-1", "controversial")
	require.NoError(t, err)

	require.NoError(t, svc.Condemn(ctx, identity(2, model.LevelUser), q.ID, "rude"))
	err = svc.Condemn(ctx, identity(2, model.LevelUser), q.ID, "still rude")
	assert.ErrorIs(t, err, common.ErrConflict)
}
