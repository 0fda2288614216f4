package service

import (
	"context"
	"testing"

	"quibble/internal/common"
	"quibble/internal/domain/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDiscussionRepo struct {
	discussions map[string]*model.Discussion
	votes       map[string]map[int64]string // discussionID -> userID -> choiceID
	tallyCalls  int
}

func newStubDiscussionRepo() *stubDiscussionRepo {
	return &stubDiscussionRepo{
		discussions: make(map[string]*model.Discussion),
		votes:       make(map[string]map[int64]string),
	}
}

func (r *stubDiscussionRepo) Create(ctx context.Context, d *model.Discussion) error {
	for _, existing := range r.discussions {
		if existing.Slug == d.Slug {
			return common.ErrConflict
		}
	}
	copied := *d
	r.discussions[d.ID] = &copied
	return nil
}

func (r *stubDiscussionRepo) FindByID(ctx context.Context, id string) (*model.Discussion, error) {
	d, ok := r.discussions[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (r *stubDiscussionRepo) FindBySlug(ctx context.Context, slug string) (*model.Discussion, error) {
	for _, d := range r.discussions {
		if d.Slug == slug {
			copied := *d
			return &copied, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *stubDiscussionRepo) List(ctx context.Context, limit, offset int) ([]model.Discussion, error) {
	var out []model.Discussion
	for _, d := range r.discussions {
		out = append(out, *d)
	}
	return out, nil
}

func (r *stubDiscussionRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.discussions[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.discussions, id)
	return nil
}

func (r *stubDiscussionRepo) InsertVote(ctx context.Context, v *model.Vote) error {
	byUser, ok := r.votes[v.DiscussionID]
	if !ok {
		byUser = make(map[int64]string)
		r.votes[v.DiscussionID] = byUser
	}
	if _, voted := byUser[v.UserID]; voted {
		return common.ErrConflict
	}
	byUser[v.UserID] = v.ChoiceID
	return nil
}

func (r *stubDiscussionRepo) Tally(ctx context.Context, discussionID string) (map[string]int, error) {
	r.tallyCalls++
	tally := make(map[string]int)
	if d, ok := r.discussions[discussionID]; ok {
		for _, c := range d.Choices {
			tally[c.ID] = 0
		}
	}
	for _, choiceID := range r.votes[discussionID] {
		tally[choiceID]++
	}
	return tally, nil
}

func newDiscussionService(t *testing.T) (*DiscussionService, *stubDiscussionRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := newStubDiscussionRepo()
	return NewDiscussionService(repo, client), repo
}

func TestCreateDiscussion(t *testing.T) {
	svc, _ := newDiscussionService(t)

	d, err := svc.Create(context.Background(), identity(1, model.LevelUser), CreateDiscussionRequest{
		Title:   "Tabs or Spaces?",
		Choices: []string{"Tabs", "Spaces"},
	})
	require.NoError(t, err)
	assert.Equal(t, "tabs-or-spaces", d.Slug)
	assert.Len(t, d.Choices, 2)
	assert.Equal(t, int64(1), d.AuthorID)
}

func TestCreateDiscussionValidation(t *testing.T) {
	svc, _ := newDiscussionService(t)
	ctx := context.Background()
	actor := identity(1, model.LevelUser)

	_, err := svc.Create(ctx, actor, CreateDiscussionRequest{Title: "One choice", Choices: []string{"only"}})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Create(ctx, actor, CreateDiscussionRequest{Title: "Dupes", Choices: []string{"a", "a"}})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Create(ctx, actor, CreateDiscussionRequest{Title: "x", Choices: []string{"a", "b"}})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestGetBySlugTallyCached(t *testing.T) {
	svc, repo := newDiscussionService(t)
	ctx := context.Background()

	d, err := svc.Create(ctx, identity(1, model.LevelUser), CreateDiscussionRequest{
		Title:   "Cached Tally",
		Choices: []string{"yes", "no"},
	})
	require.NoError(t, err)

	_, err = svc.GetBySlug(ctx, d.Slug)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.tallyCalls)

	// Second read is served from the cache.
	_, err = svc.GetBySlug(ctx, d.Slug)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.tallyCalls)
}

func TestVoteInvalidatesTally(t *testing.T) {
	svc, repo := newDiscussionService(t)
	ctx := context.Background()

	d, err := svc.Create(ctx, identity(1, model.LevelUser), CreateDiscussionRequest{
		Title:   "Vote Flow",
		Choices: []string{"yes", "no"},
	})
	require.NoError(t, err)

	_, err = svc.GetBySlug(ctx, d.Slug) // primes the cache
	require.NoError(t, err)

	require.NoError(t, svc.Vote(ctx, identity(7, model.LevelUser), d.ID, d.Choices[0].ID))

	got, err := svc.GetBySlug(ctx, d.Slug)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.tallyCalls)
	assert.Equal(t, 1, got.Choices[0].Votes)

	// Second vote by the same user is a conflict.
	err = svc.Vote(ctx, identity(7, model.LevelUser), d.ID, d.Choices[1].ID)
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestDeleteDiscussionRequiresModerator(t *testing.T) {
	svc, _ := newDiscussionService(t)
	ctx := context.Background()

	d, err := svc.Create(ctx, identity(1, model.LevelUser), CreateDiscussionRequest{
		Title:   "To Be Deleted",
		Choices: []string{"a", "b"},
	})
	require.NoError(t, err)

	err = svc.Delete(ctx, identity(1, model.LevelUser), d.ID)
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	require.NoError(t, svc.Delete(ctx, identity(2, model.LevelModerator), d.ID))
}
