package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"quibble/internal/common"
	"quibble/internal/domain/model"
	"quibble/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/redis/go-redis/v9"
)

const (
	minChoices = 2
	maxChoices = 8

	tallyCacheTTL = 30 * time.Second
)

type DiscussionService struct {
	discussionRepo repository.DiscussionRepository
	cache          *redis.Client
}

func NewDiscussionService(discussionRepo repository.DiscussionRepository, cache *redis.Client) *DiscussionService {
	return &DiscussionService{discussionRepo: discussionRepo, cache: cache}
}

type CreateDiscussionRequest struct {
	Title   string   `json:"title"`
	Body    string   `json:"body"`
	Choices []string `json:"choices"`
}

func (s *DiscussionService) Create(ctx context.Context, actor *model.Identity, req CreateDiscussionRequest) (*model.Discussion, error) {
	req.Title = strings.TrimSpace(req.Title)
	if len(req.Title) < 3 || len(req.Title) > 120 {
		return nil, fmt.Errorf("title must be 3-120 characters: %w", common.ErrValidation)
	}
	if len(req.Choices) < minChoices || len(req.Choices) > maxChoices {
		return nil, fmt.Errorf("a discussion needs %d-%d choices: %w", minChoices, maxChoices, common.ErrValidation)
	}
	seen := make(map[string]bool, len(req.Choices))
	choices := make([]model.Choice, 0, len(req.Choices))
	for _, label := range req.Choices {
		label = strings.TrimSpace(label)
		if label == "" || seen[label] {
			return nil, fmt.Errorf("choice labels must be non-empty and unique: %w", common.ErrValidation)
		}
		seen[label] = true
		choices = append(choices, model.Choice{ID: uuid.NewString(), Label: label})
	}

	d := &model.Discussion{
		ID:       uuid.NewString(),
		Slug:     slug.Make(req.Title),
		Title:    req.Title,
		Body:     strings.TrimSpace(req.Body),
		AuthorID: actor.UserID,
		Choices:  choices,
	}
	if err := s.discussionRepo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// GetBySlug returns the discussion with per-choice vote counts filled in.
func (s *DiscussionService) GetBySlug(ctx context.Context, slugStr string) (*model.Discussion, error) {
	d, err := s.discussionRepo.FindBySlug(ctx, slugStr)
	if err != nil {
		return nil, err
	}
	tally, err := s.tally(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	for i := range d.Choices {
		d.Choices[i].Votes = tally[d.Choices[i].ID]
	}
	return d, nil
}

func (s *DiscussionService) List(ctx context.Context, limit, offset int) ([]model.Discussion, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.discussionRepo.List(ctx, limit, offset)
}

func (s *DiscussionService) Delete(ctx context.Context, actor *model.Identity, id string) error {
	if err := RequireLevel(actor, model.LevelModerator); err != nil {
		return err
	}
	if err := s.discussionRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Del(ctx, tallyKey(id))
	return nil
}

// Vote casts the actor's single vote in a discussion and drops the cached
// tally so the next read reflects it.
func (s *DiscussionService) Vote(ctx context.Context, actor *model.Identity, discussionID, choiceID string) error {
	if choiceID == "" {
		return fmt.Errorf("choice_id is required: %w", common.ErrValidation)
	}
	err := s.discussionRepo.InsertVote(ctx, &model.Vote{
		DiscussionID: discussionID,
		ChoiceID:     choiceID,
		UserID:       actor.UserID,
	})
	if err != nil {
		return err
	}
	s.cache.Del(ctx, tallyKey(discussionID))
	return nil
}

func (s *DiscussionService) tally(ctx context.Context, discussionID string) (map[string]int, error) {
	key := tallyKey(discussionID)
	if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
		tally := make(map[string]int)
		if err := json.Unmarshal([]byte(cached), &tally); err == nil {
			return tally, nil
		}
	}

	tally, err := s.discussionRepo.Tally(ctx, discussionID)
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(tally); err == nil {
		// Best effort; a cache miss next time just re-reads postgres.
		s.cache.Set(ctx, key, encoded, tallyCacheTTL)
	}
	return tally, nil
}

func tallyKey(discussionID string) string {
	return "discussion:tally:" + discussionID
}
