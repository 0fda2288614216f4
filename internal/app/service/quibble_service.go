package service

import (
	"context"
	"fmt"
	"strings"

	"quibble/internal/common"
	"quibble/internal/domain/model"
	"quibble/internal/domain/repository"

	"github.com/google/uuid"
)

type QuibbleService struct {
	quibbleRepo repository.QuibbleRepository
}

func NewQuibbleService(quibbleRepo repository.QuibbleRepository) *QuibbleService {
	return &QuibbleService{quibbleRepo: quibbleRepo}
}

func (s *QuibbleService) Post(ctx context.Context, actor *model.Identity, discussionID, body string) (*model.Quibble, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("quibble body is required: %w", common.ErrValidation)
	}
	if len(body) > model.MaxQuibbleLength {
		return nil, fmt.Errorf("quibble body exceeds %d characters: %w", model.MaxQuibbleLength, common.ErrValidation)
	}

	q := &model.Quibble{
		ID:           uuid.NewString(),
		DiscussionID: discussionID,
		AuthorID:     actor.UserID,
		AuthorName:   actor.Username,
		Body:         body,
	}
	if err := s.quibbleRepo.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuibbleService) ListByDiscussion(ctx context.Context, discussionID string) ([]model.Quibble, error) {
	return s.quibbleRepo.ListByDiscussion(ctx, discussionID)
}

// Delete allows the author to remove their own quibble; anyone else needs
// moderator level.
func (s *QuibbleService) Delete(ctx context.Context, actor *model.Identity, id string) error {
	q, err := s.quibbleRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if actor == nil || actor.UserID != q.AuthorID {
		if err := RequireLevel(actor, model.LevelModerator); err != nil {
			return err
		}
	}
	return s.quibbleRepo.Delete(ctx, id)
}

func (s *QuibbleService) Condemn(ctx context.Context, actor *model.Identity, quibbleID, reason string) error {
	if len(reason) > 200 {
		return fmt.Errorf("reason exceeds 200 characters: %w", common.ErrValidation)
	}
	return s.quibbleRepo.InsertCondemnation(ctx, &model.Condemnation{
		QuibbleID: quibbleID,
		UserID:    actor.UserID,
		Reason:    strings.TrimSpace(reason),
	})
}
