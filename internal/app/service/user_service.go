package service

import (
	"context"
	"fmt"
	"strings"

	"quibble/internal/common"
	"quibble/internal/domain/model"
	"quibble/internal/domain/repository"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// ChangeUsername applies the self-or-superior rule before renaming the target.
func (s *UserService) ChangeUsername(ctx context.Context, actor *model.Identity, targetID int64, username string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 32 {
		return nil, fmt.Errorf("username must be 3-32 characters: %w", common.ErrValidation)
	}

	target, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := CanEditUser(actor, target); err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateUsername(ctx, targetID, username); err != nil {
		return nil, err
	}
	target.Username = username
	target.PasswordHash = ""
	return target, nil
}

// SetAccessLevel applies the admin gate and the non-escalation rule. A changed
// level reaches the target's open sessions only when their current access
// token expires and is renewed.
func (s *UserService) SetAccessLevel(ctx context.Context, actor *model.Identity, targetID int64, level model.AccessLevel) (*model.User, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("unknown access level %d: %w", level, common.ErrValidation)
	}

	target, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := CanSetAccessLevel(actor, level); err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateAccessLevel(ctx, targetID, level); err != nil {
		return nil, err
	}
	target.AccessLevel = level
	target.PasswordHash = ""
	return target, nil
}
