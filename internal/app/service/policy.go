package service

import (
	"quibble/internal/common"
	"quibble/internal/domain/model"
)

// Authorization checks are pure functions of the identity and an
// already-fetched target snapshot. Callers must not perform the guarded
// operation when a check returns an error.

// RequireLevel gates an action behind a minimum access level.
func RequireLevel(id *model.Identity, min model.AccessLevel) error {
	if id == nil || !id.AccessLevel.AtLeast(min) {
		return common.ErrUnauthorized
	}
	return nil
}

// CanEditUser is the self-or-superior rule used for username changes: acting
// on yourself is always allowed; acting on a peer requires admin level and a
// strictly higher level than the target's.
func CanEditUser(id *model.Identity, target *model.User) error {
	if id == nil {
		return common.ErrUnauthorized
	}
	if id.UserID == target.ID {
		return nil
	}
	if !id.AccessLevel.AtLeast(model.LevelAdmin) || id.AccessLevel <= target.AccessLevel {
		return common.ErrUnauthorized
	}
	return nil
}

// CanSetAccessLevel compounds the non-escalation rule (never grant a level
// above your own) with the admin gate on level changes. Non-escalation is
// checked first so its reason code wins when both would fail.
func CanSetAccessLevel(id *model.Identity, requested model.AccessLevel) error {
	if id == nil {
		return common.ErrUnauthorized
	}
	if requested > id.AccessLevel {
		return common.ErrUnauthorizedAccessLevel
	}
	return RequireLevel(id, model.LevelAdmin)
}
