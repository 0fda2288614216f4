package model

import (
	"time"
)

// AccessLevel is the ordinal role rank. Higher values hold a superset of the
// privileges of lower ones.
type AccessLevel int

const (
	LevelUser AccessLevel = iota + 1
	LevelModerator
	LevelAdmin
	LevelDeveloper
)

func (l AccessLevel) Valid() bool {
	return l >= LevelUser && l <= LevelDeveloper
}

func (l AccessLevel) AtLeast(min AccessLevel) bool {
	return l >= min
}

func (l AccessLevel) String() string {
	switch l {
	case LevelUser:
		return "user"
	case LevelModerator:
		return "moderator"
	case LevelAdmin:
		return "admin"
	case LevelDeveloper:
		return "developer"
	}
	return "unknown"
}

type User struct {
	ID           int64       `json:"id"`
	Username     string      `json:"username"`
	PasswordHash string      `json:"-"` // Not exposed
	AccessLevel  AccessLevel `json:"access_level"`
	JoinedAt     time.Time   `json:"joined_at"`
}

// Identity is the request-scoped result of a verified access claim. It lives
// only for the duration of one request and is read from the request context by
// handlers and policy checks.
type Identity struct {
	UserID      int64       `json:"id"`
	Username    string      `json:"username"`
	AccessLevel AccessLevel `json:"access_level"`
	ExpiresAt   time.Time   `json:"expires_at"`
}
