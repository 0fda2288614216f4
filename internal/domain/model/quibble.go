package model

import (
	"time"
)

// MaxQuibbleLength bounds the body of a single quibble.
const MaxQuibbleLength = 400

type Quibble struct {
	ID            string    `json:"id"`
	DiscussionID  string    `json:"discussion_id"`
	AuthorID      int64     `json:"author_id"`
	AuthorName    string    `json:"author_name"`
	Body          string    `json:"body"`
	Condemnations int       `json:"condemnations"`
	CreatedAt     time.Time `json:"created_at"`
}

// Condemnation flags a quibble for moderator attention. One per user per
// quibble, enforced by the store.
type Condemnation struct {
	QuibbleID string    `json:"quibble_id"`
	UserID    int64     `json:"user_id"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
