package model

import (
	"time"
)

type Discussion struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	AuthorID  int64     `json:"author_id"`
	Choices   []Choice  `json:"choices,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Choice struct {
	ID           string `json:"id"`
	DiscussionID string `json:"-"`
	Label        string `json:"label"`
	Votes        int    `json:"votes"`
}

// Vote records one user's single vote in a discussion. Uniqueness of
// (discussion_id, user_id) is enforced by the store.
type Vote struct {
	DiscussionID string    `json:"discussion_id"`
	ChoiceID     string    `json:"choice_id"`
	UserID       int64     `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
}
