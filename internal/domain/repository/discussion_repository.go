package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quibble/internal/common"
	"quibble/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type DiscussionRepository interface {
	Create(ctx context.Context, d *model.Discussion) error
	FindByID(ctx context.Context, id string) (*model.Discussion, error)
	FindBySlug(ctx context.Context, slug string) (*model.Discussion, error)
	List(ctx context.Context, limit, offset int) ([]model.Discussion, error)
	Delete(ctx context.Context, id string) error
	InsertVote(ctx context.Context, v *model.Vote) error
	Tally(ctx context.Context, discussionID string) (map[string]int, error)
}

type pgDiscussionRepository struct {
	db *sql.DB
}

func NewPgDiscussionRepository(db *sql.DB) DiscussionRepository {
	return &pgDiscussionRepository{db: db}
}

// Create inserts the discussion and its choices in one transaction.
func (r *pgDiscussionRepository) Create(ctx context.Context, d *model.Discussion) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgDiscussionRepository.Create: begin: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO discussions (id, slug, title, body, author_id)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING created_at`
	err = tx.QueryRowContext(ctx, query, d.ID, d.Slug, d.Title, d.Body, d.AuthorID).Scan(&d.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("discussion slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgDiscussionRepository.Create: %w", err)
	}

	for i := range d.Choices {
		c := &d.Choices[i]
		c.DiscussionID = d.ID
		_, err = tx.ExecContext(ctx,
			`INSERT INTO choices (id, discussion_id, label) VALUES ($1, $2, $3)`,
			c.ID, c.DiscussionID, c.Label)
		if err != nil {
			return fmt.Errorf("pgDiscussionRepository.Create: choice: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgDiscussionRepository.Create: commit: %w", err)
	}
	return nil
}

func (r *pgDiscussionRepository) FindByID(ctx context.Context, id string) (*model.Discussion, error) {
	return r.findOne(ctx, `WHERE d.id = $1`, id)
}

func (r *pgDiscussionRepository) FindBySlug(ctx context.Context, slug string) (*model.Discussion, error) {
	return r.findOne(ctx, `WHERE d.slug = $1`, slug)
}

func (r *pgDiscussionRepository) findOne(ctx context.Context, where string, arg interface{}) (*model.Discussion, error) {
	query := `SELECT d.id, d.slug, d.title, d.body, d.author_id, d.created_at
	          FROM discussions d ` + where
	d := &model.Discussion{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&d.ID, &d.Slug, &d.Title, &d.Body, &d.AuthorID, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgDiscussionRepository.findOne: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, discussion_id, label FROM choices WHERE discussion_id = $1 ORDER BY id`, d.ID)
	if err != nil {
		return nil, fmt.Errorf("pgDiscussionRepository.findOne: choices: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c model.Choice
		if err := rows.Scan(&c.ID, &c.DiscussionID, &c.Label); err != nil {
			return nil, fmt.Errorf("pgDiscussionRepository.findOne: scan choice: %w", err)
		}
		d.Choices = append(d.Choices, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgDiscussionRepository.findOne: rows: %w", err)
	}
	return d, nil
}

func (r *pgDiscussionRepository) List(ctx context.Context, limit, offset int) ([]model.Discussion, error) {
	query := `SELECT id, slug, title, body, author_id, created_at
	          FROM discussions ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("pgDiscussionRepository.List: %w", err)
	}
	defer rows.Close()

	var discussions []model.Discussion
	for rows.Next() {
		var d model.Discussion
		if err := rows.Scan(&d.ID, &d.Slug, &d.Title, &d.Body, &d.AuthorID, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgDiscussionRepository.List: scan: %w", err)
		}
		discussions = append(discussions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgDiscussionRepository.List: rows: %w", err)
	}
	return discussions, nil
}

func (r *pgDiscussionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM discussions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgDiscussionRepository.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgDiscussionRepository) InsertVote(ctx context.Context, v *model.Vote) error {
	query := `INSERT INTO votes (discussion_id, choice_id, user_id) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, v.DiscussionID, v.ChoiceID, v.UserID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // one vote per user per discussion
				return fmt.Errorf("already voted in this discussion: %w", common.ErrConflict)
			case "23503": // choice does not belong to any known discussion
				return fmt.Errorf("unknown choice: %w", common.ErrBadRequest)
			}
		}
		return fmt.Errorf("pgDiscussionRepository.InsertVote: %w", err)
	}
	return nil
}

func (r *pgDiscussionRepository) Tally(ctx context.Context, discussionID string) (map[string]int, error) {
	query := `SELECT c.id, COUNT(v.user_id)
	          FROM choices c
	          LEFT JOIN votes v ON v.choice_id = c.id
	          WHERE c.discussion_id = $1
	          GROUP BY c.id`
	rows, err := r.db.QueryContext(ctx, query, discussionID)
	if err != nil {
		return nil, fmt.Errorf("pgDiscussionRepository.Tally: %w", err)
	}
	defer rows.Close()

	tally := make(map[string]int)
	for rows.Next() {
		var choiceID string
		var votes int
		if err := rows.Scan(&choiceID, &votes); err != nil {
			return nil, fmt.Errorf("pgDiscussionRepository.Tally: scan: %w", err)
		}
		tally[choiceID] = votes
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgDiscussionRepository.Tally: rows: %w", err)
	}
	return tally, nil
}
