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

type QuibbleRepository interface {
	Create(ctx context.Context, q *model.Quibble) error
	FindByID(ctx context.Context, id string) (*model.Quibble, error)
	ListByDiscussion(ctx context.Context, discussionID string) ([]model.Quibble, error)
	Delete(ctx context.Context, id string) error
	InsertCondemnation(ctx context.Context, c *model.Condemnation) error
}

type pgQuibbleRepository struct {
	db *sql.DB
}

func NewPgQuibbleRepository(db *sql.DB) QuibbleRepository {
	return &pgQuibbleRepository{db: db}
}

func (r *pgQuibbleRepository) Create(ctx context.Context, q *model.Quibble) error {
	query := `INSERT INTO quibbles (id, discussion_id, author_id, body)
	          VALUES ($1, $2, $3, $4)
	          RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, q.ID, q.DiscussionID, q.AuthorID, q.Body).Scan(&q.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("unknown discussion: %w", common.ErrNotFound)
		}
		return fmt.Errorf("pgQuibbleRepository.Create: %w", err)
	}
	return nil
}

func (r *pgQuibbleRepository) FindByID(ctx context.Context, id string) (*model.Quibble, error) {
	query := `SELECT q.id, q.discussion_id, q.author_id, u.username, q.body,
	                 (SELECT COUNT(*) FROM condemnations c WHERE c.quibble_id = q.id),
	                 q.created_at
	          FROM quibbles q JOIN users u ON u.id = q.author_id
	          WHERE q.id = $1`
	q := &model.Quibble{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&q.ID, &q.DiscussionID, &q.AuthorID, &q.AuthorName, &q.Body, &q.Condemnations, &q.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgQuibbleRepository.FindByID: %w", err)
	}
	return q, nil
}

func (r *pgQuibbleRepository) ListByDiscussion(ctx context.Context, discussionID string) ([]model.Quibble, error) {
	query := `SELECT q.id, q.discussion_id, q.author_id, u.username, q.body,
	                 (SELECT COUNT(*) FROM condemnations c WHERE c.quibble_id = q.id),
	                 q.created_at
	          FROM quibbles q JOIN users u ON u.id = q.author_id
	          WHERE q.discussion_id = $1
	          ORDER BY q.created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, discussionID)
	if err != nil {
		return nil, fmt.Errorf("pgQuibbleRepository.ListByDiscussion: %w", err)
	}
	defer rows.Close()

	var quibbles []model.Quibble
	for rows.Next() {
		var q model.Quibble
		err := rows.Scan(&q.ID, &q.DiscussionID, &q.AuthorID, &q.AuthorName, &q.Body, &q.Condemnations, &q.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("pgQuibbleRepository.ListByDiscussion: scan: %w", err)
		}
		quibbles = append(quibbles, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgQuibbleRepository.ListByDiscussion: rows: %w", err)
	}
	return quibbles, nil
}

func (r *pgQuibbleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM quibbles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgQuibbleRepository.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgQuibbleRepository) InsertCondemnation(ctx context.Context, c *model.Condemnation) error {
	query := `INSERT INTO condemnations (quibble_id, user_id, reason) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, c.QuibbleID, c.UserID, c.Reason)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // one condemnation per user per quibble
				return fmt.Errorf("already condemned this quibble: %w", common.ErrConflict)
			case "23503":
				return fmt.Errorf("unknown quibble: %w", common.ErrNotFound)
			}
		}
		return fmt.Errorf("pgQuibbleRepository.InsertCondemnation: %w", err)
	}
	return nil
}
