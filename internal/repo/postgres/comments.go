package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/reviewhub/internal/domain/comment"
	"github.com/geocoder89/reviewhub/internal/domain/review"
	"github.com/geocoder89/reviewhub/internal/observability"
)

const commentSelect = `
	SELECT c.id, c.review_id, c.author_id, u.username, c.text, c.pub_date
	FROM comments c
	JOIN users u ON u.id = c.author_id`

type CommentsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewCommentsRepo(pool *pgxpool.Pool, prom *observability.Prom) *CommentsRepo {
	return &CommentsRepo{pool: pool, prom: prom}
}

func scanComment(row rowScanner) (comment.Comment, error) {
	var c comment.Comment
	err := row.Scan(&c.ID, &c.ReviewID, &c.AuthorID, &c.Author, &c.Text, &c.PubDate)
	return c, err
}

// reviewExists checks the whole nested path: the title first, then the
// review under it.
func (r *CommentsRepo) reviewExists(ctx context.Context, titleID, reviewID int64) error {
	if err := titleExists(ctx, r.prom, r.pool, titleID); err != nil {
		return err
	}

	var one int
	err := r.prom.ObserveDB("reviews.exists", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT 1 FROM reviews WHERE id = $1 AND title_id = $2`, reviewID, titleID).Scan(&one)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return review.ErrNotFound
	}
	return err
}

func (r *CommentsRepo) List(ctx context.Context, f comment.ListFilter) ([]comment.Comment, int, error) {
	if err := r.reviewExists(ctx, f.TitleID, f.ReviewID); err != nil {
		return nil, 0, err
	}

	var total int
	err := r.prom.ObserveDB("comments.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE review_id = $1`, f.ReviewID).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	out := make([]comment.Comment, 0, f.Limit)
	err = r.prom.ObserveDB("comments.list", func() error {
		rows, qerr := r.pool.Query(ctx, commentSelect+`
			WHERE c.review_id = $1
			ORDER BY c.id ASC
			LIMIT $2 OFFSET $3`, f.ReviewID, f.Limit, f.Offset)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()

		for rows.Next() {
			c, scanErr := scanComment(rows)
			if scanErr != nil {
				return scanErr
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

func (r *CommentsRepo) Get(ctx context.Context, titleID, reviewID, id int64) (comment.Comment, error) {
	if err := r.reviewExists(ctx, titleID, reviewID); err != nil {
		return comment.Comment{}, err
	}

	var c comment.Comment
	err := r.prom.ObserveDB("comments.get", func() error {
		var scanErr error
		c, scanErr = scanComment(r.pool.QueryRow(ctx,
			commentSelect+` WHERE c.id = $1 AND c.review_id = $2`, id, reviewID))
		return scanErr
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return comment.Comment{}, comment.ErrNotFound
		}
		return comment.Comment{}, err
	}
	return c, nil
}

func (r *CommentsRepo) Create(ctx context.Context, titleID, reviewID, authorID int64, req comment.CreateRequest) (comment.Comment, error) {
	if err := r.reviewExists(ctx, titleID, reviewID); err != nil {
		return comment.Comment{}, err
	}

	var id int64
	err := r.prom.ObserveDB("comments.create", func() error {
		return r.pool.QueryRow(ctx, `
			INSERT INTO comments (review_id, author_id, text)
			VALUES ($1, $2, $3)
			RETURNING id`, reviewID, authorID, req.Text).Scan(&id)
	})
	if err != nil {
		// the review was deleted between the check and the insert
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return comment.Comment{}, review.ErrNotFound
		}
		return comment.Comment{}, err
	}

	return r.Get(ctx, titleID, reviewID, id)
}

func (r *CommentsRepo) Update(ctx context.Context, titleID int64, c comment.Comment) (comment.Comment, error) {
	var tag pgconn.CommandTag

	err := r.prom.ObserveDB("comments.update", func() error {
		var execErr error
		tag, execErr = r.pool.Exec(ctx,
			`UPDATE comments SET text = $3 WHERE id = $1 AND review_id = $2`, c.ID, c.ReviewID, c.Text)
		return execErr
	})
	if err != nil {
		return comment.Comment{}, err
	}
	if tag.RowsAffected() == 0 {
		return comment.Comment{}, comment.ErrNotFound
	}

	return r.Get(ctx, titleID, c.ReviewID, c.ID)
}

func (r *CommentsRepo) Delete(ctx context.Context, titleID, reviewID, id int64) error {
	if err := r.reviewExists(ctx, titleID, reviewID); err != nil {
		return err
	}

	var tag pgconn.CommandTag
	err := r.prom.ObserveDB("comments.delete", func() error {
		var execErr error
		tag, execErr = r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1 AND review_id = $2`, id, reviewID)
		return execErr
	})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return comment.ErrNotFound
	}
	return nil
}
