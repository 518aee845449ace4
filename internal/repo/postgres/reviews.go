package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/reviewhub/internal/domain/review"
	"github.com/geocoder89/reviewhub/internal/domain/title"
	"github.com/geocoder89/reviewhub/internal/observability"
)

const reviewSelect = `
	SELECT r.id, r.title_id, r.author_id, u.username, r.text, r.score, r.pub_date
	FROM reviews r
	JOIN users u ON u.id = r.author_id`

type ReviewsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewReviewsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ReviewsRepo {
	return &ReviewsRepo{pool: pool, prom: prom}
}

func scanReview(row rowScanner) (review.Review, error) {
	var rv review.Review
	err := row.Scan(&rv.ID, &rv.TitleID, &rv.AuthorID, &rv.Author, &rv.Text, &rv.Score, &rv.PubDate)
	return rv, err
}

// titleExists reports title.ErrNotFound for a missing parent.
func titleExists(ctx context.Context, prom *observability.Prom, q querier, titleID int64) error {
	var one int
	err := prom.ObserveDB("titles.exists", func() error {
		return q.QueryRow(ctx, `SELECT 1 FROM titles WHERE id = $1`, titleID).Scan(&one)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return title.ErrNotFound
	}
	return err
}

func (r *ReviewsRepo) List(ctx context.Context, f review.ListFilter) ([]review.Review, int, error) {
	if err := titleExists(ctx, r.prom, r.pool, f.TitleID); err != nil {
		return nil, 0, err
	}

	var total int
	err := r.prom.ObserveDB("reviews.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE title_id = $1`, f.TitleID).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	out := make([]review.Review, 0, f.Limit)
	err = r.prom.ObserveDB("reviews.list", func() error {
		rows, qerr := r.pool.Query(ctx, reviewSelect+`
			WHERE r.title_id = $1
			ORDER BY r.id ASC
			LIMIT $2 OFFSET $3`, f.TitleID, f.Limit, f.Offset)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()

		for rows.Next() {
			rv, scanErr := scanReview(rows)
			if scanErr != nil {
				return scanErr
			}
			out = append(out, rv)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

func (r *ReviewsRepo) Get(ctx context.Context, titleID, id int64) (review.Review, error) {
	return r.get(ctx, r.pool, titleID, id)
}

func (r *ReviewsRepo) get(ctx context.Context, q querier, titleID, id int64) (review.Review, error) {
	if err := titleExists(ctx, r.prom, q, titleID); err != nil {
		return review.Review{}, err
	}

	var rv review.Review
	err := r.prom.ObserveDB("reviews.get", func() error {
		var scanErr error
		rv, scanErr = scanReview(q.QueryRow(ctx, reviewSelect+` WHERE r.id = $1 AND r.title_id = $2`, id, titleID))
		return scanErr
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return review.Review{}, review.ErrNotFound
		}
		return review.Review{}, err
	}
	return rv, nil
}

// Create inserts a review. The pre-check gives the common case a clean error;
// the unique constraint settles concurrent submissions.
func (r *ReviewsRepo) Create(ctx context.Context, titleID, authorID int64, req review.CreateRequest) (review.Review, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return review.Review{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := titleExists(ctx, r.prom, tx, titleID); err != nil {
		return review.Review{}, err
	}

	var exists bool
	err = r.prom.ObserveDB("reviews.exists_for_author", func() error {
		return tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM reviews WHERE title_id = $1 AND author_id = $2)`,
			titleID, authorID).Scan(&exists)
	})
	if err != nil {
		return review.Review{}, err
	}
	if exists {
		return review.Review{}, review.ErrAlreadyReviewed
	}

	var id int64
	err = r.prom.ObserveDB("reviews.create", func() error {
		return tx.QueryRow(ctx, `
			INSERT INTO reviews (title_id, author_id, text, score)
			VALUES ($1, $2, $3, $4)
			RETURNING id`, titleID, authorID, req.Text, req.Score).Scan(&id)
	})
	if err != nil {
		if violatedConstraint(err) == "reviews_author_title_uniq" {
			return review.Review{}, review.ErrAlreadyReviewed
		}
		return review.Review{}, err
	}

	created, err := r.get(ctx, tx, titleID, id)
	if err != nil {
		return review.Review{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		if violatedConstraint(err) == "reviews_author_title_uniq" {
			return review.Review{}, review.ErrAlreadyReviewed
		}
		return review.Review{}, err
	}
	return created, nil
}

func (r *ReviewsRepo) Update(ctx context.Context, rv review.Review) (review.Review, error) {
	var tag pgconn.CommandTag

	err := r.prom.ObserveDB("reviews.update", func() error {
		var execErr error
		tag, execErr = r.pool.Exec(ctx,
			`UPDATE reviews SET text = $3, score = $4 WHERE id = $1 AND title_id = $2`,
			rv.ID, rv.TitleID, rv.Text, rv.Score)
		return execErr
	})
	if err != nil {
		return review.Review{}, err
	}
	if tag.RowsAffected() == 0 {
		return review.Review{}, review.ErrNotFound
	}

	return r.Get(ctx, rv.TitleID, rv.ID)
}

func (r *ReviewsRepo) Delete(ctx context.Context, titleID, id int64) error {
	var tag pgconn.CommandTag

	err := r.prom.ObserveDB("reviews.delete", func() error {
		var execErr error
		tag, execErr = r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1 AND title_id = $2`, id, titleID)
		return execErr
	})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return review.ErrNotFound
	}
	return nil
}
