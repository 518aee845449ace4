package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/reviewhub/internal/domain/genre"
	"github.com/geocoder89/reviewhub/internal/observability"
)

type GenresRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewGenresRepo(pool *pgxpool.Pool, prom *observability.Prom) *GenresRepo {
	return &GenresRepo{pool: pool, prom: prom}
}

func (r *GenresRepo) List(ctx context.Context, f genre.ListFilter) ([]genre.Genre, int, error) {
	search := ""
	if f.Search != nil {
		search = *f.Search
	}

	var total int
	err := r.prom.ObserveDB("genres.count", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM genres WHERE $1 = '' OR strpos(lower(name), lower($1)) > 0`,
			search).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	out := make([]genre.Genre, 0, f.Limit)
	err = r.prom.ObserveDB("genres.list", func() error {
		rows, qerr := r.pool.Query(ctx, `
			SELECT id, name, slug
			FROM genres
			WHERE $1 = '' OR strpos(lower(name), lower($1)) > 0
			ORDER BY id ASC
			LIMIT $2 OFFSET $3`, search, f.Limit, f.Offset)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()

		for rows.Next() {
			var item genre.Genre
			if scanErr := rows.Scan(&item.ID, &item.Name, &item.Slug); scanErr != nil {
				return scanErr
			}
			out = append(out, item)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

func (r *GenresRepo) Create(ctx context.Context, req genre.CreateRequest) (genre.Genre, error) {
	item := genre.Genre{Name: req.Name, Slug: req.Slug}

	err := r.prom.ObserveDB("genres.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO genres (name, slug) VALUES ($1, $2) RETURNING id`,
			item.Name, item.Slug).Scan(&item.ID)
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return genre.Genre{}, genre.ErrSlugTaken
		}
		return genre.Genre{}, err
	}
	return item, nil
}

func (r *GenresRepo) Delete(ctx context.Context, slug string) error {
	var tag pgconn.CommandTag

	err := r.prom.ObserveDB("genres.delete", func() error {
		var execErr error
		tag, execErr = r.pool.Exec(ctx, `DELETE FROM genres WHERE slug = $1`, slug)
		return execErr
	})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return genre.ErrNotFound
	}
	return nil
}
