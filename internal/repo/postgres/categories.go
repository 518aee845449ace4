package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/reviewhub/internal/domain/category"
	"github.com/geocoder89/reviewhub/internal/observability"
)

type CategoriesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewCategoriesRepo(pool *pgxpool.Pool, prom *observability.Prom) *CategoriesRepo {
	return &CategoriesRepo{pool: pool, prom: prom}
}

func (r *CategoriesRepo) List(ctx context.Context, f category.ListFilter) ([]category.Category, int, error) {
	search := ""
	if f.Search != nil {
		search = *f.Search
	}

	var total int
	err := r.prom.ObserveDB("categories.count", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM categories WHERE $1 = '' OR strpos(lower(name), lower($1)) > 0`,
			search).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	out := make([]category.Category, 0, f.Limit)
	err = r.prom.ObserveDB("categories.list", func() error {
		rows, qerr := r.pool.Query(ctx, `
			SELECT id, name, slug
			FROM categories
			WHERE $1 = '' OR strpos(lower(name), lower($1)) > 0
			ORDER BY id ASC
			LIMIT $2 OFFSET $3`, search, f.Limit, f.Offset)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()

		for rows.Next() {
			var item category.Category
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

func (r *CategoriesRepo) Create(ctx context.Context, req category.CreateRequest) (category.Category, error) {
	item := category.Category{Name: req.Name, Slug: req.Slug}

	err := r.prom.ObserveDB("categories.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO categories (name, slug) VALUES ($1, $2) RETURNING id`,
			item.Name, item.Slug).Scan(&item.ID)
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return category.Category{}, category.ErrSlugTaken
		}
		return category.Category{}, err
	}
	return item, nil
}

func (r *CategoriesRepo) Delete(ctx context.Context, slug string) error {
	var tag pgconn.CommandTag

	err := r.prom.ObserveDB("categories.delete", func() error {
		var execErr error
		tag, execErr = r.pool.Exec(ctx, `DELETE FROM categories WHERE slug = $1`, slug)
		return execErr
	})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return category.ErrNotFound
	}
	return nil
}
