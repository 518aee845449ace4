package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/reviewhub/internal/domain/category"
	"github.com/geocoder89/reviewhub/internal/domain/genre"
	"github.com/geocoder89/reviewhub/internal/domain/title"
	"github.com/geocoder89/reviewhub/internal/observability"
)

// querier is the part of pgxpool.Pool and pgx.Tx the title queries need.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Rating is averaged per request; nothing is cached.
const titleSelect = `
	SELECT t.id, t.name, t.year, t.description,
	       c.id, c.name, c.slug,
	       (SELECT AVG(r.score)::float8 FROM reviews r WHERE r.title_id = t.id) AS rating
	FROM titles t
	LEFT JOIN categories c ON c.id = t.category_id`

type TitlesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTitlesRepo(pool *pgxpool.Pool, prom *observability.Prom) *TitlesRepo {
	return &TitlesRepo{pool: pool, prom: prom}
}

func scanTitle(row rowScanner) (title.Title, error) {
	var (
		t       title.Title
		catID   *int64
		catName *string
		catSlug *string
		rating  *float64
	)

	err := row.Scan(&t.ID, &t.Name, &t.Year, &t.Description, &catID, &catName, &catSlug, &rating)
	if err != nil {
		return title.Title{}, err
	}

	if catID != nil {
		t.Category = &category.Category{ID: *catID, Name: *catName, Slug: *catSlug}
	}
	t.Rating = title.NormalizeRating(rating)
	t.Genres = []genre.Genre{}
	return t, nil
}

// whereClause renders f as SQL. name uses strpos so it stays case-sensitive
// and free of LIKE wildcards; search lowercases both sides.
func whereClause(f title.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Name != nil {
		add("strpos(t.name, $%d) > 0", *f.Name)
	}
	if f.Search != nil {
		add("strpos(lower(t.name), lower($%d)) > 0", *f.Search)
	}
	if f.Category != nil {
		add("c.slug = $%d", *f.Category)
	}
	if f.Genre != nil {
		add(`EXISTS (
			SELECT 1 FROM title_genres tg JOIN genres g ON g.id = tg.genre_id
			WHERE tg.title_id = t.id AND g.slug = $%d)`, *f.Genre)
	}
	if f.Year != nil {
		add("t.year = $%d", *f.Year)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *TitlesRepo) List(ctx context.Context, f title.ListFilter) ([]title.Title, int, error) {
	where, args := whereClause(f)

	var total int
	err := r.prom.ObserveDB("titles.count", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT COUNT(*)
			FROM titles t
			LEFT JOIN categories c ON c.id = t.category_id`+where, args...).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	q := titleSelect + where +
		fmt.Sprintf(" ORDER BY t.id ASC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	items := make([]title.Title, 0, f.Limit)
	err = r.prom.ObserveDB("titles.list", func() error {
		rows, qerr := r.pool.Query(ctx, q, args...)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()

		for rows.Next() {
			t, scanErr := scanTitle(rows)
			if scanErr != nil {
				return scanErr
			}
			items = append(items, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}

	if err := r.attachGenres(ctx, r.pool, items); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *TitlesRepo) GetByID(ctx context.Context, id int64) (title.Title, error) {
	return r.getByID(ctx, r.pool, id)
}

func (r *TitlesRepo) getByID(ctx context.Context, q querier, id int64) (title.Title, error) {
	var t title.Title

	err := r.prom.ObserveDB("titles.get_by_id", func() error {
		var scanErr error
		t, scanErr = scanTitle(q.QueryRow(ctx, titleSelect+` WHERE t.id = $1`, id))
		return scanErr
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return title.Title{}, title.ErrNotFound
		}
		return title.Title{}, err
	}

	items := []title.Title{t}
	if err := r.attachGenres(ctx, q, items); err != nil {
		return title.Title{}, err
	}
	return items[0], nil
}

// attachGenres loads genres for all items with one query.
func (r *TitlesRepo) attachGenres(ctx context.Context, q querier, items []title.Title) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(items))
	index := make(map[int64]int, len(items))
	for i, t := range items {
		ids = append(ids, t.ID)
		index[t.ID] = i
	}

	return r.prom.ObserveDB("titles.genres", func() error {
		rows, err := q.Query(ctx, `
			SELECT tg.title_id, g.id, g.name, g.slug
			FROM title_genres tg
			JOIN genres g ON g.id = tg.genre_id
			WHERE tg.title_id = ANY($1)
			ORDER BY g.id ASC`, ids)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var titleID int64
			var g genre.Genre
			if err := rows.Scan(&titleID, &g.ID, &g.Name, &g.Slug); err != nil {
				return err
			}
			i := index[titleID]
			items[i].Genres = append(items[i].Genres, g)
		}
		return rows.Err()
	})
}

// resolve maps category and genre slugs to ids, failing on the first unknown slug.
func (r *TitlesRepo) resolve(ctx context.Context, tx pgx.Tx, w title.Write) (*int64, []int64, error) {
	var categoryID *int64

	if w.CategorySlug != nil {
		var id int64
		err := r.prom.ObserveDB("titles.resolve_category", func() error {
			return tx.QueryRow(ctx, `SELECT id FROM categories WHERE slug = $1`, *w.CategorySlug).Scan(&id)
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil, title.ErrUnknownCategory
			}
			return nil, nil, err
		}
		categoryID = &id
	}

	if len(w.GenreSlugs) == 0 {
		return categoryID, nil, nil
	}

	found := make(map[string]int64, len(w.GenreSlugs))
	err := r.prom.ObserveDB("titles.resolve_genres", func() error {
		rows, err := tx.Query(ctx, `SELECT id, slug FROM genres WHERE slug = ANY($1)`, w.GenreSlugs)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var id int64
			var slug string
			if err := rows.Scan(&id, &slug); err != nil {
				return err
			}
			found[slug] = id
		}
		return rows.Err()
	})
	if err != nil {
		return nil, nil, err
	}

	genreIDs := make([]int64, 0, len(found))
	seen := make(map[int64]bool, len(found))
	for _, slug := range w.GenreSlugs {
		id, ok := found[slug]
		if !ok {
			return nil, nil, title.ErrUnknownGenre
		}
		if !seen[id] {
			seen[id] = true
			genreIDs = append(genreIDs, id)
		}
	}

	return categoryID, genreIDs, nil
}

func (r *TitlesRepo) setGenres(ctx context.Context, tx pgx.Tx, titleID int64, genreIDs []int64) error {
	return r.prom.ObserveDB("titles.set_genres", func() error {
		if _, err := tx.Exec(ctx, `DELETE FROM title_genres WHERE title_id = $1`, titleID); err != nil {
			return err
		}
		if len(genreIDs) == 0 {
			return nil
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO title_genres (title_id, genre_id)
			SELECT $1, unnest($2::bigint[])`, titleID, genreIDs)
		return err
	})
}

func (r *TitlesRepo) Create(ctx context.Context, w title.Write) (title.Title, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return title.Title{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	categoryID, genreIDs, err := r.resolve(ctx, tx, w)
	if err != nil {
		return title.Title{}, err
	}

	var id int64
	err = r.prom.ObserveDB("titles.create", func() error {
		return tx.QueryRow(ctx, `
			INSERT INTO titles (name, year, description, category_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id`, w.Name, w.Year, w.Description, categoryID).Scan(&id)
	})
	if err != nil {
		return title.Title{}, err
	}

	if err := r.setGenres(ctx, tx, id, genreIDs); err != nil {
		return title.Title{}, err
	}

	created, err := r.getByID(ctx, tx, id)
	if err != nil {
		return title.Title{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return title.Title{}, err
	}
	return created, nil
}

func (r *TitlesRepo) Update(ctx context.Context, id int64, w title.Write) (title.Title, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return title.Title{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	categoryID, genreIDs, err := r.resolve(ctx, tx, w)
	if err != nil {
		return title.Title{}, err
	}

	var tag pgconn.CommandTag
	err = r.prom.ObserveDB("titles.update", func() error {
		var execErr error
		tag, execErr = tx.Exec(ctx, `
			UPDATE titles
			SET name = $2, year = $3, description = $4, category_id = $5
			WHERE id = $1`, id, w.Name, w.Year, w.Description, categoryID)
		return execErr
	})
	if err != nil {
		return title.Title{}, err
	}
	if tag.RowsAffected() == 0 {
		return title.Title{}, title.ErrNotFound
	}

	if err := r.setGenres(ctx, tx, id, genreIDs); err != nil {
		return title.Title{}, err
	}

	updated, err := r.getByID(ctx, tx, id)
	if err != nil {
		return title.Title{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return title.Title{}, err
	}
	return updated, nil
}

func (r *TitlesRepo) Delete(ctx context.Context, id int64) error {
	var tag pgconn.CommandTag

	err := r.prom.ObserveDB("titles.delete", func() error {
		var execErr error
		tag, execErr = r.pool.Exec(ctx, `DELETE FROM titles WHERE id = $1`, id)
		return execErr
	})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return title.ErrNotFound
	}
	return nil
}
