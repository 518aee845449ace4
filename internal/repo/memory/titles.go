package memory

import (
	"context"

	"github.com/geocoder89/reviewhub/internal/domain/genre"
	"github.com/geocoder89/reviewhub/internal/domain/title"
)

type TitlesRepo struct {
	s *Store
}

// materialize builds the read model of row. Must be called with mu held.
func (s *Store) materialize(row titleRow) title.Title {
	t := title.Title{
		ID:          row.ID,
		Name:        row.Name,
		Year:        row.Year,
		Description: row.Description,
		Genres:      []genre.Genre{},
	}

	if row.CategoryID != nil {
		if c, ok := s.categories[*row.CategoryID]; ok {
			cc := c
			t.Category = &cc
		}
	}

	for _, gid := range row.GenreIDs {
		if g, ok := s.genres[gid]; ok {
			t.Genres = append(t.Genres, g)
		}
	}

	var scores []int
	for _, rv := range s.reviews {
		if rv.TitleID == row.ID {
			scores = append(scores, rv.Score)
		}
	}
	t.Rating = title.MeanScore(scores)

	return t
}

func (r *TitlesRepo) List(_ context.Context, f title.ListFilter) ([]title.Title, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]title.Title, 0)
	for _, id := range sortedIDs(r.s.titles) {
		t := r.s.materialize(r.s.titles[id])
		if f.Matches(t) {
			matched = append(matched, t)
		}
	}
	return paginate(matched, f.Limit, f.Offset), len(matched), nil
}

func (r *TitlesRepo) GetByID(_ context.Context, id int64) (title.Title, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.titles[id]
	if !ok {
		return title.Title{}, title.ErrNotFound
	}
	return r.s.materialize(row), nil
}

// resolve must be called with mu held.
func (s *Store) resolve(w title.Write) (*int64, []int64, error) {
	var categoryID *int64
	if w.CategorySlug != nil {
		c, ok := s.categoryBySlug(*w.CategorySlug)
		if !ok {
			return nil, nil, title.ErrUnknownCategory
		}
		categoryID = &c.ID
	}

	genreIDs := make([]int64, 0, len(w.GenreSlugs))
	seen := make(map[int64]bool, len(w.GenreSlugs))
	for _, slug := range w.GenreSlugs {
		g, ok := s.genreBySlug(slug)
		if !ok {
			return nil, nil, title.ErrUnknownGenre
		}
		if !seen[g.ID] {
			seen[g.ID] = true
			genreIDs = append(genreIDs, g.ID)
		}
	}

	return categoryID, genreIDs, nil
}

func (r *TitlesRepo) Create(_ context.Context, w title.Write) (title.Title, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	categoryID, genreIDs, err := r.s.resolve(w)
	if err != nil {
		return title.Title{}, err
	}

	row := titleRow{
		ID:          r.s.nextID(),
		Name:        w.Name,
		Year:        w.Year,
		Description: w.Description,
		CategoryID:  categoryID,
		GenreIDs:    genreIDs,
	}
	r.s.titles[row.ID] = row
	return r.s.materialize(row), nil
}

func (r *TitlesRepo) Update(_ context.Context, id int64, w title.Write) (title.Title, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.titles[id]; !ok {
		return title.Title{}, title.ErrNotFound
	}

	categoryID, genreIDs, err := r.s.resolve(w)
	if err != nil {
		return title.Title{}, err
	}

	row := titleRow{
		ID:          id,
		Name:        w.Name,
		Year:        w.Year,
		Description: w.Description,
		CategoryID:  categoryID,
		GenreIDs:    genreIDs,
	}
	r.s.titles[id] = row
	return r.s.materialize(row), nil
}

func (r *TitlesRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.titles[id]; !ok {
		return title.ErrNotFound
	}

	delete(r.s.titles, id)
	for rid, rv := range r.s.reviews {
		if rv.TitleID == id {
			r.s.deleteReview(rid)
		}
	}
	return nil
}

