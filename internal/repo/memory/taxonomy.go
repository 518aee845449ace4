package memory

import (
	"context"
	"strings"

	"github.com/geocoder89/reviewhub/internal/domain/category"
	"github.com/geocoder89/reviewhub/internal/domain/genre"
)

func nameMatches(name string, search *string) bool {
	if search == nil || *search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(*search))
}

type CategoriesRepo struct {
	s *Store
}

func (r *CategoriesRepo) List(_ context.Context, f category.ListFilter) ([]category.Category, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]category.Category, 0)
	for _, id := range sortedIDs(r.s.categories) {
		c := r.s.categories[id]
		if nameMatches(c.Name, f.Search) {
			matched = append(matched, c)
		}
	}
	return paginate(matched, f.Limit, f.Offset), len(matched), nil
}

func (r *CategoriesRepo) Create(_ context.Context, req category.CreateRequest) (category.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.categoryBySlug(req.Slug); taken {
		return category.Category{}, category.ErrSlugTaken
	}

	c := category.Category{ID: r.s.nextID(), Name: req.Name, Slug: req.Slug}
	r.s.categories[c.ID] = c
	return c, nil
}

// Delete removes the category; titles that used it keep existing without one.
func (r *CategoriesRepo) Delete(_ context.Context, slug string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.categoryBySlug(slug)
	if !ok {
		return category.ErrNotFound
	}

	delete(r.s.categories, c.ID)
	for id, t := range r.s.titles {
		if t.CategoryID != nil && *t.CategoryID == c.ID {
			t.CategoryID = nil
			r.s.titles[id] = t
		}
	}
	return nil
}

type GenresRepo struct {
	s *Store
}

func (r *GenresRepo) List(_ context.Context, f genre.ListFilter) ([]genre.Genre, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]genre.Genre, 0)
	for _, id := range sortedIDs(r.s.genres) {
		g := r.s.genres[id]
		if nameMatches(g.Name, f.Search) {
			matched = append(matched, g)
		}
	}
	return paginate(matched, f.Limit, f.Offset), len(matched), nil
}

func (r *GenresRepo) Create(_ context.Context, req genre.CreateRequest) (genre.Genre, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.genreBySlug(req.Slug); taken {
		return genre.Genre{}, genre.ErrSlugTaken
	}

	g := genre.Genre{ID: r.s.nextID(), Name: req.Name, Slug: req.Slug}
	r.s.genres[g.ID] = g
	return g, nil
}

func (r *GenresRepo) Delete(_ context.Context, slug string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	g, ok := r.s.genreBySlug(slug)
	if !ok {
		return genre.ErrNotFound
	}

	delete(r.s.genres, g.ID)
	for id, t := range r.s.titles {
		kept := t.GenreIDs[:0:0]
		for _, gid := range t.GenreIDs {
			if gid != g.ID {
				kept = append(kept, gid)
			}
		}
		t.GenreIDs = kept
		r.s.titles[id] = t
	}
	return nil
}

func (s *Store) categoryBySlug(slug string) (category.Category, bool) {
	for _, c := range s.categories {
		if c.Slug == slug {
			return c, true
		}
	}
	return category.Category{}, false
}

func (s *Store) genreBySlug(slug string) (genre.Genre, bool) {
	for _, g := range s.genres {
		if g.Slug == slug {
			return g, true
		}
	}
	return genre.Genre{}, false
}
