package memory

import (
	"context"
	"time"

	"github.com/geocoder89/reviewhub/internal/domain/review"
	"github.com/geocoder89/reviewhub/internal/domain/title"
)

type ReviewsRepo struct {
	s *Store
}

// withAuthor fills the author username. Must be called with mu held.
func (s *Store) withAuthor(rv review.Review) review.Review {
	if u, ok := s.users[rv.AuthorID]; ok {
		rv.Author = u.Username
	}
	return rv
}

// deleteReview removes a review and its comments. Must be called with mu held.
func (s *Store) deleteReview(id int64) {
	delete(s.reviews, id)
	for cid, c := range s.comments {
		if c.ReviewID == id {
			delete(s.comments, cid)
		}
	}
}

// review finds a review under titleID. Must be called with mu held.
func (s *Store) review(titleID, id int64) (review.Review, error) {
	if _, ok := s.titles[titleID]; !ok {
		return review.Review{}, title.ErrNotFound
	}
	rv, ok := s.reviews[id]
	if !ok || rv.TitleID != titleID {
		return review.Review{}, review.ErrNotFound
	}
	return rv, nil
}

func (r *ReviewsRepo) List(_ context.Context, f review.ListFilter) ([]review.Review, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if _, ok := r.s.titles[f.TitleID]; !ok {
		return nil, 0, title.ErrNotFound
	}

	matched := make([]review.Review, 0)
	for _, id := range sortedIDs(r.s.reviews) {
		rv := r.s.reviews[id]
		if rv.TitleID == f.TitleID {
			matched = append(matched, r.s.withAuthor(rv))
		}
	}
	return paginate(matched, f.Limit, f.Offset), len(matched), nil
}

func (r *ReviewsRepo) Get(_ context.Context, titleID, id int64) (review.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rv, err := r.s.review(titleID, id)
	if err != nil {
		return review.Review{}, err
	}
	return r.s.withAuthor(rv), nil
}

// Create checks for an existing review and inserts under one lock, so two
// concurrent submissions by the same author cannot both succeed.
func (r *ReviewsRepo) Create(_ context.Context, titleID, authorID int64, req review.CreateRequest) (review.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.titles[titleID]; !ok {
		return review.Review{}, title.ErrNotFound
	}

	for _, existing := range r.s.reviews {
		if existing.TitleID == titleID && existing.AuthorID == authorID {
			return review.Review{}, review.ErrAlreadyReviewed
		}
	}

	rv := review.Review{
		ID:       r.s.nextID(),
		TitleID:  titleID,
		AuthorID: authorID,
		Text:     req.Text,
		Score:    req.Score,
		PubDate:  time.Now().UTC(),
	}
	r.s.reviews[rv.ID] = rv
	return r.s.withAuthor(rv), nil
}

func (r *ReviewsRepo) Update(_ context.Context, rv review.Review) (review.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, err := r.s.review(rv.TitleID, rv.ID)
	if err != nil {
		return review.Review{}, err
	}

	current.Text = rv.Text
	current.Score = rv.Score
	r.s.reviews[current.ID] = current
	return r.s.withAuthor(current), nil
}

func (r *ReviewsRepo) Delete(_ context.Context, titleID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, err := r.s.review(titleID, id); err != nil {
		return err
	}
	r.s.deleteReview(id)
	return nil
}
