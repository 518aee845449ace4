package memory

import (
	"context"
	"time"

	"github.com/geocoder89/reviewhub/internal/domain/comment"
)

type CommentsRepo struct {
	s *Store
}

func (s *Store) commentWithAuthor(c comment.Comment) comment.Comment {
	if u, ok := s.users[c.AuthorID]; ok {
		c.Author = u.Username
	}
	return c
}

// comment finds a comment along the full nested path. Must be called with mu held.
func (s *Store) comment(titleID, reviewID, id int64) (comment.Comment, error) {
	if _, err := s.review(titleID, reviewID); err != nil {
		return comment.Comment{}, err
	}
	c, ok := s.comments[id]
	if !ok || c.ReviewID != reviewID {
		return comment.Comment{}, comment.ErrNotFound
	}
	return c, nil
}

func (r *CommentsRepo) List(_ context.Context, f comment.ListFilter) ([]comment.Comment, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if _, err := r.s.review(f.TitleID, f.ReviewID); err != nil {
		return nil, 0, err
	}

	matched := make([]comment.Comment, 0)
	for _, id := range sortedIDs(r.s.comments) {
		c := r.s.comments[id]
		if c.ReviewID == f.ReviewID {
			matched = append(matched, r.s.commentWithAuthor(c))
		}
	}
	return paginate(matched, f.Limit, f.Offset), len(matched), nil
}

func (r *CommentsRepo) Get(_ context.Context, titleID, reviewID, id int64) (comment.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, err := r.s.comment(titleID, reviewID, id)
	if err != nil {
		return comment.Comment{}, err
	}
	return r.s.commentWithAuthor(c), nil
}

func (r *CommentsRepo) Create(_ context.Context, titleID, reviewID, authorID int64, req comment.CreateRequest) (comment.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, err := r.s.review(titleID, reviewID); err != nil {
		return comment.Comment{}, err
	}

	c := comment.Comment{
		ID:       r.s.nextID(),
		ReviewID: reviewID,
		AuthorID: authorID,
		Text:     req.Text,
		PubDate:  time.Now().UTC(),
	}
	r.s.comments[c.ID] = c
	return r.s.commentWithAuthor(c), nil
}

func (r *CommentsRepo) Update(_ context.Context, titleID int64, c comment.Comment) (comment.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, err := r.s.comment(titleID, c.ReviewID, c.ID)
	if err != nil {
		return comment.Comment{}, err
	}

	current.Text = c.Text
	r.s.comments[current.ID] = current
	return r.s.commentWithAuthor(current), nil
}

func (r *CommentsRepo) Delete(_ context.Context, titleID, reviewID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, err := r.s.comment(titleID, reviewID, id); err != nil {
		return err
	}
	delete(r.s.comments, id)
	return nil
}
