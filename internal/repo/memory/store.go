package memory

import (
	"sort"
	"sync"

	"github.com/geocoder89/reviewhub/internal/domain/category"
	"github.com/geocoder89/reviewhub/internal/domain/comment"
	"github.com/geocoder89/reviewhub/internal/domain/genre"
	"github.com/geocoder89/reviewhub/internal/domain/job"
	"github.com/geocoder89/reviewhub/internal/domain/review"
	"github.com/geocoder89/reviewhub/internal/domain/user"
)

// titleRow is a title as stored: category and genres by id. Ratings are
// derived on read.
type titleRow struct {
	ID          int64
	Name        string
	Year        int
	Description string
	CategoryID  *int64
	GenreIDs    []int64
}

// Store is an in-process relational store. One mutex guards every table, so
// each operation, including the duplicate-review check and its insert, is atomic.
type Store struct {
	mu sync.RWMutex

	seq int64

	users      map[int64]user.User
	categories map[int64]category.Category
	genres     map[int64]genre.Genre
	titles     map[int64]titleRow
	reviews    map[int64]review.Review
	comments   map[int64]comment.Comment
	jobs       map[string]job.Job
}

func New() *Store {
	return &Store{
		users:      make(map[int64]user.User),
		categories: make(map[int64]category.Category),
		genres:     make(map[int64]genre.Genre),
		titles:     make(map[int64]titleRow),
		reviews:    make(map[int64]review.Review),
		comments:   make(map[int64]comment.Comment),
		jobs:       make(map[string]job.Job),
	}
}

func (s *Store) Users() *UsersRepo           { return &UsersRepo{s: s} }
func (s *Store) Categories() *CategoriesRepo { return &CategoriesRepo{s: s} }
func (s *Store) Genres() *GenresRepo         { return &GenresRepo{s: s} }
func (s *Store) Titles() *TitlesRepo         { return &TitlesRepo{s: s} }
func (s *Store) Reviews() *ReviewsRepo       { return &ReviewsRepo{s: s} }
func (s *Store) Comments() *CommentsRepo     { return &CommentsRepo{s: s} }
func (s *Store) Jobs() *JobsRepo             { return &JobsRepo{s: s} }

// nextID must be called with mu held for writing.
func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func sortedIDs[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	return items[offset:end]
}
