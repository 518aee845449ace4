package title

import (
	"errors"

	"github.com/geocoder89/reviewhub/internal/domain/category"
	"github.com/geocoder89/reviewhub/internal/domain/genre"
)

var (
	ErrNotFound        = errors.New("title not found")
	ErrUnknownCategory = errors.New("unknown category slug")
	ErrUnknownGenre    = errors.New("unknown genre slug")
)

// Title is a reviewable work. Rating is nil when the title has no reviews.
type Title struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Year        int                `json:"year"`
	Description string             `json:"description"`
	Category    *category.Category `json:"category"`
	Genres      []genre.Genre      `json:"genre"`
	Rating      *float64           `json:"rating"`
}

// Write is the resolved form of a create or update: category and genres are
// referenced by slug and resolved to rows by the store.
type Write struct {
	Name         string
	Year         int
	Description  string
	CategorySlug *string
	GenreSlugs   []string
}
