package category

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	ErrNotFound  = errors.New("category not found")
	ErrSlugTaken = errors.New("category slug already exists")
)

// SlugPattern is shared by categories and genres.
var SlugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

type Category struct {
	ID   int64  `json:"-"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type CreateRequest struct {
	Name string `json:"name" binding:"required,max=256"`
	Slug string `json:"slug" binding:"required,max=50"`
}

func (r CreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 256)),
		validation.Field(&r.Slug, validation.Required, validation.Length(1, 50),
			validation.Match(SlugPattern).Error("may contain only letters, digits, hyphens and underscores")),
	)
}

type ListFilter struct {
	Search *string
	Limit  int
	Offset int
}
