package genre

import (
	"errors"

	"github.com/geocoder89/reviewhub/internal/domain/category"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	ErrNotFound  = errors.New("genre not found")
	ErrSlugTaken = errors.New("genre slug already exists")
)

type Genre struct {
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
			validation.Match(category.SlugPattern).Error("may contain only letters, digits, hyphens and underscores")),
	)
}

type ListFilter struct {
	Search *string
	Limit  int
	Offset int
}
