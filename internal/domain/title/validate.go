package title

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MinYear is the earliest accepted publication year.
const MinYear = 1308

// YearRule accepts MinYear through the calendar year of now.
func YearRule(now time.Time) validation.Rule {
	return validation.By(func(value interface{}) error {
		year, isNil := validation.Indirect(value)
		if isNil {
			return nil
		}

		y, ok := year.(int)
		if !ok {
			return validation.NewError("validation_year_type", "must be an integer year")
		}

		if y < MinYear || y > now.Year() {
			return validation.NewError("validation_year_range", "is not a correct year").
				SetParams(map[string]interface{}{"min": MinYear, "max": now.Year()})
		}
		return nil
	})
}

type CreateRequest struct {
	Name        string   `json:"name" binding:"required,max=256"`
	Year        int      `json:"year" binding:"required"`
	Description string   `json:"description"`
	Category    *string  `json:"category"`
	Genre       []string `json:"genre"`
}

// Validate checks the request against the clock reading in now.
func (r CreateRequest) Validate(now time.Time) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 256)),
		validation.Field(&r.Year, YearRule(now)),
		validation.Field(&r.Category, validation.NilOrNotEmpty),
		validation.Field(&r.Genre, validation.Each(validation.Required)),
	)
}

func (r CreateRequest) ToWrite() Write {
	return Write{
		Name:         r.Name,
		Year:         r.Year,
		Description:  r.Description,
		CategorySlug: r.Category,
		GenreSlugs:   r.Genre,
	}
}

// UpdateRequest is a partial update. A nil Genre leaves genres untouched;
// an empty list clears them.
type UpdateRequest struct {
	Name        *string   `json:"name" binding:"omitempty,max=256"`
	Year        *int      `json:"year"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Genre       *[]string `json:"genre"`
}

func (r UpdateRequest) Validate(now time.Time) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty),
		validation.Field(&r.Year, YearRule(now)),
		validation.Field(&r.Category, validation.NilOrNotEmpty),
	)
}

// Apply merges the update over the current title and returns the write to store.
func (r UpdateRequest) Apply(current Title) Write {
	w := Write{
		Name:        current.Name,
		Year:        current.Year,
		Description: current.Description,
	}

	if current.Category != nil {
		slug := current.Category.Slug
		w.CategorySlug = &slug
	}
	for _, g := range current.Genres {
		w.GenreSlugs = append(w.GenreSlugs, g.Slug)
	}

	if r.Name != nil {
		w.Name = *r.Name
	}
	if r.Year != nil {
		w.Year = *r.Year
	}
	if r.Description != nil {
		w.Description = *r.Description
	}
	if r.Category != nil {
		w.CategorySlug = r.Category
	}
	if r.Genre != nil {
		w.GenreSlugs = *r.Genre
	}

	return w
}
