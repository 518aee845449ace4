package review

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	MinScore      = 1
	MaxScore      = 10
	MaxTextLength = 2000
)

var (
	ErrNotFound        = errors.New("review not found")
	ErrAlreadyReviewed = errors.New("review already exists for this author and title")
)

// Review belongs to a title (TitleID, cascades on delete) and is written by a
// user (AuthorID, used for access checks). The two links are independent.
type Review struct {
	ID       int64     `json:"id"`
	TitleID  int64     `json:"title"`
	AuthorID int64     `json:"-"`
	Author   string    `json:"author"`
	Text     string    `json:"text"`
	Score    int       `json:"score"`
	PubDate  time.Time `json:"pub_date"`
}

// scoreRule rejects scores outside [MinScore, MaxScore]. Unlike validation.Min
// it does not skip zero.
var scoreRule = validation.By(func(value interface{}) error {
	v, isNil := validation.Indirect(value)
	if isNil {
		return nil
	}

	score, ok := v.(int)
	if !ok || score < MinScore || score > MaxScore {
		return validation.NewError("validation_score_range", "must be between 1 and 10")
	}
	return nil
})

type CreateRequest struct {
	Text  string `json:"text" binding:"required"`
	Score int    `json:"score" binding:"required"`
}

func (r CreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.Required, validation.RuneLength(1, MaxTextLength)),
		validation.Field(&r.Score, scoreRule),
	)
}

type UpdateRequest struct {
	Text  *string `json:"text"`
	Score *int    `json:"score"`
}

func (r UpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.NilOrNotEmpty, validation.RuneLength(1, MaxTextLength)),
		validation.Field(&r.Score, scoreRule),
	)
}

func (r UpdateRequest) Apply(rv Review) Review {
	if r.Text != nil {
		rv.Text = *r.Text
	}
	if r.Score != nil {
		rv.Score = *r.Score
	}
	return rv
}

type ListFilter struct {
	TitleID int64
	Limit   int
	Offset  int
}
