package comment

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const MaxTextLength = 2000

var ErrNotFound = errors.New("comment not found")

// Comment belongs to a review (ReviewID, cascades on delete) and is written
// by a user (AuthorID, used for access checks).
type Comment struct {
	ID       int64     `json:"id"`
	ReviewID int64     `json:"review"`
	AuthorID int64     `json:"-"`
	Author   string    `json:"author"`
	Text     string    `json:"text"`
	PubDate  time.Time `json:"pub_date"`
}

type CreateRequest struct {
	Text string `json:"text" binding:"required"`
}

func (r CreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.Required, validation.RuneLength(1, MaxTextLength)),
	)
}

type UpdateRequest struct {
	Text *string `json:"text"`
}

func (r UpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.NilOrNotEmpty, validation.RuneLength(1, MaxTextLength)),
	)
}

type ListFilter struct {
	TitleID  int64
	ReviewID int64
	Limit    int
	Offset   int
}
