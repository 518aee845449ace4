package user

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type CreateRequest struct {
	Username  string  `json:"username" binding:"required,max=150"`
	Email     string  `json:"email" binding:"required,email,max=254"`
	FirstName string  `json:"first_name" binding:"omitempty,max=150"`
	LastName  string  `json:"last_name" binding:"omitempty,max=150"`
	Bio       string  `json:"bio" binding:"omitempty,max=1000"`
	Role      *string `json:"role"`
}

func (r CreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, usernameRules()...),
		validation.Field(&r.Role, validation.NilOrNotEmpty, validation.By(validRole)),
	)
}

// RoleOrDefault returns the requested role, or RoleUser when none was given.
func (r CreateRequest) RoleOrDefault() Role {
	if r.Role == nil {
		return RoleUser
	}
	return Role(*r.Role)
}

// UpdateRequest is a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	Username  *string `json:"username" binding:"omitempty,max=150"`
	Email     *string `json:"email" binding:"omitempty,email,max=254"`
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
	Bio       *string `json:"bio" binding:"omitempty,max=1000"`
	Role      *string `json:"role"`
}

func (r UpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.NilOrNotEmpty, validation.When(r.Username != nil, usernameRules()...)),
		validation.Field(&r.Role, validation.NilOrNotEmpty, validation.By(validRole)),
	)
}

// Apply folds the non-nil fields into u.
func (r UpdateRequest) Apply(u User) User {
	if r.Username != nil {
		u.Username = *r.Username
	}
	if r.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*r.Email))
	}
	if r.FirstName != nil {
		u.FirstName = *r.FirstName
	}
	if r.LastName != nil {
		u.LastName = *r.LastName
	}
	if r.Bio != nil {
		u.Bio = *r.Bio
	}
	if r.Role != nil {
		u.Role = Role(*r.Role)
	}
	return u
}

func usernameRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(1, 150),
		validation.Match(usernamePattern).Error("may contain only letters, digits and @/./+/-/_"),
		validation.NotIn(MeUsername).Error("is reserved"),
	}
}

func validRole(value interface{}) error {
	var raw string

	switch v := value.(type) {
	case *string:
		if v == nil {
			return nil
		}
		raw = *v
	case string:
		raw = v
	default:
		return nil
	}

	if !Role(raw).IsValid() {
		return validation.NewError("validation_role", "must be one of user, moderator, admin")
	}
	return nil
}
