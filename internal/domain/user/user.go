package user

import (
	"errors"
	"regexp"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	default:
		return false
	}
}

// MeUsername is reserved for the self-profile route.
const MeUsername = "me"

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already registered")

	ErrInvalidConfirmationCode = errors.New("invalid confirmation code")
)

type User struct {
	ID          int64     `json:"-"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Bio         string    `json:"bio"`
	Role        Role      `json:"role"`
	IsStaff     bool      `json:"-"`
	IsSuperuser bool      `json:"-"`
	DateJoined  time.Time `json:"-"`

	// bcrypt hash of the outstanding confirmation code, nil once used
	ConfirmationCodeHash *string `json:"-"`
}

// IsAdminLevel reports role admin, staff flag or superuser flag.
func (u User) IsAdminLevel() bool {
	return u.Role == RoleAdmin || u.IsStaff || u.IsSuperuser
}

// ListFilter narrows the admin user listing.
type ListFilter struct {
	Search *string
	Limit  int
	Offset int
}
