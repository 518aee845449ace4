package policy

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/geocoder89/reviewhub/internal/domain/user"
)

var (
	// SelfOrModeration guards reviews and comments.
	SelfOrModeration = Policy{
		Name:   "self_or_moderation",
		Grants: []Grant{SafeMethods, Author, Moderator, AdminLevel, Superuser},
	}

	// AdminOrReadOnly guards titles, categories and genres.
	AdminOrReadOnly = Policy{
		Name:   "admin_or_read_only",
		Grants: []Grant{SafeMethods, AdminLevel},
	}

	UserManagement = Policy{
		Name:   "user_management",
		Grants: []Grant{AdminLevel, Superuser},
	}

	SelfService = Policy{
		Name:   "self_service",
		Grants: []Grant{Authenticated},
	}
)

var ErrRoleChange = errors.New("only admin can change user roles")

// RoleChangeGuard rejects a requested role unless the actor's role is admin.
// The flags do not count here.
func RoleChangeGuard(actor Actor, requested *string) error {
	if requested == nil {
		return nil
	}
	if actor.Role == user.RoleAdmin {
		return nil
	}
	return validation.Errors{"role": ErrRoleChange}
}
