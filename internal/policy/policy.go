// Package policy decides whether an actor may perform an action on a resource.
//
// A Policy is a named list of grants. Grants are independent predicates; a
// request is allowed as soon as one grant allows it.
package policy

import (
	"errors"
	"net/http"

	"github.com/geocoder89/reviewhub/internal/domain/user"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
)

// Actor is the identity a request runs as. The zero value is anonymous.
type Actor struct {
	ID          int64
	Username    string
	Role        user.Role
	IsStaff     bool
	IsSuperuser bool
}

func Anonymous() Actor { return Actor{} }

func ActorFromUser(u user.User) Actor {
	return Actor{
		ID:          u.ID,
		Username:    u.Username,
		Role:        u.Role,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
	}
}

func (a Actor) Authenticated() bool { return a.ID != 0 }

// AdminLevel is role admin, or either account flag.
func (a Actor) AdminLevel() bool {
	return a.Role == user.RoleAdmin || a.IsStaff || a.IsSuperuser
}

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

func (a Action) Safe() bool { return a == ActionRead }

func ActionFromMethod(method string) Action {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ActionRead
	case http.MethodPost:
		return ActionCreate
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionUpdate
	}
}

// Object is the target of an object-level check.
type Object struct {
	AuthorID int64
}

type Request struct {
	Actor  Actor
	Action Action
	// Object is nil at route level, before the target has been loaded.
	Object *Object
}

type Grant struct {
	Name   string
	Allows func(Request) bool
}

type Policy struct {
	Name   string
	Grants []Grant
}

type Decision int

const (
	Allow Decision = iota
	DenyUnauthenticated
	DenyForbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyUnauthenticated:
		return "deny_unauthenticated"
	case DenyForbidden:
		return "deny_forbidden"
	default:
		return "unknown"
	}
}

func (d Decision) Err() error {
	switch d {
	case DenyUnauthenticated:
		return ErrUnauthenticated
	case DenyForbidden:
		return ErrForbidden
	default:
		return nil
	}
}

// Evaluate runs the grants in order and stops at the first that allows.
// It returns the decision and the name of the matching grant, if any.
func (p Policy) Evaluate(req Request) (Decision, string) {
	for _, g := range p.Grants {
		if g.Allows(req) {
			return Allow, g.Name
		}
	}

	if !req.Actor.Authenticated() {
		return DenyUnauthenticated, ""
	}

	return DenyForbidden, ""
}

// Check is Evaluate reduced to an error.
func (p Policy) Check(actor Actor, action Action, obj *Object) error {
	d, _ := p.Evaluate(Request{Actor: actor, Action: action, Object: obj})
	return d.Err()
}
