package policy

import (
	"errors"
	"net/http"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocoder89/reviewhub/internal/domain/user"
)

var (
	anon      = Anonymous()
	plain     = Actor{ID: 1, Username: "reader", Role: user.RoleUser}
	other     = Actor{ID: 2, Username: "other", Role: user.RoleUser}
	moderator = Actor{ID: 3, Username: "mod", Role: user.RoleModerator}
	admin     = Actor{ID: 4, Username: "boss", Role: user.RoleAdmin}
	staff     = Actor{ID: 5, Username: "staff", Role: user.RoleUser, IsStaff: true}
	superuser = Actor{ID: 6, Username: "root", Role: user.RoleUser, IsSuperuser: true}
)

func TestActionFromMethod(t *testing.T) {
	cases := map[string]Action{
		http.MethodGet:     ActionRead,
		http.MethodHead:    ActionRead,
		http.MethodOptions: ActionRead,
		http.MethodPost:    ActionCreate,
		http.MethodPut:     ActionUpdate,
		http.MethodPatch:   ActionUpdate,
		http.MethodDelete:  ActionDelete,
	}
	for method, want := range cases {
		assert.Equal(t, want, ActionFromMethod(method), method)
	}
}

func TestAdminOrReadOnly(t *testing.T) {
	tests := []struct {
		name   string
		actor  Actor
		action Action
		want   Decision
	}{
		{"anonymous read", anon, ActionRead, Allow},
		{"anonymous create", anon, ActionCreate, DenyUnauthenticated},
		{"user create", plain, ActionCreate, DenyForbidden},
		{"moderator delete", moderator, ActionDelete, DenyForbidden},
		{"admin role create", admin, ActionCreate, Allow},
		{"staff flag update", staff, ActionUpdate, Allow},
		{"superuser delete", superuser, ActionDelete, Allow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := AdminOrReadOnly.Evaluate(Request{Actor: tt.actor, Action: tt.action})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelfOrModeration_TwoPhase(t *testing.T) {
	obj := &Object{AuthorID: plain.ID}

	// route level: any authenticated actor gets through to the handler
	d, grant := SelfOrModeration.Evaluate(Request{Actor: other, Action: ActionUpdate})
	assert.Equal(t, Allow, d)
	assert.Equal(t, "author", grant)

	// object level: only the author or a moderator/admin
	d, _ = SelfOrModeration.Evaluate(Request{Actor: other, Action: ActionUpdate, Object: obj})
	assert.Equal(t, DenyForbidden, d)

	d, grant = SelfOrModeration.Evaluate(Request{Actor: plain, Action: ActionDelete, Object: obj})
	assert.Equal(t, Allow, d)
	assert.Equal(t, "author", grant)

	d, grant = SelfOrModeration.Evaluate(Request{Actor: moderator, Action: ActionDelete, Object: obj})
	assert.Equal(t, Allow, d)
	assert.Equal(t, "moderator", grant)

	d, grant = SelfOrModeration.Evaluate(Request{Actor: staff, Action: ActionUpdate, Object: obj})
	assert.Equal(t, Allow, d)
	assert.Equal(t, "admin_level", grant)

	d, _ = SelfOrModeration.Evaluate(Request{Actor: anon, Action: ActionCreate})
	assert.Equal(t, DenyUnauthenticated, d)

	d, grant = SelfOrModeration.Evaluate(Request{Actor: anon, Action: ActionRead, Object: obj})
	assert.Equal(t, Allow, d)
	assert.Equal(t, "safe_methods", grant)
}

func TestUserManagement(t *testing.T) {
	assert.ErrorIs(t, UserManagement.Check(anon, ActionRead, nil), ErrUnauthenticated)
	assert.ErrorIs(t, UserManagement.Check(plain, ActionRead, nil), ErrForbidden)
	assert.ErrorIs(t, UserManagement.Check(moderator, ActionRead, nil), ErrForbidden)
	assert.NoError(t, UserManagement.Check(admin, ActionDelete, nil))
	assert.NoError(t, UserManagement.Check(staff, ActionCreate, nil))
	assert.NoError(t, UserManagement.Check(superuser, ActionUpdate, nil))
}

func TestSelfService(t *testing.T) {
	assert.ErrorIs(t, SelfService.Check(anon, ActionRead, nil), ErrUnauthenticated)
	assert.NoError(t, SelfService.Check(plain, ActionUpdate, nil))
}

func TestEvaluate_ShortCircuits(t *testing.T) {
	calls := 0
	counting := Grant{Name: "counting", Allows: func(Request) bool { calls++; return false }}

	p := Policy{Name: "p", Grants: []Grant{SafeMethods, counting}}

	d, grant := p.Evaluate(Request{Actor: plain, Action: ActionRead})
	assert.Equal(t, Allow, d)
	assert.Equal(t, "safe_methods", grant)
	assert.Zero(t, calls)

	d, _ = p.Evaluate(Request{Actor: plain, Action: ActionCreate})
	assert.Equal(t, DenyForbidden, d)
	assert.Equal(t, 1, calls)
}

func TestRoleChangeGuard(t *testing.T) {
	role := string(user.RoleModerator)

	assert.NoError(t, RoleChangeGuard(plain, nil))
	assert.NoError(t, RoleChangeGuard(admin, &role))

	for _, a := range []Actor{plain, moderator, staff, superuser} {
		err := RoleChangeGuard(a, &role)
		require.Error(t, err, a.Username)

		var verrs validation.Errors
		require.True(t, errors.As(err, &verrs))
		assert.ErrorIs(t, verrs["role"], ErrRoleChange)
	}
}
