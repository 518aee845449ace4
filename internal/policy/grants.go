package policy

import "github.com/geocoder89/reviewhub/internal/domain/user"

var SafeMethods = Grant{
	Name:   "safe_methods",
	Allows: func(r Request) bool { return r.Action.Safe() },
}

var Authenticated = Grant{
	Name:   "authenticated",
	Allows: func(r Request) bool { return r.Actor.Authenticated() },
}

// Author passes any authenticated actor until the object is known.
var Author = Grant{
	Name: "author",
	Allows: func(r Request) bool {
		if !r.Actor.Authenticated() {
			return false
		}
		if r.Object == nil {
			return true
		}
		return r.Object.AuthorID == r.Actor.ID
	},
}

var Moderator = Grant{
	Name: "moderator",
	Allows: func(r Request) bool {
		return r.Actor.Authenticated() && r.Actor.Role == user.RoleModerator
	},
}

var AdminLevel = Grant{
	Name: "admin_level",
	Allows: func(r Request) bool {
		return r.Actor.Authenticated() && r.Actor.AdminLevel()
	},
}

var Superuser = Grant{
	Name: "superuser",
	Allows: func(r Request) bool {
		return r.Actor.Authenticated() && r.Actor.IsSuperuser
	},
}
