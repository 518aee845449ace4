package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/reviewhub/internal/actorctx"
	"github.com/geocoder89/reviewhub/internal/auth"
	"github.com/geocoder89/reviewhub/internal/domain/user"
	"github.com/geocoder89/reviewhub/internal/policy"
)

type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

// UserLoader reloads the token's user so role changes apply immediately.
type UserLoader interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
}

type AuthMiddleware struct {
	jwt   TokenVerifier
	users UserLoader
}

func NewAuthMiddleware(jwt TokenVerifier, users UserLoader) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users}
}

// Authenticate resolves the actor. A request without an Authorization header
// runs as anonymous; a header that does not verify is rejected.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			SetActor(c, policy.Anonymous())
			c.Next()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortError(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			abortError(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid access token")
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			abortError(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired access token")
			return
		}

		id, err := claims.ID()
		if err != nil {
			abortError(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired access token")
			return
		}

		u, err := m.users.GetByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				abortError(c, http.StatusUnauthorized, "unauthorized", "Token user no longer exists")
				return
			}
			abortError(c, http.StatusInternalServerError, "internal_error", "Could not resolve identity")
			return
		}

		SetActor(c, policy.ActorFromUser(u))
		c.Next()
	}
}

// SetActor stores the actor on the gin context and its id on the request
// context, where the log handler picks it up.
func SetActor(c *gin.Context, actor policy.Actor) {
	c.Set(CtxActor, actor)
	if actor.Authenticated() {
		c.Request = c.Request.WithContext(actorctx.WithActorID(c.Request.Context(), actor.ID))
	}
}

// ActorFrom returns the request actor, anonymous when none was set.
func ActorFrom(c *gin.Context) policy.Actor {
	v, ok := c.Get(CtxActor)
	if !ok {
		return policy.Anonymous()
	}
	actor, ok := v.(policy.Actor)
	if !ok {
		return policy.Anonymous()
	}
	return actor
}
