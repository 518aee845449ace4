package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/reviewhub/internal/observability"
	"github.com/geocoder89/reviewhub/internal/policy"
)

// Authorize runs the route-level check of p. Object-level checks happen in
// the handler once the target is loaded.
func Authorize(p policy.Policy, prom *observability.Prom) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision, _ := p.Evaluate(policy.Request{
			Actor:  ActorFrom(c),
			Action: policy.ActionFromMethod(c.Request.Method),
		})

		switch decision {
		case policy.Allow:
			c.Next()
		case policy.DenyUnauthenticated:
			prom.ObservePolicyDenial(p.Name, decision.String())
			abortError(c, http.StatusUnauthorized, "unauthorized", "Authentication required")
		default:
			prom.ObservePolicyDenial(p.Name, decision.String())
			abortError(c, http.StatusForbidden, "forbidden", "You do not have permission to perform this action")
		}
	}
}
