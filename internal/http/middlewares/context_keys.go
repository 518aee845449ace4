package middlewares

import "github.com/gin-gonic/gin"

const (
	CtxRequestID = "request_id"
	CtxActor     = "auth.actor"
)

// abortError writes the standard error envelope. Handlers use
// handlers.RespondError; middlewares cannot import that package.
func abortError(c *gin.Context, status int, code, message string) {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if id := c.GetString(CtxRequestID); id != "" {
		body["requestId"] = id
	}
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}
