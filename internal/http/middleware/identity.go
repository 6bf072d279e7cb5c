// README: Identity middleware. The core trusts the upstream gateway: actor id,
// role, and verified flag arrive as headers on every request.
package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"courier/internal/types"
)

const actorKey = "actor"

func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-User-Id")
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
			return
		}
		verified, _ := strconv.ParseBool(c.GetHeader("X-User-Verified"))
		c.Set(actorKey, types.Actor{
			ID:       types.ID(id),
			Role:     types.Role(c.GetHeader("X-User-Role")),
			Verified: verified,
		})
		c.Next()
	}
}

// ActorFrom returns the actor attached by Identity.
func ActorFrom(c *gin.Context) types.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return types.Actor{}
	}
	actor, _ := v.(types.Actor)
	return actor
}
