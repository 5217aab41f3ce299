package middleware

import (
	"strings"

	"github.com/contract-payment-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

const (
	// ActorIDHeader carries the identity resolved by the upstream identity provider
	ActorIDHeader = "X-Actor-ID"
	// ActorNameHeader is the optional display name of the actor
	ActorNameHeader = "X-Actor-Name"

	// AuthorizationKey is the key used to store the permission verdict in the context
	AuthorizationKey = "authorization"
)

// Authorizer decides whether an identified actor may call the contract commands
type Authorizer func(actor shared.Actor) shared.Authorization

// AllowAll accepts every identified actor
func AllowAll(actor shared.Actor) shared.Authorization {
	return shared.Allow(actor)
}

// Actor reads the caller identity from the request headers and stores the verdict of authorize.
// Requests without an identity are stored as denied; the commands reject them.
func Actor(authorize Authorizer) gin.HandlerFunc {
	if authorize == nil {
		authorize = AllowAll
	}
	return func(c *gin.Context) {
		actor := shared.Actor{
			ID:   strings.TrimSpace(c.GetHeader(ActorIDHeader)),
			Name: strings.TrimSpace(c.GetHeader(ActorNameHeader)),
		}

		var verdict shared.Authorization
		if actor.ID == "" {
			verdict = shared.Deny(actor, "missing "+ActorIDHeader+" header")
		} else {
			verdict = authorize(actor)
		}

		c.Set(AuthorizationKey, verdict)
		c.Next()
	}
}

// GetAuthorization retrieves the verdict stored by Actor. Without the middleware the request
// is treated as anonymous and denied.
func GetAuthorization(c *gin.Context) shared.Authorization {
	if v, exists := c.Get(AuthorizationKey); exists {
		if auth, ok := v.(shared.Authorization); ok {
			return auth
		}
	}
	return shared.Deny(shared.Actor{}, "missing "+ActorIDHeader+" header")
}
