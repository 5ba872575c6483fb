package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marrmee/spark-gate/service"
)

// AddressHeader carries the claimed wallet address on authenticated requests.
const AddressHeader = "X-User-Address"

// identityKey is the gin context key holding the authenticated identity.
const identityKey = "identity"

// AddressAuth re-derives authentication from the signature ledger on every
// request. The denial is uniform: a missing header, a malformed address, an
// absent session, an expired session, and a storage outage all produce the
// same 401.
func AddressAuth(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := auth.Authenticate(c.Request.Context(), c.GetHeader(AddressHeader))
		if identity == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}
