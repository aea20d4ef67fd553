package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/auth"
)

const (
	contextKeyRmaID = "rma_id"
	contextKeyBrand = "brand"
)

// TokenVerifier checks customer session tokens
type TokenVerifier interface {
	Verify(token string) (*auth.SessionClaims, error)
}

// sessionMiddleware authenticates the Bearer token and pins the request to
// the RMA it was issued for
func sessionMiddleware(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing session token",
			})
			return
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "invalid or expired session token",
			})
			return
		}

		c.Set(contextKeyRmaID, claims.RmaID)
		c.Set(contextKeyBrand, claims.Brand)
		c.Next()
	}
}

// adminMiddleware gates the agent console behind a shared API key
func adminMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("X-Admin-Key")
		if apiKey == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "invalid admin key",
			})
			return
		}
		c.Next()
	}
}

// sessionRmaID returns the RMA id bound to the authenticated session
func sessionRmaID(c *gin.Context) string {
	return c.GetString(contextKeyRmaID)
}
