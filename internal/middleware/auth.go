// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vials-labs/vials-backend/internal/i18n"
	"github.com/vials-labs/vials-backend/internal/utils"
)

// RelayerAuth guards write routes fed by the indexer and settlement relayer.
// When required is false the token is optional and only recorded if valid.
func RelayerAuth(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if required {
				utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
				c.Abort()
				return
			}
			c.Next()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			if required {
				utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
				c.Abort()
				return
			}
			c.Next()
			return
		}

		claims, err := utils.ValidateRelayerToken(parts[1])
		if err != nil {
			if required {
				utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
				c.Abort()
				return
			}
			c.Next()
			return
		}

		c.Set("relayer", claims.Subject)
		c.Next()
	}
}
