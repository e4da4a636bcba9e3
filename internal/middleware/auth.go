// internal/middleware/auth.go
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/loopmarket/marketplace-backend/internal/i18n"
	"github.com/loopmarket/marketplace-backend/internal/utils"
)

var errNoToken = errors.New("no bearer token")

// bearerToken pulls the token out of the Authorization header.
func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", errNoToken
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errNoToken
	}

	return parts[1], nil
}

// authenticate validates the request's token and stashes the caller's
// identity in the context. Returns the i18n key describing the failure.
func authenticate(c *gin.Context) (errKey string) {
	token, err := bearerToken(c)
	if err != nil {
		return i18n.KeyAuthRequired
	}

	claims, err := utils.ValidateJWT(token)
	if err != nil {
		return i18n.KeyAuthTokenExpired
	}

	c.Set("user_id", claims.UserID)
	c.Set("username", claims.Username)
	return ""
}

func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := authenticate(c); key != "" {
			lang := utils.GetLangFromContext(c)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": i18n.T(lang, key),
			})
			return
		}
		c.Next()
	}
}

// OptionalAuth sets the caller's identity when a valid token is present
// and lets anonymous requests through untouched.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c)
		c.Next()
	}
}
