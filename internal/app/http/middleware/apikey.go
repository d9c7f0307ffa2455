package middleware

import (
	"crypto/subtle"
	"net/http"

	"ministry-site/config"

	"github.com/gin-gonic/gin"
)

// RequireAPIKey checks the public site key browsers send in the "apikey"
// header. It is not an authorization boundary; the bearer token is. An
// empty SITE_API_KEY disables the check.
func RequireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		want := config.SITE_API_KEY
		if want == "" {
			c.Next()
			return
		}
		got := c.GetHeader("apikey")
		if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			return
		}
		c.Next()
	}
}
