package middleware

import (
	"net/http"

	"asterias/services/redirect"
	"asterias/utils"

	"github.com/gin-gonic/gin"
)

// LocaleKey is the gin context key holding the locale of a public page.
const LocaleKey = "locale"

// Canonicalize issues the single canonical redirect for GET and HEAD requests
// and records the page locale for the handlers.
func Canonicalize(rules *redirect.Rules) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Next()
			return
		}
		cookie, _ := c.Cookie(utils.LocaleCookieName)
		d := rules.Evaluate(redirect.FromHTTP(c.Request, cookie))
		if d.Redirect {
			c.Header("Cache-Control", "no-store")
			if d.Status == http.StatusTemporaryRedirect {
				c.Header("Vary", "Cookie, Accept-Language")
			}
			c.Redirect(d.Status, d.Location)
			c.Abort()
			return
		}
		if d.Locale != "" {
			c.Set(LocaleKey, d.Locale)
		}
		c.Next()
	}
}
