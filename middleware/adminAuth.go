package middleware

import (
	"net/http"
	"net/url"
	"time"

	"asterias/services/backend"
	"asterias/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// AdminTokenKey holds the opened backend token of an authenticated admin.
	AdminTokenKey = "adminToken"
	// AdminClaimsKey holds the *utils.TokenClaims read from that token.
	AdminClaimsKey = "adminClaims"
)

// AdminMode selects how an unauthenticated request is turned away.
type AdminMode int

const (
	// AdminHTML redirects to the login page.
	AdminHTML AdminMode = iota
	// AdminJSON answers 401.
	AdminJSON
)

// openSession returns the backend token sealed in the session cookie when it
// is present, decryptable and not expired.
func openSession(r *http.Request, sealer *utils.SessionSealer, now time.Time) (string, *utils.TokenClaims, error) {
	cookie, err := r.Cookie(utils.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", nil, utils.ErrSessionInvalid
	}
	token, err := sealer.Open(cookie.Value)
	if err != nil {
		return "", nil, err
	}
	claims, err := utils.InspectToken(token, now)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// AdminAuth guards the back office with the sealed session cookie.
func AdminAuth(sealer *utils.SessionSealer, mode AdminMode) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, claims, err := openSession(c.Request, sealer, time.Now())
		if err != nil {
			utils.LoggerFrom(c).Debug("admin session rejected", zap.Error(err))
			if _, cerr := c.Cookie(utils.SessionCookieName); cerr == nil {
				ClearSessionCookie(c)
			}
			if mode == AdminJSON {
				c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Authentication required"})
				return
			}
			c.Redirect(http.StatusSeeOther, "/admin/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Set(AdminTokenKey, token)
		c.Set(AdminClaimsKey, claims)
		c.Request = c.Request.WithContext(backend.WithToken(c.Request.Context(), token))
		c.Next()
	}
}

// SessionToken returns the backend token behind a request's session cookie,
// or "" when there is no valid session. It feeds the API proxy.
func SessionToken(sealer *utils.SessionSealer) func(*http.Request) string {
	return func(r *http.Request) string {
		token, _, err := openSession(r, sealer, time.Now())
		if err != nil {
			return ""
		}
		return token
	}
}

// SetSessionCookie seals token into the session cookie. maxAge follows the
// token's expiry.
func SetSessionCookie(c *gin.Context, sealer *utils.SessionSealer, token string, maxAge time.Duration, secure bool) error {
	sealed, err := sealer.Seal(token)
	if err != nil {
		return err
	}
	// MaxAge 0 would turn the cookie into a browser-session cookie.
	seconds := int(maxAge / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(utils.SessionCookieName, sealed, seconds, "/", "", secure, true)
	return nil
}

func ClearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(utils.SessionCookieName, "", -1, "/", "", false, true)
}
