package middleware

import (
	"github.com/gin-gonic/gin"
)

// ClientIP is the address used for rate limiting and inquiry records.
// Forwarding headers count only when the engine trusts the sending proxy
// (gin.Engine.SetTrustedProxies); otherwise the socket address is used.
func ClientIP(c *gin.Context) string {
	if ip, ok := c.Get(clientIPKey); ok {
		return ip.(string)
	}
	ip := c.ClientIP()
	c.Set(clientIPKey, ip)
	return ip
}

const clientIPKey = "clientIP"
