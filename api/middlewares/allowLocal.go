package middlewares

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/sharegate/tool"
)

// OnlyAllowLocal guards the owner API: the local machine is the only authenticated principal.
func OnlyAllowLocal(c *gin.Context) {
	// forwarded headers are never trusted here
	if ip := net.ParseIP(c.RemoteIP()); ip != nil && ip.IsLoopback() {
		c.Next()
		return
	}
	c.AbortWithStatusJSON(http.StatusForbidden, tool.FastReturnError("Forbidden"))
}
