package middleware

import (
	"errors"
	"net"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"syscall"

	"granito/internal/logger"

	"github.com/gin-gonic/gin"
)

// Recovery turns a panic inside a handler into the standard JSON 500 body.
// Panics caused by a client hanging up are dropped silently.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		if clientGone(recovered) {
			c.Abort()
			return
		}

		entry := log.With(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		})
		if gin.IsDebugging() {
			entry.Error("panic recovered: %v\n%s", recovered, debug.Stack())
		} else {
			entry.Error("panic recovered: %v", recovered)
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Error interno del servidor",
			"mensaje": "unexpected server error",
		})
	})
}

func clientGone(recovered interface{}) bool {
	err, ok := recovered.(error)
	if !ok {
		return false
	}
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var sysErr *os.SyscallError
	if errors.As(opErr.Err, &sysErr) {
		msg := strings.ToLower(sysErr.Error())
		return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
	}
	return false
}
