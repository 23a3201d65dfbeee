package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// Required rejects requests without a valid session with 401.
func (m *SessionManager) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := m.Verify(TokenFromRequest(c.Request))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "No autorizado",
			})
			return
		}
		c.Set(sessionKey, session)
		c.Next()
	}
}

// FromContext returns the session stored by Required, if any.
func FromContext(c *gin.Context) (*Session, bool) {
	value, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	session, ok := value.(*Session)
	return session, ok
}
