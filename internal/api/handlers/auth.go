package handlers

import (
	"errors"
	"net/http"

	"granito/internal/auth"
	"granito/internal/config"
	"granito/internal/logger"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	sessions *auth.SessionManager
	logger   *logger.Logger
	secure   bool
}

func NewAuthHandler(sessions *auth.SessionManager, logger *logger.Logger, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		logger:   logger,
		secure:   cfg.Env == "production",
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var request struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		writeError(c, BadRequest(err.Error()))
		return
	}

	token, session, err := h.sessions.Login(request.Email, request.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.logger.Warn("Rejected login for %s", request.Email)
		writeError(c, NewHTTPError(http.StatusUnauthorized, "Credenciales inválidas", ""))
		return
	case err != nil:
		writeError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, int(h.sessions.TTL().Seconds()), "/", "", h.secure, true)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"session": session,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, "", -1, "/", "", h.secure, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Session reports the current session; it runs behind auth.Required.
func (h *AuthHandler) Session(c *gin.Context) {
	session, _ := auth.FromContext(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "session": session})
}
