package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"granito/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		SessionSecret: "test-secret",
		SessionTTL:    time.Hour,
		AdminEmail:    "admin@granito.test",
		AdminPassword: "kickflip",
	}
}

func TestLoginAndVerify(t *testing.T) {
	m := NewSessionManager(testConfig())

	token, session, err := m.Login(" Admin@Granito.test ", "kickflip")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "admin@granito.test", session.Email)

	verified, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@granito.test", verified.Email)
	assert.WithinDuration(t, session.ExpiresAt, verified.ExpiresAt, time.Second)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	m := NewSessionManager(testConfig())

	_, _, err := m.Login("admin@granito.test", "ollie")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = NewSessionManager(&config.Config{}).Login("a", "b")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestVerifyRejectsForeignAndExpiredTokens(t *testing.T) {
	m := NewSessionManager(testConfig())

	other := testConfig()
	other.SessionSecret = "another-secret"
	foreign, _, err := NewSessionManager(other).Login("admin@granito.test", "kickflip")
	require.NoError(t, err)
	_, err = m.Verify(foreign)
	assert.ErrorIs(t, err, ErrInvalidSession)

	expiredCfg := testConfig()
	expiredCfg.SessionTTL = -time.Hour
	expired, _, err := NewSessionManager(expiredCfg).Login("admin@granito.test", "kickflip")
	require.NoError(t, err)
	_, err = m.Verify(expired)
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = m.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestRequiredMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewSessionManager(testConfig())
	token, _, err := m.Login("admin@granito.test", "kickflip")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/private", m.Required(), func(c *gin.Context) {
		session, ok := FromContext(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"email": session.Email})
	})

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"no session", func(r *http.Request) {}, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: token}) }, http.StatusOK},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
