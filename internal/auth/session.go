package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"granito/internal/config"

	"github.com/go-chi/jwtauth"
)

const CookieName = "granito_session"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotConfigured      = errors.New("sessions are not configured: SESSION_SECRET, ADMIN_EMAIL and ADMIN_PASSWORD are required")
	ErrInvalidSession     = errors.New("invalid or expired session")
)

type Session struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionManager issues and verifies HS256 session tokens for the single
// admin account.
type SessionManager struct {
	tokens        *jwtauth.JWTAuth
	ttl           time.Duration
	adminEmail    string
	adminPassword string
}

func NewSessionManager(cfg *config.Config) *SessionManager {
	m := &SessionManager{
		ttl:           cfg.SessionTTL,
		adminEmail:    cfg.AdminEmail,
		adminPassword: cfg.AdminPassword,
	}
	if m.ttl == 0 {
		m.ttl = 12 * time.Hour
	}
	if cfg.SessionSecret != "" {
		m.tokens = jwtauth.New("HS256", []byte(cfg.SessionSecret), nil)
	}
	return m
}

func (m *SessionManager) configured() bool {
	return m.tokens != nil && m.adminEmail != "" && m.adminPassword != ""
}

// Login checks the admin credentials and returns a signed session token.
func (m *SessionManager) Login(email, password string) (string, *Session, error) {
	if !m.configured() {
		return "", nil, ErrNotConfigured
	}
	emailOK := subtle.ConstantTimeCompare([]byte(strings.ToLower(strings.TrimSpace(email))), []byte(strings.ToLower(m.adminEmail))) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(m.adminPassword)) == 1
	if !emailOK || !passwordOK {
		return "", nil, ErrInvalidCredentials
	}

	session := &Session{Email: m.adminEmail, ExpiresAt: time.Now().Add(m.ttl).UTC().Truncate(time.Second)}
	claims := map[string]interface{}{"sub": session.Email}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiry(claims, session.ExpiresAt)

	_, token, err := m.tokens.Encode(claims)
	if err != nil {
		return "", nil, err
	}
	return token, session, nil
}

// Verify validates a token's signature and expiry.
func (m *SessionManager) Verify(tokenString string) (*Session, error) {
	if m.tokens == nil {
		return nil, ErrNotConfigured
	}
	if tokenString == "" {
		return nil, ErrInvalidSession
	}
	token, err := m.tokens.Decode(tokenString)
	if err != nil || token == nil || token.Subject() == "" {
		return nil, ErrInvalidSession
	}
	expiresAt := token.Expiration()
	if expiresAt.IsZero() || !time.Now().Before(expiresAt) {
		return nil, ErrInvalidSession
	}
	return &Session{Email: token.Subject(), ExpiresAt: expiresAt}, nil
}

// TokenFromRequest reads the session cookie, falling back to a bearer token.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return jwtauth.TokenFromHeader(r)
}

func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}
