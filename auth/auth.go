// Package auth issues and verifies signed session cookies.
//
// A session carries the user id and the email it was created for. The parsed
// session is attached to the request context by Middleware and re-derived on
// every request; nothing about the current user is kept between requests.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type ctxKey string

const (
	sessionCookieName = "session"
	sessionCtxKey     = ctxKey("session")

	// DefaultSecret is only meant for local development.
	DefaultSecret = "devsessionsecret"
	sessionTTL    = 14 * 24 * time.Hour
)

// Session is the authenticated identity carried by the session cookie.
type Session struct {
	UserID uint
	Email  string
}

// Manager signs and parses session cookies with an HMAC secret.
type Manager struct {
	secret []byte
	secure bool
}

// NewManager returns a Manager using secret (DefaultSecret when empty).
// secure marks cookies Secure, which browsers only send over HTTPS.
func NewManager(secret string, secure bool) *Manager {
	if secret == "" {
		secret = DefaultSecret
	}
	return &Manager{secret: []byte(secret), secure: secure}
}

func (m *Manager) sign(payload string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// CreateSession sets a signed cookie holding the user id and email.
// Cookie format: <uid>.<base64url(email)>.<sig>
func (m *Manager) CreateSession(w http.ResponseWriter, s Session) {
	payload := strconv.FormatUint(uint64(s.UserID), 10) + "." +
		base64.RawURLEncoding.EncodeToString([]byte(s.Email))
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    payload + "." + m.sign(payload),
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sessionTTL),
	})
}

// ClearSession deletes the session cookie (sign out).
func (m *Manager) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ParseSession validates the cookie and returns the session it carries.
func (m *Manager) ParseSession(r *http.Request) (Session, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return Session{}, false
	}
	parts := strings.Split(c.Value, ".")
	if len(parts) != 3 {
		return Session{}, false
	}
	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(m.sign(payload))) {
		return Session{}, false
	}
	id64, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil || id64 == 0 {
		return Session{}, false
	}
	email, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil || len(email) == 0 {
		return Session{}, false
	}
	return Session{UserID: uint(id64), Email: string(email)}, true
}

// Middleware attaches the session to the request context if the cookie is valid.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s, ok := m.ParseSession(r); ok {
			r = r.WithContext(WithSession(r.Context(), s))
		}
		next.ServeHTTP(w, r)
	})
}

// WithSession stores the session in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, s)
}

// SessionFromContext extracts the session.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionCtxKey).(Session)
	if !ok || s.UserID == 0 || s.Email == "" {
		return Session{}, false
	}
	return s, true
}
