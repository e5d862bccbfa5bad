package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionCookie = "admin_session"
	sessionIssuer = "telegram-reward-bot/admin"
	adminRole     = "admin"
)

var (
	ErrNoSession      = errors.New("no session token")
	ErrInvalidSession = errors.New("invalid session token")
)

// SessionClaims is the payload of an admin API session token.
type SessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthManager issues and verifies HS256 admin sessions.
type AuthManager struct {
	secret []byte
	secure bool
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthManager returns nil when secret is empty; sessions are then disabled
// and only the API key is accepted.
func NewAuthManager(secret string, secure bool, ttl time.Duration) *AuthManager {
	if secret == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &AuthManager{secret: []byte(secret), secure: secure, ttl: ttl, now: time.Now}
}

// Mint signs a session token and sets it as an HttpOnly cookie.
func (a *AuthManager) Mint(w http.ResponseWriter) (string, error) {
	now := a.now()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		Role: adminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}).SignedString(a.secret)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, a.cookie(signed, int(a.ttl.Seconds())))
	return signed, nil
}

// Clear expires the session cookie.
func (a *AuthManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, a.cookie("", -1))
}

func (a *AuthManager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookie,
		Value:    value,
		Path:     "/api/v1",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// ParseFromRequest reads the token from the Authorization header, falling
// back to the session cookie.
func (a *AuthManager) ParseFromRequest(r *http.Request) (*SessionClaims, error) {
	raw, ok := bearer(r)
	if !ok {
		c, err := r.Cookie(sessionCookie)
		if err != nil || c.Value == "" {
			return nil, ErrNoSession
		}
		raw = c.Value
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || claims.Role != adminRole {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

func bearer(r *http.Request) (string, bool) {
	scheme, tok, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}
