// SESSION FLOW:
//  1. POST /post-login verifies the credentials (service layer)
//  2. The handler calls Sessions.SetCookie, which signs an HS256 JWT whose
//     subject is the user's id and stores it in the HttpOnly "session" cookie
//  3. On later requests LoadSession reads the cookie, validates the signature
//     and expiry, and puts the user id in the request context
//  4. POST /logout overwrites the cookie with an expired one
//
// WHY A SIGNED TOKEN INSTEAD OF THE RAW USER ID?
// A cookie holding a bare id can be edited by the client to impersonate any
// account. The signature means only this server can mint a valid value, and the
// exp claim bounds how long a leaked cookie is useful. No session table needed.

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "session"

const issuer = "mentorship-platform"

// ErrNoSession is returned by UserID when the request carries no session cookie.
var ErrNoSession = errors.New("auth: no session cookie")

// Sessions issues and validates session tokens and manages the cookie.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

// NewSessions creates a Sessions manager. The secret must be at least 16
// characters; use SESSION_SECRET=$(openssl rand -hex 32) in production.
// secure sets the cookie's Secure flag (HTTPS only).
func NewSessions(secret string, ttl time.Duration, secure bool) (*Sessions, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: session TTL must be positive")
	}
	return &Sessions{secret: []byte(secret), ttl: ttl, secure: secure}, nil
}

// Issue signs a token for userID valid for the configured TTL.
func (s *Sessions) Issue(userID string) (string, error) {
	return s.issue(userID, s.ttl)
}

func (s *Sessions) issue(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("auth: cannot issue a session without a user id")
	}
	now := time.Now()

	c := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Issuer:    issuer,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing session: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns the user id it was issued for.
//
// WithValidMethods pins the algorithm, so a token with "alg":"none" or an
// asymmetric algorithm is rejected before the key is ever used.
func (s *Sessions) Parse(tokenStr string) (string, error) {
	var c jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: session expired")
		}
		return "", fmt.Errorf("auth: invalid session: %w", err)
	}
	if !token.Valid || c.Subject == "" {
		return "", fmt.Errorf("auth: session has no subject")
	}
	return c.Subject, nil
}

// SetCookie issues a session for userID and writes it as an HttpOnly cookie.
func (s *Sessions) SetCookie(w http.ResponseWriter, userID string) error {
	token, err := s.Issue(userID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearCookie tells the browser to drop the session cookie.
func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// UserID extracts and validates the session carried by r.
func (s *Sessions) UserID(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrNoSession
	}
	return s.Parse(cookie.Value)
}
