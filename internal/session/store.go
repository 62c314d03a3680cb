/**
 * @description
 * This file implements the subscriber session store. The session is kept
 * client-side in an httpOnly cookie; writing the cookie is the only thing
 * that marks a user "logged in" and deleting it is the only logout.
 *
 * Key features:
 * - Encode/Decode round-trip the session through the cookie value.
 * - With a signing secret configured, the payload is HMAC-signed using
 *   gorilla/securecookie so a subscriber cannot forge entitlement state.
 *   Without one, the value is plain JSON.
 * - Decode never fails loudly: any unparsable or tampered value is treated
 *   as "no session".
 *
 * @dependencies
 * - github.com/gorilla/securecookie: HMAC signing of the cookie payload.
 */
package session

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/theinsider/membership-service/internal/domain"
)

// CookieName is the subscriber session cookie.
const CookieName = "subscriber_session"

// cookieMaxAge is the cookie lifetime in seconds (30 days).
const cookieMaxAge = 60 * 60 * 24 * 30

// Store encodes and decodes the subscriber session cookie.
type Store struct {
	secure bool
	signer *securecookie.SecureCookie
}

// NewStore creates a session store. A non-empty secret enables HMAC signing
// of the cookie payload; secure controls the cookie's Secure flag and should
// be true in production-like environments.
func NewStore(secret string, secure bool) *Store {
	s := &Store{secure: secure}
	if secret != "" {
		signer := securecookie.New([]byte(secret), nil)
		signer.SetSerializer(securecookie.JSONEncoder{})
		signer.MaxAge(cookieMaxAge)
		s.signer = signer
	}
	return s
}

// Encode serializes a session into a cookie value. The unsigned form is
// base64 over the JSON payload; raw JSON contains characters http.SetCookie
// strips from cookie values.
func (s *Store) Encode(sess domain.SubscriberSession) (string, error) {
	if s.signer != nil {
		return s.signer.Encode(CookieName, sess)
	}
	b, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Decode parses a cookie value back into a session. Any failure (bad JSON,
// bad signature, truncated value) yields nil rather than an error: a broken
// cookie and a missing cookie are indistinguishable to callers.
func (s *Store) Decode(value string) *domain.SubscriberSession {
	if value == "" {
		return nil
	}
	var sess domain.SubscriberSession
	if s.signer != nil {
		if err := s.signer.Decode(CookieName, value, &sess); err != nil {
			return nil
		}
		return &sess
	}
	b, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil
	}
	return &sess
}

// Read returns the current request's session, or nil when the cookie is
// missing, unparsable, or past its local renewal boundary.
func (s *Store) Read(r *http.Request) *domain.SubscriberSession {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}
	sess := s.Decode(cookie.Value)
	if sess == nil || sess.Expired(time.Now()) {
		return nil
	}
	return sess
}

// Write replaces the subscriber session cookie on the response.
func (s *Store) Write(w http.ResponseWriter, sess domain.SubscriberSession) error {
	value, err := s.Encode(sess)
	if err != nil {
		return err
	}
	cookie := s.newCookie(value)
	http.SetCookie(w, cookie)
	return nil
}

// Clear deletes the subscriber session cookie (logout).
func (s *Store) Clear(w http.ResponseWriter) {
	cookie := s.newCookie("")
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
}

// newCookie builds the cookie with the fixed options: httpOnly, SameSite=Lax,
// 30-day max age, root path, Secure only in production-like environments.
func (s *Store) newCookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
