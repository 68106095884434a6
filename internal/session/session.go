// Package session implements cookie-backed sessions. Session attributes are
// carried between requests inside an HMAC-signed JWT that the client returns
// unmodified; nothing from the cookie is trusted unless the signature
// verifies server-side.
package session

import (
	"context"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/strkeeper/internal/logger"
)

// UserIDAttribute is the attribute that marks a session as authenticated.
// A session without it is anonymous, no matter how it was created.
const UserIDAttribute = "user_id"

// Session is a mutable set of server-trusted attributes scoped to one client.
// The zero-attribute session is valid and means "anonymous".
type Session struct {
	attributes map[string]string
	dirty      bool
}

// New returns an empty (anonymous) session.
func New() *Session {
	return &Session{attributes: map[string]string{}}
}

// Get returns the attribute value and whether it is present.
func (s *Session) Get(name string) (string, bool) {
	value, ok := s.attributes[name]
	return value, ok
}

// Set stores an attribute and marks the session as needing to be re-issued.
func (s *Session) Set(name, value string) {
	s.attributes[name] = value
	s.dirty = true
}

// Clear drops every attribute, turning the session back into an anonymous one.
func (s *Session) Clear() {
	s.attributes = map[string]string{}
	s.dirty = true
}

// UserID returns the user_id attribute, or an empty string for an
// anonymous session.
func (s *Session) UserID() string {
	return s.attributes[UserIDAttribute]
}

// IsDirty reports whether the session was modified since it was loaded.
func (s *Session) IsDirty() bool {
	return s.dirty
}

// Claims is the JWT payload the session is serialized into.
type Claims struct {
	jwt.RegisteredClaims
	Attributes map[string]string `json:"attrs"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

const sessionContextKey ContextKey = "session"

// Manager signs sessions into cookies and verifies them back.
type Manager struct {
	cookieName       string
	signingSecretKey []byte
}

// NewManager creates a Manager issuing cookies with the given name, signed
// with the given secret.
func NewManager(cookieName string, signingSecretKey []byte) *Manager {
	return &Manager{
		cookieName:       cookieName,
		signingSecretKey: signingSecretKey,
	}
}

// Load reconstructs the session from the request's cookie. A missing,
// malformed or tampered cookie yields a fresh anonymous session rather
// than an error: the client simply has no trusted state.
func (m *Manager) Load(request *http.Request) *Session {
	cookie, err := request.Cookie(m.cookieName)
	if err != nil {
		return New()
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		cookie.Value,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.signingSecretKey, nil
		},
	)
	if err != nil || !token.Valid {
		logger.Log.Debugln("rejecting unverifiable session cookie: ", zap.Error(err))
		return New()
	}

	if claims.Attributes == nil {
		return New()
	}

	return &Session{attributes: claims.Attributes}
}

// Save signs the session's attributes and sets them as the session cookie.
func (m *Manager) Save(response http.ResponseWriter, sess *Session) error {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Attributes: sess.attributes})

	tokenString, err := token.SignedString(m.signingSecretKey)
	if err != nil {
		return err
	}

	http.SetCookie(
		response,
		&http.Cookie{
			Name:     m.cookieName,
			Value:    tokenString,
			Path:     "/",
			HttpOnly: true,
		},
	)

	return nil
}

// WithSession is an HTTP middleware that loads the client's session into the
// request context and, after the handler runs, re-issues the cookie when the
// session was modified.
func (m *Manager) WithSession(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		sess := m.Load(request)

		ctx := context.WithValue(request.Context(), sessionContextKey, sess)
		requestWithCtx := request.WithContext(ctx)

		h.ServeHTTP(&savingResponseWriter{
			ResponseWriter: response,
			manager:        m,
			session:        sess,
		}, requestWithCtx)
	}

	return http.HandlerFunc(middleware)
}

// FromContext extracts the session placed into the context by WithSession.
// It returns an anonymous session when the middleware did not run.
func FromContext(ctx context.Context) *Session {
	sess, ok := ctx.Value(sessionContextKey).(*Session)
	if !ok {
		return New()
	}
	return sess
}

// savingResponseWriter re-issues the session cookie right before the first
// byte of the response is written, so handlers may mutate the session at any
// point before replying.
type savingResponseWriter struct {
	http.ResponseWriter
	manager     *Manager
	session     *Session
	headerWrote bool
}

func (w *savingResponseWriter) WriteHeader(statusCode int) {
	w.flushSession()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *savingResponseWriter) Write(b []byte) (int, error) {
	w.flushSession()
	return w.ResponseWriter.Write(b)
}

func (w *savingResponseWriter) flushSession() {
	if w.headerWrote {
		return
	}
	w.headerWrote = true
	if !w.session.IsDirty() {
		return
	}
	if err := w.manager.Save(w.ResponseWriter, w.session); err != nil {
		logger.Log.Debugln("Error calling the `manager.Save()`: ", zap.Error(err))
	}
}
