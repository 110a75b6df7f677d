// Package identity resolves the current user session and broadcasts
// sign-in/sign-out changes to interested components.
package identity

import (
	"context"
	"errors"
)

var (
	ErrUnauthenticated    = errors.New("not signed in")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("weak password")
	ErrPermissionDenied   = errors.New("permission denied")
)

// Session is the signed-in user. The zero value is "no session".
type Session struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

func (s Session) Authenticated() bool { return s.UID != "" }

// Verifier turns a bearer token into a Session.
type Verifier interface {
	Verify(ctx context.Context, token string) (Session, error)
}

// Provider is the identity backend.
type Provider interface {
	Verifier
	CreateUser(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context, s Session) error
}

// PasswordAuthenticator is implemented by providers that issue their own
// tokens (local mode). Firebase clients sign in directly against Firebase.
type PasswordAuthenticator interface {
	SignIn(ctx context.Context, email, password string) (string, Session, error)
	Issue(s Session) (string, error)
}

type ctxKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the request's session, if any.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok && s.Authenticated()
}
