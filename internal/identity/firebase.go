package identity

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/errorutils"
	"google.golang.org/api/option"
)

// firebaseAuth is the subset of *auth.Client the provider calls.
type firebaseAuth interface {
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*auth.Token, error)
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

type FirebaseProvider struct {
	client firebaseAuth
}

func NewFirebaseProvider(client firebaseAuth) *FirebaseProvider {
	return &FirebaseProvider{client: client}
}

// NewFirebaseAuthClient initializes the Firebase app and returns its Auth client.
func NewFirebaseAuthClient(ctx context.Context, projectID, credentialsFile string) (*auth.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app init failed: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth init failed: %w", err)
	}
	return client, nil
}

func (p *FirebaseProvider) Verify(ctx context.Context, idToken string) (Session, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return Session{}, ErrUnauthenticated
	}
	token, err := p.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	uid := strings.TrimSpace(token.UID)
	if uid == "" {
		return Session{}, ErrInvalidToken
	}
	return Session{
		UID:         uid,
		Email:       stringClaim(token.Claims, "email"),
		DisplayName: stringClaim(token.Claims, "name"),
	}, nil
}

func (p *FirebaseProvider) CreateUser(ctx context.Context, email, password string) (Session, error) {
	params := (&auth.UserToCreate{}).Email(email).Password(password)
	rec, err := p.client.CreateUser(ctx, params)
	if err != nil {
		return Session{}, mapFirebaseError(err)
	}
	return Session{UID: rec.UID, Email: rec.Email, DisplayName: rec.DisplayName}, nil
}

func (p *FirebaseProvider) SignOut(ctx context.Context, s Session) error {
	if !s.Authenticated() {
		return ErrUnauthenticated
	}
	if err := p.client.RevokeRefreshTokens(ctx, s.UID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

func mapFirebaseError(err error) error {
	switch {
	case auth.IsEmailAlreadyExists(err):
		return fmt.Errorf("%w: %v", ErrEmailInUse, err)
	case errorutils.IsPermissionDenied(err):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	// argument checks in the admin SDK fail before any request is made
	msg := err.Error()
	switch {
	case strings.Contains(msg, "malformed email"):
		return fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	case strings.Contains(msg, "password must be"):
		return fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}
	return fmt.Errorf("create user: %w", err)
}

func stringClaim(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
