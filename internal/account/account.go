// Package account implements registration, sign-in/out and the user profile.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fjod/shopnest/internal/domain"
	"github.com/fjod/shopnest/internal/identity"
	"github.com/fjod/shopnest/internal/repository"
)

const (
	minPasswordLength    = 6
	maxDisplayNameLength = 80
)

var (
	ErrSignInUnsupported = errors.New("password sign-in is handled by the identity provider")

	phonePattern    = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

// RegistrationError carries the message shown to the user for a failed
// provider call.
type RegistrationError struct {
	Message string
	Err     error
}

func (e *RegistrationError) Error() string { return e.Message }
func (e *RegistrationError) Unwrap() error { return e.Err }

type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ProfileUpdate holds the editable profile fields. Nil fields are left as is.
type ProfileUpdate struct {
	DisplayName *string `json:"displayName"`
	Phone       *string `json:"phone"`
	AvatarURL   *string `json:"avatarUrl"`
}

type Registration struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token,omitempty"`
}

type Service struct {
	provider identity.Provider
	users    repository.UserRepository
	hub      *identity.Hub
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(provider identity.Provider, users repository.UserRepository, hub *identity.Hub, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{provider: provider, users: users, hub: hub, logger: logger, now: time.Now}
}

func (r RegisterRequest) Validate() error {
	if !domain.ValidEmail(r.Email) {
		return domain.Invalid("email", "Please enter a valid email address.")
	}
	if r.Password != r.ConfirmPassword {
		return domain.Invalid("confirmPassword", "Passwords do not match.")
	}
	if len(r.Password) < minPasswordLength {
		return domain.Invalid("password", "Password should be at least 6 characters.")
	}
	return nil
}

// Register creates the identity and the user document. Input problems are
// reported before the provider is called.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Registration, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := req.Validate(); err != nil {
		return Registration{}, err
	}

	session, err := s.provider.CreateUser(ctx, req.Email, req.Password)
	if err != nil {
		s.logger.Warn("registration failed", zap.Error(err))
		return Registration{}, registrationError(err)
	}

	user, err := s.writeUserDocument(ctx, session)
	if err != nil {
		s.logger.Error("failed to write user document", zap.String("user_id", session.UID), zap.Error(err))
		return Registration{}, &RegistrationError{Message: "Registration failed. Please try again.", Err: err}
	}

	reg := Registration{User: user}
	if issuer, ok := s.provider.(identity.PasswordAuthenticator); ok {
		token, err := issuer.Issue(session)
		if err != nil {
			return Registration{}, err
		}
		reg.Token = token
	}

	s.publish(identity.SignedIn, session)
	s.logger.Info("user registered", zap.String("user_id", session.UID))
	return reg, nil
}

// writeUserDocument stores the profile, keeping any fields the provider
// already wrote.
func (s *Service) writeUserDocument(ctx context.Context, session identity.Session) (*domain.User, error) {
	now := s.now().UTC()
	user, err := s.users.GetUser(ctx, session.UID)
	if errors.Is(err, repository.ErrUserNotFound) {
		user = &domain.User{UID: session.UID, CreatedAt: now}
	} else if err != nil {
		return nil, err
	}

	user.Email = session.Email
	user.Role = domain.RoleUser
	user.IsActive = true
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if err := s.users.PutUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func registrationError(err error) *RegistrationError {
	msg := "Registration failed. Please try again."
	switch {
	case errors.Is(err, identity.ErrEmailInUse):
		msg = "This email is already registered."
	case errors.Is(err, identity.ErrInvalidEmail):
		msg = "Invalid email address."
	case errors.Is(err, identity.ErrWeakPassword):
		msg = "Password should be at least 6 characters."
	case errors.Is(err, identity.ErrPermissionDenied):
		msg = "Permission denied."
	}
	return &RegistrationError{Message: msg, Err: err}
}

// SignIn is available only when the provider issues its own tokens.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, *domain.User, error) {
	auth, ok := s.provider.(identity.PasswordAuthenticator)
	if !ok {
		return "", nil, ErrSignInUnsupported
	}
	token, session, err := auth.SignIn(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	user, err := s.Profile(ctx, session)
	if err != nil {
		return "", nil, err
	}
	s.publish(identity.SignedIn, session)
	return token, user, nil
}

func (s *Service) SignOut(ctx context.Context, session identity.Session) error {
	if !session.Authenticated() {
		return identity.ErrUnauthenticated
	}
	if err := s.provider.SignOut(ctx, session); err != nil {
		s.logger.Error("sign out failed", zap.String("user_id", session.UID), zap.Error(err))
		return fmt.Errorf("sign out: %w", err)
	}
	s.publish(identity.SignedOut, session)
	return nil
}

// Profile returns the stored user document, or one built from the session
// when none exists yet.
func (s *Service) Profile(ctx context.Context, session identity.Session) (*domain.User, error) {
	if !session.Authenticated() {
		return nil, identity.ErrUnauthenticated
	}
	user, err := s.users.GetUser(ctx, session.UID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return &domain.User{
			UID:         session.UID,
			Email:       session.Email,
			DisplayName: session.DisplayName,
			AvatarURL:   domain.DefaultAvatarURL,
			Role:        domain.RoleUser,
			IsActive:    true,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if user.AvatarURL == "" {
		user.AvatarURL = domain.DefaultAvatarURL
	}
	return user, nil
}

func (u *ProfileUpdate) normalize() {
	for _, f := range []*string{u.DisplayName, u.Phone, u.AvatarURL} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
	if u.Phone != nil {
		*u.Phone = phoneSeparators.Replace(*u.Phone)
	}
}

func (u ProfileUpdate) Validate() error {
	if u.DisplayName != nil && utf8.RuneCountInString(*u.DisplayName) > maxDisplayNameLength {
		return domain.Invalid("displayName", fmt.Sprintf("Display name must be at most %d characters.", maxDisplayNameLength))
	}
	if u.Phone != nil && *u.Phone != "" && !phonePattern.MatchString(*u.Phone) {
		return domain.Invalid("phone", "Phone number must have 7 to 15 digits.")
	}
	if u.AvatarURL != nil && *u.AvatarURL != "" {
		parsed, err := url.Parse(*u.AvatarURL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return domain.Invalid("avatarUrl", "Avatar must be an http(s) URL.")
		}
	}
	return nil
}

func (s *Service) UpdateProfile(ctx context.Context, session identity.Session, upd ProfileUpdate) (*domain.User, error) {
	if !session.Authenticated() {
		return nil, identity.ErrUnauthenticated
	}
	upd.normalize()
	if err := upd.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user, err := s.users.GetUser(ctx, session.UID)
	if errors.Is(err, repository.ErrUserNotFound) {
		user = &domain.User{
			UID:       session.UID,
			Email:     session.Email,
			Role:      domain.RoleUser,
			IsActive:  true,
			CreatedAt: now,
		}
	} else if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	if upd.DisplayName != nil {
		user.DisplayName = *upd.DisplayName
	}
	if upd.Phone != nil {
		user.Phone = *upd.Phone
	}
	if upd.AvatarURL != nil {
		user.AvatarURL = *upd.AvatarURL
	}
	user.UpdatedAt = now

	if err := s.users.PutUser(ctx, user); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return user, nil
}

func (s *Service) publish(kind identity.EventKind, session identity.Session) {
	if s.hub != nil {
		s.hub.Publish(identity.Event{Kind: kind, Session: session})
	}
}
