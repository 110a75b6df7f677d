package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/matthewhartstonge/argon2"

	"github.com/fjod/shopnest/internal/domain"
	"github.com/fjod/shopnest/internal/repository"
)

const minPasswordLength = 6

// LocalProvider authenticates against password hashes kept in the user
// documents and issues HS256 bearer tokens. Sign-out revokes every token
// issued to the user so far.
type LocalProvider struct {
	users  repository.UserRepository
	secret []byte
	expiry time.Duration
	now    func() time.Time

	mu          sync.Mutex
	generations map[string]uint64

	// createMu serializes the email check and the write in CreateUser.
	createMu sync.Mutex
}

type localClaims struct {
	Email      string `json:"email"`
	Name       string `json:"name,omitempty"`
	Generation uint64 `json:"gen"`
	jwt.RegisteredClaims
}

func NewLocalProvider(users repository.UserRepository, secret string, expiry time.Duration) (*LocalProvider, error) {
	if secret == "" {
		return nil, errors.New("local identity: JWT secret is required")
	}
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &LocalProvider{
		users:       users,
		secret:      []byte(secret),
		expiry:      expiry,
		now:         time.Now,
		generations: make(map[string]uint64),
	}, nil
}

func (p *LocalProvider) CreateUser(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !domain.ValidEmail(email) {
		return Session{}, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return Session{}, ErrWeakPassword
	}

	argon := argon2.DefaultConfig()
	hash, err := argon.HashEncoded([]byte(password))
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	p.createMu.Lock()
	defer p.createMu.Unlock()

	_, err = p.users.FindUserByEmail(ctx, email)
	if err == nil {
		return Session{}, ErrEmailInUse
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}

	now := p.now().UTC()
	user := &domain.User{
		UID:          uuid.NewString(),
		Email:        email,
		Role:         domain.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
		PasswordHash: string(hash),
	}
	err = p.users.PutUser(ctx, user)
	if errors.Is(err, repository.ErrEmailTaken) {
		return Session{}, ErrEmailInUse
	}
	if err != nil {
		return Session{}, fmt.Errorf("store user: %w", err)
	}
	return Session{UID: user.UID, Email: user.Email}, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (string, Session, error) {
	user, err := p.users.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrUserNotFound) {
		return "", Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if user.PasswordHash == "" || !user.IsActive {
		return "", Session{}, ErrInvalidCredentials
	}

	ok, err := argon2.VerifyEncoded([]byte(password), []byte(user.PasswordHash))
	if err != nil || !ok {
		return "", Session{}, ErrInvalidCredentials
	}

	s := Session{UID: user.UID, Email: user.Email, DisplayName: user.DisplayName}
	token, err := p.Issue(s)
	if err != nil {
		return "", Session{}, err
	}
	return token, s, nil
}

// Issue signs a token for s at the user's current generation.
func (p *LocalProvider) Issue(s Session) (string, error) {
	if !s.Authenticated() {
		return "", ErrUnauthenticated
	}
	now := p.now()
	claims := localClaims{
		Email:      s.Email,
		Name:       s.DisplayName,
		Generation: p.generation(s.UID),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (p *LocalProvider) Verify(_ context.Context, token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, ErrUnauthenticated
	}

	var claims localClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now))
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Session{}, ErrInvalidToken
	}
	if claims.Generation < p.generation(claims.Subject) {
		return Session{}, fmt.Errorf("%w: revoked", ErrInvalidToken)
	}
	return Session{UID: claims.Subject, Email: claims.Email, DisplayName: claims.Name}, nil
}

func (p *LocalProvider) SignOut(_ context.Context, s Session) error {
	if !s.Authenticated() {
		return ErrUnauthenticated
	}
	p.mu.Lock()
	p.generations[s.UID]++
	p.mu.Unlock()
	return nil
}

func (p *LocalProvider) generation(uid string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generations[uid]
}
