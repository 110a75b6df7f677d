package identity

import (
	"context"
	"errors"
	"sync"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFirebaseAuth struct {
	m         sync.RWMutex
	token     *auth.Token
	record    *auth.UserRecord
	err       error
	revokedBy []string
}

func (m *mockFirebaseAuth) VerifyIDTokenAndCheckRevoked(context.Context, string) (*auth.Token, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.token, m.err
}

func (m *mockFirebaseAuth) CreateUser(context.Context, *auth.UserToCreate) (*auth.UserRecord, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.record, m.err
}

func (m *mockFirebaseAuth) RevokeRefreshTokens(_ context.Context, uid string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.revokedBy = append(m.revokedBy, uid)
	return m.err
}

func TestFirebase_Verify(t *testing.T) {
	fake := &mockFirebaseAuth{token: &auth.Token{
		UID:    " u1 ",
		Claims: map[string]interface{}{"email": "a@b.co", "name": "Ann"},
	}}
	p := NewFirebaseProvider(fake)

	s, err := p.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, Session{UID: "u1", Email: "a@b.co", DisplayName: "Ann"}, s)

	_, err = p.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestFirebase_VerifyFailure(t *testing.T) {
	p := NewFirebaseProvider(&mockFirebaseAuth{err: errors.New("id token has been revoked")})

	_, err := p.Verify(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestFirebase_CreateUser(t *testing.T) {
	fake := &mockFirebaseAuth{record: &auth.UserRecord{UserInfo: &auth.UserInfo{UID: "u9", Email: "a@b.co"}}}
	p := NewFirebaseProvider(fake)

	s, err := p.CreateUser(context.Background(), "a@b.co", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u9", s.UID)
}

func TestFirebase_CreateUserErrorMapping(t *testing.T) {
	cases := []struct {
		msg  string
		want error
	}{
		{msg: `malformed email string: "x"`, want: ErrInvalidEmail},
		{msg: "password must be a string at least 6 characters long", want: ErrWeakPassword},
	}
	for _, tc := range cases {
		p := NewFirebaseProvider(&mockFirebaseAuth{err: errors.New(tc.msg)})
		_, err := p.CreateUser(context.Background(), "x", "y")
		assert.ErrorIs(t, err, tc.want, tc.msg)
	}

	p := NewFirebaseProvider(&mockFirebaseAuth{err: errors.New("boom")})
	_, err := p.CreateUser(context.Background(), "a@b.co", "secret1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailInUse)
}

func TestFirebase_SignOutRevokes(t *testing.T) {
	fake := &mockFirebaseAuth{}
	p := NewFirebaseProvider(fake)

	require.NoError(t, p.SignOut(context.Background(), Session{UID: "u1"}))
	assert.Equal(t, []string{"u1"}, fake.revokedBy)
	assert.ErrorIs(t, p.SignOut(context.Background(), Session{}), ErrUnauthenticated)
}
