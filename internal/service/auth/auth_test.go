package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carolhungwt/physio-doctor-platform/internal/repo"
	"github.com/carolhungwt/physio-doctor-platform/internal/repo/repotest"
	pasetotoken "github.com/carolhungwt/physio-doctor-platform/pkg/paseto"
	"github.com/carolhungwt/physio-doctor-platform/pkg/redis"
)

type memSessions struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]redis.Session
	failures map[string]int64
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[uuid.UUID]redis.Session{}, failures: map[string]int64{}}
}

func (m *memSessions) Create(_ context.Context, sid uuid.UUID, sess redis.Session, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sid] = sess
	return nil
}

func (m *memSessions) Get(_ context.Context, sid uuid.UUID) (*redis.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sid]
	if !ok {
		return nil, redis.ErrSessionNotFound
	}
	return &s, nil
}

func (m *memSessions) Delete(_ context.Context, sid uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sid)
	return nil
}

func (m *memSessions) RecordLoginFailure(_ context.Context, id string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[id]++
	return m.failures[id], nil
}

func (m *memSessions) LoginFailures(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[id], nil
}

func (m *memSessions) ResetLoginFailures(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failures, id)
	return nil
}

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "plain:" + p, nil }
func (plainHasher) Verify(hash, p string) error {
	if hash != "plain:"+p {
		return errors.New("mismatch")
	}
	return nil
}

type env struct {
	svc      Service
	store    *repotest.Store
	sessions *memSessions
	tokens   *pasetotoken.Manager
}

func newEnv(t *testing.T) *env {
	t.Helper()
	tokens, err := pasetotoken.New(pasetotoken.Config{
		Issuer:   "physio-doctor-platform",
		Audience: "api",
	}, pasetotoken.NewLocalKeys())
	require.NoError(t, err)

	e := &env{store: repotest.New(), sessions: newMemSessions(), tokens: tokens}
	e.svc = New(e.store, e.sessions, tokens, plainHasher{}, Config{}, nil)
	return e
}

func register(t *testing.T, e *env, email, role string) *AuthTokens {
	t.Helper()
	out, err := e.svc.Register(context.Background(), RegisterRequest{
		Email: email, Password: "s3cret-pass", Role: role, Username: "u" + email[:3], Phone: "",
	})
	require.NoError(t, err)
	return out
}

func TestRegister(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	out := register(t, e, "Doc@Example.com", "doctor")
	require.NotNil(t, out.User)
	assert.Equal(t, repo.RoleDoctor, out.User.Role)
	assert.Equal(t, "doc@example.com", *out.User.Email)
	assert.NotEmpty(t, out.AccessToken)

	claims, err := e.tokens.Verify(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "DOCTOR", claims.Role)
	assert.Equal(t, out.User.ID, claims.UserID)

	_, err = e.svc.Register(ctx, RegisterRequest{Email: "doc@example.com", Password: "s3cret-pass", Role: "PATIENT"})
	assert.ErrorIs(t, err, ErrEmailExists)

	tests := []struct {
		name string
		req  RegisterRequest
		want error
	}{
		{"bad email", RegisterRequest{Email: "nope", Password: "s3cret-pass", Role: "PATIENT"}, ErrInvalidEmail},
		{"short password", RegisterRequest{Email: "a@b.com", Password: "short", Role: "PATIENT"}, ErrPasswordTooShort},
		{"admin", RegisterRequest{Email: "a@b.com", Password: "s3cret-pass", Role: "ADMIN"}, ErrInvalidRole},
		{"bad phone", RegisterRequest{Email: "a@b.com", Password: "s3cret-pass", Role: "PATIENT", Phone: "12"}, ErrInvalidPhone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.Register(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoginIdentifiers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.svc.Register(ctx, RegisterRequest{
		Email: "pt@example.com", Password: "s3cret-pass", Role: "PHYSIO", Username: "ptwong", Phone: "+852 9123 4567",
	})
	require.NoError(t, err)

	for _, id := range []string{"PT@example.com", "ptwong", "+85291234567"} {
		out, err := e.svc.Login(ctx, id, "s3cret-pass")
		require.NoError(t, err, id)
		assert.Equal(t, repo.RolePhysio, out.User.Role)
	}

	_, err = e.svc.Login(ctx, "pt@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = e.svc.Login(ctx, "ghost@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginLockout(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	register(t, e, "lock@example.com", "PATIENT")

	for range maxLoginAttempts {
		_, err := e.svc.Login(ctx, "lock@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err := e.svc.Login(ctx, "lock@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrAccountLocked)
}

func TestLoginDeactivated(t *testing.T) {
	e := newEnv(t)
	email := "off@example.com"
	require.NoError(t, e.store.CreateUser(context.Background(), &repo.User{
		Email: &email, PasswordHash: "plain:s3cret-pass", Role: repo.RolePatient, IsActive: false,
	}))

	_, err := e.svc.Login(context.Background(), email, "s3cret-pass")
	assert.ErrorIs(t, err, ErrAccountDeactivated)
}

func TestRefreshRotation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	first := register(t, e, "rot@example.com", "PATIENT")

	second, err := e.svc.RefreshTokens(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = e.svc.RefreshTokens(ctx, first.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken, "access tokens cannot refresh")

	// Replaying the rotated token revokes the session.
	_, err = e.svc.RefreshTokens(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = e.svc.RefreshTokens(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutAndMe(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	out := register(t, e, "me@example.com", "PATIENT")

	me, err := e.svc.Me(ctx, out.User.ID)
	require.NoError(t, err)
	assert.Equal(t, out.User.ID, me.ID)
	_, err = e.svc.Me(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)

	claims, err := e.tokens.Verify(out.RefreshToken)
	require.NoError(t, err)
	require.NoError(t, e.svc.Logout(ctx, *claims.SessionID))

	_, err = e.svc.RefreshTokens(ctx, out.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
