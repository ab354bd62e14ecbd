package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carolhungwt/physio-doctor-platform/internal/repo"
	"github.com/carolhungwt/physio-doctor-platform/internal/service/user"
	"github.com/carolhungwt/physio-doctor-platform/pkg/crypto"
	pasetotoken "github.com/carolhungwt/physio-doctor-platform/pkg/paseto"
	"github.com/carolhungwt/physio-doctor-platform/pkg/redis"
	"github.com/carolhungwt/physio-doctor-platform/pkg/util/phone"
)

const (
	maxLoginAttempts = 5
	loginLockWindow  = 15 * time.Minute
)

// ---------------------------------------------------------------------------
// Dependencies
// ---------------------------------------------------------------------------

type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (*repo.User, error)
	GetUserByEmail(ctx context.Context, email string) (*repo.User, error)
	GetUserByUsername(ctx context.Context, username string) (*repo.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*repo.User, error)
	CreateUser(ctx context.Context, u *repo.User) error
}

// Sessions is satisfied by *redis.SessionStore.
type Sessions interface {
	Create(ctx context.Context, sid uuid.UUID, sess redis.Session, ttl time.Duration) error
	Get(ctx context.Context, sid uuid.UUID) (*redis.Session, error)
	Delete(ctx context.Context, sid uuid.UUID) error
	RecordLoginFailure(ctx context.Context, identifier string, window time.Duration) (int64, error)
	LoginFailures(ctx context.Context, identifier string) (int64, error)
	ResetLoginFailures(ctx context.Context, identifier string) error
}

// Tokens is satisfied by *pasetotoken.Manager.
type Tokens interface {
	IssuePair(sub pasetotoken.Subject, sessionID uuid.UUID) (*pasetotoken.Pair, error)
	VerifyAs(token string, want pasetotoken.TokenType) (*pasetotoken.Claims, error)
}

// Hasher is satisfied by *password.Hasher.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) error
}

type Config struct {
	MinPasswordLength  int
	DefaultPhoneRegion string
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type RegisterRequest struct {
	Email     string
	Password  string
	Role      string
	Username  string
	Phone     string
	FirstName string
	LastName  string
}

type AuthTokens struct {
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	ExpiresIn    int64      `json:"expiresIn"` // seconds until the access token expires
	User         *user.View `json:"user"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthTokens, error)
	Login(ctx context.Context, identifier, password string) (*AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
	Me(ctx context.Context, userID uuid.UUID) (*user.View, error)
}

type authService struct {
	store    Store
	sessions Sessions
	tokens   Tokens
	hasher   Hasher
	cfg      Config
	logger   *slog.Logger
}

func New(store Store, sessions Sessions, tokens Tokens, hasher Hasher, cfg Config, logger *slog.Logger) Service {
	if cfg.MinPasswordLength <= 0 {
		cfg.MinPasswordLength = 8
	}
	if cfg.DefaultPhoneRegion == "" {
		cfg.DefaultPhoneRegion = "HK"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &authService{
		store:    store,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		cfg:      cfg,
		logger:   logger,
	}
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*AuthTokens, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, ErrInvalidEmail
	}
	if len(req.Password) < s.cfg.MinPasswordLength {
		return nil, fmt.Errorf("%w: at least %d characters", ErrPasswordTooShort, s.cfg.MinPasswordLength)
	}
	role := repo.Role(strings.ToUpper(strings.TrimSpace(req.Role)))
	if !role.Valid() || role == repo.RoleAdmin {
		return nil, ErrInvalidRole
	}

	u := &repo.User{
		Email:    &email,
		Role:     role,
		IsActive: true,
	}
	if v := strings.TrimSpace(req.Username); v != "" {
		u.Username = &v
	}
	if v := strings.TrimSpace(req.FirstName); v != "" {
		u.FirstName = &v
	}
	if v := strings.TrimSpace(req.LastName); v != "" {
		u.LastName = &v
	}
	if v := strings.TrimSpace(req.Phone); v != "" {
		norm, err := phone.Normalize(v, s.cfg.DefaultPhoneRegion)
		if err != nil {
			return nil, ErrInvalidPhone
		}
		u.Phone = &norm
	}

	if err := s.checkAvailable(ctx, u); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash

	if err := s.store.CreateUser(ctx, u); err != nil {
		if repo.IsConstraint(err) {
			// Lost a race with a concurrent registration; report which field.
			if cerr := s.checkAvailable(ctx, u); cerr != nil {
				return nil, cerr
			}
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", u.ID, "role", u.Role)
	return s.createSession(ctx, u)
}

func (s *authService) checkAvailable(ctx context.Context, u *repo.User) error {
	checks := []struct {
		value *string
		get   func(context.Context, string) (*repo.User, error)
		taken error
	}{
		{u.Email, s.store.GetUserByEmail, ErrEmailExists},
		{u.Username, s.store.GetUserByUsername, ErrUsernameExists},
		{u.Phone, s.store.GetUserByPhone, ErrPhoneExists},
	}
	for _, c := range checks {
		if c.value == nil {
			continue
		}
		_, err := c.get(ctx, *c.value)
		if err == nil {
			return c.taken
		}
		if !repo.IsNotFound(err) {
			return fmt.Errorf("check uniqueness: %w", err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func (s *authService) Login(ctx context.Context, identifier, password string) (*AuthTokens, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	key := strings.ToLower(identifier)

	failures, err := s.sessions.LoginFailures(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read login failures: %w", err)
	}
	if failures >= maxLoginAttempts {
		return nil, ErrAccountLocked
	}

	u, err := s.lookup(ctx, identifier)
	if err != nil {
		if repo.IsNotFound(err) {
			s.recordFailedLogin(ctx, key)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := s.hasher.Verify(u.PasswordHash, password); err != nil {
		s.recordFailedLogin(ctx, key)
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrAccountDeactivated
	}

	if err := s.sessions.ResetLoginFailures(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "reset login failures", "error", err)
	}
	return s.createSession(ctx, u)
}

// lookup resolves an identifier as email, phone or username.
func (s *authService) lookup(ctx context.Context, identifier string) (*repo.User, error) {
	switch {
	case strings.Contains(identifier, "@"):
		return s.store.GetUserByEmail(ctx, strings.ToLower(identifier))
	case phone.LooksInternational(identifier):
		norm, err := phone.Normalize(identifier, s.cfg.DefaultPhoneRegion)
		if err != nil {
			return nil, repo.ErrNotFound
		}
		return s.store.GetUserByPhone(ctx, norm)
	default:
		return s.store.GetUserByUsername(ctx, identifier)
	}
}

func (s *authService) recordFailedLogin(ctx context.Context, key string) {
	n, err := s.sessions.RecordLoginFailure(ctx, key, loginLockWindow)
	if err != nil {
		s.logger.WarnContext(ctx, "record login failure", "error", err)
		return
	}
	if n == maxLoginAttempts {
		s.logger.WarnContext(ctx, "login locked after repeated failures", "identifier", key)
	}
}

// ---------------------------------------------------------------------------
// Refresh / Logout / Me
// ---------------------------------------------------------------------------

// RefreshTokens rotates the refresh token. Presenting a refresh token that
// was already rotated away revokes the whole session.
func (s *authService) RefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	claims, err := s.tokens.VerifyAs(refreshToken, pasetotoken.TokenTypeRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}
	sid := *claims.SessionID

	sess, err := s.sessions.Get(ctx, sid)
	if errors.Is(err, redis.ErrSessionNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.UserID != claims.UserID || sess.RefreshHash != crypto.Hash(refreshToken) {
		if derr := s.sessions.Delete(ctx, sid); derr != nil {
			s.logger.WarnContext(ctx, "revoke session", "session_id", sid, "error", derr)
		}
		s.logger.WarnContext(ctx, "refresh token reuse detected", "session_id", sid, "user_id", claims.UserID)
		return nil, ErrInvalidToken
	}

	u, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !u.IsActive {
		return nil, ErrAccountDeactivated
	}
	return s.issue(ctx, u, sid)
}

func (s *authService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*user.View, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user.ViewOf(u), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *authService) createSession(ctx context.Context, u *repo.User) (*AuthTokens, error) {
	return s.issue(ctx, u, repo.NewID())
}

// issue signs a token pair for sid and (re)writes the session with the hash
// of the new refresh token.
func (s *authService) issue(ctx context.Context, u *repo.User, sid uuid.UUID) (*AuthTokens, error) {
	sub := pasetotoken.Subject{UserID: u.ID, Role: string(u.Role)}
	if u.Email != nil {
		sub.Email = *u.Email
	}

	pair, err := s.tokens.IssuePair(sub, sid)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	sess := redis.Session{UserID: u.ID, RefreshHash: crypto.Hash(pair.RefreshToken)}
	if err := s.sessions.Create(ctx, sid, sess, pair.RefreshTTL); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &AuthTokens{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int64(pair.AccessTTL.Seconds()),
		User:         user.ViewOf(u),
	}, nil
}
