package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when a session key is missing or expired.
var ErrSessionNotFound = errors.New("session not found")

func sessionKey(sid uuid.UUID) string      { return "session:" + sid.String() }
func loginFailKey(identifier string) string { return "login:fail:" + identifier }

// Session is what is kept under session:<sid>.
type Session struct {
	UserID      uuid.UUID
	RefreshHash string
}

// SessionStore keeps login sessions and failed-login counters in Redis.
type SessionStore struct {
	rdb *goredis.Client
}

func NewSessionStore(rdb *goredis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func (s *SessionStore) Create(ctx context.Context, sid uuid.UUID, sess Session, ttl time.Duration) error {
	key := sessionKey(sid)
	_, err := s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.HSet(ctx, key, "uid", sess.UserID.String(), "rh", sess.RefreshHash)
		p.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, sid uuid.UUID) (*Session, error) {
	vals, err := s.rdb.HGetAll(ctx, sessionKey(sid)).Result()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if len(vals) == 0 {
		return nil, ErrSessionNotFound
	}
	uid, err := uuid.Parse(vals["uid"])
	if err != nil {
		return nil, fmt.Errorf("session %s: bad user id: %w", sid, err)
	}
	return &Session{UserID: uid, RefreshHash: vals["rh"]}, nil
}

// Touch extends the session's TTL. It reports ErrSessionNotFound when the
// key is already gone.
func (s *SessionStore) Touch(ctx context.Context, sid uuid.UUID, ttl time.Duration) error {
	ok, err := s.rdb.Expire(ctx, sessionKey(sid), ttl).Result()
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) Exists(ctx context.Context, sid uuid.UUID) (bool, error) {
	n, err := s.rdb.Exists(ctx, sessionKey(sid)).Result()
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	return n > 0, nil
}

// Delete removes the session. Deleting a missing session is not an error.
func (s *SessionStore) Delete(ctx context.Context, sid uuid.UUID) error {
	if err := s.rdb.Del(ctx, sessionKey(sid)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// RecordLoginFailure bumps the failure counter for identifier and returns the
// new count. The counter expires window after the first failure.
func (s *SessionStore) RecordLoginFailure(ctx context.Context, identifier string, window time.Duration) (int64, error) {
	key := loginFailKey(identifier)
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("record login failure: %w", err)
	}
	if n == 1 {
		s.rdb.Expire(ctx, key, window)
	}
	return n, nil
}

func (s *SessionStore) LoginFailures(ctx context.Context, identifier string) (int64, error) {
	n, err := s.rdb.Get(ctx, loginFailKey(identifier)).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read login failures: %w", err)
	}
	return n, nil
}

func (s *SessionStore) ResetLoginFailures(ctx context.Context, identifier string) error {
	return s.rdb.Del(ctx, loginFailKey(identifier)).Err()
}
