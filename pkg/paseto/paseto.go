package pasetotoken

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

const (
	claimType    = "typ"
	claimUserID  = "uid"
	claimSession = "sid"
	claimEmail   = "email"
	claimRole    = "role"
)

type Config struct {
	Issuer   string
	Audience string

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	Implicit []byte
}

// Manager issues and verifies the token pair bound to one login session.
type Manager struct {
	cfg    Config
	keys   Keys
	parser paseto.Parser
	now    func() time.Time
}

// Pair is what a login or refresh hands back to the client.
type Pair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

func New(cfg Config, keys Keys) (*Manager, error) {
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, ErrConfig{Msg: "issuer and audience are required"}
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	if cfg.RefreshTTL < cfg.AccessTTL {
		return nil, ErrConfig{Msg: "refresh ttl shorter than access ttl"}
	}

	p := paseto.NewParserWithoutExpiryCheck()
	p.AddRule(paseto.IssuedBy(cfg.Issuer))
	p.AddRule(paseto.ForAudience(cfg.Audience))

	return &Manager{cfg: cfg, keys: keys, parser: p, now: time.Now}, nil
}

// IssuePair signs an access and a refresh token for the same session.
func (m *Manager) IssuePair(sub Subject, sessionID uuid.UUID) (*Pair, error) {
	if !m.keys.canIssue() {
		return nil, ErrConfig{Msg: "verify-only keys cannot issue tokens"}
	}
	now := m.now()
	access, err := m.issue(TokenTypeAccess, sub, sessionID, now, m.cfg.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := m.issue(TokenTypeRefresh, sub, sessionID, now, m.cfg.RefreshTTL)
	if err != nil {
		return nil, err
	}
	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessTTL:    m.cfg.AccessTTL,
		RefreshTTL:   m.cfg.RefreshTTL,
	}, nil
}

// Verify checks signature, issuer, audience and the validity window.
func (m *Manager) Verify(token string) (*Claims, error) {
	tok, err := m.keys.open(&m.parser, token, m.cfg.Implicit)
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}
	claims, err := claimsOf(tok)
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}

	now := m.now()
	switch {
	case now.Before(claims.NotBefore):
		return nil, ErrInvalidToken{Err: errNotYetValid}
	case !now.Before(claims.ExpiresAt):
		return nil, ErrInvalidToken{Err: errExpired}
	}
	return claims, nil
}

// VerifyAs is Verify plus a check that the token is of type want and
// belongs to a session.
func (m *Manager) VerifyAs(token string, want TokenType) (*Claims, error) {
	claims, err := m.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.Type != want {
		return nil, ErrInvalidToken{Err: errWrongType}
	}
	if claims.SessionID == nil {
		return nil, ErrInvalidToken{Err: errNoSession}
	}
	return claims, nil
}

func (m *Manager) issue(tt TokenType, sub Subject, sessionID uuid.UUID, now time.Time, ttl time.Duration) (string, error) {
	tok := paseto.NewToken()
	tok.SetIssuer(m.cfg.Issuer)
	tok.SetAudience(m.cfg.Audience)
	tok.SetJti(randHex(16))
	tok.SetSubject(sub.UserID.String())
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(now.Add(ttl))

	tok.SetString(claimType, string(tt))
	tok.SetString(claimUserID, sub.UserID.String())
	tok.SetString(claimSession, sessionID.String())
	tok.SetString(claimRole, sub.Role)
	if sub.Email != "" {
		tok.SetString(claimEmail, sub.Email)
	}

	return m.keys.seal(&tok, m.cfg.Implicit)
}

func randHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func claimsOf(tok *paseto.Token) (*Claims, error) {
	out := &Claims{}
	var err error

	if out.TokenID, err = tok.GetJti(); err != nil {
		return nil, err
	}
	if out.Issuer, err = tok.GetIssuer(); err != nil {
		return nil, err
	}
	if out.Audience, err = tok.GetAudience(); err != nil {
		return nil, err
	}
	if out.IssuedAt, err = tok.GetIssuedAt(); err != nil {
		return nil, err
	}
	if out.NotBefore, err = tok.GetNotBefore(); err != nil {
		return nil, err
	}
	if out.ExpiresAt, err = tok.GetExpiration(); err != nil {
		return nil, err
	}

	typ, err := tok.GetString(claimType)
	if err != nil {
		return nil, err
	}
	out.Type = TokenType(typ)

	uid, err := tok.GetString(claimUserID)
	if err != nil {
		return nil, err
	}
	if out.UserID, err = uuid.Parse(uid); err != nil {
		return nil, err
	}

	if sid, err := tok.GetString(claimSession); err == nil {
		id, err := uuid.Parse(sid)
		if err != nil {
			return nil, err
		}
		out.SessionID = &id
	}

	// informational only; authorization re-reads the account
	out.Role, _ = tok.GetString(claimRole)
	out.Email, _ = tok.GetString(claimEmail)

	return out, nil
}
