package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pasetotoken "github.com/carolhungwt/physio-doctor-platform/pkg/paseto"
	"github.com/carolhungwt/physio-doctor-platform/pkg/reqctx"
)

type fakeVerifier map[string]*pasetotoken.Claims

func (f fakeVerifier) Verify(token string) (*pasetotoken.Claims, error) {
	if c, ok := f[token]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

type fakeSessions map[uuid.UUID]bool

func (f fakeSessions) Exists(_ context.Context, sid uuid.UUID) (bool, error) {
	return f[sid], nil
}

func TestAuthRequired(t *testing.T) {
	live, dead := uuid.New(), uuid.New()
	user := uuid.New()

	verifier := fakeVerifier{
		"access":  {Type: pasetotoken.TokenTypeAccess, UserID: user, Role: "DOCTOR", SessionID: &live},
		"refresh": {Type: pasetotoken.TokenTypeRefresh, UserID: user, Role: "DOCTOR", SessionID: &live},
		"revoked": {Type: pasetotoken.TokenTypeAccess, UserID: user, Role: "DOCTOR", SessionID: &dead},
	}
	sessions := fakeSessions{live: true}

	app := fiber.New()
	app.Get("/me", AuthRequired(verifier, sessions), func(c fiber.Ctx) error {
		claims, ok := pasetotoken.ClaimsFromFiber(c)
		require.True(t, ok)
		uid, ok := reqctx.UserIDFromContext(c.Context())
		require.True(t, ok)
		assert.Equal(t, claims.UserID, uid)
		return c.SendString(uid.String())
	})

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"valid access token", "Bearer access", http.StatusOK},
		{"scheme is case-insensitive", "bearer access", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic access", http.StatusUnauthorized},
		{"unknown token", "Bearer junk", http.StatusUnauthorized},
		{"refresh token refused", "Bearer refresh", http.StatusUnauthorized},
		{"session gone", "Bearer revoked", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.code, resp.StatusCode)
		})
	}
}

func TestRequestIDEchoesIncoming(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString(reqctx.RequestIDFromContext(c.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "rid-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "rid-123", resp.Header.Get(HeaderRequestID))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "bad id; rm -rf")
	resp, err = app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	replaced := resp.Header.Get(HeaderRequestID)
	assert.NotEqual(t, "bad id; rm -rf", replaced)
	_, perr := uuid.Parse(replaced)
	assert.NoError(t, perr)
}
