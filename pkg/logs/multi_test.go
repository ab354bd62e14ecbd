package logs

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiHandlerFansOutByLevel(t *testing.T) {
	var infoBuf, errBuf bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&errBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	}}
	logger := slog.New(h).With("service", "test")

	logger.Info("referral created", "referral_id", "r1")
	logger.Error("publish failed")

	assert.Contains(t, infoBuf.String(), "referral created")
	assert.Contains(t, infoBuf.String(), "publish failed")
	assert.NotContains(t, errBuf.String(), "referral created")
	assert.Contains(t, errBuf.String(), "publish failed")
	assert.Contains(t, errBuf.String(), `"service":"test"`)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), in)
	}
}
