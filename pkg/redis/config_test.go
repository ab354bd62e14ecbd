package redis

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/carolhungwt/physio-doctor-platform/config"
)

func TestFromCentralConfigKeepsDefaults(t *testing.T) {
	cfg := FromCentralConfig(config.RedisConfig{Addr: "cache:6379", DB: 2, ReadTimeoutSeconds: 7})

	assert.Equal(t, "cache:6379", cfg.Addr)
	assert.Equal(t, 2, cfg.DB)
	assert.Equal(t, 10, cfg.PoolSize)
	assert.Equal(t, 5*time.Second, cfg.DialTimeout)
	assert.Equal(t, 7*time.Second, cfg.ReadTimeout)
}

func TestNewRedisRejectsEmptyAddr(t *testing.T) {
	_, err := NewRedis(Config{})
	assert.Error(t, err)
}

func TestSessionKeys(t *testing.T) {
	sid := uuid.MustParse("0190a000-0000-7000-8000-000000000001")
	assert.Equal(t, "session:0190a000-0000-7000-8000-000000000001", sessionKey(sid))
	assert.Equal(t, "login:fail:a@x.com", loginFailKey("a@x.com"))
}
