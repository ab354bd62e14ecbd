package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		region string
		want   string
	}{
		{"national with region", "(650) 253-0000", "US", "+16502530000"},
		{"international ignores region", "+1 650 253 0000", "HK", "+16502530000"},
		{"lower-case region", "650-253-0000", "us", "+16502530000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw, tt.region)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeRejects(t *testing.T) {
	for _, raw := range []string{"", "   ", "12345", "not a number"} {
		_, err := Normalize(raw, "US")
		assert.ErrorIs(t, err, ErrInvalid, raw)
	}
}

func TestLooksInternational(t *testing.T) {
	assert.True(t, LooksInternational(" +85221234567"))
	assert.False(t, LooksInternational("21234567"))
}
