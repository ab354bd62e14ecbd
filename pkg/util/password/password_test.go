package password

import (
	"strings"
	"testing"

	"github.com/carolhungwt/physio-doctor-platform/config"
)

// cheap parameters keep the suite fast
var testParams = Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHasherHash(t *testing.T) {
	h := NewHasher(testParams)

	hash, err := h.Hash("correcthorsebatterystaple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=") {
		t.Errorf("Hash() format invalid, got %s", hash)
	}
	if !strings.Contains(hash, "m=1024,t=1,p=1") {
		t.Errorf("Hash() params not encoded: %s", hash)
	}
	if parts := strings.Split(hash, "$"); len(parts) != 6 {
		t.Errorf("Hash() expected 6 parts, got %d", len(parts))
	}
}

func TestVerify(t *testing.T) {
	h := NewHasher(testParams)
	password := "mysecretpassword"

	hash, err := h.Hash(password)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	tests := []struct {
		name     string
		hash     string
		password string
		wantErr  error
	}{
		{"correct password", hash, password, nil},
		{"wrong password", hash, "wrongpassword", ErrMismatch},
		{"empty password", hash, "", ErrMismatch},
		{"invalid hash format", "notahash", password, ErrInvalidHash},
		{"wrong algorithm", "$argon2i$v=19$m=65536,t=3,p=2$c29tZXNhbHQ$c29tZWhhc2g", password, ErrInvalidHash},
		{"malformed params", "$argon2id$v=19$invalid$c29tZXNhbHQ$c29tZWhhc2g", password, ErrInvalidHash},
		{"old version", "$argon2id$v=16$m=1024,t=1,p=1$c29tZXNhbHQ$c29tZWhhc2g", password, ErrIncompatibleVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := h.Verify(tt.hash, tt.password); err != tt.wantErr {
				t.Errorf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHashUniqueness(t *testing.T) {
	h := NewHasher(testParams)

	hash1, _ := h.Hash("samepassword")
	hash2, _ := h.Hash("samepassword")
	if hash1 == hash2 {
		t.Error("Hash() should salt each call")
	}
	if err := Verify(hash1, "samepassword"); err != nil {
		t.Errorf("hash1 verification failed: %v", err)
	}
	if err := Verify(hash2, "samepassword"); err != nil {
		t.Errorf("hash2 verification failed: %v", err)
	}
}

func TestNeedsRehash(t *testing.T) {
	current := NewHasher(testParams)
	hash, _ := current.Hash("pw")
	if current.NeedsRehash(hash) {
		t.Error("NeedsRehash() should be false for current params")
	}

	stronger := testParams
	stronger.Iterations = 2
	if !NewHasher(stronger).NeedsRehash(hash) {
		t.Error("NeedsRehash() should be true after params change")
	}
	if !current.NeedsRehash("garbage") {
		t.Error("NeedsRehash() should be true for undecodable hashes")
	}
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name   string
		length int
		want   int
	}{
		{"default length (0)", 0, 16},
		{"custom length 8", 8, 8},
		{"custom length 32", 32, 32},
		{"negative length", -5, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.length); len(got) != tt.want {
				t.Errorf("Generate(%d) length = %d, want %d", tt.length, len(got), tt.want)
			}
		})
	}

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		p := Generate(16)
		if seen[p] {
			t.Error("Generate() produced duplicate password")
		}
		seen[p] = true
	}
}

func TestFromCentralConfigDefaults(t *testing.T) {
	p := FromCentralConfig(config.PasswordConfig{Iterations: 5})
	if p.Iterations != 5 {
		t.Errorf("Iterations = %d, want 5", p.Iterations)
	}
	if p.Memory != DefaultParams().Memory {
		t.Errorf("Memory = %d, want default", p.Memory)
	}
}
