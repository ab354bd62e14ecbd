package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidHash         = errors.New("invalid password hash format")
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
	ErrMismatch            = errors.New("password does not match")
)

// Hasher produces argon2id PHC strings with a fixed parameter set.
type Hasher struct {
	params Params
}

func NewHasher(p Params) *Hasher {
	return &Hasher{params: p}
}

// Hash encodes password as $argon2id$v=19$m=..,t=..,p=..$<salt>$<key>.
func (h *Hasher) Hash(password string) (string, error) {
	p := h.params
	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory,
		p.Iterations,
		p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks password against an encoded hash using the parameters
// stored in the hash itself.
func (h *Hasher) Verify(hash, password string) error {
	return Verify(hash, password)
}

// NeedsRehash reports whether hash was produced with other parameters.
func (h *Hasher) NeedsRehash(hash string) bool {
	p, _, _, err := decodeHash(hash)
	if err != nil {
		return true
	}
	return p.Memory != h.params.Memory ||
		p.Iterations != h.params.Iterations ||
		p.Parallelism != h.params.Parallelism ||
		p.KeyLength != h.params.KeyLength
}

// Verify returns nil on match, ErrMismatch on mismatch, or a decode error.
func Verify(hash, password string) error {
	p, salt, want, err := decodeHash(hash)
	if err != nil {
		return err
	}

	got := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	if subtle.ConstantTimeCompare(want, got) != 1 {
		return ErrMismatch
	}
	return nil
}

// Generate creates a random URL-safe password of the given length; used for
// temporary credentials of patients created on a doctor's behalf.
func Generate(length int) string {
	if length <= 0 {
		length = 16
	}

	b := make([]byte, (length*6+7)/8)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Errorf("failed to generate random password: %w", err))
	}

	encoded := base64.RawURLEncoding.EncodeToString(b)
	if len(encoded) > length {
		return encoded[:length]
	}
	return encoded
}

func decodeHash(encoded string) (*Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return nil, nil, nil, ErrIncompatibleVersion
	}

	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return nil, nil, nil, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, ErrInvalidHash
	}
	p.SaltLength = uint32(len(salt))

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, nil, ErrInvalidHash
	}
	p.KeyLength = uint32(len(key))

	return &p, salt, key, nil
}
