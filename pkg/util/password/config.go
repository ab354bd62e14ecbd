package password

import "github.com/carolhungwt/physio-doctor-platform/config"

// Params defines the Argon2id parameters.
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32 // bytes
	KeyLength   uint32 // bytes
}

// DefaultParams follows the OWASP argon2id recommendation.
func DefaultParams() Params {
	return Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// FromCentralConfig converts config.PasswordConfig, falling back to defaults
// for unset fields.
func FromCentralConfig(c config.PasswordConfig) Params {
	p := DefaultParams()
	if c.MemoryKiB > 0 {
		p.Memory = c.MemoryKiB
	}
	if c.Iterations > 0 {
		p.Iterations = c.Iterations
	}
	if c.Parallelism > 0 {
		p.Parallelism = c.Parallelism
	}
	if c.SaltLength > 0 {
		p.SaltLength = c.SaltLength
	}
	if c.KeyLength > 0 {
		p.KeyLength = c.KeyLength
	}
	return p
}
