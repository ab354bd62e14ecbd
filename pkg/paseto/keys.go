package pasetotoken

import (
	"strings"

	paseto "aidanwoods.dev/go-paseto"

	"github.com/carolhungwt/physio-doctor-platform/config"
)

type Mode string

const (
	ModeLocal  Mode = "local"  // v4.local, encrypted
	ModePublic Mode = "public" // v4.public, signed
)

// Keys carries the key material for one mode. A public-mode Keys without a
// secret half can verify but not issue.
type Keys struct {
	Mode Mode

	symmetric *paseto.V4SymmetricKey
	secret    *paseto.V4AsymmetricSecretKey
	public    *paseto.V4AsymmetricPublicKey
}

// KeysFromConfig decodes the hex keys for the configured mode.
func KeysFromConfig(c config.PasetoConfig) (Keys, error) {
	switch Mode(c.Mode) {
	case ModeLocal:
		return localKeysFromHex(c.LocalKeyHex)
	case ModePublic:
		return publicKeysFromHex(c.SecretKeyHex, c.PublicKeyHex)
	default:
		return Keys{}, ErrConfig{Msg: "unknown mode " + c.Mode + " (use local or public)"}
	}
}

func localKeysFromHex(h string) (Keys, error) {
	h = strings.TrimSpace(h)
	if h == "" {
		return Keys{}, ErrConfig{Msg: "local mode requires local_key_hex"}
	}
	k, err := paseto.V4SymmetricKeyFromHex(h)
	if err != nil {
		return Keys{}, ErrConfig{Msg: "local_key_hex: " + err.Error()}
	}
	return Keys{Mode: ModeLocal, symmetric: &k}, nil
}

func publicKeysFromHex(secretHex, publicHex string) (Keys, error) {
	out := Keys{Mode: ModePublic}

	if h := strings.TrimSpace(secretHex); h != "" {
		sk, err := paseto.NewV4AsymmetricSecretKeyFromHex(h)
		if err != nil {
			return Keys{}, ErrConfig{Msg: "secret_key_hex: " + err.Error()}
		}
		pk := sk.Public()
		out.secret, out.public = &sk, &pk
	}
	if h := strings.TrimSpace(publicHex); h != "" {
		pk, err := paseto.NewV4AsymmetricPublicKeyFromHex(h)
		if err != nil {
			return Keys{}, ErrConfig{Msg: "public_key_hex: " + err.Error()}
		}
		out.public = &pk
	}

	if out.public == nil {
		return Keys{}, ErrConfig{Msg: "public mode requires secret_key_hex or public_key_hex"}
	}
	return out, nil
}

// NewLocalKeys generates a fresh symmetric key.
func NewLocalKeys() Keys {
	k := paseto.NewV4SymmetricKey()
	return Keys{Mode: ModeLocal, symmetric: &k}
}

// NewPublicKeys generates a fresh signing key pair.
func NewPublicKeys() Keys {
	sk := paseto.NewV4AsymmetricSecretKey()
	pk := sk.Public()
	return Keys{Mode: ModePublic, secret: &sk, public: &pk}
}

func (k Keys) canIssue() bool {
	return k.symmetric != nil || k.secret != nil
}

func (k Keys) seal(tok *paseto.Token, implicit []byte) (string, error) {
	switch {
	case k.Mode == ModeLocal && k.symmetric != nil:
		return tok.V4Encrypt(*k.symmetric, implicit), nil
	case k.Mode == ModePublic && k.secret != nil:
		return tok.V4Sign(*k.secret, implicit), nil
	default:
		return "", ErrConfig{Msg: "no issuing key for mode " + string(k.Mode)}
	}
}

func (k Keys) open(p *paseto.Parser, token string, implicit []byte) (*paseto.Token, error) {
	switch {
	case k.Mode == ModeLocal && k.symmetric != nil:
		return p.ParseV4Local(*k.symmetric, token, implicit)
	case k.Mode == ModePublic && k.public != nil:
		return p.ParseV4Public(*k.public, token, implicit)
	default:
		return nil, ErrConfig{Msg: "no verifying key for mode " + string(k.Mode)}
	}
}
