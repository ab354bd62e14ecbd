// Package phone canonicalizes phone numbers so that identity lookups and
// unique indexes compare one representation.
package phone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var ErrInvalid = errors.New("invalid phone number")

// Normalize parses raw (national or international form) and returns it in
// E.164. Numbers without a country code are read in defaultRegion.
func Normalize(raw, defaultRegion string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalid
	}
	num, err := phonenumbers.Parse(raw, strings.ToUpper(defaultRegion))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalid
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// LooksInternational reports whether s is written with a leading "+".
func LooksInternational(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "+")
}
