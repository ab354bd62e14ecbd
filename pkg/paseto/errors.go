package pasetotoken

import (
	"errors"
	"fmt"
)

var (
	errNotYetValid = errors.New("token not yet valid")
	errExpired     = errors.New("token expired")
	errWrongType   = errors.New("unexpected token type")
	errNoSession   = errors.New("token carries no session")
)

type ErrConfig struct{ Msg string }

func (e ErrConfig) Error() string { return "paseto config error: " + e.Msg }

type ErrInvalidToken struct{ Err error }

func (e ErrInvalidToken) Error() string { return fmt.Sprintf("invalid token: %v", e.Err) }
func (e ErrInvalidToken) Unwrap() error { return e.Err }
