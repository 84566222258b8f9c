package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNetwork         = errors.New("network error")
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrEmptyCart       = fmt.Errorf("%w: cart is empty", ErrValidation)
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	// ErrSessionChanged rejects a request made under an identity the session no longer has.
	ErrSessionChanged = errors.New("session identity changed")
)

type ErrorKind string

const (
	ErrorKindNone       ErrorKind = ""
	ErrorKindNetwork    ErrorKind = "network"
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindNotFound   ErrorKind = "not_found"
)

func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorKindNone
	case errors.Is(err, ErrValidation):
		return ErrorKindValidation
	case errors.Is(err, ErrNotFound):
		return ErrorKindNotFound
	default:
		return ErrorKindNetwork
	}
}
