package repository

import "errors"

var (
	ErrCorruptLocalCart = errors.New("local cart payload is corrupt")
)
