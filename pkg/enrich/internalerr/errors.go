package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrBadEncoding   = errors.New("bad encoding")
	ErrBadSyntax     = errors.New("bad syntax")
	ErrInvalidConfig = errors.New("invalid configuration")
)
