package auth

import "errors"

var (
	ErrUnauthenticated  = errors.New("auth: unauthenticated")
	ErrForbidden        = errors.New("auth: forbidden")
	ErrUserNotFound     = errors.New("auth: user not found")
	ErrMalformed        = errors.New("auth: malformed credential")
	ErrInvalidSignature = errors.New("auth: invalid signature")
	ErrExpired          = errors.New("auth: credential expired")
	ErrMissingSecret    = errors.New("auth: signing secret is not configured")
	ErrInvalidClaim     = errors.New("auth: invalid identity claim")
)
