package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrDemoMode        = errors.New("demo mode enabled")
	ErrInvalidPayload  = errors.New("invalid payload")
	ErrUnknownStyle    = errors.New("unknown style")
	ErrOutOfRange      = errors.New("value out of range")
	ErrUpstreamFailure = errors.New("upstream failure")
)
