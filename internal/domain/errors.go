package domain

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSecretNotFound  = errors.New("secret not found")
	ErrAuthFailed      = errors.New("credentials rejected")
	ErrAuthExpired     = errors.New("shopper session expired")
	ErrNoDateAnchor    = errors.New("no row with a known date to infer from")
)
