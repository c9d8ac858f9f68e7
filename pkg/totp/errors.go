package totp

import "errors"

var (
	ErrSecretGeneration   = errors.New("failed to generate totp secret")
	ErrInvalidSecret      = errors.New("invalid totp secret")
	ErrInvalidCode        = errors.New("invalid totp code format")
	ErrMissingAccountName = errors.New("missing account name")
	ErrMissingIssuer      = errors.New("missing issuer")
)
