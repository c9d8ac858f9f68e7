package vault

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/dmitrymomot/mailroom/pkg/secrets"
)

// Config holds vault settings sourced from the environment.
type Config struct {
	// AppKey is the base64-encoded 32-byte master key credentials are
	// encrypted under. Leaving it unset disables the vault routes.
	AppKey string `env:"VAULT_APP_KEY"`

	// Issuer names the service in authenticator apps during enrollment.
	Issuer string `env:"VAULT_TOTP_ISSUER" envDefault:"Mailroom"`
}

// DecodeAppKey parses and validates the configured master key.
func (c Config) DecodeAppKey() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(c.AppKey)
	if err != nil {
		return nil, errors.Join(secrets.ErrInvalidKey, err)
	}
	if len(key) != secrets.KeySize {
		return nil, fmt.Errorf("%w: got %d bytes", secrets.ErrInvalidKey, len(key))
	}
	return key, nil
}
