package vault

import (
	"time"

	"github.com/google/uuid"
)

// CredentialType labels what kind of secret a credential holds.
type CredentialType string

const (
	TypeAPIKey  CredentialType = "api_key"
	TypeSMTP    CredentialType = "smtp_password"
	TypeWebhook CredentialType = "webhook_secret"
	TypeGeneric CredentialType = "generic"
)

// Credential is a stored secret. EncryptedValue and EncryptedTOTPSecret hold
// ciphertext only; plaintext exists in memory solely inside Store, Retrieve,
// and Rotate.
type Credential struct {
	ID                  uuid.UUID      `json:"id"`
	Name                string         `json:"name"`
	Type                CredentialType `json:"type"`
	EncryptedValue      string         `json:"-"`
	Requires2FA         bool           `json:"requires_2fa"`
	EncryptedTOTPSecret string         `json:"-"`
	AccessCount         int64          `json:"access_count"`
	LastAccessedAt      *time.Time     `json:"last_accessed_at,omitempty"`
	RotatedAt           *time.Time     `json:"rotated_at,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// Enrollment carries what an operator needs to register the credential's
// second factor in an authenticator app. It is returned exactly once, from
// Store, and never persisted.
type Enrollment struct {
	URI    string `json:"uri"`
	QRCode string `json:"qr_code"`
}
