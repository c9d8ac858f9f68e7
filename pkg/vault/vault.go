package vault

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailroom/pkg/qrcode"
	"github.com/dmitrymomot/mailroom/pkg/secrets"
	"github.com/dmitrymomot/mailroom/pkg/totp"
)

// Storage persists credentials. Implementations must treat UpdateAccess and
// UpdateValue as full-row-independent updates so concurrent retrievals do not
// clobber a rotation.
type Storage interface {
	InsertCredential(ctx context.Context, cred Credential) error
	GetCredential(ctx context.Context, id uuid.UUID) (Credential, bool, error)
	ListCredentials(ctx context.Context) ([]Credential, error)
	UpdateAccess(ctx context.Context, id uuid.UUID, accessedAt time.Time) error
	UpdateValue(ctx context.Context, id uuid.UUID, encryptedValue string, rotatedAt time.Time) error
	DeleteCredential(ctx context.Context, id uuid.UUID) error
}

// Vault encrypts credentials with a per-credential derived key and gates
// retrieval behind TOTP when the credential demands it.
type Vault struct {
	storage Storage
	appKey  []byte
	issuer  string
	log     *slog.Logger
	now     func() time.Time
}

// Option configures a Vault.
type Option func(*Vault)

// WithLogger sets the logger used for access bookkeeping warnings.
func WithLogger(log *slog.Logger) Option {
	return func(v *Vault) {
		if log != nil {
			v.log = log
		}
	}
}

// WithIssuer overrides the issuer shown in authenticator apps.
func WithIssuer(issuer string) Option {
	return func(v *Vault) {
		if issuer != "" {
			v.issuer = issuer
		}
	}
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(v *Vault) {
		if now != nil {
			v.now = now
		}
	}
}

// New creates a Vault. appKey must be secrets.KeySize bytes.
func New(storage Storage, appKey []byte, opts ...Option) (*Vault, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	if len(appKey) != secrets.KeySize {
		return nil, secrets.ErrInvalidKey
	}

	v := &Vault{
		storage: storage,
		appKey:  appKey,
		issuer:  "Mailroom",
		log:     slog.New(slog.DiscardHandler),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// StoreParams describes a credential to store.
type StoreParams struct {
	Name        string
	Type        CredentialType
	Value       string
	Requires2FA bool
}

// Store encrypts and persists a credential. When Requires2FA is set, a TOTP
// secret is generated and the returned Enrollment carries the otpauth URI and
// a QR code for it. The enrollment is not recoverable later.
func (v *Vault) Store(ctx context.Context, params StoreParams) (Credential, *Enrollment, error) {
	if params.Name == "" {
		return Credential{}, nil, ErrNameRequired
	}
	if params.Value == "" {
		return Credential{}, nil, ErrValueRequired
	}
	if params.Type == "" {
		params.Type = TypeGeneric
	}

	id := uuid.New()
	now := v.now().UTC()

	encryptedValue, err := secrets.EncryptString(v.appKey, valueScope(id), params.Value)
	if err != nil {
		return Credential{}, nil, err
	}

	cred := Credential{
		ID:             id,
		Name:           params.Name,
		Type:           params.Type,
		EncryptedValue: encryptedValue,
		Requires2FA:    params.Requires2FA,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var enrollment *Enrollment
	if params.Requires2FA {
		secret, err := totp.GenerateSecret()
		if err != nil {
			return Credential{}, nil, err
		}
		cred.EncryptedTOTPSecret, err = secrets.EncryptString(v.appKey, totpScope(id), secret)
		if err != nil {
			return Credential{}, nil, err
		}

		uri, err := totp.URI(secret, params.Name, v.issuer)
		if err != nil {
			return Credential{}, nil, err
		}
		qr, err := qrcode.DataURI(uri, qrcode.DefaultSize)
		if err != nil {
			return Credential{}, nil, err
		}
		enrollment = &Enrollment{URI: uri, QRCode: qr}
	}

	if err := v.storage.InsertCredential(ctx, cred); err != nil {
		return Credential{}, nil, err
	}

	v.log.InfoContext(ctx, "credential stored",
		slog.String("credential_id", id.String()),
		slog.String("type", string(cred.Type)),
		slog.Bool("requires_2fa", cred.Requires2FA))

	return cred, enrollment, nil
}

// Retrieve decrypts a credential value. Credentials gated by a second factor
// return ErrRequires2FA when proof is empty and ErrDenied when the code does
// not verify. Access bookkeeping failures are logged, never surfaced.
func (v *Vault) Retrieve(ctx context.Context, id uuid.UUID, proof string) (string, error) {
	cred, found, err := v.storage.GetCredential(ctx, id)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrCredentialNotFound
	}

	if cred.Requires2FA {
		if proof == "" {
			return "", ErrRequires2FA
		}
		secret, err := secrets.DecryptString(v.appKey, totpScope(id), cred.EncryptedTOTPSecret)
		if err != nil {
			return "", err
		}
		ok, err := totp.ValidateAt(secret, proof, v.now())
		if err != nil || !ok {
			v.log.WarnContext(ctx, "credential access denied",
				slog.String("credential_id", id.String()))
			return "", ErrDenied
		}
	}

	value, err := secrets.DecryptString(v.appKey, valueScope(id), cred.EncryptedValue)
	if err != nil {
		return "", err
	}

	if err := v.storage.UpdateAccess(ctx, id, v.now().UTC()); err != nil {
		v.log.WarnContext(ctx, "credential access bookkeeping failed",
			slog.String("credential_id", id.String()),
			slog.String("error", err.Error()))
	}

	return value, nil
}

// Rotate replaces a credential's value, keeping its identity and 2FA setup.
func (v *Vault) Rotate(ctx context.Context, id uuid.UUID, value string) (Credential, error) {
	if value == "" {
		return Credential{}, ErrValueRequired
	}

	cred, found, err := v.storage.GetCredential(ctx, id)
	if err != nil {
		return Credential{}, err
	}
	if !found {
		return Credential{}, ErrCredentialNotFound
	}

	encryptedValue, err := secrets.EncryptString(v.appKey, valueScope(id), value)
	if err != nil {
		return Credential{}, err
	}

	now := v.now().UTC()
	if err := v.storage.UpdateValue(ctx, id, encryptedValue, now); err != nil {
		return Credential{}, err
	}

	cred.EncryptedValue = encryptedValue
	cred.RotatedAt = &now
	cred.UpdatedAt = now

	v.log.InfoContext(ctx, "credential rotated",
		slog.String("credential_id", id.String()))

	return cred, nil
}

// List returns stored credentials with ciphertext fields already excluded
// from serialization. Values are never included.
func (v *Vault) List(ctx context.Context) ([]Credential, error) {
	return v.storage.ListCredentials(ctx)
}

// Delete removes a credential.
func (v *Vault) Delete(ctx context.Context, id uuid.UUID) error {
	_, found, err := v.storage.GetCredential(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrCredentialNotFound
	}
	return v.storage.DeleteCredential(ctx, id)
}

// valueScope and totpScope keep the two ciphertexts of one credential under
// distinct derived keys.
func valueScope(id uuid.UUID) string { return "credential:" + id.String() }
func totpScope(id uuid.UUID) string  { return "credential-totp:" + id.String() }
