package vault

import "errors"

var (
	// ErrStorageNil is returned by New when no storage is provided.
	ErrStorageNil = errors.New("vault: storage is nil")

	// ErrCredentialNotFound is returned when no credential has the given id.
	ErrCredentialNotFound = errors.New("vault: credential not found")

	// ErrRequires2FA is returned by Retrieve when the credential is gated by
	// a second factor and no code was supplied.
	ErrRequires2FA = errors.New("vault: two-factor code required")

	// ErrDenied is returned when the supplied second-factor code does not
	// verify.
	ErrDenied = errors.New("vault: access denied")

	// ErrNameRequired is returned by Store for credentials without a name.
	ErrNameRequired = errors.New("vault: credential name is required")

	// ErrValueRequired is returned by Store and Rotate for empty values.
	ErrValueRequired = errors.New("vault: credential value is required")
)
