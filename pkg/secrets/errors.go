package secrets

import "errors"

var (
	// ErrInvalidKey is returned when the application key is not KeySize bytes.
	ErrInvalidKey = errors.New("application key must be 32 bytes")

	// ErrKeyDerivation is returned when HKDF expansion fails.
	ErrKeyDerivation = errors.New("key derivation failed")

	// ErrEncryptionFailed is returned when sealing fails.
	ErrEncryptionFailed = errors.New("encryption failed")

	// ErrDecryptionFailed is returned when opening fails, including
	// authentication failures from a wrong key or scope.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrInvalidCiphertext is returned for ciphertexts too short to contain a
	// nonce or not valid base64.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
)
