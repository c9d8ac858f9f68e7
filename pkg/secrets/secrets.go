package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the required application key length, 256 bits for AES-256.
const KeySize = 32

// derivationInfo provides domain separation from any other HKDF use of the
// same key material.
const derivationInfo = "mailroom-secrets-v1"

// GenerateKey creates a new random application key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// EncryptString seals plaintext under the key scoped to scope and returns
// base64 ciphertext in nonce||sealed form.
func EncryptString(appKey []byte, scope, plaintext string) (string, error) {
	sealed, err := EncryptBytes(appKey, scope, []byte(plaintext))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptString opens a base64 ciphertext produced by EncryptString with the
// same key and scope.
func DecryptString(appKey []byte, scope, ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.Join(ErrInvalidCiphertext, err)
	}
	plaintext, err := DecryptBytes(appKey, scope, raw)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// EncryptBytes seals data under the scoped key. Output is nonce||sealed.
func EncryptBytes(appKey []byte, scope string, data []byte) ([]byte, error) {
	gcm, err := scopedGCM(appKey, scope)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}
	return gcm.Seal(nonce, nonce, data, nil), nil
}

// DecryptBytes opens a nonce||sealed ciphertext under the scoped key.
func DecryptBytes(appKey []byte, scope string, sealed []byte) ([]byte, error) {
	gcm, err := scopedGCM(appKey, scope)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(sealed) < nonceSize {
		return nil, ErrInvalidCiphertext
	}
	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// scopedGCM derives the per-scope cipher. The scope acts as the HKDF salt,
// binding the ciphertext to the credential it was sealed for.
func scopedGCM(appKey []byte, scope string) (cipher.AEAD, error) {
	if len(appKey) != KeySize {
		return nil, ErrInvalidKey
	}

	key := make([]byte, KeySize)
	defer clearBytes(key)
	reader := hkdf.New(sha256.New, appKey, []byte(scope), []byte(derivationInfo))
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, errors.Join(ErrKeyDerivation, err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}
	return cipher.NewGCM(block)
}

// clearBytes zeros key material once the cipher is built.
func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
