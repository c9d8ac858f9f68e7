package secrets_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailroom/pkg/secrets"
)

func TestEncryptDecryptString(t *testing.T) {
	t.Parallel()

	key, err := secrets.GenerateKey()
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		ciphertext, err := secrets.EncryptString(key, "cred-1", "re_live_abc123")
		require.NoError(t, err)
		assert.NotEqual(t, "re_live_abc123", ciphertext)

		plaintext, err := secrets.DecryptString(key, "cred-1", ciphertext)
		require.NoError(t, err)
		assert.Equal(t, "re_live_abc123", plaintext)
	})

	t.Run("ciphertexts differ per call", func(t *testing.T) {
		t.Parallel()

		first, err := secrets.EncryptString(key, "cred-1", "value")
		require.NoError(t, err)
		second, err := secrets.EncryptString(key, "cred-1", "value")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("scope binds the ciphertext", func(t *testing.T) {
		t.Parallel()

		ciphertext, err := secrets.EncryptString(key, "cred-1", "value")
		require.NoError(t, err)

		_, err = secrets.DecryptString(key, "cred-2", ciphertext)
		require.ErrorIs(t, err, secrets.ErrDecryptionFailed)
	})

	t.Run("wrong key fails", func(t *testing.T) {
		t.Parallel()

		other, err := secrets.GenerateKey()
		require.NoError(t, err)

		ciphertext, err := secrets.EncryptString(key, "cred-1", "value")
		require.NoError(t, err)

		_, err = secrets.DecryptString(other, "cred-1", ciphertext)
		require.ErrorIs(t, err, secrets.ErrDecryptionFailed)
	})

	t.Run("invalid key length", func(t *testing.T) {
		t.Parallel()

		_, err := secrets.EncryptString([]byte("short"), "cred-1", "value")
		require.ErrorIs(t, err, secrets.ErrInvalidKey)
	})

	t.Run("invalid ciphertext", func(t *testing.T) {
		t.Parallel()

		_, err := secrets.DecryptString(key, "cred-1", "not base64!!!")
		require.ErrorIs(t, err, secrets.ErrInvalidCiphertext)

		_, err = secrets.DecryptString(key, "cred-1", "YWJj")
		require.ErrorIs(t, err, secrets.ErrInvalidCiphertext)
	})

	t.Run("empty plaintext", func(t *testing.T) {
		t.Parallel()

		ciphertext, err := secrets.EncryptString(key, "cred-1", "")
		require.NoError(t, err)
		plaintext, err := secrets.DecryptString(key, "cred-1", ciphertext)
		require.NoError(t, err)
		assert.Empty(t, plaintext)
	})
}
