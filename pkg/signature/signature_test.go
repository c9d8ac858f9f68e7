package signature_test

import (
	"encoding/base64"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailroom/pkg/signature"
)

const testSecret = "whsec_dGVzdC1zaWduaW5nLXNlY3JldA==" // "test-signing-secret"

func TestVerifier_Verify(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{"type":"email.delivered","data":{"email_id":"pm-1"}}`)

	newVerifier := func(t *testing.T) *signature.Verifier {
		t.Helper()
		v, err := signature.NewVerifier(testSecret, signature.WithNow(func() time.Time { return now }))
		require.NoError(t, err)
		return v
	}

	t.Run("valid signature", func(t *testing.T) {
		t.Parallel()

		v := newVerifier(t)
		sig := v.Sign("msg_1", now, payload)
		require.NoError(t, v.Verify(payload, "msg_1", strconv.FormatInt(now.Unix(), 10), sig))
	})

	t.Run("accepts any matching candidate", func(t *testing.T) {
		t.Parallel()

		v := newVerifier(t)
		sig := v.Sign("msg_1", now, payload)
		header := "v1,Zm9yZ2VkCg== " + sig
		require.NoError(t, v.Verify(payload, "msg_1", strconv.FormatInt(now.Unix(), 10), header))
	})

	t.Run("tampered payload", func(t *testing.T) {
		t.Parallel()

		v := newVerifier(t)
		sig := v.Sign("msg_1", now, payload)
		err := v.Verify([]byte(`{"type":"email.bounced"}`), "msg_1", strconv.FormatInt(now.Unix(), 10), sig)
		require.ErrorIs(t, err, signature.ErrInvalidSignature)
	})

	t.Run("different message id", func(t *testing.T) {
		t.Parallel()

		v := newVerifier(t)
		sig := v.Sign("msg_1", now, payload)
		err := v.Verify(payload, "msg_2", strconv.FormatInt(now.Unix(), 10), sig)
		require.ErrorIs(t, err, signature.ErrInvalidSignature)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		t.Parallel()

		v := newVerifier(t)
		old := now.Add(-10 * time.Minute)
		sig := v.Sign("msg_1", old, payload)
		err := v.Verify(payload, "msg_1", strconv.FormatInt(old.Unix(), 10), sig)
		require.ErrorIs(t, err, signature.ErrExpiredTimestamp)
	})

	t.Run("future timestamp", func(t *testing.T) {
		t.Parallel()

		v := newVerifier(t)
		future := now.Add(10 * time.Minute)
		sig := v.Sign("msg_1", future, payload)
		err := v.Verify(payload, "msg_1", strconv.FormatInt(future.Unix(), 10), sig)
		require.ErrorIs(t, err, signature.ErrExpiredTimestamp)
	})

	t.Run("missing headers", func(t *testing.T) {
		t.Parallel()

		v := newVerifier(t)
		require.ErrorIs(t, v.Verify(payload, "", "", ""), signature.ErrMissingHeaders)
	})

	t.Run("garbage timestamp", func(t *testing.T) {
		t.Parallel()

		v := newVerifier(t)
		err := v.Verify(payload, "msg_1", "yesterday", "v1,abc")
		require.ErrorIs(t, err, signature.ErrInvalidTimestamp)
	})

	t.Run("verify request reads svix headers", func(t *testing.T) {
		t.Parallel()

		v := newVerifier(t)
		sig := v.Sign("msg_1", now, payload)

		req := httptest.NewRequest("POST", "/webhooks/resend", nil)
		req.Header.Set("svix-id", "msg_1")
		req.Header.Set("svix-timestamp", strconv.FormatInt(now.Unix(), 10))
		req.Header.Set("svix-signature", sig)
		require.NoError(t, v.VerifyRequest(req, payload))
	})
}

func TestNewVerifier(t *testing.T) {
	t.Parallel()

	t.Run("empty secret", func(t *testing.T) {
		t.Parallel()
		_, err := signature.NewVerifier("")
		require.ErrorIs(t, err, signature.ErrInvalidSecret)
	})

	t.Run("not base64", func(t *testing.T) {
		t.Parallel()
		_, err := signature.NewVerifier("whsec_!!!not-base64!!!")
		require.ErrorIs(t, err, signature.ErrInvalidSecret)
	})

	t.Run("bare base64 secret", func(t *testing.T) {
		t.Parallel()
		_, err := signature.NewVerifier(base64.StdEncoding.EncodeToString([]byte("key")))
		require.NoError(t, err)
	})
}
