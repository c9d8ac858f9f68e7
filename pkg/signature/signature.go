package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance is the replay window accepted around the signed timestamp.
const DefaultTolerance = 5 * time.Minute

const secretPrefix = "whsec_"

// Verifier checks webhook signatures against a shared secret.
type Verifier struct {
	key       []byte
	tolerance time.Duration
	now       func() time.Time
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithTolerance overrides the replay tolerance window.
func WithTolerance(d time.Duration) Option {
	return func(v *Verifier) { v.tolerance = d }
}

// WithNow overrides the clock. Test hook.
func WithNow(now func() time.Time) Option {
	return func(v *Verifier) { v.now = now }
}

// NewVerifier creates a verifier from a whsec_ prefixed base64 secret. A bare
// base64 secret without the prefix is accepted too.
func NewVerifier(secret string, opts ...Option) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: secret is required", ErrInvalidSecret)
	}
	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, secretPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}

	v := &Verifier{
		key:       key,
		tolerance: DefaultTolerance,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Verify checks the payload against the id, timestamp and signature header
// values. The signature header may carry several space-separated candidates
// in "v1,<base64>" form; verification succeeds when any candidate matches.
func (v *Verifier) Verify(payload []byte, msgID, timestamp, signatures string) error {
	if msgID == "" || timestamp == "" || signatures == "" {
		return ErrMissingHeaders
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimestamp, timestamp)
	}

	if v.tolerance > 0 {
		age := v.now().Sub(time.Unix(ts, 0))
		if age > v.tolerance || age < -v.tolerance {
			return fmt.Errorf("%w: %v", ErrExpiredTimestamp, age)
		}
	}

	expected := v.sign(msgID, timestamp, payload)
	for _, candidate := range strings.Fields(signatures) {
		// Strip the "v1," version prefix; unversioned values are compared
		// as-is.
		if _, sig, found := strings.Cut(candidate, ","); found {
			candidate = sig
		}
		if hmac.Equal([]byte(candidate), []byte(expected)) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// VerifyRequest reads the signature headers from an HTTP request and
// verifies the payload.
func (v *Verifier) VerifyRequest(r *http.Request, payload []byte) error {
	msgID := r.Header.Get("svix-id")
	if msgID == "" {
		msgID = r.Header.Get("webhook-id")
	}
	timestamp := r.Header.Get("svix-timestamp")
	if timestamp == "" {
		timestamp = r.Header.Get("webhook-timestamp")
	}
	signatures := r.Header.Get("svix-signature")
	if signatures == "" {
		signatures = r.Header.Get("webhook-signature")
	}
	return v.Verify(payload, msgID, timestamp, signatures)
}

// Sign produces the "v1,<base64>" signature for a payload. Used by tests and
// local webhook replay tooling.
func (v *Verifier) Sign(msgID string, at time.Time, payload []byte) string {
	return "v1," + v.sign(msgID, strconv.FormatInt(at.Unix(), 10), payload)
}

func (v *Verifier) sign(msgID, timestamp string, payload []byte) string {
	h := hmac.New(sha256.New, v.key)
	h.Write([]byte(msgID))
	h.Write([]byte("."))
	h.Write([]byte(timestamp))
	h.Write([]byte("."))
	h.Write(payload)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
