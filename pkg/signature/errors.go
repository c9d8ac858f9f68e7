package signature

import "errors"

var (
	// ErrInvalidSecret is returned when the signing secret is empty or not
	// valid base64.
	ErrInvalidSecret = errors.New("invalid signing secret")

	// ErrMissingHeaders is returned when a required signature header is absent.
	ErrMissingHeaders = errors.New("missing signature headers")

	// ErrInvalidTimestamp is returned when the timestamp header is not a unix
	// timestamp.
	ErrInvalidTimestamp = errors.New("invalid signature timestamp")

	// ErrExpiredTimestamp is returned when the timestamp falls outside the
	// replay tolerance window.
	ErrExpiredTimestamp = errors.New("signature timestamp outside tolerance")

	// ErrInvalidSignature is returned when no candidate signature matches.
	ErrInvalidSignature = errors.New("signature mismatch")
)
