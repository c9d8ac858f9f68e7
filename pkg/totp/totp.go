package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base32"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	// Digits is the code length. Authenticator apps default to six.
	Digits = 6

	// Period is the code validity window in seconds per RFC 6238.
	Period = 30

	// secretSize is 160 bits, the RFC 4226 recommended secret length.
	secretSize = 20
)

var (
	secretRegex = regexp.MustCompile("^[A-Z2-7]+$")
	codeRegex   = regexp.MustCompile(`^\d{6}$`)

	encoding = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// GenerateSecret creates a new base32-encoded shared secret.
func GenerateSecret() (string, error) {
	secret := make([]byte, secretSize)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrSecretGeneration, err)
	}
	return encoding.EncodeToString(secret), nil
}

// URI builds an otpauth:// enrollment URI for authenticator apps following
// the Key Uri Format used by Google Authenticator.
func URI(secret, accountName, issuer string) (string, error) {
	if _, err := decodeSecret(secret); err != nil {
		return "", err
	}
	if accountName == "" {
		return "", ErrMissingAccountName
	}
	if issuer == "" {
		return "", ErrMissingIssuer
	}

	label := url.PathEscape(issuer) + ":" + url.PathEscape(accountName)

	query := url.Values{}
	query.Set("secret", strings.ToUpper(strings.TrimSpace(secret)))
	query.Set("issuer", issuer)
	query.Set("algorithm", "SHA1")
	query.Set("digits", fmt.Sprintf("%d", Digits))
	query.Set("period", fmt.Sprintf("%d", Period))

	return "otpauth://totp/" + label + "?" + query.Encode(), nil
}

// Validate checks a code against the secret for the current time.
func Validate(secret, code string) (bool, error) {
	return ValidateAt(secret, code, time.Now())
}

// ValidateAt checks a code against the window containing t. Codes from the
// adjacent windows are accepted to tolerate clock drift.
func ValidateAt(secret, code string, t time.Time) (bool, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return false, err
	}

	code = strings.TrimSpace(code)
	if !codeRegex.MatchString(code) {
		return false, ErrInvalidCode
	}

	counter := t.Unix() / Period
	for i := int64(-1); i <= 1; i++ {
		if fmt.Sprintf("%06d", hotp(key, counter+i)) == code {
			return true, nil
		}
	}
	return false, nil
}

// CodeAt generates the code for the window containing t.
func CodeAt(secret string, t time.Time) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", hotp(key, t.Unix()/Period)), nil
}

func decodeSecret(secret string) ([]byte, error) {
	secret = strings.ToUpper(strings.TrimSpace(secret))
	if !secretRegex.MatchString(secret) {
		return nil, ErrInvalidSecret
	}
	key, err := encoding.DecodeString(secret)
	if err != nil {
		return nil, errors.Join(ErrInvalidSecret, err)
	}
	return key, nil
}

// hotp implements the RFC 4226 HMAC-based one-time password algorithm with
// dynamic truncation.
func hotp(key []byte, counter int64) int {
	counterBytes := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		counterBytes[i] = byte(counter & 0xff)
		counter >>= 8
	}

	mac := hmac.New(sha1.New, key)
	mac.Write(counterBytes)
	hash := mac.Sum(nil)

	offset := hash[len(hash)-1] & 0x0f
	code := (int(hash[offset]&0x7f) << 24) |
		(int(hash[offset+1]) << 16) |
		(int(hash[offset+2]) << 8) |
		int(hash[offset+3])

	return code % int(math.Pow10(Digits))
}
