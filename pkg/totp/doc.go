// Package totp implements RFC 6238 time-based one-time passwords. The vault
// uses it to gate retrieval of credentials that require a second factor and
// to build enrollment URIs for authenticator apps.
package totp
