// Package secrets encrypts credential values at rest. Every value is sealed
// with AES-256-GCM under a key derived from the application key and a
// per-credential scope via HKDF, so two credentials never share a cipher key
// and moving a ciphertext between rows makes it undecryptable.
package secrets
