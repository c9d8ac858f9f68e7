// Package vault stores provider credentials encrypted at rest and gates
// retrieval behind an optional second factor. The email pipeline consumes it
// through Retrieve; it never sees stored ciphertext or TOTP secrets.
package vault
