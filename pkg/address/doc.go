// Package address provides syntactic email validation and sender policy
// checks for the email pipeline. Validation is intentionally permissive
// (local@domain.tld shaped, not full RFC 5322); the delivery provider is the
// final authority on deliverability.
package address
