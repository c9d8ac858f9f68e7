package address

import (
	"fmt"
	"regexp"
	"strings"
)

// emailRegex accepts local@domain.tld shaped addresses: no whitespace, one @,
// at least one dot after the @. Known limitation: this rejects some exotic
// but technically valid RFC 5322 addresses.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValid reports whether s is a syntactically acceptable email address.
func IsValid(s string) bool {
	return emailRegex.MatchString(s)
}

// DomainOf extracts the domain portion of an email address. Returns an empty
// string when there is no @.
func DomainOf(email string) string {
	_, domain, ok := strings.Cut(email, "@")
	if !ok {
		return ""
	}
	return domain
}

// Allowlist is the set of domains permitted as sender domains, compared
// case-insensitively against the domain portion of the from address.
type Allowlist []string

// NewAllowlist normalizes the configured sender domains, dropping empties.
func NewAllowlist(domains []string) Allowlist {
	list := make(Allowlist, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			list = append(list, d)
		}
	}
	return list
}

// Contains reports whether the domain is in the allowlist.
func (a Allowlist) Contains(domain string) bool {
	domain = strings.ToLower(domain)
	for _, d := range a {
		if d == domain {
			return true
		}
	}
	return false
}

// IsVerifiedSender reports whether the email's domain exactly matches one of
// the allowlisted sender domains.
func (a Allowlist) IsVerifiedSender(email string) bool {
	return a.Contains(DomainOf(email))
}

// ValidateRecipients partitions the input into syntactically valid and
// invalid addresses, preserving order within each partition.
func ValidateRecipients(recipients []string) (valid, invalid []string) {
	for _, r := range recipients {
		if IsValid(r) {
			valid = append(valid, r)
		} else {
			invalid = append(invalid, r)
		}
	}
	return valid, invalid
}

// Format renders an address with an optional display name as "Name <email>".
func Format(email, name string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

var formattedRegex = regexp.MustCompile(`^(.+)\s+<(.+)>$`)

// Parse splits a "Name <email>" string into its parts. A bare address is
// returned with an empty name.
func Parse(s string) (email, name string) {
	if m := formattedRegex.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[2]), strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s), ""
}
