package address_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/mailroom/pkg/address"
)

func TestIsValid(t *testing.T) {
	t.Parallel()

	valid := []string{
		"a@b.com",
		"first.last@sub.example.org",
		"user+tag@example.io",
	}
	for _, s := range valid {
		assert.True(t, address.IsValid(s), s)
	}

	invalid := []string{
		"",
		"not-an-email",
		"missing@tld",
		"two@@example.com",
		"white space@example.com",
		"@example.com",
		"user@",
	}
	for _, s := range invalid {
		assert.False(t, address.IsValid(s), s)
	}
}

func TestDomainOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "example.com", address.DomainOf("user@example.com"))
	assert.Equal(t, "", address.DomainOf("no-at-sign"))
}

func TestAllowlist(t *testing.T) {
	t.Parallel()

	list := address.NewAllowlist([]string{" Example.com ", "mail.ORG", ""})

	assert.True(t, list.Contains("example.com"))
	assert.True(t, list.Contains("EXAMPLE.COM"))
	assert.True(t, list.IsVerifiedSender("info@example.com"))
	assert.True(t, list.IsVerifiedSender("noreply@mail.org"))
	assert.False(t, list.IsVerifiedSender("info@random.com"))
	assert.False(t, list.IsVerifiedSender("info@sub.example.com"), "exact match only")
}

func TestValidateRecipients(t *testing.T) {
	t.Parallel()

	valid, invalid := address.ValidateRecipients([]string{"a@b.com", "not-an-email", "c@d.org"})
	assert.Equal(t, []string{"a@b.com", "c@d.org"}, valid)
	assert.Equal(t, []string{"not-an-email"}, invalid)
}

func TestFormatParse(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Jo Doe <jo@example.com>", address.Format("jo@example.com", "Jo Doe"))
	assert.Equal(t, "jo@example.com", address.Format("jo@example.com", ""))

	email, name := address.Parse("Jo Doe <jo@example.com>")
	assert.Equal(t, "jo@example.com", email)
	assert.Equal(t, "Jo Doe", name)

	email, name = address.Parse("  jo@example.com ")
	assert.Equal(t, "jo@example.com", email)
	assert.Empty(t, name)
}
