package template_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailroom/pkg/template"
)

func TestProcess(t *testing.T) {
	t.Parallel()

	t.Run("variable substitution", func(t *testing.T) {
		t.Parallel()

		out := template.Process("Hello {{name}}, welcome to {{company}}!", map[string]string{
			"name":    "Jo",
			"company": "Acme",
		})
		assert.Equal(t, "Hello Jo, welcome to Acme!", out)
	})

	t.Run("missing variables stay literal", func(t *testing.T) {
		t.Parallel()

		out := template.Process("Hello {{name}}", map[string]string{})
		assert.Equal(t, "Hello {{name}}", out)
	})

	t.Run("idempotent with empty variables", func(t *testing.T) {
		t.Parallel()

		input := "Hi {{a}} and {{b}}"
		once := template.Process(input, nil)
		twice := template.Process(once, nil)
		assert.Equal(t, once, twice)
	})

	t.Run("conditional block kept for truthy variable", func(t *testing.T) {
		t.Parallel()

		out := template.Process("A{{#if x}}B{{/if}}C", map[string]string{"x": "1"})
		assert.Equal(t, "ABC", out)
	})

	t.Run("conditional block removed for absent or empty variable", func(t *testing.T) {
		t.Parallel()

		out := template.Process("A{{#if x}}B{{/if}}C", map[string]string{})
		assert.Equal(t, "AC", out)

		out = template.Process("A{{#if x}}B{{/if}}C", map[string]string{"x": ""})
		assert.Equal(t, "AC", out)
	})

	t.Run("sibling conditionals are independent", func(t *testing.T) {
		t.Parallel()

		out := template.Process("{{#if a}}1{{/if}}-{{#if b}}2{{/if}}", map[string]string{"a": "yes"})
		assert.Equal(t, "1-", out)
	})

	t.Run("conditional spans newlines", func(t *testing.T) {
		t.Parallel()

		out := template.Process("start{{#if x}}\nmiddle\n{{/if}}end", map[string]string{"x": "v"})
		assert.Equal(t, "start\nmiddle\nend", out)
	})
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("builtins registered", func(t *testing.T) {
		t.Parallel()

		r := template.NewRegistry()
		for _, id := range []string{"welcome", "notification", "invoice", "support"} {
			_, err := r.Get(id)
			assert.NoError(t, err, id)
		}
		assert.Len(t, r.All(), 4)
	})

	t.Run("unknown template", func(t *testing.T) {
		t.Parallel()

		r := template.NewRegistry()
		_, err := r.Render("nope", nil)
		assert.ErrorIs(t, err, template.ErrTemplateNotFound)
	})

	t.Run("render substitutes all parts", func(t *testing.T) {
		t.Parallel()

		r := template.NewRegistry()
		out, err := r.Render("welcome", map[string]string{
			"company_name":  "Acme",
			"user_name":     "Jo",
			"dashboard_url": "https://app.acme.test",
		})
		require.NoError(t, err)
		assert.Equal(t, "Welcome to Acme!", out.Subject)
		assert.Contains(t, out.HTML, "Welcome, Jo!")
		assert.Contains(t, out.Text, "https://app.acme.test")
	})

	t.Run("render never errors on missing variables", func(t *testing.T) {
		t.Parallel()

		r := template.NewRegistry()
		out, err := r.Render("welcome", nil)
		require.NoError(t, err)
		assert.Contains(t, out.Subject, "{{company_name}}")
	})

	t.Run("register validates required fields", func(t *testing.T) {
		t.Parallel()

		r := template.NewRegistry()
		err := r.Register(template.Template{ID: "x"})
		assert.ErrorIs(t, err, template.ErrInvalidTemplate)
	})
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	t.Run("registers templates from yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "templates.yaml")
		content := `templates:
  - id: reset-password
    name: Password Reset
    subject: "Reset your {{company_name}} password"
    text: "Reset here: {{reset_url}}"
    variables: [company_name, reset_url]
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		r := template.NewRegistry()
		require.NoError(t, r.LoadFile(path))

		out, err := r.Render("reset-password", map[string]string{"company_name": "Acme", "reset_url": "https://x"})
		require.NoError(t, err)
		assert.Equal(t, "Reset your Acme password", out.Subject)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		r := template.NewRegistry()
		err := r.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorIs(t, err, template.ErrFailedToLoadTemplates)
	})
}

func TestPreviewText(t *testing.T) {
	t.Parallel()

	out := template.PreviewText("<p>Hello   <b>world</b></p>", 150)
	assert.Equal(t, "Hello world", out)

	out = template.PreviewText("<p>abcdefghij</p>", 5)
	assert.Equal(t, "abcde...", out)
}
