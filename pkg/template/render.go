package template

import (
	"regexp"
	"strings"
)

// conditionalRegex matches non-nested {{#if var}}...{{/if}} blocks,
// non-greedy per block so sibling blocks are handled independently.
var conditionalRegex = regexp.MustCompile(`(?s){{#if\s+(\w+)}}(.*?){{/if}}`)

// Process substitutes {{key}} placeholders and resolves conditional blocks.
// Placeholders without a matching variable are left as-is, which makes
// processing a pure, repeatable function of its inputs.
func Process(s string, variables map[string]string) string {
	for key, value := range variables {
		s = strings.ReplaceAll(s, "{{"+key+"}}", value)
	}

	return conditionalRegex.ReplaceAllStringFunc(s, func(block string) string {
		m := conditionalRegex.FindStringSubmatch(block)
		if variables[m[1]] != "" {
			return m[2]
		}
		return ""
	})
}

var (
	tagRegex        = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// PreviewText derives a short plain-text preview from an HTML body for
// history listings.
func PreviewText(html string, maxLength int) string {
	text := tagRegex.ReplaceAllString(html, " ")
	text = strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))
	if maxLength <= 0 || len(text) <= maxLength {
		return text
	}
	return text[:maxLength] + "..."
}
