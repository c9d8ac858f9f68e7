// Package template renders email subject, HTML and text bodies from
// registered templates with {{key}} variable substitution and simple
// {{#if var}}...{{/if}} conditional blocks.
//
// Rendering is permissive by design: unknown variables stay as literal
// {{key}} placeholders instead of failing, so rendering twice with the same
// input (including an empty variable map) is idempotent. Only an unknown
// template id is an error.
package template
