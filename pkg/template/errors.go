package template

import "errors"

var (
	// ErrTemplateNotFound is returned when the template id is not registered.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrInvalidTemplate is returned when a template misses required fields.
	ErrInvalidTemplate = errors.New("invalid template: id and subject are required")

	// ErrFailedToLoadTemplates wraps template file loading failures.
	ErrFailedToLoadTemplates = errors.New("failed to load templates from file")
)
