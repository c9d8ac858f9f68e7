package template

import (
	"sort"
	"sync"
)

// Template is a registered email template. Variables lists the placeholder
// names the template expects; it is informational and not enforced at render
// time.
type Template struct {
	ID        string   `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	Subject   string   `json:"subject" yaml:"subject"`
	HTML      string   `json:"html,omitempty" yaml:"html"`
	Text      string   `json:"text,omitempty" yaml:"text"`
	Variables []string `json:"variables,omitempty" yaml:"variables"`
}

// Rendered is the output of rendering a template.
type Rendered struct {
	Subject string `json:"subject"`
	HTML    string `json:"html,omitempty"`
	Text    string `json:"text,omitempty"`
}

// Registry holds templates by id. Safe for concurrent use; registration
// normally happens once at startup, rendering on every request.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewRegistry creates a registry preloaded with the built-in templates.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]Template)}
	for _, t := range builtinTemplates {
		r.templates[t.ID] = t
	}
	return r
}

// Register adds or replaces a template.
func (r *Registry) Register(t Template) error {
	if t.ID == "" || t.Subject == "" {
		return ErrInvalidTemplate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.ID] = t
	return nil
}

// Get returns the template with the given id.
func (r *Registry) Get(id string) (Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[id]
	if !ok {
		return Template{}, ErrTemplateNotFound
	}
	return t, nil
}

// All returns registered templates sorted by id.
func (r *Registry) All() []Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Render looks up the template and substitutes variables into subject, HTML
// and text. Returns ErrTemplateNotFound for unknown ids; missing variables
// are never an error.
func (r *Registry) Render(id string, variables map[string]string) (Rendered, error) {
	t, err := r.Get(id)
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{
		Subject: Process(t.Subject, variables),
		HTML:    Process(t.HTML, variables),
		Text:    Process(t.Text, variables),
	}, nil
}
