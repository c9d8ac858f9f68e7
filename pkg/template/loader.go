package template

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

type templateFile struct {
	Templates []Template `yaml:"templates"`
}

// LoadFile registers additional templates from a YAML file on top of the
// built-ins. File templates with an existing id replace the built-in one.
//
// Expected shape:
//
//	templates:
//	  - id: reset-password
//	    name: Password Reset
//	    subject: "Reset your {{company_name}} password"
//	    html: "..."
//	    text: "..."
//	    variables: [company_name, reset_url]
func (r *Registry) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Join(ErrFailedToLoadTemplates, err)
	}

	var file templateFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return errors.Join(ErrFailedToLoadTemplates, err)
	}

	for _, t := range file.Templates {
		if err := r.Register(t); err != nil {
			return errors.Join(ErrFailedToLoadTemplates, err)
		}
	}
	return nil
}
