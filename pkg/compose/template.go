package compose

import (
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

// templateFile is the on-disk shape of a message template override.
// Both fields are Go text/template sources executed against Data.
type templateFile struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

// LoadTemplates reads subject/body template overrides from a YAML file
// and returns a composer using them. An empty subject or body field
// keeps the default wording for that part.
func LoadTemplates(path string) (*Composer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template file %s: %w", path, err)
	}
	return ParseTemplates(data)
}

// ParseTemplates parses template overrides from raw YAML bytes.
func ParseTemplates(data []byte) (*Composer, error) {
	var f templateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse template file: %w", err)
	}

	c := New()
	if f.Subject != "" {
		t, err := template.New("subject").Parse(f.Subject)
		if err != nil {
			return nil, fmt.Errorf("parse subject template: %w", err)
		}
		c.subjectTmpl = t
	}
	if f.Body != "" {
		t, err := template.New("body").Parse(f.Body)
		if err != nil {
			return nil, fmt.Errorf("parse body template: %w", err)
		}
		c.bodyTmpl = t
	}
	return c, nil
}
