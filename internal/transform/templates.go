package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/rgehrsitz/taxgo/internal/rules"
)

// TemplateRegistry manages built-in what-if templates
type TemplateRegistry struct {
	templates map[string]Template
}

// Template represents a named collection of transforms
type Template struct {
	Name        string
	Description string
	Transforms  []ReturnTransform
}

// NewTemplateRegistry creates an empty template registry
func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{
		templates: make(map[string]Template),
	}
}

// Register adds a template to the registry
func (tr *TemplateRegistry) Register(t Template) {
	tr.templates[strings.ToLower(t.Name)] = t
}

// Get retrieves a template by name (case-insensitive)
func (tr *TemplateRegistry) Get(name string) (Template, bool) {
	t, ok := tr.templates[strings.ToLower(name)]
	return t, ok
}

// List returns all registered template names, sorted
func (tr *TemplateRegistry) List() []string {
	names := make([]string, 0, len(tr.templates))
	for name := range tr.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateBuiltInTemplates creates a template registry with the common
// deduction-planning what-ifs.
func CreateBuiltInTemplates(provider rules.Provider) *TemplateRegistry {
	registry := NewTemplateRegistry()

	registry.Register(Template{
		Name:        "max_80c",
		Description: "Invest the full 80C limit (PPF, ELSS, life insurance)",
		Transforms: []ReturnTransform{
			&MaxOutSection{Section: domain.Section80C, Rules: provider},
		},
	})

	registry.Register(Template{
		Name:        "max_nps",
		Description: "Contribute the full additional NPS amount under 80CCD(1B)",
		Transforms: []ReturnTransform{
			&MaxOutSection{Section: domain.Section80CCD1B, Rules: provider},
		},
	})

	registry.Register(Template{
		Name:        "max_health",
		Description: "Claim the full health insurance premium under 80D",
		Transforms: []ReturnTransform{
			&MaxOutSection{Section: domain.Section80D, Rules: provider},
		},
	})

	registry.Register(Template{
		Name:        "max_all",
		Description: "Max out 80C, 80CCD(1B) and 80D together",
		Transforms: []ReturnTransform{
			&MaxOutSection{Section: domain.Section80C, Rules: provider},
			&MaxOutSection{Section: domain.Section80CCD1B, Rules: provider},
			&MaxOutSection{Section: domain.Section80D, Rules: provider},
		},
	})

	return registry
}

// ApplyTemplate applies all transforms in a template to a base return
func ApplyTemplate(base *domain.ReturnFile, template Template) (*domain.ReturnFile, error) {
	modified, err := ApplyTransforms(base, template.Transforms)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", template.Name, err)
	}
	return modified, nil
}
