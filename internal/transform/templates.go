package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/shopspring/decimal"
)

// TemplateRegistry manages built-in what-if templates
type TemplateRegistry struct {
	templates map[string]Template
}

// Template represents a named collection of transforms
type Template struct {
	Name        string
	Description string
	Transforms  []ContractTransform
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

// CreateBuiltInTemplates creates a template registry with common what-if
// variants of a contract. Yield templates are relative to the base yield.
func CreateBuiltInTemplates(base domain.ContractInputs) *TemplateRegistry {
	registry := NewTemplateRegistry()
	yield := base.AnnualYieldPercent

	registry.Register(Template{
		Name:        "yield_low",
		Description: "Annual yield 2 points below the assumption",
		Transforms:  []ContractTransform{&AdjustYield{Percent: yield.Sub(decimal.NewFromInt(2))}},
	})
	registry.Register(Template{
		Name:        "yield_high",
		Description: "Annual yield 2 points above the assumption",
		Transforms:  []ContractTransform{&AdjustYield{Percent: yield.Add(decimal.NewFromInt(2))}},
	})
	registry.Register(Template{
		Name:        "yield_zero",
		Description: "No investment return at all",
		Transforms:  []ContractTransform{&AdjustYield{Percent: decimal.Zero}},
	})

	registry.Register(Template{
		Name:        "no_index",
		Description: "Payments stay flat for the whole term",
		Transforms:  []ContractTransform{&SetIndex{Percent: decimal.Zero}},
	})
	registry.Register(Template{
		Name:        "pay_more",
		Description: "Pay 25% more every year",
		Transforms:  []ContractTransform{&ScalePayment{Factor: decimal.RequireFromString("1.25")}},
	})
	registry.Register(Template{
		Name:        "pay_less",
		Description: "Pay 25% less every year",
		Transforms:  []ContractTransform{&ScalePayment{Factor: decimal.RequireFromString("0.75")}},
	})

	registry.Register(Template{
		Name:        "premium_holiday",
		Description: "Skip payments in years 3 and 4",
		Transforms:  []ContractTransform{&PremiumHoliday{From: 3, To: 4}},
	})
	registry.Register(Template{
		Name:        "extend_5yr",
		Description: "Keep the contract 5 years longer",
		Transforms:  []ContractTransform{&ExtendDuration{Years: 5}},
	})

	registry.Register(Template{
		Name:        "stress",
		Description: "Low yield with a premium holiday in years 3 and 4",
		Transforms: []ContractTransform{
			&AdjustYield{Percent: yield.Sub(decimal.NewFromInt(2))},
			&PremiumHoliday{From: 3, To: 4},
		},
	})

	return registry
}

// ApplyTemplate applies a template to base inputs
func ApplyTemplate(base domain.ContractInputs, template Template) (domain.ContractInputs, error) {
	return ApplyTransforms(base, template.Transforms)
}

// ParseTemplateList parses a comma-separated list of template names
func ParseTemplateList(templateList string) []string {
	if templateList == "" {
		return nil
	}

	parts := strings.Split(templateList, ",")
	templates := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			templates = append(templates, trimmed)
		}
	}
	return templates
}

// GetTemplateHelp returns formatted help text for all templates
func GetTemplateHelp(registry *TemplateRegistry) string {
	if len(registry.templates) == 0 {
		return "No templates registered"
	}

	var sb strings.Builder
	sb.WriteString("Available Templates:\n\n")

	categories := map[string][]Template{}
	order := []string{"Yield", "Payments", "Term", "Combinations"}
	for _, name := range registry.List() {
		template := registry.templates[name]
		switch {
		case strings.HasPrefix(name, "yield_"):
			categories["Yield"] = append(categories["Yield"], template)
		case strings.HasPrefix(name, "pay_"), name == "no_index", name == "premium_holiday":
			categories["Payments"] = append(categories["Payments"], template)
		case strings.HasPrefix(name, "extend_"):
			categories["Term"] = append(categories["Term"], template)
		default:
			categories["Combinations"] = append(categories["Combinations"], template)
		}
	}

	for _, category := range order {
		templates := categories[category]
		if len(templates) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("%s:\n", category))
		for _, t := range templates {
			sb.WriteString(fmt.Sprintf("  %-20s %s\n", t.Name, t.Description))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Usage:\n")
	sb.WriteString("  savingsim whatif contract.yaml --with yield_low,premium_holiday\n")
	sb.WriteString("  savingsim whatif contract.yaml --transform premium_holiday:from=2,to=3\n")

	return sb.String()
}
