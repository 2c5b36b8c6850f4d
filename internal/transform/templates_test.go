package transform

import (
	"strings"
	"testing"
)

func TestTemplateRegistry_RegisterAndGet(t *testing.T) {
	registry := NewTemplateRegistry()

	template := Template{
		Name:        "test_template",
		Description: "A test template",
		Transforms:  []ContractTransform{},
	}

	registry.Register(template)

	retrieved, ok := registry.Get("test_template")
	if !ok {
		t.Fatal("Expected to find template")
	}
	if retrieved.Name != template.Name {
		t.Errorf("Expected name %s, got %s", template.Name, retrieved.Name)
	}

	if _, ok = registry.Get("TEST_TEMPLATE"); !ok {
		t.Fatal("Expected case-insensitive lookup to work")
	}

	if _, ok = registry.Get("nonexistent"); ok {
		t.Error("Expected not to find nonexistent template")
	}
}

func TestCreateBuiltInTemplates(t *testing.T) {
	base := createTestContract()
	registry := CreateBuiltInTemplates(base)

	for _, name := range []string{
		"yield_low", "yield_high", "yield_zero", "no_index",
		"pay_more", "pay_less", "premium_holiday", "extend_5yr", "stress",
	} {
		template, ok := registry.Get(name)
		if !ok {
			t.Errorf("Expected template %s to exist", name)
			continue
		}
		if _, err := ApplyTemplate(base, template); err != nil {
			t.Errorf("Template %s failed on the test contract: %v", name, err)
		}
	}
}

func TestCreateBuiltInTemplates_YieldIsRelative(t *testing.T) {
	base := createTestContract()
	registry := CreateBuiltInTemplates(base)

	low, _ := registry.Get("yield_low")
	out, err := ApplyTemplate(base, low)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !out.AnnualYieldPercent.Equal(dec("2")) {
		t.Errorf("Expected yield 2, got %s", out.AnnualYieldPercent)
	}

	stress, _ := registry.Get("stress")
	out, err = ApplyTemplate(base, stress)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !out.PaymentByYear[3].IsZero() || !out.PaymentByYear[4].IsZero() {
		t.Errorf("Expected a holiday in years 3-4, got %v", out.PaymentByYear)
	}
}

func TestParseTemplateList(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"yield_low", []string{"yield_low"}},
		{"yield_low, extend_5yr ,", []string{"yield_low", "extend_5yr"}},
	}
	for _, tt := range tests {
		got := ParseTemplateList(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("ParseTemplateList(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParseTemplateList(%q)[%d] = %s, want %s", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}

func TestGetTemplateHelp(t *testing.T) {
	help := GetTemplateHelp(CreateBuiltInTemplates(createTestContract()))
	for _, section := range []string{"Yield:", "Payments:", "Term:", "Combinations:", "savingsim whatif"} {
		if !strings.Contains(help, section) {
			t.Errorf("Expected help to contain %q", section)
		}
	}

	if got := GetTemplateHelp(NewTemplateRegistry()); got != "No templates registered" {
		t.Errorf("Unexpected empty help %q", got)
	}
}
